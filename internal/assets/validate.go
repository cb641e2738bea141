package assets

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// MaxUploadBytes is the hard per-file limit. Files of exactly this size pass;
// one byte more is rejected.
const MaxUploadBytes = 5 * 1024 * 1024

var allowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"webp": {},
}

// ValidationError carries the user-facing message for a rejected upload. It is
// produced before any network call; a file that fails validation is never
// partially uploaded.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Candidate describes an upload before it is accepted: the declared content
// type, declared byte size, and the client-side filename.
type Candidate struct {
	Filename    string
	ContentType string
	Size        int64
}

// Ext returns the lower-cased text after the final '.' in the filename, or ""
// when there is none.
func (c Candidate) Ext() string {
	name := c.Filename
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// Validate applies the upload rules in order: content type, size, extension.
// The first failed rule is reported.
func Validate(c Candidate) error {
	if !strings.HasPrefix(c.ContentType, "image/") {
		return &ValidationError{
			Reason:  "content_type",
			Message: fmt.Sprintf("only image files are accepted (got %q)", c.ContentType),
		}
	}
	if c.Size > MaxUploadBytes {
		return &ValidationError{
			Reason:  "size",
			Message: fmt.Sprintf("file is too large (%d bytes, limit %d)", c.Size, MaxUploadBytes),
		}
	}
	ext := c.Ext()
	if _, ok := allowedExtensions[ext]; !ok {
		return &ValidationError{
			Reason:  "extension",
			Message: fmt.Sprintf("unsupported file extension %q (expected jpg, jpeg, png, gif, or webp)", ext),
		}
	}
	return nil
}

// SniffImage decodes just the header of data and reports the detected format.
// It catches files whose declared content type lies about the payload. Data may
// be a prefix of the file; decoders only need the leading bytes.
func SniffImage(data []byte) (format string, err error) {
	_, format, err = image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", &ValidationError{
			Reason:  "content",
			Message: "file content is not a recognized image",
		}
	}
	return format, nil
}
