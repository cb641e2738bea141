package assets

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"partvault/internal/principal"
)

// ObjectPath builds the storage path for an unscoped upload:
// {folderKey}/{ulid}.{ext}. Every call produces a fresh path, so unrelated
// uploads can never collide.
func ObjectPath(folderKey, ext string) (string, error) {
	if err := checkPathInputs(folderKey, ext); err != nil {
		return "", err
	}
	token := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	return fmt.Sprintf("%s/%s.%s", folderKey, strings.ToLower(token.String()), strings.ToLower(ext)), nil
}

// ViewScopedPath builds the storage path for a view-tagged upload:
// {folderKey}/{viewType}_jpg/{viewType}.{ext}. The path is a function of
// (folderKey, viewType) alone, so a later upload to the same slot lands on the
// same path and replaces the previous object. At most one live object per slot.
func ViewScopedPath(folderKey string, view ViewType, ext string) (string, error) {
	if err := checkPathInputs(folderKey, ext); err != nil {
		return "", err
	}
	if _, err := ParseViewType(string(view)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s_jpg/%s.%s", folderKey, view, view, strings.ToLower(ext)), nil
}

func checkPathInputs(folderKey, ext string) error {
	if strings.TrimSpace(folderKey) == "" {
		return principal.ErrEmptyFolderKey
	}
	if strings.Contains(folderKey, "/") {
		return fmt.Errorf("folder key %q must not contain '/'", folderKey)
	}
	if strings.TrimSpace(ext) == "" {
		return fmt.Errorf("extension is required")
	}
	return nil
}
