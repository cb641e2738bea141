package assetstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config carries the connection settings for an S3-compatible backend.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	ForcePathStyle  bool

	Bucket string
	// PublicBaseURL is the origin public asset URLs are derived from.
	PublicBaseURL string
}

// S3Store talks to an S3-compatible bucket. Folder ownership is enforced by
// the backend's policy layer, not here: the client deliberately performs no
// local access checks and surfaces a policy rejection as KindForbidden.
type S3Store struct {
	api     *s3.Client
	bucket  string
	baseURL string
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Region == "" {
		return nil, errors.New("region is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if cfg.Endpoint != "" {
		if _, err := url.Parse(cfg.Endpoint); err != nil {
			return nil, err
		}
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)),
	}

	loaded, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, err
	}

	api := s3.NewFromConfig(loaded, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3Store{api: api, bucket: cfg.Bucket, baseURL: cfg.PublicBaseURL}, nil
}

// Client binds the store to one calling principal. The principal is carried
// for parity with the embedded store; the S3 backend re-derives the caller
// from the request itself.
func (s *S3Store) Client(principalID string) Client {
	return &s3Client{store: s, principalID: principalID}
}

type s3Client struct {
	store       *S3Store
	principalID string
}

func (c *s3Client) List(ctx context.Context, prefix string, opts ListOptions) ([]ObjectInfo, error) {
	if c.principalID == "" {
		return nil, &Error{Kind: KindUnauthenticated, Err: errors.New("no principal bound to client")}
	}

	// S3 prefixes are raw string prefixes; extend to a '/' boundary so "a"
	// cannot match "ab/...".
	listPrefix := prefix
	if listPrefix != "" && !strings.HasSuffix(listPrefix, "/") {
		listPrefix += "/"
	}

	out := make([]ObjectInfo, 0, 64)
	var token *string
	for {
		page, err := c.store.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(c.store.bucket),
			Prefix:            aws.String(listPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, classifyS3Error(err, prefix)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			info := ObjectInfo{
				Name: path.Base(*obj.Key),
				Path: *obj.Key,
			}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.LastModified != nil {
				info.CreatedAt = obj.LastModified.UTC()
			}
			out = append(out, info)
		}
		if page.IsTruncated == nil || !*page.IsTruncated {
			break
		}
		token = page.NextContinuationToken
	}

	sortObjects(out, opts)
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []ObjectInfo{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (c *s3Client) Upload(ctx context.Context, objectPath string, body io.Reader, opts UploadOptions) (string, error) {
	if c.principalID == "" {
		return "", &Error{Kind: KindUnauthenticated, Err: errors.New("no principal bound to client")}
	}

	if !opts.Upsert {
		// Best-effort create-only check. The backend resolves a same-path race
		// with last-write-wins; this pre-check only catches the common case.
		_, err := c.store.api.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(c.store.bucket),
			Key:    aws.String(objectPath),
		})
		switch {
		case err == nil:
			return "", &Error{Kind: KindConflict, Path: objectPath, Err: errors.New("object already exists")}
		case !isS3NotFound(err):
			return "", classifyS3Error(err, objectPath)
		}
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(c.store.bucket),
		Key:    aws.String(objectPath),
		Body:   body,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if _, err := c.store.api.PutObject(ctx, input); err != nil {
		return "", classifyS3Error(err, objectPath)
	}
	return objectPath, nil
}

func (c *s3Client) Remove(ctx context.Context, paths []string) (RemoveResult, error) {
	var res RemoveResult
	if c.principalID == "" {
		return res, &Error{Kind: KindUnauthenticated, Err: errors.New("no principal bound to client")}
	}
	if len(paths) == 0 {
		return res, nil
	}

	objects := make([]s3types.ObjectIdentifier, 0, len(paths))
	for _, p := range paths {
		objects = append(objects, s3types.ObjectIdentifier{Key: aws.String(p)})
	}

	out, err := c.store.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(c.store.bucket),
		Delete: &s3types.Delete{Objects: objects},
	})
	if err != nil {
		return res, classifyS3Error(err, "")
	}

	failed := make(map[string]error, len(out.Errors))
	for _, e := range out.Errors {
		if e.Key == nil {
			continue
		}
		kind := KindUnavailable
		if e.Code != nil && (*e.Code == "AccessDenied" || *e.Code == "AccessDeniedException") {
			kind = KindForbidden
		}
		msg := ""
		if e.Message != nil {
			msg = *e.Message
		}
		failed[*e.Key] = &Error{Kind: kind, Path: *e.Key, Err: errors.New(msg)}
	}

	for _, p := range paths {
		if ferr, ok := failed[p]; ok {
			res.Failed = append(res.Failed, RemoveFailure{Path: p, Err: ferr})
			continue
		}
		res.Deleted = append(res.Deleted, p)
	}

	switch {
	case len(res.Failed) == 0:
		return res, nil
	case len(res.Deleted) == 0:
		return res, res.Failed[0].Err
	default:
		return res, &Error{
			Kind: KindPartialFailure,
			Err:  fmt.Errorf("%d of %d paths failed", len(res.Failed), len(paths)),
		}
	}
}

func (c *s3Client) PublicURL(objectPath string) string {
	return PublicObjectURL(c.store.baseURL, c.store.bucket, objectPath)
}

func classifyS3Error(err error, objectPath string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AccessDeniedException", "AllAccessDisabled":
			return &Error{Kind: KindForbidden, Path: objectPath, Err: err}
		case "NoSuchBucket":
			return &Error{Kind: KindUnavailable, Path: objectPath, Err: err}
		}
	}
	return &Error{Kind: KindUnavailable, Path: objectPath, Err: err}
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "404":
			return true
		}
	}
	return false
}
