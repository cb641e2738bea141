// Package assetstore defines the contract this service relies on from the
// object-storage backend, plus the two implementations: S3-compatible remote
// storage and an embedded in-memory store used for development and tests.
package assetstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Kind classifies asset store failures. Every error returned by a Client wraps
// exactly one kind; callers branch on the kind, never on provider error text.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindConflict        Kind = "conflict"
	KindUnavailable     Kind = "storage_unavailable"
	KindPartialFailure  Kind = "partial_failure"
)

type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("assetstore: %s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("assetstore: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind carried by err, or "" when err is not an asset store
// error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// ObjectInfo describes one stored asset as returned by List.
type ObjectInfo struct {
	// Name is the leaf filename.
	Name string
	// Path is the full object key, folder key included.
	Path string
	Size      int64
	CreatedAt time.Time
}

type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortName      SortField = "name"
)

// ListOptions page and order a folder listing. The zero value means: no paging,
// creation time descending.
type ListOptions struct {
	Limit     int
	Offset    int
	SortBy    SortField
	Ascending bool
}

type UploadOptions struct {
	// Upsert allows overwriting an existing object at the same path. Without it
	// an upload to an occupied path fails with KindConflict.
	Upsert      bool
	ContentType string
}

// RemoveResult reports a batch delete path by path. Removal is not atomic:
// some paths may be deleted while others are rejected.
type RemoveResult struct {
	Deleted []string
	Failed  []RemoveFailure
}

type RemoveFailure struct {
	Path string
	Err  error
}

// Client is the only surface that talks to object storage. Implementations are
// bound to one bucket and one calling principal; the backend re-checks folder
// ownership on every call, and a policy rejection surfaces as KindForbidden.
type Client interface {
	// List returns assets under prefix, strictly scoped: "a" never matches
	// "ab/...". Default order is creation time descending.
	List(ctx context.Context, prefix string, opts ListOptions) ([]ObjectInfo, error)

	// Upload stores body at path and returns the stored path. Read-after-write
	// visibility is assumed from the backend, not enforced here.
	Upload(ctx context.Context, path string, body io.Reader, opts UploadOptions) (string, error)

	// Remove deletes the given paths. When only part of the batch is rejected
	// the returned error has KindPartialFailure and the result carries per-path
	// detail; nothing is rolled back.
	Remove(ctx context.Context, paths []string) (RemoveResult, error)

	// PublicURL derives the public URL for a stored asset. Pure computation,
	// no network call, and no existence check.
	PublicURL(path string) string
}

// PublicObjectURL is the shared URL shape for public-bucket assets.
func PublicObjectURL(baseURL, bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		strings.TrimSuffix(baseURL, "/"), bucket, path)
}

// PrefixMatches reports whether key lives under prefix with '/' boundaries
// respected. An empty prefix matches everything.
func PrefixMatches(prefix, key string) bool {
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	if len(key) == len(prefix) {
		return true
	}
	return strings.HasSuffix(prefix, "/") || key[len(prefix)] == '/'
}
