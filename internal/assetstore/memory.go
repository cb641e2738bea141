package assetstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"sync"
	"time"

	"partvault/internal/policy"
)

// MemoryStore is an embedded object store that enforces the folder ownership
// rule the same way the remote backend does. It backs development mode and the
// contract tests.
type MemoryStore struct {
	bucket  string
	baseURL string
	rule    policy.Rule

	mu      sync.RWMutex
	objects map[string]memoryObject

	// clock is swappable so tests can order creations deterministically.
	clock func() time.Time
}

type memoryObject struct {
	data        []byte
	contentType string
	createdAt   time.Time
}

func NewMemoryStore(bucket, baseURL string) *MemoryStore {
	return &MemoryStore{
		bucket:  bucket,
		baseURL: baseURL,
		rule:    policy.Rule{Bucket: bucket},
		objects: make(map[string]memoryObject),
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the creation timestamp source.
func (m *MemoryStore) SetClock(clock func() time.Time) {
	m.clock = clock
}

// Client binds the store to one calling principal. An empty principal produces
// a client whose every call fails with KindUnauthenticated, matching a session
// that expired between resolution and use.
func (m *MemoryStore) Client(principalID string) Client {
	return &memoryClient{store: m, principalID: principalID}
}

// GetObject returns the stored bytes without a policy check. Test helper only.
func (m *MemoryStore) GetObject(objectPath string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[objectPath]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, true
}

type memoryClient struct {
	store       *MemoryStore
	principalID string
}

func (c *memoryClient) check(op policy.Operation, objectPath string) error {
	if c.principalID == "" {
		return &Error{Kind: KindUnauthenticated, Err: errors.New("no principal bound to client")}
	}
	if !c.store.rule.Allows(op, c.store.bucket, objectPath, c.principalID) {
		return &Error{
			Kind: KindForbidden,
			Path: objectPath,
			Err:  fmt.Errorf("ownership policy rejected %s for principal %q", op, c.principalID),
		}
	}
	return nil
}

func (c *memoryClient) List(ctx context.Context, prefix string, opts ListOptions) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindUnavailable, Err: err}
	}
	if err := c.check(policy.OpSelect, prefix); err != nil {
		return nil, err
	}

	c.store.mu.RLock()
	out := make([]ObjectInfo, 0, 16)
	for key, obj := range c.store.objects {
		if !PrefixMatches(prefix, key) {
			continue
		}
		out = append(out, ObjectInfo{
			Name:      path.Base(key),
			Path:      key,
			Size:      int64(len(obj.data)),
			CreatedAt: obj.createdAt,
		})
	}
	c.store.mu.RUnlock()

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

func (c *memoryClient) Upload(ctx context.Context, objectPath string, body io.Reader, opts UploadOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Kind: KindUnavailable, Err: err}
	}
	if err := c.check(policy.OpInsert, objectPath); err != nil {
		return "", err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", &Error{Kind: KindUnavailable, Path: objectPath, Err: err}
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if _, exists := c.store.objects[objectPath]; exists && !opts.Upsert {
		return "", &Error{Kind: KindConflict, Path: objectPath, Err: errors.New("object already exists")}
	}
	c.store.objects[objectPath] = memoryObject{
		data:        data,
		contentType: opts.ContentType,
		createdAt:   c.store.clock(),
	}
	return objectPath, nil
}

func (c *memoryClient) Remove(ctx context.Context, paths []string) (RemoveResult, error) {
	var res RemoveResult
	if err := ctx.Err(); err != nil {
		return res, &Error{Kind: KindUnavailable, Err: err}
	}
	if c.principalID == "" {
		return res, &Error{Kind: KindUnauthenticated, Err: errors.New("no principal bound to client")}
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for _, p := range paths {
		if !c.store.rule.Allows(policy.OpDelete, c.store.bucket, p, c.principalID) {
			res.Failed = append(res.Failed, RemoveFailure{
				Path: p,
				Err:  &Error{Kind: KindForbidden, Path: p, Err: errors.New("ownership policy rejected delete")},
			})
			continue
		}
		delete(c.store.objects, p)
		res.Deleted = append(res.Deleted, p)
	}

	switch {
	case len(res.Failed) == 0:
		return res, nil
	case len(res.Deleted) == 0:
		// Whole batch rejected: surface the first failure directly.
		return res, res.Failed[0].Err
	default:
		return res, &Error{
			Kind: KindPartialFailure,
			Err:  fmt.Errorf("%d of %d paths failed", len(res.Failed), len(paths)),
		}
	}
}

func (c *memoryClient) PublicURL(objectPath string) string {
	return PublicObjectURL(c.store.baseURL, c.store.bucket, objectPath)
}

func sortObjects(items []ObjectInfo, opts ListOptions) {
	field := opts.SortBy
	if field == "" {
		field = SortCreatedAt
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !opts.Ascending {
			a, b = b, a
		}
		switch field {
		case SortName:
			return a.Name < b.Name
		default:
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.Path < b.Path
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}
