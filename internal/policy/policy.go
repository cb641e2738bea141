// Package policy holds the folder ownership rule enforced on every storage
// operation: an object path is owned by the principal named in its first path
// segment. The production object store enforces the same rule server-side (see
// migrations/0001_storage_ownership_policies.sql); the in-process evaluation
// here backs the embedded store and lets handlers fail fast with the same
// answer the backend would give.
package policy

import "strings"

// Operation mirrors the three storage operations the rule set covers. There is
// deliberately no rename/update operation.
type Operation string

const (
	OpInsert Operation = "insert"
	OpSelect Operation = "select"
	OpDelete Operation = "delete"
)

// Rule is the ownership predicate for one bucket.
type Rule struct {
	Bucket string
}

// FirstSegment returns the text before the first '/' in key, or the whole key
// when it has no '/'. A leading '/' yields "".
func FirstSegment(key string) string {
	if i := strings.IndexByte(key, '/'); i >= 0 {
		return key[:i]
	}
	return key
}

// Allows reports whether principalID may perform op on key in bucket. All three
// operations use the same predicate: the first path segment must equal the
// principal identifier exactly.
func (r Rule) Allows(op Operation, bucket, key, principalID string) bool {
	switch op {
	case OpInsert, OpSelect, OpDelete:
	default:
		return false
	}
	if bucket != r.Bucket {
		return false
	}
	if principalID == "" {
		return false
	}
	return FirstSegment(key) == principalID
}

// AllowsAll reports whether every key passes Allows. An empty key set passes.
func (r Rule) AllowsAll(op Operation, bucket string, keys []string, principalID string) bool {
	for _, key := range keys {
		if !r.Allows(op, bucket, key, principalID) {
			return false
		}
	}
	return true
}
