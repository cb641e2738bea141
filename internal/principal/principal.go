package principal

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Session is the authenticated identity for one request. It is resolved once by
// the auth middleware and passed explicitly; nothing in this package caches it.
type Session struct {
	UserID      string
	DisplayName string
}

// FolderKeyMode selects how a session maps to a storage folder key.
type FolderKeyMode string

const (
	// ModeUserID scopes folders by the immutable principal identifier.
	// This is the default: it is unique and survives display-name changes.
	ModeUserID FolderKeyMode = "user_id"
	// ModeDisplaySlug scopes folders by a sanitized display name. Two names
	// that sanitize identically collide, so the ownership policy cannot tell
	// the principals apart. Only enable this for single-tenant deployments.
	ModeDisplaySlug FolderKeyMode = "display_slug"
)

var ErrEmptyFolderKey = errors.New("folder key is empty")

func ParseFolderKeyMode(raw string) (FolderKeyMode, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	switch raw {
	case "", "user_id", "id":
		return ModeUserID, nil
	case "display_slug", "slug":
		return ModeDisplaySlug, nil
	default:
		return "", fmt.Errorf("unsupported folder key mode %q (expected user_id or display_slug)", raw)
	}
}

// Resolver derives storage folder keys from sessions.
type Resolver struct {
	mode FolderKeyMode
}

func NewResolver(mode FolderKeyMode) *Resolver {
	if mode == "" {
		mode = ModeUserID
	}
	return &Resolver{mode: mode}
}

func (r *Resolver) Mode() FolderKeyMode {
	return r.mode
}

// FolderKey returns the storage folder key for the session. An empty result is
// always an error; callers must never fall back to "" as a folder key.
func (r *Resolver) FolderKey(sess Session) (string, error) {
	var key string
	switch r.mode {
	case ModeDisplaySlug:
		key = Sanitize(sess.DisplayName)
	default:
		key = strings.TrimSpace(sess.UserID)
	}
	if key == "" {
		return "", ErrEmptyFolderKey
	}
	return key, nil
}

// Sanitize converts a display name to a folder-safe slug: lower-case, whitespace
// runs become a single hyphen, everything outside [a-z0-9-] is dropped, hyphen
// runs collapse, and leading/trailing hyphens are stripped. It is pure and
// idempotent; an all-invalid input produces "".
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inSpace := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace {
			b.WriteByte('-')
			inSpace = false
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}

	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return strings.Trim(out, "-")
}
