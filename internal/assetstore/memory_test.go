package assetstore

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestStore() *MemoryStore {
	st := NewMemoryStore("part-images", "https://cdn.example.com")
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n := 0
	st.SetClock(func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	})
	return st
}

func mustUpload(t *testing.T, c Client, path, content string, upsert bool) {
	t.Helper()
	_, err := c.Upload(context.Background(), path, strings.NewReader(content), UploadOptions{Upsert: upsert, ContentType: "image/png"})
	if err != nil {
		t.Fatalf("upload %s: %v", path, err)
	}
}

func TestUploadListRemoveRoundTrip(t *testing.T) {
	t.Parallel()

	st := newTestStore()
	c := st.Client("user-1")
	ctx := context.Background()

	stored, err := c.Upload(ctx, "user-1/abc123.png", bytes.NewReader([]byte("img")), UploadOptions{ContentType: "image/png"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if stored != "user-1/abc123.png" {
		t.Fatalf("unexpected stored path %q", stored)
	}

	items, err := c.List(ctx, "user-1", ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Name != "abc123.png" || items[0].Path != "user-1/abc123.png" {
		t.Fatalf("unexpected listing entry %+v", items[0])
	}
	if items[0].Size != 3 {
		t.Fatalf("expected size 3, got %d", items[0].Size)
	}

	res, err := c.Remove(ctx, []string{"user-1/abc123.png"})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(res.Deleted) != 1 || len(res.Failed) != 0 {
		t.Fatalf("unexpected remove result %+v", res)
	}

	items, err = c.List(ctx, "user-1", ListOptions{})
	if err != nil {
		t.Fatalf("list after remove: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty listing, got %d items", len(items))
	}
}

func TestUploadConflictWithoutUpsert(t *testing.T) {
	t.Parallel()

	st := newTestStore()
	c := st.Client("user-1")

	mustUpload(t, c, "user-1/main_jpg/main.png", "v1", false)
	_, err := c.Upload(context.Background(), "user-1/main_jpg/main.png", strings.NewReader("v2"), UploadOptions{})
	if KindOf(err) != KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if data, _ := st.GetObject("user-1/main_jpg/main.png"); string(data) != "v1" {
		t.Fatalf("conflicting upload must not replace content, got %q", data)
	}
}

func TestViewScopedUpsertReplacesInPlace(t *testing.T) {
	t.Parallel()

	st := newTestStore()
	c := st.Client("user-1")
	ctx := context.Background()

	mustUpload(t, c, "user-1/main_jpg/main.png", "first", true)
	mustUpload(t, c, "user-1/main_jpg/main.png", "second", true)

	items, err := c.List(ctx, "user-1/main_jpg", ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected exactly one object in the slot, got %d", len(items))
	}
	if data, _ := st.GetObject("user-1/main_jpg/main.png"); string(data) != "second" {
		t.Fatalf("expected second upload to win, got %q", data)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	t.Parallel()

	st := newTestStore()
	owner := st.Client("b")
	mustUpload(t, owner, "b/1.png", "theirs", false)

	c := st.Client("a")
	ctx := context.Background()

	if _, err := c.List(ctx, "b", ListOptions{}); KindOf(err) != KindForbidden {
		t.Fatalf("foreign list: expected forbidden, got %v", err)
	}
	if _, err := c.Upload(ctx, "b/2.png", strings.NewReader("x"), UploadOptions{}); KindOf(err) != KindForbidden {
		t.Fatalf("foreign upload: expected forbidden, got %v", err)
	}
	res, err := c.Remove(ctx, []string{"b/1.png"})
	if KindOf(err) != KindForbidden {
		t.Fatalf("foreign remove: expected forbidden, got %v", err)
	}
	if len(res.Deleted) != 0 {
		t.Fatalf("foreign remove must not delete anything, got %+v", res)
	}
	if _, ok := st.GetObject("b/1.png"); !ok {
		t.Fatal("foreign object must survive a rejected remove")
	}

	// Similar-looking prefixes do not leak across principals.
	if _, err := c.Upload(ctx, "ab/1.png", strings.NewReader("x"), UploadOptions{}); KindOf(err) != KindForbidden {
		t.Fatalf("prefix-similar upload: expected forbidden, got %v", err)
	}
}

func TestRemovePartialFailure(t *testing.T) {
	t.Parallel()

	st := newTestStore()
	mustUpload(t, st.Client("a"), "a/1.png", "mine", false)
	mustUpload(t, st.Client("b"), "b/1.png", "theirs", false)

	res, err := st.Client("a").Remove(context.Background(), []string{"a/1.png", "b/1.png"})
	if KindOf(err) != KindPartialFailure {
		t.Fatalf("expected partial failure, got %v", err)
	}
	if len(res.Deleted) != 1 || res.Deleted[0] != "a/1.png" {
		t.Fatalf("expected a/1.png deleted, got %+v", res.Deleted)
	}
	if len(res.Failed) != 1 || res.Failed[0].Path != "b/1.png" {
		t.Fatalf("expected b/1.png rejected, got %+v", res.Failed)
	}
	var se *Error
	if !errors.As(res.Failed[0].Err, &se) || se.Kind != KindForbidden {
		t.Fatalf("per-path failure must be forbidden, got %v", res.Failed[0].Err)
	}

	if _, ok := st.GetObject("a/1.png"); ok {
		t.Fatal("a/1.png should be gone")
	}
	if _, ok := st.GetObject("b/1.png"); !ok {
		t.Fatal("b/1.png should remain")
	}
}

func TestListDefaultSortIsCreatedAtDescending(t *testing.T) {
	t.Parallel()

	st := newTestStore()
	c := st.Client("u")
	mustUpload(t, c, "u/oldest.png", "1", false)
	mustUpload(t, c, "u/middle.png", "2", false)
	mustUpload(t, c, "u/newest.png", "3", false)

	items, err := c.List(context.Background(), "u", ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := []string{items[0].Name, items[1].Name, items[2].Name}
	want := []string{"newest.png", "middle.png", "oldest.png"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestListPagingAndNameSort(t *testing.T) {
	t.Parallel()

	st := newTestStore()
	c := st.Client("u")
	mustUpload(t, c, "u/c.png", "1", false)
	mustUpload(t, c, "u/a.png", "2", false)
	mustUpload(t, c, "u/b.png", "3", false)

	items, err := c.List(context.Background(), "u", ListOptions{SortBy: SortName, Ascending: true, Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].Name != "b.png" || items[1].Name != "c.png" {
		t.Fatalf("unexpected page %+v", items)
	}

	empty, err := c.List(context.Background(), "u", ListOptions{Offset: 10})
	if err != nil {
		t.Fatalf("list past end: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %d", len(empty))
	}
}

func TestUnauthenticatedClient(t *testing.T) {
	t.Parallel()

	c := newTestStore().Client("")
	ctx := context.Background()

	if _, err := c.List(ctx, "u", ListOptions{}); KindOf(err) != KindUnauthenticated {
		t.Fatalf("list: expected unauthenticated, got %v", err)
	}
	if _, err := c.Upload(ctx, "u/a.png", strings.NewReader("x"), UploadOptions{}); KindOf(err) != KindUnauthenticated {
		t.Fatalf("upload: expected unauthenticated, got %v", err)
	}
	if _, err := c.Remove(ctx, []string{"u/a.png"}); KindOf(err) != KindUnauthenticated {
		t.Fatalf("remove: expected unauthenticated, got %v", err)
	}
}

func TestPublicURLShape(t *testing.T) {
	t.Parallel()

	c := newTestStore().Client("u")
	got := c.PublicURL("u/main_jpg/main.png")
	want := "https://cdn.example.com/storage/v1/object/public/part-images/u/main_jpg/main.png"
	if got != want {
		t.Fatalf("public url = %q, want %q", got, want)
	}
}

func TestPrefixMatches(t *testing.T) {
	t.Parallel()

	cases := []struct {
		prefix string
		key    string
		want   bool
	}{
		{"", "anything/x.png", true},
		{"a", "a/x.png", true},
		{"a", "a", true},
		{"a", "ab/x.png", false},
		{"a/", "a/x.png", true},
		{"a/b", "a/b/c.png", true},
		{"a/b", "a/bc.png", false},
	}
	for _, tc := range cases {
		if got := PrefixMatches(tc.prefix, tc.key); got != tc.want {
			t.Fatalf("PrefixMatches(%q, %q)=%v, want %v", tc.prefix, tc.key, got, tc.want)
		}
	}
}
