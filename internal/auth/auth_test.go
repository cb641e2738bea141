package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"partvault/internal/principal"
)

func TestMintVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	tokens, err := New("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	signed, expiresAt, err := tokens.Mint(principal.Session{UserID: "user-1", DisplayName: "Jo Doe"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if signed == "" {
		t.Fatal("expected non-empty token")
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	sess, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sess.UserID != "user-1" || sess.DisplayName != "Jo Doe" {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestVerifyRejects(t *testing.T) {
	t.Parallel()

	tokens, err := New("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := tokens.Verify(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty token: expected ErrInvalidToken, got %v", err)
	}
	if _, err := tokens.Verify("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token: expected ErrInvalidToken, got %v", err)
	}

	// Token signed with a different secret.
	other, err := New("other-secret", time.Hour)
	if err != nil {
		t.Fatalf("new other: %v", err)
	}
	foreign, _, err := other.Mint(principal.Session{UserID: "user-1"})
	if err != nil {
		t.Fatalf("mint foreign: %v", err)
	}
	if _, err := tokens.Verify(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong-secret token: expected ErrInvalidToken, got %v", err)
	}

	// Expired token (negative ttl mints an already-expired session).
	expired, err := New("test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("new expired: %v", err)
	}
	signed, _, err := expired.Mint(principal.Session{UserID: "user-1"})
	if err != nil {
		t.Fatalf("mint expired: %v", err)
	}
	if _, err := tokens.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: expected ErrInvalidToken, got %v", err)
	}
}

func TestNewRequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := New("", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := New("   ", time.Hour); err == nil {
		t.Fatal("expected error for blank secret")
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		want   string
	}{
		{header: "", want: ""},
		{header: "Bearer abc", want: "abc"},
		{header: "bearer abc", want: "abc"},
		{header: "Bearer  abc ", want: "abc"},
		{header: "Basic abc", want: ""},
		{header: "Bearer", want: ""},
	}

	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		if got := BearerToken(r); got != tc.want {
			t.Fatalf("BearerToken(%q)=%q, want %q", tc.header, got, tc.want)
		}
	}
}
