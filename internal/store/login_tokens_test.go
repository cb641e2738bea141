package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetOrCreateUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	sess, err := st.GetOrCreateUser(ctx, "Jo@Example.com", "Jo Doe")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.UserID == "" || sess.DisplayName != "Jo Doe" {
		t.Fatalf("unexpected session %+v", sess)
	}

	// Same email (case-insensitive) resolves to the same user.
	again, err := st.GetOrCreateUser(ctx, "jo@example.com", "")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if again.UserID != sess.UserID {
		t.Fatalf("expected same user, got %q and %q", sess.UserID, again.UserID)
	}

	// A new display name updates the stored one.
	renamed, err := st.GetOrCreateUser(ctx, "jo@example.com", "Jo D.")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.DisplayName != "Jo D." {
		t.Fatalf("expected updated display name, got %q", renamed.DisplayName)
	}

	if _, err := st.GetOrCreateUser(ctx, "   ", ""); err == nil {
		t.Fatal("expected error for empty email")
	}
}

func TestLoginTokenRedeemOnce(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	sess, err := st.GetOrCreateUser(ctx, "jo@example.com", "Jo")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	token, err := st.CreateLoginToken(ctx, sess.UserID, 15*time.Minute)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	if token.Token == "" {
		t.Fatal("expected non-empty token")
	}

	redeemed, err := st.RedeemLoginToken(ctx, token.Token)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if redeemed.UserID != sess.UserID {
		t.Fatalf("expected user %q, got %q", sess.UserID, redeemed.UserID)
	}

	if _, err := st.RedeemLoginToken(ctx, token.Token); !errors.Is(err, ErrLoginTokenInvalid) {
		t.Fatalf("second redeem must fail, got %v", err)
	}
}

func TestLoginTokenExpiry(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	sess, err := st.GetOrCreateUser(ctx, "jo@example.com", "Jo")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	token, err := st.CreateLoginToken(ctx, sess.UserID, -time.Minute)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	if _, err := st.RedeemLoginToken(ctx, token.Token); !errors.Is(err, ErrLoginTokenInvalid) {
		t.Fatalf("expired token must fail, got %v", err)
	}
}

func TestLoginTokenUnknown(t *testing.T) {
	st := newTestStore(t)
	if _, err := st.RedeemLoginToken(context.Background(), "not-a-token"); !errors.Is(err, ErrLoginTokenInvalid) {
		t.Fatalf("unknown token must fail, got %v", err)
	}
	if _, err := st.RedeemLoginToken(context.Background(), "  "); !errors.Is(err, ErrLoginTokenInvalid) {
		t.Fatalf("blank token must fail, got %v", err)
	}
}
