package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"partvault/internal/principal"
)

var (
	ErrLoginTokenInvalid = errors.New("login token is invalid or expired")
)

// LoginToken is a one-time magic-link credential. It is consumed exactly once
// and expires on its own if never used.
type LoginToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// GetOrCreateUser resolves the principal for an email address, creating it on
// first contact. A non-empty display name updates the stored one.
func (s *Store) GetOrCreateUser(ctx context.Context, email, displayName string) (principal.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return principal.Session{}, errors.New("email is required")
	}

	var row userRow
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = userRow{
			ID:          uuid.NewString(),
			Email:       email,
			DisplayName: strings.TrimSpace(displayName),
			CreatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return principal.Session{}, err
		}
	case err != nil:
		return principal.Session{}, err
	default:
		if name := strings.TrimSpace(displayName); name != "" && name != row.DisplayName {
			row.DisplayName = name
			if err := s.db.WithContext(ctx).Model(&userRow{}).
				Where("id = ?", row.ID).
				Update("display_name", name).Error; err != nil {
				return principal.Session{}, err
			}
		}
	}

	return principal.Session{UserID: row.ID, DisplayName: row.DisplayName}, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (principal.Session, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return principal.Session{}, errors.New("user not found")
	}
	if err != nil {
		return principal.Session{}, err
	}
	return principal.Session{UserID: row.ID, DisplayName: row.DisplayName}, nil
}

func (s *Store) CreateLoginToken(ctx context.Context, userID string, ttl time.Duration) (LoginToken, error) {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	now := time.Now().UTC()
	token := LoginToken{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
	}
	row := loginTokenRow{
		Token:     token.Token,
		UserID:    userID,
		ExpiresAt: token.ExpiresAt.Format(time.RFC3339Nano),
		CreatedAt: now.Format(time.RFC3339Nano),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return LoginToken{}, err
	}
	return token, nil
}

// RedeemLoginToken consumes a one-time token and returns the session it was
// issued for. Expired, unknown, and already-used tokens all fail the same way
// so callers cannot probe which case they hit.
func (s *Store) RedeemLoginToken(ctx context.Context, token string) (principal.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return principal.Session{}, ErrLoginTokenInvalid
	}

	var userID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row loginTokenRow
		err := tx.Where("token = ?", token).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLoginTokenInvalid
		}
		if err != nil {
			return err
		}
		if row.UsedAt != nil {
			return ErrLoginTokenInvalid
		}
		expiresAt, err := time.Parse(time.RFC3339Nano, row.ExpiresAt)
		if err != nil || time.Now().UTC().After(expiresAt) {
			return ErrLoginTokenInvalid
		}

		now := time.Now().UTC().Format(time.RFC3339Nano)
		res := tx.Model(&loginTokenRow{}).
			Where("token = ? AND used_at IS NULL", token).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race against a concurrent redeem.
			return ErrLoginTokenInvalid
		}
		userID = row.UserID
		return nil
	})
	if err != nil {
		return principal.Session{}, err
	}
	return s.GetUser(ctx, userID)
}
