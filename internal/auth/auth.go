package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"partvault/internal/principal"
)

var ErrInvalidToken = errors.New("invalid or expired session token")

// Tokens mints and verifies HS256 session tokens. The subject claim carries
// the principal identifier; the name claim carries the display name used by
// slug-mode folder keys.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func New(secret string, ttl time.Duration) (*Tokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl}, nil
}

func (t *Tokens) Mint(sess principal.Session) (string, time.Time, error) {
	if strings.TrimSpace(sess.UserID) == "" {
		return "", time.Time{}, errors.New("session has no user id")
	}
	now := time.Now().UTC()
	expiresAt := now.Add(t.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sess.UserID,
		"name": sess.DisplayName,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (t *Tokens) Verify(raw string) (principal.Session, error) {
	if strings.TrimSpace(raw) == "" {
		return principal.Session{}, ErrInvalidToken
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return principal.Session{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return principal.Session{}, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return principal.Session{}, ErrInvalidToken
	}
	name, _ := claims["name"].(string)

	return principal.Session{UserID: sub, DisplayName: name}, nil
}

// BearerToken extracts the token from an Authorization: Bearer header, or ""
// when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
