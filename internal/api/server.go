package api

import (
	"context"

	"partvault/internal/assets"
	"partvault/internal/auth"
	"partvault/internal/config"
	"partvault/internal/metrics"
	"partvault/internal/principal"
	"partvault/internal/store"
	"partvault/internal/ws"
)

type server struct {
	cfg     config.Config
	store   *store.Store
	assets  *assets.Manager
	tokens  *auth.Tokens
	hub     *ws.Hub
	metrics *metrics.Metrics
}

type contextKey string

const sessionKey contextKey = "session"

func sessionFromContext(ctx context.Context) (principal.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(principal.Session)
	return sess, ok
}
