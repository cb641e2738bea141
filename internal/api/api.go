package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"partvault/internal/assets"
	"partvault/internal/auth"
	"partvault/internal/config"
	"partvault/internal/metrics"
	"partvault/internal/store"
	"partvault/internal/ws"
)

type Dependencies struct {
	Config  config.Config
	Store   *store.Store
	Assets  *assets.Manager
	Tokens  *auth.Tokens
	Hub     *ws.Hub
	Metrics *metrics.Metrics
}

func New(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(securityHeaders)

	api := &server{
		cfg:     dep.Config,
		store:   dep.Store,
		assets:  dep.Assets,
		tokens:  dep.Tokens,
		hub:     dep.Hub,
		metrics: dep.Metrics,
	}

	apiRouter := chi.NewRouter()
	apiRouter.Use(api.observeRequests)

	apiRouter.Route("/auth", func(r chi.Router) {
		r.Post("/login-link", api.handleLoginLink)
		r.Post("/redeem", api.handleRedeem)
	})

	apiRouter.Group(func(r chi.Router) {
		r.Use(api.requireSession)

		r.Get("/auth/session", api.handleGetSession)
		r.Get("/ws", api.handleWS)

		r.Route("/assets", func(r chi.Router) {
			r.Get("/", api.handleListAssets)
			r.Post("/", api.handleUploadAsset)
			r.Delete("/", api.handleRemoveAssets)
			r.Post("/view-slots", api.handleEnsureViewSlots)
		})

		r.Route("/parts", func(r chi.Router) {
			r.Get("/", api.handleListParts)
			r.Post("/", api.handleUpsertPart)
			r.Route("/{slug}", func(r chi.Router) {
				r.Get("/", api.handleGetPart)
				r.Post("/images/{view}", api.handleUploadViewImage)
				r.Delete("/images/{view}", api.handleRemoveViewImage)
			})
		})

		r.Route("/saved", func(r chi.Router) {
			r.Get("/", api.handleListSavedItems)
			r.Post("/", api.handleSaveItem)
			r.Delete("/{slug}", api.handleDeleteSavedItem)
		})

		r.Get("/categories", api.handleListCategories)
	})

	r.Mount("/api/v1", apiRouter)

	r.Method(http.MethodGet, "/metrics", dep.Metrics.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if api.store == nil || api.store.Ping(r.Context()) != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store_unavailable\n"))
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})

	return r
}
