package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"partvault/internal/api"
	"partvault/internal/assets"
	"partvault/internal/assetstore"
	"partvault/internal/auth"
	"partvault/internal/config"
	"partvault/internal/db"
	"partvault/internal/logging"
	"partvault/internal/metrics"
	"partvault/internal/principal"
	"partvault/internal/store"
	"partvault/internal/ws"
)

func Run(ctx context.Context, cfg config.Config) error {
	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET (or --session-secret) is required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "part-images"
	}

	folderMode, err := principal.ParseFolderKeyMode(cfg.FolderKeyMode)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return err
	}

	dbBackend, err := db.ParseBackend(cfg.DBBackend)
	if err != nil {
		return err
	}

	var dbPath string
	dbConfig := db.Config{Backend: dbBackend, DatabaseURL: cfg.DatabaseURL}
	if dbBackend == db.BackendSQLite {
		dbPath = filepath.Join(cfg.DataDir, "partvault.db")
		dbConfig.SQLitePath = dbPath
	}
	gormDB, err := db.Open(dbConfig)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlDB.Close()
	}()
	if dbBackend == db.BackendSQLite {
		_ = os.Chmod(dbPath, 0o600)
	}

	st := store.New(gormDB)

	if len(cfg.SeedCategories) > 0 {
		seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := st.SeedCategories(seedCtx, cfg.SeedCategories)
		cancel()
		if err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
	}

	tokens, err := auth.New(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return err
	}

	var clients assets.ClientFactory
	switch cfg.StorageBackend {
	case "", "memory":
		clients = assetstore.NewMemoryStore(cfg.Bucket, cfg.PublicBaseURL)
	case "s3":
		s3Store, err := assetstore.NewS3Store(ctx, assetstore.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			ForcePathStyle:  cfg.S3UsePathStyle,
			Bucket:          cfg.Bucket,
			PublicBaseURL:   cfg.PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("s3 storage: %w", err)
		}
		clients = s3Store
	default:
		return fmt.Errorf("unsupported storage backend %q (expected memory or s3)", cfg.StorageBackend)
	}

	hub := ws.NewHub()
	manager := assets.NewManager(st, clients, principal.NewResolver(folderMode), hub)

	handler := api.New(api.Dependencies{
		Config:  cfg,
		Store:   st,
		Assets:  manager,
		Tokens:  tokens,
		Hub:     hub,
		Metrics: metrics.New(),
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Infof("listening on http://%s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
