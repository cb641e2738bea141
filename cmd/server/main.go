package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"partvault/internal/app"
	"partvault/internal/config"
	"partvault/internal/logging"
)

func main() {
	var cfg config.Config

	flag.StringVar(&cfg.Addr, "addr", getEnv("ADDR", "127.0.0.1:8080"), "listen address")
	flag.StringVar(&cfg.DataDir, "data-dir", getEnv("DATA_DIR", "./data"), "data directory (sqlite db)")
	flag.StringVar(&cfg.DBBackend, "db-backend", getEnv("DB_BACKEND", "sqlite"), "database backend (sqlite or postgres)")
	flag.StringVar(&cfg.DatabaseURL, "database-url", getEnv("DATABASE_URL", ""), "postgres connection string (required when db-backend=postgres)")
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "log format (text or json)")
	flag.StringVar(&cfg.SessionSecret, "session-secret", getEnv("SESSION_SECRET", ""), "secret used to sign session tokens")
	flag.DurationVar(&cfg.SessionTTL, "session-ttl", getEnvDuration("SESSION_TTL", 24*time.Hour), "session token lifetime")
	flag.DurationVar(&cfg.LoginTokenTTL, "login-token-ttl", getEnvDuration("LOGIN_TOKEN_TTL", 15*time.Minute), "magic-link login token lifetime")
	flag.StringVar(&cfg.FolderKeyMode, "folder-key-mode", getEnv("FOLDER_KEY_MODE", "user_id"), "storage folder key derivation (user_id or display_slug)")
	flag.StringVar(&cfg.StorageBackend, "storage-backend", getEnv("STORAGE_BACKEND", "memory"), "object storage backend (memory or s3)")
	flag.StringVar(&cfg.Bucket, "bucket", getEnv("BUCKET", "part-images"), "object storage bucket")
	flag.StringVar(&cfg.PublicBaseURL, "public-base-url", getEnv("PUBLIC_BASE_URL", ""), "origin public asset URLs are derived from")
	flag.StringVar(&cfg.S3Endpoint, "s3-endpoint", getEnv("S3_ENDPOINT", ""), "S3-compatible endpoint URL (empty for AWS)")
	flag.StringVar(&cfg.S3Region, "s3-region", getEnv("S3_REGION", ""), "S3 region")
	flag.StringVar(&cfg.S3AccessKey, "s3-access-key", getEnv("S3_ACCESS_KEY", ""), "S3 access key ID")
	flag.StringVar(&cfg.S3SecretKey, "s3-secret-key", getEnv("S3_SECRET_KEY", ""), "S3 secret access key")
	flag.BoolVar(&cfg.S3UsePathStyle, "s3-use-path-style", getEnvBool("S3_USE_PATH_STYLE", false), "use path-style S3 addressing (MinIO and friends)")

	seed := getEnv("SEED_CATEGORIES", "")
	flag.StringVar(&seed, "seed-categories", seed, "comma-separated category names to seed on startup")
	flag.Parse()

	for _, name := range strings.Split(seed, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cfg.SeedCategories = append(cfg.SeedCategories, name)
	}

	if _, err := logging.Setup(cfg.LogFormat); err != nil {
		log.Fatalf("invalid LOG_FORMAT %q: %v", cfg.LogFormat, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		logging.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
