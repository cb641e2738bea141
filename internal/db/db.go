package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

type Config struct {
	Backend     Backend
	SQLitePath  string
	DatabaseURL string
}

func ParseBackend(raw string) (Backend, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return BackendSQLite, nil
	}
	switch raw {
	case "sqlite":
		return BackendSQLite, nil
	case "postgres", "postgresql", "pg":
		return BackendPostgres, nil
	default:
		return "", fmt.Errorf("unsupported db backend %q (expected sqlite or postgres)", raw)
	}
}

func Open(cfg Config) (*gorm.DB, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = BackendSQLite
	}
	switch backend {
	case BackendSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return nil, errors.New("sqlite path is required")
		}
		return openSQLite(cfg.SQLitePath)
	case BackendPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, errors.New("DATABASE_URL is required when DB_BACKEND=postgres")
		}
		return openPostgres(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported db backend %q", backend)
	}
}

func openSQLite(dbPath string) (*gorm.DB, error) {
	sqlDB, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Exec(`PRAGMA busy_timeout=5000;`).Error; err != nil {
		return nil, err
	}
	if err := sqlDB.Exec(`PRAGMA foreign_keys=ON;`).Error; err != nil {
		return nil, err
	}
	if err := sqlDB.Exec(`PRAGMA journal_mode=WAL;`).Error; err != nil {
		return nil, err
	}

	if err := migrate(sqlDB); err != nil {
		return nil, err
	}

	return sqlDB, nil
}

func openPostgres(databaseURL string) (*gorm.DB, error) {
	sqlDB, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := migrate(sqlDB); err != nil {
		return nil, err
	}

	return sqlDB, nil
}

func migrate(db *gorm.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS login_tokens (
			token TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			used_at TEXT,
			created_at TEXT NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_login_tokens_user_id ON login_tokens(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_login_tokens_expires_at ON login_tokens(expires_at);`,

		`CREATE TABLE IF NOT EXISTS part_categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);`,

		`CREATE TABLE IF NOT EXISTS vehicle_parts (
			part_slug TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			make TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			condition TEXT NOT NULL DEFAULT '',
			price_cents BIGINT NOT NULL DEFAULT 0,
			stock INTEGER NOT NULL DEFAULT 0,
			category_id TEXT,
			features_json TEXT NOT NULL DEFAULT '[]',
			compat_models_json TEXT NOT NULL DEFAULT '[]',
			compat_years_json TEXT NOT NULL DEFAULT '[]',
			weight_grams BIGINT NOT NULL DEFAULT 0,
			dimensions TEXT NOT NULL DEFAULT '',
			material TEXT NOT NULL DEFAULT '',
			warranty_months INTEGER NOT NULL DEFAULT 0,
			main_image_url TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(category_id) REFERENCES part_categories(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_vehicle_parts_owner_id ON vehicle_parts(owner_id);`,
		`CREATE INDEX IF NOT EXISTS idx_vehicle_parts_category_id ON vehicle_parts(category_id);`,

		`CREATE TABLE IF NOT EXISTS saved_items (
			user_id TEXT NOT NULL,
			part_slug TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY(user_id, part_slug),
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY(part_slug) REFERENCES vehicle_parts(part_slug) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_saved_items_user_id_created_at ON saved_items(user_id, created_at);`,
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
