package database

import (
	"fmt"
	"os"
	"path/filepath"

	"rota-go/internal/config"
)

// NewDatabaseFromConfig creates a database based on the database config type.
// File databases are named after the tenant. Memory databases are migrated
// on creation since nothing else could have done it.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, tenantID string) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		path, err := FilePath(cfg, tenantID)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		return NewSQLiteDatabase(path)
	case "memory":
		db, err := NewSQLiteDatabase(":memory:")
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating memory database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// FilePath returns the database file of tenantID for a sqlite config.
func FilePath(cfg config.DatabaseConfig, tenantID string) (string, error) {
	if cfg.Type != "sqlite" {
		return "", fmt.Errorf("database type %q has no file", cfg.Type)
	}
	if cfg.DataDir == "" {
		return "", fmt.Errorf("data_dir required for sqlite database")
	}
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id required for sqlite database")
	}
	return filepath.Join(cfg.DataDir, tenantID+".db"), nil
}
