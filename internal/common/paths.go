package common

import (
	"path/filepath"
)

// GetDataDir returns the base data directory path.
// Priority:
// 1. Directory.DataDir from config (MEOW_DIR)
// 2. the working directory
func GetDataDir(cfg *Config) string {
	if cfg != nil && cfg.Directory.DataDir != "" {
		return cfg.Directory.DataDir
	}
	return "."
}

// GetRoleCachePath returns the JSON role slot file path.
// Default: {DataDir}/roleCache.json
func GetRoleCachePath(cfg *Config) string {
	if cfg != nil && cfg.Storage.RoleCachePath != "" {
		return cfg.Storage.RoleCachePath
	}
	return filepath.Join(GetDataDir(cfg), "roleCache.json")
}

// GetDatabaseDSN returns the database DSN for the database backend.
// Default: SQLite file {DataDir}/meow.db
func GetDatabaseDSN(cfg *Config) string {
	if cfg != nil && cfg.Storage.DSN != "" {
		return cfg.Storage.DSN
	}
	return filepath.Join(GetDataDir(cfg), "meow.db")
}
