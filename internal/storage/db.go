package storage

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open은 DSN 형식에 맞는 드라이버로 데이터베이스를 엽니다.
// postgres:// 또는 postgresql:// 로 시작하거나 "host=" 키워드를 포함하면 PostgreSQL, 그 외에는 SQLite 파일로 취급합니다.
func Open(cfg Config) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("storage: empty DSN")
	}

	db, err := gorm.Open(dialectorFor(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("storage: get sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

func dialectorFor(dsn string) gorm.Dialector {
	if isPostgresDSN(dsn) {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// AutoMigrate는 role_slots 스키마를 생성하거나 갱신합니다.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&RoleSlot{}); err != nil {
		return fmt.Errorf("storage: auto migrate: %w", err)
	}
	return nil
}

// Close는 하위 sql.DB 연결을 닫습니다.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
