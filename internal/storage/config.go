package storage

import (
	"time"

	"github.com/cnap-oss/mybots/internal/common"
	gormlogger "gorm.io/gorm/logger"
)

// Config는 GORM 데이터베이스 설정 값을 보관합니다.
type Config struct {
	DSN             string
	LogLevel        gormlogger.LogLevel
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// ConfigFrom은 중앙화된 애플리케이션 설정에서 데이터베이스 설정을 구성합니다.
func ConfigFrom(appConfig *common.Config) Config {
	return Config{
		DSN:             common.GetDatabaseDSN(appConfig),
		LogLevel:        appConfig.GormLogLevel(),
		MaxIdleConns:    appConfig.Storage.MaxIdleConns,
		MaxOpenConns:    appConfig.Storage.MaxOpenConns,
		ConnMaxLifetime: appConfig.Storage.ConnMaxLifetime,
	}
}
