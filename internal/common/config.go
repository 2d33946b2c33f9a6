package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	gormlogger "gorm.io/gorm/logger"
)

const (
	// DefaultConfigPath는 작업 디렉토리의 config.json 입니다.
	DefaultConfigPath = "config.json"

	DefaultPrefix           = "meow!"
	DefaultAuthorizedUserID = "556682219171741706"
	DefaultVanityRoleName   = "🅥🅐🅝🅘🅣🅨 🅡🅞🅛🅔🅢"

	StoreBackendFile     = "file"
	StoreBackendDatabase = "database"
)

// Config는 애플리케이션의 모든 설정을 관리합니다.
// JSON은 YAML의 부분집합이므로 기존 config.json({"token": ..., "guildId": ...})도 그대로 읽힙니다.
type Config struct {
	Discord   DiscordConfig   `yaml:",inline"`
	App       AppConfig       `yaml:"app"`
	Commands  CommandsConfig  `yaml:"commands"`
	Storage   StorageConfig   `yaml:"storage"`
	Directory DirectoryConfig `yaml:"directory"`
}

// DiscordConfig는 Discord 봇 설정입니다.
type DiscordConfig struct {
	// Token은 Discord 봇 토큰입니다
	Token string `yaml:"token"`
	// GuildID는 Weasel 봇이 준비 로그에 출력하는 길드 ID입니다
	GuildID string `yaml:"guildId"`
}

// AppConfig는 애플리케이션 기본 설정입니다.
type AppConfig struct {
	// ENV는 실행 환경입니다 (development, production)
	ENV string `yaml:"env"`
	// LogLevel은 애플리케이션 로그 레벨입니다 (debug, info, warn, error)
	LogLevel string `yaml:"logLevel"`
}

// CommandsConfig는 텍스트 명령어 라우터 설정입니다.
type CommandsConfig struct {
	// Prefix는 모든 명령어 앞에 붙는 접두사입니다
	Prefix string `yaml:"prefix"`
	// AuthorizedUserID는 obliterate/disintigrate 명령을 사용할 수 있는 유일한 사용자입니다
	AuthorizedUserID string `yaml:"authorizedUserId"`
	// VanityRoleName은 봇이 관리하는 역할의 위치 기준이 되는 역할 이름입니다
	VanityRoleName string `yaml:"vanityRoleName"`
}

// StorageConfig는 역할 슬롯 저장소 설정입니다.
type StorageConfig struct {
	// Backend는 "file" 또는 "database" 입니다
	Backend string `yaml:"backend"`
	// RoleCachePath는 file 백엔드가 사용하는 JSON 파일 경로입니다
	RoleCachePath string `yaml:"roleCachePath"`
	// DSN은 database 백엔드의 연결 문자열입니다 (postgres:// 이면 PostgreSQL, 그 외는 SQLite 파일)
	DSN string `yaml:"dsn"`
	// LogLevel은 GORM 로그 레벨입니다 (silent, error, warn, info)
	LogLevel string `yaml:"logLevel"`
	// MaxIdleConns는 연결 풀의 idle 연결 개수입니다
	MaxIdleConns int `yaml:"maxIdleConns"`
	// MaxOpenConns는 연결 풀의 최대 연결 개수입니다
	MaxOpenConns int `yaml:"maxOpenConns"`
	// ConnMaxLifetime은 연결의 최대 수명입니다
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DirectoryConfig는 디렉토리 경로 설정입니다.
type DirectoryConfig struct {
	// DataDir은 기본 데이터 디렉토리입니다 (기본값: 현재 디렉토리)
	DataDir string `yaml:"dataDir"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.RWMutex
)

// InitConfig는 설정을 초기화합니다.
// .env 파일을 먼저 로드한 뒤, configPath의 파일이 존재하면 파일에서 로드하고 없으면 환경 변수에서 로드합니다.
// 파일에서 로드한 후 환경 변수로 오버라이드됩니다.
func InitConfig(configPath string) error {
	var err error
	once.Do(func() {
		// .env 파일은 선택 사항
		_ = godotenv.Load()

		if configPath == "" {
			configPath = DefaultConfigPath
		}

		var cfg *Config
		if _, statErr := os.Stat(configPath); statErr == nil {
			cfg, err = LoadConfigFromFile(configPath)
		} else {
			cfg, err = LoadConfigFromEnv()
		}

		mu.Lock()
		instance = cfg
		mu.Unlock()
	})
	return err
}

// GetConfig는 싱글톤 Config 인스턴스를 반환합니다.
// InitConfig가 먼저 호출되어야 합니다.
func GetConfig() *Config {
	mu.RLock()
	cfg := instance
	mu.RUnlock()
	if cfg == nil {
		// InitConfig가 호출되지 않은 경우 환경 변수에서 로드 시도
		_ = InitConfig("")
		mu.RLock()
		cfg = instance
		mu.RUnlock()
	}
	return cfg
}

// LoadConfigFromFile은 YAML(또는 JSON) 파일에서 설정을 로드합니다.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("설정 파일 읽기 실패: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("설정 파일 파싱 실패: %w", err)
	}

	cfg = mergeWithEnv(cfg)
	cfg.applyDefaults()

	return cfg, nil
}

// LoadConfigFromEnv는 환경 변수에서 설정을 로드합니다.
func LoadConfigFromEnv() (*Config, error) {
	cfg := mergeWithEnv(&Config{})
	cfg.applyDefaults()
	return cfg, nil
}

// mergeWithEnv는 설정을 환경 변수로 오버라이드합니다.
func mergeWithEnv(cfg *Config) *Config {
	// Discord
	if token := os.Getenv("MEOW_TOKEN"); token != "" {
		cfg.Discord.Token = token
	}
	if guildID := os.Getenv("MEOW_GUILD_ID"); guildID != "" {
		cfg.Discord.GuildID = guildID
	}

	// App
	if env := os.Getenv("MEOW_ENV"); env != "" {
		cfg.App.ENV = env
	}
	if logLevel := os.Getenv("MEOW_LOG_LEVEL"); logLevel != "" {
		cfg.App.LogLevel = logLevel
	}

	// Commands
	if prefix := os.Getenv("MEOW_PREFIX"); prefix != "" {
		cfg.Commands.Prefix = prefix
	}
	if userID := os.Getenv("MEOW_AUTHORIZED_USER_ID"); userID != "" {
		cfg.Commands.AuthorizedUserID = userID
	}
	if vanity := os.Getenv("MEOW_VANITY_ROLE"); vanity != "" {
		cfg.Commands.VanityRoleName = vanity
	}

	// Storage
	if backend := os.Getenv("MEOW_STORE_BACKEND"); backend != "" {
		cfg.Storage.Backend = backend
	}
	if path := os.Getenv("MEOW_ROLE_CACHE_PATH"); path != "" {
		cfg.Storage.RoleCachePath = path
	}
	if dsn := os.Getenv("MEOW_DB_DSN"); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if logLevel := os.Getenv("MEOW_DB_LOG_LEVEL"); logLevel != "" {
		cfg.Storage.LogLevel = logLevel
	}
	if maxIdle := os.Getenv("MEOW_DB_MAX_IDLE"); maxIdle != "" {
		cfg.Storage.MaxIdleConns = parseIntWithDefault(maxIdle, cfg.Storage.MaxIdleConns)
	}
	if maxOpen := os.Getenv("MEOW_DB_MAX_OPEN"); maxOpen != "" {
		cfg.Storage.MaxOpenConns = parseIntWithDefault(maxOpen, cfg.Storage.MaxOpenConns)
	}
	if lifetime := os.Getenv("MEOW_DB_CONN_LIFETIME"); lifetime != "" {
		cfg.Storage.ConnMaxLifetime = parseDurationWithDefault(lifetime, cfg.Storage.ConnMaxLifetime)
	}

	// Directory
	if dataDir := os.Getenv("MEOW_DIR"); dataDir != "" {
		cfg.Directory.DataDir = dataDir
	}

	return cfg
}

// applyDefaults는 비어 있는 값에 기본값을 채웁니다.
func (c *Config) applyDefaults() {
	if c.App.ENV == "" {
		c.App.ENV = "production"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Commands.Prefix == "" {
		c.Commands.Prefix = DefaultPrefix
	}
	if c.Commands.AuthorizedUserID == "" {
		c.Commands.AuthorizedUserID = DefaultAuthorizedUserID
	}
	if c.Commands.VanityRoleName == "" {
		c.Commands.VanityRoleName = DefaultVanityRoleName
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = StoreBackendFile
	}
	if c.Storage.MaxIdleConns == 0 {
		c.Storage.MaxIdleConns = 2
	}
	if c.Storage.MaxOpenConns == 0 {
		c.Storage.MaxOpenConns = 5
	}
	if c.Storage.ConnMaxLifetime == 0 {
		c.Storage.ConnMaxLifetime = 30 * time.Minute
	}
}

// GormLogLevel은 Storage.LogLevel 문자열을 GORM 로그 레벨로 변환합니다.
func (c *Config) GormLogLevel() gormlogger.LogLevel {
	return parseLogLevel(c.Storage.LogLevel)
}

// Helper functions

func parseLogLevel(value string) gormlogger.LogLevel {
	switch strings.ToLower(value) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func parseIntWithDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

// Validate는 Marten 봇에 필요한 설정 값들을 검증합니다.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord token is required (config \"token\" or MEOW_TOKEN)")
	}
	switch c.Storage.Backend {
	case StoreBackendFile, StoreBackendDatabase:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// ValidateSkeleton은 Weasel 봇에 필요한 설정 값들을 검증합니다.
func (c *Config) ValidateSkeleton() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord token is required (config \"token\" or MEOW_TOKEN)")
	}
	if c.Discord.GuildID == "" {
		return fmt.Errorf("guild id is required (config \"guildId\" or MEOW_GUILD_ID)")
	}
	return nil
}
