package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cnap-oss/mybots/internal/common"
	"github.com/cnap-oss/mybots/internal/connector"
	"github.com/cnap-oss/mybots/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// app은 명령 실행 전에 로드되는 설정과 로거를 보관합니다.
type app struct {
	configPath string
	cfg        *common.Config
	logger     *zap.Logger
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "marten",
		Short:   "Marten - role and moderation Discord bot",
		Long:    `Marten manages self-service vanity roles (meow!pretty) and channel cleanup commands on Discord.`,
		Version: fmt.Sprintf("%s (built at %s)", Version, BuildTime),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", common.DefaultConfigPath, "config file path (YAML or JSON)")

	// start 명령어
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Connect to Discord and start handling commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStart()
		},
	}

	// health 명령어
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check application health status",
		Long:  `Check if the application is running and healthy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("OK")
			return nil
		},
	}

	// 명령어 구성
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(buildSlotsCommands(a))

	if err := rootCmd.Execute(); err != nil {
		if a.logger != nil {
			a.logger.Error("Command execution failed", zap.Error(err))
			_ = a.logger.Sync()
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// init은 설정을 로드하고 zap logger를 초기화합니다.
func (a *app) init() error {
	if err := common.InitConfig(a.configPath); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = common.GetConfig()

	logger, err := common.NewLoggerWithConfig("marten", a.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

// runStart는 Discord connector를 시작하고 종료 신호를 기다립니다.
func (a *app) runStart() error {
	logger := a.logger
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	logger.Info("Starting Marten",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("store_backend", a.cfg.Storage.Backend),
	)

	store, cleanup, err := initStore(logger, a.cfg)
	if err != nil {
		logger.Error("Failed to initialize storage", zap.Error(err))
		return err
	}
	defer cleanup()

	// Context 생성
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown을 위한 signal 처리
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	connectorServer := connector.NewServer(logger, a.cfg, store)

	errChan := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := connectorServer.Start(ctx); err != nil && err != context.Canceled {
			errChan <- fmt.Errorf("connector error: %w", err)
		}
	}()

	// 종료 대기
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received")
		cancel()
	case err := <-errChan:
		logger.Error("Server error", zap.Error(err))
		cancel()
		return err
	}

	// connector는 ctx 취소 시 스스로 세션을 닫음
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		logger.Warn("Timed out waiting for connector to stop")
	}

	logger.Info("Marten stopped gracefully")
	return nil
}

// initStore는 설정된 백엔드(file 또는 database)의 역할 슬롯 저장소를 엽니다.
func initStore(logger *zap.Logger, cfg *common.Config) (storage.Store, func(), error) {
	switch cfg.Storage.Backend {
	case common.StoreBackendDatabase:
		repo, cleanup, err := initRepository(logger, cfg)
		if err != nil {
			return nil, func() {}, err
		}
		return storage.NewDBStore(repo), cleanup, nil
	default:
		path := common.GetRoleCachePath(cfg)
		store, err := storage.OpenFileStore(path)
		if err != nil {
			return nil, func() {}, err
		}
		if skipped := store.Skipped(); len(skipped) > 0 {
			logger.Warn("Ignored role cache entries with invalid slot numbers",
				zap.String("path", path),
				zap.Strings("entries", skipped),
			)
		}
		logger.Info("Role cache loaded", zap.String("path", path))
		return store, func() {}, nil
	}
}

func initRepository(logger *zap.Logger, cfg *common.Config) (*storage.Repository, func(), error) {
	db, err := storage.Open(storage.ConfigFrom(cfg))
	if err != nil {
		return nil, func() {}, err
	}

	if err := storage.AutoMigrate(db); err != nil {
		_ = storage.Close(db)
		return nil, func() {}, err
	}

	repo, err := storage.NewRepository(db)
	if err != nil {
		_ = storage.Close(db)
		return nil, func() {}, err
	}

	cleanup := func() {
		if err := storage.Close(db); err != nil {
			logger.Warn("Failed to close storage", zap.Error(err))
		}
	}

	return repo, cleanup, nil
}
