package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cnap-oss/mybots/internal/common"
	"github.com/cnap-oss/mybots/internal/connector"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "weasel",
		Short:        "Weasel - skeleton Discord bot",
		Long:         `Weasel logs in to Discord and reports which guild it is configured for.`,
		Version:      fmt.Sprintf("%s (built at %s)", Version, BuildTime),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", common.DefaultConfigPath, "config file path (YAML or JSON)")

	// health 명령어
	rootCmd.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Check application health status",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("OK")
			return nil
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStart(configPath string) error {
	if err := common.InitConfig(configPath); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := common.GetConfig()
	if err := cfg.ValidateSkeleton(); err != nil {
		return err
	}

	logger, err := common.NewLoggerWithConfig("weasel", cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// SIGINT/SIGTERM 수신 시 ctx 취소
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting Weasel", zap.String("version", Version), zap.String("guild_id", cfg.Discord.GuildID))
	if err := connector.NewSkeleton(logger, cfg).Start(ctx); err != nil {
		logger.Error("Weasel stopped with error", zap.Error(err))
		return err
	}
	logger.Info("Weasel stopped")
	return nil
}
