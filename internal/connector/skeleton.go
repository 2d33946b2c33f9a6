package connector

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/cnap-oss/mybots/internal/common"
	"go.uber.org/zap"
)

// Skeleton은 로그인 후 준비 로그만 남기는 Weasel 봇입니다.
type Skeleton struct {
	logger  *zap.Logger
	session *discordgo.Session
	config  *common.Config
}

// NewSkeleton은 새로운 Skeleton 봇을 생성합니다.
func NewSkeleton(logger *zap.Logger, cfg *common.Config) *Skeleton {
	return &Skeleton{
		logger: logger.Named("skeleton"),
		config: cfg,
	}
}

// Start는 Discord에 연결하고 ctx가 취소될 때까지 대기합니다.
func (s *Skeleton) Start(ctx context.Context) error {
	if s.config == nil || s.config.Discord.Token == "" {
		return fmt.Errorf("discord token not set")
	}

	dg, err := discordgo.New("Bot " + s.config.Discord.Token)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}
	s.session = dg
	s.session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	s.session.AddHandlerOnce(s.readyHandler)

	if err := s.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	<-ctx.Done()
	return s.Stop(context.Background())
}

// Stop은 Discord 세션을 닫습니다.
func (s *Skeleton) Stop(ctx context.Context) error {
	if s.session == nil {
		return nil
	}
	if err := s.session.Close(); err != nil {
		s.logger.Error("Error closing discord session", zap.Error(err))
		return err
	}
	return nil
}

func (s *Skeleton) readyHandler(_ *discordgo.Session, r *discordgo.Ready) {
	s.logger.Info(readyLine(r.User, s.config.Discord.GuildID))
}

// readyLine은 "Logged in as <user#tag> in guild: <guildId>" 형식의 준비 메시지를 만듭니다.
func readyLine(u *discordgo.User, guildID string) string {
	name := "unknown"
	if u != nil {
		name = u.String()
	}
	return fmt.Sprintf("Logged in as %s in guild: %s", name, guildID)
}
