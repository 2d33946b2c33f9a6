package connector

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/cnap-oss/mybots/internal/common"
	"github.com/cnap-oss/mybots/internal/connector/handlers"
	"github.com/cnap-oss/mybots/internal/controller"
	"github.com/cnap-oss/mybots/internal/storage"
	"go.uber.org/zap"
)

// Connector는 Marten 봇의 Discord 세션과 명령 라우터를 관리하는 중앙 구조체입니다.
type Connector struct {
	logger         *zap.Logger
	session        *discordgo.Session
	config         *common.Config
	store          storage.Store
	router         *controller.Router
	discordHandler *handlers.DiscordHandler
}

// NewServer는 새로운 connector 서버를 생성하고 초기화합니다.
func NewServer(logger *zap.Logger, cfg *common.Config, store storage.Store) *Connector {
	return &Connector{
		logger: logger.Named("connector"),
		config: cfg,
		store:  store,
	}
}

// Start는 Discord 봇을 시작하고 Discord API에 연결합니다.
// 세션 생성, 라우터 구성, 이벤트 핸들러 등록, 연결 열기 등의 작업을 수행하고
// ctx가 취소될 때까지 대기합니다.
func (s *Connector) Start(ctx context.Context) error {
	s.logger.Info("Starting connector server (Discord Bot)")

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

	s.router = controller.NewRouter(s.logger, NewDiscordPlatform(s.session), s.store, controller.Options{
		Prefix:           s.config.Commands.Prefix,
		AuthorizedUserID: s.config.Commands.AuthorizedUserID,
		VanityRoleName:   s.config.Commands.VanityRoleName,
	})

	s.discordHandler = handlers.NewDiscordHandler(ctx, s.logger, s.session, s.router)
	s.discordHandler.RegisterHandlers()

	if err := s.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	s.logger.Info("Bot is now running.", zap.String("prefix", s.config.Commands.Prefix))

	// 컨텍스트가 취소될 때까지 대기
	<-ctx.Done()
	s.logger.Info("Connector server shutting down")
	return s.Stop(context.Background()) // 컨텍스트가 이미 완료되었으므로 새 컨텍스트로 Stop 호출
}

// Stop은 Discord 세션을 정상적으로 닫고 봇을 종료합니다.
func (s *Connector) Stop(ctx context.Context) error {
	s.logger.Info("Stopping connector server")
	if s.session != nil {
		if err := s.session.Close(); err != nil {
			s.logger.Error("Error closing discord session", zap.Error(err))
			return err
		}
	}
	s.logger.Info("Connector server stopped")
	return nil
}
