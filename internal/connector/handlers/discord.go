package handlers

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/cnap-oss/mybots/internal/controller"
	"go.uber.org/zap"
)

// Dispatcher는 수신 메시지를 처리하는 라우터입니다.
type Dispatcher interface {
	Dispatch(ctx context.Context, m *controller.Message) *controller.Outcome
}

// DiscordHandler는 Discord 게이트웨이 이벤트를 라우터로 전달합니다.
type DiscordHandler struct {
	logger  *zap.Logger
	session *discordgo.Session
	router  Dispatcher
	ctx     context.Context
}

// NewDiscordHandler는 새로운 DiscordHandler를 생성합니다.
// ctx는 커넥터 수명 동안 유지되며 각 명령 처리에 전달됩니다.
func NewDiscordHandler(ctx context.Context, logger *zap.Logger, session *discordgo.Session, router Dispatcher) *DiscordHandler {
	return &DiscordHandler{
		logger:  logger.With(zap.String("handler", "discord")),
		session: session,
		router:  router,
		ctx:     ctx,
	}
}

// RegisterHandlers는 Discord 세션에 이벤트 핸들러를 등록합니다.
func (h *DiscordHandler) RegisterHandlers() {
	h.session.AddHandler(h.readyHandler)
	h.session.AddHandler(h.messageCreateHandler)
}

// readyHandler는 봇이 Discord에 성공적으로 연결되었을 때 호출됩니다.
func (h *DiscordHandler) readyHandler(_ *discordgo.Session, r *discordgo.Ready) {
	h.logger.Info("Bot is ready!",
		zap.String("username", r.User.Username),
		zap.Int("guilds", len(r.Guilds)),
	)
}

// messageCreateHandler는 새로운 메시지가 생성될 때 호출됩니다.
func (h *DiscordHandler) messageCreateHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	selfID := ""
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}

	msg := ToMessage(m, selfID)
	if msg == nil {
		return
	}

	outcome := h.router.Dispatch(h.ctx, msg)
	if outcome != nil {
		h.logger.Debug("Message handled",
			zap.String("command", outcome.Command),
			zap.String("kind", outcome.Kind.String()),
		)
	}
}

// ToMessage는 discordgo 메시지 이벤트를 라우터 메시지로 변환합니다.
// 작성자 정보가 없으면 nil을 반환합니다. 자기 자신의 메시지는 봇 메시지로 표시됩니다.
func ToMessage(m *discordgo.MessageCreate, selfID string) *controller.Message {
	if m == nil || m.Message == nil || m.Author == nil {
		return nil
	}
	return &controller.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
		AuthorID:  m.Author.ID,
		AuthorBot: m.Author.Bot || (selfID != "" && m.Author.ID == selfID),
	}
}
