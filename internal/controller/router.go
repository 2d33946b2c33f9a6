package controller

import (
	"context"
	"strings"

	"github.com/cnap-oss/mybots/internal/storage"
	"go.uber.org/zap"
)

// 명령 키워드. 라우터는 이 순서대로 접두사를 검사합니다.
const (
	cmdHelp         = "help"
	cmdObliterate   = "obliterate"
	cmdDisintegrate = "disintigrate"
	cmdPrettyDelete = "pretty delete"
	cmdPretty       = "pretty"
)

// Options는 라우터 동작을 결정하는 설정 값입니다.
type Options struct {
	// Prefix는 명령 접두사입니다 (예: "meow!")
	Prefix string
	// AuthorizedUserID는 메시지 일괄 삭제 명령을 쓸 수 있는 사용자입니다
	AuthorizedUserID string
	// VanityRoleName은 역할 위치 기준이 되는 역할 이름입니다
	VanityRoleName string
}

// Outcome은 한 메시지를 처리한 결과입니다.
type Outcome struct {
	Command string
	Reply   string
	Kind    ErrorKind
	Err     error
}

type handlerFunc func(ctx context.Context, m *Message, args []string) (string, error)

type route struct {
	keyword string
	handler handlerFunc
}

// Router는 접두사 명령을 해당 핸들러로 보냅니다. 자체 상태는 없습니다.
type Router struct {
	logger   *zap.Logger
	platform Platform
	store    storage.Store
	opts     Options
	routes   []route
}

// NewRouter는 새로운 Router를 생성합니다.
func NewRouter(logger *zap.Logger, platform Platform, store storage.Store, opts Options) *Router {
	r := &Router{
		logger:   logger.Named("router"),
		platform: platform,
		store:    store,
		opts:     opts,
	}
	r.routes = []route{
		{keyword: cmdHelp, handler: r.handleHelp},
		{keyword: cmdObliterate, handler: r.handleObliterate},
		{keyword: cmdDisintegrate, handler: r.handleDisintegrate},
		{keyword: cmdPrettyDelete, handler: r.handleRoleDelete},
		{keyword: cmdPretty, handler: r.handlePretty},
	}
	return r
}

// Parse는 content에 일치하는 첫 번째 명령과 핸들러를 찾습니다.
func (r *Router) Parse(content string) (*Command, bool) {
	cmd, _, ok := r.match(content)
	return cmd, ok
}

func (r *Router) match(content string) (*Command, handlerFunc, bool) {
	for _, rt := range r.routes {
		head := r.opts.Prefix + rt.keyword
		if strings.HasPrefix(content, head) {
			return &Command{
				Name: rt.keyword,
				Args: ParseArguments(content[len(head):]),
			}, rt.handler, true
		}
	}
	return nil, nil, false
}

// Dispatch는 메시지를 처리하고 응답을 채널로 보냅니다.
// 봇이 보낸 메시지이거나 명령이 아니면 nil을 반환합니다.
func (r *Router) Dispatch(ctx context.Context, m *Message) *Outcome {
	if m == nil || m.AuthorBot {
		return nil
	}

	cmd, handler, ok := r.match(m.Content)
	if !ok {
		return nil
	}

	logger := r.logger.With(
		zap.String("command", cmd.Name),
		zap.String("user_id", m.AuthorID),
		zap.String("channel_id", m.ChannelID),
	)

	reply, err := handler(ctx, m, cmd.Args)
	outcome := &Outcome{Command: cmd.Name, Reply: reply}
	if err != nil {
		outcome.Kind = KindOf(err)
		outcome.Reply = ReplyOf(err)
		outcome.Err = err
		if IsUserError(err) {
			logger.Info("Command rejected", zap.String("kind", outcome.Kind.String()), zap.Error(err))
		} else {
			logger.Error("Command failed", zap.String("kind", outcome.Kind.String()), zap.Error(err))
		}
	} else {
		logger.Debug("Command handled")
	}

	if outcome.Reply != "" {
		if sendErr := r.platform.SendMessage(ctx, m.ChannelID, outcome.Reply); sendErr != nil {
			logger.Error("Failed to send reply", zap.Error(sendErr))
		}
	}

	return outcome
}

func (r *Router) isAuthorized(m *Message) bool {
	return r.opts.AuthorizedUserID != "" && m.AuthorID == r.opts.AuthorizedUserID
}
