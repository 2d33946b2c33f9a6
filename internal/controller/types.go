package controller

import (
	"context"
	"time"
)

// Message는 라우터가 처리하는 수신 텍스트 메시지입니다.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	Content   string
	AuthorID  string
	// AuthorBot은 작성자가 봇(자기 자신 포함)이면 true 입니다
	AuthorBot bool
}

// Command는 접두사와 키워드를 떼어낸 뒤 파싱한 명령입니다.
type Command struct {
	Name string
	Args []string
}

// Role은 플랫폼 역할의 최소 표현입니다.
type Role struct {
	ID       string
	Name     string
	Color    int
	Position int
}

// RoleParams는 역할 생성/수정 요청 값입니다. Color 0은 플랫폼 기본 색상입니다.
type RoleParams struct {
	Name   string
	Color  int
	Reason string
}

// ChatMessage는 채널에서 가져온 메시지입니다.
type ChatMessage struct {
	ID        string
	ChannelID string
	Timestamp time.Time
}

// Platform은 라우터가 사용하는 채팅 플랫폼 작업입니다.
// 운영 환경에서는 connector.DiscordPlatform이 discordgo 세션으로 구현합니다.
type Platform interface {
	GuildRoles(ctx context.Context, guildID string) ([]*Role, error)
	// Role은 역할이 없으면 ErrRoleNotFound를 반환합니다.
	Role(ctx context.Context, guildID, roleID string) (*Role, error)
	CreateRole(ctx context.Context, guildID string, params RoleParams) (*Role, error)
	EditRole(ctx context.Context, guildID, roleID string, params RoleParams) (*Role, error)
	DeleteRole(ctx context.Context, guildID, roleID string) error
	// PlaceRoleBelow는 역할을 anchorID 역할 바로 아래(위치 - 1)로 옮깁니다.
	PlaceRoleBelow(ctx context.Context, guildID, roleID, anchorID string) error

	ChannelMessages(ctx context.Context, channelID string, limit int) ([]*ChatMessage, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	// BulkDelete는 최근 메시지를 최대 count개 삭제하고 실제 삭제한 개수를 반환합니다.
	BulkDelete(ctx context.Context, channelID string, count int) (int, error)
	SendMessage(ctx context.Context, channelID, content string) error
}
