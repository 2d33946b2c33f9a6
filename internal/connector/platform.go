package connector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cnap-oss/mybots/internal/controller"
)

const (
	// bulkDeleteMax는 Discord 일괄 삭제 API 한 번에 보낼 수 있는 최대 메시지 수입니다.
	bulkDeleteMax = 100
	// bulkDeleteMaxAge보다 오래된 메시지는 일괄 삭제할 수 없습니다.
	bulkDeleteMaxAge = 14 * 24 * time.Hour
)

// DiscordPlatform은 discordgo 세션으로 controller.Platform을 구현합니다.
type DiscordPlatform struct {
	session *discordgo.Session
	now     func() time.Time
}

var _ controller.Platform = (*DiscordPlatform)(nil)

// NewDiscordPlatform은 새로운 DiscordPlatform을 생성합니다.
func NewDiscordPlatform(session *discordgo.Session) *DiscordPlatform {
	return &DiscordPlatform{session: session, now: time.Now}
}

func (p *DiscordPlatform) GuildRoles(ctx context.Context, guildID string) ([]*controller.Role, error) {
	roles, err := p.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("guild roles: %w", err)
	}
	out := make([]*controller.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, toRole(r))
	}
	return out, nil
}

// Role은 State 캐시를 먼저 확인하고, 없으면 REST로 길드 역할 목록을 조회합니다.
func (p *DiscordPlatform) Role(ctx context.Context, guildID, roleID string) (*controller.Role, error) {
	if p.session.State != nil {
		if r, err := p.session.State.Role(guildID, roleID); err == nil {
			return toRole(r), nil
		}
	}

	roles, err := p.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("guild roles: %w", err)
	}
	for _, r := range roles {
		if r.ID == roleID {
			return toRole(r), nil
		}
	}
	return nil, fmt.Errorf("role %s: %w", roleID, controller.ErrRoleNotFound)
}

func (p *DiscordPlatform) CreateRole(ctx context.Context, guildID string, params controller.RoleParams) (*controller.Role, error) {
	r, err := p.session.GuildRoleCreate(guildID, roleParams(params), requestOptions(ctx, params.Reason)...)
	if err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	return toRole(r), nil
}

func (p *DiscordPlatform) EditRole(ctx context.Context, guildID, roleID string, params controller.RoleParams) (*controller.Role, error) {
	r, err := p.session.GuildRoleEdit(guildID, roleID, roleParams(params), requestOptions(ctx, params.Reason)...)
	if err != nil {
		return nil, wrapRoleError("edit role "+roleID, err)
	}
	return toRole(r), nil
}

func (p *DiscordPlatform) DeleteRole(ctx context.Context, guildID, roleID string) error {
	if err := p.session.GuildRoleDelete(guildID, roleID, discordgo.WithContext(ctx)); err != nil {
		return wrapRoleError("delete role "+roleID, err)
	}
	return nil
}

// PlaceRoleBelow는 현재 역할 순서를 가져와 roleID를 anchorID 바로 아래에 두도록 전체 위치를 다시 보냅니다.
func (p *DiscordPlatform) PlaceRoleBelow(ctx context.Context, guildID, roleID, anchorID string) error {
	roles, err := p.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("guild roles: %w", err)
	}

	ordered, err := reorderRoles(roles, guildID, roleID, anchorID)
	if err != nil {
		return err
	}

	if _, err := p.session.GuildRoleReorder(guildID, ordered, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("reorder roles: %w", err)
	}
	return nil
}

func (p *DiscordPlatform) ChannelMessages(ctx context.Context, channelID string, limit int) ([]*controller.ChatMessage, error) {
	msgs, err := p.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("channel messages: %w", err)
	}
	out := make([]*controller.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, &controller.ChatMessage{ID: m.ID, ChannelID: m.ChannelID, Timestamp: m.Timestamp})
	}
	return out, nil
}

func (p *DiscordPlatform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return p.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

// BulkDelete는 최근 메시지를 최대 count개까지 100개 단위로 가져와 삭제합니다.
// 14일보다 오래된 메시지는 건너뛰고, 실제로 삭제한 개수를 반환합니다.
func (p *DiscordPlatform) BulkDelete(ctx context.Context, channelID string, count int) (int, error) {
	now := p.now()

	var ids []string
	before := ""
	for remaining := count; remaining > 0; {
		limit := min(remaining, bulkDeleteMax)
		page, err := p.session.ChannelMessages(channelID, limit, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return 0, fmt.Errorf("channel messages: %w", err)
		}
		if len(page) == 0 {
			break
		}

		fresh := deletableIDs(page, now)
		ids = append(ids, fresh...)
		remaining -= len(page)
		before = page[len(page)-1].ID

		// 페이지가 덜 찼거나 오래된 메시지에 도달하면 더 볼 필요가 없음
		if len(page) < limit || len(fresh) < len(page) {
			break
		}
	}

	deleted := 0
	for _, batch := range chunkIDs(ids, bulkDeleteMax) {
		var err error
		if len(batch) == 1 {
			err = p.session.ChannelMessageDelete(channelID, batch[0], discordgo.WithContext(ctx))
		} else {
			err = p.session.ChannelMessagesBulkDelete(channelID, batch, discordgo.WithContext(ctx))
		}
		if err != nil {
			return deleted, fmt.Errorf("bulk delete: %w", err)
		}
		deleted += len(batch)
	}
	return deleted, nil
}

func (p *DiscordPlatform) SendMessage(ctx context.Context, channelID, content string) error {
	_, err := p.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

func toRole(r *discordgo.Role) *controller.Role {
	return &controller.Role{ID: r.ID, Name: r.Name, Color: r.Color, Position: r.Position}
}

func roleParams(params controller.RoleParams) *discordgo.RoleParams {
	color := params.Color
	return &discordgo.RoleParams{Name: params.Name, Color: &color}
}

func requestOptions(ctx context.Context, reason string) []discordgo.RequestOption {
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	return opts
}

// wrapRoleError는 Unknown Role 응답을 controller.ErrRoleNotFound로 바꿉니다.
func wrapRoleError(op string, err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownRole {
		return fmt.Errorf("%s: %w", op, controller.ErrRoleNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// reorderRoles는 roleID를 anchorID 바로 아래에 둔 새 위치 목록을 만듭니다.
// @everyone(ID == guildID)은 항상 0번이므로 결과에서 제외합니다.
func reorderRoles(roles []*discordgo.Role, guildID, roleID, anchorID string) ([]*discordgo.Role, error) {
	var target *discordgo.Role
	others := make([]*discordgo.Role, 0, len(roles))
	anchorFound := false
	for _, r := range roles {
		switch r.ID {
		case roleID:
			target = r
			continue
		case anchorID:
			anchorFound = true
		}
		others = append(others, r)
	}
	if target == nil {
		return nil, fmt.Errorf("role %s: %w", roleID, controller.ErrRoleNotFound)
	}
	if !anchorFound {
		return nil, fmt.Errorf("anchor role %s: %w", anchorID, controller.ErrRoleNotFound)
	}

	sort.SliceStable(others, func(i, j int) bool {
		if others[i].Position != others[j].Position {
			return others[i].Position < others[j].Position
		}
		return others[i].ID < others[j].ID
	})

	ordered := make([]*discordgo.Role, 0, len(roles))
	for _, r := range others {
		if r.ID == anchorID {
			ordered = append(ordered, target)
		}
		ordered = append(ordered, r)
	}

	out := make([]*discordgo.Role, 0, len(ordered))
	for i, r := range ordered {
		if r.ID == guildID {
			continue
		}
		out = append(out, &discordgo.Role{ID: r.ID, Position: i})
	}
	return out, nil
}

// deletableIDs는 일괄 삭제가 가능한(14일 이내) 메시지 ID만 순서대로 반환합니다.
func deletableIDs(msgs []*discordgo.Message, now time.Time) []string {
	cutoff := now.Add(-bulkDeleteMaxAge)
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Timestamp.After(cutoff) {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// chunkIDs는 ids를 size개 이하의 묶음으로 나눕니다.
func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
