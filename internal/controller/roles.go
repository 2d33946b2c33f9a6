package controller

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cnap-oss/mybots/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

const colorDefault = "default"

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

const (
	replyPrettyUsage      = `Please provide a role name in quotes and hex color code or "default".`
	replyInvalidColor     = `Invalid hex color code. Please use a format like #RRGGBB, or use "default" for no color.`
	replyInvalidSlot      = "Mrow, the role number has to be a whole number of 1 or more!"
	replyVanityMissing    = `Could not find the "%s" role.`
	replyPrettyDone       = "Meow, your role has been created/updated! Meow, meow!"
	replyPrettyFailed     = "Grr, there was an error creating or updating the role!"
	replyNoRoles          = "Mrow, you don’t have any roles to delete!"
	replyNoRoleInSlot     = "Mrow, no role to delete!"
	replyRoleGone         = "Grr, couldn’t find the role to delete!"
	replyRoleDeleted      = "Meow, the role has been deleted! Meow, meow!"
	replyRoleDeleteFailed = "Grr, there was an error deleting the role!"

	roleCreateReason = "Role created by meow!pretty command"
	roleUpdateReason = "Role updated by meow!pretty command"
)

// ParseColor는 "default"(대소문자 무시) 또는 #RRGGBB 형식의 색상을 정수로 변환합니다.
// "default"는 플랫폼 기본 색상인 0을 반환합니다.
func ParseColor(s string) (int, error) {
	if strings.EqualFold(s, colorDefault) {
		return 0, nil
	}
	if !hexColorPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: color %q", ErrInvalidInput, s)
	}
	v, err := strconv.ParseInt(s[1:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: color %q", ErrInvalidInput, s)
	}
	return int(v), nil
}

// parseSlot은 1 이상의 정수 슬롯 번호를 파싱합니다.
func parseSlot(s string) (int, error) {
	slot, err := strconv.Atoi(s)
	if err != nil || slot < 1 {
		return 0, fmt.Errorf("%w: slot %q", ErrInvalidInput, s)
	}
	return slot, nil
}

// normalizeRoleName은 역할 이름을 NFC로 정규화하고 앞뒤 공백을 제거합니다.
func normalizeRoleName(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// handlePretty는 사용자의 슬롯 역할을 생성하거나 수정하고 vanity 역할 바로 아래로 옮깁니다.
// args: <name> <#rrggbb|default> [slot]
func (r *Router) handlePretty(ctx context.Context, m *Message, args []string) (string, error) {
	const op = cmdPretty

	if len(args) < 2 {
		return "", validationError(op, replyPrettyUsage)
	}

	name := normalizeRoleName(args[0])
	if name == "" {
		return "", validationError(op, replyPrettyUsage)
	}

	color, err := ParseColor(args[1])
	if err != nil {
		return "", validationError(op, replyInvalidColor)
	}

	slot := storage.DefaultSlot
	if len(args) > 2 {
		if slot, err = parseSlot(args[2]); err != nil {
			return "", validationError(op, replyInvalidSlot)
		}
	}

	vanity, err := r.findVanityRole(ctx, m.GuildID)
	if err != nil {
		return "", platformError(op, replyPrettyFailed, fmt.Errorf("list guild roles: %w", err))
	}
	if vanity == nil {
		return "", notFoundError(op, fmt.Sprintf(replyVanityMissing, r.opts.VanityRoleName))
	}

	roleID, ok, err := r.store.Get(ctx, m.AuthorID, slot)
	if err != nil {
		return "", storageError(op, replyPrettyFailed, err)
	}

	var existing *Role
	if ok {
		existing, err = r.platform.Role(ctx, m.GuildID, roleID)
		if err != nil {
			// 조회 실패는 "기존 역할 없음"으로 취급하고 새로 생성합니다
			r.logger.Debug("Stored role not resolvable, creating a new one",
				zap.String("user_id", m.AuthorID),
				zap.Int("slot", slot),
				zap.String("role_id", roleID),
				zap.Error(err),
			)
			existing = nil
		}
	}

	var role *Role
	if existing != nil {
		params := RoleParams{Name: name, Color: color, Reason: roleUpdateReason}
		role, err = r.platform.EditRole(ctx, m.GuildID, existing.ID, params)
		switch {
		case errors.Is(err, ErrRoleNotFound):
			// 캐시에는 남아 있지만 이미 삭제된 역할이면 새로 생성합니다
			r.logger.Debug("Stored role vanished before edit, creating a new one",
				zap.String("user_id", m.AuthorID),
				zap.Int("slot", slot),
				zap.String("role_id", existing.ID),
			)
			existing, role = nil, nil
		case err != nil:
			return "", platformError(op, replyPrettyFailed, fmt.Errorf("edit role %s: %w", existing.ID, err))
		}
	}
	if role == nil {
		params := RoleParams{Name: name, Color: color, Reason: roleCreateReason}
		role, err = r.platform.CreateRole(ctx, m.GuildID, params)
		if err != nil {
			return "", platformError(op, replyPrettyFailed, fmt.Errorf("create role: %w", err))
		}
	}

	if err := r.platform.PlaceRoleBelow(ctx, m.GuildID, role.ID, vanity.ID); err != nil {
		return "", platformError(op, replyPrettyFailed, fmt.Errorf("move role %s: %w", role.ID, err))
	}

	if err := r.store.Set(ctx, m.AuthorID, slot, role.ID); err != nil {
		return "", storageError(op, replyPrettyFailed, err)
	}
	if err := r.store.Save(ctx); err != nil {
		return "", storageError(op, replyPrettyFailed, err)
	}

	r.logger.Info("Role slot updated",
		zap.String("user_id", m.AuthorID),
		zap.Int("slot", slot),
		zap.String("role_id", role.ID),
		zap.Bool("created", existing == nil),
	)
	return replyPrettyDone, nil
}

// handleRoleDelete는 사용자의 슬롯 역할을 삭제합니다. 슬롯이 없으면 가장 큰 슬롯을 사용합니다.
// args: [slot]
func (r *Router) handleRoleDelete(ctx context.Context, m *Message, args []string) (string, error) {
	const op = cmdPrettyDelete

	slots, err := r.store.Slots(ctx, m.AuthorID)
	if err != nil {
		return "", storageError(op, replyRoleDeleteFailed, err)
	}
	if len(slots) == 0 {
		return "", notFoundError(op, replyNoRoles)
	}

	var slot int
	if len(args) > 0 {
		if slot, err = parseSlot(args[0]); err != nil {
			return "", validationError(op, replyInvalidSlot)
		}
	} else {
		slot, _ = storage.HighestSlot(slots)
	}

	roleID, ok := slots[slot]
	if !ok || roleID == "" {
		return "", notFoundError(op, replyNoRoleInSlot)
	}

	role, err := r.platform.Role(ctx, m.GuildID, roleID)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return "", notFoundError(op, replyRoleGone)
		}
		return "", platformError(op, replyRoleDeleteFailed, fmt.Errorf("fetch role %s: %w", roleID, err))
	}

	if err := r.platform.DeleteRole(ctx, m.GuildID, role.ID); err != nil {
		return "", platformError(op, replyRoleDeleteFailed, fmt.Errorf("delete role %s: %w", role.ID, err))
	}

	if err := r.store.Delete(ctx, m.AuthorID, slot); err != nil {
		return "", storageError(op, replyRoleDeleteFailed, err)
	}
	if err := r.store.Save(ctx); err != nil {
		return "", storageError(op, replyRoleDeleteFailed, err)
	}

	r.logger.Info("Role slot deleted",
		zap.String("user_id", m.AuthorID),
		zap.Int("slot", slot),
		zap.String("role_id", role.ID),
	)
	return replyRoleDeleted, nil
}

// findVanityRole은 이름이 정확히 일치하는 vanity 역할을 찾습니다. 없으면 nil을 반환합니다.
func (r *Router) findVanityRole(ctx context.Context, guildID string) (*Role, error) {
	roles, err := r.platform.GuildRoles(ctx, guildID)
	if err != nil {
		return nil, err
	}
	want := norm.NFC.String(r.opts.VanityRoleName)
	for _, role := range roles {
		if norm.NFC.String(role.Name) == want {
			return role, nil
		}
	}
	return nil, nil
}
