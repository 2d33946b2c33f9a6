package controller

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// obliterateLimit은 obliterate가 다루는 메시지 수입니다. 설정할 수 없습니다.
const obliterateLimit = 100

const (
	replyObliterated       = "Grr, yeeted all messages and threads in this channel! 😾"
	replyNotAllowed        = "Grr, you’re not allowed to use this command!"
	replyDisintegrateCount = "Mrow, how many messages do you want to delete? Specify a number, silly!"
	replyDisintegrated     = "Mrow, yeeted %d messages into oblivion!"
	replyPurgeFailed       = "Grr, there was an error trying to delete messages!"
)

// handleObliterate는 최근 메시지를 하나씩 지운 뒤 별도로 100개 일괄 삭제를 요청합니다.
// 두 단계는 서로 독립적인 best-effort 작업입니다. 허가되지 않은 사용자는 조용히 무시합니다.
func (r *Router) handleObliterate(ctx context.Context, m *Message, _ []string) (string, error) {
	const op = cmdObliterate

	if !r.isAuthorized(m) {
		return "", unauthorizedError(op, "")
	}

	messages, err := r.platform.ChannelMessages(ctx, m.ChannelID, obliterateLimit)
	if err != nil {
		return "", platformError(op, replyPurgeFailed, fmt.Errorf("fetch messages: %w", err))
	}

	failed := 0
	for _, msg := range messages {
		if err := r.platform.DeleteMessage(ctx, m.ChannelID, msg.ID); err != nil {
			failed++
			r.logger.Warn("Failed to delete message",
				zap.String("channel_id", m.ChannelID),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	bulk, err := r.platform.BulkDelete(ctx, m.ChannelID, obliterateLimit)
	if err != nil {
		return "", platformError(op, replyPurgeFailed, fmt.Errorf("bulk delete: %w", err))
	}

	r.logger.Info("Channel obliterated",
		zap.String("channel_id", m.ChannelID),
		zap.Int("fetched", len(messages)),
		zap.Int("individual_failures", failed),
		zap.Int("bulk_deleted", bulk),
	)
	return replyObliterated, nil
}

// handleDisintegrate는 최근 메시지 n개를 일괄 삭제합니다.
// args: <n>, n은 1 이상의 정수
func (r *Router) handleDisintegrate(ctx context.Context, m *Message, args []string) (string, error) {
	const op = cmdDisintegrate

	if !r.isAuthorized(m) {
		return "", unauthorizedError(op, replyNotAllowed)
	}

	if len(args) == 0 {
		return "", validationError(op, replyDisintegrateCount)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return "", validationError(op, replyDisintegrateCount)
	}

	deleted, err := r.platform.BulkDelete(ctx, m.ChannelID, n)
	if err != nil {
		return "", platformError(op, replyPurgeFailed, fmt.Errorf("bulk delete %d: %w", n, err))
	}

	r.logger.Info("Messages disintegrated",
		zap.String("channel_id", m.ChannelID),
		zap.Int("requested", n),
		zap.Int("deleted", deleted),
	)
	return fmt.Sprintf(replyDisintegrated, deleted), nil
}
