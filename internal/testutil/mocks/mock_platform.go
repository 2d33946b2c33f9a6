package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cnap-oss/mybots/internal/controller"
)

// SentMessage는 SendMessage 호출 기록입니다.
type SentMessage struct {
	ChannelID string
	Content   string
}

// MockPlatform은 테스트용 controller.Platform 구현입니다.
// 길드별 역할 목록과 채널별 메시지 목록을 메모리에 보관합니다.
type MockPlatform struct {
	mu sync.Mutex

	// Roles는 guildID별 역할 목록입니다.
	Roles map[string][]*controller.Role

	// Messages는 channelID별 메시지 목록입니다 (오래된 것부터).
	Messages map[string][]*controller.ChatMessage

	// Sent는 SendMessage 호출 기록입니다.
	Sent []SentMessage

	// Calls는 메서드 이름별 호출 기록입니다 (SendMessage 제외).
	Calls []string

	// Errors는 메서드 이름별로 반환할 에러를 정의합니다.
	Errors map[string]error

	// Reasons는 CreateRole/EditRole에 전달된 감사 로그 사유입니다 (메서드 이름 → 사유 목록).
	Reasons map[string][]string

	nextID int
}

// ensure MockPlatform implements Platform
var _ controller.Platform = (*MockPlatform)(nil)

// NewMockPlatform은 새로운 MockPlatform을 생성합니다.
func NewMockPlatform() *MockPlatform {
	return &MockPlatform{
		Roles:    make(map[string][]*controller.Role),
		Messages: make(map[string][]*controller.ChatMessage),
		Errors:   make(map[string]error),
		Reasons:  make(map[string][]string),
	}
}

// AddRole은 길드에 역할을 추가하고 저장된 역할을 반환합니다. ID가 비어 있으면 생성합니다.
func (m *MockPlatform) AddRole(guildID string, role controller.Role) *controller.Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	if role.ID == "" {
		role.ID = m.newID("role")
	}
	stored := role
	m.Roles[guildID] = append(m.Roles[guildID], &stored)
	return &stored
}

// AddMessages는 채널에 n개의 메시지를 추가합니다.
func (m *MockPlatform) AddMessages(channelID string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.Messages[channelID] = append(m.Messages[channelID], &controller.ChatMessage{
			ID:        m.newID("msg"),
			ChannelID: channelID,
			Timestamp: time.Now(),
		})
	}
}

// SetError는 특정 메서드가 반환할 에러를 설정합니다.
func (m *MockPlatform) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[method] = err
}

// CallCount는 메서드 호출 횟수를 반환합니다. 빈 문자열이면 전체 호출 수입니다.
func (m *MockPlatform) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if method == "" {
		return len(m.Calls)
	}
	n := 0
	for _, c := range m.Calls {
		if c == method {
			n++
		}
	}
	return n
}

// SentContents는 채널로 보낸 메시지 내용을 순서대로 반환합니다.
func (m *MockPlatform) SentContents(channelID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.Sent {
		if s.ChannelID == channelID {
			out = append(out, s.Content)
		}
	}
	return out
}

// FindRole은 길드의 역할을 ID로 찾습니다.
func (m *MockPlatform) FindRole(guildID, roleID string) *controller.Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	if role := m.findRole(guildID, roleID); role != nil {
		copied := *role
		return &copied
	}
	return nil
}

// MessageCount는 채널에 남아 있는 메시지 수를 반환합니다.
func (m *MockPlatform) MessageCount(channelID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages[channelID])
}

func (m *MockPlatform) GuildRoles(_ context.Context, guildID string) ([]*controller.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GuildRoles"); err != nil {
		return nil, err
	}
	out := make([]*controller.Role, 0, len(m.Roles[guildID]))
	for _, role := range m.Roles[guildID] {
		copied := *role
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MockPlatform) Role(_ context.Context, guildID, roleID string) (*controller.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Role"); err != nil {
		return nil, err
	}
	role := m.findRole(guildID, roleID)
	if role == nil {
		return nil, controller.ErrRoleNotFound
	}
	copied := *role
	return &copied, nil
}

func (m *MockPlatform) CreateRole(_ context.Context, guildID string, params controller.RoleParams) (*controller.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reasons["CreateRole"] = append(m.Reasons["CreateRole"], params.Reason)
	if err := m.record("CreateRole"); err != nil {
		return nil, err
	}
	// Discord는 새 역할을 @everyone 바로 위(위치 1)에 만듭니다
	for _, r := range m.Roles[guildID] {
		if r.Position >= 1 {
			r.Position++
		}
	}
	role := &controller.Role{ID: m.newID("role"), Name: params.Name, Color: params.Color, Position: 1}
	m.Roles[guildID] = append(m.Roles[guildID], role)
	copied := *role
	return &copied, nil
}

func (m *MockPlatform) EditRole(_ context.Context, guildID, roleID string, params controller.RoleParams) (*controller.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reasons["EditRole"] = append(m.Reasons["EditRole"], params.Reason)
	if err := m.record("EditRole"); err != nil {
		return nil, err
	}
	role := m.findRole(guildID, roleID)
	if role == nil {
		return nil, controller.ErrRoleNotFound
	}
	role.Name = params.Name
	role.Color = params.Color
	copied := *role
	return &copied, nil
}

func (m *MockPlatform) DeleteRole(_ context.Context, guildID, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteRole"); err != nil {
		return err
	}
	roles := m.Roles[guildID]
	for i, r := range roles {
		if r.ID == roleID {
			m.Roles[guildID] = append(roles[:i], roles[i+1:]...)
			return nil
		}
	}
	return controller.ErrRoleNotFound
}

func (m *MockPlatform) PlaceRoleBelow(_ context.Context, guildID, roleID, anchorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("PlaceRoleBelow"); err != nil {
		return err
	}
	if m.findRole(guildID, roleID) == nil || m.findRole(guildID, anchorID) == nil {
		return controller.ErrRoleNotFound
	}

	// 위치 순으로 정렬하고 대상 역할을 기준 역할 바로 아래에 끼워 넣은 뒤 위치를 다시 매깁니다
	var target *controller.Role
	others := make([]*controller.Role, 0, len(m.Roles[guildID]))
	for _, r := range m.Roles[guildID] {
		if r.ID == roleID {
			target = r
			continue
		}
		others = append(others, r)
	}
	sort.SliceStable(others, func(i, j int) bool { return others[i].Position < others[j].Position })

	ordered := make([]*controller.Role, 0, len(others)+1)
	for _, r := range others {
		if r.ID == anchorID {
			ordered = append(ordered, target)
		}
		ordered = append(ordered, r)
	}
	for i, r := range ordered {
		r.Position = i
	}
	return nil
}

func (m *MockPlatform) ChannelMessages(_ context.Context, channelID string, limit int) ([]*controller.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ChannelMessages"); err != nil {
		return nil, err
	}
	msgs := m.Messages[channelID]
	out := make([]*controller.ChatMessage, 0, limit)
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *msgs[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MockPlatform) DeleteMessage(_ context.Context, channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteMessage"); err != nil {
		return err
	}
	msgs := m.Messages[channelID]
	for i, msg := range msgs {
		if msg.ID == messageID {
			m.Messages[channelID] = append(msgs[:i], msgs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("unknown message %s", messageID)
}

func (m *MockPlatform) BulkDelete(_ context.Context, channelID string, count int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("BulkDelete"); err != nil {
		return 0, err
	}
	msgs := m.Messages[channelID]
	n := count
	if n > len(msgs) {
		n = len(msgs)
	}
	m.Messages[channelID] = msgs[:len(msgs)-n]
	return n, nil
}

func (m *MockPlatform) SendMessage(_ context.Context, channelID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Errors["SendMessage"]; err != nil {
		return err
	}
	m.Sent = append(m.Sent, SentMessage{ChannelID: channelID, Content: content})
	return nil
}

func (m *MockPlatform) record(method string) error {
	m.Calls = append(m.Calls, method)
	return m.Errors[method]
}

func (m *MockPlatform) findRole(guildID, roleID string) *controller.Role {
	for _, r := range m.Roles[guildID] {
		if r.ID == roleID {
			return r
		}
	}
	return nil
}

func (m *MockPlatform) newID(kind string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", kind, m.nextID)
}
