package storage

import (
	"context"
)

// DBStore는 Repository 위에 Store를 구현합니다.
// 모든 변경은 즉시 데이터베이스에 기록되므로 Save는 아무 일도 하지 않습니다.
type DBStore struct {
	repo *Repository
}

var _ Store = (*DBStore)(nil)

// NewDBStore는 repo를 사용하는 DBStore를 생성합니다.
func NewDBStore(repo *Repository) *DBStore {
	return &DBStore{repo: repo}
}

func (s *DBStore) Slots(ctx context.Context, userID string) (map[int]string, error) {
	rows, err := s.repo.ListRoleSlotsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	slots := make(map[int]string, len(rows))
	for _, row := range rows {
		slots[row.Slot] = row.RoleID
	}
	return slots, nil
}

func (s *DBStore) Get(ctx context.Context, userID string, slot int) (string, bool, error) {
	row, err := s.repo.GetRoleSlot(ctx, userID, slot)
	if err != nil {
		if IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return row.RoleID, true, nil
}

func (s *DBStore) Set(ctx context.Context, userID string, slot int, roleID string) error {
	return s.repo.UpsertRoleSlot(ctx, userID, slot, roleID)
}

func (s *DBStore) Delete(ctx context.Context, userID string, slot int) error {
	return s.repo.DeleteRoleSlot(ctx, userID, slot)
}

func (s *DBStore) Save(context.Context) error {
	return nil
}

func (s *DBStore) Snapshot(ctx context.Context) (Document, error) {
	rows, err := s.repo.ListRoleSlots(ctx)
	if err != nil {
		return nil, err
	}
	doc := make(Document)
	for _, row := range rows {
		slots, ok := doc[row.UserID]
		if !ok {
			slots = make(map[int]string)
			doc[row.UserID] = slots
		}
		slots[row.Slot] = row.RoleID
	}
	return doc, nil
}
