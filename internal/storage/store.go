package storage

import (
	"context"
	"errors"
	"sort"
)

var (
	ErrEmptyUserID = errors.New("storage: empty userID")
	ErrInvalidSlot = errors.New("storage: slot must be >= 1")
)

// DefaultSlot은 슬롯 번호가 주어지지 않았을 때 사용하는 "원래" 역할 슬롯입니다.
const DefaultSlot = 1

// Document는 역할 슬롯 저장소 전체를 나타냅니다: userID -> slot -> roleID.
// JSON으로 직렬화하면 {"<userId>": {"<slot>": "<roleId>"}} 형태가 됩니다.
type Document map[string]map[int]string

// Clone은 깊은 복사본을 반환합니다.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for userID, slots := range d {
		copied := make(map[int]string, len(slots))
		for slot, roleID := range slots {
			copied[slot] = roleID
		}
		out[userID] = copied
	}
	return out
}

// Store는 사용자별 역할 슬롯을 보관하는 저장소입니다.
// Set/Delete 이후 Save를 호출해야 변경 사항이 영속화됨이 보장됩니다.
type Store interface {
	// Slots는 사용자의 슬롯 맵 복사본을 반환합니다. 사용자가 없으면 nil을 반환합니다.
	Slots(ctx context.Context, userID string) (map[int]string, error)
	// Get은 (userID, slot)의 역할 ID를 반환합니다.
	Get(ctx context.Context, userID string, slot int) (string, bool, error)
	// Set은 (userID, slot)에 역할 ID를 기록합니다.
	Set(ctx context.Context, userID string, slot int, roleID string) error
	// Delete는 (userID, slot)을 제거합니다. 마지막 슬롯이면 사용자 키도 제거됩니다.
	Delete(ctx context.Context, userID string, slot int) error
	// Save는 현재 상태를 영속화합니다.
	Save(ctx context.Context) error
	// Snapshot은 전체 문서의 복사본을 반환합니다.
	Snapshot(ctx context.Context) (Document, error)
}

// HighestSlot은 slots 중 가장 큰 슬롯 번호를 반환합니다. 비어 있으면 false를 반환합니다.
func HighestSlot(slots map[int]string) (int, bool) {
	highest, ok := 0, false
	for slot := range slots {
		if !ok || slot > highest {
			highest, ok = slot, true
		}
	}
	return highest, ok
}

// SortedSlots는 슬롯 번호를 오름차순으로 반환합니다.
func SortedSlots(slots map[int]string) []int {
	keys := make([]int, 0, len(slots))
	for slot := range slots {
		keys = append(keys, slot)
	}
	sort.Ints(keys)
	return keys
}
