package storage

import "time"

// RoleSlot은 role_slots 테이블 레코드를 나타냅니다.
// (user_id, slot) 쌍마다 하나의 역할 ID를 가집니다.
type RoleSlot struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:idx_role_slots_user_slot,priority:1"`
	Slot      int       `gorm:"column:slot;type:int;not null;uniqueIndex:idx_role_slots_user_slot,priority:2"`
	RoleID    string    `gorm:"column:role_id;type:varchar(64);not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

// TableName은 gorm Tabler 인터페이스를 구현합니다.
func (RoleSlot) TableName() string {
	return "role_slots"
}
