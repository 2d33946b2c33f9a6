package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository는 역할 슬롯 레코드를 위한 영속성 헬퍼를 제공합니다.
type Repository struct {
	db *gorm.DB
}

// NewRepository는 전달된 gorm DB를 이용해 Repository를 생성합니다.
func NewRepository(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("storage: repository requires a non-nil db handle")
	}
	return &Repository{db: db}, nil
}

// DB는 내부 gorm DB 참조를 반환합니다.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// UpsertRoleSlot은 (userID, slot)의 역할 ID를 생성하거나 갱신합니다.
func (r *Repository) UpsertRoleSlot(ctx context.Context, userID string, slot int, roleID string) error {
	if err := validateKey(userID, slot); err != nil {
		return err
	}
	if roleID == "" {
		return fmt.Errorf("storage: empty roleID")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "slot"}},
			DoUpdates: clause.AssignmentColumns([]string{"role_id", "updated_at"}),
		}).
		Create(&RoleSlot{
			UserID: userID,
			Slot:   slot,
			RoleID: roleID,
		}).Error
}

// GetRoleSlot은 (userID, slot)의 레코드를 조회합니다.
// 레코드가 없으면 gorm.ErrRecordNotFound를 감싼 에러를 반환합니다.
func (r *Repository) GetRoleSlot(ctx context.Context, userID string, slot int) (*RoleSlot, error) {
	if err := validateKey(userID, slot); err != nil {
		return nil, err
	}
	var row RoleSlot
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND slot = ?", userID, slot).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListRoleSlotsByUser는 사용자의 슬롯 목록을 슬롯 번호 순으로 반환합니다.
func (r *Repository) ListRoleSlotsByUser(ctx context.Context, userID string) ([]RoleSlot, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	var rows []RoleSlot
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("slot ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRoleSlots는 모든 슬롯 레코드를 반환합니다.
func (r *Repository) ListRoleSlots(ctx context.Context) ([]RoleSlot, error) {
	var rows []RoleSlot
	if err := r.db.WithContext(ctx).
		Order("user_id ASC, slot ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteRoleSlot은 (userID, slot) 레코드를 삭제합니다. 없으면 아무 일도 하지 않습니다.
func (r *Repository) DeleteRoleSlot(ctx context.Context, userID string, slot int) error {
	if err := validateKey(userID, slot); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND slot = ?", userID, slot).
		Delete(&RoleSlot{}).Error
}

// ImportDocument는 문서 전체를 하나의 트랜잭션으로 upsert 합니다.
func (r *Repository) ImportDocument(ctx context.Context, doc Document) (int, error) {
	count := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &Repository{db: tx}
		for userID, slots := range doc {
			for slot, roleID := range slots {
				if err := txRepo.UpsertRoleSlot(ctx, userID, slot, roleID); err != nil {
					return fmt.Errorf("storage: import %s/%d: %w", userID, slot, err)
				}
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// IsNotFound는 gorm의 레코드 없음 에러인지 확인합니다.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func validateKey(userID string, slot int) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if slot < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	return nil
}
