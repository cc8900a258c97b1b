package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/pathakanu/careMemo/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSlot stores each key as one row of the kv_slots table.
type GormSlot struct {
	db *gorm.DB
}

// NewGormSlot wraps a migrated database connection.
func NewGormSlot(db *gorm.DB) *GormSlot {
	return &GormSlot{db: db}
}

func (s *GormSlot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	var record model.SlotRecord
	err := s.db.WithContext(ctx).Where(&model.SlotRecord{Key: key}).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return []byte(record.Value), true, nil
}

func (s *GormSlot) Put(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	record := model.SlotRecord{Key: key, Value: string(value)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}
