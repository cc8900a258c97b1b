package model

import "time"

// SlotRecord is one key-value slot holding a serialized snapshot.
type SlotRecord struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName keeps the table name independent of the struct name.
func (SlotRecord) TableName() string {
	return "kv_slots"
}
