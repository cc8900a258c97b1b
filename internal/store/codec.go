package store

import (
	"encoding/json"
	"fmt"

	"github.com/pathakanu/careMemo/internal/model"
)

// Encode serializes the whole reminder sequence as a JSON array.
func Encode(reminders []model.Reminder) ([]byte, error) {
	if reminders == nil {
		reminders = []model.Reminder{}
	}
	data, err := json.Marshal(reminders)
	if err != nil {
		return nil, fmt.Errorf("encode reminders: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot written by Encode.
func Decode(data []byte) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := json.Unmarshal(data, &reminders); err != nil {
		return nil, fmt.Errorf("decode reminders: %w", err)
	}
	if reminders == nil {
		reminders = []model.Reminder{}
	}
	return reminders, nil
}
