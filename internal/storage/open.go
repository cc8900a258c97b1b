package storage

import (
	"fmt"

	"github.com/pathakanu/careMemo/internal/config"
	"github.com/pathakanu/careMemo/internal/database"
)

// Open returns the slot selected by cfg.StorageBackend.
func Open(cfg *config.Config) (Slot, error) {
	switch cfg.StorageBackend {
	case config.BackendFile:
		return NewFileSlot(cfg.DataDir), nil
	case config.BackendMemory:
		return NewMemorySlot(), nil
	case config.BackendDatabase, "":
		db, err := database.New(cfg.DatabaseURL, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		return NewGormSlot(db), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
