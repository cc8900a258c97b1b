// Package store keeps the reminder list in memory and mirrors it to a
// storage slot as one snapshot after every change.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/pathakanu/careMemo/internal/model"
	"github.com/pathakanu/careMemo/internal/storage"
)

// SnapshotKey is the slot key holding the serialized reminders.
const SnapshotKey = "reminders"

var (
	// ErrInvalidInput is returned by Add when time or text is missing.
	ErrInvalidInput = errors.New("time and text are required")
	// ErrNotFound is returned by Update for unknown ids.
	ErrNotFound = errors.New("reminder not found")
)

// Options tune a Store. Zero values pick sensible defaults.
type Options struct {
	Key    string
	Now    func() time.Time
	Logger *log.Logger
}

// Store is the ordered reminder collection.
type Store struct {
	mu        sync.Mutex
	slot      storage.Slot
	key       string
	reminders []model.Reminder
	ids       *idGenerator
	logger    *log.Logger
}

// Open loads the snapshot from slot. A missing or unreadable snapshot yields
// an empty store; only a failing slot is reported as an error.
func Open(ctx context.Context, slot storage.Slot, opts Options) (*Store, error) {
	if opts.Key == "" {
		opts.Key = SnapshotKey
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	s := &Store{
		slot:   slot,
		key:    opts.Key,
		logger: opts.Logger,
	}

	data, ok, err := slot.Get(ctx, opts.Key)
	if err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	if ok {
		reminders, err := Decode(data)
		if err != nil {
			s.logger.Printf("store: discarding unreadable snapshot: %v", err)
		} else {
			s.reminders = reminders
		}
	}
	if s.reminders == nil {
		s.reminders = []model.Reminder{}
	}

	s.ids = newIDGenerator(opts.Now, s.reminders)
	return s, nil
}

// List returns the reminders in insertion order.
func (s *Store) List() []model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Reminder{}, s.reminders...)
}

// Len returns the number of stored reminders.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reminders)
}

// Get looks a reminder up by id.
func (s *Store) Get(id string) (model.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.reminders[i], true
	}
	return model.Reminder{}, false
}

// Add validates the candidate, assigns a fresh id, appends it and persists.
func (s *Store) Add(ctx context.Context, c model.Candidate) (model.Reminder, error) {
	if strings.TrimSpace(c.Time) == "" || strings.TrimSpace(c.Text) == "" {
		return model.Reminder{}, ErrInvalidInput
	}
	clock, err := model.NormalizeClock(c.Time)
	if err != nil {
		return model.Reminder{}, err
	}
	kind := model.TypeMedication
	if c.Type != "" {
		if kind, err = model.ParseType(string(c.Type)); err != nil {
			return model.Reminder{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := model.Reminder{
		ID:   s.nextID(),
		Time: clock,
		Text: c.Text,
		Type: kind,
	}
	next := append(append(make([]model.Reminder, 0, len(s.reminders)+1), s.reminders...), r)
	if err := s.persist(ctx, next); err != nil {
		return model.Reminder{}, err
	}
	return r, nil
}

// Update merges patch over the reminder with id and persists.
func (s *Store) Update(ctx context.Context, id string, patch model.Patch) (model.Reminder, error) {
	if err := patch.Validate(); err != nil {
		return model.Reminder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Reminder{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := append([]model.Reminder{}, s.reminders...)
	next[i] = patch.Apply(next[i])
	next[i].ID = id
	if err := s.persist(ctx, next); err != nil {
		return model.Reminder{}, err
	}
	return next[i], nil
}

// Remove deletes the reminder with id, if any, and persists the result.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		if r.ID != id {
			next = append(next, r)
		}
	}
	removed := len(next) != len(s.reminders)
	if err := s.persist(ctx, next); err != nil {
		return false, err
	}
	return removed, nil
}

// persist writes next to the slot and only then makes it the live sequence.
func (s *Store) persist(ctx context.Context, next []model.Reminder) error {
	data, err := Encode(next)
	if err != nil {
		return err
	}
	if err := s.slot.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("save reminders: %w", err)
	}
	s.reminders = next
	return nil
}

func (s *Store) nextID() string {
	for {
		id := s.ids.next()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

func (s *Store) indexOf(id string) int {
	for i, r := range s.reminders {
		if r.ID == id {
			return i
		}
	}
	return -1
}
