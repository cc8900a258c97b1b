package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTime is returned when a time of day is not formatted as HH:MM.
var ErrInvalidTime = errors.New("time must be HH:MM between 00:00 and 23:59")

// ErrUnknownType is returned for reminder type labels outside the known set.
var ErrUnknownType = errors.New("unknown reminder type")

// Type categorises a reminder.
type Type string

const (
	// TypeMedication is the default category for new reminders.
	TypeMedication Type = "Medication"
	// TypeAppointment marks doctor visits and other appointments.
	TypeAppointment Type = "Appointment"
	// TypeGeneral covers everything else.
	TypeGeneral Type = "General"
)

// Types lists every reminder type in display order.
func Types() []Type {
	return []Type{TypeMedication, TypeAppointment, TypeGeneral}
}

// ParseType resolves a label case-insensitively.
func ParseType(label string) (Type, error) {
	trimmed := strings.TrimSpace(label)
	for _, t := range Types() {
		if strings.EqualFold(trimmed, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, label)
}

func (t Type) String() string {
	return string(t)
}

// MarshalJSON writes the type as its label.
func (t Type) MarshalJSON() ([]byte, error) {
	if _, err := ParseType(string(t)); err != nil {
		return nil, err
	}
	return json.Marshal(string(t))
}

// UnmarshalJSON accepts any known label regardless of case.
func (t *Type) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseType(label)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Reminder pairs a time of day with some text and a category.
type Reminder struct {
	ID   string `json:"id"`
	Time string `json:"time"`
	Text string `json:"text"`
	Type Type   `json:"type"`
}

// Candidate is the user input for a new reminder.
type Candidate struct {
	Time string
	Text string
	Type Type
}

// Patch holds the fields an edit overrides. Nil fields keep their value.
type Patch struct {
	Time *string `json:"time,omitempty"`
	Text *string `json:"text,omitempty"`
	Type *Type   `json:"type,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Time == nil && p.Text == nil && p.Type == nil
}

// Validate checks the fields the patch sets. Text is not checked on edit.
func (p Patch) Validate() error {
	if p.Time != nil {
		if _, _, err := ParseClock(*p.Time); err != nil {
			return err
		}
	}
	if p.Type != nil {
		if _, err := ParseType(string(*p.Type)); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns r with the patch merged over it.
func (p Patch) Apply(r Reminder) Reminder {
	if p.Time != nil {
		r.Time = *p.Time
	}
	if p.Text != nil {
		r.Text = *p.Text
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	return r
}

// ParseClock splits an HH:MM string into hour and minute.
func ParseClock(value string) (hour, minute int, err error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	hour, err = strconv.Atoi(value[:2])
	if err != nil || hour < 0 || hour > 23 || value[0] == '+' || value[0] == '-' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	minute, err = strconv.Atoi(value[3:])
	if err != nil || minute < 0 || minute > 59 || value[3] == '+' || value[3] == '-' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	return hour, minute, nil
}

// NormalizeClock accepts H:MM or HH:MM and returns HH:MM.
func NormalizeClock(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 4 && trimmed[1] == ':' {
		trimmed = "0" + trimmed
	}
	hour, minute, err := ParseClock(trimmed)
	if err != nil {
		return "", err
	}
	return FormatClock(hour, minute), nil
}

// FormatClock renders hour and minute as HH:MM.
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ClockOf returns the HH:MM wall clock of t.
func ClockOf(t time.Time) string {
	return FormatClock(t.Hour(), t.Minute())
}
