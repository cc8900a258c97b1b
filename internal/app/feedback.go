package app

import (
	"context"
	"log"
	"time"

	"github.com/pathakanu/careMemo/internal/model"
)

const (
	// DefaultToastDuration is how long a toast stays on screen.
	DefaultToastDuration = 2 * time.Second
	// PositionBottom places a toast at the bottom of the screen.
	PositionBottom = "bottom"
)

// Toast is a transient message shown to the user.
type Toast struct {
	Message  string
	Duration time.Duration
	Position string
}

// Feedback shows messages to the user. Calls are fire and forget.
type Feedback interface {
	Toast(t Toast)
	Alert(header, message string)
}

// LogFeedback writes feedback to a logger for headless deployments.
type LogFeedback struct {
	Logger *log.Logger
}

func (f LogFeedback) Toast(t Toast) {
	f.Logger.Printf("toast (%s, %s): %s", t.Position, t.Duration, t.Message)
}

func (f LogFeedback) Alert(header, message string) {
	f.Logger.Printf("alert %q: %s", header, message)
}

// Prompt seeds the edit dialog with a reminder's current values.
type Prompt struct {
	Header     string
	ReminderID string
	Time       string
	Text       string
	Type       model.Type
	Types      []model.Type
}

// Confirmer asks the user to edit a reminder. It returns ok=false when the
// user cancelled.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (patch model.Patch, ok bool, err error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, p Prompt) (model.Patch, bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (model.Patch, bool, error) {
	return f(ctx, p)
}

// Accept returns a Confirmer that answers every prompt with patch.
func Accept(patch model.Patch) Confirmer {
	return ConfirmFunc(func(context.Context, Prompt) (model.Patch, bool, error) {
		return patch, true, nil
	})
}

// Cancel returns a Confirmer that always cancels.
func Cancel() Confirmer {
	return ConfirmFunc(func(context.Context, Prompt) (model.Patch, bool, error) {
		return model.Patch{}, false, nil
	})
}
