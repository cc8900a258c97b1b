// Package app wires the reminder store to the notification scheduler and
// reports outcomes to the user.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/pathakanu/careMemo/internal/model"
	"github.com/pathakanu/careMemo/internal/notify"
	"github.com/pathakanu/careMemo/internal/store"
)

// User-facing messages.
const (
	MsgAdded            = "Reminder added successfully"
	MsgUpdated          = "Reminder updated successfully"
	MsgScheduleFailed   = "Reminder saved, but the notification could not be scheduled"
	MsgRescheduleFailed = "Reminder updated, but the notification could not be rescheduled"
	MsgDeleted          = "Reminder deleted"
)

// Outcome describes a completed add or edit.
type Outcome struct {
	Reminder model.Reminder
	Schedule notify.Result
	Message  string
}

// Scheduled reports whether the notification was accepted.
func (o Outcome) Scheduled() bool {
	return o.Schedule.OK()
}

// App is the root composition owning the store and scheduler.
type App struct {
	store     *store.Store
	scheduler *notify.Scheduler
	feedback  Feedback
	logger    *log.Logger
}

// New creates an App. A nil feedback or logger discards output.
func New(st *store.Store, scheduler *notify.Scheduler, feedback Feedback, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if feedback == nil {
		feedback = LogFeedback{Logger: logger}
	}
	return &App{
		store:     st,
		scheduler: scheduler,
		feedback:  feedback,
		logger:    logger,
	}
}

// Reminders lists every reminder in creation order.
func (a *App) Reminders() []model.Reminder {
	return a.store.List()
}

// Reminder looks a reminder up by id.
func (a *App) Reminder(id string) (model.Reminder, bool) {
	return a.store.Get(id)
}

// Add stores a new reminder and schedules its notification. Invalid input
// is returned without feedback so the form can be corrected. A scheduling
// failure keeps the stored reminder.
func (a *App) Add(ctx context.Context, c model.Candidate) (Outcome, error) {
	r, err := a.store.Add(ctx, c)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Reminder: r, Schedule: a.scheduler.Schedule(ctx, r), Message: MsgAdded}
	if !out.Scheduled() {
		a.logger.Printf("app: reminder %s saved but not scheduled: %v", r.ID, out.Schedule.Err)
		out.Message = MsgScheduleFailed
	}
	a.toast(out.Message)
	return out, nil
}

// EditPrompt returns the dialog contents for editing id.
func (a *App) EditPrompt(id string) (Prompt, error) {
	r, ok := a.store.Get(id)
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return Prompt{
		Header:     "Edit Reminder",
		ReminderID: r.ID,
		Time:       r.Time,
		Text:       r.Text,
		Type:       r.Type,
		Types:      model.Types(),
	}, nil
}

// Edit asks confirmer for changes to id and applies them. It reports
// applied=false when the user cancelled.
func (a *App) Edit(ctx context.Context, id string, confirmer Confirmer) (out Outcome, applied bool, err error) {
	prompt, err := a.EditPrompt(id)
	if err != nil {
		return Outcome{}, false, err
	}

	patch, ok, err := confirmer.Confirm(ctx, prompt)
	if err != nil {
		return Outcome{}, false, fmt.Errorf("edit prompt: %w", err)
	}
	if !ok {
		return Outcome{}, false, nil
	}

	r, err := a.store.Update(ctx, id, patch)
	if err != nil {
		return Outcome{}, false, err
	}

	out = Outcome{Reminder: r, Schedule: a.scheduler.Schedule(ctx, r), Message: MsgUpdated}
	if !out.Scheduled() {
		a.logger.Printf("app: reminder %s updated but not rescheduled: %v", r.ID, out.Schedule.Err)
		out.Message = MsgRescheduleFailed
	}
	a.toast(out.Message)
	return out, true, nil
}

// Delete removes a reminder and its pending notification. Unknown ids are
// a silent no-op.
func (a *App) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := a.store.Remove(ctx, id)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}
	if err := a.scheduler.Cancel(ctx, id); err != nil {
		a.logger.Printf("app: reminder %s deleted but notification not cancelled: %v", id, err)
	}
	return true, nil
}

// Simulate shows the alert a reminder's notification would display.
func (a *App) Simulate(id string) (header, message string, err error) {
	r, ok := a.store.Get(id)
	if !ok {
		return "", "", fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	header = notify.Title(r.Type)
	message = fmt.Sprintf("%s (%s)", r.Text, r.Time)
	a.feedback.Alert(header, message)
	return header, message, nil
}

// Trigger returns when the reminder with id would fire if scheduled now.
func (a *App) Trigger(id string) (time.Time, int32, error) {
	r, ok := a.store.Get(id)
	if !ok {
		return time.Time{}, 0, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	at, err := a.scheduler.Trigger(r, a.scheduler.Now())
	if err != nil {
		return time.Time{}, 0, err
	}
	return at, notify.NotificationID(r.ID), nil
}

// Restore schedules every stored reminder whose trigger is still ahead.
// It returns how many were scheduled.
func (a *App) Restore(ctx context.Context) int {
	now := a.scheduler.Now()
	scheduled := 0
	for _, r := range a.store.List() {
		at, err := a.scheduler.Trigger(r, now)
		if err != nil {
			a.logger.Printf("app: restore reminder %s: %v", r.ID, err)
			continue
		}
		if !at.After(now) {
			continue
		}
		if result := a.scheduler.Schedule(ctx, r); !result.OK() {
			a.logger.Printf("app: restore reminder %s: %v", r.ID, result.Err)
			continue
		}
		scheduled++
	}
	return scheduled
}

func (a *App) toast(message string) {
	a.feedback.Toast(Toast{Message: message, Duration: DefaultToastDuration, Position: PositionBottom})
}
