// Package notify turns reminders into scheduled notifications.
package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/pathakanu/careMemo/internal/model"
)

const (
	// DefaultSmallIcon is the icon hint sent with every notification.
	DefaultSmallIcon = "ic_launcher"
	// DefaultIconColor is the accent colour hint sent with every notification.
	DefaultIconColor = "#488AFF"
)

// Result reports the outcome of scheduling one reminder.
type Result struct {
	ReminderID     string
	NotificationID int32
	Trigger        time.Time
	Err            error
}

// OK reports whether the notification was accepted by the service.
func (r Result) OK() bool {
	return r.Err == nil
}

// Options configure a Scheduler.
type Options struct {
	// RolloverPast moves triggers that already passed today to tomorrow.
	RolloverPast bool
	SmallIcon    string
	IconColor    string
	Location     *time.Location
	Now          func() time.Time
	Logger       *log.Logger
}

// Scheduler builds notification requests and hands them to a Service.
type Scheduler struct {
	service Service
	opts    Options
}

// NewScheduler returns a Scheduler backed by service.
func NewScheduler(service Service, opts Options) *Scheduler {
	if opts.SmallIcon == "" {
		opts.SmallIcon = DefaultSmallIcon
	}
	if opts.IconColor == "" {
		opts.IconColor = DefaultIconColor
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &Scheduler{service: service, opts: opts}
}

// Now returns the scheduler's current time in its location.
func (s *Scheduler) Now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

// Trigger applies the configured policy to compute when r fires.
func (s *Scheduler) Trigger(r model.Reminder, now time.Time) (time.Time, error) {
	if s.opts.RolloverPast {
		return NextTrigger(r, now)
	}
	return ToTrigger(r, now)
}

// Title is the notification heading for a reminder type.
func Title(t model.Type) string {
	return fmt.Sprintf("%s Reminder", t)
}

// Request builds the single-entry batch for r.
func (s *Scheduler) Request(r model.Reminder) (Request, error) {
	at, err := s.Trigger(r, s.Now())
	if err != nil {
		return Request{}, err
	}
	return Request{
		Notifications: []Notification{{
			ID:        NotificationID(r.ID),
			Title:     Title(r.Type),
			Body:      r.Text,
			At:        at,
			SmallIcon: s.opts.SmallIcon,
			IconColor: s.opts.IconColor,
		}},
	}, nil
}

// Schedule asks the service to show r at its trigger time. Failures are
// returned in the Result, never swallowed.
func (s *Scheduler) Schedule(ctx context.Context, r model.Reminder) Result {
	result := Result{ReminderID: r.ID, NotificationID: NotificationID(r.ID)}

	req, err := s.Request(r)
	if err != nil {
		result.Err = fmt.Errorf("build notification: %w", err)
		return result
	}
	result.Trigger = req.Notifications[0].At

	if err := s.service.Schedule(ctx, req); err != nil {
		result.Err = fmt.Errorf("schedule notification: %w", err)
		s.opts.Logger.Printf("notify: reminder %s: %v", r.ID, result.Err)
		return result
	}
	s.opts.Logger.Printf("notify: reminder %s scheduled as %d at %s", r.ID, result.NotificationID, result.Trigger.Format(time.RFC3339))
	return result
}

// Cancel withdraws the pending notification of a reminder id.
func (s *Scheduler) Cancel(ctx context.Context, reminderID string) error {
	if err := s.service.Cancel(ctx, NotificationID(reminderID)); err != nil {
		return fmt.Errorf("cancel notification: %w", err)
	}
	return nil
}
