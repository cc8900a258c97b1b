package notify

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pathakanu/careMemo/internal/model"
)

var jan1 = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func TestToTriggerFutureTimeSameDay(t *testing.T) {
	t.Parallel()

	got, err := ToTrigger(model.Reminder{Time: "09:30"}, jan1)
	if err != nil {
		t.Fatalf("ToTrigger: %v", err)
	}
	if want := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("ToTrigger = %s, want %s", got, want)
	}
}

// A time that already passed stays on today. Switching this to the next day
// changes when existing users' alarms fire; see TestNextTriggerRollsOver.
func TestToTriggerPastTimeDoesNotRollOver(t *testing.T) {
	t.Parallel()

	got, err := ToTrigger(model.Reminder{Time: "07:00"}, jan1)
	if err != nil {
		t.Fatalf("ToTrigger: %v", err)
	}
	if want := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("ToTrigger = %s, want %s", got, want)
	}
}

func TestNextTriggerRollsOver(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Time{
		"07:00": time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC),
		"08:00": time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
		"09:30": time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
	}
	for clock, want := range cases {
		got, err := NextTrigger(model.Reminder{Time: clock}, jan1)
		if err != nil {
			t.Fatalf("NextTrigger(%s): %v", clock, err)
		}
		if !got.Equal(want) {
			t.Fatalf("NextTrigger(%s) = %s, want %s", clock, got, want)
		}
	}

	newYear, _ := NextTrigger(model.Reminder{Time: "00:00"}, time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC))
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !newYear.Equal(want) {
		t.Fatalf("rollover across year = %s, want %s", newYear, want)
	}
}

func TestToTriggerKeepsLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+5:30", 5*3600+1800)
	got, err := ToTrigger(model.Reminder{Time: "21:15"}, time.Date(2024, 3, 10, 6, 0, 0, 0, loc))
	if err != nil {
		t.Fatalf("ToTrigger: %v", err)
	}
	if got.Location() != loc || got.Hour() != 21 || got.Minute() != 15 || got.Second() != 0 {
		t.Fatalf("unexpected trigger %s", got)
	}
}

func TestToTriggerRejectsMalformedTime(t *testing.T) {
	t.Parallel()

	if _, err := ToTrigger(model.Reminder{Time: "7pm"}, jan1); !errors.Is(err, model.ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
}

func TestNotificationID(t *testing.T) {
	t.Parallel()

	if got := NotificationID("42"); got != 42 {
		t.Fatalf("NotificationID(42) = %d", got)
	}
	if got := NotificationID("2147483647"); got != math.MaxInt32 {
		t.Fatalf("NotificationID(MaxInt32) = %d", got)
	}

	for _, id := range []string{"1704096000000", "0", "-5", "abc", "", "2147483648"} {
		got := NotificationID(id)
		if got < 1 {
			t.Fatalf("NotificationID(%q) = %d, want positive", id, got)
		}
		if again := NotificationID(id); again != got {
			t.Fatalf("NotificationID(%q) not deterministic: %d vs %d", id, got, again)
		}
	}
	if NotificationID("1704096000000") == NotificationID("1704096000001") {
		t.Fatalf("adjacent millisecond ids collided")
	}
}

type recordingService struct {
	mu        sync.Mutex
	requests  []Request
	cancelled []int32
	err       error
}

func (r *recordingService) Schedule(_ context.Context, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return r.err
}

func (r *recordingService) Cancel(_ context.Context, ids ...int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, ids...)
	return r.err
}

func newTestScheduler(svc Service, rollover bool) *Scheduler {
	return NewScheduler(svc, Options{
		RolloverPast: rollover,
		Location:     time.UTC,
		Now:          func() time.Time { return jan1 },
		Logger:       log.New(io.Discard, "", 0),
	})
}

func TestScheduleBuildsRequest(t *testing.T) {
	t.Parallel()

	svc := &recordingService{}
	s := newTestScheduler(svc, false)
	r := model.Reminder{ID: "1704096000000", Time: "09:30", Text: "Take aspirin", Type: model.TypeAppointment}

	result := s.Schedule(context.Background(), r)
	if !result.OK() {
		t.Fatalf("unexpected failure: %v", result.Err)
	}
	if len(svc.requests) != 1 || len(svc.requests[0].Notifications) != 1 {
		t.Fatalf("expected one request with one notification, got %+v", svc.requests)
	}

	n := svc.requests[0].Notifications[0]
	if !strings.Contains(n.Title, "Appointment") {
		t.Fatalf("title %q does not mention the type", n.Title)
	}
	if n.Body != r.Text {
		t.Fatalf("body = %q, want %q", n.Body, r.Text)
	}
	if n.ID != NotificationID(r.ID) || n.ID != result.NotificationID {
		t.Fatalf("unexpected notification id %d", n.ID)
	}
	if want := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC); !n.At.Equal(want) || !result.Trigger.Equal(want) {
		t.Fatalf("trigger = %s, want %s", n.At, want)
	}
	if n.SmallIcon != DefaultSmallIcon || n.IconColor != DefaultIconColor {
		t.Fatalf("unexpected display hints %q %q", n.SmallIcon, n.IconColor)
	}
}

func TestScheduleHonoursRolloverOption(t *testing.T) {
	t.Parallel()

	svc := &recordingService{}
	result := newTestScheduler(svc, true).Schedule(context.Background(), model.Reminder{ID: "1", Time: "07:00", Text: "x", Type: model.TypeGeneral})
	if want := time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC); !result.Trigger.Equal(want) {
		t.Fatalf("trigger = %s, want %s", result.Trigger, want)
	}
}

func TestScheduleReportsServiceFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("service down")
	result := newTestScheduler(&recordingService{err: boom}, false).Schedule(context.Background(), model.Reminder{ID: "1", Time: "09:00", Text: "x", Type: model.TypeGeneral})
	if result.OK() || !errors.Is(result.Err, boom) {
		t.Fatalf("expected wrapped service error, got %v", result.Err)
	}
	if result.ReminderID != "1" {
		t.Fatalf("result lost the reminder id: %+v", result)
	}
}

func TestScheduleReportsMalformedTime(t *testing.T) {
	t.Parallel()

	svc := &recordingService{}
	result := newTestScheduler(svc, false).Schedule(context.Background(), model.Reminder{ID: "1", Time: "bad", Text: "x", Type: model.TypeGeneral})
	if !errors.Is(result.Err, model.ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", result.Err)
	}
	if len(svc.requests) != 0 {
		t.Fatalf("no request should reach the service")
	}
}

func TestSchedulerCancelUsesNotificationID(t *testing.T) {
	t.Parallel()

	svc := &recordingService{}
	if err := newTestScheduler(svc, false).Cancel(context.Background(), "1704096000000"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(svc.cancelled) != 1 || svc.cancelled[0] != NotificationID("1704096000000") {
		t.Fatalf("unexpected cancelled ids %v", svc.cancelled)
	}
}

type collectingDeliverer struct {
	mu        sync.Mutex
	delivered []Notification
	err       error
}

func (c *collectingDeliverer) Deliver(_ context.Context, n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivered = append(c.delivered, n)
	return c.err
}

func newTestLocal(d Deliverer) *Local {
	l := NewLocal(d, time.UTC, log.New(io.Discard, "", 0))
	l.now = func() time.Time { return jan1 }
	return l
}

func TestLocalDeliversPastTriggersImmediately(t *testing.T) {
	t.Parallel()

	d := &collectingDeliverer{}
	l := newTestLocal(d)
	n := Notification{ID: 7, Title: "General Reminder", Body: "late", At: jan1.Add(-time.Hour)}

	if err := l.Schedule(context.Background(), Request{Notifications: []Notification{n}}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(d.delivered) != 1 || d.delivered[0].ID != 7 {
		t.Fatalf("expected immediate delivery, got %+v", d.delivered)
	}
	if l.Pending() != 0 {
		t.Fatalf("past trigger must not stay pending")
	}
}

func TestLocalReportsDeliveryFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("whatsapp down")
	l := newTestLocal(&collectingDeliverer{err: boom})
	err := l.Schedule(context.Background(), Request{Notifications: []Notification{{ID: 1, At: jan1}}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected delivery error, got %v", err)
	}
}

func TestLocalSchedulesFutureTriggers(t *testing.T) {
	t.Parallel()

	d := &collectingDeliverer{}
	l := newTestLocal(d)
	at := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	if err := l.Schedule(context.Background(), Request{Notifications: []Notification{{ID: 9, At: at}}}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	next, ok := l.NextRun(9)
	if !ok || !next.Equal(at) {
		t.Fatalf("NextRun = %s, %v; want %s", next, ok, at)
	}

	// Same id replaces the pending entry.
	later := at.Add(2 * time.Hour)
	if err := l.Schedule(context.Background(), Request{Notifications: []Notification{{ID: 9, At: later}}}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if l.Pending() != 1 {
		t.Fatalf("expected one pending entry, got %d", l.Pending())
	}
	if next, _ := l.NextRun(9); !next.Equal(later) {
		t.Fatalf("NextRun after replace = %s, want %s", next, later)
	}

	if err := l.Cancel(context.Background(), 9, 12345); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if l.Pending() != 0 {
		t.Fatalf("expected no pending entries after cancel")
	}
	if len(d.delivered) != 0 {
		t.Fatalf("nothing should have been delivered yet")
	}
}

func TestLocalRejectsEmptyRequest(t *testing.T) {
	t.Parallel()

	if err := newTestLocal(&collectingDeliverer{}).Schedule(context.Background(), Request{}); err == nil {
		t.Fatalf("expected error for empty request")
	}
}
