package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Local is an in-process notification service. Future notifications become
// one-shot cron entries; notifications whose time has come are delivered
// right away.
type Local struct {
	mu        sync.Mutex
	cron      *cron.Cron
	deliverer Deliverer
	pending   map[int32]cron.EntryID
	now       func() time.Time
	logger    *log.Logger
}

// NewLocal creates a Local service evaluating triggers in loc.
func NewLocal(deliverer Deliverer, loc *time.Location, logger *log.Logger) *Local {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Local{
		cron:      cron.New(cron.WithLocation(loc)),
		deliverer: deliverer,
		pending:   make(map[int32]cron.EntryID),
		now:       time.Now,
		logger:    logger,
	}
}

// Start runs the cron loop in the background.
func (l *Local) Start() {
	l.cron.Start()
}

// Stop halts the cron loop and waits for running deliveries.
func (l *Local) Stop() {
	ctx := l.cron.Stop()
	<-ctx.Done()
}

// Schedule registers every notification in req, replacing pending ones
// with the same id.
func (l *Local) Schedule(ctx context.Context, req Request) error {
	if len(req.Notifications) == 0 {
		return errors.New("empty notification request")
	}

	var errs []error
	for _, n := range req.Notifications {
		if err := l.scheduleOne(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("notification %d: %w", n.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (l *Local) scheduleOne(ctx context.Context, n Notification) error {
	l.mu.Lock()
	l.removeLocked(n.ID)

	if !n.At.After(l.now()) {
		l.mu.Unlock()
		return l.deliverer.Deliver(ctx, n)
	}
	defer l.mu.Unlock()

	at := n.At.In(l.cron.Location())
	spec := fmt.Sprintf("%d %d %d %d *", at.Minute(), at.Hour(), at.Day(), int(at.Month()))
	entryID, err := l.cron.AddFunc(spec, func() { l.fire(n) })
	if err != nil {
		return fmt.Errorf("add cron entry: %w", err)
	}
	l.pending[n.ID] = entryID
	return nil
}

func (l *Local) fire(n Notification) {
	l.mu.Lock()
	l.removeLocked(n.ID)
	l.mu.Unlock()

	if err := l.deliverer.Deliver(context.Background(), n); err != nil {
		l.logger.Printf("notify: deliver %d: %v", n.ID, err)
	}
}

// Cancel drops pending notifications. Unknown ids are ignored.
func (l *Local) Cancel(_ context.Context, ids ...int32) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		l.removeLocked(id)
	}
	return nil
}

// Pending returns how many notifications are waiting to fire.
func (l *Local) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// NextRun returns when the pending notification id will fire.
func (l *Local) NextRun(id int32) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entryID, ok := l.pending[id]
	if !ok {
		return time.Time{}, false
	}
	entry := l.cron.Entry(entryID)
	if !entry.Valid() {
		return time.Time{}, false
	}
	return entry.Schedule.Next(l.now().In(l.cron.Location())), true
}

func (l *Local) removeLocked(id int32) {
	if entryID, ok := l.pending[id]; ok {
		l.cron.Remove(entryID)
		delete(l.pending, id)
	}
}

// LogDeliverer writes fired notifications to a logger.
type LogDeliverer struct {
	Logger *log.Logger
}

func (d LogDeliverer) Deliver(_ context.Context, n Notification) error {
	d.Logger.Printf("notification %d at %s: %s", n.ID, n.At.Format(time.Kitchen), Message(n))
	return nil
}
