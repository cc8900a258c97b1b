package notify

import (
	"context"
	"fmt"
	"time"
)

// Notification is one entry of a schedule request.
type Notification struct {
	ID    int32
	Title string
	Body  string
	At    time.Time

	// Display hints; services may ignore them.
	SmallIcon string
	IconColor string
}

// Request batches notifications for one call to a Service.
type Request struct {
	Notifications []Notification
}

// Service schedules notifications to be shown at their trigger time.
type Service interface {
	Schedule(ctx context.Context, req Request) error
	Cancel(ctx context.Context, ids ...int32) error
}

// Deliverer shows a notification to the user once it fires.
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, n Notification) error

func (f DelivererFunc) Deliver(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Message renders a notification as plain text for messaging channels.
func Message(n Notification) string {
	return fmt.Sprintf("%s: %s", n.Title, n.Body)
}
