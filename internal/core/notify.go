package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Placement is where a client should show a notification.
type Placement string

const (
	PlacementTopRight     Placement = "top-right"
	PlacementTopLeft      Placement = "top-left"
	PlacementBottomRight  Placement = "bottom-right"
	PlacementBottomLeft   Placement = "bottom-left"
	PlacementTopCenter    Placement = "top-center"
	PlacementBottomCenter Placement = "bottom-center"
)

// Placements lists every supported placement.
var Placements = []Placement{
	PlacementTopRight, PlacementTopLeft, PlacementTopCenter,
	PlacementBottomRight, PlacementBottomLeft, PlacementBottomCenter,
}

// ParsePlacement returns the Placement named by s.
func ParsePlacement(s string) (Placement, bool) {
	for _, p := range Placements {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// Notification is a transient, auto-dismissing message for the user.
type Notification struct {
	ID          string    `json:"id"`
	Message     string    `json:"message"`
	Code        string    `json:"code,omitempty"`
	AutoDismiss int64     `json:"autoDismissMillis"`
	Placement   Placement `json:"placement"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewNotification builds a notification with a fresh ID.
func NewNotification(message, code string, autoDismiss time.Duration, placement Placement) Notification {
	return Notification{
		ID:          uuid.NewString(),
		Message:     message,
		Code:        code,
		AutoDismiss: autoDismiss.Milliseconds(),
		Placement:   placement,
		CreatedAt:   time.Now().UTC(),
	}
}

// Notifier receives notifications. Notify must not block and has no result.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Notifiers fans a notification out to several notifiers in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, n Notification) {
	for _, notifier := range ns {
		notifier.Notify(ctx, n)
	}
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) {
	slog.WarnContext(ctx, "notification",
		"notification_id", n.ID,
		"message", n.Message,
		"code", n.Code,
		"auto_dismiss_ms", n.AutoDismiss,
		"placement", n.Placement,
	)
}

// NotificationHub broadcasts notifications to live subscribers. Unlike a
// current-value stream it keeps no history: subscribers only see
// notifications sent after they subscribed.
//
// Sends are non-blocking. A subscriber whose buffer is full misses the
// notification and a warning is logged.
type NotificationHub struct {
	bufferSize int

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan Notification
}

// NewNotificationHub creates a hub with the given per-subscriber buffer.
// A non-positive bufferSize uses a default of 16.
func NewNotificationHub(bufferSize int) *NotificationHub {
	const defaultBufferSize = 16
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &NotificationHub{
		bufferSize: bufferSize,
		subs:       make(map[uint64]chan Notification),
	}
}

// Notify implements Notifier.
func (h *NotificationHub) Notify(ctx context.Context, n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- n:
		default:
			slog.WarnContext(ctx, "notification buffer full, dropping",
				"subscriber", id,
				"notification_id", n.ID,
			)
		}
	}
}

// Subscribe returns a channel of notifications sent from now on.
// The channel is closed when ctx is done.
func (h *NotificationHub) Subscribe(ctx context.Context) <-chan Notification {
	ch := make(chan Notification, h.bufferSize)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

var _ Notifier = (*NotificationHub)(nil)
