package notification

import (
	"context"
	"log/slog"

	id "mandat/pkg/domain"
	"mandat/pkg/requestcontext"
)

// Store persists notification records.
type Store interface {
	Append(ctx context.Context, n *Notification) error
	FindByID(ctx context.Context, notificationID id.NotificationID) (*Notification, error)
	ListByRecipient(ctx context.Context, recipientID id.UserID) ([]*Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID, recipientID id.UserID) error
	Delete(ctx context.Context, notificationID id.NotificationID, recipientID id.UserID) error
}

// EventPublisher emits workflow events to an external sink (Kafka). Optional;
// dispatching works without it.
type EventPublisher interface {
	Publish(ctx context.Context, n Notification) error
}

// Dispatcher records best-effort, fire-and-forget notifications for workflow
// events. Failures are logged and swallowed; they never roll back or fail
// the workflow action that triggered them.
type Dispatcher struct {
	store     Store
	publisher EventPublisher
	logger    *slog.Logger
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

func WithEventPublisher(publisher EventPublisher) Option {
	return func(d *Dispatcher) { d.publisher = publisher }
}

func NewDispatcher(store Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{store: store}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch records one notification. The returned error is informational;
// workflow callers ignore it by contract and the dispatcher has already
// logged the failure.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) error {
	if n.ID.IsNil() {
		n.ID = id.NewNotificationID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = requestcontext.Now(ctx)
	}

	if err := d.store.Append(ctx, &n); err != nil {
		d.logFailure(ctx, "notification append failed", n, err)
		return err
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, n); err != nil {
			// The stored record is the source of truth; a lost event is
			// only an observability gap.
			d.logFailure(ctx, "notification event publish failed", n, err)
		}
	}
	return nil
}

// List returns the recipient's notifications, newest first.
func (d *Dispatcher) List(ctx context.Context, recipientID id.UserID) ([]*Notification, error) {
	return d.store.ListByRecipient(ctx, recipientID)
}

// MarkRead flags one of the recipient's notifications as read.
func (d *Dispatcher) MarkRead(ctx context.Context, notificationID id.NotificationID, recipientID id.UserID) error {
	return d.store.MarkRead(ctx, notificationID, recipientID)
}

// Delete removes one of the recipient's notifications.
func (d *Dispatcher) Delete(ctx context.Context, notificationID id.NotificationID, recipientID id.UserID) error {
	return d.store.Delete(ctx, notificationID, recipientID)
}

func (d *Dispatcher) logFailure(ctx context.Context, msg string, n Notification, err error) {
	if d.logger == nil {
		return
	}
	d.logger.WarnContext(ctx, msg,
		"recipient_id", n.RecipientID.String(),
		"type", string(n.Type),
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}
