package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"milkbook/internal/amqp"
	"milkbook/internal/sms"
	"milkbook/internal/storage"
)

// NotifyWorker delivers recorded notifications through the SMS gateway.
// It is driven two ways: queue messages from AMQP, and a periodic sweep
// over rows still pending in case a queue message was lost.
type NotifyWorker struct {
	store     storage.RecordStore
	sender    sms.Sender
	batchSize int
}

func NewNotifyWorker(store storage.RecordStore, sender sms.Sender, batchSize int) *NotifyWorker {
	return &NotifyWorker{
		store:     store,
		sender:    sender,
		batchSize: batchSize,
	}
}

// HandleMessage processes one queue message. The message carries only the
// notification id; the text and phone number come from the database so a
// replayed message never sends stale content. Returning an error requeues
// the message; permanent conditions are absorbed here instead. A delivery
// failure is one of them: the row is marked failed, which is terminal, so
// a requeued copy would only hit the settled-status check and be dropped.
func (w *NotifyWorker) HandleMessage(ctx context.Context, msg *amqp.NotificationMessage) error {
	n, err := w.store.GetNotification(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Notification row missing, dropping message", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}

	if n.Status != storage.NotificationPending {
		slog.InfoContext(ctx, "Notification already settled, skipping",
			"id", n.ID, "status", n.Status)
		return nil
	}

	if err := w.deliver(ctx, n); err != nil {
		slog.ErrorContext(ctx, "Notification delivery failed",
			"id", n.ID, "error", err)
	}
	return nil
}

func (w *NotifyWorker) deliver(ctx context.Context, n storage.Notification) error {
	if err := w.sender.Send(ctx, n.Phone, n.Message); err != nil {
		if markErr := w.store.MarkNotificationFailed(ctx, n.ID, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record delivery failure",
				"id", n.ID, "error", markErr)
		}
		return fmt.Errorf("send SMS for notification %s: %w", n.ID, err)
	}

	if err := w.store.MarkNotificationSent(ctx, n.ID); err != nil {
		// The SMS went out; surfacing an error here would resend it.
		slog.ErrorContext(ctx, "SMS delivered but status update failed",
			"id", n.ID, "error", err)
	}
	return nil
}

// ProcessPending delivers notifications that are still pending. This is the
// backstop for lost queue messages; it runs on a timer in the worker binary.
func (w *NotifyWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListPendingNotifications(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending notifications: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending notifications", "count", len(pending))

	var failed int
	for _, n := range pending {
		if err := w.deliver(ctx, n); err != nil {
			slog.ErrorContext(ctx, "Pending notification delivery failed",
				"id", n.ID, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pending notifications failed", failed, len(pending))
	}
	return nil
}
