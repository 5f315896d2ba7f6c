package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"milkbook/internal/core"
	"milkbook/internal/storage"
)

// Publisher enqueues a pointer to a notification row. The AMQP client is
// the production implementation.
type Publisher interface {
	PublishNotification(ctx context.Context, id string) error
}

// NotificationService renders SMS templates against account rows, records
// notification jobs and enqueues them for the worker. A failed publish is
// logged but never fails the request: the recorded row stays pending and
// the worker's sweep re-enqueues it.
type NotificationService struct {
	store storage.RecordStore
	queue Publisher
}

func NewNotificationService(store storage.RecordStore, queue Publisher) *NotificationService {
	return &NotificationService{store: store, queue: queue}
}

// RenderTemplate substitutes the {name} and {balance} placeholders from
// the account row. Unknown placeholders pass through untouched.
func RenderTemplate(body string, a core.Account) string {
	r := strings.NewReplacer(
		"{name}", a.Name,
		"{balance}", a.Balance.String(),
	)
	return r.Replace(body)
}

// Send records and enqueues one message for one account. An empty body
// falls back to the named template for the account's audience.
func (s *NotificationService) Send(ctx context.Context, accountID, templateID, body string) (storage.Notification, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return storage.Notification{}, err
	}
	if account.Phone == "" {
		return storage.Notification{}, fmt.Errorf("%w: account has no phone number", core.ErrValidation)
	}

	if body == "" {
		template, err := s.findTemplate(ctx, account.Kind, templateID)
		if err != nil {
			return storage.Notification{}, err
		}
		body = template.Body
	}

	n, err := s.store.CreateNotification(ctx, storage.Notification{
		AccountID: account.ID,
		Phone:     account.Phone,
		Message:   RenderTemplate(body, account),
	})
	if err != nil {
		return storage.Notification{}, fmt.Errorf("record notification: %w", err)
	}

	s.enqueue(ctx, n.ID)
	return n, nil
}

// Broadcast sends one template to every account of the audience that has a
// phone number. Returns how many notifications were recorded.
func (s *NotificationService) Broadcast(ctx context.Context, audience core.AccountKind, templateID string) (int, error) {
	if !audience.Valid() {
		return 0, fmt.Errorf("%w: unknown audience %q", core.ErrValidation, audience)
	}
	template, err := s.findTemplate(ctx, audience, templateID)
	if err != nil {
		return 0, err
	}

	accounts, err := s.store.ListAccounts(ctx, audience)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, account := range accounts {
		if account.Phone == "" {
			continue
		}
		n, err := s.store.CreateNotification(ctx, storage.Notification{
			AccountID: account.ID,
			Phone:     account.Phone,
			Message:   RenderTemplate(template.Body, account),
		})
		if err != nil {
			return sent, fmt.Errorf("record notification for %s: %w", account.ID, err)
		}
		s.enqueue(ctx, n.ID)
		sent++
	}
	return sent, nil
}

func (s *NotificationService) findTemplate(ctx context.Context, audience core.AccountKind, templateID string) (storage.SMSTemplate, error) {
	if templateID == "" {
		return storage.SMSTemplate{}, fmt.Errorf("%w: template id or message body required", core.ErrValidation)
	}
	templates, err := s.store.ListTemplates(ctx, audience)
	if err != nil {
		return storage.SMSTemplate{}, err
	}
	for _, t := range templates {
		if t.ID == templateID {
			return t, nil
		}
	}
	return storage.SMSTemplate{}, fmt.Errorf("template %s: %w", templateID, storage.ErrNotFound)
}

func (s *NotificationService) ListTemplates(ctx context.Context, audience core.AccountKind) ([]storage.SMSTemplate, error) {
	if !audience.Valid() {
		return nil, fmt.Errorf("%w: unknown audience %q", core.ErrValidation, audience)
	}
	return s.store.ListTemplates(ctx, audience)
}

func (s *NotificationService) SaveTemplate(ctx context.Context, t storage.SMSTemplate) (storage.SMSTemplate, error) {
	if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Body) == "" {
		return storage.SMSTemplate{}, fmt.Errorf("%w: template name and body are required", core.ErrValidation)
	}
	if !t.Audience.Valid() {
		return storage.SMSTemplate{}, fmt.Errorf("%w: unknown audience %q", core.ErrValidation, t.Audience)
	}
	return s.store.SaveTemplate(ctx, t)
}

func (s *NotificationService) DeleteTemplate(ctx context.Context, id string) error {
	return s.store.DeleteTemplate(ctx, id)
}

func (s *NotificationService) enqueue(ctx context.Context, id string) {
	if s.queue == nil {
		slog.WarnContext(ctx, "Queue not available, notification left pending", "id", id)
		return
	}
	if err := s.queue.PublishNotification(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish notification, sweep will retry",
			"id", id, "error", err)
	}
}
