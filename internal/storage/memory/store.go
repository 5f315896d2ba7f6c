// Package memory provides an in-memory RecordStore used by tests and by
// the memory data backend. All methods are safe for concurrent use.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"milkbook/internal/core"
	"milkbook/internal/storage"
)

type Store struct {
	mu            sync.RWMutex
	accounts      map[string]core.Account
	entries       map[string]entry
	deleted       []storage.DeletedRecord
	settings      map[string]storage.Setting
	templates     map[string]storage.SMSTemplate
	notifications map[string]storage.Notification
}

type entry struct {
	accountID string
	core.Entry
}

func NewStore() *Store {
	s := &Store{
		accounts:      make(map[string]core.Account),
		entries:       make(map[string]entry),
		settings:      make(map[string]storage.Setting),
		templates:     make(map[string]storage.SMSTemplate),
		notifications: make(map[string]storage.Notification),
	}
	s.seedSettings()
	return s
}

func (s *Store) seedSettings() {
	now := time.Now().UTC()
	for key, def := range map[string][2]string{
		"business_name":         {"MilkBook Dairy", "Business name shown on statements"},
		"default_purchase_rate": {"50", "Default purchase rate per liter"},
		"default_sale_rate":     {"60", "Default sale rate per liter"},
	} {
		s.settings[key] = storage.Setting{Key: key, Value: def[0], Description: def[1], UpdatedAt: now}
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.Balance = decimal.Zero

	for _, other := range s.accounts {
		if other.Code == a.Code {
			return core.Account{}, fmt.Errorf("account code %q already in use", a.Code)
		}
	}
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) GetAccount(_ context.Context, id string) (core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("account %s: %w", id, storage.ErrNotFound)
	}
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context, kind core.AccountKind) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accounts []core.Account
	for _, a := range s.accounts {
		if a.Kind == kind {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

func (s *Store) UpdateAccount(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accounts[a.ID]
	if !ok {
		return fmt.Errorf("account %s: %w", a.ID, storage.ErrNotFound)
	}
	existing.Name = a.Name
	existing.Phone = a.Phone
	existing.Address = a.Address
	existing.MilkRate = a.MilkRate
	s.accounts[a.ID] = existing
	return nil
}

func (s *Store) DeleteAccountWithAudit(_ context.Context, id, reason, deletedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("account %s: %w", id, storage.ErrNotFound)
	}
	s.deleted = append(s.deleted, storage.DeletedRecord{
		ID:             uuid.NewString(),
		TableName:      "accounts",
		RecordID:       id,
		RecordData:     fmt.Sprintf("%s (%s)", a.Name, a.Code),
		DeletionReason: reason,
		DeletedBy:      deletedBy,
		DeletedAt:      time.Now().UTC(),
	})
	for eid, e := range s.entries {
		if e.accountID == id {
			delete(s.entries, eid)
		}
	}
	delete(s.accounts, id)
	return nil
}

func (s *Store) PostEntry(_ context.Context, accountID string, e core.Entry) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return core.Entry{}, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	s.entries[e.ID] = entry{accountID: accountID, Entry: e}
	a.Balance = a.Balance.Add(e.BalanceDelta(a.Kind))
	s.accounts[accountID] = a
	return e, nil
}

func (s *Store) ListEntriesForMonth(_ context.Context, accountID string, monthStart, monthEnd time.Time) ([]core.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	upper := monthEnd.AddDate(0, 0, 1)
	var entries []core.Entry
	for _, e := range s.entries {
		if e.accountID != accountID {
			continue
		}
		if e.CreatedAt.Before(monthStart) || !e.CreatedAt.Before(upper) {
			continue
		}
		entries = append(entries, e.Entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

func (s *Store) DeleteEntryWithAudit(_ context.Context, entryID, reason, deletedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryID]
	if !ok {
		return fmt.Errorf("transaction %s: %w", entryID, storage.ErrNotFound)
	}
	s.deleted = append(s.deleted, storage.DeletedRecord{
		ID:             uuid.NewString(),
		TableName:      "transactions",
		RecordID:       entryID,
		RecordData:     fmt.Sprintf("%s %s", e.Kind, e.Amount),
		DeletionReason: reason,
		DeletedBy:      deletedBy,
		DeletedAt:      time.Now().UTC(),
	})
	if a, ok := s.accounts[e.accountID]; ok {
		a.Balance = a.Balance.Sub(e.BalanceDelta(a.Kind))
		s.accounts[e.accountID] = a
	}
	delete(s.entries, entryID)
	return nil
}

func (s *Store) ListDeletedRecords(_ context.Context, limit int) ([]storage.DeletedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]storage.DeletedRecord, len(s.deleted))
	copy(records, s.deleted)
	sort.Slice(records, func(i, j int) bool { return records[i].DeletedAt.After(records[j].DeletedAt) })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *Store) GetSetting(_ context.Context, key string) (storage.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	setting, ok := s.settings[key]
	if !ok {
		return storage.Setting{}, fmt.Errorf("setting %s: %w", key, storage.ErrNotFound)
	}
	return setting, nil
}

func (s *Store) PutSetting(_ context.Context, setting storage.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	setting.UpdatedAt = time.Now().UTC()
	s.settings[setting.Key] = setting
	return nil
}

func (s *Store) ListSettings(_ context.Context) ([]storage.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var settings []storage.Setting
	for _, setting := range s.settings {
		settings = append(settings, setting)
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings, nil
}

func (s *Store) ListTemplates(_ context.Context, audience core.AccountKind) ([]storage.SMSTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var templates []storage.SMSTemplate
	for _, t := range s.templates {
		if t.Audience == audience {
			templates = append(templates, t)
		}
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}

func (s *Store) SaveTemplate(_ context.Context, t storage.SMSTemplate) (storage.SMSTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, other := range s.templates {
		if other.Name == t.Name && id != t.ID {
			t.ID = id
			t.CreatedAt = other.CreatedAt
			s.templates[id] = t
			return t, nil
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.templates[t.ID] = t
	return t, nil
}

func (s *Store) DeleteTemplate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[id]; !ok {
		return fmt.Errorf("template %s: %w", id, storage.ErrNotFound)
	}
	delete(s.templates, id)
	return nil
}

func (s *Store) CreateNotification(_ context.Context, n storage.Notification) (storage.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Status == "" {
		n.Status = storage.NotificationPending
	}
	s.notifications[n.ID] = n
	return n, nil
}

func (s *Store) GetNotification(_ context.Context, id string) (storage.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return storage.Notification{}, fmt.Errorf("notification %s: %w", id, storage.ErrNotFound)
	}
	return n, nil
}

func (s *Store) MarkNotificationSent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return fmt.Errorf("notification %s: %w", id, storage.ErrNotFound)
	}
	n.Status = storage.NotificationSent
	n.Attempts++
	n.SentAt = time.Now().UTC()
	s.notifications[id] = n
	return nil
}

func (s *Store) MarkNotificationFailed(_ context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return fmt.Errorf("notification %s: %w", id, storage.ErrNotFound)
	}
	n.Status = storage.NotificationFailed
	n.Attempts++
	n.LastError = reason
	s.notifications[id] = n
	return nil
}

func (s *Store) ListPendingNotifications(_ context.Context, limit int) ([]storage.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []storage.Notification
	for _, n := range s.notifications {
		if n.Status == storage.NotificationPending {
			pending = append(pending, n)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *Store) DailyReport(_ context.Context, day time.Time) (storage.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	summary := storage.DailySummary{
		Date:          start,
		TotalPurchase: decimal.Zero,
		TotalSale:     decimal.Zero,
		TotalCredit:   decimal.Zero,
		TotalDebit:    decimal.Zero,
		Net:           decimal.Zero,
	}
	for _, e := range s.entries {
		if e.CreatedAt.Before(start) || !e.CreatedAt.Before(end) {
			continue
		}
		switch e.Kind {
		case core.KindPurchase:
			summary.TotalPurchase = summary.TotalPurchase.Add(e.Amount)
		case core.KindSale:
			summary.TotalSale = summary.TotalSale.Add(e.Amount)
		case core.KindCredit:
			summary.TotalCredit = summary.TotalCredit.Add(e.Amount)
		case core.KindDebit:
			summary.TotalDebit = summary.TotalDebit.Add(e.Amount)
		}
	}
	summary.Net = summary.TotalSale.Sub(summary.TotalPurchase)
	return summary, nil
}
