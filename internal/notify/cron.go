package notify

import (
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"medtrack/internal/metrics"
)

// CronBackend arms triggers as cron entries in-process and forwards
// fired reminders to a Sender.
type CronBackend struct {
	cron    *cron.Cron
	sender  Sender
	logger  *zap.Logger
	mu      sync.RWMutex
	entries map[string]cron.EntryID
	running bool
}

// NewCronBackend creates a stopped backend. Call Start before
// expecting reminders to fire.
func NewCronBackend(sender Sender, logger *zap.Logger) *CronBackend {
	return &CronBackend{
		cron:    cron.New(),
		sender:  sender,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}
}

// Start begins firing armed triggers.
func (b *CronBackend) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}
	b.running = true
	b.cron.Start()
}

// Stop halts firing. Armed triggers stay registered.
func (b *CronBackend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return
	}
	b.running = false
	ctx := b.cron.Stop()
	<-ctx.Done()
}

// IsRunning returns whether the backend is firing triggers.
func (b *CronBackend) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

func (b *CronBackend) ScheduleIfAbsent(t Trigger) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.entries[t.Identifier]; exists {
		return nil
	}

	spec := cronSpec(t)
	trigger := t
	id, err := b.cron.AddFunc(spec, func() {
		b.fire(trigger)
	})
	if err != nil {
		return fmt.Errorf("failed to arm trigger %s: %w", t.Identifier, err)
	}

	b.entries[t.Identifier] = id
	return nil
}

func (b *CronBackend) CancelAll() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for identifier, id := range b.entries {
		b.cron.Remove(id)
		delete(b.entries, identifier)
	}
	return nil
}

func (b *CronBackend) CancelPrefix(prefix string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for identifier, id := range b.entries {
		if strings.HasPrefix(identifier, prefix) {
			b.cron.Remove(id)
			delete(b.entries, identifier)
		}
	}
	return nil
}

func (b *CronBackend) ListScheduled() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.entries))
	for identifier := range b.entries {
		ids = append(ids, identifier)
	}
	return sortedIdentifiers(ids)
}

func (b *CronBackend) fire(t Trigger) {
	if b.sender == nil {
		return
	}
	if err := b.sender.Send(t.Title, t.Body); err != nil {
		metrics.RecordNotifyError()
		b.logger.Error("Failed to deliver reminder",
			zap.String("identifier", t.Identifier),
			zap.Error(err),
		)
		return
	}
	metrics.RecordReminderSent()
	b.logger.Debug("Reminder delivered", zap.String("identifier", t.Identifier))
}

// cronSpec renders a trigger as a standard five-field cron line.
func cronSpec(t Trigger) string {
	if t.Weekday != nil {
		return fmt.Sprintf("%d %d * * %d", t.Minute, t.Hour, int(*t.Weekday))
	}
	return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
}
