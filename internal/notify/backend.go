package notify

import (
	"sort"

	"go.uber.org/zap"

	"medtrack/internal/medicine"
)

// Sender delivers a fired reminder to some channel.
type Sender interface {
	Send(title, body string) error
}

// Backend owns the set of armed triggers.
type Backend interface {
	// ScheduleIfAbsent arms a trigger unless one with the same
	// identifier is already armed.
	ScheduleIfAbsent(t Trigger) error
	// CancelAll disarms every trigger.
	CancelAll() error
	// CancelPrefix disarms every trigger whose identifier starts with
	// prefix.
	CancelPrefix(prefix string) error
	// ListScheduled returns the armed identifiers, sorted.
	ListScheduled() []string
}

// LogSender writes reminders to the log. Used when no delivery
// channel is configured.
type LogSender struct {
	Logger *zap.Logger
}

func (s *LogSender) Send(title, body string) error {
	s.Logger.Info("Reminder", zap.String("title", title), zap.String("body", body))
	return nil
}

// Sync replaces the backend's armed set with the triggers planned
// from the given medication list. Returns the number of armed
// triggers.
func Sync(b Backend, meds []medicine.Medication) (int, error) {
	if err := b.CancelAll(); err != nil {
		return 0, err
	}
	count := 0
	for i := range meds {
		for _, t := range PlanTriggers(&meds[i]) {
			if err := b.ScheduleIfAbsent(t); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// CancelMedication disarms every trigger belonging to one medication.
func CancelMedication(b Backend, medicationID string) error {
	return b.CancelPrefix(IdentifierPrefix(medicationID))
}

func sortedIdentifiers(ids []string) []string {
	sort.Strings(ids)
	return ids
}
