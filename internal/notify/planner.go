// Package notify turns medications into recurring reminder triggers
// and delivers them through pluggable backends.
package notify

import (
	"fmt"
	"time"

	"medtrack/internal/medicine"
)

// ReminderTitle is the fixed title on every reminder.
const ReminderTitle = "Medicine Reminder"

// Trigger describes one recurring reminder. A nil Weekday fires every
// day; otherwise only on that weekday.
type Trigger struct {
	Identifier string        `json:"identifier"`
	Title      string        `json:"title"`
	Body       string        `json:"body"`
	Hour       int           `json:"hour"`
	Minute     int           `json:"minute"`
	Weekday    *time.Weekday `json:"weekday,omitempty"`
}

// PlanTriggers computes the full trigger set for one medication.
//
// Daily medications get one trigger per time slot, identified as
// "<medID>-<i>". Custom-day medications fan out to one trigger per
// slot and flagged weekday, identified as "<medID>-<i>-<day>".
// Planning depends only on the schedule; taken flags and pending
// delays never change the result.
func PlanTriggers(m *medicine.Medication) []Trigger {
	triggers := make([]Trigger, 0, len(m.Times))
	for i, st := range m.Times {
		hour, minute, err := medicine.ParseClock(st.Time)
		if err != nil {
			continue
		}
		body := fmt.Sprintf("Time to take your %s", m.Name)

		if m.Frequency == medicine.FrequencyCustom {
			for day := 0; day < 7; day++ {
				if !m.DaysOfWeek[day] {
					continue
				}
				wd := time.Weekday(day)
				triggers = append(triggers, Trigger{
					Identifier: fmt.Sprintf("%s-%d-%d", m.ID, i, day),
					Title:      ReminderTitle,
					Body:       body,
					Hour:       hour,
					Minute:     minute,
					Weekday:    &wd,
				})
			}
			continue
		}

		triggers = append(triggers, Trigger{
			Identifier: fmt.Sprintf("%s-%d", m.ID, i),
			Title:      ReminderTitle,
			Body:       body,
			Hour:       hour,
			Minute:     minute,
		})
	}
	return triggers
}

// IdentifierPrefix is the prefix shared by all of a medication's
// trigger identifiers, used for targeted cancellation.
func IdentifierPrefix(medicationID string) string {
	return medicationID + "-"
}
