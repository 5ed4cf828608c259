package medicine

import "time"

// Status is the state of one intake slot at a point in time.
type Status string

const (
	StatusTaken   Status = "taken"
	StatusPending Status = "pending"
	StatusPastDue Status = "past_due"
)

// DueInstant returns the moment the slot becomes due on the calendar
// day of now. A pending delay overrides the scheduled clock time.
func DueInstant(st ScheduledTime, now time.Time) time.Time {
	if st.DelayedUntil != nil {
		return *st.DelayedUntil
	}
	hour, minute, err := ParseClock(st.Time)
	if err != nil {
		// Validation keeps malformed clocks out of the store; treat
		// one as due at midnight rather than guessing.
		return StartOfDay(now)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
}

// StatusOf classifies a slot. Taken wins regardless of the clock;
// otherwise the slot is past due once now is strictly after the due
// instant.
func StatusOf(st ScheduledTime, now time.Time) Status {
	if st.Taken {
		return StatusTaken
	}
	if now.After(DueInstant(st, now)) {
		return StatusPastDue
	}
	return StatusPending
}
