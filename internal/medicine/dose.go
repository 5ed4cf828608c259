package medicine

import (
	"math"
	"time"
)

// StartOfDay normalizes an instant to local midnight of its calendar
// day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole calendar days from a to b, both normalized
// to midnight first. Rounding absorbs DST offsets inside the span.
func daysBetween(a, b time.Time) int {
	diff := StartOfDay(b).Sub(StartOfDay(a))
	return int(math.Round(diff.Hours() / 24))
}

// ResolveDose returns the dose due on the calendar day of ref.
//
// Cyclic dosing walks the sequence one step per day from the start
// date, offset by the stored position. Before the start date, and for
// any day without an override, the base dosage applies. The result
// depends only on the calendar day, never on the time of day.
func ResolveDose(m *Medication, ref time.Time) float64 {
	if m.Cyclic != nil && len(m.Cyclic.Sequence) > 0 {
		days := daysBetween(m.Cyclic.StartDate, ref)
		if days < 0 {
			return m.Dosage
		}
		n := len(m.Cyclic.Sequence)
		idx := (m.Cyclic.CurrentPosition + days) % n
		if idx < 0 {
			idx += n
		}
		return m.Cyclic.Sequence[idx]
	}

	if len(m.DailyDosages) > 0 {
		day := ref.Weekday()
		for _, dd := range m.DailyDosages {
			if dd.Day == day {
				return dd.Dosage
			}
		}
		return m.Dosage
	}

	return m.Dosage
}
