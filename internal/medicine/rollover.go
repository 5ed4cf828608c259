package medicine

import "time"

// NextMidnight returns the first local midnight strictly after now.
func NextMidnight(now time.Time) time.Time {
	return StartOfDay(now).AddDate(0, 0, 1)
}

// ComputeRollover returns a copy of the medication list with every
// slot's taken flag and pending delay cleared. Cyclic positions are
// left alone; the resolver derives the day's step from the calendar.
func ComputeRollover(meds []Medication) []Medication {
	out := make([]Medication, len(meds))
	for i, m := range meds {
		out[i] = m
		out[i].Times = make([]ScheduledTime, len(m.Times))
		for j, st := range m.Times {
			out[i].Times[j] = ScheduledTime{Time: st.Time}
		}
		if m.Cyclic != nil {
			c := *m.Cyclic
			c.Sequence = append([]float64(nil), m.Cyclic.Sequence...)
			out[i].Cyclic = &c
		}
		if len(m.DailyDosages) > 0 {
			out[i].DailyDosages = append([]DayDosage(nil), m.DailyDosages...)
		}
	}
	return out
}
