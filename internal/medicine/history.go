package medicine

import "time"

// DayFormat is the calendar-day key used on history records.
const DayFormat = "2006-01-02"

// HistoryRecord is one immutable entry in the dose log. Records are
// only ever appended; un-marking a dose writes a new record with
// Taken=false rather than touching the old one.
type HistoryRecord struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	Date          string    `json:"date" gorm:"index"` // YYYY-MM-DD local day
	MedicineID    string    `json:"medicine_id" gorm:"index"`
	MedicineName  string    `json:"medicine_name"`
	MedicineColor string    `json:"medicine_color,omitempty"`
	TimeIndex     int       `json:"time_index"`
	ScheduledTime string    `json:"scheduled_time"` // "HH:MM"
	Taken         bool      `json:"taken"`
	ActualAt      time.Time `json:"actual_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewHistoryRecord builds the record for one action on one slot.
// actual is the instant the action counts as: the moment of a toggle,
// or the delayed-to instant of a delay. A pending delay on the slot
// never shifts a toggle's timestamp.
func NewHistoryRecord(m *Medication, timeIndex int, taken bool, now, actual time.Time) HistoryRecord {
	st := m.Times[timeIndex]
	return HistoryRecord{
		ID:            NewID(),
		Date:          now.Format(DayFormat),
		MedicineID:    m.ID,
		MedicineName:  m.Name,
		MedicineColor: m.Color,
		TimeIndex:     timeIndex,
		ScheduledTime: st.Time,
		Taken:         taken,
		ActualAt:      actual,
		CreatedAt:     now,
	}
}
