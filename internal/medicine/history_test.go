package medicine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewHistoryRecord_Taken(t *testing.T) {
	med := validMedication()
	med.Color = "#4CAF50"
	now := time.Date(2024, time.April, 10, 8, 5, 0, 0, time.Local)

	rec := NewHistoryRecord(med, 0, true, now, now)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "2024-04-10", rec.Date)
	assert.Equal(t, med.ID, rec.MedicineID)
	assert.Equal(t, "Lisinopril", rec.MedicineName)
	assert.Equal(t, "#4CAF50", rec.MedicineColor)
	assert.Equal(t, 0, rec.TimeIndex)
	assert.Equal(t, "08:00", rec.ScheduledTime)
	assert.True(t, rec.Taken)
	assert.Equal(t, now, rec.ActualAt, "a toggle's actual instant is the action time")
}

func TestNewHistoryRecord_PendingDelayDoesNotShiftToggle(t *testing.T) {
	med := validMedication()
	delayed := time.Date(2024, time.April, 10, 8, 30, 0, 0, time.Local)
	med.Times[0].DelayedUntil = &delayed
	now := time.Date(2024, time.April, 10, 9, 0, 0, 0, time.Local)

	rec := NewHistoryRecord(med, 0, true, now, now)

	assert.Equal(t, now, rec.ActualAt, "taking a delayed dose is recorded at the toggle moment")
}

func TestNewHistoryRecord_DelayRecordsTarget(t *testing.T) {
	med := validMedication()
	now := time.Date(2024, time.April, 10, 8, 0, 0, 0, time.Local)
	delayed := now.Add(time.Hour)

	rec := NewHistoryRecord(med, 0, false, now, delayed)

	assert.False(t, rec.Taken)
	assert.Equal(t, delayed, rec.ActualAt)
	assert.Equal(t, "2024-04-10", rec.Date, "the record stays on the action's calendar day")
}

func TestNewHistoryRecord_UnmarkingAlsoRecorded(t *testing.T) {
	med := validMedication()
	now := time.Date(2024, time.April, 10, 8, 30, 0, 0, time.Local)

	rec := NewHistoryRecord(med, 0, false, now, now)

	assert.False(t, rec.Taken)
	assert.Equal(t, now, rec.ActualAt)
}

func TestNewHistoryRecord_UniqueIDs(t *testing.T) {
	med := validMedication()
	now := time.Now()

	a := NewHistoryRecord(med, 0, true, now, now)
	b := NewHistoryRecord(med, 0, true, now, now)

	assert.NotEqual(t, a.ID, b.ID)
}
