package medicine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute, second int) time.Time {
	return time.Date(2024, time.April, 10, hour, minute, second, 0, time.Local)
}

func TestStatusOf_TakenWins(t *testing.T) {
	st := ScheduledTime{Time: "08:00", Taken: true}

	assert.Equal(t, StatusTaken, StatusOf(st, at(7, 0, 0)))
	assert.Equal(t, StatusTaken, StatusOf(st, at(23, 0, 0)), "taken stays taken even long past the slot")
}

func TestStatusOf_PendingUntilStrictlyAfter(t *testing.T) {
	st := ScheduledTime{Time: "08:00"}

	assert.Equal(t, StatusPending, StatusOf(st, at(7, 59, 59)))
	assert.Equal(t, StatusPending, StatusOf(st, at(8, 0, 0)), "exactly on the due instant is still pending")
	assert.Equal(t, StatusPastDue, StatusOf(st, at(8, 0, 1)))
}

func TestStatusOf_DelayOverridesClock(t *testing.T) {
	delayed := at(9, 0, 0)
	st := ScheduledTime{Time: "08:00", DelayedUntil: &delayed}

	assert.Equal(t, StatusPending, StatusOf(st, at(8, 30, 0)), "a delay pushes the due instant forward")
	assert.Equal(t, StatusPending, StatusOf(st, at(9, 0, 0)))
	assert.Equal(t, StatusPastDue, StatusOf(st, at(9, 0, 1)))
}

func TestDueInstant(t *testing.T) {
	now := at(12, 0, 0)

	st := ScheduledTime{Time: "08:30"}
	assert.Equal(t, at(8, 30, 0), DueInstant(st, now))

	delayed := at(14, 15, 0)
	st.DelayedUntil = &delayed
	assert.Equal(t, delayed, DueInstant(st, now))
}

func TestScheduledTime_Delayed(t *testing.T) {
	st := ScheduledTime{Time: "08:00"}
	assert.False(t, st.Delayed())

	d := at(9, 0, 0)
	st.DelayedUntil = &d
	assert.True(t, st.Delayed())
}
