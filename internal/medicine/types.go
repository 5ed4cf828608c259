// Package medicine holds the core medication model and the pure
// schedule engine: dose resolution, per-time status, daily rollover
// and history record construction. Nothing in this package does I/O.
package medicine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "medtrack/internal/errors"
)

// Frequency controls which days a medication is due.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyCustom Frequency = "custom"
)

// ScheduledTime is one intake slot within a day. Taken and
// DelayedUntil are transient and cleared by the midnight rollover.
type ScheduledTime struct {
	Time         string     `json:"time"` // "HH:MM", 24-hour
	Taken        bool       `json:"taken"`
	DelayedUntil *time.Time `json:"delayed_until,omitempty"`
}

// Delayed reports whether this slot has a pending delay.
func (st ScheduledTime) Delayed() bool {
	return st.DelayedUntil != nil
}

// DayDosage overrides the base dose on one weekday (0=Sunday).
type DayDosage struct {
	Day    time.Weekday `json:"day"`
	Dosage float64      `json:"dosage"`
}

// CyclicDosage rotates through Sequence one step per calendar day
// starting at StartDate. CurrentPosition offsets the rotation.
type CyclicDosage struct {
	Sequence        []float64 `json:"sequence"`
	StartDate       time.Time `json:"start_date"`
	CurrentPosition int       `json:"current_position"`
}

// Medication is the authoritative record for one tracked medicine.
type Medication struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Color        string          `json:"color,omitempty"`
	Frequency    Frequency       `json:"frequency"`
	DaysOfWeek   [7]bool         `json:"days_of_week"` // index 0 = Sunday
	Times        []ScheduledTime `json:"times"`
	Dosage       float64         `json:"dosage"` // base dose, also the fallback
	DailyDosages []DayDosage     `json:"daily_dosages,omitempty"`
	Cyclic       *CyclicDosage   `json:"cyclic_dosage,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewID returns a fresh medication identifier.
func NewID() string {
	return uuid.NewString()
}

// Validate rejects malformed medications before they reach the store
// or the dose resolver.
func (m *Medication) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return apperrors.Wrap(nil, apperrors.ErrInvalidMedicine.Code, "name is required")
	}
	if len(m.Times) == 0 {
		return apperrors.Wrap(nil, apperrors.ErrInvalidMedicine.Code, "at least one scheduled time is required")
	}
	for i, st := range m.Times {
		if _, _, err := ParseClock(st.Time); err != nil {
			return apperrors.Wrap(err, apperrors.ErrInvalidMedicine.Code,
				fmt.Sprintf("time %d is not a valid HH:MM clock", i))
		}
	}
	switch m.Frequency {
	case FrequencyDaily:
	case FrequencyCustom:
		any := false
		for _, d := range m.DaysOfWeek {
			if d {
				any = true
				break
			}
		}
		if !any {
			return apperrors.Wrap(nil, apperrors.ErrInvalidMedicine.Code, "custom frequency requires at least one weekday")
		}
	default:
		return apperrors.Wrap(nil, apperrors.ErrInvalidMedicine.Code,
			fmt.Sprintf("unknown frequency %q", m.Frequency))
	}
	if m.Dosage <= 0 {
		return apperrors.Wrap(nil, apperrors.ErrInvalidMedicine.Code, "dosage must be greater than zero")
	}
	if len(m.DailyDosages) > 0 && m.Cyclic != nil {
		return apperrors.Wrap(nil, apperrors.ErrInvalidMedicine.Code, "daily and cyclic dosing are mutually exclusive")
	}
	for _, dd := range m.DailyDosages {
		if dd.Day < time.Sunday || dd.Day > time.Saturday {
			return apperrors.Wrap(nil, apperrors.ErrInvalidMedicine.Code, "daily dosage weekday out of range")
		}
		if dd.Dosage <= 0 {
			return apperrors.Wrap(nil, apperrors.ErrInvalidMedicine.Code, "daily dosage must be greater than zero")
		}
	}
	if m.Cyclic != nil {
		if len(m.Cyclic.Sequence) == 0 {
			return apperrors.Wrap(nil, apperrors.ErrInvalidMedicine.Code, "cyclic sequence must not be empty")
		}
		for _, d := range m.Cyclic.Sequence {
			if d <= 0 {
				return apperrors.Wrap(nil, apperrors.ErrInvalidMedicine.Code, "cyclic doses must be greater than zero")
			}
		}
		if m.Cyclic.StartDate.IsZero() {
			return apperrors.Wrap(nil, apperrors.ErrInvalidMedicine.Code, "cyclic dosing requires a start date")
		}
	}
	return nil
}

// DueOn reports whether the medication is scheduled on the given
// weekday at all.
func (m *Medication) DueOn(day time.Weekday) bool {
	if m.Frequency == FrequencyDaily {
		return true
	}
	return m.DaysOfWeek[int(day)]
}

// ParseClock splits an "HH:MM" string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("clock %q: want HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("clock %q: bad hour", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("clock %q: bad minute", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock %q: out of range", s)
	}
	return hour, minute, nil
}

// FormatDose renders a dose amount for display: whole numbers bare,
// anything else with one decimal.
func FormatDose(d float64) string {
	if d == math.Trunc(d) {
		return strconv.FormatFloat(d, 'f', 0, 64)
	}
	return strconv.FormatFloat(d, 'f', 1, 64)
}
