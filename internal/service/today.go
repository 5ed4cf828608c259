package service

import (
	"time"

	"medtrack/internal/medicine"
)

// SlotView is one intake slot with its computed status.
type SlotView struct {
	Index   int             `json:"index"`
	Time    string          `json:"time"`
	Status  medicine.Status `json:"status"`
	Delayed bool            `json:"delayed"`
	DueAt   time.Time       `json:"due_at"`
}

// TodayItem is one medication due today with its resolved dose.
type TodayItem struct {
	Medication  medicine.Medication `json:"medication"`
	Dose        float64             `json:"dose"`
	DoseDisplay string              `json:"dose_display"`
	Slots       []SlotView          `json:"slots"`
}

// Today returns the medications scheduled for the current day, each
// with its resolved dose and per-slot status.
func (s *Service) Today() ([]TodayItem, error) {
	now := s.clock.Now()

	meds, err := s.store.LoadMedications()
	if err != nil {
		return nil, err
	}

	items := make([]TodayItem, 0, len(meds))
	for _, m := range meds {
		if !m.DueOn(now.Weekday()) {
			continue
		}

		dose := medicine.ResolveDose(&m, now)
		slots := make([]SlotView, len(m.Times))
		for i, st := range m.Times {
			slots[i] = SlotView{
				Index:   i,
				Time:    st.Time,
				Status:  medicine.StatusOf(st, now),
				Delayed: st.Delayed(),
				DueAt:   medicine.DueInstant(st, now),
			}
		}

		items = append(items, TodayItem{
			Medication:  m,
			Dose:        dose,
			DoseDisplay: medicine.FormatDose(dose),
			Slots:       slots,
		})
	}
	return items, nil
}
