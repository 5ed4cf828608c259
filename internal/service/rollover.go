package service

import (
	"time"

	"go.uber.org/zap"

	"medtrack/internal/medicine"
	"medtrack/internal/metrics"
)

// ApplyRollover clears every slot's transient state, records the
// rollover marker and re-arms the reminder set. Idempotent within a
// day.
func (s *Service) ApplyRollover(now time.Time) error {
	meds, err := s.store.LoadMedications()
	if err != nil {
		metrics.RecordRolloverFailure()
		return err
	}

	cleared := medicine.ComputeRollover(meds)
	if err := s.store.SaveMedications(cleared); err != nil {
		metrics.RecordRolloverFailure()
		return err
	}

	dayStart := medicine.StartOfDay(now)
	if err := s.store.SetLastRollover(dayStart); err != nil {
		metrics.RecordRolloverFailure()
		return err
	}

	s.resync(cleared)
	metrics.RecordRollover()
	s.logger.Info("Daily rollover applied",
		zap.Time("day", dayStart),
		zap.Int("medications", len(cleared)),
	)
	return nil
}

// CatchUpRollover applies a rollover missed while the process was
// down. On first run it only records the marker; there is no stale
// state to clear yet.
func (s *Service) CatchUpRollover(now time.Time) error {
	last, found, err := s.store.LastRollover()
	if err != nil {
		return err
	}

	today := medicine.StartOfDay(now)
	if !found {
		return s.store.SetLastRollover(today)
	}
	if medicine.StartOfDay(last).Before(today) {
		s.logger.Info("Missed rollover detected",
			zap.Time("last", last),
			zap.Time("today", today),
		)
		return s.ApplyRollover(now)
	}
	return nil
}
