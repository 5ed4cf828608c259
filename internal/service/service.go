// Package service implements the medication operations. Every user
// action is a full read-modify-write cycle against the store; a
// failed write leaves nothing half-applied.
package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"medtrack/internal/clock"
	apperrors "medtrack/internal/errors"
	"medtrack/internal/medicine"
	"medtrack/internal/metrics"
	"medtrack/internal/notify"
	"medtrack/internal/store"
)

// Service wires the store, the notification backend and the clock
// into the medication operations.
type Service struct {
	store        *store.Store
	backend      notify.Backend
	clock        clock.Clock
	logger       *zap.Logger
	defaultDelay time.Duration
}

// New creates the service. defaultDelayMinutes is used when a delay
// request does not specify an offset.
func New(st *store.Store, backend notify.Backend, clk clock.Clock, logger *zap.Logger, defaultDelayMinutes int) *Service {
	if defaultDelayMinutes <= 0 {
		defaultDelayMinutes = 60
	}
	return &Service{
		store:        st,
		backend:      backend,
		clock:        clk,
		logger:       logger,
		defaultDelay: time.Duration(defaultDelayMinutes) * time.Minute,
	}
}

// List returns all medications.
func (s *Service) List() ([]medicine.Medication, error) {
	return s.store.LoadMedications()
}

// Get returns one medication by ID.
func (s *Service) Get(id string) (*medicine.Medication, error) {
	meds, err := s.store.LoadMedications()
	if err != nil {
		return nil, err
	}
	for i := range meds {
		if meds[i].ID == id {
			return &meds[i], nil
		}
	}
	return nil, apperrors.Wrap(nil, apperrors.ErrMedicineNotFound.Code, fmt.Sprintf("medicine %s", id))
}

// Create validates and stores a new medication, then re-arms the
// reminder set.
func (s *Service) Create(med medicine.Medication) (*medicine.Medication, error) {
	if med.ID == "" {
		med.ID = medicine.NewID()
	}
	now := s.clock.Now()
	med.CreatedAt = now
	med.UpdatedAt = now

	if err := med.Validate(); err != nil {
		return nil, err
	}

	meds, err := s.store.LoadMedications()
	if err != nil {
		return nil, err
	}
	meds = append(meds, med)

	if err := s.store.SaveMedications(meds); err != nil {
		return nil, err
	}

	s.resync(meds)
	s.logger.Info("Medication created",
		zap.String("id", med.ID),
		zap.String("name", med.Name),
	)
	return &med, nil
}

// Update replaces a medication in place, keeping its creation time,
// and re-arms the reminder set.
func (s *Service) Update(med medicine.Medication) (*medicine.Medication, error) {
	if err := med.Validate(); err != nil {
		return nil, err
	}

	meds, err := s.store.LoadMedications()
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range meds {
		if meds[i].ID == med.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.Wrap(nil, apperrors.ErrMedicineNotFound.Code, fmt.Sprintf("medicine %s", med.ID))
	}

	med.CreatedAt = meds[idx].CreatedAt
	med.UpdatedAt = s.clock.Now()
	meds[idx] = med

	if err := s.store.SaveMedications(meds); err != nil {
		return nil, err
	}

	s.resync(meds)
	s.logger.Info("Medication updated", zap.String("id", med.ID))
	return &med, nil
}

// Delete removes a medication and disarms its reminders.
func (s *Service) Delete(id string) error {
	meds, err := s.store.LoadMedications()
	if err != nil {
		return err
	}

	kept := meds[:0]
	found := false
	for _, m := range meds {
		if m.ID == id {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return apperrors.Wrap(nil, apperrors.ErrMedicineNotFound.Code, fmt.Sprintf("medicine %s", id))
	}

	if err := s.store.SaveMedications(kept); err != nil {
		return err
	}

	if err := notify.CancelMedication(s.backend, id); err != nil {
		s.logger.Warn("Failed to cancel reminders", zap.String("id", id), zap.Error(err))
	}
	s.logger.Info("Medication deleted", zap.String("id", id))
	return nil
}

// ToggleTaken flips one slot's taken flag and appends a history
// record. Un-marking is recorded too.
func (s *Service) ToggleTaken(id string, timeIndex int) (*medicine.Medication, error) {
	now := s.clock.Now()

	meds, err := s.store.LoadMedications()
	if err != nil {
		return nil, err
	}

	med, err := findMedication(meds, id)
	if err != nil {
		return nil, err
	}
	if timeIndex < 0 || timeIndex >= len(med.Times) {
		return nil, apperrors.Wrap(nil, apperrors.ErrInvalidSchedule.Code,
			fmt.Sprintf("time index %d out of range", timeIndex))
	}

	newTaken := !med.Times[timeIndex].Taken
	rec := medicine.NewHistoryRecord(med, timeIndex, newTaken, now, now)
	med.Times[timeIndex].Taken = newTaken
	med.UpdatedAt = now

	if err := s.store.SaveMedications(meds); err != nil {
		return nil, err
	}
	if err := s.store.AppendHistory(&rec); err != nil {
		s.logger.Error("Failed to append history", zap.String("id", id), zap.Error(err))
	}

	if newTaken {
		metrics.RecordDoseTaken()
	} else {
		metrics.RecordDoseUnmarked()
	}
	s.logger.Info("Dose toggled",
		zap.String("id", id),
		zap.Int("time_index", timeIndex),
		zap.Bool("taken", newTaken),
	)
	return med, nil
}

// Delay pushes one slot's due instant forward and appends a history
// record carrying the delayed-to instant.
func (s *Service) Delay(id string, timeIndex, minutes int) (*medicine.Medication, error) {
	now := s.clock.Now()

	offset := s.defaultDelay
	if minutes > 0 {
		offset = time.Duration(minutes) * time.Minute
	}

	meds, err := s.store.LoadMedications()
	if err != nil {
		return nil, err
	}

	med, err := findMedication(meds, id)
	if err != nil {
		return nil, err
	}
	if timeIndex < 0 || timeIndex >= len(med.Times) {
		return nil, apperrors.Wrap(nil, apperrors.ErrInvalidSchedule.Code,
			fmt.Sprintf("time index %d out of range", timeIndex))
	}

	delayed := now.Add(offset)
	med.Times[timeIndex].DelayedUntil = &delayed
	med.UpdatedAt = now
	rec := medicine.NewHistoryRecord(med, timeIndex, false, now, delayed)

	if err := s.store.SaveMedications(meds); err != nil {
		return nil, err
	}
	if err := s.store.AppendHistory(&rec); err != nil {
		s.logger.Error("Failed to append history", zap.String("id", id), zap.Error(err))
	}

	metrics.RecordDoseDelayed()
	s.logger.Info("Dose delayed",
		zap.String("id", id),
		zap.Int("time_index", timeIndex),
		zap.Time("until", delayed),
	)
	return med, nil
}

// Triggers returns the planned reminder set for one medication.
func (s *Service) Triggers(id string) ([]notify.Trigger, error) {
	med, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return notify.PlanTriggers(med), nil
}

// ResyncNotifications re-arms the backend from the stored list.
func (s *Service) ResyncNotifications() error {
	meds, err := s.store.LoadMedications()
	if err != nil {
		return err
	}
	s.resync(meds)
	return nil
}

// History returns the records of one calendar day, newest first.
// A zero day means today on the service clock.
func (s *Service) History(day time.Time) ([]medicine.HistoryRecord, error) {
	if day.IsZero() {
		day = s.clock.Now()
	}
	return s.store.HistoryForDay(day)
}

// MedicineHistory returns one medication's records over the trailing
// number of days, today included.
func (s *Service) MedicineHistory(id string, days int) ([]medicine.HistoryRecord, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}
	now := s.clock.Now()
	from := medicine.StartOfDay(now).AddDate(0, 0, -(days - 1))
	return s.store.HistoryForMedicine(id, from, now)
}

// Adherence summarizes the dose log over the trailing number of days,
// today included.
func (s *Service) Adherence(days int) (*store.AdherenceStats, error) {
	if days <= 0 {
		days = 30
	}
	now := s.clock.Now()
	from := medicine.StartOfDay(now).AddDate(0, 0, -(days - 1))
	return s.store.Adherence(from, now)
}

func (s *Service) resync(meds []medicine.Medication) {
	count, err := notify.Sync(s.backend, meds)
	if err != nil {
		metrics.RecordNotifyError()
		s.logger.Error("Failed to resync reminders", zap.Error(err))
		return
	}
	metrics.SetTriggersArmed(int64(count))
}

func findMedication(meds []medicine.Medication, id string) (*medicine.Medication, error) {
	for i := range meds {
		if meds[i].ID == id {
			return &meds[i], nil
		}
	}
	return nil, apperrors.Wrap(nil, apperrors.ErrMedicineNotFound.Code, fmt.Sprintf("medicine %s", id))
}
