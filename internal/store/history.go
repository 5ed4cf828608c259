package store

import (
	"time"

	apperrors "medtrack/internal/errors"
	"medtrack/internal/medicine"
)

// AdherenceStats summarizes the dose log over a day range.
type AdherenceStats struct {
	From       string     `json:"from"`
	To         string     `json:"to"`
	Total      int64      `json:"total"`
	Taken      int64      `json:"taken"`
	Rate       float64    `json:"rate"` // taken / total, 0 when empty
	PerDay     []DayCount `json:"per_day"`
	PerMedCnts []MedCount `json:"per_medicine"`
}

// DayCount is one day's taken/total tally.
type DayCount struct {
	Date  string `json:"date"`
	Total int64  `json:"total"`
	Taken int64  `json:"taken"`
}

// MedCount is one medicine's taken/total tally.
type MedCount struct {
	MedicineID   string `json:"medicine_id"`
	MedicineName string `json:"medicine_name"`
	Total        int64  `json:"total"`
	Taken        int64  `json:"taken"`
}

// AppendHistory inserts one record. Records are never updated or
// deleted.
func (s *Store) AppendHistory(rec *medicine.HistoryRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrStoreUnavailable.Code, "failed to append history record")
	}
	return nil
}

// HistoryForDay returns the records of one calendar day, newest
// first.
func (s *Store) HistoryForDay(day time.Time) ([]medicine.HistoryRecord, error) {
	var recs []medicine.HistoryRecord
	err := s.db.Where("date = ?", day.Format(medicine.DayFormat)).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable.Code, "failed to query history")
	}
	return recs, nil
}

// HistoryForMedicine returns one medicine's records across a day
// range, newest first.
func (s *Store) HistoryForMedicine(medicineID string, from, to time.Time) ([]medicine.HistoryRecord, error) {
	var recs []medicine.HistoryRecord
	err := s.db.Where("medicine_id = ? AND date >= ? AND date <= ?",
		medicineID, from.Format(medicine.DayFormat), to.Format(medicine.DayFormat)).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable.Code, "failed to query history")
	}
	return recs, nil
}

// Adherence computes taken/total tallies over an inclusive day range.
func (s *Store) Adherence(from, to time.Time) (*AdherenceStats, error) {
	fromDay := from.Format(medicine.DayFormat)
	toDay := to.Format(medicine.DayFormat)

	stats := &AdherenceStats{From: fromDay, To: toDay}

	if err := s.db.Model(&medicine.HistoryRecord{}).
		Where("date >= ? AND date <= ?", fromDay, toDay).
		Count(&stats.Total).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable.Code, "failed to count history")
	}
	if err := s.db.Model(&medicine.HistoryRecord{}).
		Where("date >= ? AND date <= ? AND taken = ?", fromDay, toDay, true).
		Count(&stats.Taken).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable.Code, "failed to count history")
	}
	if stats.Total > 0 {
		stats.Rate = float64(stats.Taken) / float64(stats.Total)
	}

	rowsErr := s.db.Model(&medicine.HistoryRecord{}).
		Select("date, count(*) as total, sum(case when taken then 1 else 0 end) as taken").
		Where("date >= ? AND date <= ?", fromDay, toDay).
		Group("date").
		Order("date ASC").
		Scan(&stats.PerDay).Error
	if rowsErr != nil {
		return nil, apperrors.Wrap(rowsErr, apperrors.ErrStoreUnavailable.Code, "failed to aggregate history")
	}

	medsErr := s.db.Model(&medicine.HistoryRecord{}).
		Select("medicine_id, medicine_name, count(*) as total, sum(case when taken then 1 else 0 end) as taken").
		Where("date >= ? AND date <= ?", fromDay, toDay).
		Group("medicine_id, medicine_name").
		Order("medicine_name ASC").
		Scan(&stats.PerMedCnts).Error
	if medsErr != nil {
		return nil, apperrors.Wrap(medsErr, apperrors.ErrStoreUnavailable.Code, "failed to aggregate history")
	}

	return stats, nil
}
