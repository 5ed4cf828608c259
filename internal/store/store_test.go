package store

import (
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medtrack/internal/config"
	apperrors "medtrack/internal/errors"
	"medtrack/internal/medicine"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{
			DataDir:    dir,
			SQLitePath: filepath.Join(dir, "test.db"),
			BadgerPath: filepath.Join(dir, "badger"),
		},
	}

	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestClose_ReleasesBothDatabases(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{
			DataDir:    dir,
			SQLitePath: filepath.Join(dir, "test.db"),
			BadgerPath: filepath.Join(dir, "badger"),
		},
	}

	s, err := New(cfg)
	require.NoError(t, err)

	at := time.Date(2024, time.April, 10, 8, 0, 0, 0, time.Local)
	appendRecord(t, s, "med1", "Lisinopril", "2024-04-10", true, at)
	require.NoError(t, s.SetKV("k", []byte("v")))
	require.NoError(t, s.Close())

	// A clean close releases the Badger lock and the SQLite pool,
	// so reopening on the same paths works.
	s, err = New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	recs, err := s.HistoryForDay(at)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	val, found, err := s.GetKV("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

func TestKV_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, found, err := s.GetKV("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SetKV("k", []byte("v")))

	val, found, err := s.GetKV("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

func TestMedications_EmptyByDefault(t *testing.T) {
	s := newTestStore(t)

	meds, err := s.LoadMedications()
	require.NoError(t, err)
	assert.Empty(t, meds)
}

func TestMedications_SaveLoad(t *testing.T) {
	s := newTestStore(t)

	delayed := time.Date(2024, time.April, 10, 9, 0, 0, 0, time.Local)
	meds := []medicine.Medication{
		{
			ID:        "med1",
			Name:      "Lisinopril",
			Frequency: medicine.FrequencyDaily,
			Times: []medicine.ScheduledTime{
				{Time: "08:00", Taken: true},
				{Time: "20:00", DelayedUntil: &delayed},
			},
			Dosage: 10,
		},
	}

	require.NoError(t, s.SaveMedications(meds))

	loaded, err := s.LoadMedications()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Lisinopril", loaded[0].Name)
	assert.True(t, loaded[0].Times[0].Taken)
	require.NotNil(t, loaded[0].Times[1].DelayedUntil)
	assert.True(t, delayed.Equal(*loaded[0].Times[1].DelayedUntil))
}

func TestMedications_CorruptBlob(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetKV("medicines", []byte("{not json")))

	_, err := s.LoadMedications()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, apperrors.ErrStoreCorrupted))
}

func TestLastRollover(t *testing.T) {
	s := newTestStore(t)

	_, found, err := s.LastRollover()
	require.NoError(t, err)
	assert.False(t, found)

	day := time.Date(2024, time.April, 10, 0, 0, 0, 0, time.Local)
	require.NoError(t, s.SetLastRollover(day))

	got, found, err := s.LastRollover()
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, day.Equal(got))
}

func appendRecord(t *testing.T, s *Store, medID, name, day string, taken bool, at time.Time) {
	t.Helper()
	rec := &medicine.HistoryRecord{
		ID:            medicine.NewID(),
		Date:          day,
		MedicineID:    medID,
		MedicineName:  name,
		TimeIndex:     0,
		ScheduledTime: "08:00",
		Taken:         taken,
		ActualAt:      at,
		CreatedAt:     at,
	}
	require.NoError(t, s.AppendHistory(rec))
}

func TestHistoryForDay_NewestFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2024, time.April, 10, 8, 0, 0, 0, time.Local)
	appendRecord(t, s, "med1", "Lisinopril", "2024-04-10", true, base)
	appendRecord(t, s, "med1", "Lisinopril", "2024-04-10", false, base.Add(time.Hour))
	appendRecord(t, s, "med1", "Lisinopril", "2024-04-11", true, base.AddDate(0, 0, 1))

	recs, err := s.HistoryForDay(time.Date(2024, time.April, 10, 15, 0, 0, 0, time.Local))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.False(t, recs[0].Taken, "newest record first")
	assert.True(t, recs[1].Taken)
}

func TestHistoryForMedicine(t *testing.T) {
	s := newTestStore(t)

	at := time.Date(2024, time.April, 10, 8, 0, 0, 0, time.Local)
	appendRecord(t, s, "med1", "Lisinopril", "2024-04-10", true, at)
	appendRecord(t, s, "med2", "Metformin", "2024-04-10", true, at)

	recs, err := s.HistoryForMedicine("med1",
		time.Date(2024, time.April, 1, 0, 0, 0, 0, time.Local),
		time.Date(2024, time.April, 30, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "med1", recs[0].MedicineID)
}

func TestAdherence(t *testing.T) {
	s := newTestStore(t)

	at := time.Date(2024, time.April, 10, 8, 0, 0, 0, time.Local)
	appendRecord(t, s, "med1", "Lisinopril", "2024-04-10", true, at)
	appendRecord(t, s, "med1", "Lisinopril", "2024-04-10", false, at.Add(time.Hour))
	appendRecord(t, s, "med2", "Metformin", "2024-04-11", true, at.AddDate(0, 0, 1))

	stats, err := s.Adherence(
		time.Date(2024, time.April, 10, 0, 0, 0, 0, time.Local),
		time.Date(2024, time.April, 11, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Taken)
	assert.InDelta(t, 2.0/3.0, stats.Rate, 0.001)

	require.Len(t, stats.PerDay, 2)
	assert.Equal(t, "2024-04-10", stats.PerDay[0].Date)
	assert.Equal(t, int64(2), stats.PerDay[0].Total)
	assert.Equal(t, int64(1), stats.PerDay[0].Taken)

	require.Len(t, stats.PerMedCnts, 2)
}

func TestAdherence_EmptyRange(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.Adherence(
		time.Date(2024, time.April, 1, 0, 0, 0, 0, time.Local),
		time.Date(2024, time.April, 2, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.Total)
	assert.Equal(t, 0.0, stats.Rate)
}
