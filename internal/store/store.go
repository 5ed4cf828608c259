// Package store persists the medication list and rollover marker in
// BadgerDB and the dose history in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"medtrack/internal/config"
	apperrors "medtrack/internal/errors"
	"medtrack/internal/medicine"
)

const (
	keyMedicines    = "medicines"
	keyLastRollover = "last_rollover"
)

// Store provides unified access to SQLite and BadgerDB
type Store struct {
	db     *gorm.DB
	badger *badger.DB
	config *config.StorageConfig
}

// New creates a new Store instance
func New(cfg *config.Config) (*Store, error) {
	sqlitePath := cfg.Storage.SQLitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(cfg.Storage.DataDir, "medtrack.db")
	}

	// Open SQLite with optimizations
	sqliteDB, err := sql.Open("sqlite", sqlitePath+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=5000&_cache_size=-64000")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable.Code, "failed to open sqlite")
	}

	sqliteDB.SetMaxOpenConns(10)
	sqliteDB.SetMaxIdleConns(5)
	sqliteDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable.Code, "failed to open sqlite")
	}

	if err := db.AutoMigrate(&medicine.HistoryRecord{}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable.Code, "failed to migrate")
	}

	badgerPath := cfg.Storage.BadgerPath
	if badgerPath == "" {
		badgerPath = filepath.Join(cfg.Storage.DataDir, "badger")
	}

	// Open BadgerDB with optimizations
	badgerOpts := badger.DefaultOptions(badgerPath).
		WithLogger(nil). // Disable verbose logging
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true).
		WithValueLogFileSize(16 << 20). // 16MB value log files
		WithMemTableSize(16 << 20)      // 16MB memtable

	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable.Code, "failed to open badger")
	}

	return &Store{
		db:     db,
		badger: badgerDB,
		config: &cfg.Storage,
	}, nil
}

// Close closes all database connections
func (s *Store) Close() error {
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
	return s.badger.Close()
}

// DB returns the GORM database instance
func (s *Store) DB() *gorm.DB {
	return s.db
}

// ==================== KV Methods (BadgerDB) ====================

// SetKV stores a key-value pair
func (s *Store) SetKV(key string, value []byte) error {
	err := s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("kv:"+key), value)
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrStoreUnavailable.Code, fmt.Sprintf("failed to write key %s", key))
	}
	return nil
}

// GetKV retrieves a value by key. The second return reports presence.
func (s *Store) GetKV(key string) ([]byte, bool, error) {
	var val []byte
	err := s.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("kv:" + key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = append([]byte{}, v...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.ErrStoreUnavailable.Code, fmt.Sprintf("failed to read key %s", key))
	}
	return val, true, nil
}

// ==================== Medication Methods ====================

// LoadMedications reads the authoritative medication list. A missing
// key means an empty list, not an error.
func (s *Store) LoadMedications() ([]medicine.Medication, error) {
	raw, found, err := s.GetKV(keyMedicines)
	if err != nil {
		return nil, err
	}
	if !found {
		return []medicine.Medication{}, nil
	}

	var meds []medicine.Medication
	if err := json.Unmarshal(raw, &meds); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreCorrupted.Code, "medication list is not valid JSON")
	}
	return meds, nil
}

// SaveMedications replaces the medication list atomically.
func (s *Store) SaveMedications(meds []medicine.Medication) error {
	raw, err := json.Marshal(meds)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal.Code, "failed to encode medication list")
	}
	return s.SetKV(keyMedicines, raw)
}

// ==================== Rollover Marker ====================

// LastRollover returns the local day start of the last applied
// rollover. The second return reports whether one was ever recorded.
func (s *Store) LastRollover() (time.Time, bool, error) {
	raw, found, err := s.GetKV(keyLastRollover)
	if err != nil {
		return time.Time{}, false, err
	}
	if !found {
		return time.Time{}, false, nil
	}

	t, err := time.ParseInLocation(time.RFC3339, string(raw), time.Local)
	if err != nil {
		return time.Time{}, false, apperrors.Wrap(err, apperrors.ErrStoreCorrupted.Code, "rollover marker is not a timestamp")
	}
	return t, true, nil
}

// SetLastRollover records the day start of the rollover just applied.
func (s *Store) SetLastRollover(dayStart time.Time) error {
	return s.SetKV(keyLastRollover, []byte(dayStart.Format(time.RFC3339)))
}
