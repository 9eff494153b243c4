// Package store persists pool snapshots to a pure-Go sqlite database, the
// same gorm.io/gorm + glebarez/sqlite combination the teacher uses for
// CorePool persistence, and the same whole-struct-as-a-JSON-column pattern
// the teacher's TokenPositionManager uses (GormDataType/Scan/Value).
package store

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hydraswap/hmm-pool"
	"gorm.io/gorm"
)

// stateBlob wraps a pool's exported state so it can be stored as a single
// JSON column, mirroring the teacher's TokenPositionManager.GormDataType/
// Scan/Value trio.
type stateBlob struct {
	hmmpool.StateJSON
}

func (b stateBlob) GormDataType() string {
	return "LONGTEXT"
}

func (b stateBlob) Value() (driver.Value, error) {
	bs, err := json.Marshal(b.StateJSON)
	if err != nil {
		return nil, err
	}
	return string(bs), nil
}

func (b *stateBlob) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, &b.StateJSON)
	case string:
		return json.Unmarshal([]byte(v), &b.StateJSON)
	case nil:
		return nil
	default:
		return errors.New(fmt.Sprint("failed to unmarshal pool state blob:", value))
	}
}

// PoolRecord is the row persisted for one named pool, one row per pool
// name, upserted on every Flush the way the teacher's CorePool.Flush
// upserts a single row keyed on HasCreated.
type PoolRecord struct {
	ID         uint `gorm:"primarykey"`
	Name       string `gorm:"uniqueIndex"`
	UpdatedAt  time.Time
	HasCreated bool      `gorm:"-"`
	State      stateBlob `gorm:"column:state"`
}

// TableName pins the table name instead of gorm's pluralization guess.
func (PoolRecord) TableName() string { return "pool_snapshots" }

// Store wraps a gorm DB handle opened against a pure-Go sqlite file.
type Store struct {
	db *gorm.DB
}

// Open wraps an already-opened gorm handle as a snapshot store,
// auto-migrating the pool_snapshots table.
func Open(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&PoolRecord{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Flush upserts the named pool's current state, the teacher's
// create-or-update-by-flag idiom from CorePool.Flush.
func (s *Store) Flush(name string, p *hmmpool.Pool) error {
	var existing PoolRecord
	err := s.db.Where("name = ?", name).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec := PoolRecord{Name: name, State: stateBlob{StateJSON: p.ExportState()}}
		return s.db.Create(&rec).Error
	case err != nil:
		return err
	default:
		return s.db.Model(&existing).Updates(map[string]interface{}{
			"state": stateBlob{StateJSON: p.ExportState()},
		}).Error
	}
}

// Load reconstructs the named pool from its last-flushed snapshot.
func (s *Store) Load(name string) (*hmmpool.Pool, error) {
	var rec PoolRecord
	if err := s.db.Where("name = ?", name).First(&rec).Error; err != nil {
		return nil, err
	}
	return hmmpool.ImportState(rec.State.StateJSON), nil
}
