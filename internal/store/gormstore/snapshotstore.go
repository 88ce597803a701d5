package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// snapshotKey is the fixed, versionless key the ledger record lives under.
const snapshotKey = "wallet_ledger"

// SnapshotStore implements localledger.StateStore on a single database row.
type SnapshotStore struct {
	db *gorm.DB
}

// NewSnapshotStore returns a SnapshotStore backed by gorm.DB.
func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Load returns the ledger record, if one was ever saved.
func (store *SnapshotStore) Load(ctx context.Context) ([]byte, bool, error) {
	var row LedgerSnapshotRow
	err := store.db.WithContext(ctx).
		Where("snapshot_key = ?", snapshotKey).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapStoreError("snapshot", errorCodeLookup, err)
	}
	return []byte(row.Payload), true, nil
}

// Save overwrites the whole record in one upsert.
func (store *SnapshotStore) Save(ctx context.Context, payload []byte) error {
	row := LedgerSnapshotRow{
		SnapshotKey: snapshotKey,
		Payload:     datatypes.JSON(payload),
		UpdatedAt:   time.Now().UTC(),
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "snapshot_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return wrapStoreError("snapshot", errorCodeUpdate, err)
	}
	return nil
}

// Erase deletes the record.
func (store *SnapshotStore) Erase(ctx context.Context) error {
	err := store.db.WithContext(ctx).
		Where("snapshot_key = ?", snapshotKey).
		Delete(&LedgerSnapshotRow{}).Error
	if err != nil {
		return wrapStoreError("snapshot", "erase", err)
	}
	return nil
}
