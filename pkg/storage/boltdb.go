// Package storage persists snapshot bookkeeping across restarts. It does
// not store box runtime state: boxes are in-memory-only and do not
// survive a sandboxd restart.
package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/boxrun/sandboxd/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var bucketSnapshots = []byte("snapshots")

// SnapshotStore persists SnapshotRecord rows.
type SnapshotStore interface {
	Put(rec *types.SnapshotRecord) error
	Get(id string) (*types.SnapshotRecord, error)
	Delete(id string) error
	Close() error
}

// BoltSnapshotStore implements SnapshotStore using BoltDB.
type BoltSnapshotStore struct {
	db *bolt.DB
}

// NewBoltSnapshotStore opens (creating if absent) a BoltDB file under
// dataDir holding the snapshots bucket.
func NewBoltSnapshotStore(dataDir string) (*BoltSnapshotStore, error) {
	dbPath := filepath.Join(dataDir, "sandboxd.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltSnapshotStore{db: db}, nil
}

// Close closes the database.
func (s *BoltSnapshotStore) Close() error {
	return s.db.Close()
}

// Put upserts rec.
func (s *BoltSnapshotStore) Put(rec *types.SnapshotRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(rec.ID), data)
	})
}

// Get looks up the snapshot record by id.
func (s *BoltSnapshotStore) Get(id string) (*types.SnapshotRecord, error) {
	var rec types.SnapshotRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		data := b.Get([]byte(id))
		if data == nil {
			return types.NewError(types.ErrNotFound, "snapshot not found: "+id, nil)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes the snapshot record by id. Deleting an unknown id is
// not an error, matching the destroy_box "ignore missing" policy.
func (s *BoltSnapshotStore) Delete(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		return b.Delete([]byte(id))
	})
}
