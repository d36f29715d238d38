// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selector

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pdiddy/pdf-tools/pkg/types"
)

var selectionBucket = []byte("selection")

// BoltStore keeps the selection in a bbolt file so that consecutive CLI
// invocations share it. Keys are big-endian positions, values are JSON
// document references.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates the selection file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", path, err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening selection store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(selectionBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating selection bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Load returns the stored selection in order.
func (b *BoltStore) Load() ([]types.Document, error) {
	var docs []types.Document
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(selectionBucket).ForEach(func(k, v []byte) error {
			var d types.Document
			if err := json.Unmarshal(v, &d); err != nil {
				return fmt.Errorf("decoding selection entry %d: %w", binary.BigEndian.Uint32(k), err)
			}
			docs = append(docs, d)
			return nil
		})
	})
	return docs, err
}

// Save replaces the stored selection with docs.
func (b *BoltStore) Save(docs []types.Document) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(selectionBucket); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket(selectionBucket)
		if err != nil {
			return err
		}
		for i, d := range docs {
			v, err := json.Marshal(d)
			if err != nil {
				return fmt.Errorf("encoding %s: %w", d.Path, err)
			}
			key := make([]byte, 4)
			binary.BigEndian.PutUint32(key, uint32(i))
			if err := bucket.Put(key, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the file lock.
func (b *BoltStore) Close() error {
	return b.db.Close()
}
