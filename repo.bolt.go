package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

var _ EventStore = (*boltEventStore)(nil)

type boltEventStore struct {
	logger *zap.Logger
	client *bolt.DB
	bucket []byte
}

// GetBoltDBClient setup the database and the bucket then provides a ready to use client.
func GetBoltDBClient(config *BoltDBConfig) (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create the database folder: %w", err)
	}
	db, err := bolt.Open(config.FilePath, 0o600, &bolt.Options{Timeout: config.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltEventStore provides an instance of bolt-based events archive.
func NewBoltEventStore(logger *zap.Logger, config *BoltDBConfig, client *bolt.DB) *boltEventStore {
	return &boltEventStore{
		logger: logger,
		client: client,
		bucket: []byte(config.BucketName),
	}
}

// Close shuts down the underlying bolt database.
func (es *boltEventStore) Close() error {
	return es.client.Close()
}

// Append stores the event under the next bucket sequence. Keys are big
// endian so the cursor walks events in arrival order.
func (es *boltEventStore) Append(_ context.Context, event BookEvent) (uint64, error) {
	var seq uint64
	err := es.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(es.bucket)
		var err error
		if seq, err = b.NextSequence(); err != nil {
			return err
		}
		event.Seq = seq
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), data)
	})
	return seq, err
}

// List returns up to limit most recent events, newest first.
// A limit lower or equal to zero returns all events.
func (es *boltEventStore) List(_ context.Context, limit int) ([]BookEvent, error) {
	tx, err := es.client.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c := tx.Bucket(es.bucket).Cursor()
	events := []BookEvent{}
	for k, v := c.Last(); k != nil; k, v = c.Prev() {
		if limit > 0 && len(events) >= limit {
			break
		}
		var event BookEvent
		if err = json.Unmarshal(v, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
