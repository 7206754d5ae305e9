package document

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const collectionsBucket = "collections"

// Collection keys. Each collection serializes independently to its own key.
const (
	KeySettings  = "settings"
	KeyHistory   = "history"
	KeyReminders = "reminders"
	KeyStats     = "stats"
)

// KV is the persistence port: a synchronous get/set of one blob per named
// collection. A missing key reads back as nil with no error.
type KV interface {
	// Get returns the blob stored under key, or nil if absent
	Get(key string) ([]byte, error)

	// Set stores the blob under key
	Set(key string, value []byte) error

	// Close closes the store
	Close() error
}

// BoltKV implements the KV interface using BoltDB
type BoltKV struct {
	db *bbolt.DB
}

// NewBoltKV opens (or creates) the database at path.
func NewBoltKV(path string) (*BoltKV, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(collectionsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltKV{db: db}, nil
}

// Get returns the blob stored under key, or nil if absent
func (b *BoltKV) Get(key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(collectionsBucket))
		if data := bucket.Get([]byte(key)); data != nil {
			value = make([]byte, len(data))
			copy(value, data)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

// Set stores the blob under key
func (b *BoltKV) Set(key string, value []byte) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(collectionsBucket))
		return bucket.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection
func (b *BoltKV) Close() error {
	return b.db.Close()
}
