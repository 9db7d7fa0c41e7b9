// Package trajdb persists reconstruction results in a bbolt database.
package trajdb

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/reconstruct"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned by Get for unknown keys. It wraps reconstruct.ErrMiss.
var ErrNotFound = fmt.Errorf("trajdb: %w", reconstruct.ErrMiss)

// Store is a reconstruct.Store on disk.
type Store struct {
	DB    *bbolt.DB
	rOnly bool
}

// Open opens (creating if needed) the result database in dir.
// A writable open holds a file lock; other opens of the same dir block until it is closed.
func Open(dir string, readOnly bool) (*Store, error) {
	if !readOnly {
		if err := os.MkdirAll(dir, 0770); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(filepath.Join(dir, params.ResultsDBName), 0600, &bbolt.Options{
		ReadOnly: readOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	return &Store{DB: db, rOnly: readOnly}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func encodeKey(key uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, key)
	return b
}

func (s *Store) Get(key uint64) (reconstruct.Result, error) {
	var res reconstruct.Result
	err := s.DB.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(params.ResultsBucket)
		if bucket == nil {
			return ErrNotFound
		}
		data := bucket.Get(encodeKey(key))
		if data == nil {
			return ErrNotFound
		}
		// data is only valid inside the transaction; Unmarshal copies.
		return json.Unmarshal(data, &res)
	})
	return res, err
}

func (s *Store) Put(key uint64, r reconstruct.Result) error {
	if s.rOnly {
		return fmt.Errorf("put %d: store is read-only", key)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(params.ResultsBucket)
		if err != nil {
			return err
		}
		return bucket.Put(encodeKey(key), data)
	})
}

// Len is the number of stored results.
func (s *Store) Len() (n int, err error) {
	err = s.DB.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(params.ResultsBucket)
		if bucket == nil {
			return nil
		}
		n = bucket.Stats().KeyN
		return nil
	})
	return n, err
}
