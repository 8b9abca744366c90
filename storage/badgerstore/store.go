// Package badgerstore implements storage.Blobs over
// github.com/dgraph-io/badger/v4, grounded in marmos91-dittofs's
// BadgerMetadataStore: a single badger.DB with a flat key namespace
// (each Blobs key is stored verbatim, with no further prefixing, since
// credential/update/filetransfer already namespace their own keys).
package badgerstore

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"
)

// Store is a storage.Blobs backed by an on-disk badger.DB.
type Store struct {
	db *badger.DB
}

// Open opens (creating if absent) a badger.DB at path and returns a
// Store over it.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get implements storage.Blobs.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	if value == nil {
		return nil, false, nil
	}
	return value, true, nil
}

// Put implements storage.Blobs.
func (s *Store) Put(key string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// Delete implements storage.Blobs.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}
