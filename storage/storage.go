// Package storage defines the persistent blob-storage facade the
// credential, update and file-transfer packages use, and its
// dgraph-io/badger-backed implementation in storage/badgerstore.
package storage

import "errors"

// ErrVersionMismatch reports a stored envelope whose version does not
// match the reader's expected version. The badgerstore implementation
// never returns it: the update and filetransfer workspace loaders
// compare the envelope version themselves, and on a mismatch delete the
// blob and reinitialize from defaults rather than migrating it in place.
var ErrVersionMismatch = errors.New("storage: version mismatch")

// Blobs is a minimal persistent key/value facade. It exists so that
// credential, update and filetransfer never import badger directly:
// each depends only on this interface, and the process wiring in
// cmd/lwm2mcored supplies a concrete *badgerstore.Store.
type Blobs interface {
	// Get returns the value stored at key. found is false when key has
	// never been written (not an error); err is non-nil for an I/O
	// failure.
	Get(key string) (data []byte, found bool, err error)
	Put(key string, data []byte) error
	Delete(key string) error
}
