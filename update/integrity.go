package update

import (
	"crypto/sha1"
	"encoding"
	"hash"
	"hash/crc32"
)

// integrity accumulates the running CRC32 and SHA-1 digest over a
// package download as chunks arrive, and can snapshot/restore the SHA-1
// internal state so a mid-download reboot loses at most the chunk that
// had not yet been persisted.
//
// crypto/sha1's concrete implementation satisfies
// encoding.BinaryMarshaler/Unmarshaler, which is what makes the
// save/restore here possible without re-hashing bytes already written.
type integrity struct {
	crc  uint32
	sha1 hash.Hash
}

func newIntegrity() *integrity {
	return &integrity{sha1: sha1.New()}
}

// restoreIntegrity rebuilds an integrity accumulator from a workspace's
// persisted CRC32 and serialized SHA-1 context. A nil/empty context
// yields a fresh accumulator (no bytes have been hashed yet).
func restoreIntegrity(crc uint32, sha1Context []byte) (*integrity, error) {
	it := &integrity{crc: crc, sha1: sha1.New()}
	if len(sha1Context) == 0 {
		return it, nil
	}
	unmarshaler, ok := it.sha1.(encoding.BinaryUnmarshaler)
	if !ok {
		return it, nil
	}
	if err := unmarshaler.UnmarshalBinary(sha1Context); err != nil {
		return nil, err
	}
	return it, nil
}

// write feeds chunk into both accumulators.
func (it *integrity) write(chunk []byte) {
	it.crc = crc32.Update(it.crc, crc32.IEEETable, chunk)
	it.sha1.Write(chunk)
}

// snapshot returns the running CRC32 and the serialized SHA-1 context,
// for copy_sha1 into the persisted Workspace after every chunk write.
func (it *integrity) snapshot() (crc uint32, sha1Context []byte) {
	marshaler, ok := it.sha1.(encoding.BinaryMarshaler)
	if !ok {
		return it.crc, nil
	}
	data, err := marshaler.MarshalBinary()
	if err != nil {
		return it.crc, nil
	}
	return it.crc, data
}

// sum returns the finalized SHA-1 digest without mutating the running
// hash, for the verify step at state=downloaded.
func (it *integrity) sum() []byte {
	// Sum(nil) on crypto/sha1's Hash does not disturb further Write
	// calls, but the integrity pipeline never writes again after
	// finalizing, since downloading has already completed by the time
	// sum is called.
	return it.sha1.Sum(nil)
}
