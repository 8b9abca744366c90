package credential

import (
	"errors"
	"fmt"

	"github.com/m2mdev/lwm2mcore/storage"
)

// Status is the client's overall provisioning state, analogous to a
// credential_status() query.
type Status int

// Provisioning statuses.
const (
	StatusNone Status = iota
	StatusBootstrapOnly
	StatusDMProvisioned
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusBootstrapOnly:
		return "bootstrap-only"
	case StatusDMProvisioned:
		return "dm-provisioned"
	default:
		return "unknown"
	}
}

// Errors returned by Store methods. Callers must be able to distinguish
// an overflow from an absent credential; these stay package-level
// sentinels so errors.Is works across the credential/session boundary.
var (
	ErrNotProvisioned = errors.New("credential: not provisioned")
	ErrOverflow       = errors.New("credential: value exceeds size bound")
)

// Store is the persistent credential mapping. Every method is scoped by
// (kind, serverID); serverID is BootstrapServerID for bootstrap-scoped
// kinds and the DM server's short-id for DM-scoped kinds.
type Store struct {
	blobs storage.Blobs
}

// NewStore wraps blobs as a credential Store.
func NewStore(blobs storage.Blobs) *Store {
	return &Store{blobs: blobs}
}

func storeKey(kind Kind, serverID uint16) string {
	return fmt.Sprintf("credential/%d/%d", serverID, int(kind))
}

// Get returns the stored bytes for (kind, serverID), or ErrNotProvisioned
// if nothing has been set.
func (s *Store) Get(kind Kind, serverID uint16) ([]byte, error) {
	v, found, err := s.blobs.Get(storeKey(kind, serverID))
	if err != nil {
		if errors.Is(err, storage.ErrVersionMismatch) {
			_ = s.blobs.Delete(storeKey(kind, serverID))
		}
		return nil, ErrNotProvisioned
	}
	if !found {
		return nil, ErrNotProvisioned
	}
	return v, nil
}

// Set validates value against kind's size bound and persists it.
func (s *Store) Set(kind Kind, serverID uint16, value []byte) error {
	if len(value) > kind.maxSize() {
		return ErrOverflow
	}
	return s.blobs.Put(storeKey(kind, serverID), value)
}

// CheckPresent reports whether (kind, serverID) has a stored value.
func (s *Store) CheckPresent(kind Kind, serverID uint16) bool {
	_, err := s.Get(kind, serverID)
	return err == nil
}

// Delete removes the stored value for (kind, serverID), if any.
func (s *Store) Delete(kind Kind, serverID uint16) error {
	return s.blobs.Delete(storeKey(kind, serverID))
}

// Match compares candidate against the stored value for (kind,
// serverID), for verifying a server-supplied credential (e.g. during
// bootstrap re-provisioning) without exposing the stored bytes to the
// caller.
func (s *Store) Match(kind Kind, serverID uint16, candidate []byte) bool {
	stored, err := s.Get(kind, serverID)
	if err != nil {
		return false
	}
	if len(stored) != len(candidate) {
		return false
	}
	for i := range stored {
		if stored[i] != candidate[i] {
			return false
		}
	}
	return true
}

// CredentialStatus reports the client's overall provisioning state: none
// if no bootstrap address is set, bootstrap-only if the bootstrap slots
// are present but dmServerID's DM slots are not yet all committed, and
// dm-provisioned once dmServerID's address, secret key and public
// key/identity are all present. dmServerID is the DM server's short
// server id, as resolved from object 1's ShortServerID resource.
func (s *Store) CredentialStatus(dmServerID uint16) Status {
	if !s.CheckPresent(KindBSAddress, BootstrapServerID) {
		return StatusNone
	}
	if s.CheckPresent(KindDMAddress, dmServerID) &&
		s.CheckPresent(KindDMSecretKey, dmServerID) &&
		s.CheckPresent(KindDMPublicKey, dmServerID) {
		return StatusDMProvisioned
	}
	return StatusBootstrapOnly
}
