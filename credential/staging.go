package credential

import "errors"

// ErrIncompleteStaging is returned by Commit when fewer than all three
// DM slots (address, secret key, public key/identity) have been set; a
// partial commit is a no-op.
var ErrIncompleteStaging = errors.New("credential: incomplete DM credential set")

// Staging is the volatile mirror a bootstrap session writes into: BS and
// DM PSK-id/PSK/address, populated one WRITE at a time as the bootstrap
// server sends them. It is zeroed after a successful Commit or an
// explicit Reset (abort).
type Staging struct {
	bsPublicKey       []byte
	bsServerPublicKey []byte
	bsSecretKey       []byte
	bsAddress         []byte

	dmPublicKey       []byte
	dmServerPublicKey []byte
	dmSecretKey       []byte
	dmAddress         []byte
}

// NewStaging returns an empty staging area.
func NewStaging() *Staging {
	return &Staging{}
}

// Set stages value for kind, validated against the same size bound Store
// enforces. Only BS/DM-scoped kinds belong in staging; any other kind is
// rejected.
func (st *Staging) Set(kind Kind, value []byte) error {
	if len(value) > kind.maxSize() {
		return ErrOverflow
	}
	switch kind {
	case KindBSPublicKey:
		st.bsPublicKey = value
	case KindBSServerPublicKey:
		st.bsServerPublicKey = value
	case KindBSSecretKey:
		st.bsSecretKey = value
	case KindBSAddress:
		st.bsAddress = value
	case KindDMPublicKey:
		st.dmPublicKey = value
	case KindDMServerPublicKey:
		st.dmServerPublicKey = value
	case KindDMSecretKey:
		st.dmSecretKey = value
	case KindDMAddress:
		st.dmAddress = value
	default:
		return errors.New("credential: kind not stageable")
	}
	return nil
}

// dmComplete reports whether all three DM slots required for a commit
// are present: address, secret key and public key/identity.
func (st *Staging) dmComplete() bool {
	return len(st.dmAddress) > 0 && len(st.dmSecretKey) > 0 && len(st.dmPublicKey) > 0
}

// Commit atomically copies every staged slot into dst, scoped by
// bsServerID and dmServerID, then wipes the staging area. It is a no-op
// returning ErrIncompleteStaging if the DM slot set is not yet complete,
// so that subsequent bootstrap writes can finish populating it and the
// session stays in Bootstrapping until it does.
func (st *Staging) Commit(dst *Store, bsServerID, dmServerID uint16) error {
	if !st.dmComplete() {
		return ErrIncompleteStaging
	}
	writes := []struct {
		kind  Kind
		id    uint16
		value []byte
	}{
		{KindBSPublicKey, bsServerID, st.bsPublicKey},
		{KindBSServerPublicKey, bsServerID, st.bsServerPublicKey},
		{KindBSSecretKey, bsServerID, st.bsSecretKey},
		{KindBSAddress, bsServerID, st.bsAddress},
		{KindDMPublicKey, dmServerID, st.dmPublicKey},
		{KindDMServerPublicKey, dmServerID, st.dmServerPublicKey},
		{KindDMSecretKey, dmServerID, st.dmSecretKey},
		{KindDMAddress, dmServerID, st.dmAddress},
	}
	for _, w := range writes {
		if len(w.value) == 0 {
			continue
		}
		if err := dst.Set(w.kind, w.id, w.value); err != nil {
			return err
		}
	}
	st.Reset()
	return nil
}

// Reset zeroes every staged slot.
func (st *Staging) Reset() {
	*st = Staging{}
}
