package registry

import (
	"errors"
	"sort"
)

// Registry errors. The dispatcher maps these onto CoAP response codes;
// registry itself never speaks CoAP.
var (
	ErrNotFound      = errors.New("registry: not found")
	ErrAlreadyExists = errors.New("registry: instance already exists")
	ErrOutOfBounds   = errors.New("registry: instance id out of bounds")
)

// Registry holds the client-facing descriptor list (objects and their
// resource descriptors, process-lifetime) and the session-instance list
// (live object instances, session-lifetime). Lookups are linear scans: the
// number of supported objects and instances is small (a few dozen at
// most).
type Registry struct {
	descriptors []*ObjectDescriptor
	instances   []*ObjectInstance
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// AddObjectDescriptor registers an object's static descriptor. Called at
// process start only; it is not safe to call concurrently with dispatch.
func (r *Registry) AddObjectDescriptor(obj *ObjectDescriptor) {
	r.descriptors = append(r.descriptors, obj)
}

// FindObject returns the descriptor for objectID, or ErrNotFound.
func (r *Registry) FindObject(objectID uint16) (*ObjectDescriptor, error) {
	for _, o := range r.descriptors {
		if o.ID == objectID {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

// FindResource returns the resource descriptor (objectID, resourceID), or
// ErrNotFound if either the object or the resource is undeclared.
func (r *Registry) FindResource(objectID, resourceID uint16) (*ResourceDescriptor, error) {
	obj, err := r.FindObject(objectID)
	if err != nil {
		return nil, err
	}
	res := obj.FindResource(resourceID)
	if res == nil {
		return nil, ErrNotFound
	}
	return res, nil
}

// ObjectIDs returns the ids of every object that has at least one live
// instance, sorted ascending. The Security object (id 0) is included; the
// session layer excludes it from registration catalogues.
func (r *Registry) ObjectIDs() []uint16 {
	seen := make(map[uint16]bool)
	var ids []uint16
	for _, inst := range r.instances {
		if !seen[inst.ObjectID] {
			seen[inst.ObjectID] = true
			ids = append(ids, inst.ObjectID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// InstanceIDs returns the ids of every live instance of objectID, sorted
// ascending.
func (r *Registry) InstanceIDs(objectID uint16) []uint16 {
	var ids []uint16
	for _, inst := range r.instances {
		if inst.ObjectID == objectID {
			ids = append(ids, inst.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Instance returns the live instance (objectID, instanceID), or nil.
func (r *Registry) Instance(objectID, instanceID uint16) *ObjectInstance {
	for _, inst := range r.instances {
		if inst.ObjectID == objectID && inst.ID == instanceID {
			return inst
		}
	}
	return nil
}

// InstanceCount returns the number of live instances of objectID.
func (r *Registry) InstanceCount(objectID uint16) int {
	n := 0
	for _, inst := range r.instances {
		if inst.ObjectID == objectID {
			n++
		}
	}
	return n
}

// CreateInstance creates a new, empty instance of objectID with the given
// instanceID. It rejects a duplicate id and an id at or beyond the
// object's declared multiplicity bound (unless the object is unbounded).
func (r *Registry) CreateInstance(objectID, instanceID uint16) (*ObjectInstance, error) {
	obj, err := r.FindObject(objectID)
	if err != nil {
		return nil, err
	}
	if r.Instance(objectID, instanceID) != nil {
		return nil, ErrAlreadyExists
	}
	if obj.Multiplicity.Multi && obj.Multiplicity.Max >= 0 && int(instanceID) >= obj.Multiplicity.Max {
		return nil, ErrOutOfBounds
	}
	if !obj.Multiplicity.Multi && (r.InstanceCount(objectID) >= 1 || int(instanceID) >= obj.Multiplicity.Max) {
		return nil, ErrOutOfBounds
	}
	inst := newObjectInstance(objectID, instanceID)
	r.instances = append(r.instances, inst)
	return inst, nil
}

// DeleteInstance removes the live instance (objectID, instanceID).
func (r *Registry) DeleteInstance(objectID, instanceID uint16) error {
	for i, inst := range r.instances {
		if inst.ObjectID == objectID && inst.ID == instanceID {
			r.instances = append(r.instances[:i], r.instances[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// ListResourcesOf returns the resource ids declared on objectID's
// descriptor, in declaration order. Used for whole-instance READ
// enumeration; the registration catalogue is built from ObjectIDs and
// InstanceIDs instead.
func (r *Registry) ListResourcesOf(objectID uint16) ([]uint16, error) {
	obj, err := r.FindObject(objectID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint16, 0, len(obj.Resources))
	for _, res := range obj.Resources {
		ids = append(ids, res.ID)
	}
	return ids, nil
}
