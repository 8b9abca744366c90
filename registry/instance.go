package registry

// AttributePresent is a bitmask recording which of the optional
// notification attributes a server has written onto a resource instance.
// OMA-TS-LightweightM2M-V1_0_2-20180209-A 5.1.2 Attributes.
type AttributePresent byte

// Attribute presence bits.
const (
	AttrPmin AttributePresent = 1 << iota
	AttrPmax
	AttrGt
	AttrLt
	AttrSt
	AttrCancel
)

// Attributes holds the per-resource notification attributes a server may
// set: minimum/maximum period, greater-than/less-than/step thresholds, and
// a cancel flag. Present records which fields actually carry a
// server-supplied value, since zero is a valid attribute value.
type Attributes struct {
	Pmin    float64
	Pmax    float64
	Gt      float64
	Lt      float64
	St      float64
	Cancel  bool
	Present AttributePresent
}

// ResourceInstance is a live resource slot: its last observed text value
// (used to suppress redundant Notify traffic for an actively observed
// resource) and its attributes.
type ResourceInstance struct {
	ID         uint16
	LastValue  string
	Attributes Attributes
}

// ObjectInstance is a live, session-lifetime instance of an object:
// created by the bootstrap server, the DM server's CREATE, or internally
// at startup; destroyed by DELETE or at shutdown.
type ObjectInstance struct {
	ObjectID  uint16
	ID        uint16
	Resources map[uint16]*ResourceInstance
}

func newObjectInstance(objectID, id uint16) *ObjectInstance {
	return &ObjectInstance{
		ObjectID:  objectID,
		ID:        id,
		Resources: make(map[uint16]*ResourceInstance),
	}
}

// ResourceInstance returns the live resource-instance state for
// resourceID, creating it on first access. Creation is lazy because most
// resources never accumulate attributes or an OBSERVE cache.
func (oi *ObjectInstance) ResourceInstance(resourceID uint16) *ResourceInstance {
	ri, ok := oi.Resources[resourceID]
	if !ok {
		ri = &ResourceInstance{ID: resourceID}
		oi.Resources[resourceID] = ri
	}
	return ri
}
