// Package registry holds the in-memory model of supported LwM2M objects,
// their resource descriptors, and the live object instances created at
// startup, by the bootstrap server, or by the DM server's CREATE operation.
//
// OMA-TS-LightweightM2M-V1_0_2-20180209-A, Appendix D. Object Template.
package registry

// Unspecified is the sentinel LwM2M addressing component meaning
// "none/not applicable".
const Unspecified uint16 = 0xFFFF

// ResourceType is the declared LwM2M data type of a resource.
type ResourceType byte

// Resource data types, OMA-TS-LightweightM2M-V1_0_2-20180209-A Appendix C.
const (
	TypeInt ResourceType = iota
	TypeBool
	TypeString
	TypeOpaque
	TypeFloat
	TypeTime
	TypeUnknown
)

func (t ResourceType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeOpaque:
		return "opaque"
	case TypeFloat:
		return "float"
	case TypeTime:
		return "time"
	default:
		return "unknown"
	}
}

// Capability is a bitmask of the operations a resource's handler supports.
// Absence of a bit is semantically distinct from an error: the dispatcher
// maps an unset capability to 4.05 MethodNotAllowed, never to a handler
// call.
type Capability byte

// Resource capabilities.
const (
	CapRead Capability = 1 << iota
	CapWrite
	CapExecute
)

// Has reports whether the mask includes cap.
func (m Capability) Has(cap Capability) bool { return m&cap != 0 }

// Multiplicity describes how many instances of a resource (within an
// object instance) or an object (within the client) may exist.
type Multiplicity struct {
	Multi bool // false: single-instance, max count 1
	Max   int  // ignored when !Multi; <0 means unbounded
}

// Single is the multiplicity of a single-instance resource or object.
var Single = Multiplicity{Multi: false, Max: 1}

// Unbounded is the multiplicity of a multi-instance resource or object with
// no declared upper bound.
var Unbounded = Multiplicity{Multi: true, Max: -1}

// Bounded returns the multiplicity of a multi-instance resource or object
// with at most max instances.
func Bounded(max int) Multiplicity { return Multiplicity{Multi: true, Max: max} }

// ResourceDescriptor is the static, process-lifetime definition of a
// resource within an object: its id, type, multiplicity and capability
// mask. It carries no value and no handler; those live on ObjectInstance
// and dispatch.Handler respectively.
type ResourceDescriptor struct {
	ID           uint16
	Name         string
	Type         ResourceType
	Multiplicity Multiplicity
	Capabilities Capability
	Mandatory    bool
}

// ObjectDescriptor is the static, process-lifetime definition of an object:
// its id, instance multiplicity, and ordered resource descriptors.
type ObjectDescriptor struct {
	ID           uint16
	Name         string
	Multiplicity Multiplicity // object-instance multiplicity
	Mandatory    bool
	Resources    []*ResourceDescriptor
}

// FindResource returns the descriptor for resourceID within this object, or
// nil if it is not declared.
func (o *ObjectDescriptor) FindResource(resourceID uint16) *ResourceDescriptor {
	for _, r := range o.Resources {
		if r.ID == resourceID {
			return r
		}
	}
	return nil
}
