package dispatch

import "context"

// Handler is implemented by whatever backs a single object instance:
// the registry's generic in-memory instance, the credential store during
// a bootstrap session, or the update/file-transfer engines. A Handler
// need only implement the method sets for the capabilities its
// resources declare; the dispatcher type-asserts for Reader/Writer/
// Executer rather than calling through a nil function pointer, so an
// unsupported capability is a missing interface, never a panic.
type Handler interface {
	// InstanceExists reports whether instanceID currently exists. The
	// generic handler backs this with registry.Registry.Instance; a
	// single-instance engine (update, file-transfer) usually always
	// returns true for instance 0.
	InstanceExists(instanceID uint16) bool
}

// Reader is implemented by a Handler that supports READ on at least one
// of its resources.
type Reader interface {
	Handler
	ReadResource(ctx context.Context, instanceID, resourceID uint16) (value string, status Status)
}

// Writer is implemented by a Handler that supports WRITE on at least one
// of its resources. value is the primitive-codec/base64 text form the
// dispatcher decoded from TLV or plain-text; raw carries the original
// bytes for opaque resources so a Writer never has to re-encode them.
type Writer interface {
	Handler
	WriteResource(ctx context.Context, instanceID, resourceID uint16, value string, raw []byte) Status
}

// Executer is implemented by a Handler that supports EXECUTE on at least
// one of its resources. args is the opaque EXECUTE payload, unparsed.
type Executer interface {
	Handler
	ExecuteResource(ctx context.Context, instanceID, resourceID uint16, args []byte) Status
}

// Creater is implemented by a Handler that supports server-initiated
// CREATE of a new object instance.
type Creater interface {
	Handler
	CreateInstance(ctx context.Context, instanceID uint16) Status
	DeleteInstance(ctx context.Context, instanceID uint16) Status
}
