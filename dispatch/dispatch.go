package dispatch

import (
	"context"
	"errors"

	"github.com/m2mdev/lwm2mcore/registry"
)

// ErrCapabilityMismatch names a handler that lacks a capability. Dispatch
// itself never returns it: step 3 of Dispatch turns a missing capability
// into a Response before a handler is invoked.
var ErrCapabilityMismatch = errors.New("dispatch: handler missing capability")

// Dispatcher routes a Request to the Handler backing its target object,
// via the shared Registry for descriptor lookups.
type Dispatcher struct {
	Registry *registry.Registry
	Handlers map[uint16]Handler // objectID -> backing Handler
}

// New creates a Dispatcher over reg with no handlers registered.
func New(reg *registry.Registry) *Dispatcher {
	return &Dispatcher{Registry: reg, Handlers: make(map[uint16]Handler)}
}

// Bind associates objectID with the Handler that serves its instances.
// Rebinding (used by the session manager to swap in a staging-aware
// handler for object 0 during bootstrap) simply overwrites the prior
// entry.
func (d *Dispatcher) Bind(objectID uint16, h Handler) {
	d.Handlers[objectID] = h
}

// Dispatch implements the eight-step request algorithm: instance
// existence, resource lookup, capability mask, whole-instance READ/OBSERVE
// fan-out, per-resource TLV WRITE decode, opaque EXECUTE, CREATE-then-
// WRITE-with-rollback, and the status-to-CoAP-code table. Handlers
// report only a Status; Dispatch is the only place a CoAP Code is
// constructed. OBSERVE and OBSERVE-CANCEL complete like a READ and, on
// success, register or clear the resource's notification-cache entry so
// a later Notify call can detect a value change.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Response, error) {
	handler, ok := d.Handlers[req.ObjectID]
	if !ok {
		return Response{Code: CodeNotFound}, nil
	}

	// Step 1: instance existence, except CREATE which is expected to
	// target a not-yet-existing id.
	if req.Op != OpCreate && !handler.InstanceExists(req.InstanceID) {
		return Response{Code: CodeNotFound}, nil
	}

	if req.Op == OpCreate {
		return d.dispatchCreate(ctx, req, handler)
	}
	if req.Op == OpDelete {
		return d.dispatchDelete(ctx, req, handler)
	}

	// Whole-instance READ/OBSERVE: step 4.
	if (req.Op == OpRead || req.Op == OpObserve || req.Op == OpObserveCancel) && req.TargetsInstance() {
		return d.dispatchWholeInstance(ctx, req, handler)
	}

	// Step 2: resource descriptor lookup.
	resDesc, err := d.Registry.FindResource(req.ObjectID, req.ResourceID)
	if err != nil {
		return Response{Code: CodeNotFound}, nil
	}

	// Step 3: capability mask.
	if !capabilityFor(req.Op).isSupported(resDesc) {
		return Response{Code: CodeMethodNotAllowed}, nil
	}

	switch req.Op {
	case OpRead, OpObserve, OpObserveCancel:
		reader, ok := handler.(Reader)
		if !ok {
			return Response{Code: CodeMethodNotAllowed}, nil
		}
		value, status := reader.ReadResource(ctx, req.InstanceID, req.ResourceID)
		if status != StatusOK {
			return d.statusResponse(status, OpRead), nil
		}
		switch req.Op {
		case OpObserve:
			d.registerObserve(req.ObjectID, req.InstanceID, req.ResourceID, value)
		case OpObserveCancel:
			d.cancelObserve(req.ObjectID, req.InstanceID, req.ResourceID)
		}
		item := tlvItem{Type: tlvResource, ID: req.ResourceID, Value: encodeResourceValue(value, resDesc.Type)}
		return Response{Code: CodeContent, Payload: item.marshal()}, nil

	case OpWrite:
		return d.dispatchWrite(ctx, req, handler, resDesc)

	case OpExecute:
		executer, ok := handler.(Executer)
		if !ok {
			return Response{Code: CodeMethodNotAllowed}, nil
		}
		status := executer.ExecuteResource(ctx, req.InstanceID, req.ResourceID, req.Payload)
		return d.statusResponse(status, OpExecute), nil

	default:
		return Response{Code: CodeMethodNotAllowed}, nil
	}
}

// dispatchWholeInstance implements step 4: enumerate every resource
// declared on the object, invoke each READ handler, encode each result as
// a TLV item, and concatenate. For OBSERVE/OBSERVE-CANCEL it additionally
// registers or clears a notification-cache entry per readable resource so
// a later Notify call can detect a value change across the whole
// instance, not just a single resource.
func (d *Dispatcher) dispatchWholeInstance(ctx context.Context, req Request, handler Handler) (Response, error) {
	reader, ok := handler.(Reader)
	if !ok {
		return Response{Code: CodeMethodNotAllowed}, nil
	}
	resourceIDs, err := d.Registry.ListResourcesOf(req.ObjectID)
	if err != nil {
		return Response{Code: CodeNotFound}, nil
	}
	var payload []byte
	for _, rid := range resourceIDs {
		desc, err := d.Registry.FindResource(req.ObjectID, rid)
		if err != nil || !desc.Capabilities.Has(registry.CapRead) {
			continue
		}
		value, status := reader.ReadResource(ctx, req.InstanceID, rid)
		if status != StatusOK {
			continue
		}
		switch req.Op {
		case OpObserve:
			d.registerObserve(req.ObjectID, req.InstanceID, rid, value)
		case OpObserveCancel:
			d.cancelObserve(req.ObjectID, req.InstanceID, rid)
		}
		item := tlvItem{Type: tlvResource, ID: rid, Value: encodeResourceValue(value, desc.Type)}
		payload = append(payload, item.marshal()...)
	}
	return Response{Code: CodeContent, Payload: payload}, nil
}

// registerObserve records value as the notification baseline for
// (objectID, instanceID, resourceID) and marks it actively observed.
func (d *Dispatcher) registerObserve(objectID, instanceID, resourceID uint16, value string) {
	inst := d.Registry.Instance(objectID, instanceID)
	if inst == nil {
		return
	}
	ri := inst.ResourceInstance(resourceID)
	ri.LastValue = value
	ri.Attributes.Cancel = false
	ri.Attributes.Present |= registry.AttrCancel
}

// cancelObserve marks (objectID, instanceID, resourceID) no longer
// observed; Notify skips it on every subsequent poll.
func (d *Dispatcher) cancelObserve(objectID, instanceID, resourceID uint16) {
	inst := d.Registry.Instance(objectID, instanceID)
	if inst == nil {
		return
	}
	ri := inst.ResourceInstance(resourceID)
	ri.Attributes.Cancel = true
}

// Notification is a pending value-change report for an actively observed
// resource, ready to be pushed to the server that issued the OBSERVE.
type Notification struct {
	ObjectID   uint16
	InstanceID uint16
	ResourceID uint16
	Payload    []byte
}

// Notify polls every actively observed resource across the registry,
// re-reads its current value through the bound Reader, and returns a
// Notification for each one whose value has changed since it was last
// observed or notified. Unchanged resources are skipped; cancelled or
// never-observed resources are skipped without a read.
func (d *Dispatcher) Notify(ctx context.Context) []Notification {
	var notifications []Notification
	for _, objectID := range d.Registry.ObjectIDs() {
		handler, ok := d.Handlers[objectID]
		if !ok {
			continue
		}
		reader, ok := handler.(Reader)
		if !ok {
			continue
		}
		for _, instanceID := range d.Registry.InstanceIDs(objectID) {
			inst := d.Registry.Instance(objectID, instanceID)
			if inst == nil {
				continue
			}
			for resourceID, ri := range inst.Resources {
				if ri.Attributes.Present&registry.AttrCancel == 0 || ri.Attributes.Cancel {
					continue
				}
				desc, err := d.Registry.FindResource(objectID, resourceID)
				if err != nil || !desc.Capabilities.Has(registry.CapRead) {
					continue
				}
				value, status := reader.ReadResource(ctx, instanceID, resourceID)
				if status != StatusOK || value == ri.LastValue {
					continue
				}
				ri.LastValue = value
				item := tlvItem{Type: tlvResource, ID: resourceID, Value: encodeResourceValue(value, desc.Type)}
				notifications = append(notifications, Notification{
					ObjectID:   objectID,
					InstanceID: instanceID,
					ResourceID: resourceID,
					Payload:    item.marshal(),
				})
			}
		}
	}
	return notifications
}

// dispatchWrite implements step 5: decode the incoming TLV (or
// plain-text, for a single resource) per resource before calling the
// handler. String/opaque values pass their buffer through unchanged;
// int/bool/float/time decode via the primitive codec.
func (d *Dispatcher) dispatchWrite(ctx context.Context, req Request, handler Handler, resDesc *registry.ResourceDescriptor) (Response, error) {
	writer, ok := handler.(Writer)
	if !ok {
		return Response{Code: CodeMethodNotAllowed}, nil
	}

	var raw []byte
	if req.ContentType == ContentTLV {
		items := unmarshalTLVItems(req.Payload)
		if len(items) == 0 {
			return Response{Code: CodeBadRequest}, nil
		}
		raw = items[0].Value
	} else {
		raw = req.Payload
	}

	value, err := decodeResourceValue(raw, resDesc.Type)
	if err != nil {
		return Response{Code: CodeBadRequest}, nil
	}

	status := writer.WriteResource(ctx, req.InstanceID, req.ResourceID, value, raw)
	return d.statusResponse(status, OpWrite), nil
}

// dispatchCreate implements step 7: allocate an instance via the
// registry, then reuse the WRITE path on the payload; rollback the
// instance allocation if the write fails.
func (d *Dispatcher) dispatchCreate(ctx context.Context, req Request, handler Handler) (Response, error) {
	creater, ok := handler.(Creater)
	if !ok {
		return Response{Code: CodeMethodNotAllowed}, nil
	}
	if _, err := d.Registry.CreateInstance(req.ObjectID, req.InstanceID); err != nil {
		if errors.Is(err, registry.ErrAlreadyExists) {
			return Response{Code: CodeBadRequest}, nil
		}
		return Response{Code: CodeBadRequest}, nil
	}
	if status := creater.CreateInstance(ctx, req.InstanceID); status != StatusOK {
		_ = d.Registry.DeleteInstance(req.ObjectID, req.InstanceID)
		return d.statusResponse(status, OpCreate), nil
	}

	items := unmarshalTLVItems(req.Payload)
	for _, item := range items {
		resDesc, err := d.Registry.FindResource(req.ObjectID, item.ID)
		if err != nil || !resDesc.Capabilities.Has(registry.CapWrite) {
			continue
		}
		value, err := decodeResourceValue(item.Value, resDesc.Type)
		if err != nil {
			_ = d.Registry.DeleteInstance(req.ObjectID, req.InstanceID)
			_ = creater.DeleteInstance(ctx, req.InstanceID)
			return Response{Code: CodeBadRequest}, nil
		}
		if writer, ok := handler.(Writer); ok {
			if status := writer.WriteResource(ctx, req.InstanceID, item.ID, value, item.Value); status != StatusOK {
				_ = d.Registry.DeleteInstance(req.ObjectID, req.InstanceID)
				_ = creater.DeleteInstance(ctx, req.InstanceID)
				return d.statusResponse(status, OpCreate), nil
			}
		}
	}
	return Response{Code: CodeCreated}, nil
}

func (d *Dispatcher) dispatchDelete(ctx context.Context, req Request, handler Handler) (Response, error) {
	creater, ok := handler.(Creater)
	if !ok {
		return Response{Code: CodeMethodNotAllowed}, nil
	}
	status := creater.DeleteInstance(ctx, req.InstanceID)
	if status != StatusOK {
		return d.statusResponse(status, OpDelete), nil
	}
	_ = d.Registry.DeleteInstance(req.ObjectID, req.InstanceID)
	return Response{Code: CodeDeleted}, nil
}

// capabilityFor maps an Op onto the registry.Capability bit the
// dispatcher must find set before invoking a handler.
func capabilityFor(op Op) capabilityCheck {
	switch op {
	case OpRead, OpObserve, OpObserveCancel:
		return capabilityCheck(registry.CapRead)
	case OpWrite:
		return capabilityCheck(registry.CapWrite)
	case OpExecute:
		return capabilityCheck(registry.CapExecute)
	default:
		return capabilityCheck(0)
	}
}

type capabilityCheck registry.Capability

func (c capabilityCheck) isSupported(desc *registry.ResourceDescriptor) bool {
	return desc.Capabilities.Has(registry.Capability(c))
}

// StatusToCoAPCode is the single place that translates a handler's
// semantic Status into a CoAP response code, per op. Handlers never see
// a CoAP code; only Dispatch and this function do.
func StatusToCoAPCode(status Status, op Op) Code {
	switch status {
	case StatusOK:
		switch op {
		case OpRead:
			return CodeContent
		case OpWrite, OpExecute:
			return CodeChanged
		case OpCreate:
			return CodeCreated
		case OpDelete:
			return CodeDeleted
		default:
			return CodeChanged
		}
	case StatusInvalidArg:
		return CodeBadRequest
	case StatusOpNotSupported:
		return CodeNotFound
	case StatusNotYetImplemented:
		return CodeNotImplemented
	case StatusInvalidState:
		return CodeServiceUnavailable
	case StatusIncorrectRange, StatusOverflow, StatusGeneral, StatusAlreadyProcessed:
		return CodeInternalServerError
	default:
		return CodeInternalServerError
	}
}

func (d *Dispatcher) statusResponse(status Status, op Op) Response {
	if status == StatusAsync {
		return Response{Async: true}
	}
	return Response{Code: StatusToCoAPCode(status, op)}
}

// Resume delivers a suspended handler's completion status once it has
// finished, for the caller to translate into the deferred CoAP ACK. The
// dispatcher itself holds no per-exchange state; token correlation is
// the transport facade's responsibility.
func (d *Dispatcher) Resume(ctx context.Context, op Op, status Status) Response {
	return d.statusResponse(status, op)
}
