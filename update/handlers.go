package update

import (
	"context"

	"github.com/m2mdev/lwm2mcore/dispatch"
	"github.com/m2mdev/lwm2mcore/registry"
)

// FirmwareHandler adapts Engine to dispatch.Handler for object 5
// (Firmware Update). Only instance 0 exists; object 5 is single-
// instance.
type FirmwareHandler struct{ Engine *Engine }

func (h FirmwareHandler) InstanceExists(instanceID uint16) bool { return instanceID == 0 }

func (h FirmwareHandler) ReadResource(ctx context.Context, instanceID, resourceID uint16) (string, dispatch.Status) {
	switch resourceID {
	case registry.ResFWState:
		return h.Engine.GetState(TypeFirmware), dispatch.StatusOK
	case registry.ResFWResult:
		return h.Engine.GetResult(TypeFirmware), dispatch.StatusOK
	case registry.ResFWPackageName:
		return h.Engine.GetPackageName(), dispatch.StatusOK
	case registry.ResFWPackageVersion:
		return h.Engine.GetPackageVersion(), dispatch.StatusOK
	case registry.ResFWPackageURI:
		return h.Engine.ws.PackageURI, dispatch.StatusOK
	default:
		return "", dispatch.StatusNotYetImplemented
	}
}

func (h FirmwareHandler) WriteResource(ctx context.Context, instanceID, resourceID uint16, value string, raw []byte) dispatch.Status {
	switch resourceID {
	case registry.ResFWPackageURI:
		return h.Engine.SetPackageURI(ctx, TypeFirmware, value)
	case registry.ResFWPackage:
		return h.Engine.PushPackageChunk(ctx, TypeFirmware, raw, true)
	default:
		return dispatch.StatusNotYetImplemented
	}
}

func (h FirmwareHandler) ExecuteResource(ctx context.Context, instanceID, resourceID uint16, args []byte) dispatch.Status {
	switch resourceID {
	case registry.ResFWUpdate:
		return h.Engine.Launch(ctx, TypeFirmware, args)
	default:
		return dispatch.StatusNotYetImplemented
	}
}

// SoftwareHandler adapts Engine to dispatch.Handler for object 9
// (Software Component / Software Management), instance 0 only — this
// client tracks a single active software workspace at a time, matching
// the shared Workspace the engine maintains for both objects.
type SoftwareHandler struct{ Engine *Engine }

func (h SoftwareHandler) InstanceExists(instanceID uint16) bool { return instanceID == 0 }

func (h SoftwareHandler) ReadResource(ctx context.Context, instanceID, resourceID uint16) (string, dispatch.Status) {
	switch resourceID {
	case registry.ResSWUpdateState:
		return h.Engine.GetState(TypeSoftware), dispatch.StatusOK
	case registry.ResSWUpdateResult:
		return h.Engine.GetResult(TypeSoftware), dispatch.StatusOK
	case registry.ResSWPackageName:
		return h.Engine.GetPackageName(), dispatch.StatusOK
	case registry.ResSWPackageVer:
		return h.Engine.GetPackageVersion(), dispatch.StatusOK
	case registry.ResSWPackageURI:
		return h.Engine.ws.PackageURI, dispatch.StatusOK
	default:
		return "", dispatch.StatusNotYetImplemented
	}
}

func (h SoftwareHandler) WriteResource(ctx context.Context, instanceID, resourceID uint16, value string, raw []byte) dispatch.Status {
	switch resourceID {
	case registry.ResSWPackageURI:
		return h.Engine.SetPackageURI(ctx, TypeSoftware, value)
	case registry.ResSWPackage:
		return h.Engine.PushPackageChunk(ctx, TypeSoftware, raw, true)
	default:
		return dispatch.StatusNotYetImplemented
	}
}

func (h SoftwareHandler) ExecuteResource(ctx context.Context, instanceID, resourceID uint16, args []byte) dispatch.Status {
	switch resourceID {
	case registry.ResSWInstall:
		return h.Engine.Launch(ctx, TypeSoftware, args)
	case registry.ResSWUninstall:
		return h.Engine.LaunchUninstall(ctx)
	case registry.ResSWActivate:
		return h.Engine.Activate(ctx, true)
	case registry.ResSWDeactivate:
		return h.Engine.Activate(ctx, false)
	default:
		return dispatch.StatusNotYetImplemented
	}
}
