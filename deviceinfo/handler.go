package deviceinfo

import (
	"context"
	"strconv"

	"github.com/m2mdev/lwm2mcore/dispatch"
	"github.com/m2mdev/lwm2mcore/registry"
)

// Handler adapts a Provider to dispatch.Handler for object 3 (Device): a
// whole-instance GET /3/0 enumerates every declared resource, invoking
// each READ handler and omitting any that reports not-yet-implemented.
// CurrentTime/Timezone are not backed by Provider (they have no
// hardware-adapter equivalent); this Handler answers them itself from
// an in-memory value, since both READ and WRITE are supported for
// CurrentTime.
type Handler struct {
	Provider Provider
	Registry *registry.Registry

	currentTime int64
	timezone    string
}

// NewHandler creates a Handler backed by p.
func NewHandler(p Provider, reg *registry.Registry) *Handler {
	return &Handler{Provider: p, Registry: reg, timezone: "UTC"}
}

func (h *Handler) InstanceExists(instanceID uint16) bool {
	return h.Registry.Instance(registry.ObjectDevice, instanceID) != nil
}

func (h *Handler) ReadResource(ctx context.Context, instanceID, resourceID uint16) (string, dispatch.Status) {
	switch resourceID {
	case registry.ResDeviceManufacturer:
		return h.Provider.Manufacturer()
	case registry.ResDeviceModelNumber:
		return h.Provider.ModelNumber()
	case registry.ResDeviceSerialNumber:
		return h.Provider.SerialNumber()
	case registry.ResDeviceFirmwareVersion:
		return h.Provider.FirmwareVersion()
	case registry.ResDeviceIMEI:
		return h.Provider.IMEI()
	case registry.ResDeviceICCID:
		return h.Provider.ICCID()
	case registry.ResDeviceSubscriptionID:
		return h.Provider.SubscriptionID()
	case registry.ResDeviceMSISDN:
		return h.Provider.MSISDN()
	case registry.ResDeviceTemperature:
		return intResult(h.Provider.Temperature())
	case registry.ResDeviceBatteryLevel:
		return intResult(h.Provider.BatteryLevel())
	case registry.ResDeviceUnexpectedResets:
		return intResult(h.Provider.UnexpectedResets())
	case registry.ResDeviceTotalResets:
		return intResult(h.Provider.TotalResets())
	case registry.ResDeviceCurrentTime:
		return strconv.FormatInt(h.currentTime, 10), dispatch.StatusOK
	case registry.ResDeviceTimezone:
		return h.timezone, dispatch.StatusOK
	default:
		return "", dispatch.StatusNotYetImplemented
	}
}

func (h *Handler) WriteResource(ctx context.Context, instanceID, resourceID uint16, value string, raw []byte) dispatch.Status {
	switch resourceID {
	case registry.ResDeviceCurrentTime:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return dispatch.StatusInvalidArg
		}
		h.currentTime = n
		return dispatch.StatusOK
	case registry.ResDeviceTimezone:
		h.timezone = value
		return dispatch.StatusOK
	default:
		return dispatch.StatusNotYetImplemented
	}
}

func intResult(v int64, status dispatch.Status) (string, dispatch.Status) {
	if status != dispatch.StatusOK {
		return "", status
	}
	return strconv.FormatInt(v, 10), dispatch.StatusOK
}
