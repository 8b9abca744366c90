// Package deviceinfo defines the read-only device-information getters
// (manufacturer, model, serial, firmware version, IMEI, ICCID,
// subscription id, MSISDN, temperature, battery level, reset counters)
// and a config-driven static implementation.
package deviceinfo

import "github.com/m2mdev/lwm2mcore/dispatch"

// Provider is the device-info adapter contract. Each getter returns a
// semantic status alongside its value (ok / not-yet-implemented /
// overflow / general-error) so "not yet implemented" is representable
// per-field.
type Provider interface {
	Manufacturer() (string, dispatch.Status)
	ModelNumber() (string, dispatch.Status)
	SerialNumber() (string, dispatch.Status)
	FirmwareVersion() (string, dispatch.Status)
	IMEI() (string, dispatch.Status)
	ICCID() (string, dispatch.Status)
	SubscriptionID() (string, dispatch.Status)
	MSISDN() (string, dispatch.Status)
	Temperature() (int64, dispatch.Status)
	BatteryLevel() (int64, dispatch.Status)
	UnexpectedResets() (int64, dispatch.Status)
	TotalResets() (int64, dispatch.Status)
}
