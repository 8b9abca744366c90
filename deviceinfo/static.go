package deviceinfo

import "github.com/m2mdev/lwm2mcore/dispatch"

// StaticProvider is a thin, config-driven Provider: every field is
// supplied once at construction (from viper-loaded configuration in
// cmd/lwm2mcored) rather than read from live hardware. A zero-value
// string field reports dispatch.StatusNotYetImplemented, so any resource
// whose adapter returns not-yet-implemented is simply omitted from a
// whole-object read.
type StaticProvider struct {
	ManufacturerName string
	ModelNumberName  string
	SerialNumberName string
	FirmwareVersionName string
	IMEIValue           string
	ICCIDValue          string
	SubscriptionIDValue string
	MSISDNValue         string

	// BatteryLevelFn/TemperatureFn/UnexpectedResetsFn/TotalResetsFn are read live rather
	// than fixed at construction: a real device's battery/temperature
	// changes continuously, and reset counters accumulate across
	// reboots, so these are funcs instead of plain fields. A nil func
	// reports not-yet-implemented, same as an empty string field.
	BatteryLevelFn      func() (int64, bool)
	TemperatureFn       func() (int64, bool)
	UnexpectedResetsFn  func() (int64, bool)
	TotalResetsFn       func() (int64, bool)
}

func stringOrNotImplemented(v string) (string, dispatch.Status) {
	if v == "" {
		return "", dispatch.StatusNotYetImplemented
	}
	return v, dispatch.StatusOK
}

func (p *StaticProvider) Manufacturer() (string, dispatch.Status) {
	return stringOrNotImplemented(p.ManufacturerName)
}

func (p *StaticProvider) ModelNumber() (string, dispatch.Status) {
	return stringOrNotImplemented(p.ModelNumberName)
}

func (p *StaticProvider) SerialNumber() (string, dispatch.Status) {
	return stringOrNotImplemented(p.SerialNumberName)
}

func (p *StaticProvider) FirmwareVersion() (string, dispatch.Status) {
	return stringOrNotImplemented(p.FirmwareVersionName)
}

func (p *StaticProvider) IMEI() (string, dispatch.Status) {
	return stringOrNotImplemented(p.IMEIValue)
}

func (p *StaticProvider) ICCID() (string, dispatch.Status) {
	return stringOrNotImplemented(p.ICCIDValue)
}

func (p *StaticProvider) SubscriptionID() (string, dispatch.Status) {
	return stringOrNotImplemented(p.SubscriptionIDValue)
}

func (p *StaticProvider) MSISDN() (string, dispatch.Status) {
	return stringOrNotImplemented(p.MSISDNValue)
}

func (p *StaticProvider) Temperature() (int64, dispatch.Status) {
	if p.TemperatureFn == nil {
		return 0, dispatch.StatusNotYetImplemented
	}
	v, ok := p.TemperatureFn()
	if !ok {
		return 0, dispatch.StatusGeneral
	}
	return v, dispatch.StatusOK
}

func (p *StaticProvider) BatteryLevel() (int64, dispatch.Status) {
	if p.BatteryLevelFn == nil {
		return 0, dispatch.StatusNotYetImplemented
	}
	v, ok := p.BatteryLevelFn()
	if !ok {
		return 0, dispatch.StatusGeneral
	}
	return v, dispatch.StatusOK
}

func (p *StaticProvider) UnexpectedResets() (int64, dispatch.Status) {
	if p.UnexpectedResetsFn == nil {
		return 0, dispatch.StatusNotYetImplemented
	}
	v, ok := p.UnexpectedResetsFn()
	if !ok {
		return 0, dispatch.StatusGeneral
	}
	return v, dispatch.StatusOK
}

func (p *StaticProvider) TotalResets() (int64, dispatch.Status) {
	if p.TotalResetsFn == nil {
		return 0, dispatch.StatusNotYetImplemented
	}
	v, ok := p.TotalResetsFn()
	if !ok {
		return 0, dispatch.StatusGeneral
	}
	return v, dispatch.StatusOK
}
