package registry

// Built-in object descriptors for the LwM2M objects this client core
// understands natively: Security, Server, Device, Firmware Update,
// Software Update, SSL Certificates and File Transfer. These ship as Go
// literals so the client runs without an external object-definitions
// directory; RegisterBuiltins installs them into a fresh Registry.
//
// Resource ids match OMA-TS-LightweightM2M-V1_0_2-20180209-A / the LwM2M
// object registry for objects 0, 1 and 3; objects 5, 9, 10243 and 33406
// cover the resource names this client actually exercises (state, result,
// package URI, package name/version, failure-reason) without claiming
// completeness against the full official object definitions, which this
// client does not otherwise need.
const (
	ObjectSecurity       uint16 = 0
	ObjectServer         uint16 = 1
	ObjectDevice         uint16 = 3
	ObjectFirmwareUpdate uint16 = 5
	ObjectSoftwareUpdate uint16 = 9
	ObjectSSLCerts       uint16 = 10243
	ObjectFileTransfer   uint16 = 33406
)

// Security object (0) resource ids.
const (
	ResSecurityURI           uint16 = 0
	ResSecurityBootstrap     uint16 = 1
	ResSecurityIdentity      uint16 = 3
	ResSecuritySecretKey     uint16 = 5
	ResSecurityShortServerID uint16 = 10
)

// Server object (1) resource ids.
const (
	ResServerShortServerID uint16 = 0
	ResServerLifetime      uint16 = 1
	ResServerBinding       uint16 = 7
	ResServerUpdateTrigger uint16 = 8
)

// Device object (3) resource ids. IMEI/ICCID/SubscriptionID/MSISDN/
// Temperature/TotalResets have no OMA-assigned id on object 3 (they
// normally live on Connectivity Monitoring, object 4, which this client
// does not implement); they're exposed here as private resources in the
// 20xxx range, the convention several LwM2M stacks use for vendor
// extensions to a standard object.
const (
	ResDeviceManufacturer     uint16 = 0
	ResDeviceModelNumber      uint16 = 1
	ResDeviceSerialNumber     uint16 = 2
	ResDeviceFirmwareVersion  uint16 = 3
	ResDeviceCurrentTime      uint16 = 13
	ResDeviceTimezone         uint16 = 15
	ResDeviceBatteryLevel     uint16 = 9
	ResDeviceUnexpectedResets uint16 = 12
	ResDeviceTotalResets      uint16 = 20000
	ResDeviceIMEI             uint16 = 20001
	ResDeviceICCID            uint16 = 20002
	ResDeviceSubscriptionID   uint16 = 20003
	ResDeviceMSISDN           uint16 = 20004
	ResDeviceTemperature      uint16 = 20005
)

// Firmware Update object (5) resource ids.
const (
	ResFWPackage         uint16 = 0
	ResFWPackageURI      uint16 = 1
	ResFWUpdate          uint16 = 2
	ResFWState           uint16 = 3
	ResFWResult          uint16 = 5
	ResFWPackageName     uint16 = 6
	ResFWPackageVersion  uint16 = 7
	ResFWUpdateProtocols uint16 = 8
)

// Software Update object (9) resource ids.
const (
	ResSWPackageName  uint16 = 0
	ResSWPackageVer   uint16 = 1
	ResSWPackage      uint16 = 2
	ResSWPackageURI   uint16 = 3
	ResSWInstall      uint16 = 4
	ResSWUninstall    uint16 = 6
	ResSWUpdateState  uint16 = 7
	ResSWUpdateResult uint16 = 9
	ResSWActivate     uint16 = 10
	ResSWDeactivate   uint16 = 11
)

// SSL Certificates object (10243) resource ids.
const (
	ResSSLCertificate uint16 = 0
)

// File Transfer object (33406) resource ids.
const (
	ResFileState         uint16 = 0
	ResFileResult        uint16 = 1
	ResFileDirection     uint16 = 2
	ResFileFailureReason uint16 = 3
	ResFileName          uint16 = 4
)

// RegisterBuiltins installs the built-in object descriptors into r.
func RegisterBuiltins(r *Registry) {
	r.AddObjectDescriptor(securityObject())
	r.AddObjectDescriptor(serverObject())
	r.AddObjectDescriptor(deviceObject())
	r.AddObjectDescriptor(firmwareUpdateObject())
	r.AddObjectDescriptor(softwareUpdateObject())
	r.AddObjectDescriptor(sslCertsObject())
	r.AddObjectDescriptor(fileTransferObject())
}

func res(id uint16, name string, t ResourceType, mult Multiplicity, cap Capability) *ResourceDescriptor {
	return &ResourceDescriptor{ID: id, Name: name, Type: t, Multiplicity: mult, Capabilities: cap}
}

func securityObject() *ObjectDescriptor {
	return &ObjectDescriptor{
		ID: ObjectSecurity, Name: "Security", Multiplicity: Unbounded,
		Resources: []*ResourceDescriptor{
			res(ResSecurityURI, "LWM2MServerURI", TypeString, Single, CapRead|CapWrite),
			res(ResSecurityBootstrap, "BootstrapServer", TypeBool, Single, CapRead|CapWrite),
			res(ResSecurityIdentity, "PublicKeyOrIdentity", TypeOpaque, Single, CapWrite),
			res(ResSecuritySecretKey, "SecretKey", TypeOpaque, Single, CapWrite),
			res(ResSecurityShortServerID, "ShortServerID", TypeInt, Single, CapRead|CapWrite),
		},
	}
}

func serverObject() *ObjectDescriptor {
	return &ObjectDescriptor{
		ID: ObjectServer, Name: "Server", Multiplicity: Unbounded,
		Resources: []*ResourceDescriptor{
			res(ResServerShortServerID, "ShortServerID", TypeInt, Single, CapRead),
			res(ResServerLifetime, "Lifetime", TypeInt, Single, CapRead|CapWrite),
			res(ResServerBinding, "Binding", TypeString, Single, CapRead|CapWrite),
			res(ResServerUpdateTrigger, "RegistrationUpdateTrigger", TypeUnknown, Single, CapExecute),
		},
	}
}

func deviceObject() *ObjectDescriptor {
	return &ObjectDescriptor{
		ID: ObjectDevice, Name: "Device", Multiplicity: Single,
		Resources: []*ResourceDescriptor{
			res(ResDeviceManufacturer, "Manufacturer", TypeString, Single, CapRead),
			res(ResDeviceModelNumber, "ModelNumber", TypeString, Single, CapRead),
			res(ResDeviceSerialNumber, "SerialNumber", TypeString, Single, CapRead),
			res(ResDeviceFirmwareVersion, "FirmwareVersion", TypeString, Single, CapRead),
			res(ResDeviceBatteryLevel, "BatteryLevel", TypeInt, Single, CapRead),
			res(ResDeviceUnexpectedResets, "UnexpectedResetCount", TypeInt, Single, CapRead),
			// CurrentTime supports both READ and WRITE: a server may set the
			// device clock, and the device always reports its current value.
			res(ResDeviceCurrentTime, "CurrentTime", TypeTime, Single, CapRead|CapWrite),
			res(ResDeviceTimezone, "Timezone", TypeString, Single, CapRead|CapWrite),
			res(ResDeviceTotalResets, "TotalResetCount", TypeInt, Single, CapRead),
			res(ResDeviceIMEI, "IMEI", TypeString, Single, CapRead),
			res(ResDeviceICCID, "ICCID", TypeString, Single, CapRead),
			res(ResDeviceSubscriptionID, "SubscriptionID", TypeString, Single, CapRead),
			res(ResDeviceMSISDN, "MSISDN", TypeString, Single, CapRead),
			res(ResDeviceTemperature, "Temperature", TypeInt, Single, CapRead),
		},
	}
}

func firmwareUpdateObject() *ObjectDescriptor {
	return &ObjectDescriptor{
		ID: ObjectFirmwareUpdate, Name: "FirmwareUpdate", Multiplicity: Single,
		Resources: []*ResourceDescriptor{
			res(ResFWPackage, "Package", TypeOpaque, Single, CapWrite),
			res(ResFWPackageURI, "PackageURI", TypeString, Single, CapRead|CapWrite),
			res(ResFWUpdate, "Update", TypeUnknown, Single, CapExecute),
			res(ResFWState, "State", TypeInt, Single, CapRead),
			res(ResFWResult, "UpdateResult", TypeInt, Single, CapRead),
			res(ResFWPackageName, "PackageName", TypeString, Single, CapRead),
			res(ResFWPackageVersion, "PackageVersion", TypeString, Single, CapRead),
			res(ResFWUpdateProtocols, "UpdateProtocolSupport", TypeInt, Unbounded, CapRead),
		},
	}
}

func softwareUpdateObject() *ObjectDescriptor {
	return &ObjectDescriptor{
		ID: ObjectSoftwareUpdate, Name: "SoftwareComponent", Multiplicity: Unbounded,
		Resources: []*ResourceDescriptor{
			res(ResSWPackageName, "PackageName", TypeString, Single, CapRead),
			res(ResSWPackageVer, "PackageVersion", TypeString, Single, CapRead),
			res(ResSWPackage, "Package", TypeOpaque, Single, CapWrite),
			res(ResSWPackageURI, "PackageURI", TypeString, Single, CapRead|CapWrite),
			res(ResSWInstall, "Install", TypeUnknown, Single, CapExecute),
			res(ResSWUninstall, "Uninstall", TypeUnknown, Single, CapExecute),
			res(ResSWUpdateState, "UpdateState", TypeInt, Single, CapRead),
			res(ResSWUpdateResult, "UpdateResult", TypeInt, Single, CapRead),
			res(ResSWActivate, "Activate", TypeUnknown, Single, CapExecute),
			res(ResSWDeactivate, "Deactivate", TypeUnknown, Single, CapExecute),
		},
	}
}

func sslCertsObject() *ObjectDescriptor {
	return &ObjectDescriptor{
		ID: ObjectSSLCerts, Name: "SSLCertificates", Multiplicity: Unbounded,
		Resources: []*ResourceDescriptor{
			// Write support is absent: no persistence path for
			// certificates through this resource is defined here. The
			// descriptor declares READ only, so a WRITE is rejected by the
			// dispatcher's capability check, and no handler is bound for
			// this object by the cmd/lwm2mcored wiring.
			res(ResSSLCertificate, "Certificate", TypeOpaque, Single, CapRead),
		},
	}
}

func fileTransferObject() *ObjectDescriptor {
	return &ObjectDescriptor{
		ID: ObjectFileTransfer, Name: "FileTransfer", Multiplicity: Bounded(MaxFileTransferInstances),
		Resources: []*ResourceDescriptor{
			res(ResFileState, "State", TypeInt, Single, CapRead),
			res(ResFileResult, "Result", TypeInt, Single, CapRead),
			res(ResFileDirection, "Direction", TypeInt, Single, CapRead|CapWrite),
			res(ResFileFailureReason, "FailureReason", TypeString, Single, CapRead),
			res(ResFileName, "Name", TypeString, Single, CapRead|CapWrite),
		},
	}
}

// MaxFileTransferInstances bounds the number of simultaneously tracked
// object-33406 instances. CheckTransferPossible compares the live
// instance count against this bound.
const MaxFileTransferInstances = 4
