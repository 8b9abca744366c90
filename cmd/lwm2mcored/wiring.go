package main

import (
	"fmt"

	"github.com/m2mdev/lwm2mcore/credential"
	"github.com/m2mdev/lwm2mcore/deviceinfo"
	"github.com/m2mdev/lwm2mcore/dispatch"
	"github.com/m2mdev/lwm2mcore/filetransfer"
	"github.com/m2mdev/lwm2mcore/registry"
	"github.com/m2mdev/lwm2mcore/session"
	"github.com/m2mdev/lwm2mcore/storage/badgerstore"
	"github.com/m2mdev/lwm2mcore/transport/coapadapter"
	"github.com/m2mdev/lwm2mcore/update"
)

// client bundles every wired component the run/bootstrap subcommands
// drive, as the single top-level handle a command holds.
type client struct {
	blobs    *badgerstore.Store
	registry *registry.Registry
	dispatch *dispatch.Dispatcher
	store    *credential.Store
	manager  *session.Manager
	bus      *session.Bus
	update   *update.Engine
	transfer *filetransfer.Engine
}

// buildClient wires registry, dispatch, credential store, update and
// file-transfer engines, the session manager and the CoAP/DTLS
// transport adapter together from cfg.
func buildClient(cfg Config) (*client, error) {
	blobs, err := badgerstore.Open(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("lwm2mcored: opening storage: %w", err)
	}

	reg := registry.New()
	registry.RegisterBuiltins(reg)
	for _, objectID := range []uint16{registry.ObjectSecurity, registry.ObjectDevice, registry.ObjectServer} {
		if _, err := reg.CreateInstance(objectID, 0); err != nil {
			return nil, fmt.Errorf("lwm2mcored: creating /%d/0: %w", objectID, err)
		}
	}

	store := credential.NewStore(blobs)
	disp := dispatch.New(reg)
	bus := session.NewBus()

	disp.Bind(registry.ObjectSecurity, credential.SecurityHandler{Store: store, Registry: reg, ServerID: cfg.DMServerID})

	provider := &deviceinfo.StaticProvider{
		ManufacturerName:    cfg.Device.Manufacturer,
		ModelNumberName:     cfg.Device.ModelNumber,
		SerialNumberName:    cfg.Device.SerialNumber,
		FirmwareVersionName: cfg.Device.FirmwareVersion,
		IMEIValue:           cfg.Device.IMEI,
		ICCIDValue:          cfg.Device.ICCID,
		SubscriptionIDValue: cfg.Device.SubscriptionID,
		MSISDNValue:         cfg.Device.MSISDN,
	}
	disp.Bind(registry.ObjectDevice, deviceinfo.NewHandler(provider, reg))

	updateEngine, err := update.New(blobs, store, cfg.DMServerID, noopPlatform{}, bus)
	if err != nil {
		return nil, fmt.Errorf("lwm2mcored: loading update workspace: %w", err)
	}
	disp.Bind(registry.ObjectFirmwareUpdate, update.FirmwareHandler{Engine: updateEngine})
	disp.Bind(registry.ObjectSoftwareUpdate, update.SoftwareHandler{Engine: updateEngine})

	transferEngine, err := filetransfer.New(blobs)
	if err != nil {
		return nil, fmt.Errorf("lwm2mcored: loading file-transfer workspace: %w", err)
	}
	disp.Bind(registry.ObjectFileTransfer, filetransfer.Handler{Engine: transferEngine, Registry: reg})

	transport := coapadapter.NewAdapter()
	transport.Dispatcher = disp
	if err := transport.Open(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("lwm2mcored: opening transport: %w", err)
	}

	manager := session.New(reg, disp, store, transport, bus, cfg.Endpoint, cfg.DMServerID)
	disp.Bind(registry.ObjectServer, session.NewServerHandler(manager))

	return &client{
		blobs:    blobs,
		registry: reg,
		dispatch: disp,
		store:    store,
		manager:  manager,
		bus:      bus,
		update:   updateEngine,
		transfer: transferEngine,
	}, nil
}

func (c *client) Close() error {
	return c.blobs.Close()
}
