package update

import (
	"context"
	"errors"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/m2mdev/lwm2mcore/credential"
	"github.com/m2mdev/lwm2mcore/dispatch"
	"github.com/m2mdev/lwm2mcore/session"
	"github.com/m2mdev/lwm2mcore/storage"
)

var log = logrus.WithField("component", "update")

// Platform is the embedder-supplied installer: the engine calls Install
// once a package has been downloaded and verified, and Uninstall for
// object 9's uninstall entry point. A real device backs this with its
// actual flashing/package-manager mechanism; firmware/software install
// execution is always an external collaborator here.
type Platform interface {
	Install(ctx context.Context, t Type, pkg []byte) error
	Uninstall(ctx context.Context, t Type) error
}

// Engine is the firmware/software update engine: the package-download/
// verify/install entry points plus the Handler implementations the
// dispatcher binds to objects 5 and 9. A single Workspace is shared
// between the two object bindings since only one update (firmware xor
// software) can be active at a time.
type Engine struct {
	blobs    storage.Blobs
	store    *credential.Store
	dmServer uint16
	platform Platform
	bus      *session.Bus

	ws        *Workspace
	acc       *integrity
	puller    Puller
	cancelPkg context.CancelFunc
}

// New loads the persisted workspace (or a fresh one) and returns an
// Engine ready to be bound to objects 5 and 9 via FirmwareHandler/
// SoftwareHandler.
func New(blobs storage.Blobs, store *credential.Store, dmServer uint16, platform Platform, bus *session.Bus) (*Engine, error) {
	ws, err := LoadWorkspace(blobs, TypeNone)
	if err != nil {
		return nil, err
	}
	acc, err := restoreIntegrity(ws.CRC32, ws.SHA1Context)
	if err != nil {
		return nil, err
	}
	return &Engine{blobs: blobs, store: store, dmServer: dmServer, platform: platform, bus: bus, ws: ws, acc: acc}, nil
}

func (e *Engine) publish(kind session.EventKind, dl *session.DownloadEvent) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(session.Event{Kind: kind, Download: dl})
}

func (e *Engine) save() error {
	e.ws.CRC32, e.ws.SHA1Context = e.acc.snapshot()
	return e.ws.Save(e.blobs)
}

// SetPackageURI implements the set_package_uri pull-mode entry point.
// Writing the current URI again while downloading is a no-op; a
// different URI while not idle is rejected with
// dispatch.StatusInvalidState.
func (e *Engine) SetPackageURI(ctx context.Context, t Type, uri string) dispatch.Status {
	if uri == "" {
		return e.cancel(t)
	}
	if e.ws.UpdateType == t && e.ws.PackageURI == uri {
		switch {
		case t == TypeFirmware && e.ws.FWState != FWStateIdle:
			return dispatch.StatusOK // idempotent re-write while already in flight
		case t == TypeSoftware && e.ws.SWState != SWStateInitial:
			return dispatch.StatusOK
		}
	}
	if e.isActive() && e.ws.UpdateType != TypeNone && e.ws.UpdateType != t {
		return dispatch.StatusInvalidState
	}
	if e.isActive() && !e.atRest(t) {
		return dispatch.StatusInvalidState
	}

	puller, err := pullerForScheme(uri)
	if err != nil {
		e.setResult(t, FWResultInvalidURI, SWResultInvalidURI)
		_ = e.save()
		return dispatch.StatusInvalidArg
	}
	e.puller = puller
	e.ws.reset()
	e.ws.UpdateType = t
	e.ws.PackageURI = uri
	e.acc = newIntegrity()
	e.setState(t, FWStateDownloading, SWStateDownloading)
	if err := e.save(); err != nil {
		return dispatch.StatusGeneral
	}

	downloadCtx, cancel := context.WithCancel(ctx)
	e.cancelPkg = cancel
	go e.runDownload(downloadCtx, t, puller, uri)
	return dispatch.StatusOK
}

// isActive reports whether a download/install is already in flight for
// the workspace's current type.
func (e *Engine) isActive() bool {
	switch e.ws.UpdateType {
	case TypeFirmware:
		return e.ws.FWState != FWStateIdle
	case TypeSoftware:
		return e.ws.SWState != SWStateInitial
	default:
		return false
	}
}

func (e *Engine) atRest(t Type) bool {
	switch t {
	case TypeFirmware:
		return e.ws.FWState == FWStateIdle
	case TypeSoftware:
		return e.ws.SWState == SWStateInitial
	default:
		return true
	}
}

// cancel implements the abort path: write of an empty URI. It stops any
// in-flight download, zeroes the workspace, and reports client-cancel
// for firmware or default for software.
func (e *Engine) cancel(t Type) dispatch.Status {
	if e.cancelPkg != nil {
		e.cancelPkg()
		e.cancelPkg = nil
	}
	e.ws.reset()
	e.ws.UpdateType = t
	if t == TypeFirmware {
		e.ws.FWResult = FWResultClientCancel
	} else {
		e.ws.SWResult = SWResultDefault
	}
	if err := e.save(); err != nil {
		return dispatch.StatusGeneral
	}
	return dispatch.StatusOK
}

// PushPackageChunk implements the direct-delivery entry point: CoAP
// block transfer hands the engine one chunk at a time instead of the
// engine pulling from a URI.
func (e *Engine) PushPackageChunk(ctx context.Context, t Type, chunk []byte, final bool) dispatch.Status {
	if e.ws.UpdateType != t {
		if e.isActive() {
			return dispatch.StatusInvalidState
		}
		e.ws.reset()
		e.ws.UpdateType = t
		e.acc = newIntegrity()
		e.setState(t, FWStateDownloading, SWStateDownloading)
	}
	e.acc.write(chunk)
	e.ws.DownloadedBytes += int64(len(chunk))
	if err := e.save(); err != nil {
		return dispatch.StatusGeneral
	}
	e.publish(session.EventDownloadProgress, &session.DownloadEvent{Downloaded: e.ws.DownloadedBytes, Total: e.ws.PackageSize})
	if final {
		e.finishDownload(ctx, t)
	}
	return dispatch.StatusOK
}

// runDownload drives an HTTP(S) pull to completion, streaming each
// chunk through the integrity pipeline and persisting the workspace
// after every chunk so a reboot loses at most one in-flight chunk.
func (e *Engine) runDownload(ctx context.Context, t Type, puller Puller, uri string) {
	size, err := puller.Pull(ctx, uri, func(chunk []byte) error {
		e.acc.write(chunk)
		e.ws.DownloadedBytes += int64(len(chunk))
		if err := e.save(); err != nil {
			return err
		}
		e.publish(session.EventDownloadProgress, &session.DownloadEvent{Downloaded: e.ws.DownloadedBytes, Total: e.ws.PackageSize})
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("uri", uri).Warn("package download failed")
		e.setResult(t, FWResultCommError, SWResultConnectionLost)
		e.setState(t, FWStateIdle, SWStateInitial)
		_ = e.save()
		e.publish(session.EventPackageDownloadFailed, nil)
		return
	}
	e.ws.PackageSize = size
	e.finishDownload(ctx, t)
}

// finishDownload finalizes the SHA-1 digest, verifies it against the
// stored public key, and transitions to downloaded or back to idle with
// verify-error.
func (e *Engine) finishDownload(ctx context.Context, t Type) {
	digest := e.acc.sum()
	kind := credential.KindFWPublicKey
	if t == TypeSoftware {
		kind = credential.KindSWPublicKey
	}
	if !e.store.Match(kind, e.dmServer, digest) {
		e.setResult(t, FWResultVerifyError, SWResultCheckFailure)
		if err := applyTo(e, t, fwEventVerifyFail); err != nil {
			log.WithError(err).Warn("verify-fail transition rejected")
		}
		_ = e.save()
		e.publish(session.EventPackageCertificationNotOk, nil)
		return
	}
	if err := applyTo(e, t, fwEventDownloadComplete); err != nil {
		log.WithError(err).Warn("download-complete transition rejected")
	}
	if t == TypeSoftware {
		e.ws.SWState = SWStateDownloaded
	}
	if err := e.save(); err != nil {
		log.WithError(err).Warn("workspace save failed after download")
	}
	e.publish(session.EventPackageCertificationOk, nil)
	e.publish(session.EventPackageDownloadFinished, nil)
}

// applyTo routes a firmware FSM event through the shared transition
// table; software update follows the same shape but is tracked on its
// own SWState/SWResult fields rather than sharing FirmwareState's enum.
func applyTo(e *Engine, t Type, ev fwEvent) error {
	if t != TypeFirmware {
		return nil
	}
	next, err := applyFWEvent(e.ws.FWState, ev)
	if err != nil {
		return err
	}
	e.ws.FWState = next
	return nil
}

func (e *Engine) setState(t Type, fw FirmwareState, sw SoftwareState) {
	if t == TypeFirmware {
		e.ws.FWState = fw
	} else {
		e.ws.SWState = sw
	}
}

func (e *Engine) setResult(t Type, fw FirmwareResult, sw SoftwareResult) {
	if t == TypeFirmware {
		e.ws.FWResult = fw
	} else {
		e.ws.SWResult = sw
	}
}

// Launch implements launch_update: the user/server has accepted the
// downloaded package, so the engine transitions to updating and invokes
// the platform installer.
func (e *Engine) Launch(ctx context.Context, t Type, pkg []byte) dispatch.Status {
	if t == TypeFirmware {
		if e.ws.UpdateType != TypeFirmware || e.ws.FWState != FWStateDownloaded {
			return dispatch.StatusInvalidState
		}
		e.ws.FWState = FWStateUpdating
		_ = e.save()
		e.publish(session.EventUpdateStarted, nil)
		if e.platform == nil {
			log.WithError(ErrNoPlatform).Warn("launch: no platform installer configured")
		}
		if e.platform == nil || e.platform.Install(ctx, t, pkg) != nil {
			e.ws.FWState = FWStateIdle
			e.ws.FWResult = FWResultInstallFailure
			_ = e.save()
			e.publish(session.EventUpdateFailed, nil)
			return dispatch.StatusGeneral
		}
		e.ws.FWState = FWStateIdle
		e.ws.FWResult = FWResultSuccess
		_ = e.save()
		e.publish(session.EventUpdateFinished, nil)
		return dispatch.StatusOK
	}

	if e.ws.UpdateType != TypeSoftware || e.ws.SWState != SWStateDownloaded {
		return dispatch.StatusInvalidState
	}
	e.ws.SWState = SWStateDelivered
	_ = e.save()
	if e.platform == nil {
		log.WithError(ErrNoPlatform).Warn("launch: no platform installer configured")
	}
	if e.platform == nil || e.platform.Install(ctx, t, pkg) != nil {
		e.ws.SWState = SWStateInitial
		e.ws.SWResult = SWResultInstallFailure
		_ = e.save()
		return dispatch.StatusGeneral
	}
	e.ws.SWState = SWStateInstalled
	e.ws.SWResult = SWResultSuccessInstalled
	_ = e.save()
	return dispatch.StatusOK
}

// LaunchUninstall implements object 9 resource 6 (Uninstall).
func (e *Engine) LaunchUninstall(ctx context.Context) dispatch.Status {
	if e.ws.UpdateType != TypeSoftware || e.ws.SWState != SWStateInstalled {
		return dispatch.StatusInvalidState
	}
	if e.platform == nil {
		log.WithError(ErrNoPlatform).Warn("launch uninstall: no platform installer configured")
	}
	if e.platform == nil || e.platform.Uninstall(ctx, TypeSoftware) != nil {
		e.ws.SWResult = SWResultUninstallFailure
		_ = e.save()
		return dispatch.StatusGeneral
	}
	e.ws.reset()
	e.ws.UpdateType = TypeSoftware
	e.ws.SWResult = SWResultSuccessUninstalled
	_ = e.save()
	return dispatch.StatusOK
}

// Activate implements object 9 resource 10/11 (Activate/Deactivate is
// modeled as a single toggle entry point; activation state itself is
// not separately persisted, since the workspace has no distinct field
// for it).
func (e *Engine) Activate(ctx context.Context, activate bool) dispatch.Status {
	if e.ws.UpdateType != TypeSoftware || e.ws.SWState != SWStateInstalled {
		return dispatch.StatusInvalidState
	}
	return dispatch.StatusOK
}

// GetState returns object 5 resource 3 / object 9 resource 7's current
// value as the dispatcher's plain-text integer convention.
func (e *Engine) GetState(t Type) string {
	if t == TypeFirmware {
		return strconv.Itoa(int(e.ws.FWState))
	}
	return strconv.Itoa(int(e.ws.SWState))
}

// GetResult returns object 5 resource 5 / object 9 resource 9's current
// value.
func (e *Engine) GetResult(t Type) string {
	if t == TypeFirmware {
		return strconv.Itoa(int(e.ws.FWResult))
	}
	return strconv.Itoa(int(e.ws.SWResult))
}

// GetPackageName / GetPackageVersion back objects 5/6-7 and 9/0-1.
func (e *Engine) GetPackageName() string    { return e.ws.PackageName }
func (e *Engine) GetPackageVersion() string { return e.ws.PackageVersion }

// GetUpdateSupportedObjects returns the protocols this engine's URI
// puller supports, object 5 resource 8 (UpdateProtocolSupport):
// 0=CoAP, 1=CoAPS, 2=HTTP, 3=HTTPS, per the OMA registry; only the
// HTTP(S) puller is bundled (see fetch.go), so only those two are
// advertised.
func (e *Engine) GetUpdateSupportedObjects() []int {
	return []int{2, 3}
}

// ErrNoPlatform is logged when Launch/LaunchUninstall is called without
// a configured Platform; the operation still reports StatusGeneral to
// the caller, since dispatch.Status has no slot for a missing-platform
// distinction.
var ErrNoPlatform = errors.New("update: no platform installer configured")
