package update

import "errors"

// FirmwareState is object 5 resource 3's State value.
type FirmwareState int

// Firmware states.
const (
	FWStateWaitDownload FirmwareState = iota - 1
	FWStateIdle
	FWStateDownloading
	FWStateDownloaded
	FWStateUpdating
	FWStateWaitInstall
	FWStateWaitInstallResult
)

func (s FirmwareState) String() string {
	switch s {
	case FWStateWaitDownload:
		return "wait-download"
	case FWStateIdle:
		return "idle"
	case FWStateDownloading:
		return "downloading"
	case FWStateDownloaded:
		return "downloaded"
	case FWStateUpdating:
		return "updating"
	case FWStateWaitInstall:
		return "wait-install"
	case FWStateWaitInstallResult:
		return "wait-install-result"
	default:
		return "unknown"
	}
}

// FirmwareResult is object 5 resource 5's UpdateResult value.
type FirmwareResult int

// Firmware results.
const (
	FWResultDefault            FirmwareResult = 0
	FWResultSuccess            FirmwareResult = 1
	FWResultNoStorage          FirmwareResult = 2
	FWResultOutOfMemory        FirmwareResult = 3
	FWResultCommError          FirmwareResult = 4
	FWResultVerifyError        FirmwareResult = 5
	FWResultUnsupportedPkg     FirmwareResult = 6
	FWResultInvalidURI         FirmwareResult = 7
	FWResultInstallFailure     FirmwareResult = 8
	FWResultUnsupportedProto   FirmwareResult = 9
	FWResultClientCancel       FirmwareResult = 0xF000
)

// fwEvent is one of the transitions the firmware state machine accepts,
// per object 5's normative state diagram (State/UpdateResult, OMA LwM2M
// Firmware Update object).
type fwEvent int

const (
	fwEventWrite fwEvent = iota
	fwEventDownloadComplete
	fwEventVerifyOK
	fwEventVerifyFail
	fwEventLaunchUpdate
	fwEventInstallOK
	fwEventInstallFail
	fwEventClear
	fwEventTransportError
)

// ErrInvalidState is returned when a (state, event) pair has no edge in
// the firmware transition table; the workspace is left unchanged.
var ErrInvalidState = errors.New("update: invalid firmware state transition")

// fwTransitions is the literal transition table of object 5's state
// diagram. Any (state, event) pair absent from this map is rejected.
var fwTransitions = map[FirmwareState]map[fwEvent]FirmwareState{
	FWStateIdle: {
		fwEventWrite: FWStateDownloading,
	},
	FWStateDownloading: {
		fwEventDownloadComplete: FWStateDownloaded, // pending verify
		fwEventVerifyFail:       FWStateIdle,        // verify runs as part of completing the download
		fwEventTransportError:   FWStateIdle,
		fwEventClear:            FWStateIdle,
	},
	FWStateDownloaded: {
		fwEventLaunchUpdate: FWStateUpdating,
		fwEventClear:        FWStateIdle,
	},
	FWStateUpdating: {
		fwEventInstallOK:   FWStateIdle,
		fwEventInstallFail: FWStateIdle,
		fwEventClear:       FWStateIdle,
	},
}

// applyFWEvent looks up the edge for (from, ev). Every state also
// accepts fwEventClear and fwEventTransportError, the "any state ->
// idle" edges in the diagram.
func applyFWEvent(from FirmwareState, ev fwEvent) (FirmwareState, error) {
	if ev == fwEventClear || ev == fwEventTransportError {
		return FWStateIdle, nil
	}
	edges, ok := fwTransitions[from]
	if !ok {
		return from, ErrInvalidState
	}
	to, ok := edges[ev]
	if !ok {
		return from, ErrInvalidState
	}
	return to, nil
}
