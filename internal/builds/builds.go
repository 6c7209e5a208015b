// Package builds reduces Launchpad build and store upload states into the
// single status the storefront shows for a snap.
package builds

import (
	"fmt"

	"github.com/tidwall/gjson"

	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
)

// positiveStatuses is the order in which non-failure statuses win when
// architectures disagree.
var positiveStatuses = []Status{
	StatusBuildingSoon,
	StatusInProgress,
	StatusReleasingSoon,
	StatusReleased,
}

// MapUploadState returns the user-facing status for a successful build,
// based on its store upload state.
func MapUploadState(upload UploadState) Status {
	switch upload {
	case UploadStateUnscheduled:
		return StatusWontRelease
	case UploadStatePending:
		return StatusReleasingSoon
	case UploadStateFailedUpload, UploadStateFailedRelease:
		return StatusReleaseFailed
	case UploadStateUploaded:
		return StatusReleased
	default:
		return StatusUnknown
	}
}

// MapBuildAndUploadStates returns the user-facing status for one
// architecture. The upload state only matters once the build succeeded.
func MapBuildAndUploadStates(build BuildState, upload UploadState) Status {
	switch build {
	case BuildStateNeedsBuild:
		return StatusBuildingSoon
	case BuildStateFullyBuilt:
		return MapUploadState(upload)
	case BuildStateBuilding, BuildStateUploading:
		return StatusInProgress
	case BuildStateCancelling, BuildStateCancelled:
		return StatusCancelled
	case BuildStateFailedBuild, BuildStateManualDepWait, BuildStateChrootWait,
		BuildStateSuperseded, BuildStateFailedUpload:
		return StatusFailedToBuild
	default:
		return StatusUnknown
	}
}

// MapSnapBuildStatus reduces the per-architecture states of a snap into one
// status. The first failing architecture, in slice order, decides the
// result. Otherwise a shared status is returned as is, and mixed statuses
// resolve by positiveStatuses order. Empty input is unknown.
func MapSnapBuildStatus(archs []ArchState) Status {
	seen := make(map[Status]struct{}, len(archs))
	var last Status

	for _, arch := range archs {
		status := MapBuildAndUploadStates(arch.BuildState, arch.UploadState)
		if status.IsFailure() {
			return status
		}
		seen[status] = struct{}{}
		last = status
	}

	if len(seen) == 1 {
		return last
	}

	for _, status := range positiveStatuses {
		if _, ok := seen[status]; ok {
			return status
		}
	}
	return StatusUnknown
}

// ParseArchStates decodes a JSON object keyed by architecture, such as
// {"amd64": {"buildstate": "...", "store_upload_status": "..."}}, keeping
// the document order of the keys. A repeated key keeps its first position
// and takes its last value.
func ParseArchStates(data []byte) ([]ArchState, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.ValidationError("build states are not valid JSON").Build()
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, errors.ValidationError("build states must be a JSON object keyed by architecture").
			WithContext("type", doc.Type.String()).
			Build()
	}

	var (
		archs  []ArchState
		seen   = make(map[string]int)
		badKey string
	)
	doc.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			badKey = key.String()
			return false
		}
		state := ArchState{
			Arch:        key.String(),
			BuildState:  BuildState(value.Get("buildstate").String()),
			UploadState: UploadState(value.Get("store_upload_status").String()),
		}
		if i, ok := seen[state.Arch]; ok {
			archs[i] = state
			return true
		}
		seen[state.Arch] = len(archs)
		archs = append(archs, state)
		return true
	})
	if badKey != "" {
		return nil, errors.ValidationError(fmt.Sprintf("state for architecture %q must be an object", badKey)).
			WithContext("arch", badKey).
			Build()
	}
	return archs, nil
}
