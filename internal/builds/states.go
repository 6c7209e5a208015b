package builds

// Status is the user-facing build status shown on the storefront.
type Status string

const (
	StatusNeverBuilt    Status = "never_built"
	StatusBuildingSoon  Status = "building_soon"
	StatusWontRelease   Status = "wont_release"
	StatusReleased      Status = "released"
	StatusReleaseFailed Status = "release_failed"
	StatusReleasingSoon Status = "releasing_soon"
	StatusInProgress    Status = "in_progress"
	StatusFailedToBuild Status = "failed_to_build"
	StatusCancelled     Status = "cancelled"
	StatusUnknown       Status = "unknown"
)

// BuildState is the raw state Launchpad reports for one architecture's build job.
type BuildState string

const (
	BuildStateNeedsBuild    BuildState = "Needs building"
	BuildStateFullyBuilt    BuildState = "Successfully built"
	BuildStateFailedBuild   BuildState = "Failed to build"
	BuildStateManualDepWait BuildState = "Dependency wait"
	BuildStateChrootWait    BuildState = "Chroot problem"
	BuildStateSuperseded    BuildState = "Build for superseded Source"
	BuildStateBuilding      BuildState = "Currently building"
	BuildStateFailedUpload  BuildState = "Failed to upload"
	BuildStateUploading     BuildState = "Uploading build"
	BuildStateCancelling    BuildState = "Cancelling build"
	BuildStateCancelled     BuildState = "Cancelled build"
)

// UploadState is the raw state of pushing a built snap to the store.
type UploadState string

const (
	UploadStateUnscheduled   UploadState = "Unscheduled"
	UploadStatePending       UploadState = "Pending"
	UploadStateFailedUpload  UploadState = "Failed to upload"
	UploadStateFailedRelease UploadState = "Failed to release to channels"
	UploadStateUploaded      UploadState = "Uploaded"
)

// ArchState pairs the raw build and upload states reported for one architecture.
type ArchState struct {
	Arch        string      `json:"arch"`
	BuildState  BuildState  `json:"buildstate"`
	UploadState UploadState `json:"store_upload_status"`
}

// IsFailure reports whether a single architecture in this status marks the
// whole snap as failed.
func (s Status) IsFailure() bool {
	switch s {
	case StatusNeverBuilt, StatusWontRelease, StatusReleaseFailed, StatusFailedToBuild, StatusCancelled:
		return true
	}
	return false
}

// Statuses lists every user-facing status.
func Statuses() []Status {
	return []Status{
		StatusNeverBuilt, StatusBuildingSoon, StatusWontRelease, StatusReleased, StatusReleaseFailed,
		StatusReleasingSoon, StatusInProgress, StatusFailedToBuild, StatusCancelled, StatusUnknown,
	}
}
