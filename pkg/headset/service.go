package headset

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gazelink-protocol/gazelink-go/pkg/calibration"
	"github.com/gazelink-protocol/gazelink-go/pkg/capability"
	"github.com/gazelink-protocol/gazelink-go/pkg/frame"
	"github.com/gazelink-protocol/gazelink-go/pkg/geom"
	"github.com/gazelink-protocol/gazelink-go/pkg/scene"
	"github.com/gazelink-protocol/gazelink-go/pkg/version"
)

// HardwareInfo identifies the connected headset hardware.
type HardwareInfo struct {
	SerialNumber string
	Manufacturer string
	Model        string
}

// LicenseType distinguishes license grades.
type LicenseType string

const (
	LicenseTypeProfessional LicenseType = "Professional"
	LicenseTypeResearch     LicenseType = "Research"
	LicenseTypeTrial        LicenseType = "Trial"
)

// LicenseInfo describes one activated license.
type LicenseInfo struct {
	UUID       uuid.UUID
	Expiration time.Time
	Type       LicenseType
	Licensee   string
}

// Expired reports whether the license has expired at time now. A zero
// Expiration means the license never expires.
func (l LicenseInfo) Expired(now time.Time) bool {
	return !l.Expiration.IsZero() && now.After(l.Expiration)
}

// ResearchGradeCapabilities are the capabilities gated behind research
// or professional licenses.
var ResearchGradeCapabilities = capability.EyesImage.
	Union(capability.EyeShape).
	Union(capability.PupilShape).
	Union(capability.EyeTorsion)

// TrackingStatus aggregates the runtime's readiness flags. All flags are
// read in one call so they describe a single moment.
type TrackingStatus struct {
	HardwareConnected      bool
	HardwareReady          bool
	MotionReady            bool
	EyeTrackingEnabled     bool
	EyeTrackingCalibrated  bool
	EyeTrackingCalibrating bool
	// EyeTrackingCalibratedForGlasses is set when the last successful
	// calibration used a glasses-aware procedure.
	EyeTrackingCalibratedForGlasses bool
	EyeTrackingReady                bool
	UserPresent                     bool
}

// SessionService manages client sessions and their capability sets.
type SessionService interface {
	// OpenSession registers a client session. The capability sets may
	// both be empty.
	OpenSession(sessionID string, active, passive capability.Capabilities) error
	// CloseSession unregisters a session and releases its capabilities.
	CloseSession(sessionID string) error
	// UpdateCapabilities replaces a session's capability sets.
	UpdateCapabilities(sessionID string, active, passive capability.Capabilities) error
	// Versions reports the runtime and firmware versions.
	Versions() (version.Versions, error)
	// HardwareInfo reports the connected hardware identity.
	HardwareInfo() (HardwareInfo, error)
	// Licenses reports all activated licenses.
	Licenses() ([]LicenseInfo, error)
	// ActivateLicense registers a license by its key and returns the
	// resulting license. Activating an already active key returns
	// Object_AlreadyRegistered.
	ActivateLicense(key string) (LicenseInfo, error)
	// DeactivateLicense removes a license previously activated by key.
	DeactivateLicense(key string) error
}

// FrameService serves the newest produced frame per data domain.
type FrameService interface {
	// Status reports the runtime readiness flags.
	Status() (TrackingStatus, error)
	// LatestEyeTracking returns the newest eye tracking frame, or a
	// Data_NoUpdate error when none has been produced yet.
	LatestEyeTracking() (frame.EyeTrackingFrame, error)
	// LatestEyesImage returns the newest eyes camera image.
	LatestEyesImage() (frame.EyesImageFrame, error)
	// LatestPose returns the newest headset pose frame.
	LatestPose() (frame.PoseFrame, error)
	// LatestPositionImage returns the newest position camera image.
	LatestPositionImage() (frame.PositionImageFrame, error)
	// WaitEyeFrame blocks until an eye tracking frame newer than the
	// given timestamp exists, the context is done, or the service shuts
	// down.
	WaitEyeFrame(ctx context.Context, after frame.Timestamp) error
	// ProjectionMatrices computes per-eye projection matrices for the
	// given clip planes.
	ProjectionMatrices(near, far float64) (geom.StereoMatrices, error)
	// RawProjectionValues reports the per-eye half tangent values.
	RawProjectionValues() (geom.StereoProjectionParams, error)
	// RenderIOD reports the interocular distance to render with, in
	// meters.
	RenderIOD() (float64, error)
	// TareOrientation re-zeros the orientation tracking.
	TareOrientation() error
	// TarePosition re-zeros the position tracking.
	TarePosition() error
	// HmdAdjustmentGuiVisible reports whether the runtime is currently
	// showing its headset adjustment overlay.
	HmdAdjustmentGuiVisible() (bool, error)
	// HmdAdjustmentGuiTimeout reports whether the adjustment overlay was
	// hidden because the user took too long.
	HmdAdjustmentGuiTimeout() (bool, error)
}

// CalibrationService runs eye tracking calibration processes.
type CalibrationService interface {
	// StartCalibration begins or joins a calibration process.
	StartCalibration(sessionID string, opts calibration.Options) error
	// StopCalibration aborts the running process.
	StopCalibration(sessionID string) error
	// TickCalibration advances the process and returns the render data.
	// A session that renders the process keeps calling this every frame;
	// isVisible reports whether the session actually drew the previous
	// data. Only the prioritized renderer receives displayable targets,
	// others get Calibration_OtherRendererPrioritized.
	TickCalibration(sessionID string, dt time.Duration, isVisible bool) (calibration.Data, error)
	// CalibrationState reports the current process state.
	CalibrationState() (calibration.State, error)
}

// SceneService mirrors the client's gazable object registry.
type SceneService interface {
	RegisterObject(sessionID string, obj scene.GazableObject) error
	UpdateObjectPose(sessionID string, id int64, pose scene.ObjectPose) error
	RemoveObject(sessionID string, id int64) error
	RegisterCamera(sessionID string, cam scene.CameraObject) error
	UpdateCameraPose(sessionID string, id int64, pose scene.ObjectPose) error
	RemoveCamera(sessionID string, id int64) error
}

// ProfileService manages user profiles on the runtime.
type ProfileService interface {
	CreateProfile(name string) error
	RenameProfile(oldName, newName string) error
	DeleteProfile(name string) error
	ListProfiles() ([]string, error)
	SetCurrentProfile(name string) error
	CurrentProfile() (string, error)
	ProfileDataPath(name string) (string, error)
}

// ConfigService exposes the runtime's typed configuration store.
type ConfigService interface {
	ConfigBool(key string) (bool, error)
	ConfigInt(key string) (int64, error)
	ConfigFloat(key string) (float64, error)
	ConfigString(key string) (string, error)
	SetConfigBool(key string, value bool) error
	SetConfigInt(key string, value int64) error
	SetConfigFloat(key string, value float64) error
	SetConfigString(key string, value string) error
	ClearConfig(key string) error
}

// Service is the full runtime boundary a Headset talks to.
type Service interface {
	SessionService
	FrameService
	CalibrationService
	SceneService
	ProfileService
	ConfigService
}
