package headset

import (
	"time"

	"github.com/gazelink-protocol/gazelink-go/pkg/calibration"
	"github.com/gazelink-protocol/gazelink-go/pkg/capability"
	"github.com/gazelink-protocol/gazelink-go/pkg/log"
	"github.com/gazelink-protocol/gazelink-go/pkg/scene"
	"github.com/gazelink-protocol/gazelink-go/pkg/status"
	"github.com/gazelink-protocol/gazelink-go/pkg/version"
)

// ---------------------------------------------------------------------------
// Calibration
// ---------------------------------------------------------------------------

// StartEyeTrackingCalibration begins or joins a calibration process.
// With Options.Lazy set, an existing calibration makes this a no-op.
func (h *Headset) StartEyeTrackingCalibration(opts calibration.Options) error {
	svc, sessionID, err := h.service()
	if err != nil {
		return err
	}
	if err := h.checkRegistered(capability.EyeTracking); err != nil {
		return err
	}
	return svc.StartCalibration(sessionID, opts)
}

// StopEyeTrackingCalibration aborts the running calibration process.
func (h *Headset) StopEyeTrackingCalibration() error {
	svc, sessionID, err := h.service()
	if err != nil {
		return err
	}
	return svc.StopCalibration(sessionID)
}

// TickEyeTrackingCalibration advances the calibration process by dt and
// returns the data to render. isVisible reports whether this client
// actually drew the previous tick's data; the service uses it to pick
// the prioritized renderer. Non-prioritized renderers receive
// Calibration_OtherRendererPrioritized.
func (h *Headset) TickEyeTrackingCalibration(dt time.Duration, isVisible bool) (calibration.Data, error) {
	svc, sessionID, err := h.service()
	if err != nil {
		return calibration.Data{}, err
	}
	data, err := svc.TickCalibration(sessionID, dt, isVisible)
	h.logEvent(log.Event{
		Category: log.CategoryCalibration,
		Calibration: &log.CalibrationEvent{
			NewState:    data.State.String(),
			Method:      data.Method.String(),
			Prioritized: err == nil,
		},
	})
	return data, err
}

// EyeTrackingCalibrationState reports the current calibration state.
func (h *Headset) EyeTrackingCalibrationState() (calibration.State, error) {
	svc, _, err := h.service()
	if err != nil {
		return calibration.NotStarted, err
	}
	return svc.CalibrationState()
}

// IsEyeTrackingCalibrated reports whether a completed calibration exists.
func (h *Headset) IsEyeTrackingCalibrated() (bool, error) {
	st, err := h.Status()
	if err != nil {
		return false, err
	}
	return st.EyeTrackingCalibrated, nil
}

// IsEyeTrackingCalibrating reports whether a calibration process is
// running.
func (h *Headset) IsEyeTrackingCalibrating() (bool, error) {
	st, err := h.Status()
	if err != nil {
		return false, err
	}
	return st.EyeTrackingCalibrating, nil
}

// IsEyeTrackingCalibratedForGlasses reports whether the existing
// calibration was produced by a glasses-aware procedure.
func (h *Headset) IsEyeTrackingCalibratedForGlasses() (bool, error) {
	st, err := h.Status()
	if err != nil {
		return false, err
	}
	return st.EyeTrackingCalibratedForGlasses, nil
}

// HmdAdjustmentGuiVisible reports whether the runtime is showing its
// headset adjustment overlay.
func (h *Headset) HmdAdjustmentGuiVisible() (bool, error) {
	svc, _, err := h.service()
	if err != nil {
		return false, err
	}
	return svc.HmdAdjustmentGuiVisible()
}

// HmdAdjustmentGuiTimeout reports whether the adjustment overlay was
// hidden because the user took too long.
func (h *Headset) HmdAdjustmentGuiTimeout() (bool, error) {
	svc, _, err := h.service()
	if err != nil {
		return false, err
	}
	return svc.HmdAdjustmentGuiTimeout()
}

// ---------------------------------------------------------------------------
// Scene registry
// ---------------------------------------------------------------------------

// RegisterGazableObject adds a gazable object. The registration is kept
// locally and mirrored to the service while connected, so it survives
// reconnects.
func (h *Headset) RegisterGazableObject(obj scene.GazableObject) error {
	if err := h.scene.RegisterObject(obj); err != nil {
		return err
	}
	if svc, sessionID, err := h.service(); err == nil {
		if err := svc.RegisterObject(sessionID, obj); err != nil {
			_ = h.scene.RemoveObject(obj.ID)
			return err
		}
	}
	return nil
}

// UpdateGazableObjectPose updates a registered object's pose.
func (h *Headset) UpdateGazableObjectPose(id int64, pose scene.ObjectPose) error {
	if err := h.scene.UpdateObjectPose(id, pose); err != nil {
		return err
	}
	if svc, sessionID, err := h.service(); err == nil {
		return svc.UpdateObjectPose(sessionID, id, pose)
	}
	return nil
}

// RemoveGazableObject removes a registered object.
func (h *Headset) RemoveGazableObject(id int64) error {
	if err := h.scene.RemoveObject(id); err != nil {
		return err
	}
	if svc, sessionID, err := h.service(); err == nil {
		return svc.RemoveObject(sessionID, id)
	}
	return nil
}

// RegisterCameraObject adds a scene camera.
func (h *Headset) RegisterCameraObject(cam scene.CameraObject) error {
	if err := h.scene.RegisterCamera(cam); err != nil {
		return err
	}
	if svc, sessionID, err := h.service(); err == nil {
		if err := svc.RegisterCamera(sessionID, cam); err != nil {
			_ = h.scene.RemoveCamera(cam.ID)
			return err
		}
	}
	return nil
}

// UpdateCameraObjectPose updates a registered camera's pose.
func (h *Headset) UpdateCameraObjectPose(id int64, pose scene.ObjectPose) error {
	if err := h.scene.UpdateCameraPose(id, pose); err != nil {
		return err
	}
	if svc, sessionID, err := h.service(); err == nil {
		return svc.UpdateCameraPose(sessionID, id, pose)
	}
	return nil
}

// RemoveCameraObject removes a registered camera.
func (h *Headset) RemoveCameraObject(id int64) error {
	if err := h.scene.RemoveCamera(id); err != nil {
		return err
	}
	if svc, sessionID, err := h.service(); err == nil {
		return svc.RemoveCamera(sessionID, id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Info
// ---------------------------------------------------------------------------

// Versions reports the client, runtime and firmware versions.
func (h *Headset) Versions() (version.Versions, error) {
	svc, _, err := h.service()
	if err != nil {
		return version.Versions{Client: h.clientVersion}, err
	}
	v, err := svc.Versions()
	if err != nil {
		return version.Versions{Client: h.clientVersion}, err
	}
	v.Client = h.clientVersion
	return v, nil
}

// CheckSoftwareVersions verifies the runtime can serve this client.
func (h *Headset) CheckSoftwareVersions() error {
	v, err := h.Versions()
	if err != nil {
		return err
	}
	return version.CheckCompatibility(v.Client, v.Runtime)
}

// HardwareInfo reports the connected hardware identity.
func (h *Headset) HardwareInfo() (HardwareInfo, error) {
	svc, _, err := h.service()
	if err != nil {
		return HardwareInfo{}, err
	}
	return svc.HardwareInfo()
}

// Licenses reports all activated licenses.
func (h *Headset) Licenses() ([]LicenseInfo, error) {
	svc, _, err := h.service()
	if err != nil {
		return nil, err
	}
	return svc.Licenses()
}

// ActivateLicense registers a license key with the runtime and returns
// the activated license.
func (h *Headset) ActivateLicense(key string) (LicenseInfo, error) {
	svc, _, err := h.service()
	if err != nil {
		return LicenseInfo{}, err
	}
	return svc.ActivateLicense(key)
}

// DeactivateLicense removes a license previously activated by key.
func (h *Headset) DeactivateLicense(key string) error {
	svc, _, err := h.service()
	if err != nil {
		return err
	}
	return svc.DeactivateLicense(key)
}

// HasAccessToFeature reports whether the named capability is covered by
// the runtime's licenses. The name matches the capability String form.
func (h *Headset) HasAccessToFeature(name string) (bool, error) {
	c, ok := capability.Parse(name)
	if !ok {
		return false, status.Newf(status.CodeInvalidArgument, "unknown feature %q", name)
	}
	if !ResearchGradeCapabilities.Contains(c) {
		return true, nil
	}
	licenses, err := h.Licenses()
	if err != nil {
		return false, err
	}
	now := time.Now()
	for _, l := range licenses {
		if l.Expired(now) {
			continue
		}
		if l.Type == LicenseTypeResearch || l.Type == LicenseTypeProfessional {
			return true, nil
		}
	}
	return false, nil
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

// CreateProfile creates a new user profile.
func (h *Headset) CreateProfile(name string) error {
	svc, _, err := h.service()
	if err != nil {
		return err
	}
	return svc.CreateProfile(name)
}

// RenameProfile renames a user profile.
func (h *Headset) RenameProfile(oldName, newName string) error {
	svc, _, err := h.service()
	if err != nil {
		return err
	}
	return svc.RenameProfile(oldName, newName)
}

// DeleteProfile deletes a user profile and its data.
func (h *Headset) DeleteProfile(name string) error {
	svc, _, err := h.service()
	if err != nil {
		return err
	}
	return svc.DeleteProfile(name)
}

// ListProfiles lists all user profiles.
func (h *Headset) ListProfiles() ([]string, error) {
	svc, _, err := h.service()
	if err != nil {
		return nil, err
	}
	return svc.ListProfiles()
}

// SetCurrentProfile makes a profile current. Selecting the profile that
// is already current returns Profile_NotAvailable.
func (h *Headset) SetCurrentProfile(name string) error {
	svc, _, err := h.service()
	if err != nil {
		return err
	}
	return svc.SetCurrentProfile(name)
}

// CurrentProfile returns the current profile name, or an empty string
// when none is selected.
func (h *Headset) CurrentProfile() (string, error) {
	svc, _, err := h.service()
	if err != nil {
		return "", err
	}
	return svc.CurrentProfile()
}

// ProfileDataPath returns the profile's data directory.
func (h *Headset) ProfileDataPath(name string) (string, error) {
	svc, _, err := h.service()
	if err != nil {
		return "", err
	}
	return svc.ProfileDataPath(name)
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// ConfigBool reads a bool config key. A missing key returns
// Config_DoesntExist, a key of another type Config_TypeMismatch.
func (h *Headset) ConfigBool(key string) (bool, error) {
	svc, _, err := h.service()
	if err != nil {
		return false, err
	}
	return svc.ConfigBool(key)
}

// ConfigInt reads an int config key.
func (h *Headset) ConfigInt(key string) (int64, error) {
	svc, _, err := h.service()
	if err != nil {
		return 0, err
	}
	return svc.ConfigInt(key)
}

// ConfigFloat reads a float config key.
func (h *Headset) ConfigFloat(key string) (float64, error) {
	svc, _, err := h.service()
	if err != nil {
		return 0, err
	}
	return svc.ConfigFloat(key)
}

// ConfigString reads a string config key.
func (h *Headset) ConfigString(key string) (string, error) {
	svc, _, err := h.service()
	if err != nil {
		return "", err
	}
	return svc.ConfigString(key)
}

// SetConfigBool writes a bool config key.
func (h *Headset) SetConfigBool(key string, value bool) error {
	svc, _, err := h.service()
	if err != nil {
		return err
	}
	return svc.SetConfigBool(key, value)
}

// SetConfigInt writes an int config key.
func (h *Headset) SetConfigInt(key string, value int64) error {
	svc, _, err := h.service()
	if err != nil {
		return err
	}
	return svc.SetConfigInt(key, value)
}

// SetConfigFloat writes a float config key.
func (h *Headset) SetConfigFloat(key string, value float64) error {
	svc, _, err := h.service()
	if err != nil {
		return err
	}
	return svc.SetConfigFloat(key, value)
}

// SetConfigString writes a string config key.
func (h *Headset) SetConfigString(key string, value string) error {
	svc, _, err := h.service()
	if err != nil {
		return err
	}
	return svc.SetConfigString(key, value)
}

// ClearConfig resets a config key to its default value.
func (h *Headset) ClearConfig(key string) error {
	svc, _, err := h.service()
	if err != nil {
		return err
	}
	return svc.ClearConfig(key)
}
