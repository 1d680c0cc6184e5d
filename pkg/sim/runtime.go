package sim

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gazelink-protocol/gazelink-go/pkg/capability"
	"github.com/gazelink-protocol/gazelink-go/pkg/compositor"
	"github.com/gazelink-protocol/gazelink-go/pkg/config"
	"github.com/gazelink-protocol/gazelink-go/pkg/frame"
	"github.com/gazelink-protocol/gazelink-go/pkg/headset"
	"github.com/gazelink-protocol/gazelink-go/pkg/profile"
	"github.com/gazelink-protocol/gazelink-go/pkg/scene"
	"github.com/gazelink-protocol/gazelink-go/pkg/status"
	"github.com/gazelink-protocol/gazelink-go/pkg/version"
)


// Options configures a simulated runtime.
type Options struct {
	// Hardware is the hardware model key (see version.AvailableHardware).
	// Empty means "gl2".
	Hardware string

	// RuntimeVersion overrides the reported runtime version. Zero means
	// the library version.
	RuntimeVersion version.Version

	// Licenses are the activated licenses. Nil installs a single
	// non-expiring Professional license.
	Licenses []headset.LicenseInfo

	// DataDir is where profiles and config are persisted. Empty uses a
	// fresh temporary directory.
	DataDir string

	// UserPresent starts the simulated user as present. Ignored when a
	// scenario script drives presence.
	UserPresent bool

	// Scenario optionally scripts the simulated user. See LoadScenario.
	Scenario *Scenario

	// Logger is the operational logger. Nil uses slog.Default().
	Logger *slog.Logger
}

type session struct {
	active  capability.Capabilities
	passive capability.Capabilities
	// objects and cameras registered by this session.
	objects map[int64]scene.GazableObject
	cameras map[int64]scene.CameraObject
}

// Runtime is a simulated GazeLink runtime.
type Runtime struct {
	mu     sync.Mutex
	logger *slog.Logger

	hardware     headset.HardwareInfo
	hardwareCaps capability.Capabilities
	runtimeVer   version.Version
	licenses     []headset.LicenseInfo
	// licenseKeys maps activation keys to the license they created.
	licenseKeys map[string]uuid.UUID

	sessions map[string]*session

	clock   time.Duration
	nextID  uint64
	stepped bool

	userPresent bool
	calibrated  bool
	// calibratedForGlasses is set when the successful calibration used a
	// glasses-aware method.
	calibratedForGlasses bool
	scenario             *Scenario

	eye           *frame.EyeTrackingFrame
	eyesImage     *frame.EyesImageFrame
	pose          *frame.PoseFrame
	positionImage *frame.PositionImageFrame

	// orientation/position offsets applied by tare.
	tareYaw float64
	tareY   float64

	// eyeSignal is closed and replaced whenever an eye frame is
	// produced; waiters block on the current channel.
	eyeSignal    chan struct{}
	renderSignal chan struct{}

	calib calibProcess

	compSessions   map[string]*compSession
	lastRenderPose *frame.PoseFrame

	profiles *profile.Store
	config   *config.Store
	cfgPath  string

	closed bool
}

// New creates a simulated runtime.
func New(opts Options) (*Runtime, error) {
	if opts.Scenario != nil {
		opts.Scenario.apply(&opts)
	}

	model := opts.Hardware
	if model == "" {
		model = "gl2"
	}
	manifest, err := version.LoadHardware(model)
	if err != nil {
		return nil, err
	}
	caps, err := manifest.CapabilitySet()
	if err != nil {
		return nil, err
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir, err = os.MkdirTemp("", "gazelink-sim")
		if err != nil {
			return nil, status.FromSystemError(err)
		}
	}
	profiles, err := profile.NewStore(filepath.Join(dataDir, "profiles"))
	if err != nil {
		return nil, err
	}

	runtimeVer := opts.RuntimeVersion
	if runtimeVer == (version.Version{}) {
		runtimeVer = version.MustParse(version.Current)
	}

	licenses := opts.Licenses
	if licenses == nil {
		licenses = []headset.LicenseInfo{{
			UUID:     uuid.New(),
			Type:     headset.LicenseTypeProfessional,
			Licensee: "GazeLink Simulator",
		}}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Runtime{
		logger: logger,
		hardware: headset.HardwareInfo{
			SerialNumber: "SIM-" + uuid.NewString()[:8],
			Manufacturer: manifest.Manufacturer,
			Model:        manifest.Model,
		},
		hardwareCaps: caps,
		runtimeVer:   runtimeVer,
		licenses:     licenses,
		licenseKeys:  make(map[string]uuid.UUID),
		sessions:     make(map[string]*session),
		userPresent:  opts.UserPresent,
		scenario:     opts.Scenario,
		eyeSignal:    make(chan struct{}),
		renderSignal: make(chan struct{}),
		compSessions: make(map[string]*compSession),
		profiles:     profiles,
		config:       newConfigStore(),
		cfgPath:      filepath.Join(dataDir, "config.json"),
	}
	if err := r.config.Load(r.cfgPath); err != nil {
		return nil, err
	}
	return r, nil
}

// newConfigStore registers the runtime's configuration schema.
func newConfigStore() *config.Store {
	s := config.NewStore()
	s.RegisterBool("tracking.eye.enabled", true)
	s.RegisterInt("tracking.eye.rate_hz", 120)
	s.RegisterFloat("render.iod", 0.064)
	s.RegisterFloat("gaze.smoothing", 0.2)
	s.RegisterString("compositor.adapter", "sim-adapter-0")
	return s
}

// Close shuts the runtime down. Blocked waiters return
// Connect_NotConnected.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	close(r.eyeSignal)
	close(r.renderSignal)
	return r.config.Save(r.cfgPath)
}

// Run steps the runtime on a wall-clock ticker until ctx ends.
func (r *Runtime) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Step(interval)
		}
	}
}

// ---------------------------------------------------------------------------
// headset.SessionService
// ---------------------------------------------------------------------------

// OpenSession registers a client session.
func (r *Runtime) OpenSession(sessionID string, active, passive capability.Capabilities) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return status.New(status.CodeNotConnected)
	}
	if sessionID == "" {
		return status.Newf(status.CodeInvalidArgument, "empty session id")
	}
	if _, ok := r.sessions[sessionID]; ok {
		return status.Newf(status.CodeAlreadyRegistered, "session %s", sessionID)
	}
	if err := r.checkCapsLocked(active.Union(passive)); err != nil {
		return err
	}
	r.sessions[sessionID] = &session{
		active:  active,
		passive: passive,
		objects: make(map[int64]scene.GazableObject),
		cameras: make(map[int64]scene.CameraObject),
	}
	r.logger.Debug("session opened", "session_id", sessionID, "active", active.String(), "passive", passive.String())
	return nil
}

// CloseSession unregisters a session and drops its scene registrations.
func (r *Runtime) CloseSession(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return status.Newf(status.CodeInvalidArgument, "unknown session %s", sessionID)
	}
	delete(r.sessions, sessionID)
	if r.calib.renderer == sessionID {
		r.calib.renderer = ""
	}
	r.logger.Debug("session closed", "session_id", sessionID)
	return nil
}

// UpdateCapabilities replaces a session's capability sets.
func (r *Runtime) UpdateCapabilities(sessionID string, active, passive capability.Capabilities) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return status.Newf(status.CodeInvalidArgument, "unknown session %s", sessionID)
	}
	if err := r.checkCapsLocked(active.Union(passive)); err != nil {
		return err
	}
	s.active = active
	s.passive = passive
	return nil
}

// checkCapsLocked verifies the requested capabilities against hardware
// support and license grade.
func (r *Runtime) checkCapsLocked(caps capability.Capabilities) error {
	if unsupported := caps.Subtract(r.hardwareCaps); !unsupported.IsEmpty() {
		return status.Newf(status.CodeInvalidArgument, "hardware does not support %s", unsupported)
	}
	research := headset.ResearchGradeCapabilities
	if caps.Intersects(research) && !r.hasLicenseLocked(headset.LicenseTypeResearch, headset.LicenseTypeProfessional) {
		return status.Newf(status.CodeFeatureAccessDenied, "%s requires a research license", caps.Intersect(research))
	}
	return nil
}

func (r *Runtime) hasLicenseLocked(types ...headset.LicenseType) bool {
	now := time.Now()
	for _, l := range r.licenses {
		if l.Expired(now) {
			continue
		}
		for _, t := range types {
			if l.Type == t {
				return true
			}
		}
	}
	return false
}

// activeCapsLocked is the union of all sessions' active sets. Frames
// are produced only for domains present here.
func (r *Runtime) activeCapsLocked() capability.Capabilities {
	caps := capability.None
	for _, s := range r.sessions {
		caps = caps.Union(s.active)
	}
	return caps
}

// Versions reports the runtime and firmware versions.
func (r *Runtime) Versions() (version.Versions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return version.Versions{}, status.New(status.CodeNotConnected)
	}
	return version.Versions{
		Runtime:     r.runtimeVer,
		Firmware:    147,
		MaxFirmware: 147,
	}, nil
}

// HardwareInfo reports the simulated hardware identity.
func (r *Runtime) HardwareInfo() (headset.HardwareInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return headset.HardwareInfo{}, status.New(status.CodeNotConnected)
	}
	return r.hardware, nil
}

// Licenses reports the activated licenses.
func (r *Runtime) Licenses() ([]headset.LicenseInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, status.New(status.CodeNotConnected)
	}
	out := make([]headset.LicenseInfo, len(r.licenses))
	copy(out, r.licenses)
	return out, nil
}

// ActivateLicense registers a license key. The key prefix selects the
// license grade: "trial-" and "research-" keys activate those types,
// everything else is professional.
func (r *Runtime) ActivateLicense(key string) (headset.LicenseInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return headset.LicenseInfo{}, status.New(status.CodeNotConnected)
	}
	if key == "" {
		return headset.LicenseInfo{}, status.Newf(status.CodeInvalidArgument, "empty license key")
	}
	if _, ok := r.licenseKeys[key]; ok {
		return headset.LicenseInfo{}, status.Newf(status.CodeAlreadyRegistered, "license key already activated")
	}

	licenseType := headset.LicenseTypeProfessional
	licensee := key
	switch {
	case strings.HasPrefix(key, "trial-"):
		licenseType = headset.LicenseTypeTrial
		licensee = strings.TrimPrefix(key, "trial-")
	case strings.HasPrefix(key, "research-"):
		licenseType = headset.LicenseTypeResearch
		licensee = strings.TrimPrefix(key, "research-")
	}
	info := headset.LicenseInfo{
		UUID:     uuid.New(),
		Type:     licenseType,
		Licensee: licensee,
	}
	r.licenses = append(r.licenses, info)
	r.licenseKeys[key] = info.UUID
	r.logger.Debug("license activated", "type", string(licenseType), "licensee", licensee)
	return info, nil
}

// DeactivateLicense removes a license previously activated by key.
func (r *Runtime) DeactivateLicense(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return status.New(status.CodeNotConnected)
	}
	id, ok := r.licenseKeys[key]
	if !ok {
		return status.Newf(status.CodeInvalidArgument, "unknown license key")
	}
	delete(r.licenseKeys, key)
	for i, l := range r.licenses {
		if l.UUID == id {
			r.licenses = append(r.licenses[:i], r.licenses[i+1:]...)
			break
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// headset.SceneService
// ---------------------------------------------------------------------------

// RegisterObject mirrors a client's gazable object registration.
func (r *Runtime) RegisterObject(sessionID string, obj scene.GazableObject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return status.Newf(status.CodeInvalidArgument, "unknown session %s", sessionID)
	}
	if obj.ID <= scene.ObjectIDInvalid {
		return status.Newf(status.CodeInvalidArgument, "object id %d", obj.ID)
	}
	if _, ok := s.objects[obj.ID]; ok {
		return status.Newf(status.CodeAlreadyRegistered, "object %d", obj.ID)
	}
	s.objects[obj.ID] = obj
	return nil
}

// UpdateObjectPose updates a mirrored object's pose.
func (r *Runtime) UpdateObjectPose(sessionID string, id int64, pose scene.ObjectPose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return status.Newf(status.CodeInvalidArgument, "unknown session %s", sessionID)
	}
	obj, ok := s.objects[id]
	if !ok {
		return status.Newf(status.CodeInvalidArgument, "object %d not registered", id)
	}
	obj.Pose = pose
	s.objects[id] = obj
	return nil
}

// RemoveObject removes a mirrored object.
func (r *Runtime) RemoveObject(sessionID string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return status.Newf(status.CodeInvalidArgument, "unknown session %s", sessionID)
	}
	if _, ok := s.objects[id]; !ok {
		return status.Newf(status.CodeInvalidArgument, "object %d not registered", id)
	}
	delete(s.objects, id)
	return nil
}

// RegisterCamera mirrors a client's camera registration.
func (r *Runtime) RegisterCamera(sessionID string, cam scene.CameraObject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return status.Newf(status.CodeInvalidArgument, "unknown session %s", sessionID)
	}
	if cam.ID <= scene.ObjectIDInvalid {
		return status.Newf(status.CodeInvalidArgument, "camera id %d", cam.ID)
	}
	if _, ok := s.cameras[cam.ID]; ok {
		return status.Newf(status.CodeAlreadyRegistered, "camera %d", cam.ID)
	}
	s.cameras[cam.ID] = cam
	return nil
}

// UpdateCameraPose updates a mirrored camera's pose.
func (r *Runtime) UpdateCameraPose(sessionID string, id int64, pose scene.ObjectPose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return status.Newf(status.CodeInvalidArgument, "unknown session %s", sessionID)
	}
	cam, ok := s.cameras[id]
	if !ok {
		return status.Newf(status.CodeInvalidArgument, "camera %d not registered", id)
	}
	cam.Pose = pose
	s.cameras[id] = cam
	return nil
}

// RemoveCamera removes a mirrored camera.
func (r *Runtime) RemoveCamera(sessionID string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return status.Newf(status.CodeInvalidArgument, "unknown session %s", sessionID)
	}
	if _, ok := s.cameras[id]; !ok {
		return status.Newf(status.CodeInvalidArgument, "camera %d not registered", id)
	}
	delete(s.cameras, id)
	return nil
}

// ---------------------------------------------------------------------------
// headset.ProfileService
// ---------------------------------------------------------------------------

// CreateProfile creates a user profile.
func (r *Runtime) CreateProfile(name string) error { return r.profiles.Create(name) }

// RenameProfile renames a user profile.
func (r *Runtime) RenameProfile(oldName, newName string) error {
	return r.profiles.Rename(oldName, newName)
}

// DeleteProfile deletes a user profile.
func (r *Runtime) DeleteProfile(name string) error { return r.profiles.Delete(name) }

// ListProfiles lists all user profiles.
func (r *Runtime) ListProfiles() ([]string, error) { return r.profiles.List(), nil }

// SetCurrentProfile makes a profile current.
func (r *Runtime) SetCurrentProfile(name string) error { return r.profiles.SetCurrent(name) }

// CurrentProfile returns the current profile name.
func (r *Runtime) CurrentProfile() (string, error) { return r.profiles.Current(), nil }

// ProfileDataPath returns a profile's data directory.
func (r *Runtime) ProfileDataPath(name string) (string, error) { return r.profiles.DataPath(name) }

// ---------------------------------------------------------------------------
// headset.ConfigService
// ---------------------------------------------------------------------------

// ConfigBool reads a bool config key.
func (r *Runtime) ConfigBool(key string) (bool, error) { return r.config.Bool(key) }

// ConfigInt reads an int config key.
func (r *Runtime) ConfigInt(key string) (int64, error) { return r.config.Int(key) }

// ConfigFloat reads a float config key.
func (r *Runtime) ConfigFloat(key string) (float64, error) { return r.config.Float(key) }

// ConfigString reads a string config key.
func (r *Runtime) ConfigString(key string) (string, error) { return r.config.String(key) }

// SetConfigBool writes a bool config key.
func (r *Runtime) SetConfigBool(key string, value bool) error { return r.config.SetBool(key, value) }

// SetConfigInt writes an int config key.
func (r *Runtime) SetConfigInt(key string, value int64) error { return r.config.SetInt(key, value) }

// SetConfigFloat writes a float config key.
func (r *Runtime) SetConfigFloat(key string, value float64) error {
	return r.config.SetFloat(key, value)
}

// SetConfigString writes a string config key.
func (r *Runtime) SetConfigString(key string, value string) error {
	return r.config.SetString(key, value)
}

// ClearConfig resets a config key to its default.
func (r *Runtime) ClearConfig(key string) error { return r.config.Clear(key) }

// Compile-time interface satisfaction checks.
var (
	_ headset.Service    = (*Runtime)(nil)
	_ compositor.Service = (*Runtime)(nil)
)
