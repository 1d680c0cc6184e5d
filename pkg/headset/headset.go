package headset

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gazelink-protocol/gazelink-go/pkg/capability"
	"github.com/gazelink-protocol/gazelink-go/pkg/frame"
	"github.com/gazelink-protocol/gazelink-go/pkg/log"
	"github.com/gazelink-protocol/gazelink-go/pkg/scene"
	"github.com/gazelink-protocol/gazelink-go/pkg/status"
	"github.com/gazelink-protocol/gazelink-go/pkg/version"
)

// Config configures a Headset client.
type Config struct {
	// Capabilities is the initial active capability set.
	Capabilities capability.Capabilities

	// PassiveCapabilities is the initial passive capability set. Passive
	// registration grants data access without keeping the hardware
	// running for it.
	PassiveCapabilities capability.Capabilities

	// EventLogger receives SDK events. Nil disables event capture.
	EventLogger log.Logger

	// Logger is the operational logger. Nil uses slog.Default().
	Logger *slog.Logger

	// ClientVersion overrides the library version, for tests. Zero means
	// version.Current.
	ClientVersion version.Version
}

// Headset is the GazeLink client. All methods are safe for concurrent
// use.
//
// A Headset starts detached: capability and scene registrations are
// accepted and remembered immediately, and pushed to the service when
// Connect establishes a session.
type Headset struct {
	mu        sync.RWMutex
	svc       Service
	sessionID string
	closed    bool

	clientVersion version.Version
	events        log.Logger
	logger        *slog.Logger

	caps  *capability.Registry
	scene *scene.Registry

	eyeCache           frame.Cache[frame.EyeTrackingFrame]
	eyesImageCache     frame.Cache[frame.EyesImageFrame]
	poseCache          frame.Cache[frame.PoseFrame]
	positionImageCache frame.Cache[frame.PositionImageFrame]
}

// New creates a detached Headset.
func New(cfg Config) *Headset {
	h := &Headset{
		clientVersion: cfg.ClientVersion,
		events:        cfg.EventLogger,
		logger:        cfg.Logger,
		caps:          capability.NewRegistry(),
		scene:         scene.NewRegistry(),
	}
	if h.clientVersion == (version.Version{}) {
		h.clientVersion = version.MustParse(version.Current)
	}
	if h.events == nil {
		h.events = log.NoopLogger{}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.caps.Register(cfg.Capabilities)
	h.caps.RegisterPassive(cfg.PassiveCapabilities)
	return h
}

// Connect opens a session on the service, verifies version
// compatibility, and replays the capability and scene registrations
// accumulated while detached.
func (h *Headset) Connect(svc Service) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return status.New(status.CodeNotConnected)
	}
	if h.svc != nil {
		return status.Newf(status.CodeInvalidArgument, "already connected")
	}

	versions, err := svc.Versions()
	if err != nil {
		return err
	}
	if err := version.CheckCompatibility(h.clientVersion, versions.Runtime); err != nil {
		return err
	}

	sessionID := uuid.NewString()
	if err := svc.OpenSession(sessionID, h.caps.Active(), h.caps.Passive()); err != nil {
		return err
	}

	for _, obj := range h.scene.Objects() {
		if err := svc.RegisterObject(sessionID, obj); err != nil {
			_ = svc.CloseSession(sessionID)
			return err
		}
	}
	for _, cam := range h.scene.Cameras() {
		if err := svc.RegisterCamera(sessionID, cam); err != nil {
			_ = svc.CloseSession(sessionID)
			return err
		}
	}

	h.svc = svc
	h.sessionID = sessionID
	h.logger.Debug("session opened",
		"session_id", sessionID,
		"runtime", versions.Runtime.String(),
		"capabilities", h.caps.Effective().String())
	h.logEvent(log.Event{
		Category: log.CategorySession,
		Session: &log.SessionEvent{
			NewState:     "open",
			Capabilities: uint32(h.caps.Effective()),
		},
	})
	return nil
}

// Disconnect closes the session but keeps local registrations and
// cached frames, so a later Connect resumes where it left off.
func (h *Headset) Disconnect() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disconnectLocked("disconnect")
}

// Close disconnects and marks the client unusable. Closing a closed
// Headset is a no-op.
func (h *Headset) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	err := h.disconnectLocked("close")
	if err != nil && status.CodeOf(err) != status.CodeNotConnected {
		return err
	}
	h.closed = true
	return nil
}

func (h *Headset) disconnectLocked(reason string) error {
	if h.svc == nil {
		return status.New(status.CodeNotConnected)
	}
	err := h.svc.CloseSession(h.sessionID)
	h.logEvent(log.Event{
		Category: log.CategorySession,
		Session:  &log.SessionEvent{OldState: "open", NewState: "closed", Reason: reason},
	})
	h.logger.Debug("session closed", "session_id", h.sessionID, "reason", reason)
	h.svc = nil
	h.sessionID = ""
	return err
}

// service returns the connected service, or Connect_NotConnected.
func (h *Headset) service() (Service, string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.svc == nil {
		return nil, "", status.New(status.CodeNotConnected)
	}
	return h.svc, h.sessionID, nil
}

// Connected reports whether a session is open.
func (h *Headset) Connected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.svc != nil
}

func (h *Headset) logEvent(e log.Event) {
	e.Timestamp = time.Now()
	e.SessionID = h.sessionID
	h.events.Log(e)
}

// ---------------------------------------------------------------------------
// Capabilities
// ---------------------------------------------------------------------------

// RegisterCapabilities adds capabilities to the active set. Registering
// an already registered capability is a no-op.
func (h *Headset) RegisterCapabilities(caps capability.Capabilities) error {
	return h.updateCaps(func(r *capability.Registry) { r.Register(caps) })
}

// UnregisterCapabilities removes capabilities from the active set.
func (h *Headset) UnregisterCapabilities(caps capability.Capabilities) error {
	return h.updateCaps(func(r *capability.Registry) { r.Unregister(caps) })
}

// RegisterPassiveCapabilities adds capabilities to the passive set. A
// passive registration reads data that other clients' active
// registrations keep flowing; it never starts hardware itself.
func (h *Headset) RegisterPassiveCapabilities(caps capability.Capabilities) error {
	return h.updateCaps(func(r *capability.Registry) { r.RegisterPassive(caps) })
}

// UnregisterPassiveCapabilities removes capabilities from the passive set.
func (h *Headset) UnregisterPassiveCapabilities(caps capability.Capabilities) error {
	return h.updateCaps(func(r *capability.Registry) { r.UnregisterPassive(caps) })
}

func (h *Headset) updateCaps(apply func(*capability.Registry)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	prevActive, prevPassive := h.caps.Active(), h.caps.Passive()
	apply(h.caps)

	if h.svc == nil {
		return nil
	}
	if err := h.svc.UpdateCapabilities(h.sessionID, h.caps.Active(), h.caps.Passive()); err != nil {
		// The service rejected the set (e.g. unlicensed capability);
		// restore the previous local state.
		h.caps.Unregister(capability.All())
		h.caps.UnregisterPassive(capability.All())
		h.caps.Register(prevActive)
		h.caps.RegisterPassive(prevPassive)
		return err
	}
	return nil
}

// ActiveCapabilities returns the active capability set.
func (h *Headset) ActiveCapabilities() capability.Capabilities {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.caps.Active()
}

// PassiveCapabilities returns the passive capability set.
func (h *Headset) PassiveCapabilities() capability.Capabilities {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.caps.Passive()
}

// checkRegistered verifies at least one of the given capabilities is
// registered, actively or passively.
func (h *Headset) checkRegistered(caps capability.Capabilities) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.caps.CanQuery(caps) {
		return status.Newf(status.CodeNotRegistered, "requires %s", caps)
	}
	return nil
}
