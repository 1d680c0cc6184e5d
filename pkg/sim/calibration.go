package sim

import (
	"math"
	"time"

	"github.com/gazelink-protocol/gazelink-go/pkg/calibration"
	"github.com/gazelink-protocol/gazelink-go/pkg/geom"
	"github.com/gazelink-protocol/gazelink-go/pkg/headset"
	"github.com/gazelink-protocol/gazelink-go/pkg/status"
)

// rendererTimeout is how long a prioritized renderer may stop ticking
// before losing its priority. After selfRenderTimeout with no renderer
// at all, the runtime renders the process itself.
const (
	rendererTimeout   = 500 * time.Millisecond
	selfRenderTimeout = 2 * time.Second
)

// targetCount is how many targets a spiral process presents.
const targetCount = 3

// Phase durations of the simulated process.
const (
	waitingPhase    = 300 * time.Millisecond
	collectingPhase = 600 * time.Millisecond
	processingPhase = 400 * time.Millisecond
)

// hmdAdjustmentTimeout is how long the adjustment overlay stays up
// before the runtime gives up and hides it.
const hmdAdjustmentTimeout = 10 * time.Second

type calibProcess struct {
	state   calibration.State
	method  calibration.Method
	opts    calibration.Options
	elapsed time.Duration
	target  int

	// renderer is the session currently prioritized to draw the
	// process. sinceTick tracks how long it has been silent.
	renderer  string
	sinceTick time.Duration
	// sinceAnyTick tracks how long no session at all has ticked.
	sinceAnyTick time.Duration

	// adjustShown is how long the headset adjustment overlay has been
	// up for this process.
	adjustShown    time.Duration
	adjustTimedOut bool
}

// adjustGuiVisibleLocked reports whether the adjustment overlay is up.
// It shows while the process waits for the user on its first target.
func (r *Runtime) adjustGuiVisibleLocked() bool {
	c := &r.calib
	return c.state == calibration.WaitingForUser && c.target == 0 && !c.adjustTimedOut
}

// HmdAdjustmentGuiVisible reports whether the runtime is showing its
// headset adjustment overlay.
func (r *Runtime) HmdAdjustmentGuiVisible() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, status.New(status.CodeNotConnected)
	}
	return r.adjustGuiVisibleLocked(), nil
}

// HmdAdjustmentGuiTimeout reports whether the adjustment overlay was
// hidden because the user took too long.
func (r *Runtime) HmdAdjustmentGuiTimeout() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, status.New(status.CodeNotConnected)
	}
	return r.calib.adjustTimedOut, nil
}

// StartCalibration begins or joins a calibration process.
func (r *Runtime) StartCalibration(sessionID string, opts calibration.Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return status.New(status.CodeNotConnected)
	}
	if _, ok := r.sessions[sessionID]; !ok {
		return status.Newf(status.CodeInvalidArgument, "unknown session %s", sessionID)
	}
	if opts.EyeTorsion == calibration.TorsionAlways &&
		!r.hasLicenseLocked(headset.LicenseTypeResearch, headset.LicenseTypeProfessional) {
		return status.Newf(status.CodeFeatureAccessDenied, "eye torsion calibration requires a research license")
	}

	if opts.Lazy && r.calibrated && !r.calib.state.Running() {
		return nil
	}
	if r.calib.state.Running() && !opts.Restart {
		// Join the running process.
		return nil
	}

	method := opts.Method
	if method == calibration.MethodDefault {
		method = calibration.MethodSpiral
	}
	r.calib = calibProcess{
		state:  calibration.WaitingForUser,
		method: method,
		opts:   opts,
	}
	r.logger.Debug("calibration started", "session_id", sessionID, "method", method.String())
	return nil
}

// StopCalibration aborts the running process.
func (r *Runtime) StopCalibration(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return status.New(status.CodeNotConnected)
	}
	if _, ok := r.sessions[sessionID]; !ok {
		return status.Newf(status.CodeInvalidArgument, "unknown session %s", sessionID)
	}
	if r.calib.state.Running() {
		r.transitionLocked(calibration.FailedAborted)
	}
	return nil
}

// CalibrationState reports the current process state.
func (r *Runtime) CalibrationState() (calibration.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return calibration.NotStarted, status.New(status.CodeNotConnected)
	}
	return r.calib.state, nil
}

// TickCalibration advances the process for a rendering session. The
// first session that ticks with isVisible set becomes the prioritized
// renderer; only it receives displayable targets. Everyone else gets
// the state with Calibration_OtherRendererPrioritized so they can stop
// drawing.
func (r *Runtime) TickCalibration(sessionID string, dt time.Duration, isVisible bool) (calibration.Data, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return calibration.Data{}, status.New(status.CodeNotConnected)
	}
	if _, ok := r.sessions[sessionID]; !ok {
		return calibration.Data{}, status.Newf(status.CodeInvalidArgument, "unknown session %s", sessionID)
	}

	if !r.calib.state.Running() {
		return calibration.Data{Method: r.calib.method, State: r.calib.state}, nil
	}

	// Renderer arbitration.
	if r.calib.renderer == "" && isVisible {
		r.calib.renderer = sessionID
		r.calib.sinceTick = 0
		r.logger.Debug("calibration renderer selected", "session_id", sessionID)
	}
	if r.calib.renderer != sessionID {
		return calibration.Data{Method: r.calib.method, State: r.calib.state},
			status.New(status.CodeOtherRendererPrioritized)
	}

	r.calib.sinceTick = 0
	r.calib.sinceAnyTick = 0
	if !isVisible {
		// The prioritized renderer stopped drawing; free the slot.
		r.calib.renderer = ""
	}

	r.advanceCalibrationLocked(dt)
	return r.calibDataLocked(), nil
}

// advanceCalibrationClockLocked is called from Step. It ages the
// renderer arbitration and lets the runtime self-render an abandoned
// process so that it still completes.
func (r *Runtime) advanceCalibrationClockLocked(dt time.Duration) {
	if !r.calib.state.Running() {
		return
	}
	r.calib.sinceTick += dt
	r.calib.sinceAnyTick += dt
	if r.adjustGuiVisibleLocked() {
		r.calib.adjustShown += dt
		if r.calib.adjustShown > hmdAdjustmentTimeout {
			r.calib.adjustTimedOut = true
		}
	}
	if r.calib.renderer != "" && r.calib.sinceTick > rendererTimeout {
		r.logger.Debug("calibration renderer timed out", "session_id", r.calib.renderer)
		r.calib.renderer = ""
	}
	if r.calib.renderer == "" && r.calib.sinceAnyTick > selfRenderTimeout {
		r.advanceCalibrationLocked(dt)
	}
}

// advanceCalibrationLocked moves the process through its phases.
func (r *Runtime) advanceCalibrationLocked(dt time.Duration) {
	if !r.userPresent {
		r.transitionLocked(calibration.FailedNoUser)
		return
	}

	c := &r.calib
	c.elapsed += dt
	switch c.state {
	case calibration.WaitingForUser:
		if c.elapsed >= waitingPhase {
			c.elapsed = 0
			r.transitionLocked(calibration.CollectingData)
		}
	case calibration.CollectingData:
		if c.elapsed >= collectingPhase {
			c.elapsed = 0
			c.target++
			if c.target >= r.targetCountLocked() {
				r.transitionLocked(calibration.ProcessingData)
			} else {
				r.transitionLocked(calibration.WaitingForUser)
			}
		}
	case calibration.ProcessingData:
		if c.elapsed >= processingPhase {
			c.elapsed = 0
			r.calibrated = true
			r.calibratedForGlasses = c.method == calibration.MethodSpiral ||
				c.method == calibration.MethodOnePointWithNoGlassesSpiralWithGlasses
			r.transitionLocked(calibration.SuccessfulHighQuality)
		}
	}
}

func (r *Runtime) targetCountLocked() int {
	switch r.calib.method {
	case calibration.MethodZeroPoint:
		return 0
	case calibration.MethodOnePoint:
		return 1
	default:
		return targetCount
	}
}

func (r *Runtime) transitionLocked(to calibration.State) {
	from := r.calib.state
	if !calibration.ValidTransition(from, to) {
		// A skipped phase still has to land somewhere legal.
		r.logger.Warn("illegal calibration transition", "from", from.String(), "to", to.String())
		return
	}
	r.calib.state = to
	if to.IsTerminal() {
		r.calib.renderer = ""
	}
	r.logger.Debug("calibration state", "from", from.String(), "to", to.String())
}

// calibDataLocked builds the render data for the prioritized renderer.
func (r *Runtime) calibDataLocked() calibration.Data {
	c := r.calib
	data := calibration.Data{Method: c.method, State: c.state}
	if c.state == calibration.WaitingForUser || c.state == calibration.CollectingData {
		// Targets sweep across the view as the process advances.
		angle := float64(c.target) * 2.1
		target := calibration.Target{
			Position:        geom.Vec3{X: 0.3 * math.Cos(angle), Y: 0.3 * math.Sin(angle), Z: 1.5},
			RecommendedSize: 0.05,
		}
		data.TargetLeft = target
		data.TargetRight = target
	}
	return data
}
