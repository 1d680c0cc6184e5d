package sim

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazelink-protocol/gazelink-go/pkg/calibration"
	"github.com/gazelink-protocol/gazelink-go/pkg/capability"
	"github.com/gazelink-protocol/gazelink-go/pkg/compositor"
	"github.com/gazelink-protocol/gazelink-go/pkg/frame"
	"github.com/gazelink-protocol/gazelink-go/pkg/geom"
	"github.com/gazelink-protocol/gazelink-go/pkg/headset"
	"github.com/gazelink-protocol/gazelink-go/pkg/scene"
	"github.com/gazelink-protocol/gazelink-go/pkg/status"
)

func newRuntime(t *testing.T, opts Options) *Runtime {
	t.Helper()
	if opts.DataDir == "" {
		opts.DataDir = t.TempDir()
	}
	r, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func openSession(t *testing.T, r *Runtime, active, passive capability.Capabilities) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, r.OpenSession(id, active, passive))
	return id
}

func TestSessionLifecycle(t *testing.T) {
	r := newRuntime(t, Options{})

	id := openSession(t, r, capability.EyeTracking, capability.None)
	err := r.OpenSession(id, capability.None, capability.None)
	assert.ErrorIs(t, err, status.ErrAlreadyRegistered)

	require.NoError(t, r.CloseSession(id))
	err = r.CloseSession(id)
	assert.ErrorIs(t, err, status.ErrInvalidArgument)
}

func TestFramesRequireActiveRegistration(t *testing.T) {
	r := newRuntime(t, Options{UserPresent: true})

	// A passive-only session does not start frame production.
	openSession(t, r, capability.None, capability.EyeTracking)
	r.Step(10 * time.Millisecond)
	_, err := r.LatestEyeTracking()
	assert.ErrorIs(t, err, status.ErrNoUpdate)

	// An active registration from any session starts it.
	openSession(t, r, capability.EyeTracking, capability.None)
	r.Step(10 * time.Millisecond)
	f, err := r.LatestEyeTracking()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), f.Timestamp.ID)
	assert.True(t, f.UserPresent)
}

func TestFrameTimestampsAdvance(t *testing.T) {
	r := newRuntime(t, Options{UserPresent: true})
	openSession(t, r, capability.EyeTracking.Union(capability.OrientationTracking), capability.None)

	var last uint64
	for i := 0; i < 5; i++ {
		r.Step(10 * time.Millisecond)
		f, err := r.LatestEyeTracking()
		require.NoError(t, err)
		assert.Greater(t, f.Timestamp.ID, last)
		last = f.Timestamp.ID

		p, err := r.LatestPose()
		require.NoError(t, err)
		assert.Equal(t, last, p.Timestamp.ID)
	}
}

func TestWaitEyeFrame(t *testing.T) {
	r := newRuntime(t, Options{UserPresent: true})
	openSession(t, r, capability.EyeTracking, capability.None)
	r.Step(10 * time.Millisecond)

	f, err := r.LatestEyeTracking()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- r.WaitEyeFrame(context.Background(), f.Timestamp)
	}()

	select {
	case <-done:
		t.Fatal("wait returned before a newer frame exists")
	case <-time.After(50 * time.Millisecond):
	}

	r.Step(10 * time.Millisecond)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("wait did not return after a new frame")
	}

	// Already-satisfied waits return immediately.
	require.NoError(t, r.WaitEyeFrame(context.Background(), f.Timestamp))

	// Context cancellation unblocks.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	newest, err := r.LatestEyeTracking()
	require.NoError(t, err)
	err = r.WaitEyeFrame(ctx, newest.Timestamp)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUnreliableWithoutUser(t *testing.T) {
	r := newRuntime(t, Options{UserPresent: false})
	openSession(t, r, capability.EyeTracking, capability.None)

	r.Step(10 * time.Millisecond)
	f, err := r.LatestEyeTracking()
	require.NoError(t, err)
	assert.False(t, f.UserPresent)
	assert.ErrorIs(t, f.CombinedReliability.Err(), status.ErrUnreliable)

	r.SetUserPresent(true)
	r.Step(10 * time.Millisecond)
	f, err = r.LatestEyeTracking()
	require.NoError(t, err)
	assert.True(t, f.UserPresent)
	// Present but uncalibrated: the gaze is usable, just coarse.
	assert.ErrorIs(t, f.CombinedReliability.Err(), status.ErrLowAccuracy)
}

func TestLicenseGating(t *testing.T) {
	trial := []headset.LicenseInfo{{
		UUID: uuid.New(), Type: headset.LicenseTypeTrial, Licensee: "trial user",
	}}
	r := newRuntime(t, Options{Licenses: trial})

	err := r.OpenSession(uuid.NewString(), capability.EyeTorsion, capability.None)
	assert.ErrorIs(t, err, status.ErrFeatureAccessDenied)

	// Non-research capabilities stay available.
	id := openSession(t, r, capability.EyeTracking, capability.None)
	err = r.UpdateCapabilities(id, capability.EyeTracking.Union(capability.EyesImage), capability.None)
	assert.ErrorIs(t, err, status.ErrFeatureAccessDenied)
}

func TestUnsupportedHardwareCapability(t *testing.T) {
	// The first-generation model has no torsion sensor.
	r := newRuntime(t, Options{Hardware: "gl1"})
	err := r.OpenSession(uuid.NewString(), capability.EyeTorsion, capability.None)
	assert.ErrorIs(t, err, status.ErrInvalidArgument)
}

func TestCalibrationFlow(t *testing.T) {
	r := newRuntime(t, Options{UserPresent: true})
	renderer := openSession(t, r, capability.EyeTracking, capability.None)
	other := openSession(t, r, capability.EyeTracking, capability.None)

	require.NoError(t, r.StartCalibration(renderer, calibration.Options{}))
	st, err := r.CalibrationState()
	require.NoError(t, err)
	assert.True(t, st.Running())

	// First visible ticker becomes the prioritized renderer.
	_, err = r.TickCalibration(renderer, 50*time.Millisecond, true)
	require.NoError(t, err)

	_, err = r.TickCalibration(other, 50*time.Millisecond, true)
	assert.ErrorIs(t, err, status.ErrOtherRendererPrioritized)

	prev, err := r.CalibrationState()
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		data, err := r.TickCalibration(renderer, 100*time.Millisecond, true)
		require.NoError(t, err)
		assert.True(t, calibration.ValidTransition(prev, data.State),
			"%s -> %s", prev, data.State)
		prev = data.State
		if data.State.IsTerminal() {
			break
		}
	}
	assert.Equal(t, calibration.SuccessfulHighQuality, prev)

	ts, err := r.Status()
	require.NoError(t, err)
	assert.True(t, ts.EyeTrackingCalibrated)
	assert.False(t, ts.EyeTrackingCalibrating)

	// Lazy start with an existing calibration is a no-op.
	require.NoError(t, r.StartCalibration(renderer, calibration.Options{Lazy: true}))
	st, err = r.CalibrationState()
	require.NoError(t, err)
	assert.True(t, st.IsSuccess())
}

func TestCalibrationAbortAndNoUser(t *testing.T) {
	r := newRuntime(t, Options{UserPresent: true})
	id := openSession(t, r, capability.EyeTracking, capability.None)

	require.NoError(t, r.StartCalibration(id, calibration.Options{}))
	require.NoError(t, r.StopCalibration(id))
	st, err := r.CalibrationState()
	require.NoError(t, err)
	assert.Equal(t, calibration.FailedAborted, st)

	// Restarting replaces the failed process; losing the user fails it.
	require.NoError(t, r.StartCalibration(id, calibration.Options{Restart: true}))
	r.SetUserPresent(false)
	_, err = r.TickCalibration(id, 50*time.Millisecond, true)
	require.NoError(t, err)
	st, err = r.CalibrationState()
	require.NoError(t, err)
	assert.Equal(t, calibration.FailedNoUser, st)
}

func TestCalibrationSelfRender(t *testing.T) {
	r := newRuntime(t, Options{UserPresent: true})
	id := openSession(t, r, capability.EyeTracking, capability.None)
	require.NoError(t, r.StartCalibration(id, calibration.Options{Method: calibration.MethodOnePoint}))

	// Nobody ever ticks. After the self-render timeout the runtime
	// finishes the process on its own.
	for i := 0; i < 200; i++ {
		r.Step(100 * time.Millisecond)
		st, err := r.CalibrationState()
		require.NoError(t, err)
		if st.IsTerminal() {
			assert.True(t, st.IsSuccess(), st.String())
			return
		}
	}
	t.Fatal("abandoned calibration never completed")
}

func TestGazedObjectDetection(t *testing.T) {
	scenario := &Scenario{
		Gaze: []GazeKey{{At: 0, Direction: geom.Vec3{Z: 1}}},
	}
	r := newRuntime(t, Options{UserPresent: true, Scenario: scenario})
	id := openSession(t, r, capability.EyeTracking.Union(capability.GazedObjectDetection), capability.None)

	require.NoError(t, r.RegisterObject(id, scene.GazableObject{
		ID:       7,
		Pose:     scene.ObjectPose{Position: geom.Vec3{Z: 2}},
		Collider: scene.SphereCollider(0.5),
	}))
	// An object far off the gaze line is never reported.
	require.NoError(t, r.RegisterObject(id, scene.GazableObject{
		ID:       8,
		Pose:     scene.ObjectPose{Position: geom.Vec3{X: 10, Z: 2}},
		Collider: scene.SphereCollider(0.5),
	}))

	r.Step(10 * time.Millisecond)
	f, err := r.LatestEyeTracking()
	require.NoError(t, err)
	assert.Equal(t, int64(7), f.GazedObjectID)

	require.NoError(t, r.RemoveObject(id, 7))
	r.Step(10 * time.Millisecond)
	f, err = r.LatestEyeTracking()
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.GazedObjectID)

	// An object enclosing the viewer is still gazed at; the ray exits
	// through its far side.
	require.NoError(t, r.RegisterObject(id, scene.GazableObject{
		ID:       9,
		Pose:     scene.ObjectPose{Position: geom.Vec3{Z: 2}},
		Collider: scene.SphereCollider(10),
	}))
	r.Step(10 * time.Millisecond)
	f, err = r.LatestEyeTracking()
	require.NoError(t, err)
	assert.Equal(t, int64(9), f.GazedObjectID)
}

func TestCompositorLayers(t *testing.T) {
	r := newRuntime(t, Options{})
	session := uuid.NewString()
	require.NoError(t, r.OpenCompositorSession(session))

	// Not ready before the first step.
	ready, err := r.Ready()
	require.NoError(t, err)
	assert.False(t, ready)
	_, err = r.CreateLayer(session, compositor.LayerCreateInfo{Type: compositor.LayerTypeBase})
	assert.ErrorIs(t, err, status.ErrTimeout)

	r.Step(10 * time.Millisecond)
	layer, err := r.CreateLayer(session, compositor.LayerCreateInfo{Type: compositor.LayerTypeBase})
	require.NoError(t, err)
	assert.Positive(t, layer.ID)
	assert.Positive(t, layer.IdealResolution.Width)

	// One layer per type.
	_, err = r.CreateLayer(session, compositor.LayerCreateInfo{Type: compositor.LayerTypeBase})
	assert.ErrorIs(t, err, status.ErrAlreadyRegistered)
	_, err = r.CreateLayer(session, compositor.LayerCreateInfo{Type: compositor.LayerTypeOverlay})
	require.NoError(t, err)

	// Layers persist across detach and reattach.
	require.NoError(t, r.CloseCompositorSession(session))
	require.NoError(t, r.OpenCompositorSession(session))
	_, err = r.CreateLayer(session, compositor.LayerCreateInfo{Type: compositor.LayerTypeBase})
	assert.ErrorIs(t, err, status.ErrAlreadyRegistered)

	require.NoError(t, r.Submit(session, compositor.LayerSubmitInfo{LayerID: layer.ID}))
	err = r.Submit(session, compositor.LayerSubmitInfo{LayerID: 999})
	assert.ErrorIs(t, err, status.ErrInvalidArgument)
}

func TestWaitForRenderPose(t *testing.T) {
	r := newRuntime(t, Options{})

	_, err := r.LastRenderPose()
	assert.ErrorIs(t, err, status.ErrNoUpdate)

	type result struct {
		pose uint64
		err  error
	}
	done := make(chan result, 1)
	go func() {
		p, err := r.WaitForRenderPose(context.Background())
		done <- result{p.Timestamp.ID, err}
	}()

	time.Sleep(20 * time.Millisecond)
	r.Step(10 * time.Millisecond)

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, uint64(1), res.pose)
	case <-time.After(time.Second):
		t.Fatal("render pose wait did not return")
	}

	p, err := r.LastRenderPose()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.Timestamp.ID)
}

func TestProjections(t *testing.T) {
	r := newRuntime(t, Options{})

	_, err := r.ProjectionMatrices(0, 100)
	assert.ErrorIs(t, err, status.ErrInvalidArgument)
	_, err = r.ProjectionMatrices(1, 0.5)
	assert.ErrorIs(t, err, status.ErrInvalidArgument)

	m, err := r.ProjectionMatrices(0.1, 100)
	require.NoError(t, err)
	assert.NotEqual(t, m.Left, m.Right)
	assert.Equal(t, -1.0, m.Left[3][2])

	raw, err := r.RawProjectionValues()
	require.NoError(t, err)
	assert.Less(t, raw.Left.Left, 0.0)
	assert.Greater(t, raw.Left.Right, 0.0)

	iod, err := r.RenderIOD()
	require.NoError(t, err)
	assert.InDelta(t, 0.064, iod, 1e-9)
}

func TestConfigPersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	r, err := New(Options{DataDir: dir})
	require.NoError(t, err)
	require.NoError(t, r.SetConfigFloat("render.iod", 0.07))
	require.NoError(t, r.Close())

	r2, err := New(Options{DataDir: dir})
	require.NoError(t, err)
	defer r2.Close()
	v, err := r2.ConfigFloat("render.iod")
	require.NoError(t, err)
	assert.InDelta(t, 0.07, v, 1e-9)
}

func TestScenarioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	content := `
hardware: gl1
presence:
  - at: 100ms
    present: true
  - at: 2s
    present: false
gaze:
  - at: 0s
    direction: {x: 0, y: 0, z: 1}
  - at: 1s
    direction: {x: 1, y: 0, z: 1}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "gl1", s.Hardware)

	assert.False(t, s.presentAt(50*time.Millisecond))
	assert.True(t, s.presentAt(500*time.Millisecond))
	assert.False(t, s.presentAt(3*time.Second))

	v, ok := s.gazeAt(500 * time.Millisecond)
	require.True(t, ok)
	assert.InDelta(t, 0.5, v.X, 1e-9)
	assert.InDelta(t, 1.0, v.Z, 1e-9)
}

func TestClosedRuntime(t *testing.T) {
	r := newRuntime(t, Options{})
	openSession(t, r, capability.EyeTracking, capability.None)
	require.NoError(t, r.Close())

	_, err := r.LatestEyeTracking()
	assert.ErrorIs(t, err, status.ErrNotConnected)
	err = r.WaitEyeFrame(context.Background(), frame.Timestamp{})
	assert.ErrorIs(t, err, status.ErrNotConnected)
	_, err = r.Versions()
	assert.ErrorIs(t, err, status.ErrNotConnected)
}

func TestLicenseActivation(t *testing.T) {
	trial := []headset.LicenseInfo{{
		UUID: uuid.New(), Type: headset.LicenseTypeTrial, Licensee: "trial user",
	}}
	r := newRuntime(t, Options{Licenses: trial})

	err := r.OpenSession(uuid.NewString(), capability.EyeShape, capability.None)
	assert.ErrorIs(t, err, status.ErrFeatureAccessDenied)

	info, err := r.ActivateLicense("research-lab42")
	require.NoError(t, err)
	assert.Equal(t, headset.LicenseTypeResearch, info.Type)
	assert.Equal(t, "lab42", info.Licensee)

	// Activating the same key twice is rejected.
	_, err = r.ActivateLicense("research-lab42")
	assert.ErrorIs(t, err, status.ErrAlreadyRegistered)

	id := openSession(t, r, capability.EyeShape, capability.None)
	require.NoError(t, r.CloseSession(id))

	assert.Error(t, r.DeactivateLicense("no-such-key"))
	require.NoError(t, r.DeactivateLicense("research-lab42"))

	err = r.OpenSession(uuid.NewString(), capability.EyeShape, capability.None)
	assert.ErrorIs(t, err, status.ErrFeatureAccessDenied)

	licenses, err := r.Licenses()
	require.NoError(t, err)
	assert.Len(t, licenses, 1)
}

func TestHmdAdjustmentGui(t *testing.T) {
	r := newRuntime(t, Options{UserPresent: true})
	id := openSession(t, r, capability.EyeTracking, capability.None)

	visible, err := r.HmdAdjustmentGuiVisible()
	require.NoError(t, err)
	assert.False(t, visible)

	require.NoError(t, r.StartCalibration(id, calibration.Options{Method: calibration.MethodOnePoint}))
	visible, err = r.HmdAdjustmentGuiVisible()
	require.NoError(t, err)
	assert.True(t, visible)

	// The overlay comes down once the process moves past the first
	// waiting phase.
	for i := 0; i < 100; i++ {
		data, err := r.TickCalibration(id, 100*time.Millisecond, true)
		require.NoError(t, err)
		if data.State.IsTerminal() {
			break
		}
	}
	visible, err = r.HmdAdjustmentGuiVisible()
	require.NoError(t, err)
	assert.False(t, visible)

	timedOut, err := r.HmdAdjustmentGuiTimeout()
	require.NoError(t, err)
	assert.False(t, timedOut)
}

func TestCalibratedForGlasses(t *testing.T) {
	r := newRuntime(t, Options{UserPresent: true})
	id := openSession(t, r, capability.EyeTracking, capability.None)

	require.NoError(t, r.StartCalibration(id, calibration.Options{Method: calibration.MethodSpiral}))
	for i := 0; i < 100; i++ {
		data, err := r.TickCalibration(id, 100*time.Millisecond, true)
		require.NoError(t, err)
		if data.State.IsTerminal() {
			require.True(t, data.State.IsSuccess())
			break
		}
	}

	st, err := r.Status()
	require.NoError(t, err)
	assert.True(t, st.EyeTrackingCalibrated)
	assert.True(t, st.EyeTrackingCalibratedForGlasses)

	// A one point recalibration is not glasses aware.
	require.NoError(t, r.StartCalibration(id, calibration.Options{
		Method: calibration.MethodOnePoint, Restart: true,
	}))
	for i := 0; i < 100; i++ {
		data, err := r.TickCalibration(id, 100*time.Millisecond, true)
		require.NoError(t, err)
		if data.State.IsTerminal() {
			break
		}
	}
	st, err = r.Status()
	require.NoError(t, err)
	assert.False(t, st.EyeTrackingCalibratedForGlasses)
}
