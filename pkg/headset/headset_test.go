package headset_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazelink-protocol/gazelink-go/pkg/calibration"
	"github.com/gazelink-protocol/gazelink-go/pkg/capability"
	"github.com/gazelink-protocol/gazelink-go/pkg/geom"
	"github.com/gazelink-protocol/gazelink-go/pkg/headset"
	"github.com/gazelink-protocol/gazelink-go/pkg/scene"
	"github.com/gazelink-protocol/gazelink-go/pkg/sim"
	"github.com/gazelink-protocol/gazelink-go/pkg/status"
	"github.com/gazelink-protocol/gazelink-go/pkg/version"
)

func newSim(t *testing.T, opts sim.Options) *sim.Runtime {
	t.Helper()
	if opts.DataDir == "" {
		opts.DataDir = t.TempDir()
	}
	r, err := sim.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func connected(t *testing.T, r *sim.Runtime, caps capability.Capabilities) *headset.Headset {
	t.Helper()
	h := headset.New(headset.Config{Capabilities: caps})
	require.NoError(t, h.Connect(r))
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestGettersRequireFetch(t *testing.T) {
	r := newSim(t, sim.Options{UserPresent: true})
	h := connected(t, r, capability.EyeTracking)

	// The cache is empty until the first fetch.
	_, err := h.GazeVector(geom.EyeLeft)
	assert.ErrorIs(t, err, status.ErrNoUpdate)

	// Nothing to fetch before the service produced a frame.
	_, err = h.FetchEyeTrackingData()
	assert.ErrorIs(t, err, status.ErrNoUpdate)

	r.Step(10 * time.Millisecond)
	ts, err := h.FetchEyeTrackingData()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ts.ID)

	v, err := h.GazeVector(geom.EyeLeft)
	assert.ErrorIs(t, err, status.ErrLowAccuracy)
	assert.NotZero(t, v.Z, "low accuracy still carries a gaze")
}

func TestGettersReadCacheOnly(t *testing.T) {
	r := newSim(t, sim.Options{UserPresent: true})
	h := connected(t, r, capability.EyeTracking)

	r.Step(10 * time.Millisecond)
	_, err := h.FetchEyeTrackingData()
	require.NoError(t, err)
	v1, _ := h.GazeVector(geom.EyeLeft)

	// New service frames do not reach the getters until fetched.
	r.Step(10 * time.Millisecond)
	r.Step(10 * time.Millisecond)
	v2, _ := h.GazeVector(geom.EyeLeft)
	assert.Equal(t, v1, v2)

	ts, err := h.FetchEyeTrackingData()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), ts.ID)
	v3, _ := h.GazeVector(geom.EyeLeft)
	assert.NotEqual(t, v1, v3)
}

func TestFetchKeepsCacheWithoutNewerFrame(t *testing.T) {
	r := newSim(t, sim.Options{UserPresent: true})
	h := connected(t, r, capability.EyeTracking)

	r.Step(10 * time.Millisecond)
	ts1, err := h.FetchEyeTrackingData()
	require.NoError(t, err)

	// Fetching again without a new service frame is not an error and
	// keeps the cached frame.
	ts2, err := h.FetchEyeTrackingData()
	require.NoError(t, err)
	assert.Equal(t, ts1, ts2)
}

func TestCapabilityGates(t *testing.T) {
	r := newSim(t, sim.Options{UserPresent: true})
	h := connected(t, r, capability.EyeTracking)

	r.Step(10 * time.Millisecond)
	_, err := h.FetchEyeTrackingData()
	require.NoError(t, err)

	// Quantities behind unregistered capabilities are refused even
	// though the cached frame carries them.
	_, err = h.CombinedGazeDepth()
	assert.ErrorIs(t, err, status.ErrNotRegistered)
	_, err = h.IsUserPresent()
	assert.ErrorIs(t, err, status.ErrNotRegistered)
	_, err = h.EyeTorsion(geom.EyeLeft)
	assert.ErrorIs(t, err, status.ErrNotRegistered)
	_, err = h.FetchPoseData()
	assert.ErrorIs(t, err, status.ErrNotRegistered)

	require.NoError(t, h.RegisterCapabilities(capability.GazeDepth.Union(capability.UserPresence)))
	r.Step(10 * time.Millisecond)
	_, err = h.FetchEyeTrackingData()
	require.NoError(t, err)

	// Uncalibrated gaze depth is served, flagged low accuracy.
	depth, err := h.CombinedGazeDepth()
	assert.ErrorIs(t, err, status.ErrLowAccuracy)
	assert.Greater(t, depth, 0.0)
	present, err := h.IsUserPresent()
	require.NoError(t, err)
	assert.True(t, present)
}

func TestPassiveRegistrationReads(t *testing.T) {
	r := newSim(t, sim.Options{UserPresent: true})

	// The active client keeps the data flowing; the passive one only
	// reads it.
	connected(t, r, capability.EyeTracking)
	passive := headset.New(headset.Config{PassiveCapabilities: capability.EyeTracking})
	require.NoError(t, passive.Connect(r))
	defer passive.Close()

	r.Step(10 * time.Millisecond)
	_, err := passive.FetchEyeTrackingData()
	require.NoError(t, err)
	_, err = passive.GazeVector(geom.EyeLeft)
	assert.ErrorIs(t, err, status.ErrLowAccuracy)
}

func TestUnreliableGazeWhenUserAbsent(t *testing.T) {
	r := newSim(t, sim.Options{UserPresent: false})
	h := connected(t, r, capability.EyeTracking.Union(capability.UserPresence))

	r.Step(10 * time.Millisecond)
	_, err := h.FetchEyeTrackingData()
	require.NoError(t, err)

	_, err = h.CombinedGazeRay()
	assert.ErrorIs(t, err, status.ErrUnreliable)
	present, err := h.IsUserPresent()
	require.NoError(t, err)
	assert.False(t, present)
}

func TestDetachedRegistrationReplay(t *testing.T) {
	r := newSim(t, sim.Options{UserPresent: true})

	// Registrations accumulate while detached and replay on Connect.
	h := headset.New(headset.Config{})
	require.NoError(t, h.RegisterCapabilities(capability.EyeTracking))
	require.NoError(t, h.RegisterGazableObject(scene.GazableObject{
		ID:       42,
		Pose:     scene.ObjectPose{Position: geom.Vec3{Z: 2}},
		Collider: scene.SphereCollider(10),
	}))
	assert.False(t, h.Connected())

	require.NoError(t, h.Connect(r))
	defer h.Close()
	require.NoError(t, h.RegisterCapabilities(capability.GazedObjectDetection))

	r.Step(10 * time.Millisecond)
	_, err := h.FetchEyeTrackingData()
	require.NoError(t, err)
	id, err := h.GazedObjectID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestDisconnectKeepsState(t *testing.T) {
	r := newSim(t, sim.Options{UserPresent: true})
	h := connected(t, r, capability.EyeTracking)

	r.Step(10 * time.Millisecond)
	_, err := h.FetchEyeTrackingData()
	require.NoError(t, err)

	require.NoError(t, h.Disconnect())
	assert.False(t, h.Connected())

	// Cached data stays readable; fetching needs a connection.
	_, err = h.GazeVector(geom.EyeLeft)
	assert.ErrorIs(t, err, status.ErrLowAccuracy)
	_, err = h.FetchEyeTrackingData()
	assert.ErrorIs(t, err, status.ErrNotConnected)

	// Reconnect resumes with the same registrations.
	require.NoError(t, h.Connect(r))
	r.Step(10 * time.Millisecond)
	_, err = h.FetchEyeTrackingData()
	require.NoError(t, err)
}

func TestCapabilityRollbackOnRejection(t *testing.T) {
	trial := []headset.LicenseInfo{{
		UUID: uuid.New(), Type: headset.LicenseTypeTrial, Licensee: "trial user",
	}}
	r := newSim(t, sim.Options{Licenses: trial})
	h := connected(t, r, capability.EyeTracking)

	err := h.RegisterCapabilities(capability.EyesImage)
	assert.ErrorIs(t, err, status.ErrFeatureAccessDenied)
	assert.Equal(t, capability.EyeTracking, h.ActiveCapabilities())

	// The session is still usable.
	r.Step(10 * time.Millisecond)
	_, err = h.FetchEyeTrackingData()
	require.NoError(t, err)
}

func TestWaitForProcessedEyeFrame(t *testing.T) {
	r := newSim(t, sim.Options{UserPresent: true})
	h := connected(t, r, capability.EyeTracking)

	done := make(chan error, 1)
	go func() {
		done <- h.WaitForProcessedEyeFrame(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("wait returned without a frame")
	case <-time.After(50 * time.Millisecond):
	}

	r.Step(10 * time.Millisecond)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("wait did not return after a frame")
	}

	// The gate compares against the cached frame: after fetching the
	// newest one the next wait blocks until cancelled.
	_, err := h.FetchEyeTrackingData()
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = h.WaitForProcessedEyeFrame(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCalibrationThroughClient(t *testing.T) {
	r := newSim(t, sim.Options{UserPresent: true})
	h := connected(t, r, capability.EyeTracking)

	calibrated, err := h.IsEyeTrackingCalibrated()
	require.NoError(t, err)
	assert.False(t, calibrated)

	require.NoError(t, h.StartEyeTrackingCalibration(calibration.Options{
		Method: calibration.MethodOnePoint,
	}))
	calibrating, err := h.IsEyeTrackingCalibrating()
	require.NoError(t, err)
	assert.True(t, calibrating)

	for i := 0; i < 100; i++ {
		data, err := h.TickEyeTrackingCalibration(100*time.Millisecond, true)
		require.NoError(t, err)
		if data.State.IsTerminal() {
			assert.True(t, data.State.IsSuccess(), data.State.String())
			break
		}
	}

	calibrated, err = h.IsEyeTrackingCalibrated()
	require.NoError(t, err)
	assert.True(t, calibrated)

	// Calibrated gaze is fully reliable.
	r.Step(10 * time.Millisecond)
	_, err = h.FetchEyeTrackingData()
	require.NoError(t, err)
	_, err = h.GazeVector(geom.EyeLeft)
	require.NoError(t, err)
}

func TestCalibrationRequiresRegistration(t *testing.T) {
	r := newSim(t, sim.Options{UserPresent: true})
	h := connected(t, r, capability.OrientationTracking)

	err := h.StartEyeTrackingCalibration(calibration.Options{})
	assert.ErrorIs(t, err, status.ErrNotRegistered)
}

func TestVersionIncompatibility(t *testing.T) {
	r := newSim(t, sim.Options{})

	h := headset.New(headset.Config{
		Capabilities:  capability.EyeTracking,
		ClientVersion: version.Version{Major: 2},
	})
	err := h.Connect(r)
	assert.ErrorIs(t, err, status.ErrRuntimeVersionTooOld)
	assert.False(t, h.Connected())
}

func TestProfileForwarding(t *testing.T) {
	r := newSim(t, sim.Options{})
	h := connected(t, r, capability.None)

	require.NoError(t, h.CreateProfile("alice"))
	err := h.CreateProfile("alice")
	assert.ErrorIs(t, err, status.ErrProfileNotAvailable)
	err = h.CreateProfile("..")
	assert.ErrorIs(t, err, status.ErrProfileInvalidName)

	require.NoError(t, h.SetCurrentProfile("alice"))
	current, err := h.CurrentProfile()
	require.NoError(t, err)
	assert.Equal(t, "alice", current)

	require.NoError(t, h.RenameProfile("alice", "bob"))
	names, err := h.ListProfiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, names)

	err = h.DeleteProfile("ghost")
	assert.ErrorIs(t, err, status.ErrProfileDoesntExist)
}

func TestConfigForwarding(t *testing.T) {
	r := newSim(t, sim.Options{})
	h := connected(t, r, capability.None)

	v, err := h.ConfigFloat("render.iod")
	require.NoError(t, err)
	assert.InDelta(t, 0.064, v, 1e-9)

	require.NoError(t, h.SetConfigFloat("render.iod", 0.07))
	v, err = h.ConfigFloat("render.iod")
	require.NoError(t, err)
	assert.InDelta(t, 0.07, v, 1e-9)

	_, err = h.ConfigBool("render.iod")
	assert.ErrorIs(t, err, status.ErrConfigTypeMismatch)
	_, err = h.ConfigString("no.such.key")
	assert.ErrorIs(t, err, status.ErrConfigDoesntExist)

	require.NoError(t, h.ClearConfig("render.iod"))
	v, err = h.ConfigFloat("render.iod")
	require.NoError(t, err)
	assert.InDelta(t, 0.064, v, 1e-9)
}

func TestVersionsAndHardwareInfo(t *testing.T) {
	r := newSim(t, sim.Options{})
	h := connected(t, r, capability.None)

	versions, err := h.Versions()
	require.NoError(t, err)
	assert.Equal(t, version.MustParse(version.Current), versions.Client)
	assert.NotZero(t, versions.Runtime.Major)
	require.NoError(t, h.CheckSoftwareVersions())

	info, err := h.HardwareInfo()
	require.NoError(t, err)
	assert.Equal(t, "GazeLink Two", info.Model)

	licenses, err := h.Licenses()
	require.NoError(t, err)
	require.Len(t, licenses, 1)
	assert.Equal(t, headset.LicenseTypeProfessional, licenses[0].Type)
}

func TestProjectionValidation(t *testing.T) {
	r := newSim(t, sim.Options{})
	h := connected(t, r, capability.None)

	_, err := h.ProjectionMatrices(-1, 100)
	assert.ErrorIs(t, err, status.ErrInvalidArgument)
	m, err := h.ProjectionMatrices(0.1, 1000)
	require.NoError(t, err)
	assert.NotZero(t, m.Left[0][0])
}

func TestTareRequiresCapability(t *testing.T) {
	r := newSim(t, sim.Options{})
	h := connected(t, r, capability.EyeTracking)

	err := h.TareOrientation()
	assert.ErrorIs(t, err, status.ErrNotRegistered)

	require.NoError(t, h.RegisterCapabilities(capability.OrientationTracking))
	require.NoError(t, h.TareOrientation())
}

func TestCloseIsFinal(t *testing.T) {
	r := newSim(t, sim.Options{})
	h := connected(t, r, capability.EyeTracking)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	err := h.Connect(r)
	assert.ErrorIs(t, err, status.ErrNotConnected)
	_, err = h.FetchEyeTrackingData()
	assert.ErrorIs(t, err, status.ErrNotConnected)
}

func TestLicenseControl(t *testing.T) {
	trial := []headset.LicenseInfo{{
		UUID: uuid.New(), Type: headset.LicenseTypeTrial, Licensee: "trial user",
	}}
	r := newSim(t, sim.Options{Licenses: trial})
	h := connected(t, r, capability.EyeTracking)

	// Basic tracking features need no special license.
	ok, err := h.HasAccessToFeature("EyeTracking")
	require.NoError(t, err)
	assert.True(t, ok)

	// Research grade features are gated.
	ok, err = h.HasAccessToFeature("EyeTorsion")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.HasAccessToFeature("Levitation")
	assert.ErrorIs(t, err, status.ErrInvalidArgument)

	info, err := h.ActivateLicense("research-vision-lab")
	require.NoError(t, err)
	assert.Equal(t, headset.LicenseTypeResearch, info.Type)

	ok, err = h.HasAccessToFeature("EyeTorsion")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, h.DeactivateLicense("research-vision-lab"))
	ok, err = h.HasAccessToFeature("EyeTorsion")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEyeToHeadMatrices(t *testing.T) {
	r := newSim(t, sim.Options{})
	h := connected(t, r, capability.OrientationTracking)

	m, err := h.EyeToHeadMatrices()
	require.NoError(t, err)
	iod, err := h.RenderIOD()
	require.NoError(t, err)
	assert.InDelta(t, -iod/2, m.Left[0][3], 1e-9)
	assert.InDelta(t, iod/2, m.Right[0][3], 1e-9)
	assert.Equal(t, 1.0, m.Left[0][0])
	assert.Equal(t, 1.0, m.Left[3][3])
}

func TestHmdAdjustmentThroughClient(t *testing.T) {
	r := newSim(t, sim.Options{UserPresent: true})
	h := connected(t, r, capability.EyeTracking)

	visible, err := h.HmdAdjustmentGuiVisible()
	require.NoError(t, err)
	assert.False(t, visible)

	require.NoError(t, h.StartEyeTrackingCalibration(calibration.Options{
		Method: calibration.MethodOnePoint,
	}))
	visible, err = h.HmdAdjustmentGuiVisible()
	require.NoError(t, err)
	assert.True(t, visible)

	forGlasses, err := h.IsEyeTrackingCalibratedForGlasses()
	require.NoError(t, err)
	assert.False(t, forGlasses)

	require.NoError(t, h.StopEyeTrackingCalibration())
}
