package gazelink_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gazelink-protocol/gazelink-go/pkg/calibration"
	"github.com/gazelink-protocol/gazelink-go/pkg/capability"
	"github.com/gazelink-protocol/gazelink-go/pkg/compositor"
	"github.com/gazelink-protocol/gazelink-go/pkg/discovery"
	"github.com/gazelink-protocol/gazelink-go/pkg/geom"
	"github.com/gazelink-protocol/gazelink-go/pkg/headset"
	"github.com/gazelink-protocol/gazelink-go/pkg/log"
	"github.com/gazelink-protocol/gazelink-go/pkg/sim"
	"github.com/gazelink-protocol/gazelink-go/pkg/status"
	"github.com/gazelink-protocol/gazelink-go/pkg/version"
)

// startRuntime creates a simulated runtime ticking in the background.
func startRuntime(t *testing.T) *sim.Runtime {
	t.Helper()
	r, err := sim.New(sim.Options{DataDir: t.TempDir(), UserPresent: true})
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	t.Cleanup(func() { r.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = r.Run(ctx, 5*time.Millisecond) }()
	return r
}

func TestE2E_FetchAndRead(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	r := startRuntime(t)

	h := headset.New(headset.Config{
		Capabilities: capability.EyeTracking | capability.GazeDepth | capability.UserPresence,
	})
	if err := h.Connect(r); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.WaitForProcessedEyeFrame(ctx); err != nil {
		t.Fatalf("WaitForProcessedEyeFrame: %v", err)
	}

	ts, err := h.FetchEyeTrackingData()
	if err != nil {
		t.Fatalf("FetchEyeTrackingData: %v", err)
	}
	if ts.ID == 0 {
		t.Error("Expected a nonzero frame id after fetch")
	}

	// Uncalibrated data reads back with a low accuracy warning.
	v, err := h.GazeVector(geom.EyeLeft)
	if !errors.Is(err, status.ErrLowAccuracy) {
		t.Errorf("GazeVector error = %v, want low accuracy", err)
	}
	if v.Z <= 0 {
		t.Errorf("Expected a forward gaze vector, got %v", v)
	}

	depth, err := h.CombinedGazeDepth()
	if !errors.Is(err, status.ErrLowAccuracy) {
		t.Errorf("CombinedGazeDepth error = %v, want low accuracy", err)
	}
	if depth <= 0 {
		t.Errorf("Expected positive gaze depth, got %v", depth)
	}

	present, err := h.IsUserPresent()
	if err != nil {
		t.Fatalf("IsUserPresent: %v", err)
	}
	if !present {
		t.Error("Expected user present")
	}
}

func TestE2E_CalibrationUnlocksReliableData(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	r := startRuntime(t)

	h := headset.New(headset.Config{Capabilities: capability.EyeTracking})
	if err := h.Connect(r); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer h.Close()

	err := h.StartEyeTrackingCalibration(calibration.Options{Method: calibration.MethodOnePoint})
	if err != nil {
		t.Fatalf("StartEyeTrackingCalibration: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("Calibration did not finish in time")
		}
		data, err := h.TickEyeTrackingCalibration(50*time.Millisecond, true)
		if err != nil {
			t.Fatalf("TickEyeTrackingCalibration: %v", err)
		}
		if data.State.IsFailure() {
			t.Fatalf("Calibration failed: %s", data.State)
		}
		if data.State.IsSuccess() {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	calibrated, err := h.IsEyeTrackingCalibrated()
	if err != nil {
		t.Fatalf("IsEyeTrackingCalibrated: %v", err)
	}
	if !calibrated {
		t.Error("Expected calibrated after successful process")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.WaitForProcessedEyeFrame(ctx); err != nil {
		t.Fatalf("WaitForProcessedEyeFrame: %v", err)
	}
	if _, err := h.FetchEyeTrackingData(); err != nil {
		t.Fatalf("FetchEyeTrackingData: %v", err)
	}
	if _, err := h.GazeVector(geom.EyeLeft); err != nil {
		t.Errorf("Expected reliable gaze after calibration, got %v", err)
	}
}

func TestE2E_RenderLoop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	r := startRuntime(t)

	c := compositor.NewClient(compositor.Config{})
	if err := c.Connect(r); err != nil {
		t.Fatalf("Failed to connect compositor: %v", err)
	}
	defer c.Disconnect()

	// The compositor reports ready once the first frame exists.
	deadline := time.Now().Add(time.Second)
	for {
		ready, err := c.Ready()
		if err != nil {
			t.Fatalf("Ready: %v", err)
		}
		if ready {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Compositor never became ready")
		}
		time.Sleep(5 * time.Millisecond)
	}

	layer, err := c.CreateLayer(compositor.LayerCreateInfo{Type: compositor.LayerTypeBase})
	if err != nil {
		t.Fatalf("CreateLayer: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 10; i++ {
		pose, err := c.WaitForRenderPose(ctx)
		if err != nil {
			t.Fatalf("WaitForRenderPose (frame %d): %v", i, err)
		}
		err = c.Submit(compositor.LayerSubmitInfo{
			LayerID: layer.ID,
			Pose:    pose,
			Left:    compositor.EyeTexture{TextureID: 1, Bounds: compositor.FullTextureBounds()},
			Right:   compositor.EyeTexture{TextureID: 2, Bounds: compositor.FullTextureBounds()},
		})
		if err != nil {
			t.Fatalf("Submit (frame %d): %v", i, err)
		}
	}

	pose, err := c.LastRenderPose()
	if err != nil {
		t.Fatalf("LastRenderPose: %v", err)
	}
	if pose.Timestamp.ID == 0 {
		t.Error("Expected a nonzero render pose id")
	}
}

func TestE2E_EventLogRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	r := startRuntime(t)

	path := filepath.Join(t.TempDir(), "session.glog")
	fl, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}

	h := headset.New(headset.Config{
		Capabilities: capability.EyeTracking,
		EventLogger:  fl,
	})
	if err := h.Connect(r); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.WaitForProcessedEyeFrame(ctx); err != nil {
		t.Fatalf("WaitForProcessedEyeFrame: %v", err)
	}
	if _, err := h.FetchEyeTrackingData(); err != nil {
		t.Fatalf("FetchEyeTrackingData: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("Close logger: %v", err)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("Open log: %v", err)
	}
	defer reader.Close()

	seen := map[log.Category]int{}
	for {
		ev, err := reader.Next()
		if err != nil {
			break
		}
		seen[ev.Category]++
	}
	if seen[log.CategorySession] == 0 {
		t.Error("Expected session events in the log")
	}
	if seen[log.CategoryFetch] == 0 {
		t.Error("Expected fetch events in the log")
	}
	if seen[log.CategoryWait] == 0 {
		t.Error("Expected wait events in the log")
	}
}

func TestE2E_Discovery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	advertiser, err := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})
	if err != nil {
		t.Fatalf("Failed to create advertiser: %v", err)
	}
	defer advertiser.Stop()

	info := &discovery.RuntimeInfo{
		SerialNumber:   "GL2-E2E-001",
		Model:          "GazeLink Two",
		Manufacturer:   "GazeLink",
		RuntimeVersion: version.MustParse("1.4"),
		Capabilities:   capability.EyeTracking | capability.GazeDepth,
		Port:           discovery.DefaultPort,
	}
	if err := advertiser.Advertise(ctx, info); err != nil {
		t.Fatalf("Failed to advertise: %v", err)
	}

	// Give mDNS time to propagate
	time.Sleep(500 * time.Millisecond)

	browser, err := discovery.NewMDNSBrowser(discovery.BrowserConfig{})
	if err != nil {
		t.Fatalf("Failed to create browser: %v", err)
	}

	findCtx, findCancel := context.WithTimeout(ctx, 5*time.Second)
	defer findCancel()
	found, err := browser.FindBySerial(findCtx, "GL2-E2E-001")
	if err != nil {
		t.Fatalf("Failed to find runtime: %v", err)
	}

	if found.SerialNumber != "GL2-E2E-001" {
		t.Errorf("Serial mismatch: got %s", found.SerialNumber)
	}
	if found.Model != "GazeLink Two" {
		t.Errorf("Model mismatch: got %s", found.Model)
	}
	if !found.Capabilities.Contains(capability.GazeDepth) {
		t.Errorf("Capabilities mismatch: got %s", found.Capabilities)
	}
	if found.Port != discovery.DefaultPort {
		t.Errorf("Port mismatch: got %d", found.Port)
	}
}
