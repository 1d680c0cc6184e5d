package sim

import (
	"context"
	"math"
	"time"

	"github.com/gazelink-protocol/gazelink-go/pkg/capability"
	"github.com/gazelink-protocol/gazelink-go/pkg/frame"
	"github.com/gazelink-protocol/gazelink-go/pkg/geom"
	"github.com/gazelink-protocol/gazelink-go/pkg/headset"
	"github.com/gazelink-protocol/gazelink-go/pkg/scene"
	"github.com/gazelink-protocol/gazelink-go/pkg/status"
)

const (
	simImageWidth  = 320
	simImageHeight = 240
)

// Step advances the simulated clock by dt and produces one frame for
// every data domain that has at least one active capability
// registration across all sessions. Waiters blocked on the produced
// domains are released.
func (r *Runtime) Step(dt time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	r.clock += dt
	r.nextID++
	r.stepped = true
	ts := frame.Timestamp{ID: r.nextID, Time: r.clock}

	if r.scenario != nil && len(r.scenario.Presence) > 0 {
		r.userPresent = r.scenario.presentAt(r.clock)
	}

	active := r.activeCapsLocked()

	r.advanceCalibrationClockLocked(dt)

	if active.Intersects(capability.PoseDomain) {
		p := r.poseAt(r.clock)
		r.pose = &frame.PoseFrame{Timestamp: ts, Pose: p, Reliability: frame.ReliabilityFull}
	}
	if active.Intersects(capability.EyeTrackingDomain) {
		f := r.eyeFrameAt(ts)
		r.eye = &f
		close(r.eyeSignal)
		r.eyeSignal = make(chan struct{})
	}
	if active.Contains(capability.EyesImage) {
		r.eyesImage = &frame.EyesImageFrame{Timestamp: ts, Image: r.imageAt(ts)}
	}
	if active.Contains(capability.PositionImage) {
		r.positionImage = &frame.PositionImageFrame{Timestamp: ts, Image: r.imageAt(ts)}
	}

	// The compositor asks for a new frame every step.
	if r.pose != nil {
		r.lastRenderPose = r.pose
	} else {
		p := r.poseAt(r.clock)
		r.lastRenderPose = &frame.PoseFrame{Timestamp: ts, Pose: p, Reliability: frame.ReliabilityFull}
	}
	close(r.renderSignal)
	r.renderSignal = make(chan struct{})
}

// Clock returns the current simulated tracking time.
func (r *Runtime) Clock() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock
}

// poseAt derives a deterministic head pose from the clock: a slow yaw
// sweep with a slight bob.
func (r *Runtime) poseAt(t time.Duration) geom.Pose {
	sec := t.Seconds()
	yaw := 0.2*math.Sin(sec*0.5) - r.tareYaw
	y := 1.7 + 0.01*math.Sin(sec*2) - r.tareY
	return geom.Pose{
		Orientation: geom.Quat{Y: math.Sin(yaw / 2), W: math.Cos(yaw / 2)},
		Position:    geom.Vec3{Y: y},
		StandingPosition: geom.Vec3{
			Y: 1.7 + 0.01*math.Sin(sec*2),
		},
		AngularVelocity: geom.Vec3{Y: 0.1 * math.Cos(sec*0.5)},
	}
}

// gazeAt derives the combined gaze direction from the clock, or from
// the scenario script when one is installed.
func (r *Runtime) gazeAt(t time.Duration) geom.Vec3 {
	if r.scenario != nil {
		if v, ok := r.scenario.gazeAt(t); ok {
			return v.Normalized()
		}
	}
	sec := t.Seconds()
	return geom.Vec3{
		X: 0.15 * math.Sin(sec*0.8),
		Y: 0.1 * math.Cos(sec*0.6),
		Z: 1,
	}.Normalized()
}

func (r *Runtime) eyeFrameAt(ts frame.Timestamp) frame.EyeTrackingFrame {
	dir := r.gazeAt(ts.Time)

	reliability := frame.ReliabilityFull
	state := frame.EyeOpened
	if !r.userPresent {
		reliability = frame.ReliabilityUnreliable
		state = frame.EyeNotDetected
	}

	sample := frame.EyeSample{
		GazeVector:     dir,
		ScreenPosition: geom.Vec2{X: dir.X / dir.Z, Y: dir.Y / dir.Z},
		State:          state,
		PupilRadius:    0.002,
		IrisRadius:     0.006,
		EyeballRadius:  0.012,
		Torsion:        0.5 * math.Sin(ts.Time.Seconds()),
		Shape: frame.EyeShape{Outline: []geom.Vec2{
			{X: 100, Y: 120}, {X: 130, Y: 100}, {X: 160, Y: 120}, {X: 130, Y: 140},
		}},
		Pupil: frame.PupilShape{
			Center:    geom.Vec2{X: 130, Y: 120},
			SemiMajor: 14,
			SemiMinor: 12,
		},
		Reliability: reliability,
	}

	f := frame.EyeTrackingFrame{
		Timestamp:              ts,
		Left:                   sample,
		Right:                  sample,
		CombinedRay:            geom.Ray{Direction: dir},
		CombinedDepth:          2.0,
		CombinedScreenPosition: geom.Vec2{X: dir.X / dir.Z, Y: dir.Y / dir.Z},
		CombinedReliability:    reliability,
		UserPresent:            r.userPresent,
		IPD:                    0.063,
		IOD:                    0.064,
		GazedObjectID:          frame.ObjectIDInvalid,
	}
	f.Right.GazeVector.X += 0.001

	// Uncalibrated eye tracking still reports a gaze, just a coarse one.
	if !r.calibrated && reliability == frame.ReliabilityFull {
		f.CombinedReliability = frame.ReliabilityLowAccuracy
		f.Left.Reliability = frame.ReliabilityLowAccuracy
		f.Right.Reliability = frame.ReliabilityLowAccuracy
	}

	f.GazedObjectID = r.gazedObjectLocked(f.CombinedRay)
	return f
}

func (r *Runtime) imageAt(ts frame.Timestamp) frame.BitmapImage {
	// A tiny synthetic bitmap; the pattern varies with the frame id so
	// consecutive images differ.
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(ts.ID + uint64(i))
	}
	return frame.BitmapImage{Width: simImageWidth, Height: simImageHeight, Data: data}
}

// gazedObjectLocked intersects the combined gaze ray with all
// registered colliders and returns the id of the nearest hit.
func (r *Runtime) gazedObjectLocked(ray geom.Ray) int64 {
	best := frame.ObjectIDInvalid
	bestDist := math.Inf(1)
	for _, s := range r.sessions {
		for _, obj := range s.objects {
			if d, ok := intersect(ray, obj); ok && d < bestDist {
				best = obj.ID
				bestDist = d
			}
		}
	}
	return best
}

// intersect tests the gaze ray against an object's collider. Cube and
// mesh colliders are tested via their bounding spheres.
func intersect(ray geom.Ray, obj scene.GazableObject) (float64, bool) {
	center := obj.Pose.Position.Add(obj.Collider.Center)
	radius := 0.0
	switch obj.Collider.Shape {
	case scene.ShapeSphere:
		radius = obj.Collider.Radius
	case scene.ShapeCube:
		sz := obj.Collider.Size
		radius = 0.5 * math.Sqrt(sz.X*sz.X+sz.Y*sz.Y+sz.Z*sz.Z)
	case scene.ShapeMesh:
		for _, v := range obj.Collider.Vertices {
			if n := v.Norm(); n > radius {
				radius = n
			}
		}
	}
	if radius <= 0 {
		return 0, false
	}

	// Ray-sphere intersection.
	oc := geom.Vec3{
		X: ray.Origin.X - center.X,
		Y: ray.Origin.Y - center.Y,
		Z: ray.Origin.Z - center.Z,
	}
	d := ray.Direction.Normalized()
	b := oc.X*d.X + oc.Y*d.Y + oc.Z*d.Z
	c := oc.X*oc.X + oc.Y*oc.Y + oc.Z*oc.Z - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 {
		// Origin inside the sphere; the hit is at the exit point.
		t = -b + math.Sqrt(disc)
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// ---------------------------------------------------------------------------
// headset.FrameService
// ---------------------------------------------------------------------------

// Status reports the runtime readiness flags.
func (r *Runtime) Status() (headset.TrackingStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return headset.TrackingStatus{}, status.New(status.CodeNotConnected)
	}
	active := r.activeCapsLocked()
	enabled := active.Intersects(capability.EyeTrackingDomain)
	return headset.TrackingStatus{
		HardwareConnected:               true,
		HardwareReady:                   true,
		MotionReady:                     r.pose != nil,
		EyeTrackingEnabled:              enabled,
		EyeTrackingCalibrated:           r.calibrated,
		EyeTrackingCalibrating:          r.calib.state.Running(),
		EyeTrackingCalibratedForGlasses: r.calibratedForGlasses,
		EyeTrackingReady:                enabled && r.eye != nil,
		UserPresent:                     r.userPresent,
	}, nil
}

// LatestEyeTracking returns the newest eye tracking frame.
func (r *Runtime) LatestEyeTracking() (frame.EyeTrackingFrame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return frame.EyeTrackingFrame{}, status.New(status.CodeNotConnected)
	}
	if r.eye == nil {
		return frame.EyeTrackingFrame{}, status.New(status.CodeNoUpdate)
	}
	return *r.eye, nil
}

// LatestEyesImage returns the newest eyes camera image.
func (r *Runtime) LatestEyesImage() (frame.EyesImageFrame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return frame.EyesImageFrame{}, status.New(status.CodeNotConnected)
	}
	if r.eyesImage == nil {
		return frame.EyesImageFrame{}, status.New(status.CodeNoUpdate)
	}
	return *r.eyesImage, nil
}

// LatestPose returns the newest pose frame.
func (r *Runtime) LatestPose() (frame.PoseFrame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return frame.PoseFrame{}, status.New(status.CodeNotConnected)
	}
	if r.pose == nil {
		return frame.PoseFrame{}, status.New(status.CodeNoUpdate)
	}
	return *r.pose, nil
}

// LatestPositionImage returns the newest position camera image.
func (r *Runtime) LatestPositionImage() (frame.PositionImageFrame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return frame.PositionImageFrame{}, status.New(status.CodeNotConnected)
	}
	if r.positionImage == nil {
		return frame.PositionImageFrame{}, status.New(status.CodeNoUpdate)
	}
	return *r.positionImage, nil
}

// WaitEyeFrame blocks until an eye tracking frame newer than after
// exists.
func (r *Runtime) WaitEyeFrame(ctx context.Context, after frame.Timestamp) error {
	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return status.New(status.CodeNotConnected)
		}
		if r.eye != nil && r.eye.Timestamp.After(after) {
			r.mu.Unlock()
			return nil
		}
		signal := r.eyeSignal
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-signal:
		}
	}
}

// rawProjection is the simulated lens frustum at unit distance.
var rawProjection = geom.StereoProjectionParams{
	Left:  geom.ProjectionParams{Left: -1.21, Right: 1.05, Top: 1.11, Bottom: -1.11},
	Right: geom.ProjectionParams{Left: -1.05, Right: 1.21, Top: 1.11, Bottom: -1.11},
}

// ProjectionMatrices computes per-eye off-axis projection matrices.
func (r *Runtime) ProjectionMatrices(near, far float64) (geom.StereoMatrices, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return geom.StereoMatrices{}, status.New(status.CodeNotConnected)
	}
	if near <= 0 || far <= near {
		return geom.StereoMatrices{}, status.Newf(status.CodeInvalidArgument, "clip planes near=%v far=%v", near, far)
	}
	return geom.StereoMatrices{
		Left:  projectionMatrix(rawProjection.Left, near, far),
		Right: projectionMatrix(rawProjection.Right, near, far),
	}, nil
}

func projectionMatrix(p geom.ProjectionParams, near, far float64) geom.Matrix44 {
	l, rr, t, b := p.Left*near, p.Right*near, p.Top*near, p.Bottom*near
	var m geom.Matrix44
	m[0][0] = 2 * near / (rr - l)
	m[0][2] = (rr + l) / (rr - l)
	m[1][1] = 2 * near / (t - b)
	m[1][2] = (t + b) / (t - b)
	m[2][2] = -(far + near) / (far - near)
	m[2][3] = -2 * far * near / (far - near)
	m[3][2] = -1
	return m
}

// RawProjectionValues reports the per-eye half tangent values.
func (r *Runtime) RawProjectionValues() (geom.StereoProjectionParams, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return geom.StereoProjectionParams{}, status.New(status.CodeNotConnected)
	}
	return rawProjection, nil
}

// RenderIOD reports the interocular distance to render with. It is
// backed by the "render.iod" config key.
func (r *Runtime) RenderIOD() (float64, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, status.New(status.CodeNotConnected)
	}
	r.mu.Unlock()
	return r.config.Float("render.iod")
}

// TareOrientation re-zeros the yaw of the simulated head pose.
func (r *Runtime) TareOrientation() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return status.New(status.CodeNotConnected)
	}
	r.tareYaw = 0.2 * math.Sin(r.clock.Seconds()*0.5)
	return nil
}

// TarePosition re-zeros the simulated head position.
func (r *Runtime) TarePosition() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return status.New(status.CodeNotConnected)
	}
	r.tareY = 1.7 + 0.01*math.Sin(r.clock.Seconds()*2)
	return nil
}

// SetUserPresent overrides the simulated user presence.
func (r *Runtime) SetUserPresent(present bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userPresent = present
}
