package headset

import (
	"context"
	"time"

	"github.com/gazelink-protocol/gazelink-go/pkg/capability"
	"github.com/gazelink-protocol/gazelink-go/pkg/frame"
	"github.com/gazelink-protocol/gazelink-go/pkg/geom"
	"github.com/gazelink-protocol/gazelink-go/pkg/log"
	"github.com/gazelink-protocol/gazelink-go/pkg/status"
)

// ---------------------------------------------------------------------------
// Fetch: copy the newest service-side frame into the client cache.
// Getters below never touch the service, they read the cache only.
// ---------------------------------------------------------------------------

// FetchEyeTrackingData fetches the newest eye tracking frame into the
// cache and returns its timestamp. The cache keeps its frame when the
// service has produced nothing newer.
func (h *Headset) FetchEyeTrackingData() (frame.Timestamp, error) {
	return fetch(h, frame.DomainEyeTracking, capability.EyeTrackingDomain,
		func(s Service) (frame.EyeTrackingFrame, error) { return s.LatestEyeTracking() },
		&h.eyeCache)
}

// FetchEyesImage fetches the newest eyes camera image into the cache.
func (h *Headset) FetchEyesImage() (frame.Timestamp, error) {
	return fetch(h, frame.DomainEyesImage, capability.EyesImage,
		func(s Service) (frame.EyesImageFrame, error) { return s.LatestEyesImage() },
		&h.eyesImageCache)
}

// FetchPoseData fetches the newest headset pose frame into the cache.
func (h *Headset) FetchPoseData() (frame.Timestamp, error) {
	return fetch(h, frame.DomainPose, capability.PoseDomain,
		func(s Service) (frame.PoseFrame, error) { return s.LatestPose() },
		&h.poseCache)
}

// FetchPositionImage fetches the newest position camera image into the
// cache.
func (h *Headset) FetchPositionImage() (frame.Timestamp, error) {
	return fetch(h, frame.DomainPositionImage, capability.PositionImage,
		func(s Service) (frame.PositionImageFrame, error) { return s.LatestPositionImage() },
		&h.positionImageCache)
}

func fetch[T frame.Framed](h *Headset, domain frame.Domain, caps capability.Capabilities,
	latest func(Service) (T, error), cache *frame.Cache[T]) (frame.Timestamp, error) {

	svc, _, err := h.service()
	if err != nil {
		return frame.Timestamp{}, err
	}
	if err := h.checkRegistered(caps); err != nil {
		return frame.Timestamp{}, err
	}

	f, err := latest(svc)
	if err != nil {
		h.logEvent(log.Event{
			Category: log.CategoryFetch,
			Fetch:    &log.FetchEvent{Domain: domain.String(), Status: status.CodeOf(err).String()},
		})
		return frame.Timestamp{}, err
	}

	ts := f.FrameTimestamp()
	updated := cache.Store(ts, f)
	h.logEvent(log.Event{
		Category: log.CategoryFetch,
		Fetch: &log.FetchEvent{
			Domain:    domain.String(),
			FrameID:   ts.ID,
			FrameTime: ts.Time,
			Updated:   updated,
		},
	})
	return ts, nil
}

// ---------------------------------------------------------------------------
// Waits
// ---------------------------------------------------------------------------

// WaitForProcessedEyeFrame blocks until the service has produced an eye
// tracking frame newer than the cached one. It does not fetch; call
// FetchEyeTrackingData afterwards. Cancellation of ctx returns its
// error, shutdown of the service returns Connect_NotConnected.
func (h *Headset) WaitForProcessedEyeFrame(ctx context.Context) error {
	svc, _, err := h.service()
	if err != nil {
		return err
	}
	if err := h.checkRegistered(capability.EyeTracking); err != nil {
		return err
	}

	after, _ := h.eyeCache.Timestamp()
	start := time.Now()
	err = svc.WaitEyeFrame(ctx, after)
	h.logEvent(log.Event{
		Category: log.CategoryWait,
		Wait: &log.WaitEvent{
			Gate:     "eye_frame",
			Duration: time.Since(start),
			Status:   status.CodeOf(err).String(),
		},
	})
	return err
}

// ---------------------------------------------------------------------------
// Eye tracking getters
// ---------------------------------------------------------------------------

// eyeData reads the cached eye tracking frame after verifying the
// capability gate.
func (h *Headset) eyeData(caps capability.Capabilities) (frame.EyeTrackingFrame, error) {
	if err := h.checkRegistered(caps); err != nil {
		return frame.EyeTrackingFrame{}, err
	}
	f, _, err := h.eyeCache.Snapshot()
	return f, err
}

// EyeTrackingDataTimestamp returns the timestamp of the cached eye
// tracking frame.
func (h *Headset) EyeTrackingDataTimestamp() (frame.Timestamp, error) {
	if err := h.checkRegistered(capability.EyeTrackingDomain); err != nil {
		return frame.Timestamp{}, err
	}
	return h.eyeCache.Timestamp()
}

// GazeVector returns the per-eye gaze direction. A Data_LowAccuracy or
// Data_Unreliable error still carries a usable value.
func (h *Headset) GazeVector(eye geom.Eye) (geom.Vec3, error) {
	f, err := h.eyeData(capability.EyeTracking)
	if err != nil {
		return geom.Vec3{}, err
	}
	s := f.Sample(eye)
	return s.GazeVector, s.Reliability.Err()
}

// GazeScreenPosition returns where the eye's gaze hits the screen, in
// normalized [-1, 1] coordinates.
func (h *Headset) GazeScreenPosition(eye geom.Eye) (geom.Vec2, error) {
	f, err := h.eyeData(capability.EyeTracking)
	if err != nil {
		return geom.Vec2{}, err
	}
	s := f.Sample(eye)
	return s.ScreenPosition, s.Reliability.Err()
}

// CombinedGazeRay returns the single gaze ray combining both eyes.
func (h *Headset) CombinedGazeRay() (geom.Ray, error) {
	f, err := h.eyeData(capability.EyeTracking)
	if err != nil {
		return geom.Ray{}, err
	}
	return f.CombinedRay, f.CombinedReliability.Err()
}

// CombinedGazeScreenPosition returns where the combined gaze hits the
// screen.
func (h *Headset) CombinedGazeScreenPosition() (geom.Vec2, error) {
	f, err := h.eyeData(capability.EyeTracking)
	if err != nil {
		return geom.Vec2{}, err
	}
	return f.CombinedScreenPosition, f.CombinedReliability.Err()
}

// CombinedGazeDepth returns the distance of the gazed point, in meters.
func (h *Headset) CombinedGazeDepth() (float64, error) {
	f, err := h.eyeData(capability.GazeDepth)
	if err != nil {
		return 0, err
	}
	return f.CombinedDepth, f.CombinedReliability.Err()
}

// EyeState returns whether the eye is opened or closed.
func (h *Headset) EyeState(eye geom.Eye) (frame.EyeState, error) {
	f, err := h.eyeData(capability.EyeTracking)
	if err != nil {
		return frame.EyeNotDetected, err
	}
	return f.Sample(eye).State, nil
}

// IsUserPresent reports whether a user is wearing the headset.
func (h *Headset) IsUserPresent() (bool, error) {
	f, err := h.eyeData(capability.UserPresence)
	if err != nil {
		return false, err
	}
	return f.UserPresent, nil
}

// HasAttentionShifted reports whether the user's attention shifted in
// the cached frame.
func (h *Headset) HasAttentionShifted() (bool, error) {
	f, err := h.eyeData(capability.UserAttentionShift)
	if err != nil {
		return false, err
	}
	return f.AttentionShift, nil
}

// UserIPD returns the user's interpupillary distance, in meters.
func (h *Headset) UserIPD() (float64, error) {
	f, err := h.eyeData(capability.UserIPD)
	if err != nil {
		return 0, err
	}
	return f.IPD, f.CombinedReliability.Err()
}

// UserIOD returns the user's interocular distance, in meters.
func (h *Headset) UserIOD() (float64, error) {
	f, err := h.eyeData(capability.UserIOD)
	if err != nil {
		return 0, err
	}
	return f.IOD, f.CombinedReliability.Err()
}

// PupilRadius returns the eye's pupil radius, in meters.
func (h *Headset) PupilRadius(eye geom.Eye) (float64, error) {
	f, err := h.eyeData(capability.PupilRadius)
	if err != nil {
		return 0, err
	}
	s := f.Sample(eye)
	return s.PupilRadius, s.Reliability.Err()
}

// IrisRadius returns the eye's iris radius, in meters.
func (h *Headset) IrisRadius(eye geom.Eye) (float64, error) {
	f, err := h.eyeData(capability.IrisRadius)
	if err != nil {
		return 0, err
	}
	s := f.Sample(eye)
	return s.IrisRadius, s.Reliability.Err()
}

// EyeballRadius returns the eye's eyeball radius, in meters.
func (h *Headset) EyeballRadius(eye geom.Eye) (float64, error) {
	f, err := h.eyeData(capability.EyeballRadius)
	if err != nil {
		return 0, err
	}
	s := f.Sample(eye)
	return s.EyeballRadius, s.Reliability.Err()
}

// EyeTorsion returns the eye's torsion angle, in degrees.
func (h *Headset) EyeTorsion(eye geom.Eye) (float64, error) {
	f, err := h.eyeData(capability.EyeTorsion)
	if err != nil {
		return 0, err
	}
	s := f.Sample(eye)
	return s.Torsion, s.Reliability.Err()
}

// EyeShape returns the eye's eyelid outline in eyes-image coordinates.
func (h *Headset) EyeShape(eye geom.Eye) (frame.EyeShape, error) {
	f, err := h.eyeData(capability.EyeShape)
	if err != nil {
		return frame.EyeShape{}, err
	}
	s := f.Sample(eye)
	return s.Shape, s.Reliability.Err()
}

// PupilShape returns the eye's pupil ellipse in eyes-image coordinates.
func (h *Headset) PupilShape(eye geom.Eye) (frame.PupilShape, error) {
	f, err := h.eyeData(capability.PupilShape)
	if err != nil {
		return frame.PupilShape{}, err
	}
	s := f.Sample(eye)
	return s.Pupil, s.Reliability.Err()
}

// GazedObjectID returns the id of the registered gazable object the
// user is looking at, or frame.ObjectIDInvalid when none is gazed.
func (h *Headset) GazedObjectID() (int64, error) {
	f, err := h.eyeData(capability.GazedObjectDetection)
	if err != nil {
		return frame.ObjectIDInvalid, err
	}
	return f.GazedObjectID, nil
}

// ---------------------------------------------------------------------------
// Image and pose getters
// ---------------------------------------------------------------------------

// EyesImage returns the cached eyes camera image.
func (h *Headset) EyesImage() (frame.BitmapImage, error) {
	if err := h.checkRegistered(capability.EyesImage); err != nil {
		return frame.BitmapImage{}, err
	}
	f, _, err := h.eyesImageCache.Snapshot()
	if err != nil {
		return frame.BitmapImage{}, err
	}
	return f.Image, nil
}

// PositionImage returns the cached position camera image.
func (h *Headset) PositionImage() (frame.BitmapImage, error) {
	if err := h.checkRegistered(capability.PositionImage); err != nil {
		return frame.BitmapImage{}, err
	}
	f, _, err := h.positionImageCache.Snapshot()
	if err != nil {
		return frame.BitmapImage{}, err
	}
	return f.Image, nil
}

// Pose returns the cached headset pose.
func (h *Headset) Pose() (geom.Pose, error) {
	if err := h.checkRegistered(capability.PoseDomain); err != nil {
		return geom.Pose{}, err
	}
	f, _, err := h.poseCache.Snapshot()
	if err != nil {
		return geom.Pose{}, err
	}
	return f.Pose, f.Reliability.Err()
}

// PoseTimestamp returns the timestamp of the cached pose frame.
func (h *Headset) PoseTimestamp() (frame.Timestamp, error) {
	if err := h.checkRegistered(capability.PoseDomain); err != nil {
		return frame.Timestamp{}, err
	}
	return h.poseCache.Timestamp()
}

// ---------------------------------------------------------------------------
// Status, projections, tare
// ---------------------------------------------------------------------------

// Status returns the runtime's readiness flags in one consistent read.
func (h *Headset) Status() (TrackingStatus, error) {
	svc, _, err := h.service()
	if err != nil {
		return TrackingStatus{}, err
	}
	return svc.Status()
}

// ProjectionMatrices returns the per-eye projection matrices for the
// given clip planes.
func (h *Headset) ProjectionMatrices(near, far float64) (geom.StereoMatrices, error) {
	svc, _, err := h.service()
	if err != nil {
		return geom.StereoMatrices{}, err
	}
	if near <= 0 || far <= near {
		return geom.StereoMatrices{}, status.Newf(status.CodeInvalidArgument, "clip planes near=%v far=%v", near, far)
	}
	return svc.ProjectionMatrices(near, far)
}

// RawProjectionValues returns the per-eye half tangent values of the
// projection frustums.
func (h *Headset) RawProjectionValues() (geom.StereoProjectionParams, error) {
	svc, _, err := h.service()
	if err != nil {
		return geom.StereoProjectionParams{}, err
	}
	return svc.RawProjectionValues()
}

// RenderIOD returns the interocular distance to render stereo with.
func (h *Headset) RenderIOD() (float64, error) {
	svc, _, err := h.service()
	if err != nil {
		return 0, err
	}
	return svc.RenderIOD()
}

// EyeToHeadMatrices returns the per-eye translation from eye space to
// head space, half the render IOD to each side.
func (h *Headset) EyeToHeadMatrices() (geom.StereoMatrices, error) {
	iod, err := h.RenderIOD()
	if err != nil {
		return geom.StereoMatrices{}, err
	}
	left := geom.IdentityMatrix44()
	right := geom.IdentityMatrix44()
	left[0][3] = -iod / 2
	right[0][3] = iod / 2
	return geom.StereoMatrices{Left: left, Right: right}, nil
}

// TareOrientation re-zeros the headset orientation.
func (h *Headset) TareOrientation() error {
	svc, _, err := h.service()
	if err != nil {
		return err
	}
	if err := h.checkRegistered(capability.OrientationTracking); err != nil {
		return err
	}
	return svc.TareOrientation()
}

// TarePosition re-zeros the headset position.
func (h *Headset) TarePosition() error {
	svc, _, err := h.service()
	if err != nil {
		return err
	}
	if err := h.checkRegistered(capability.PositionTracking); err != nil {
		return err
	}
	return svc.TarePosition()
}
