package sim

import (
	"context"

	"github.com/gazelink-protocol/gazelink-go/pkg/compositor"
	"github.com/gazelink-protocol/gazelink-go/pkg/frame"
	"github.com/gazelink-protocol/gazelink-go/pkg/status"
)

type compSession struct {
	open   bool
	nextID int
	// layers persist while the session is detached, so a reconnecting
	// client finds them again.
	layers map[compositor.LayerType]compositor.Layer
}

// OpenCompositorSession registers or reattaches a compositor client.
func (r *Runtime) OpenCompositorSession(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return status.New(status.CodeNotConnected)
	}
	if sessionID == "" {
		return status.Newf(status.CodeInvalidArgument, "empty session id")
	}
	s, ok := r.compSessions[sessionID]
	if !ok {
		s = &compSession{layers: make(map[compositor.LayerType]compositor.Layer)}
		r.compSessions[sessionID] = s
	}
	if s.open {
		return status.Newf(status.CodeAlreadyRegistered, "compositor session %s", sessionID)
	}
	s.open = true
	return nil
}

// CloseCompositorSession detaches a client, keeping its layers.
func (r *Runtime) CloseCompositorSession(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.compSessions[sessionID]
	if !ok || !s.open {
		return status.Newf(status.CodeInvalidArgument, "unknown compositor session %s", sessionID)
	}
	s.open = false
	return nil
}

// Ready reports whether the compositor accepts layer creation. The
// simulated compositor is ready once the runtime has stepped at least
// once.
func (r *Runtime) Ready() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, status.New(status.CodeNotConnected)
	}
	return r.stepped, nil
}

// AdapterID identifies the simulated GPU adapter. It is backed by the
// "compositor.adapter" config key.
func (r *Runtime) AdapterID() (string, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", status.New(status.CodeNotConnected)
	}
	r.mu.Unlock()
	return r.config.String("compositor.adapter")
}

// CreateLayer creates a layer for a session. One layer per type.
func (r *Runtime) CreateLayer(sessionID string, info compositor.LayerCreateInfo) (compositor.Layer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return compositor.Layer{}, status.New(status.CodeNotConnected)
	}
	s, ok := r.compSessions[sessionID]
	if !ok || !s.open {
		return compositor.Layer{}, status.Newf(status.CodeInvalidArgument, "unknown compositor session %s", sessionID)
	}
	if !r.stepped {
		return compositor.Layer{}, status.Newf(status.CodeTimeout, "compositor not ready")
	}
	if _, ok := s.layers[info.Type]; ok {
		return compositor.Layer{}, status.Newf(status.CodeAlreadyRegistered, "%s layer exists", info.Type)
	}

	s.nextID++
	layer := compositor.Layer{
		ID:              s.nextID,
		IdealResolution: compositor.Resolution{Width: 1280, Height: 1440},
		Info:            info,
	}
	s.layers[info.Type] = layer
	return layer, nil
}

// Submit accepts a finished frame for a layer.
func (r *Runtime) Submit(sessionID string, info compositor.LayerSubmitInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return status.New(status.CodeNotConnected)
	}
	s, ok := r.compSessions[sessionID]
	if !ok || !s.open {
		return status.Newf(status.CodeInvalidArgument, "unknown compositor session %s", sessionID)
	}
	for _, l := range s.layers {
		if l.ID == info.LayerID {
			return nil
		}
	}
	return status.Newf(status.CodeInvalidArgument, "unknown layer %d", info.LayerID)
}

// WaitForRenderPose blocks until the next Step and returns the render
// pose.
func (r *Runtime) WaitForRenderPose(ctx context.Context) (frame.PoseFrame, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return frame.PoseFrame{}, status.New(status.CodeNotConnected)
	}
	signal := r.renderSignal
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return frame.PoseFrame{}, ctx.Err()
	case <-signal:
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.lastRenderPose == nil {
		return frame.PoseFrame{}, status.New(status.CodeNotConnected)
	}
	return *r.lastRenderPose, nil
}

// LastRenderPose returns the pose of the newest render frame without
// blocking.
func (r *Runtime) LastRenderPose() (frame.PoseFrame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return frame.PoseFrame{}, status.New(status.CodeNotConnected)
	}
	if r.lastRenderPose == nil {
		return frame.PoseFrame{}, status.New(status.CodeNoUpdate)
	}
	return *r.lastRenderPose, nil
}
