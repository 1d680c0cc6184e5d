package compositor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gazelink-protocol/gazelink-go/pkg/frame"
	"github.com/gazelink-protocol/gazelink-go/pkg/log"
	"github.com/gazelink-protocol/gazelink-go/pkg/status"
)

// Config configures a compositor Client.
type Config struct {
	// EventLogger receives SDK events. Nil disables event capture.
	EventLogger log.Logger

	// Logger is the operational logger. Nil uses slog.Default().
	Logger *slog.Logger
}

// Client talks to the compositor. It is safe for concurrent use,
// though the wait/render/submit cycle is naturally sequential.
//
// The render loop protocol: WaitForRenderPose must be called before
// each Submit. Submitting twice without an intervening wait returns an
// API_InvalidArgument error, since the second frame would reuse a stale
// pose.
type Client struct {
	mu        sync.Mutex
	svc       Service
	sessionID string

	events log.Logger
	logger *slog.Logger

	layers map[int]Layer
	// waited is set by WaitForRenderPose and consumed by Submit.
	waited bool
}

// NewClient creates a detached compositor client.
func NewClient(cfg Config) *Client {
	c := &Client{
		events: cfg.EventLogger,
		logger: cfg.Logger,
		layers: make(map[int]Layer),
	}
	if c.events == nil {
		c.events = log.NoopLogger{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Connect opens a compositor session. Layers created before a previous
// Disconnect are restored by the service.
func (c *Client) Connect(svc Service) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc != nil {
		return status.Newf(status.CodeInvalidArgument, "already connected")
	}
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	if err := svc.OpenCompositorSession(c.sessionID); err != nil {
		return err
	}
	c.svc = svc
	c.logger.Debug("compositor session opened", "session_id", c.sessionID)
	return nil
}

// Disconnect detaches from the compositor. Layers persist on the
// service and are available again after Connect.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc == nil {
		return status.New(status.CodeNotConnected)
	}
	err := c.svc.CloseCompositorSession(c.sessionID)
	c.svc = nil
	c.waited = false
	return err
}

func (c *Client) service() (Service, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc == nil {
		return nil, "", status.New(status.CodeNotConnected)
	}
	return c.svc, c.sessionID, nil
}

// Ready reports whether the compositor accepts layer creation.
func (c *Client) Ready() (bool, error) {
	svc, _, err := c.service()
	if err != nil {
		return false, err
	}
	return svc.Ready()
}

// AdapterID identifies the GPU the compositor renders on.
func (c *Client) AdapterID() (string, error) {
	svc, _, err := c.service()
	if err != nil {
		return "", err
	}
	return svc.AdapterID()
}

// CreateLayer creates a layer. At most one layer of each type can
// exist per client; a duplicate returns Object_AlreadyRegistered.
func (c *Client) CreateLayer(info LayerCreateInfo) (Layer, error) {
	svc, sessionID, err := c.service()
	if err != nil {
		return Layer{}, err
	}
	layer, err := svc.CreateLayer(sessionID, info)
	if err != nil {
		return Layer{}, err
	}
	c.mu.Lock()
	c.layers[layer.ID] = layer
	c.mu.Unlock()
	return layer, nil
}

// Layers returns the layers created by this client.
func (c *Client) Layers() []Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Layer, 0, len(c.layers))
	for _, l := range c.layers {
		out = append(out, l)
	}
	return out
}

// WaitForRenderPose blocks until the compositor wants the next frame
// and returns the pose to render with. It arms the next Submit.
func (c *Client) WaitForRenderPose(ctx context.Context) (frame.PoseFrame, error) {
	svc, _, err := c.service()
	if err != nil {
		return frame.PoseFrame{}, err
	}
	start := time.Now()
	pose, err := svc.WaitForRenderPose(ctx)
	c.logEvent(log.Event{
		Category: log.CategoryWait,
		Wait: &log.WaitEvent{
			Gate:     "render_pose",
			Duration: time.Since(start),
			Status:   status.CodeOf(err).String(),
		},
	})
	if err != nil {
		return frame.PoseFrame{}, err
	}
	c.mu.Lock()
	c.waited = true
	c.mu.Unlock()
	return pose, nil
}

// LastRenderPose returns the most recent render pose without blocking.
func (c *Client) LastRenderPose() (frame.PoseFrame, error) {
	svc, _, err := c.service()
	if err != nil {
		return frame.PoseFrame{}, err
	}
	return svc.LastRenderPose()
}

// Submit displays a finished frame on a layer. Each Submit must be
// preceded by a WaitForRenderPose.
func (c *Client) Submit(info LayerSubmitInfo) error {
	svc, sessionID, err := c.service()
	if err != nil {
		return err
	}

	c.mu.Lock()
	layer, known := c.layers[info.LayerID]
	armed := c.waited
	// A rejected submit must not spend the armed wait.
	if known && armed {
		c.waited = false
	}
	c.mu.Unlock()

	if !known {
		return status.Newf(status.CodeInvalidArgument, "layer %d not created by this client", info.LayerID)
	}
	if !armed {
		return status.Newf(status.CodeInvalidArgument, "submit without preceding WaitForRenderPose")
	}

	err = svc.Submit(sessionID, info)
	c.logEvent(log.Event{
		Category: log.CategorySubmit,
		Submit: &log.SubmitEvent{
			LayerID:   info.LayerID,
			LayerType: layer.Info.Type.String(),
			PoseID:    info.Pose.Timestamp.ID,
			Status:    status.CodeOf(err).String(),
		},
	})
	return err
}

func (c *Client) logEvent(e log.Event) {
	e.Timestamp = time.Now()
	e.SessionID = c.sessionID
	c.events.Log(e)
}
