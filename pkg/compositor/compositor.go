// Package compositor implements the frame submission client. A client
// creates layers, waits for the render pose, renders with it, and
// submits the finished eye textures back for display.
package compositor

import (
	"context"

	"github.com/gazelink-protocol/gazelink-go/pkg/frame"
)

// LayerType orders layers in the composited output.
type LayerType uint8

const (
	// LayerTypeBase is the scene layer. Each client has at most one.
	LayerTypeBase LayerType = iota
	// LayerTypeOverlay renders above all base layers.
	LayerTypeOverlay
	// LayerTypeDiagnostic renders above everything.
	LayerTypeDiagnostic
)

// String returns the layer type name.
func (t LayerType) String() string {
	switch t {
	case LayerTypeBase:
		return "Base"
	case LayerTypeOverlay:
		return "Overlay"
	case LayerTypeDiagnostic:
		return "Diagnostic"
	default:
		return "Unknown"
	}
}

// LayerCreateInfo specifies a layer to create.
type LayerCreateInfo struct {
	Type LayerType
	// DisableTimewarp turns off pose reprojection for this layer. Use
	// for head-locked content.
	DisableTimewarp bool
	// DisableDistortion turns off lens distortion correction.
	DisableDistortion bool
	// AlphaBlend composites the layer with its alpha channel.
	AlphaBlend bool
}

// Resolution is a texture size in pixels.
type Resolution struct {
	Width  int
	Height int
}

// Layer is a created compositor layer.
type Layer struct {
	// ID identifies the layer in submissions.
	ID int
	// IdealResolution is the per-eye texture size the compositor wants.
	IdealResolution Resolution
	Info            LayerCreateInfo
}

// TextureBounds selects the region of a texture to display, in
// normalized [0, 1] coordinates.
type TextureBounds struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// FullTextureBounds covers the whole texture.
func FullTextureBounds() TextureBounds {
	return TextureBounds{Right: 1, Bottom: 1}
}

// EyeTexture is one eye's rendered output.
type EyeTexture struct {
	// TextureID is the graphics API handle of the texture.
	TextureID uint64
	Bounds    TextureBounds
}

// LayerSubmitInfo carries one finished frame for a layer.
type LayerSubmitInfo struct {
	LayerID int
	// Pose is the render pose the frame was rendered with, as returned
	// by WaitForRenderPose. The compositor uses it for reprojection.
	Pose  frame.PoseFrame
	Left  EyeTexture
	Right EyeTexture
}

// Service is the compositor side of the runtime boundary.
type Service interface {
	// OpenCompositorSession registers a compositor client. Reopening a
	// session id restores its layers.
	OpenCompositorSession(sessionID string) error
	// CloseCompositorSession detaches a client. Its layers persist and
	// are restored when the same session reopens.
	CloseCompositorSession(sessionID string) error
	// Ready reports whether the compositor can accept layer creation.
	Ready() (bool, error)
	// AdapterID identifies the GPU the compositor renders on, so
	// clients can create their device on the same adapter.
	AdapterID() (string, error)
	// CreateLayer creates a layer. A second layer of the same type in
	// one session returns Object_AlreadyRegistered.
	CreateLayer(sessionID string, info LayerCreateInfo) (Layer, error)
	// Submit displays a finished frame on a layer.
	Submit(sessionID string, info LayerSubmitInfo) error
	// WaitForRenderPose blocks until the compositor wants the next
	// frame and returns the pose to render with.
	WaitForRenderPose(ctx context.Context) (frame.PoseFrame, error)
	// LastRenderPose returns the pose of the last WaitForRenderPose
	// without blocking.
	LastRenderPose() (frame.PoseFrame, error)
}
