package log

import (
	"time"
)

// Event represents an SDK log event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the client session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Profile is the current user profile, when one is selected.
	Profile string `cbor:"4,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Session     *SessionEvent     `cbor:"10,keyasint,omitempty"` // Session lifecycle
	Fetch       *FetchEvent       `cbor:"11,keyasint,omitempty"` // Frame fetches
	Wait        *WaitEvent        `cbor:"12,keyasint,omitempty"` // Blocking waits
	Calibration *CalibrationEvent `cbor:"13,keyasint,omitempty"` // Calibration progress
	Submit      *SubmitEvent      `cbor:"14,keyasint,omitempty"` // Compositor submissions
	Error       *ErrorEventData   `cbor:"15,keyasint,omitempty"` // Errors
}

// Category classifies the event type.
type Category uint8

const (
	// CategorySession indicates a session lifecycle event.
	CategorySession Category = 0
	// CategoryFetch indicates a frame fetch.
	CategoryFetch Category = 1
	// CategoryWait indicates a blocking wait.
	CategoryWait Category = 2
	// CategoryCalibration indicates calibration progress.
	CategoryCalibration Category = 3
	// CategorySubmit indicates a compositor submission.
	CategorySubmit Category = 4
	// CategoryError indicates an error event.
	CategoryError Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategorySession:
		return "SESSION"
	case CategoryFetch:
		return "FETCH"
	case CategoryWait:
		return "WAIT"
	case CategoryCalibration:
		return "CALIBRATION"
	case CategorySubmit:
		return "SUBMIT"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SessionEvent captures session lifecycle changes.
type SessionEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Capabilities is the effective capability set, as a bitmask.
	Capabilities uint32 `cbor:"3,keyasint,omitempty"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// FetchEvent captures one frame fetch call.
type FetchEvent struct {
	// Domain is the fetched data domain name.
	Domain string `cbor:"1,keyasint"`

	// FrameID is the timestamp id of the fetched frame (0 when none).
	FrameID uint64 `cbor:"2,keyasint,omitempty"`

	// FrameTime is the frame timestamp, nanoseconds since tracking start.
	FrameTime time.Duration `cbor:"3,keyasint,omitempty"`

	// Updated reports whether the fetch replaced the cached frame.
	Updated bool `cbor:"4,keyasint,omitempty"`

	// Status is the result code name ("None", "Data_NoUpdate", ...).
	Status string `cbor:"5,keyasint,omitempty"`
}

// WaitEvent captures one blocking wait call.
type WaitEvent struct {
	// Gate names the wait gate ("eye_frame" or "render_pose").
	Gate string `cbor:"1,keyasint"`

	// Duration is how long the call blocked.
	Duration time.Duration `cbor:"2,keyasint"`

	// Status is the result code name.
	Status string `cbor:"3,keyasint,omitempty"`
}

// CalibrationEvent captures calibration state transitions.
type CalibrationEvent struct {
	// OldState is the previous calibration state name.
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new calibration state name.
	NewState string `cbor:"2,keyasint"`

	// Method is the calibration method name.
	Method string `cbor:"3,keyasint,omitempty"`

	// Prioritized reports whether this client renders the process.
	Prioritized bool `cbor:"4,keyasint,omitempty"`
}

// SubmitEvent captures one compositor layer submission.
type SubmitEvent struct {
	// LayerID identifies the submitted layer.
	LayerID int `cbor:"1,keyasint"`

	// LayerType is the layer type name.
	LayerType string `cbor:"2,keyasint,omitempty"`

	// PoseID is the timestamp id of the pose the frame was rendered with.
	PoseID uint64 `cbor:"3,keyasint,omitempty"`

	// Status is the result code name.
	Status string `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures errors from any operation.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Code is the status code (if applicable).
	Code *int `cbor:"2,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
