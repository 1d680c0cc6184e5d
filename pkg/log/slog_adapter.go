package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger.
// Useful for development when you want to see SDK events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session_id", event.SessionID),
		slog.String("category", event.Category.String()),
	}

	if event.Profile != "" {
		attrs = append(attrs, slog.String("profile", event.Profile))
	}

	// Add type-specific attributes
	switch {
	case event.Session != nil:
		attrs = append(attrs,
			slog.String("old_state", event.Session.OldState),
			slog.String("new_state", event.Session.NewState),
		)
		if event.Session.Capabilities != 0 {
			attrs = append(attrs, slog.Uint64("capabilities", uint64(event.Session.Capabilities)))
		}
		if event.Session.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Session.Reason))
		}
	case event.Fetch != nil:
		attrs = append(attrs,
			slog.String("domain", event.Fetch.Domain),
			slog.Uint64("frame_id", event.Fetch.FrameID),
			slog.Bool("updated", event.Fetch.Updated),
		)
		if event.Fetch.Status != "" {
			attrs = append(attrs, slog.String("status", event.Fetch.Status))
		}
	case event.Wait != nil:
		attrs = append(attrs,
			slog.String("gate", event.Wait.Gate),
			slog.Duration("duration", event.Wait.Duration),
		)
		if event.Wait.Status != "" {
			attrs = append(attrs, slog.String("status", event.Wait.Status))
		}
	case event.Calibration != nil:
		attrs = append(attrs,
			slog.String("old_state", event.Calibration.OldState),
			slog.String("new_state", event.Calibration.NewState),
			slog.Bool("prioritized", event.Calibration.Prioritized),
		)
		if event.Calibration.Method != "" {
			attrs = append(attrs, slog.String("method", event.Calibration.Method))
		}
	case event.Submit != nil:
		attrs = append(attrs,
			slog.Int("layer_id", event.Submit.LayerID),
			slog.Uint64("pose_id", event.Submit.PoseID),
		)
		if event.Submit.LayerType != "" {
			attrs = append(attrs, slog.String("layer_type", event.Submit.LayerType))
		}
		if event.Submit.Status != "" {
			attrs = append(attrs, slog.String("status", event.Submit.Status))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "gazelink", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
