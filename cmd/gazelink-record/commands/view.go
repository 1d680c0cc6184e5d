// Package commands implements the gazelink-record CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gazelink-protocol/gazelink-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	SessionID string
	Category  *log.Category
}

// ParseCategoryFlag parses a category name from a command line flag.
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "session":
		return log.CategorySession, nil
	case "fetch":
		return log.CategoryFetch, nil
	case "wait":
		return log.CategoryWait, nil
	case "calibration":
		return log.CategoryCalibration, nil
	case "submit":
		return log.CategorySubmit, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category: %s (supported: session, fetch, wait, calibration, submit, error)", s)
	}
}

// RunView reads the log file and prints matching events.
func RunView(path string, filter ViewFilter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, log.Filter{
		SessionID: filter.SessionID,
		Category:  filter.Category,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session:id] CATEGORY Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	session := shortenSessionID(event.SessionID)

	var typeLabel string
	switch {
	case event.Session != nil:
		typeLabel = event.Session.NewState
	case event.Fetch != nil:
		typeLabel = event.Fetch.Domain
	case event.Wait != nil:
		typeLabel = event.Wait.Gate
	case event.Calibration != nil:
		typeLabel = event.Calibration.NewState
	case event.Submit != nil:
		typeLabel = fmt.Sprintf("layer %d", event.Submit.LayerID)
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [session:%s] %-11s %s\n", ts, session, event.Category.String(), typeLabel)

	switch {
	case event.Session != nil:
		formatSessionDetails(w, event.Session)
	case event.Fetch != nil:
		formatFetchDetails(w, event.Fetch)
	case event.Wait != nil:
		formatWaitDetails(w, event.Wait)
	case event.Calibration != nil:
		formatCalibrationDetails(w, event.Calibration)
	case event.Submit != nil:
		formatSubmitDetails(w, event.Submit)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatSessionDetails(w io.Writer, s *log.SessionEvent) {
	if s.OldState != "" {
		fmt.Fprintf(w, "  Transition: %s -> %s\n", s.OldState, s.NewState)
	}
	if s.Capabilities != 0 {
		fmt.Fprintf(w, "  Capabilities: %#08x\n", s.Capabilities)
	}
	if s.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", s.Reason)
	}
}

func formatFetchDetails(w io.Writer, f *log.FetchEvent) {
	if f.FrameID != 0 {
		fmt.Fprintf(w, "  Frame: %d at %s (updated: %v)\n", f.FrameID, formatDuration(f.FrameTime), f.Updated)
	}
	if f.Status != "" {
		fmt.Fprintf(w, "  Status: %s\n", f.Status)
	}
}

func formatWaitDetails(w io.Writer, wait *log.WaitEvent) {
	fmt.Fprintf(w, "  Blocked: %s\n", formatDuration(wait.Duration))
	if wait.Status != "" {
		fmt.Fprintf(w, "  Status: %s\n", wait.Status)
	}
}

func formatCalibrationDetails(w io.Writer, c *log.CalibrationEvent) {
	if c.OldState != "" {
		fmt.Fprintf(w, "  Transition: %s -> %s\n", c.OldState, c.NewState)
	}
	if c.Method != "" {
		fmt.Fprintf(w, "  Method: %s\n", c.Method)
	}
	if c.Prioritized {
		fmt.Fprintf(w, "  Prioritized: true\n")
	}
}

func formatSubmitDetails(w io.Writer, s *log.SubmitEvent) {
	if s.LayerType != "" {
		fmt.Fprintf(w, "  Type: %s\n", s.LayerType)
	}
	if s.PoseID != 0 {
		fmt.Fprintf(w, "  Pose: %d\n", s.PoseID)
	}
	if s.Status != "" {
		fmt.Fprintf(w, "  Status: %s\n", s.Status)
	}
}

func formatErrorDetails(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", e.Message)
	if e.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *e.Code)
	}
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", e.Context)
	}
}

// formatDuration renders a duration with millisecond precision.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return d.Round(10 * time.Microsecond).String()
}
