package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gazelink-protocol/gazelink-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.glog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func sampleEvents() []log.Event {
	ts := time.Date(2026, 8, 30, 10, 15, 32, 123456000, time.UTC)
	return []log.Event{
		{
			Timestamp: ts,
			SessionID: "abc12345-0000",
			Category:  log.CategorySession,
			Session:   &log.SessionEvent{NewState: "open", Capabilities: 0x14},
		},
		{
			Timestamp: ts.Add(100 * time.Millisecond),
			SessionID: "abc12345-0000",
			Category:  log.CategoryFetch,
			Profile:   "alice",
			Fetch:     &log.FetchEvent{Domain: "eye_tracking", FrameID: 7, Updated: true},
		},
		{
			Timestamp: ts.Add(200 * time.Millisecond),
			SessionID: "abc12345-0000",
			Category:  log.CategoryFetch,
			Profile:   "alice",
			Fetch:     &log.FetchEvent{Domain: "eye_tracking", FrameID: 7},
		},
		{
			Timestamp: ts.Add(300 * time.Millisecond),
			SessionID: "ffff0000-1111",
			Category:  log.CategoryWait,
			Wait:      &log.WaitEvent{Gate: "render_pose", Duration: 11 * time.Millisecond},
		},
	}
}

func TestRunView(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"FETCH", "eye_tracking", "render_pose", "SESSION"} {
		if !strings.Contains(out, want) {
			t.Errorf("view output missing %q:\n%s", want, out)
		}
	}
}

func TestRunViewFiltered(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	cat := log.CategoryWait
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Category: &cat}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "render_pose") {
		t.Errorf("filtered view missing wait event:\n%s", out)
	}
	if strings.Contains(out, "eye_tracking") {
		t.Errorf("filtered view leaked fetch events:\n%s", out)
	}
}

func TestRunExportJSONL(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	outPath := filepath.Join(t.TempDir(), "out.jsonl")
	if err := RunExport(path, "jsonl", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Errorf("expected 4 lines, got %d", len(lines))
	}
}

func TestRunExportCSV(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	outPath := filepath.Join(t.TempDir(), "out.csv")
	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// Header plus four events
	if len(lines) != 5 {
		t.Errorf("expected 5 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "timestamp,session_id,") {
		t.Errorf("unexpected header: %s", lines[0])
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	if err := RunExport(path, "xml", ""); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRunFilter(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	outPath := filepath.Join(t.TempDir(), "filtered.glog")
	err := RunFilter(path, FilterOptions{
		Output:    outPath,
		SessionID: "abc12345-0000",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	// The filtered file is a valid log file with only that session.
	reader, err := log.NewReader(outPath)
	if err != nil {
		t.Fatalf("failed to open filtered file: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err != nil {
			break
		}
		if event.SessionID != "abc12345-0000" {
			t.Errorf("unexpected session in filtered file: %s", event.SessionID)
		}
		count++
	}
	if count != 3 {
		t.Errorf("expected 3 filtered events, got %d", count)
	}
}

func TestRunStats(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Total Events: 4", "Sessions: 2", "FETCH", "Fetches: 2 (1 without a newer frame)"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestParseCategoryFlag(t *testing.T) {
	c, err := ParseCategoryFlag("fetch")
	if err != nil || c != log.CategoryFetch {
		t.Errorf("ParseCategoryFlag(fetch) = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("bogus"); err == nil {
		t.Error("expected error for unknown category")
	}
}
