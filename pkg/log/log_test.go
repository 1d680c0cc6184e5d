package log

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent(category Category) Event {
	e := Event{
		Timestamp: time.Now(),
		SessionID: uuid.NewString(),
		Category:  category,
	}
	switch category {
	case CategorySession:
		e.Session = &SessionEvent{NewState: "open", Capabilities: 0x9}
	case CategoryFetch:
		e.Fetch = &FetchEvent{Domain: "eye_tracking", FrameID: 42, FrameTime: 350 * time.Millisecond, Updated: true}
	case CategoryWait:
		e.Wait = &WaitEvent{Gate: "eye_frame", Duration: 8 * time.Millisecond}
	case CategoryCalibration:
		e.Calibration = &CalibrationEvent{NewState: "CollectingData", Method: "Spiral", Prioritized: true}
	case CategorySubmit:
		e.Submit = &SubmitEvent{LayerID: 1, LayerType: "Base", PoseID: 42}
	case CategoryError:
		code := 30
		e.Error = &ErrorEventData{Message: "no update", Code: &code, Context: "FetchEyeTrackingData"}
	}
	return e
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, c := range []Category{CategorySession, CategoryFetch, CategoryWait, CategoryCalibration, CategorySubmit, CategoryError} {
		in := sampleEvent(c)
		data, err := EncodeEvent(in)
		require.NoError(t, err, c.String())

		out, err := DecodeEvent(data)
		require.NoError(t, err, c.String())
		assert.Equal(t, in.SessionID, out.SessionID)
		assert.Equal(t, in.Category, out.Category)
		assert.WithinDuration(t, in.Timestamp, out.Timestamp, time.Microsecond)
	}

	fetch := sampleEvent(CategoryFetch)
	data, err := EncodeEvent(fetch)
	require.NoError(t, err)
	out, err := DecodeEvent(data)
	require.NoError(t, err)
	require.NotNil(t, out.Fetch)
	assert.Equal(t, uint64(42), out.Fetch.FrameID)
	assert.True(t, out.Fetch.Updated)
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.glog")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	events := []Event{
		sampleEvent(CategorySession),
		sampleEvent(CategoryFetch),
		sampleEvent(CategoryFetch),
		sampleEvent(CategoryError),
	}
	for _, e := range events {
		logger.Log(e)
	}
	require.NoError(t, logger.Close())

	// Close is idempotent and later Log calls are ignored.
	require.NoError(t, logger.Close())
	logger.Log(sampleEvent(CategoryWait))

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	var read []Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		read = append(read, e)
	}
	require.Len(t, read, len(events))
	assert.Equal(t, events[0].SessionID, read[0].SessionID)
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.glog")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	session := uuid.NewString()
	for i := 0; i < 3; i++ {
		e := sampleEvent(CategoryFetch)
		e.SessionID = session
		logger.Log(e)
	}
	logger.Log(sampleEvent(CategoryError))
	require.NoError(t, logger.Close())

	cat := CategoryFetch
	r, err := NewFilteredReader(path, Filter{SessionID: session, Category: &cat})
	require.NoError(t, err)
	defer r.Close()

	count := 0
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, session, e.SessionID)
		assert.Equal(t, CategoryFetch, e.Category)
		count++
	}
	assert.Equal(t, 3, count)
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.glog")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				logger.Log(sampleEvent(CategoryFetch))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, logger.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	count := 0
	for {
		if _, err := r.Next(); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("corrupt log after concurrent writes: %v", err)
		}
		count++
	}
	assert.Equal(t, 400, count)
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	sl := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	adapter := NewSlogAdapter(sl)
	adapter.Log(sampleEvent(CategoryWait))

	out := buf.String()
	assert.True(t, strings.Contains(out, "gate=eye_frame"), out)
	assert.True(t, strings.Contains(out, "category=WAIT"), out)
}

func TestMultiLogger(t *testing.T) {
	var mu sync.Mutex
	var got []Event
	fn := loggerFunc(func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	m := NewMultiLogger(fn, NoopLogger{}, fn)
	m.Log(sampleEvent(CategorySession))
	assert.Len(t, got, 2)
}

type loggerFunc func(Event)

func (f loggerFunc) Log(e Event) { f(e) }
