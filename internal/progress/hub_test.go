package progress_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openscripture/zefbible/internal/progress"
)

// captureSink records every consumed event for assertions.
type captureSink struct {
	mu      sync.Mutex
	events  []progress.Event
	batches int
	closed  bool
}

func (s *captureSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batch...)
	s.batches++
	return nil
}

func (s *captureSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *captureSink) snapshot() ([]progress.Event, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]progress.Event(nil), s.events...), s.batches, s.closed
}

func chapterEvent(runID [16]byte, chapter int) progress.Event {
	return progress.Event{
		RunID:     runID,
		TS:        time.Now().UTC(),
		Stage:     progress.StageChapterDone,
		VersionID: "111",
		USFM:      "GEN",
		Chapter:   chapter,
		Attempts:  1,
		Verses:    10,
	}
}

func TestHubDeliversEventsToSinks(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := progress.NewHub(progress.Config{MaxBatchWait: 10 * time.Millisecond}, sink)
	runID := progress.RunIDBytes(uuid.NewString())

	for i := 1; i <= 5; i++ {
		hub.Emit(chapterEvent(runID, i))
	}
	require.NoError(t, hub.Close(context.Background()))

	events, _, closed := sink.snapshot()
	require.Len(t, events, 5)
	assert.Equal(t, 1, events[0].Chapter)
	assert.Equal(t, 5, events[4].Chapter)
	assert.True(t, closed, "close must propagate to sinks")
}

func TestHubFlushesFullBatches(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := progress.NewHub(progress.Config{MaxBatchEvents: 2, MaxBatchWait: time.Minute}, sink)
	runID := progress.RunIDBytes(uuid.NewString())

	for i := 1; i <= 4; i++ {
		hub.Emit(chapterEvent(runID, i))
	}

	require.Eventually(t, func() bool {
		events, batches, _ := sink.snapshot()
		return len(events) == 4 && batches >= 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Close(context.Background()))
}

func TestHubDiscardsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := progress.NewHub(progress.Config{}, sink)

	// No run id, unparseable run id, and no chapter number respectively.
	hub.Emit(progress.Event{})
	hub.Emit(chapterEvent(progress.RunIDBytes("not-a-uuid"), 1))
	hub.Emit(chapterEvent(progress.RunIDBytes(uuid.NewString()), 0))

	require.NoError(t, hub.Close(context.Background()))
	events, _, _ := sink.snapshot()
	assert.Empty(t, events)
}

func TestHubEmitAfterCloseIsIgnored(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := progress.NewHub(progress.Config{}, sink)
	require.NoError(t, hub.Close(context.Background()))

	hub.Emit(chapterEvent(progress.RunIDBytes(uuid.NewString()), 1))

	events, _, _ := sink.snapshot()
	assert.Empty(t, events)
}

func TestNilHubIsSafe(t *testing.T) {
	t.Parallel()

	var hub *progress.Hub
	hub.Emit(chapterEvent(progress.RunIDBytes(uuid.NewString()), 1))
	require.NoError(t, hub.Close(context.Background()))
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	runID := progress.RunIDBytes(uuid.NewString())
	now := time.Now().UTC()

	tests := []struct {
		name    string
		event   progress.Event
		wantErr string
	}{
		{
			name:  "valid run event",
			event: progress.Event{RunID: runID, TS: now, Stage: progress.StageRunStart, VersionID: "111"},
		},
		{
			name:  "valid chapter event",
			event: chapterEvent(runID, 3),
		},
		{
			name:    "missing run id",
			event:   progress.Event{TS: now, Stage: progress.StageRunStart, VersionID: "111"},
			wantErr: "run id",
		},
		{
			name:    "missing timestamp",
			event:   progress.Event{RunID: runID, Stage: progress.StageRunStart, VersionID: "111"},
			wantErr: "timestamp",
		},
		{
			name:    "missing version",
			event:   progress.Event{RunID: runID, TS: now, Stage: progress.StageRunStart},
			wantErr: "version id",
		},
		{
			name:    "chapter event without book",
			event:   progress.Event{RunID: runID, TS: now, Stage: progress.StageChapterDone, VersionID: "111", Chapter: 1},
			wantErr: "require a book",
		},
		{
			name:    "unknown stage",
			event:   progress.Event{RunID: runID, TS: now, Stage: "BOGUS", VersionID: "111"},
			wantErr: "unknown stage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.event.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
