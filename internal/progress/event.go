package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart      Stage = "RUN_START"
	StageRunDone       Stage = "RUN_DONE"
	StageRunError      Stage = "RUN_ERROR"
	StageChapterDone   Stage = "CHAPTER_DONE"
	StageChapterRetry  Stage = "CHAPTER_RETRY"
	StageChapterFailed Stage = "CHAPTER_FAILED"
)

// Event captures a single milestone of a conversion run.
type Event struct {
	// RunID uniquely identifies a run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle or chapter milestone occurred.
	Stage Stage
	// VersionID identifies the version being converted.
	VersionID string
	// USFM names the book for chapter events.
	USFM string
	// Chapter is the 1-based chapter number for chapter events.
	Chapter int
	// Attempts counts fetch attempts made for the chapter so far.
	Attempts int
	// Verses carries the verse count of a successfully fetched chapter.
	Verses int
	// Dur captures execution latency for chapter fetches and run completions.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError:
	case StageChapterDone, StageChapterRetry, StageChapterFailed:
		if e.USFM == "" {
			return errors.New("chapter events require a book")
		}
		if e.Chapter <= 0 {
			return errors.New("chapter events require a chapter number")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.VersionID == "" {
		return errors.New("version id is required")
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// RunIDBytes encodes a run ID string into the Event form. Unparseable IDs
// yield the zero value, which Validate rejects.
func RunIDBytes(id string) [16]byte {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return [16]byte{}
	}
	var dest [16]byte
	copy(dest[:], parsed[:])
	return dest
}
