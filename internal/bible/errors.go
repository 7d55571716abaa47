package bible

import "fmt"

// NotFoundError reports a version identifier the provider does not know.
// It is fatal: no output is produced for the run.
type NotFoundError struct {
	VersionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("bible version %q not found", e.VersionID)
}

// TransientFetchError reports a request that failed for network or timeout
// reasons. Callers may retry within the bounds of their RetryPolicy.
type TransientFetchError struct {
	URL string
	Err error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("transient fetch failure for %s: %v", e.URL, e.Err)
}

func (e *TransientFetchError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a provider response that could not be
// parsed into the expected shape. Fatal for metadata; recorded as a
// per-chapter failure for chapter content.
type MalformedResponseError struct {
	URL    string
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response from %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed response from %s: %s", e.URL, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// IncompleteDataError reports that too many chapters failed to fetch for the
// output to be trusted. Fatal: nothing is written.
type IncompleteDataError struct {
	Failed    int
	Total     int
	Threshold float64
	Refs      []ChapterRef
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf(
		"incomplete data: %d of %d chapters failed, above the %.2f%% threshold",
		e.Failed, e.Total, e.Threshold*100,
	)
}
