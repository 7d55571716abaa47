package bible

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorTaxonomy_As(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: i/o timeout")
	wrapped := fmt.Errorf("fetch chapter: %w", &TransientFetchError{URL: "https://example.com/GEN.1", Err: cause})

	var transient *TransientFetchError
	require.True(t, errors.As(wrapped, &transient))
	require.Equal(t, "https://example.com/GEN.1", transient.URL)
	require.ErrorIs(t, wrapped, cause)

	var notFound *NotFoundError
	require.False(t, errors.As(wrapped, &notFound))
}

func TestNotFoundError_Message(t *testing.T) {
	t.Parallel()

	err := &NotFoundError{VersionID: "9999"}
	require.EqualError(t, err, `bible version "9999" not found`)
}

func TestMalformedResponseError_Message(t *testing.T) {
	t.Parallel()

	bare := &MalformedResponseError{URL: "u", Reason: "content fragment missing"}
	require.EqualError(t, bare, "malformed response from u: content fragment missing")

	cause := errors.New("unexpected end of JSON input")
	withCause := &MalformedResponseError{URL: "u", Reason: "decode version payload", Err: cause}
	require.ErrorIs(t, withCause, cause)
}

func TestIncompleteDataError_Message(t *testing.T) {
	t.Parallel()

	err := &IncompleteDataError{Failed: 20, Total: 1189, Threshold: 0.01}
	require.EqualError(t, err, "incomplete data: 20 of 1189 chapters failed, above the 1.00% threshold")
}
