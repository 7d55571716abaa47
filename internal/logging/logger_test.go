// Package logging includes tests for the zap logger helpers.
package logging

import (
	"testing"

	"go.uber.org/zap"
)

// TestNewDevelopmentLogger confirms the development logger builds and keeps
// debug output enabled.
func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	if !logger.Core().Enabled(zap.DebugLevel) {
		t.Fatal("expected development logger to log at debug level")
	}
	logger.Debug("development logger ready")
}

// TestNewProductionLogger ensures the production logger builds and filters
// debug output.
func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	if err != nil {
		t.Fatalf("New(false) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	if logger.Core().Enabled(zap.DebugLevel) {
		t.Fatal("expected production logger to filter debug level")
	}
	logger.Info("production logger ready")
}
