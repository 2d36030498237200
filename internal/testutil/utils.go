package testutil

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

// TestLogger returns a logger that stays quiet unless tests run verbose.
func TestLogger(t *testing.T) *logrus.Logger {
	logger := logrus.New()
	if !testing.Verbose() {
		logger.SetOutput(io.Discard)
	}
	t.Cleanup(func() {
		logger.SetOutput(io.Discard)
	})
	return logger
}
