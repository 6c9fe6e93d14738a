package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsoleLoggerFiltersBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("test-component").WithOutput(&buf).WithColor(false).WithLevel(LevelWarn)

	logger.Debug("should not appear")
	logger.Info("also should not appear")
	require.Empty(t, buf.String())

	logger.Warn("visible", "key", "value")
	require.Contains(t, buf.String(), "WARN")
	require.Contains(t, buf.String(), "visible")
	require.Contains(t, buf.String(), "key=value")
}

func TestNoopLoggerDiscardsEverything(t *testing.T) {
	logger := Noop()
	require.NotPanics(t, func() {
		logger.Debug("x")
		logger.Info("y")
		logger.Warn("z")
		logger.Error("w")
	})
}
