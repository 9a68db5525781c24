package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupDisabledByDefault(t *testing.T) {
	file, err := Setup(false, t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, file)
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}

func TestSetupEnabledWithDebug(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	file, err := Setup(true, dir)
	require.NoError(t, err)
	require.NotNil(t, file)
	defer func() {
		file.Close()
		SetLogger(nil)
	}()

	Logger().Debug("test log message", "frame", 1)

	info, err := os.Stat(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.NotZero(t, info.Size(), "expected log file to contain content")
}

func TestSetupRotation(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, logFileName)
	require.NoError(t, os.WriteFile(logPath, make([]byte, maxLogSize+1), 0644))

	file, err := Setup(true, dir)
	require.NoError(t, err)
	defer func() {
		file.Close()
		SetLogger(nil)
	}()

	old, err := os.Stat(logPath + ".old")
	require.NoError(t, err, "expected rotated log")
	assert.Equal(t, int64(maxLogSize+1), old.Size())

	fresh, err := os.Stat(logPath)
	require.NoError(t, err)
	assert.Less(t, fresh.Size(), int64(maxLogSize))
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewLogger(&buf, slog.LevelInfo))
	defer SetLogger(nil)

	Logger().Debug("hidden")
	Logger().Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
