package evqueue

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogger_IsEnabledRespectsLevel(t *testing.T) {
	l := NewDefaultLogger(LevelWarn)
	assert.False(t, l.IsEnabled(LevelDebug))
	assert.False(t, l.IsEnabled(LevelInfo))
	assert.True(t, l.IsEnabled(LevelWarn))
	assert.True(t, l.IsEnabled(LevelError))

	l.SetLevel(LevelDebug)
	assert.True(t, l.IsEnabled(LevelDebug))
}

func TestDefaultLogger_LogWritesJSONToRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evqueue.log")
	l, err := NewFileLogger(LevelInfo, path)
	require.NoError(t, err)
	defer l.Out.Close()

	l.Log(LogEntry{
		Level:    LevelError,
		Category: "timer",
		Message:  "timer fired twice",
		QueueID:  1,
		HandleID: 2,
		Err:      errors.New("boom"),
	})

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(contents)
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"category":"timer"`)
	assert.Contains(t, out, `"message":"timer fired twice"`)
	assert.Contains(t, out, `"queue":1`)
	assert.Contains(t, out, `"handle":2`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestDefaultLogger_LogSkipsEntriesBelowThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evqueue.log")
	l, err := NewFileLogger(LevelError, path)
	require.NoError(t, err)
	defer l.Out.Close()

	l.Log(LogEntry{Level: LevelInfo, Message: "ignored"})

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, contents)
}

func TestNoOpLogger_DiscardsEverything(t *testing.T) {
	l := NewNoOpLogger()
	assert.False(t, l.IsEnabled(LevelError))
	assert.NotPanics(t, func() { l.Log(LogEntry{Level: LevelError, Message: "x"}) })
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Contains(t, LogLevel(99).String(), "UNKNOWN")
}

func TestSetStructuredLogger_ChangesGlobalDefault(t *testing.T) {
	orig := getGlobalLogger()
	defer SetStructuredLogger(orig)

	custom := NewDefaultLogger(LevelDebug)
	SetStructuredLogger(custom)
	assert.Same(t, custom, getGlobalLogger())
}
