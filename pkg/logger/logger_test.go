package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{" Warning ", LevelWarning},
		{"WARN", LevelWarning},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.input))
		})
	}
}

// readEntries returns the JSON lines written to the log file at path.
func readEntries(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNew_FiltersByLevel(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "run.log")
	log := New(&console, path, LevelWarning)

	log.Debugf("debug %d", 1)
	log.Infof("info %d", 2)
	log.Warnf("warn %d", 3)
	log.Errorf("error %d", 4)
	require.NoError(t, log.Close())

	entries := readEntries(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "warn 3", entries[0]["message"])
	assert.Equal(t, "error", entries[1]["level"])
	assert.NotContains(t, console.String(), "info 2")
}

func TestWith_AddsField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	log := New(&bytes.Buffer{}, path, LevelDebug)
	log.With("site", "S1").Infof("hello")
	require.NoError(t, log.Close())

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "S1", entries[0]["site"])
	assert.Equal(t, "hello", entries[0]["message"])
}

func TestNilLoggerIsSafe(t *testing.T) {
	var log *Logger
	log.Debugf("x")
	log.Infof("x")
	log.Warnf("x")
	log.Errorf("x")
	assert.Nil(t, log.With("k", "v"))
	assert.NoError(t, log.Close())
}

func TestNew_WritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "run.log")

	log := New(&console, path, LevelInfo)
	log.Infof("fetching sites for %s", "org-1")

	assert.Contains(t, console.String(), "fetching sites for org-1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"fetching sites for org-1"`)
	require.NoError(t, log.Close())
}

func TestClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	log := New(&bytes.Buffer{}, path, LevelInfo)
	require.NoError(t, log.Close())
	assert.NoError(t, log.Close(), "second close is a no-op")

	assert.NoError(t, New(&bytes.Buffer{}, "", LevelInfo).Close())
}

func TestNew_UnopenableFile(t *testing.T) {
	var console bytes.Buffer
	log := New(&console, filepath.Join(t.TempDir(), "missing", "run.log"), LevelInfo)
	assert.Contains(t, console.String(), "failed to open log file")

	log.Infof("still logs")
	assert.Contains(t, console.String(), "still logs")
	assert.NoError(t, log.Close())
}
