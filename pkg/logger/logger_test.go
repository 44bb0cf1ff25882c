package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesFileWithoutColours(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	l := New(Options{FilePath: path, Level: logrus.InfoLevel})
	l.Prefixed("importer").Info("Loaded 2 magnet links")
	l.Prefixed("importer").Debug("hidden at info level")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "Loaded 2 magnet links")
	assert.Contains(t, out, "importer")
	assert.NotContains(t, out, "hidden at info level")
	assert.NotContains(t, out, "\x1b[")
}

func TestNew_NoFile(t *testing.T) {
	l := New(Options{Level: logrus.InfoLevel})
	assert.NoError(t, l.Close())
}

func TestRunLogFile(t *testing.T) {
	start := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, "torbox_sync_20240309_140507.log", RunLogFile(start))
}

func TestVerbosityLevel(t *testing.T) {
	tests := []struct {
		count    int
		expected logrus.Level
	}{
		{0, logrus.InfoLevel},
		{1, logrus.DebugLevel},
		{2, logrus.TraceLevel},
		{5, logrus.TraceLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, VerbosityLevel(tt.count))
	}
}
