package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesToDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitLoggerIn(filepath.Join(dir, "logs")))
	t.Cleanup(Close)

	Info("Deck loaded", "slides", 3, "title", "Go")
	Warn("Image preload failed", "slide", 1)
	Debug("hidden by default")
	SetDebug(true)
	t.Cleanup(func() { SetDebug(false) })
	Debug("Progress tick", "value", 50)

	matches, err := filepath.Glob(filepath.Join(dir, "logs", "slides-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO: Deck loaded slides=3 title=Go")
	assert.Contains(t, string(data), "WARN: Image preload failed slide=1")
	assert.Contains(t, string(data), "DEBUG: Progress tick value=50")
	assert.NotContains(t, string(data), "hidden by default")
}

func TestLogger_NoopBeforeInit(t *testing.T) {
	Close()
	assert.NotPanics(t, func() {
		Debug("nothing happens", "k", "v")
		Error("odd keyvals are ignored", "dangling")
	})
}
