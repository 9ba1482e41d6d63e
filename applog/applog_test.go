// ABOUTME: Tests for logger construction
// ABOUTME: Checks level parsing and file output
package applog

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")
	assert.Equal(t, log.WarnLevel, l.GetLevel())
	l.Info("hidden")
	l.Warn("shown", "key", "value")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "key=value")

	assert.Equal(t, log.InfoLevel, New(&buf, "loud").GetLevel())
}

func TestFileLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	l, closeFn, err := File(dir, "tui.log", "debug")
	require.NoError(t, err)
	l.Debug("hello")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(filepath.Join(dir, "tui.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
