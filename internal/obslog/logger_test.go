package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempLogDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()

	origLogDir := logDir
	origInitErr := initErr
	origInitOnce := initOnce
	origSessionID := processSessionID
	origSessionIDOnce := processSessionIDOnce

	t.Setenv("BROWSER_LOG_DIR", dir)
	logDir = ""
	initErr = nil
	initOnce = sync.Once{}
	processSessionID = ""
	processSessionIDOnce = sync.Once{}

	t.Cleanup(func() {
		logDir = origLogDir
		initErr = origInitErr
		initOnce = origInitOnce
		processSessionID = origSessionID
		processSessionIDOnce = origSessionIDOnce
	})
}

func TestNewWritesToSessionFile(t *testing.T) {
	withTempLogDir(t)

	l, err := New("pool")
	require.NoError(t, err)
	defer l.Close()

	l.Infof("hello %s", "world")

	data, err := os.ReadFile(l.LogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[pool] [INFO] hello world")
}

func TestDebugfGatedByLogLevel(t *testing.T) {
	withTempLogDir(t)
	l, err := New("engine")
	require.NoError(t, err)
	defer l.Close()

	l.Debugf("should not appear")
	data, _ := os.ReadFile(l.LogPath())
	assert.NotContains(t, string(data), "should not appear")

	t.Setenv("LOG_LEVEL", "debug")
	l2, err := New("engine")
	require.NoError(t, err)
	defer l2.Close()
	l2.Debugf("should appear")
	data2, _ := os.ReadFile(l2.LogPath())
	assert.Contains(t, string(data2), "should appear")
}

func TestSharedSessionFileAcrossComponents(t *testing.T) {
	withTempLogDir(t)

	a, err := New("a")
	require.NoError(t, err)
	defer a.Close()
	b, err := New("b")
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, a.LogPath(), b.LogPath())
	assert.True(t, strings.HasSuffix(filepath.Base(a.LogPath()), "-voyager.log"))
}
