package artifacts_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/entrhq/voyager/internal/artifacts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteScreenshotWritesUnderSessionDirWithExpectedSuffix(t *testing.T) {
	dir := t.TempDir()
	w := artifacts.NewWriter(dir, 0)

	path, err := w.WriteScreenshot("sess-1", "click", "after", []byte("fake-png"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "sess-1"), filepath.Dir(path))
	assert.Contains(t, filepath.Base(path), "click-after.png")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fake-png", string(data))
}

func TestWriteHTMLOmitsLabelSegmentWhenLabelEmpty(t *testing.T) {
	dir := t.TempDir()
	w := artifacts.NewWriter(dir, 0)

	path, err := w.WriteHTML("sess-1", "getPageContent", "", "<html></html>")
	require.NoError(t, err)

	assert.Regexp(t, `\d+-getPageContent\.html$`, filepath.Base(path))
}

func TestWriteRejectsSessionIDContainingPathTraversal(t *testing.T) {
	dir := t.TempDir()
	w := artifacts.NewWriter(dir, 0)

	_, err := w.WriteScreenshot("../escape", "click", "", []byte("x"))
	assert.Error(t, err)

	_, err = w.WritePDF("../escape", "pdf", "", []byte("x"), artifacts.Metadata{})
	assert.Error(t, err, "session validation runs before PDF stamping is attempted")
}

func TestEnforceRetentionKeepsOnlyMostRecentSessionDirsByMtime(t *testing.T) {
	dir := t.TempDir()
	w := artifacts.NewWriter(dir, 2)

	names := []string{"s1", "s2", "s3", "s4"}
	for i, name := range names {
		sub := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(sub, 0o755))
		mtime := time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(sub, mtime, mtime))
	}

	require.NoError(t, w.EnforceRetention())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	var remaining []string
	for _, e := range entries {
		remaining = append(remaining, e.Name())
	}
	assert.ElementsMatch(t, []string{"s3", "s4"}, remaining)
}

func TestEnforceRetentionNoOpWhenBaseDirMissing(t *testing.T) {
	w := artifacts.NewWriter(filepath.Join(t.TempDir(), "does-not-exist"), 10)
	assert.NoError(t, w.EnforceRetention())
}
