// Package artifacts writes screenshots, HTML captures, and PDFs produced by
// actions to a per-session directory tree and enforces retention, per
// spec.md §6: "{baseDir}/{sessionId}/{epochMs}-{action}[-{label}].{ext}",
// keeping at most maxSessions session directories by mtime.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/entrhq/voyager/internal/pathguard"
)

const defaultMaxSessions = 100

// Writer owns one artifact root directory.
type Writer struct {
	BaseDir     string
	MaxSessions int
}

// NewWriter builds a Writer defaulting MaxSessions to 100 per spec.md §6.
func NewWriter(baseDir string, maxSessions int) *Writer {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	return &Writer{BaseDir: baseDir, MaxSessions: maxSessions}
}

// filename builds "{epochMs}-{action}[-{label}].{ext}".
func filename(action, label, ext string) string {
	epochMs := time.Now().UnixMilli()
	if label != "" {
		return fmt.Sprintf("%d-%s-%s.%s", epochMs, action, label, ext)
	}
	return fmt.Sprintf("%d-%s.%s", epochMs, action, ext)
}

func (w *Writer) sessionDir(sessionID string) (string, error) {
	return pathguard.JoinUnder(w.BaseDir, "session id", sessionID)
}

func (w *Writer) write(sessionID, action, label, ext string, data []byte) (string, error) {
	dir, err := w.sessionDir(sessionID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename(action, label, ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteScreenshot persists PNG bytes under the session directory and
// enforces retention afterward, per spec.md §6 ("enforced ... after
// screenshots").
func (w *Writer) WriteScreenshot(sessionID, action, label string, png []byte) (string, error) {
	path, err := w.write(sessionID, action, label, "png", png)
	if err != nil {
		return "", err
	}
	if rerr := w.EnforceRetention(); rerr != nil {
		return path, rerr
	}
	return path, nil
}

// WriteHTML persists a page-content capture as an .html artifact.
func (w *Writer) WriteHTML(sessionID, action, label, html string) (string, error) {
	return w.write(sessionID, action, label, "html", []byte(html))
}

// WritePDF validates sessionID, stamps document metadata onto pdf via
// StampMetadata, then persists the stamped bytes as a .pdf artifact.
func (w *Writer) WritePDF(sessionID, action, label string, pdf []byte, meta Metadata) (string, error) {
	if _, err := w.sessionDir(sessionID); err != nil {
		return "", err
	}
	stamped, err := StampMetadata(pdf, meta)
	if err != nil {
		return "", err
	}
	return w.write(sessionID, action, label, "pdf", stamped)
}

// EnforceRetention keeps at most MaxSessions session directories under
// BaseDir, evicting the oldest by mtime; called on startup, on shutdown, and
// after every screenshot write.
func (w *Writer) EnforceRetention() error {
	entries, err := os.ReadDir(w.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	type dirInfo struct {
		name  string
		mtime time.Time
	}
	var dirs []dirInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, dirInfo{name: e.Name(), mtime: info.ModTime()})
	}

	if len(dirs) <= w.MaxSessions {
		return nil
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].mtime.After(dirs[j].mtime) })

	for _, d := range dirs[w.MaxSessions:] {
		if err := os.RemoveAll(filepath.Join(w.BaseDir, d.name)); err != nil {
			return err
		}
	}
	return nil
}
