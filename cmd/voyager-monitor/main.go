// Command voyager-monitor is a live terminal dashboard over a voyager
// session store: a table of pooled sessions plus health/retry/percentile
// stats drawn from the persisted action log, polled on an interval since
// the dashboard runs as a separate process from the voyager runner it
// observes.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/voyager/internal/config"
	"github.com/entrhq/voyager/internal/store/sqlite"
)

func main() {
	baseDir := flag.String("base-dir", ".voyager", "base directory matching the voyager runner's -base-dir")
	interval := flag.Duration("interval", 2*time.Second, "poll interval")
	flag.Parse()

	paths := config.LoadPaths(*baseDir)

	store, err := sqlite.Open(paths.StorePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "voyager-monitor: open store %s: %v\n", paths.StorePath, err)
		os.Exit(1)
	}
	defer store.Close()

	m := newModel(store, store, *interval)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "voyager-monitor: %v\n", err)
		os.Exit(1)
	}
}
