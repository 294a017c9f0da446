package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vitaminmoo/bw16-tool/internal/config"
	"github.com/vitaminmoo/bw16-tool/internal/engine"
	"github.com/vitaminmoo/bw16-tool/internal/store"
)

// Options configures the TUI beyond the engine it drives.
type Options struct {
	Store    *store.Store // nil disables saving and browsing scans
	Sighting store.Sighting

	// Expected durations for the progress bar.
	DetectEstimate time.Duration
	ScanEstimate   time.Duration
	BLEEstimate    time.Duration
}

// typicalScan is how long the firmware usually takes to finish a sweep.
const typicalScan = 6 * time.Second

// NewOptions derives progress estimates from the configured waits.
func NewOptions(cfg config.Config, st *store.Store, seen store.Sighting) Options {
	d := cfg.Detect
	scan := cfg.Scan.PollInterval * time.Duration(cfg.Scan.PollCount)
	if scan > typicalScan {
		scan = typicalScan
	}
	if cfg.Scan.Duration > 0 {
		scan = time.Duration(cfg.Scan.Duration) * time.Millisecond
	}
	return Options{
		Store:          st,
		Sighting:       seen,
		DetectEstimate: d.BootWait + d.InfoWait,
		ScanEstimate:   scan + cfg.Scan.ListWait + cfg.Scan.ClientWait,
		BLEEstimate:    cfg.Scan.BLEWait + cfg.Scan.BLEListWait,
	}
}

// Run starts the TUI application. Log output goes to tui.log in the
// store directory while the screen is taken over.
func Run(e *engine.Engine, opts Options) error {
	restore := redirectLog(opts.Store)
	defer restore()

	m := NewModel(e, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return err
	}

	return nil
}

func redirectLog(st *store.Store) func() {
	prev := config.Log.Out
	var out io.Writer = io.Discard
	var f *os.File
	if st != nil {
		var err error
		f, err = os.OpenFile(filepath.Join(st.Dir(), "tui.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err == nil {
			out = f
		}
	}
	config.Log.SetOutput(out)
	return func() {
		config.Log.SetOutput(prev)
		if f != nil {
			f.Close()
		}
	}
}
