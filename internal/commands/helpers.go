package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/vitaminmoo/bw16-tool/internal/config"
	"github.com/vitaminmoo/bw16-tool/internal/engine"
	"github.com/vitaminmoo/bw16-tool/internal/notify"
	"github.com/vitaminmoo/bw16-tool/internal/store"
	"github.com/vitaminmoo/bw16-tool/internal/transport"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	bad     = color.New(color.FgRed)
	dim     = color.New(color.Faint)
)

// Session is an open link with a running engine.
type Session struct {
	Engine *engine.Engine
	Store  *store.Store
	Port   string
	cfg    config.Config
}

// Connect opens the configured transport, starts an engine on it and
// attaches the store for auditing and credential capture.
func Connect(cfg config.Config, extra ...engine.Option) (*Session, error) {
	st, err := store.Open(cfg.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	port, err := transport.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s link: %w", cfg.Transport, err)
	}

	opts := []engine.Option{
		engine.WithNotifier(notify.Log{Logger: config.Log}),
	}
	if cfg.Store.Audit {
		opts = append(opts, engine.WithAudit(st))
	}
	opts = append(opts, extra...)
	e, err := engine.New(port, cfg, opts...)
	if err != nil {
		port.Close()
		return nil, err
	}
	e.Start()

	return &Session{Engine: e, Store: st, Port: portName(cfg, port), cfg: cfg}, nil
}

// Close shuts the engine down and releases the link.
func (s *Session) Close() error {
	return s.Engine.Close()
}

// Sighting describes where this session's scans were taken.
func (s *Session) Sighting() store.Sighting {
	return store.Sighting{Transport: s.cfg.Transport, Port: s.Port}
}

func portName(cfg config.Config, port transport.Port) string {
	if named, ok := port.(interface{ Name() string }); ok {
		return named.Name()
	}
	switch cfg.Transport {
	case "ble":
		return cfg.BLE.Name
	case "serial":
		return cfg.Serial.Port
	}
	return cfg.Transport
}

// PrintJSON pretty-prints JSON data. If indentation fails, prints raw.
func PrintJSON(w io.Writer, data []byte) {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, data, "", "  "); err != nil {
		fmt.Fprintf(w, "Body: %s\n", string(data))
	} else {
		fmt.Fprintln(w, prettyJSON.String())
	}
}

// WriteJSON marshals v and pretty-prints it.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	PrintJSON(w, data)
	return nil
}

// onOff renders a state flag.
func onOff(v bool) string {
	if v {
		return good.Sprint("on")
	}
	return dim.Sprint("off")
}

// signal colours an RSSI reading by strength.
func signal(rssi int) string {
	s := fmt.Sprintf("%4d", rssi)
	switch {
	case rssi >= -55:
		return good.Sprint(s)
	case rssi >= -70:
		return warn.Sprint(s)
	}
	return bad.Sprint(s)
}

// truncate cuts s to n runes, marking the cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func pad(s string, n int) string {
	if w := len([]rune(s)); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}
