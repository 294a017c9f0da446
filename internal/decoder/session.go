// Package decoder turns framed and legacy messages into inventory records,
// status flags and firmware observations. Decoders never fail: a message
// that is short, out of range or aimed at a full collection is logged at
// debug level and dropped.
package decoder

import (
	"github.com/vitaminmoo/bw16-tool/internal/firmware"
	"github.com/vitaminmoo/bw16-tool/internal/inventory"
	"github.com/vitaminmoo/bw16-tool/internal/notify"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

// DeviceInfo is the last structured info report from the peripheral.
type DeviceInfo struct {
	Version      string `json:"version,omitempty"`
	Networks     int    `json:"networks"`
	Clients      int    `json:"clients"`
	Channel      int    `json:"channel"`
	DeauthCount  int    `json:"deauth_count"`
	BeaconActive bool   `json:"beacon_active"`
	APActive     bool   `json:"ap_active"`
	BLECount     int    `json:"ble_count"`
	LastCount    int    `json:"last_count"` // bare numeric reply
}

// Status holds the side-effect flags set by status messages. Each flag is
// set to a value, never toggled, so repeated acks are harmless.
type Status struct {
	Scanning      bool   `json:"scanning"`
	ScanFinished  bool   `json:"scan_finished"`
	BLEScanning   bool   `json:"ble_scanning"`
	BLESpamActive bool   `json:"ble_spam_active"`
	MonitorActive bool   `json:"monitor_active"`
	BeaconActive  bool   `json:"beacon_active"`
	APActive      bool   `json:"ap_active"`
	Portal        int    `json:"portal"`
	KickTarget    string `json:"kick_target,omitempty"`

	Advanced [protocol.NumAttacks]bool `json:"advanced"`

	Device DeviceInfo `json:"device"`
}

// ClearAttacks resets every attack flag, as after a stop-all, and reports
// whether any was set.
func (s *Status) ClearAttacks() bool {
	active := s.MonitorActive || s.BeaconActive || s.BLESpamActive ||
		s.KickTarget != "" || s.Advanced != [protocol.NumAttacks]bool{}
	s.MonitorActive = false
	s.BeaconActive = false
	s.BLESpamActive = false
	s.KickTarget = ""
	s.Advanced = [protocol.NumAttacks]bool{}
	return active
}

// Session is the receive-side state. It is not safe for concurrent use;
// the engine serialises access.
type Session struct {
	Inventory *inventory.Store
	Observed  firmware.Observation
	Status    Status
	Console   Console

	notifier notify.Notifier

	// deauthAcked is set by a legacy ack that names no network, so the
	// engine's own mark for that network does not announce it again.
	deauthAcked bool
}

// NewSession decodes into inv and reports events to n, which may be nil.
func NewSession(inv *inventory.Store, n notify.Notifier) *Session {
	if n == nil {
		n = notify.Discard
	}
	return &Session{Inventory: inv, notifier: n}
}

// Handle dispatches a framer message by mode.
func (s *Session) Handle(m protocol.Message) {
	switch m.Mode {
	case protocol.ModeFramed:
		s.HandleFrame(m.Tag, m.Body)
	case protocol.ModeLegacy:
		s.HandleLine(m.Body)
	}
}

func (s *Session) notify(k notify.Kind, format string, args ...any) {
	s.notifier.Notify(notify.New(k, format, args...))
}

// SetDeauth marks network id and announces the change. It reports whether
// the id is listed.
func (s *Session) SetDeauth(id int, active bool) bool {
	changed, ok := s.Inventory.MarkDeauth(id, active)
	if !changed {
		return ok
	}
	switch {
	case !active:
		s.notify(notify.AttackStopped, "deauth network %d", id)
	case s.deauthAcked:
		s.deauthAcked = false
	default:
		s.notify(notify.AttackStarted, "deauth network %d", id)
	}
	return ok
}

// ClearDeauth stops every deauth, announcing it once.
func (s *Session) ClearDeauth() {
	cleared := s.Inventory.ClearDeauth()
	if cleared || s.deauthAcked {
		s.notify(notify.AttackStopped, "deauth")
	}
	s.deauthAcked = false
}

// StopAll clears every attack flag, announcing it once.
func (s *Session) StopAll() {
	attacks := s.Status.ClearAttacks()
	deauth := s.Inventory.ClearDeauth() || s.deauthAcked
	s.deauthAcked = false
	if attacks || deauth {
		s.notify(notify.AttackStopped, "all")
	}
}

// setFlag assigns v to *flag and fires an event on an actual change.
func (s *Session) setFlag(flag *bool, v bool, start, stop string) {
	if *flag == v {
		return
	}
	*flag = v
	if v {
		s.notify(notify.AttackStarted, "%s", start)
	} else {
		s.notify(notify.AttackStopped, "%s", stop)
	}
}
