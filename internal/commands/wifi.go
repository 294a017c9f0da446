package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vitaminmoo/bw16-tool/internal/encoder"
	"github.com/vitaminmoo/bw16-tool/internal/engine"
	"github.com/vitaminmoo/bw16-tool/internal/inventory"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
	"github.com/vitaminmoo/bw16-tool/internal/store"
)

// Scan runs a WiFi scan and prints the ranked network list. With save set,
// the result is recorded in the store.
func Scan(ctx context.Context, s *Session, w io.Writer, save bool) error {
	fmt.Fprintln(w, "Scanning...")
	start := time.Now()
	n, err := s.Engine.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	snap := s.Engine.Snapshot()
	fmt.Fprintf(w, "Found %d network(s) in %s\n\n", n, time.Since(start).Round(100*time.Millisecond))
	PrintNetworks(w, snap.Inventory)

	if !save || n == 0 {
		return nil
	}
	hash, isNew, err := s.Store.SaveScan(store.NewScan(snap.Inventory, snap.Detection.Profile.String()), s.Sighting())
	if err != nil {
		return fmt.Errorf("failed to save scan: %w", err)
	}
	if isNew {
		fmt.Fprintf(w, "\nSaved scan %s\n", store.ShortHash(hash))
	} else {
		fmt.Fprintf(w, "\nScan %s already stored (added sighting)\n", store.ShortHash(hash))
	}
	return nil
}

// PrintNetworks prints the network table in display order.
func PrintNetworks(w io.Writer, inv inventory.Snapshot) {
	if len(inv.Networks) == 0 {
		fmt.Fprintln(w, "No networks.")
		return
	}
	heading.Fprintf(w, "%3s  %-24s %-17s %4s %4s %-12s %s\n", "#", "SSID", "BSSID", "CH", "RSSI", "SECURITY", "CLIENTS")
	for i := range inv.Networks {
		n := &inv.Networks[i]
		ssid := pad(truncate(n.DisplaySSID(), 24), 24)
		if n.Hidden {
			ssid = dim.Sprint(ssid)
		}
		marker := " "
		if n.DeauthActive {
			marker = bad.Sprint("*")
		}
		sec := n.Security
		if n.PMF {
			sec += "+PMF"
		}
		fmt.Fprintf(w, "%3d%s %s %-17s %4d %s %-12s %d\n",
			i, marker, ssid, n.BSSID, n.Channel, signal(n.RSSI), truncate(sec, 12), n.ClientCount())
	}
	if unlinked := countUnlinked(inv); unlinked > 0 {
		dim.Fprintf(w, "\n%d client(s) not linked to a listed network\n", unlinked)
	}
}

func countUnlinked(inv inventory.Snapshot) int {
	n := 0
	for _, c := range inv.Clients {
		if c.Network == inventory.NoNetwork {
			n++
		}
	}
	return n
}

// PrintNetwork prints one network and its clients.
func PrintNetwork(w io.Writer, inv inventory.Snapshot, i int) error {
	if i < 0 || i >= len(inv.Networks) {
		return fmt.Errorf("network %d: %w", i, engine.ErrNoSuchNetwork)
	}
	n := &inv.Networks[i]
	heading.Fprintln(w, n.DisplaySSID())
	fmt.Fprintf(w, "  BSSID:     %s\n", n.BSSID)
	band := "2.4 GHz"
	if n.Is5GHz {
		band = "5 GHz"
	}
	fmt.Fprintf(w, "  Channel:   %d (%s)\n", n.Channel, band)
	fmt.Fprintf(w, "  Signal:    %s dBm\n", signal(n.RSSI))
	fmt.Fprintf(w, "  Security:  %s\n", n.Security)
	fmt.Fprintf(w, "  PMF:       %s\n", onOff(n.PMF))
	fmt.Fprintf(w, "  Deauth:    %s\n", onOff(n.DeauthActive))
	clients := inv.ClientsOf(i)
	fmt.Fprintf(w, "  Clients:   %d (reported %d)\n", len(clients), n.ReportedClients)
	for j, c := range clients {
		fmt.Fprintf(w, "    %2d  %s  %s\n", j, c.MAC, signal(c.RSSI))
	}
	return nil
}

// DeauthOptions selects a deauth variant.
type DeauthOptions struct {
	Client   int // client slot, -1 for broadcast
	Reason   int // -1 for the configured reason
	Duration time.Duration
}

// Deauth toggles a broadcast deauth, or deauths one client. With a duration
// the broadcast attack is stopped again after it elapses.
func Deauth(ctx context.Context, e *engine.Engine, w io.Writer, i int, opts DeauthOptions) error {
	if _, err := ensureNetworks(ctx, e); err != nil {
		return err
	}

	if opts.Client >= 0 {
		if err := e.DeauthClient(ctx, i, opts.Client); err != nil {
			return err
		}
		fmt.Fprintf(w, "Deauthing client %d of network %d\n", opts.Client, i)
		return nil
	}

	var on bool
	var err error
	if opts.Reason >= 0 {
		on, err = e.DeauthWithReason(ctx, i, opts.Reason)
	} else {
		on, err = e.Deauth(ctx, i)
	}
	if err != nil {
		return err
	}
	if !on {
		good.Fprintf(w, "Deauth on network %d stopped\n", i)
		return nil
	}
	bad.Fprintf(w, "Deauth on network %d running\n", i)
	if opts.Duration <= 0 {
		return nil
	}

	select {
	case <-time.After(opts.Duration):
	case <-ctx.Done():
	}
	// Stop even when interrupted.
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := e.Deauth(stopCtx, i); err != nil {
		return fmt.Errorf("failed to stop deauth: %w", err)
	}
	good.Fprintf(w, "Deauth on network %d stopped after %s\n", i, opts.Duration)
	return nil
}

// ensureNetworks scans when the inventory is empty, so index-based
// commands work from a fresh invocation.
func ensureNetworks(ctx context.Context, e *engine.Engine) (int, error) {
	if n := len(e.Snapshot().Inventory.Networks); n > 0 {
		return n, nil
	}
	n, err := e.Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan failed: %w", err)
	}
	return n, nil
}

// Kick deauths a station by MAC.
func Kick(ctx context.Context, e *engine.Engine, w io.Writer, mac string) error {
	if !protocol.ValidMAC(mac) {
		return fmt.Errorf("%q is not a MAC address: %w", mac, encoder.ErrInvalidArgument)
	}
	if err := e.Kick(ctx, mac); err != nil {
		return err
	}
	fmt.Fprintf(w, "Kicking %s\n", mac)
	return nil
}

// EvilTwin clones network i behind a captive portal. A negative portal
// uses the configured one.
func EvilTwin(ctx context.Context, e *engine.Engine, w io.Writer, i, portal int) error {
	if _, err := ensureNetworks(ctx, e); err != nil {
		return err
	}
	var err error
	if portal >= 0 {
		err = e.EvilTwinWithPortal(ctx, i, portal)
	} else {
		err = e.EvilTwin(ctx, i)
	}
	if err != nil {
		return err
	}
	net := e.Snapshot().Inventory.Networks[i]
	bad.Fprintf(w, "Evil twin of %s running\n", net.DisplaySSID())
	return nil
}

// AP starts an access point.
func AP(ctx context.Context, e *engine.Engine, w io.Writer, ap encoder.APConfig) error {
	if err := e.CreateAP(ctx, ap); err != nil {
		return err
	}
	bad.Fprintf(w, "Access point %s running\n", ap.SSID)
	return nil
}

// Beacon starts beacon spam in the given mode, or stops it for "stop".
func Beacon(ctx context.Context, e *engine.Engine, w io.Writer, mode, ssid string) error {
	if mode == "stop" {
		if err := e.StopBeacon(ctx); err != nil {
			return err
		}
		good.Fprintln(w, "Beacon spam stopped")
		return nil
	}
	m, err := encoder.ParseBeaconMode(mode)
	if err != nil {
		return err
	}
	if err := e.Beacon(ctx, m, ssid); err != nil {
		return err
	}
	bad.Fprintf(w, "Beacon spam (%s) running\n", mode)
	return nil
}

// Monitor toggles monitor mode.
func Monitor(ctx context.Context, e *engine.Engine, w io.Writer) error {
	on, err := e.ToggleMonitor(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Monitor mode %s\n", onOff(on))
	return nil
}

// Stop halts everything running on the peripheral.
func Stop(ctx context.Context, e *engine.Engine, w io.Writer) error {
	if err := e.StopAll(ctx); err != nil {
		return err
	}
	good.Fprintln(w, "All operations stopped")
	return nil
}
