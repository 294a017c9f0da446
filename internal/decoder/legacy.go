package decoder

import (
	"strings"

	"github.com/vitaminmoo/bw16-tool/internal/config"
	"github.com/vitaminmoo/bw16-tool/internal/firmware"
	"github.com/vitaminmoo/bw16-tool/internal/inventory"
	"github.com/vitaminmoo/bw16-tool/internal/notify"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

// deauthStarting handles the legacy start ack, which names no network.
func (s *Session) deauthStarting() {
	if s.deauthAcked || s.Inventory.DeauthCount() > 0 {
		return
	}
	s.deauthAcked = true
	s.notify(notify.AttackStarted, "deauth")
}

// HandleLine decodes one newline-terminated legacy line.
func (s *Session) HandleLine(line string) {
	s.Console.Append(line)
	config.Debugf("RX %s", line)
	if len(line) < 2 {
		return
	}

	switch {
	case strings.HasPrefix(line, "AP:"):
		s.legacyNetwork(line)
	case strings.HasPrefix(line, "CLIENT:"), strings.HasPrefix(line, "STA:"):
		s.legacyClient(line)
	case strings.HasPrefix(line, "SCAN:OK"):
		s.Status.ScanFinished = true
		s.Status.Scanning = false
	case strings.HasPrefix(line, "EV:"):
		s.Console.Append("[CRED] " + line[3:])
		s.credential(line[3:])
	case strings.HasPrefix(line, "ERROR:"):
		config.Log.Warnf("device error: %s", line[6:])
	case strings.HasPrefix(line, "DEAUTH:"):
		switch {
		case strings.Contains(line, "STARTING"):
			s.deauthStarting()
		case strings.Contains(line, "STOPPED"):
			s.ClearDeauth()
		}
	case strings.HasPrefix(line, "BEACON:"):
		switch {
		case strings.Contains(line, "STARTING"):
			s.setFlag(&s.Status.BeaconActive, true, "beacon spam", "")
		case strings.Contains(line, "STOPPED"):
			s.setFlag(&s.Status.BeaconActive, false, "", "beacon spam")
		}
	case strings.HasPrefix(line, "BLE:|"):
		s.legacyBLE(line[5:])
	case strings.HasPrefix(line, "SCAN:"):
		config.Debugf("scan: %s", line[5:])
	case line == "PONG":
		s.Observed.GotPong = true
	case strings.HasPrefix(line, "GATTROSE-BW16:"):
		s.Observed.Profile = firmware.Native
		s.Observed.Banner = line
		s.Observed.Done = true
	case strings.HasPrefix(line, "INFO:"):
		s.legacyInfo(line)
	case strings.HasPrefix(line, "HELP:"):
		s.Observed.GotHelp = true
		if strings.Contains(line, "BLESCAN") || strings.Contains(line, "CLIENTS") {
			s.Observed.Profile = firmware.Native
		}
	case isForeign(line):
		s.Observed.Profile = firmware.ForeignVariant
		s.Observed.Banner = line
		s.Observed.Done = true
	case line == "OK":
		if !s.Observed.Done && s.Observed.Profile == firmware.Unknown {
			s.Observed.Profile = firmware.GenericAT
		}
	case strings.HasPrefix(line, "AT+"), strings.HasPrefix(line, "+"):
		s.Observed.Profile = firmware.GenericAT
	}
}

func isForeign(line string) bool {
	return strings.Contains(line, "Marauder") || strings.Contains(line, "ESP32")
}

func (s *Session) legacyInfo(line string) {
	s.Observed.GotInfo = true
	s.Observed.Banner = line
	switch {
	case strings.Contains(line, "Gattrose"):
		s.Observed.Profile = firmware.Native
		if i := strings.IndexByte(line, 'v'); i >= 0 {
			s.Observed.Version = line[i:]
		}
	case strings.Contains(line, "Evil"), strings.Contains(line, "BW16"):
		s.Observed.Profile = firmware.LegacyVariantA
	case isForeign(line):
		s.Observed.Profile = firmware.ForeignVariant
	}
}

// legacyFields splits a ':'-separated line after its keyword, skipping the
// empty field left by the "KEY:|..." spelling.
func legacyFields(line string) []string {
	t := protocol.NewTokens(strings.ReplaceAll(line, ":", "|"), '|')
	t.Next() // keyword
	var out []string
	for {
		f, ok := t.Next()
		if !ok {
			return out
		}
		out = append(out, f)
	}
}

// takeMAC reads a MAC from the head of fields: either one field, or six
// hex octets that the ':' normalisation split apart.
func takeMAC(fields []string) (string, []string, bool) {
	if len(fields) == 0 {
		return "", nil, false
	}
	if len(fields) >= 6 {
		octets := true
		for _, f := range fields[:6] {
			if !protocol.IsOctet(f) {
				octets = false
				break
			}
		}
		if octets {
			return strings.Join(fields[:6], ":"), fields[6:], true
		}
	}
	return fields[0], fields[1:], true
}

// legacyNetwork decodes AP:<id>:<ssid>:<bssid>:<ch>:<security>:<rssi>[:<clients>].
func (s *Session) legacyNetwork(line string) {
	if s.Inventory.NetworksFull() {
		config.Debugf("network dropped, list full: %s", line)
		return
	}
	f := legacyFields(line)
	if len(f) > 0 && f[0] == "" {
		f = f[1:]
	}
	if len(f) < 2 {
		config.Debugf("network dropped, short: %q", line)
		return
	}

	n := inventory.Network{
		ID:   protocol.LeadingInt(f[0], 0),
		SSID: protocol.Truncate(f[1], protocol.MaxSSIDLen),
	}
	bssid, f, ok := takeMAC(f[2:])
	if !ok || len(f) < 3 {
		config.Debugf("network dropped, short: %q", line)
		return
	}
	n.BSSID = protocol.Truncate(bssid, protocol.MACLen)
	n.Channel = protocol.LeadingInt(f[0], 0)
	n.Security = protocol.Truncate(protocol.SecurityName(protocol.LeadingInt(f[1], 0)), protocol.MaxSecurityLen)
	n.RSSI = protocol.LeadingInt(f[2], 0)
	if len(f) > 3 {
		n.ReportedClients = protocol.LeadingInt(f[3], 0)
	}
	n.Is5GHz = protocol.Is5GHz(n.Channel)

	s.addNetwork(n)
}

// legacyClient decodes CLIENT:<ap_id>:<mac>[:<rssi>], also spelled with a
// NEW marker or a STA: keyword. The first field is a network id.
func (s *Session) legacyClient(line string) {
	f := legacyFields(line)
	for len(f) > 0 && (f[0] == "" || f[0] == "NEW") {
		f = f[1:]
	}
	if len(f) < 2 {
		config.Debugf("client dropped, short: %q", line)
		return
	}
	id := protocol.LeadingInt(f[0], -1)
	mac, f, _ := takeMAC(f[1:])
	rssi := defaultRSSI
	if len(f) > 0 {
		rssi = protocol.LeadingInt(f[0], defaultRSSI)
	}

	ap, ok := s.Inventory.NetworkByID(id)
	if !ok {
		config.Debugf("client %s dropped, no network with id %d", mac, id)
		return
	}
	s.addClient(ap, mac, rssi)
}

// legacyBLE decodes <mac>|<rssi>|<name>; the field order differs from the
// framed form.
func (s *Session) legacyBLE(rest string) {
	t := protocol.NewTokens(rest, '|')
	addr, ok := t.Next()
	if !ok || addr == "" {
		return
	}
	d := inventory.BLEDevice{Address: protocol.Truncate(addr, protocol.MACLen), Name: unknownBLEName}
	d.RSSI, _ = t.Int(defaultRSSI)
	if name, ok := t.Next(); ok && name != "" {
		d.Name = protocol.Truncate(name, protocol.MaxBLENameLen)
	}
	s.addBLE(d)
}
