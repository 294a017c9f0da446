package decoder

import (
	"strings"

	"github.com/vitaminmoo/bw16-tool/internal/config"
	"github.com/vitaminmoo/bw16-tool/internal/inventory"
	"github.com/vitaminmoo/bw16-tool/internal/notify"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

const (
	defaultRSSI     = -80
	unknownSecurity = "???"
	unknownBLEName  = "Unknown"
)

// network decodes id|ssid|bssid|ch|rssi[|band|clients|security|pmf|hidden].
func (s *Session) network(body string) {
	if s.Inventory.NetworksFull() {
		config.Debugf("network dropped, list full: %s", body)
		return
	}
	t := protocol.NewTokens(body, '|')

	var n inventory.Network
	var ok bool
	if n.ID, ok = t.Int(0); !ok {
		config.Debugf("network dropped, no id: %q", body)
		return
	}
	ssid, ok1 := t.Next()
	bssid, ok2 := t.Next()
	ch, ok3 := t.Int(0)
	rssi, ok4 := t.Int(0)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		config.Debugf("network dropped, short: %q", body)
		return
	}
	n.SSID = protocol.Truncate(ssid, protocol.MaxSSIDLen)
	n.BSSID = protocol.Truncate(bssid, protocol.MACLen)
	n.Channel = ch
	n.RSSI = rssi

	if band, ok := t.Int(0); ok {
		n.Is5GHz = band == 5
	}
	n.ReportedClients, _ = t.Int(0)
	n.Security = unknownSecurity
	if sec, ok := t.Next(); ok {
		n.Security = protocol.Truncate(sec, protocol.MaxSecurityLen)
	}
	pmf, _ := t.Int(0)
	n.PMF = pmf == 1
	hidden, _ := t.Int(0)
	n.Hidden = hidden == 1

	s.addNetwork(n)
}

func (s *Session) addNetwork(n inventory.Network) {
	if _, res := s.Inventory.AddNetwork(n); res != inventory.Added {
		config.Debugf("network %d dropped: %s", n.ID, res)
		return
	}
	config.Debugf("network %d %q ch%d %ddBm", n.ID, n.SSID, n.Channel, n.RSSI)
}

// client decodes ap_idx|mac[|rssi]. The first field is a position in the
// network list, not a network id.
func (s *Session) client(body string) {
	t := protocol.NewTokens(body, '|')
	ap, ok := t.Int(-1)
	if !ok {
		return
	}
	mac, ok := t.Next()
	if !ok {
		config.Debugf("client dropped, no mac: %q", body)
		return
	}
	rssi, _ := t.Int(defaultRSSI)
	s.addClient(inventory.NetworkIndex(ap), mac, rssi)
}

func (s *Session) addClient(ap inventory.NetworkIndex, mac string, rssi int) {
	mac = protocol.Truncate(mac, protocol.MACLen)
	if _, res := s.Inventory.AddClient(ap, mac, rssi); res != inventory.Added {
		config.Debugf("client %s on %d: %s", mac, ap, res)
	}
}

// bleDevice decodes addr[|name|rssi].
func (s *Session) bleDevice(t *protocol.Tokens) {
	addr, ok := t.Next()
	if !ok {
		return
	}
	d := inventory.BLEDevice{
		Address: protocol.Truncate(addr, protocol.MACLen),
		Name:    unknownBLEName,
	}
	if name, ok := t.Next(); ok && name != "" {
		d.Name = protocol.Truncate(name, protocol.MaxBLENameLen)
	}
	d.RSSI, _ = t.Int(defaultRSSI)
	s.addBLE(d)
}

func (s *Session) addBLE(d inventory.BLEDevice) {
	if res := s.Inventory.AddBLE(d); res != inventory.Added {
		config.Debugf("ble %s dropped: %s", d.Address, res)
	}
}

// credential stores a captured line and raises a notification even when
// the log has no room left.
func (s *Session) credential(line string) {
	if !s.Inventory.Credentials().Append(line) {
		config.Log.Warnf("credential log full, not stored: %s", line)
	}
	config.Log.Infof("credential captured: %s", line)
	s.notify(notify.CredentialCaptured, "%s", line)
}

// info decodes either a bare count ("15") or a key list
// ("V:2.1|N:64|C:8|CH:6|D:2|B:1|W:0|BLE:0"). Unknown keys are ignored.
func (s *Session) info(body string) {
	s.Observed.GotInfo = true
	if len(body) > 0 && len(body) < 5 && isDigits(body) {
		s.Status.Device.LastCount = protocol.LeadingInt(body, 0)
		config.Debugf("count: %s", body)
		return
	}

	s.Observed.Banner = body
	d := &s.Status.Device
	t := protocol.NewTokens(body, '|')
	for {
		field, ok := t.Next()
		if !ok {
			break
		}
		key, val, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		switch key {
		case "V":
			d.Version = val
			s.Observed.Version = val
		case "N":
			d.Networks = protocol.LeadingInt(val, 0)
		case "C":
			d.Clients = protocol.LeadingInt(val, 0)
		case "CH":
			d.Channel = protocol.LeadingInt(val, 0)
		case "D":
			d.DeauthCount = protocol.LeadingInt(val, 0)
		case "B":
			d.BeaconActive = protocol.LeadingInt(val, 0) == 1
		case "W":
			d.APActive = protocol.LeadingInt(val, 0) == 1
		case "BLE":
			d.BLECount = protocol.LeadingInt(val, 0)
		}
	}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
