package transport

import (
	"fmt"
	"strings"
	"time"

	"github.com/vitaminmoo/bw16-tool/internal/config"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

// SimVersion is the firmware version the simulator reports.
const SimVersion = "2.1-sim"

// simScanTime is how long a simulated scan runs before DONE.
const simScanTime = 20 * time.Millisecond

type simNetwork struct {
	ssid     string
	bssid    string
	channel  int
	rssi     int
	security string
	pmf      bool
	hidden   bool
}

type simClient struct {
	ap   int
	mac  string
	rssi int
}

type simBLE struct {
	addr string
	name string
	rssi int
}

var simNetworks = []simNetwork{
	{"HomeNet", "A4:2B:B0:11:22:33", 6, -42, "WPA2-AES", false, false},
	{"CoffeeShop", "00:1A:2B:3C:4D:5E", 11, -67, "Open", false, false},
	{"", "DE:AD:BE:EF:00:01", 1, -75, "WPA2-AES", false, true},
	{"Office-5G", "F0:9F:C2:AA:BB:CC", 36, -58, "WPA3-SAE", true, false},
}

var simClients = []simClient{
	{0, "3C:22:FB:01:02:03", -50},
	{0, "8C:85:90:04:05:06", -61},
	{3, "B8:27:EB:07:08:09", -70},
}

var simDevices = []simBLE{
	{"C8:69:CD:10:20:30", "AirPods", -55},
	{"EC:81:93:40:50:60", "", -80},
}

// sim is a scripted native-firmware peripheral.
type sim struct {
	d       *DeviceEnd
	scanned bool
	deauths int
}

// Simulate runs a native-firmware peripheral on d until the pipe closes.
// It sends the boot banner first, then answers framed commands.
func Simulate(d *DeviceEnd) error {
	s := &sim{d: d}
	if err := s.send('r', "GATTROSE-BW16:"+SimVersion); err != nil {
		return nil
	}
	return d.Serve(s.handle)
}

func (s *sim) send(tag byte, body string) error {
	return s.d.SendFrame(tag, body)
}

func (s *sim) handle(m protocol.Message) {
	if m.Mode != protocol.ModeFramed {
		// Native firmware ignores plain text.
		return
	}
	cmd := string(m.Tag) + m.Body
	config.Debugf("sim: %s", cmd)
	if err := s.exec(cmd); err != nil {
		config.Debugf("sim: %v", err)
	}
}

func (s *sim) exec(cmd string) error {
	switch {
	case cmd == "i":
		return s.send('i', s.info())
	case cmd == "s" || (cmd[0] == 's' && isNumber(cmd[1:])):
		if err := s.send('s', "SCANNING"); err != nil {
			return err
		}
		time.Sleep(simScanTime)
		s.scanned = true
		return s.send('s', fmt.Sprintf("DONE:%d", len(simNetworks)))
	case cmd == "g":
		return s.listNetworks()
	case cmd == "c":
		return s.listClients()
	case cmd == "ds":
		return s.send('d', "STOPPED")
	case cmd[0] == 'd':
		s.deauths++
		id := protocol.LeadingInt(cmd[1:], -1)
		return s.send('d', fmt.Sprintf("DEAUTH:%d", id))
	case cmd[0] == 'k':
		mac, _, _ := strings.Cut(cmd[1:], "-")
		for _, c := range simClients {
			if strings.EqualFold(c.mac, mac) {
				return s.send('k', "CLIENT_DEAUTH:"+mac)
			}
		}
		return s.send('k', "CLIENT_NOT_FOUND")
	case cmd[0] == 'a':
		return s.send('a', "AP_CONFIG:"+cmd[1:])
	case cmd[0] == 'w':
		return s.send('w', "AP_ON:"+cmd[1:])
	case cmd == "bs":
		return s.send('b', "BEACON_STOP")
	case cmd == "br":
		return s.send('b', "BEACON_RANDOM")
	case cmd == "bk":
		return s.send('b', "BEACON_RICKROLL")
	case strings.HasPrefix(cmd, "bc"):
		return s.send('b', "BEACON_CUSTOM:"+cmd[2:])
	case cmd == "m1":
		return s.send('m', "MONITOR_ON")
	case cmd == "m0":
		return s.send('m', "MONITOR_OFF")
	case cmd == "ls":
		return s.bleScan()
	case cmd == "lg":
		return s.listBLE()
	case cmd == "lx":
		return s.send('l', "BLE_STOP")
	case strings.HasPrefix(cmd, "lp"):
		return s.send('l', "BLE_SPAM_ON")
	case cmd[0] == 'r':
		return s.send('r', "LED:"+cmd[1:])
	case cmd == "x":
		return s.send('x', "STOPPED")
	case strings.ContainsRune("JPKhHR", rune(cmd[0])):
		// Advanced attacks run silently.
		return nil
	}
	return s.send('e', "UNKNOWN:"+cmd)
}

func (s *sim) info() string {
	clients := 0
	if s.scanned {
		clients = len(simClients)
	}
	return fmt.Sprintf("V:%s|N:%d|C:%d|CH:6|D:%d|B:0|W:0|BLE:%d",
		SimVersion, len(simNetworks), clients, s.deauths, len(simDevices))
}

func (s *sim) listNetworks() error {
	for i, n := range simNetworks {
		band := 2
		if protocol.Is5GHz(n.channel) {
			band = 5
		}
		clients := 0
		for _, c := range simClients {
			if c.ap == i {
				clients++
			}
		}
		body := fmt.Sprintf("%d|%s|%s|%d|%d|%d|%d|%s|%d|%d",
			i, n.ssid, n.bssid, n.channel, n.rssi, band, clients, n.security, b2i(n.pmf), b2i(n.hidden))
		if err := s.send('n', body); err != nil {
			return err
		}
	}
	return nil
}

func (s *sim) listClients() error {
	for _, c := range simClients {
		if err := s.send('c', fmt.Sprintf("%d|%s|%d", c.ap, c.mac, c.rssi)); err != nil {
			return err
		}
	}
	return nil
}

func (s *sim) bleScan() error {
	if err := s.send('l', "BLE_SCANNING"); err != nil {
		return err
	}
	time.Sleep(simScanTime)
	// Devices are reported on request, not during the scan.
	return s.send('l', fmt.Sprintf("SCAN_DONE:%d", len(simDevices)))
}

func (s *sim) listBLE() error {
	for _, d := range simDevices {
		if err := s.send('l', fmt.Sprintf("%s|%s|%d", d.addr, d.name, d.rssi)); err != nil {
			return err
		}
	}
	return nil
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
