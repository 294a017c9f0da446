package decoder

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaminmoo/bw16-tool/internal/firmware"
	"github.com/vitaminmoo/bw16-tool/internal/inventory"
	"github.com/vitaminmoo/bw16-tool/internal/notify"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

type events []notify.Event

func (e *events) Notify(ev notify.Event) { *e = append(*e, ev) }

func (e events) kinds() []notify.Kind {
	var out []notify.Kind
	for _, ev := range e {
		out = append(out, ev.Kind)
	}
	return out
}

func newSession() (*Session, *events) {
	ev := &events{}
	return NewSession(inventory.New(), ev), ev
}

// feed pushes raw bytes through a framer into the session.
func feed(s *Session, raw string) {
	var f protocol.Framer
	for _, m := range f.FeedBytes([]byte(raw)) {
		s.Handle(m)
	}
}

func frame(tag byte, body string) string {
	return string([]byte{protocol.STX, tag}) + body + string([]byte{protocol.ETX})
}

func TestNetworkFrame(t *testing.T) {
	s, _ := newSession()
	feed(s, frame('n', "3|MyAP|AA:BB:CC:DD:EE:FF|6|-42|2|0|WPA2-AES|0|0"))

	snap := s.Inventory.Snapshot()
	require.Len(t, snap.Networks, 1)
	n := snap.Networks[0]
	assert.Equal(t, 3, n.ID)
	assert.Equal(t, "MyAP", n.SSID)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", n.BSSID)
	assert.Equal(t, 6, n.Channel)
	assert.Equal(t, -42, n.RSSI)
	assert.False(t, n.Is5GHz)
	assert.Equal(t, 0, n.ClientCount())
	assert.Equal(t, "WPA2-AES", n.Security)
	assert.False(t, n.PMF)
	assert.False(t, n.Hidden)
	assert.Empty(t, n.ClientIndices)
}

func TestNetworkFrameFieldSeparator(t *testing.T) {
	s, _ := newSession()
	sep := string([]byte{protocol.FieldSep})
	body := strings.Join([]string{"9", "Cafe", "00:11:22:33:44:55", "36", "-70", "5", "4", "WPA3", "1", "1"}, sep)
	feed(s, frame('n', body))

	snap := s.Inventory.Snapshot()
	require.Len(t, snap.Networks, 1)
	n := snap.Networks[0]
	assert.True(t, n.Is5GHz)
	assert.True(t, n.PMF)
	assert.True(t, n.Hidden)
	assert.Equal(t, 4, n.ReportedClients)
	assert.Equal(t, 0, n.ClientCount(), "reported count is advisory")
}

func TestNetworkFrameOptionalFields(t *testing.T) {
	s, _ := newSession()
	s.HandleFrame('n', "1|Short|AA:BB:CC:DD:EE:FF|1|-60")

	snap := s.Inventory.Snapshot()
	require.Len(t, snap.Networks, 1)
	assert.Equal(t, "???", snap.Networks[0].Security)
}

func TestNetworkFrameMalformed(t *testing.T) {
	for _, body := range []string{
		"",
		"1",
		"1|ssid|AA:BB:CC:DD:EE:FF",
		"1|ssid|AA:BB:CC:DD:EE:FF|6",
	} {
		s, _ := newSession()
		s.HandleFrame('n', body)
		assert.Equal(t, 0, s.Inventory.NetworkCount(), "body %q", body)
	}
}

func TestNetworkFrameBadNumbersDefault(t *testing.T) {
	s, _ := newSession()
	s.HandleFrame('n', "x|ssid|AA:BB:CC:DD:EE:FF|ch|-50dBm|junk")

	snap := s.Inventory.Snapshot()
	require.Len(t, snap.Networks, 1)
	assert.Equal(t, 0, snap.Networks[0].ID)
	assert.Equal(t, 0, snap.Networks[0].Channel)
	assert.Equal(t, -50, snap.Networks[0].RSSI)
}

func TestNetworkFrameTruncatesFields(t *testing.T) {
	s, _ := newSession()
	long := strings.Repeat("S", 40)
	s.HandleFrame('n', "1|"+long+"|AA:BB:CC:DD:EE:FF:00:11|6|-50|2|0|WPA2-ENTERPRISE-AES")

	n := s.Inventory.Snapshot().Networks[0]
	assert.Len(t, n.SSID, protocol.MaxSSIDLen)
	assert.Len(t, n.BSSID, protocol.MACLen)
	assert.Len(t, n.Security, protocol.MaxSecurityLen)
}

func TestNetworkCapacity(t *testing.T) {
	s, _ := newSession()
	for i := 0; i < inventory.MaxNetworks+1; i++ {
		s.HandleFrame('n', fmt.Sprintf("%d|net%d|AA:BB:CC:DD:EE:%02X|6|-50", i, i, i))
	}
	snap := s.Inventory.Snapshot()
	require.Len(t, snap.Networks, inventory.MaxNetworks)
	assert.Equal(t, inventory.MaxNetworks-1, snap.Networks[inventory.MaxNetworks-1].ID)
}

func TestClientFrame(t *testing.T) {
	s, _ := newSession()
	s.HandleFrame('n', "1|A|AA:BB:CC:DD:EE:01|6|-50")
	s.HandleFrame('c', "0|11:22:33:44:55:66|-61")
	s.HandleFrame('c', "0|11:22:33:44:55:66|-61")
	s.HandleFrame('c', "0|11:22:33:44:55:77")
	s.HandleFrame('c', "5|11:22:33:44:55:88|-40")
	s.HandleFrame('c', "0")

	snap := s.Inventory.Snapshot()
	require.Len(t, snap.Clients, 2)
	assert.Equal(t, -61, snap.Clients[0].RSSI)
	assert.Equal(t, -80, snap.Clients[1].RSSI)
	assert.Equal(t, 2, snap.Networks[0].ClientCount())
}

func TestBLEFrame(t *testing.T) {
	s, _ := newSession()
	s.HandleFrame('l', "BLE_SCANNING")
	assert.True(t, s.Status.BLEScanning)

	s.HandleFrame('l', "AA:BB:CC:DD:EE:FF|Headphones|-55")
	s.HandleFrame('l', "11:22:33:44:55:66")
	s.HandleFrame('l', "22:33:44:55:66:77||-70")
	s.HandleFrame('l', "SCAN_DONE:3")

	assert.False(t, s.Status.BLEScanning)
	snap := s.Inventory.Snapshot()
	require.Len(t, snap.BLE, 3)
	assert.Equal(t, "Headphones", snap.BLE[0].Name)
	assert.Equal(t, -55, snap.BLE[0].RSSI)
	assert.Equal(t, "Unknown", snap.BLE[1].Name)
	assert.Equal(t, -80, snap.BLE[1].RSSI)
	assert.Equal(t, "Unknown", snap.BLE[2].Name)
	assert.Equal(t, -70, snap.BLE[2].RSSI)
}

func TestBLESpamStatusIsIdempotent(t *testing.T) {
	s, ev := newSession()
	s.HandleFrame('l', "BLE_SPAM_ON")
	s.HandleFrame('l', "BLE_SPAM_ON")
	assert.True(t, s.Status.BLESpamActive)
	s.HandleFrame('l', "BLE_STOP")
	s.HandleFrame('l', "BLE_STOP")
	assert.False(t, s.Status.BLESpamActive)
	assert.Equal(t, []notify.Kind{notify.AttackStarted, notify.AttackStopped}, ev.kinds())
}

func TestCredentialFrame(t *testing.T) {
	s, ev := newSession()
	s.HandleFrame('C', "alice|hunter2")

	assert.Equal(t, "alice|hunter2\n", s.Inventory.Credentials().String())
	require.Len(t, *ev, 1)
	assert.Equal(t, notify.CredentialCaptured, (*ev)[0].Kind)
	assert.Equal(t, "alice|hunter2", (*ev)[0].Detail)
}

func TestReadyBanner(t *testing.T) {
	s, _ := newSession()
	s.HandleFrame('r', "LED:0,255,0")
	assert.Equal(t, firmware.Unknown, s.Observed.Profile)
	assert.False(t, s.Observed.Done)

	s.HandleFrame('r', "GATTROSE-NG:2.0")
	assert.Equal(t, firmware.Native, s.Observed.Profile)
	assert.Equal(t, "2.0", s.Observed.Version)
	assert.Equal(t, "GATTROSE-NG:2.0", s.Observed.Banner)
	assert.True(t, s.Observed.Done)
}

func TestInfoFrame(t *testing.T) {
	s, _ := newSession()
	s.HandleFrame('i', "15")
	assert.True(t, s.Observed.GotInfo)
	assert.Equal(t, 15, s.Status.Device.LastCount)
	assert.Empty(t, s.Observed.Version)

	s.HandleFrame('i', "V:2.1|N:64|C:8|CH:6|D:2|B:1|W:0|BLE:3|ZZ:9")
	d := s.Status.Device
	assert.Equal(t, "2.1", d.Version)
	assert.Equal(t, "2.1", s.Observed.Version)
	assert.Equal(t, 64, d.Networks)
	assert.Equal(t, 8, d.Clients)
	assert.Equal(t, 6, d.Channel)
	assert.Equal(t, 2, d.DeauthCount)
	assert.True(t, d.BeaconActive)
	assert.False(t, d.APActive)
	assert.Equal(t, 3, d.BLECount)
}

func TestScanStatus(t *testing.T) {
	s, _ := newSession()
	s.HandleFrame('s', "SCANNING")
	assert.True(t, s.Status.Scanning)
	s.HandleFrame('s', "DONE:12")
	assert.False(t, s.Status.Scanning)
	assert.True(t, s.Status.ScanFinished)
}

func TestDeauthRoundTrip(t *testing.T) {
	s, ev := newSession()
	s.HandleFrame('n', "4|Target|AA:BB:CC:DD:EE:FF|6|-50")
	s.HandleFrame('n', "7|Other|AA:BB:CC:DD:EE:00|1|-70")

	s.HandleFrame('d', "DEAUTH:4")
	snap := s.Inventory.Snapshot()
	assert.True(t, snap.Networks[0].DeauthActive)
	assert.False(t, snap.Networks[1].DeauthActive)

	s.HandleFrame('d', "DEAUTH:4")
	assert.True(t, s.Inventory.Snapshot().Networks[0].DeauthActive)

	s.HandleFrame('d', "STOPPED")
	assert.False(t, s.Inventory.Snapshot().Networks[0].DeauthActive)
	assert.Contains(t, ev.kinds(), notify.AttackStopped)
}

func TestRepeatedAcksNotifyOnce(t *testing.T) {
	s, ev := newSession()
	s.HandleFrame('n', "3|Target|AA:BB:CC:DD:EE:FF|6|-50")

	s.HandleFrame('d', "DEAUTH:3")
	s.HandleFrame('d', "DEAUTH:3")
	s.HandleFrame('d', "STOPPED")
	s.HandleFrame('d', "STOPPED")
	s.HandleLine("DEAUTH:STARTING")
	s.HandleLine("DEAUTH:STARTING")
	require.Equal(t, []notify.Kind{notify.AttackStarted, notify.AttackStopped, notify.AttackStarted}, ev.kinds())

	s.HandleFrame('k', "CLIENT_DEAUTH:11:22:33:44:55:66")
	s.HandleFrame('k', "CLIENT_DEAUTH:11:22:33:44:55:66")
	s.HandleFrame('x', "STOPPED_ALL")
	s.HandleFrame('x', "STOPPED_ALL")
	require.Len(t, *ev, 5)
	assert.Equal(t, "kick 11:22:33:44:55:66", (*ev)[3].Detail)
	assert.Equal(t, notify.AttackStopped, (*ev)[4].Kind)
	assert.Equal(t, "all", (*ev)[4].Detail)
}

func TestDeauthAckAndLocalMarkNotifyOnce(t *testing.T) {
	t.Run("ack first", func(t *testing.T) {
		s, ev := newSession()
		s.HandleLine("AP:1:A:AA:BB:CC:DD:EE:01:6:0:-50")
		s.HandleLine("DEAUTH:STARTING")
		s.SetDeauth(1, true)
		s.SetDeauth(1, true)
		s.HandleLine("DEAUTH:STOPPED")
		assert.Equal(t, []notify.Kind{notify.AttackStarted, notify.AttackStopped}, ev.kinds())
	})
	t.Run("mark first", func(t *testing.T) {
		s, ev := newSession()
		s.HandleFrame('n', "4|Target|AA:BB:CC:DD:EE:FF|6|-50")
		s.SetDeauth(4, true)
		s.HandleFrame('d', "DEAUTH:4")
		s.StopAll()
		s.HandleFrame('x', "STOPPED_ALL")
		assert.Equal(t, []notify.Kind{notify.AttackStarted, notify.AttackStopped}, ev.kinds())
	})
}

func TestMonitorStatus(t *testing.T) {
	s, _ := newSession()
	s.HandleFrame('m', "MONITOR_ON")
	assert.True(t, s.Status.MonitorActive)
	s.HandleFrame('m', "MONITOR_OFF")
	assert.False(t, s.Status.MonitorActive)
	s.HandleFrame('m', "ON")
	assert.True(t, s.Status.MonitorActive)
	s.HandleFrame('m', "OFF")
	assert.False(t, s.Status.MonitorActive)
}

func TestAPBeaconPortalKick(t *testing.T) {
	s, _ := newSession()
	s.HandleFrame('w', "AP_ON:3")
	assert.True(t, s.Status.APActive)
	assert.Equal(t, 3, s.Status.Portal)
	s.HandleFrame('w', "AP_OFF")
	assert.False(t, s.Status.APActive)

	s.HandleFrame('b', "BEACON_RICKROLL")
	assert.True(t, s.Status.BeaconActive)
	s.HandleFrame('b', "BEACON_STOP")
	assert.False(t, s.Status.BeaconActive)

	s.HandleFrame('p', "PORTAL:5")
	assert.Equal(t, 5, s.Status.Portal)

	s.HandleFrame('k', "CLIENT_DEAUTH:11:22:33:44:55:66")
	assert.Equal(t, "11:22:33:44:55:66", s.Status.KickTarget)
	s.HandleFrame('k', "CLIENT_NOT_FOUND")
}

func TestStopAllClearsFlags(t *testing.T) {
	s, _ := newSession()
	s.HandleFrame('n', "4|Target|AA:BB:CC:DD:EE:FF|6|-50")
	s.HandleFrame('d', "DEAUTH:4")
	s.HandleFrame('m', "ON")
	s.Status.Advanced[protocol.AttackKarma] = true

	s.HandleFrame('x', "")
	assert.False(t, s.Status.MonitorActive)
	assert.False(t, s.Status.Advanced[protocol.AttackKarma])
	assert.False(t, s.Inventory.Snapshot().Networks[0].DeauthActive)
}

func TestUnknownTagIsLogged(t *testing.T) {
	s, _ := newSession()
	s.HandleFrame('Z', "whatever")
	s.HandleFrame('e', "bad command")
	assert.Equal(t, "[Z] whatever\n[e] bad command\n", s.Console.String())
}
