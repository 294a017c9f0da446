package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaminmoo/bw16-tool/internal/firmware"
	"github.com/vitaminmoo/bw16-tool/internal/notify"
)

func TestLegacyNetworkLine(t *testing.T) {
	s, _ := newSession()
	feed(s, "AP:1:TestNet:11:22:33:44:55:66:6:1049600:-55\r\n")

	snap := s.Inventory.Snapshot()
	require.Len(t, snap.Networks, 1)
	n := snap.Networks[0]
	assert.Equal(t, 1, n.ID)
	assert.Equal(t, "TestNet", n.SSID)
	assert.Equal(t, "11:22:33:44:55:66", n.BSSID)
	assert.Equal(t, 6, n.Channel)
	assert.Equal(t, -55, n.RSSI)
	assert.False(t, n.Is5GHz)
	assert.Empty(t, n.ClientIndices)
}

func TestLegacyNetworkLineMatchesFrame(t *testing.T) {
	legacy, _ := newSession()
	legacy.HandleLine("AP:|3|MyAP|AA:BB:CC:DD:EE:FF|6|0|-42")
	framed, _ := newSession()
	framed.HandleFrame('n', "3|MyAP|AA:BB:CC:DD:EE:FF|6|-42|2|0|OPEN|0|0")

	l := legacy.Inventory.Snapshot().Networks
	f := framed.Inventory.Snapshot().Networks
	require.Len(t, l, 1)
	require.Len(t, f, 1)
	assert.Equal(t, f[0], l[0])
}

func TestLegacyNetworkLine5GHzAndClients(t *testing.T) {
	s, _ := newSession()
	s.HandleLine("AP:2:Fast:AA:BB:CC:DD:EE:FF:149:4194308:-60:3")

	n := s.Inventory.Snapshot().Networks[0]
	assert.True(t, n.Is5GHz)
	assert.Equal(t, 3, n.ReportedClients)
	assert.Equal(t, "WPA2-AES", n.Security)
}

func TestLegacyNetworkLineShort(t *testing.T) {
	s, _ := newSession()
	s.HandleLine("AP:1:TestNet:11:22:33:44:55:66:6")
	s.HandleLine("AP:")
	assert.Equal(t, 0, s.Inventory.NetworkCount())
}

func TestLegacyClientLines(t *testing.T) {
	s, _ := newSession()
	s.HandleLine("AP:10:A:AA:BB:CC:DD:EE:01:6:0:-50")
	s.HandleLine("AP:20:B:AA:BB:CC:DD:EE:02:1:0:-40")

	s.HandleLine("CLIENT:20:11:22:33:44:55:66:-61")
	s.HandleLine("CLIENT:NEW:|10|11:22:33:44:55:77|-70")
	s.HandleLine("STA:10:11:22:33:44:55:88")
	s.HandleLine("CLIENT:99:11:22:33:44:55:99:-70") // no such network id
	s.HandleLine("CLIENT:20:11:22:33:44:55:66:-61") // duplicate

	snap := s.Inventory.Snapshot()
	require.Len(t, snap.Clients, 3)
	assert.Equal(t, "11:22:33:44:55:66", snap.Clients[0].MAC)
	assert.EqualValues(t, 1, snap.Clients[0].Network)
	assert.EqualValues(t, 0, snap.Clients[1].Network)
	assert.Equal(t, -80, snap.Clients[2].RSSI)
	assert.Equal(t, 2, snap.Networks[0].ClientCount())
	assert.Equal(t, 1, snap.Networks[1].ClientCount())
}

func TestLegacyStatusLines(t *testing.T) {
	s, ev := newSession()
	s.HandleLine("AP:1:A:AA:BB:CC:DD:EE:01:6:0:-50")
	s.Inventory.SetDeauth(1, true)

	s.HandleLine("SCAN:OK")
	assert.True(t, s.Status.ScanFinished)

	s.HandleLine("DEAUTH:STOPPED")
	assert.False(t, s.Inventory.Snapshot().Networks[0].DeauthActive)

	s.HandleLine("BEACON:STARTING")
	assert.True(t, s.Status.BeaconActive)
	s.HandleLine("BEACON:STOPPED")
	assert.False(t, s.Status.BeaconActive)

	s.HandleLine("EV:bob|secret")
	assert.Equal(t, "bob|secret\n", s.Inventory.Credentials().String())
	assert.Contains(t, s.Console.String(), "[CRED] bob|secret")
	assert.Contains(t, ev.kinds(), notify.CredentialCaptured)

	s.HandleLine("BLE:|AA:BB:CC:DD:EE:FF|-66|Watch")
	ble := s.Inventory.Snapshot().BLE
	require.Len(t, ble, 1)
	assert.Equal(t, "Watch", ble[0].Name)
	assert.Equal(t, -66, ble[0].RSSI)

	s.HandleLine("ERROR:unknown command")
	s.HandleLine("x")
}

func TestLegacyDetectionLines(t *testing.T) {
	tests := []struct {
		lines   []string
		profile firmware.Profile
		done    bool
		check   func(t *testing.T, s *Session)
	}{
		{[]string{"PONG"}, firmware.Unknown, false, func(t *testing.T, s *Session) {
			assert.True(t, s.Observed.GotPong)
		}},
		{[]string{"GATTROSE-BW16:1.4"}, firmware.Native, true, nil},
		{[]string{"INFO:Gattrose-NG v2.1"}, firmware.Native, false, func(t *testing.T, s *Session) {
			assert.True(t, s.Observed.GotInfo)
			assert.Equal(t, "v2.1", s.Observed.Version)
		}},
		{[]string{"INFO:Evil-BW16 deauther"}, firmware.LegacyVariantA, false, nil},
		{[]string{"INFO:Marauder on ESP32"}, firmware.ForeignVariant, false, nil},
		{[]string{"HELP: SCAN LIST BLESCAN"}, firmware.Native, false, func(t *testing.T, s *Session) {
			assert.True(t, s.Observed.GotHelp)
		}},
		{[]string{"HELP: SCAN LIST"}, firmware.Unknown, false, nil},
		{[]string{"ESP32 Marauder v0.13"}, firmware.ForeignVariant, true, nil},
		{[]string{"OK"}, firmware.GenericAT, false, nil},
		{[]string{"GATTROSE-BW16:1.4", "OK"}, firmware.Native, true, nil},
		{[]string{"+CME ERROR: 3"}, firmware.GenericAT, false, nil},
		{[]string{"AT+GMR"}, firmware.GenericAT, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.lines[0], func(t *testing.T) {
			s, _ := newSession()
			for _, l := range tt.lines {
				s.HandleLine(l)
			}
			assert.Equal(t, tt.profile, s.Observed.Profile)
			assert.Equal(t, tt.done, s.Observed.Done)
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestConsoleBounded(t *testing.T) {
	var c Console
	line := "0123456789012345678901234567890123456789012345678901234567890123"
	for i := 0; i < 200; i++ {
		c.Append(line)
		require.LessOrEqual(t, c.Len(), ConsoleSize)
	}
	out := c.String()
	assert.True(t, len(out) > ConsoleSize/2)
	assert.Equal(t, byte('\n'), out[len(out)-1])
	assert.Equal(t, line, out[:len(line)], "trimmed at a line boundary")

	c.Clear()
	c.Append(string(make([]byte, ConsoleSize*2)))
	assert.Equal(t, ConsoleSize, c.Len())
}
