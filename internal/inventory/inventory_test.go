package inventory

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func net(id, rssi int) Network {
	return Network{ID: id, SSID: fmt.Sprintf("net%d", id), RSSI: rssi, Channel: 6}
}

func mac(i int) string {
	return fmt.Sprintf("AA:BB:CC:DD:%02X:%02X", i/256, i%256)
}

func TestAddNetworkStartsUnlinked(t *testing.T) {
	s := New()
	n := net(3, -42)
	n.ClientIndices = []ClientIndex{5, 6}
	n.DeauthActive = true

	idx, res := s.AddNetwork(n)
	require.Equal(t, Added, res)
	assert.Equal(t, NetworkIndex(0), idx)

	got, ok := s.Network(idx)
	require.True(t, ok)
	assert.Empty(t, got.ClientIndices)
	assert.Equal(t, 0, got.ClientCount())
	assert.False(t, got.DeauthActive)
}

func TestAddNetworkCapacity(t *testing.T) {
	s := New()
	for i := 0; i < MaxNetworks; i++ {
		_, res := s.AddNetwork(net(i, -50))
		require.Equal(t, Added, res)
	}
	before := s.Snapshot()

	_, res := s.AddNetwork(net(999, -10))
	assert.Equal(t, Full, res)
	assert.Equal(t, MaxNetworks, s.NetworkCount())
	assert.Equal(t, before, s.Snapshot(), "existing entries untouched")
}

func TestAddClient(t *testing.T) {
	s := New()
	s.AddNetwork(net(1, -50))

	ci, res := s.AddClient(0, "11:22:33:44:55:66", -60)
	require.Equal(t, Added, res)
	assert.Equal(t, ClientIndex(0), ci)

	n, _ := s.Network(0)
	assert.Equal(t, []ClientIndex{0}, n.ClientIndices)
	assert.Equal(t, 1, n.ClientCount())

	c, ok := s.Client(ci)
	require.True(t, ok)
	assert.Equal(t, NetworkIndex(0), c.Network)
}

func TestAddClientDuplicateIsIdempotent(t *testing.T) {
	s := New()
	s.AddNetwork(net(1, -50))
	s.AddNetwork(net(2, -50))

	_, res := s.AddClient(0, "11:22:33:44:55:66", -60)
	require.Equal(t, Added, res)
	_, res = s.AddClient(0, "11:22:33:44:55:66", -61)
	assert.Equal(t, Duplicate, res)
	_, res = s.AddClient(1, "11:22:33:44:55:66", -61)
	assert.Equal(t, Duplicate, res)

	assert.Equal(t, 1, s.ClientCount())
	n, _ := s.Network(0)
	assert.Equal(t, 1, n.ClientCount())
	n, _ = s.Network(1)
	assert.Equal(t, 0, n.ClientCount())
}

func TestAddClientInvalidReference(t *testing.T) {
	s := New()
	s.AddNetwork(net(1, -50))

	for _, ap := range []NetworkIndex{-1, 1, 64} {
		_, res := s.AddClient(ap, mac(int(ap)+10), -60)
		assert.Equal(t, InvalidReference, res)
	}
	assert.Equal(t, 0, s.ClientCount())
}

func TestAddClientPerNetworkCap(t *testing.T) {
	s := New()
	s.AddNetwork(net(1, -50))
	for i := 0; i < MaxClientsPerAP+2; i++ {
		_, res := s.AddClient(0, mac(i), -60)
		require.Equal(t, Added, res)
	}

	n, _ := s.Network(0)
	assert.Equal(t, MaxClientsPerAP, n.ClientCount())
	assert.Equal(t, MaxClientsPerAP+2, s.ClientCount())

	overflow, _ := s.Client(ClientIndex(MaxClientsPerAP))
	assert.Equal(t, NoNetwork, overflow.Network)
}

func TestAddClientGlobalCap(t *testing.T) {
	s := New()
	for i := 0; i < MaxNetworks; i++ {
		s.AddNetwork(net(i, -50))
	}
	for i := 0; i < MaxClients; i++ {
		_, res := s.AddClient(NetworkIndex(i%MaxNetworks), mac(i), -60)
		require.Equal(t, Added, res)
	}
	_, res := s.AddClient(0, mac(MaxClients), -60)
	assert.Equal(t, Full, res)
	assert.Equal(t, MaxClients, s.ClientCount())
}

func TestBLECapacity(t *testing.T) {
	s := New()
	for i := 0; i < MaxBLEDevices; i++ {
		require.Equal(t, Added, s.AddBLE(BLEDevice{Address: mac(i)}))
	}
	assert.Equal(t, Full, s.AddBLE(BLEDevice{Address: "x"}))
	s.ClearBLE()
	assert.Equal(t, 0, s.BLECount())
}

func TestSetDeauth(t *testing.T) {
	s := New()
	s.AddNetwork(net(7, -50))
	s.AddNetwork(net(9, -50))

	assert.True(t, s.SetDeauth(9, true))
	assert.True(t, s.SetDeauth(9, true))
	assert.False(t, s.SetDeauth(100, true))

	n, _ := s.Network(1)
	assert.True(t, n.DeauthActive)

	assert.Equal(t, 1, s.DeauthCount())
	assert.True(t, s.ClearDeauth())
	n, _ = s.Network(1)
	assert.False(t, n.DeauthActive)
	assert.False(t, s.ClearDeauth())
}

func TestMarkDeauthReportsChange(t *testing.T) {
	s := New()
	s.AddNetwork(net(9, -50))

	changed, ok := s.MarkDeauth(9, true)
	assert.True(t, changed)
	assert.True(t, ok)
	changed, ok = s.MarkDeauth(9, true)
	assert.False(t, changed)
	assert.True(t, ok)
	changed, ok = s.MarkDeauth(100, true)
	assert.False(t, changed)
	assert.False(t, ok)
}

func TestCredentialsBudget(t *testing.T) {
	var c Credentials
	assert.True(t, c.Append("user|pass"))
	assert.Equal(t, "user|pass\n", c.String())

	big := strings.Repeat("x", CredentialsBudget)
	assert.False(t, c.Append(big))
	assert.Equal(t, "user|pass\n", c.String(), "nothing evicted")

	for c.Append("0123456789") {
	}
	assert.Less(t, c.Len(), CredentialsBudget)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.Count())
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := New()
	s.AddNetwork(net(1, -50))
	s.AddClient(0, mac(1), -60)

	snap := s.Snapshot()
	s.AddClient(0, mac(2), -60)
	s.ClearWiFi()

	require.Len(t, snap.Networks, 1)
	assert.Len(t, snap.Networks[0].ClientIndices, 1)
	assert.Len(t, snap.ClientsOf(0), 1)
}
