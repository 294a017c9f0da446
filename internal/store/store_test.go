package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaminmoo/bw16-tool/internal/inventory"
)

func sampleScan(rssi int) *Scan {
	return &Scan{
		Profile: "Gattrose-NG",
		Networks: []inventory.Network{
			{ID: 0, SSID: "HomeNet", BSSID: "a4:2b:b0:11:22:33", Channel: 6, RSSI: rssi, Security: "WPA2-AES",
				ClientIndices: []inventory.ClientIndex{0}},
			{ID: 1, SSID: "CoffeeShop", BSSID: "00:1A:2B:3C:4D:5E", Channel: 11, RSSI: -67, Security: "Open"},
		},
		Clients: []inventory.Client{{MAC: "3C:22:FB:01:02:03", RSSI: -50, Network: 0}},
	}
}

func TestContentHash_IgnoresVolatileFields(t *testing.T) {
	a, err := ContentHash(sampleScan(-40))
	require.NoError(t, err)
	b, err := ContentHash(sampleScan(-70))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "sha256:"))

	reordered := sampleScan(-40)
	reordered.Networks[0], reordered.Networks[1] = reordered.Networks[1], reordered.Networks[0]
	c, err := ContentHash(reordered)
	require.NoError(t, err)
	assert.Equal(t, a, c)

	changed := sampleScan(-40)
	changed.Networks[1].Channel = 1
	d, err := ContentHash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, d)

	_, err = ContentHash(&Scan{})
	assert.Error(t, err)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0123456789ab", ShortHash("sha256:0123456789abcdef"))
	assert.Equal(t, "short", ShortHash("short"))
}

func TestSaveScan_Dedup(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	hash, isNew, err := s.SaveScan(sampleScan(-40), Sighting{Timestamp: t0, Transport: "sim"})
	require.NoError(t, err)
	assert.True(t, isNew)

	hash2, isNew, err := s.SaveScan(sampleScan(-55), Sighting{Timestamp: t0.Add(time.Minute), Transport: "serial", Port: "/dev/ttyUSB0"})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, hash, hash2)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, err := s.GetScan(ShortHash(hash))
	require.NoError(t, err)
	assert.Equal(t, hash, rec.ContentHash)
	require.Len(t, rec.Sightings, 2)
	assert.Equal(t, "/dev/ttyUSB0", rec.Sightings[1].Port)
	assert.Equal(t, t0, rec.CreatedAt.UTC())
	// The first saved copy is kept.
	assert.Equal(t, -40, rec.Networks[0].RSSI)

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, hash, entries[0].Hash)
	assert.Equal(t, 2, entries[0].Networks)
	assert.Equal(t, 1, entries[0].Clients)
	assert.Equal(t, "HomeNet", entries[0].Strongest)
	assert.Equal(t, 2, entries[0].Sightings)
}

func TestGetScan_NotFound(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	_, err = s.GetScan("deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_NewestFirst(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	older := sampleScan(-40)
	newer := sampleScan(-40)
	newer.Networks = newer.Networks[1:]
	newer.Clients = nil

	t0 := time.Now().Add(-time.Hour)
	_, _, err = s.SaveScan(older, Sighting{Timestamp: t0})
	require.NoError(t, err)
	_, _, err = s.SaveScan(newer, Sighting{Timestamp: t0.Add(time.Minute)})
	require.NoError(t, err)

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Networks)
	assert.Equal(t, 2, entries[1].Networks)
}

func TestAuditAndCredentials(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.Audit("TX %s", "[s]"))
	require.NoError(t, s.Audit("multi\nline"))
	lines, err := s.AuditLog()
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], " TX [s]"))
	assert.True(t, strings.HasSuffix(lines[1], " multi line"))

	creds, err := s.Credentials()
	require.NoError(t, err)
	assert.Empty(t, creds)

	require.NoError(t, s.AppendCredential("user=alice pass=hunter2"))
	creds, err = s.Credentials()
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Contains(t, creds[0], "user=alice pass=hunter2")

	info, err := os.Stat(filepath.Join(dir, "credentials.log"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
