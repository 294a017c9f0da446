package store

import (
	"time"

	"github.com/vitaminmoo/bw16-tool/internal/inventory"
)

// Scan is a saved scan result.
type Scan struct {
	ContentHash string                `json:"content_hash"`
	Profile     string                `json:"profile"`
	Networks    []inventory.Network   `json:"networks"`
	Clients     []inventory.Client    `json:"clients"`
	BLE         []inventory.BLEDevice `json:"ble,omitempty"`
	Sightings   []Sighting            `json:"sightings"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// Sighting records one time the same scan content was observed.
type Sighting struct {
	Timestamp time.Time `json:"timestamp"`
	Transport string    `json:"transport"` // "serial", "ble", "sim"
	Port      string    `json:"port,omitempty"`
}

// NewScan builds a record from an inventory snapshot.
func NewScan(snap inventory.Snapshot, profile string) *Scan {
	return &Scan{
		Profile:  profile,
		Networks: snap.Networks,
		Clients:  snap.Clients,
		BLE:      snap.BLE,
	}
}

// Summary condenses a scan for the index.
func (s *Scan) Summary() IndexEntry {
	e := IndexEntry{
		Profile:   s.Profile,
		Networks:  len(s.Networks),
		Clients:   len(s.Clients),
		BLE:       len(s.BLE),
		Sightings: len(s.Sightings),
		CreatedAt: s.CreatedAt,
	}
	best := -1000
	for _, n := range s.Networks {
		if n.RSSI > best {
			best = n.RSSI
			e.Strongest = n.DisplaySSID()
		}
	}
	return e
}
