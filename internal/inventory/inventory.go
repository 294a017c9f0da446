// Package inventory holds what the peripheral has reported: access points,
// their stations, nearby BLE devices and captured credentials. Every
// collection has a hard capacity and inserts past it are rejected.
package inventory

import (
	"strings"
)

// Capacity limits.
const (
	MaxNetworks       = 64
	MaxClients        = 128
	MaxClientsPerAP   = 16
	MaxBLEDevices     = 32
	CredentialsBudget = 512
)

// NetworkIndex is a position in the network list. NoNetwork means unlinked.
type NetworkIndex int

// ClientIndex is a position in the client list.
type ClientIndex int

// NoNetwork marks a client that is not linked to any network.
const NoNetwork NetworkIndex = -1

// Network is one observed access point.
type Network struct {
	ID       int    `json:"id"` // assigned by the peripheral
	SSID     string `json:"ssid"`
	BSSID    string `json:"bssid"`
	Channel  int    `json:"channel"`
	RSSI     int    `json:"rssi"`
	Is5GHz   bool   `json:"is_5ghz"`
	Security string `json:"security"`
	PMF      bool   `json:"pmf"`
	Hidden   bool   `json:"hidden"`

	// ReportedClients is the count the peripheral claimed. Advisory only.
	ReportedClients int `json:"reported_clients"`

	ClientIndices []ClientIndex `json:"client_indices"`
	DeauthActive  bool          `json:"deauth_active"`
}

// ClientCount is the number of linked clients.
func (n *Network) ClientCount() int {
	return len(n.ClientIndices)
}

// DisplaySSID returns the SSID or a placeholder for hidden networks.
func (n *Network) DisplaySSID() string {
	if n.SSID == "" {
		return "<hidden>"
	}
	return n.SSID
}

func (n *Network) hasClient(ci ClientIndex) bool {
	for _, c := range n.ClientIndices {
		if c == ci {
			return true
		}
	}
	return false
}

// Client is one observed station.
type Client struct {
	MAC     string       `json:"mac"`
	RSSI    int          `json:"rssi"`
	Network NetworkIndex `json:"network"` // back-reference; revalidated by Relink
}

// BLEDevice is one advertising BLE device.
type BLEDevice struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	RSSI    int    `json:"rssi"`
}

// AddResult says what happened to an insert.
type AddResult int

const (
	Added AddResult = iota
	Duplicate
	Full
	InvalidReference
)

func (r AddResult) String() string {
	switch r {
	case Added:
		return "added"
	case Duplicate:
		return "duplicate"
	case Full:
		return "collection full"
	case InvalidReference:
		return "invalid network reference"
	}
	return "unknown"
}

// Store owns the bounded collections. It does no locking of its own; the
// engine guards it.
type Store struct {
	networks    []Network
	clients     []Client
	ble         []BLEDevice
	credentials Credentials
}

// New returns an empty store with all capacity preallocated.
func New() *Store {
	return &Store{
		networks: make([]Network, 0, MaxNetworks),
		clients:  make([]Client, 0, MaxClients),
		ble:      make([]BLEDevice, 0, MaxBLEDevices),
	}
}

// ClearWiFi drops all networks and clients, as done at scan start.
func (s *Store) ClearWiFi() {
	s.networks = s.networks[:0]
	s.clients = s.clients[:0]
}

// ClearBLE drops all BLE devices.
func (s *Store) ClearBLE() {
	s.ble = s.ble[:0]
}

// NetworkCount returns the number of networks.
func (s *Store) NetworkCount() int { return len(s.networks) }

// ClientCount returns the number of clients.
func (s *Store) ClientCount() int { return len(s.clients) }

// BLECount returns the number of BLE devices.
func (s *Store) BLECount() int { return len(s.ble) }

// NetworksFull reports whether another network would be rejected.
func (s *Store) NetworksFull() bool { return len(s.networks) >= MaxNetworks }

// AddNetwork appends n with an empty client list. Any client indices or
// deauth state on n are discarded.
func (s *Store) AddNetwork(n Network) (NetworkIndex, AddResult) {
	if s.NetworksFull() {
		return NoNetwork, Full
	}
	n.ClientIndices = make([]ClientIndex, 0, MaxClientsPerAP)
	n.DeauthActive = false
	s.networks = append(s.networks, n)
	return NetworkIndex(len(s.networks) - 1), Added
}

// Network returns a pointer into the store for in-place updates. The pointer
// is invalidated by Sort and ClearWiFi.
func (s *Store) Network(i NetworkIndex) (*Network, bool) {
	if i < 0 || int(i) >= len(s.networks) {
		return nil, false
	}
	return &s.networks[i], true
}

// NetworkByID finds a network by its peripheral-assigned id.
func (s *Store) NetworkByID(id int) (NetworkIndex, bool) {
	for i := range s.networks {
		if s.networks[i].ID == id {
			return NetworkIndex(i), true
		}
	}
	return NoNetwork, false
}

// ClientByMAC finds a client, comparing MACs case-insensitively.
func (s *Store) ClientByMAC(mac string) (ClientIndex, bool) {
	for i := range s.clients {
		if strings.EqualFold(s.clients[i].MAC, mac) {
			return ClientIndex(i), true
		}
	}
	return -1, false
}

// Client returns a copy of the client at i.
func (s *Store) Client(i ClientIndex) (Client, bool) {
	if i < 0 || int(i) >= len(s.clients) {
		return Client{}, false
	}
	return s.clients[i], true
}

// AddClient records a station seen on network ap. A MAC already present is
// a Duplicate and changes nothing. When the network's client list is at
// capacity the client is still recorded, but unlinked.
func (s *Store) AddClient(ap NetworkIndex, mac string, rssi int) (ClientIndex, AddResult) {
	if len(s.clients) >= MaxClients {
		return -1, Full
	}
	if ci, dup := s.ClientByMAC(mac); dup {
		return ci, Duplicate
	}
	net, ok := s.Network(ap)
	if !ok {
		return -1, InvalidReference
	}

	ci := ClientIndex(len(s.clients))
	c := Client{MAC: mac, RSSI: rssi, Network: NoNetwork}
	if len(net.ClientIndices) < MaxClientsPerAP {
		net.ClientIndices = append(net.ClientIndices, ci)
		c.Network = ap
	}
	s.clients = append(s.clients, c)
	return ci, Added
}

// AddBLE appends a BLE device.
func (s *Store) AddBLE(d BLEDevice) AddResult {
	if len(s.ble) >= MaxBLEDevices {
		return Full
	}
	s.ble = append(s.ble, d)
	return Added
}

// SetDeauth sets the active-deauth flag on the network with the given id.
// Setting it to the value it already has is a no-op.
func (s *Store) SetDeauth(id int, active bool) bool {
	_, ok := s.MarkDeauth(id, active)
	return ok
}

// MarkDeauth is SetDeauth that also reports whether the flag changed.
func (s *Store) MarkDeauth(id int, active bool) (changed, ok bool) {
	i, ok := s.NetworkByID(id)
	if !ok {
		return false, false
	}
	changed = s.networks[i].DeauthActive != active
	s.networks[i].DeauthActive = active
	return changed, true
}

// DeauthCount reports how many networks are under deauth.
func (s *Store) DeauthCount() int {
	n := 0
	for i := range s.networks {
		if s.networks[i].DeauthActive {
			n++
		}
	}
	return n
}

// ClearDeauth clears the active-deauth flag on every network and reports
// whether any was set.
func (s *Store) ClearDeauth() bool {
	cleared := false
	for i := range s.networks {
		if s.networks[i].DeauthActive {
			s.networks[i].DeauthActive = false
			cleared = true
		}
	}
	return cleared
}

// Credentials returns the credential log.
func (s *Store) Credentials() *Credentials {
	return &s.credentials
}

// Snapshot is a deep copy of the store, safe to use after the lock is
// released.
type Snapshot struct {
	Networks    []Network   `json:"networks"`
	Clients     []Client    `json:"clients"`
	BLE         []BLEDevice `json:"ble"`
	Credentials string      `json:"credentials,omitempty"`
}

// Snapshot copies every collection.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Networks:    make([]Network, len(s.networks)),
		Clients:     make([]Client, len(s.clients)),
		BLE:         make([]BLEDevice, len(s.ble)),
		Credentials: s.credentials.String(),
	}
	for i, n := range s.networks {
		n.ClientIndices = append([]ClientIndex(nil), n.ClientIndices...)
		snap.Networks[i] = n
	}
	copy(snap.Clients, s.clients)
	copy(snap.BLE, s.ble)
	return snap
}

// ClientsOf returns the clients linked to network i, in link order.
func (snap Snapshot) ClientsOf(i int) []Client {
	if i < 0 || i >= len(snap.Networks) {
		return nil
	}
	var out []Client
	for _, ci := range snap.Networks[i].ClientIndices {
		if int(ci) >= 0 && int(ci) < len(snap.Clients) {
			out = append(out, snap.Clients[ci])
		}
	}
	return out
}
