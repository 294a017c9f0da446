package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// hashedNetwork is the stable part of a network. RSSI, ids and attack
// state change between otherwise identical scans and are left out.
type hashedNetwork struct {
	SSID     string   `json:"ssid"`
	BSSID    string   `json:"bssid"`
	Channel  int      `json:"channel"`
	Security string   `json:"security"`
	Clients  []string `json:"clients"`
}

// ContentHash computes a content-addressable hash for a scan. It covers the
// set of networks by BSSID, SSID, channel and security, plus the MACs of
// the clients linked to each, independent of report order.
func ContentHash(s *Scan) (string, error) {
	if len(s.Networks) == 0 {
		return "", fmt.Errorf("scan has no networks")
	}

	nets := make([]hashedNetwork, 0, len(s.Networks))
	for _, n := range s.Networks {
		h := hashedNetwork{
			SSID:     n.SSID,
			BSSID:    strings.ToUpper(n.BSSID),
			Channel:  n.Channel,
			Security: n.Security,
			Clients:  []string{},
		}
		for _, ci := range n.ClientIndices {
			if int(ci) >= 0 && int(ci) < len(s.Clients) {
				h.Clients = append(h.Clients, strings.ToUpper(s.Clients[ci].MAC))
			}
		}
		sort.Strings(h.Clients)
		nets = append(nets, h)
	}
	sort.Slice(nets, func(i, j int) bool {
		if nets[i].BSSID != nets[j].BSSID {
			return nets[i].BSSID < nets[j].BSSID
		}
		return nets[i].SSID < nets[j].SSID
	})

	data, err := json.Marshal(nets)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:]), nil
}

// ShortHash returns a shortened version of the hash for display purposes.
func ShortHash(fullHash string) string {
	if len(fullHash) > 19 {
		return fullHash[7:19]
	}
	return fullHash
}
