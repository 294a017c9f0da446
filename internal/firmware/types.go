package firmware

import (
	"fmt"
	"strings"
)

// Profile identifies which firmware image is running on the peripheral.
type Profile int

const (
	Unknown        Profile = iota
	Native                 // Gattrose-NG, framed protocol
	LegacyVariantA         // Evil-BW16
	LegacyVariantB         // Pingequa
	ForeignVariant         // ESP32 Marauder
	GenericAT              // any AT-command firmware
)

var profileNames = [...]string{
	Unknown:        "Unknown",
	Native:         "Gattrose-NG",
	LegacyVariantA: "Evil-BW16",
	LegacyVariantB: "Pingequa",
	ForeignVariant: "Marauder",
	GenericAT:      "Generic AT",
}

// Profiles lists every profile in declaration order.
var Profiles = []Profile{Unknown, Native, LegacyVariantA, LegacyVariantB, ForeignVariant, GenericAT}

func (p Profile) String() string {
	if p < 0 || int(p) >= len(profileNames) {
		return fmt.Sprintf("Profile(%d)", int(p))
	}
	return profileNames[p]
}

// ParseProfile accepts a display name or a short alias.
func ParseProfile(s string) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	aliases := map[string]Profile{
		"unknown":    Unknown,
		"native":     Native,
		"gattrose":   Native,
		"evil":       LegacyVariantA,
		"evil-bw16":  LegacyVariantA,
		"pingequa":   LegacyVariantB,
		"marauder":   ForeignVariant,
		"generic":    GenericAT,
		"at":         GenericAT,
		"generic at": GenericAT,
	}
	if p, ok := aliases[key]; ok {
		return p, nil
	}
	for _, p := range Profiles {
		if strings.EqualFold(p.String(), key) {
			return p, nil
		}
	}
	return Unknown, fmt.Errorf("unknown firmware profile %q", s)
}

// Modern reports whether the profile speaks the framed single-letter dialect.
func (p Profile) Modern() bool {
	return p == Native
}

// Capability is one operation a firmware may support.
type Capability int

const (
	CapWiFiScan Capability = iota
	CapScan5GHz
	CapClientDetection
	CapTargetedDeauth
	CapBroadcastDeauth
	CapBeaconSpam
	CapEvilTwin
	CapBLEScan
	CapBLESpam
	CapChannelHop
	CapMonitorMode
	CapEAPOLCapture
	numCapabilities
)

var capabilityNames = [...]string{
	CapWiFiScan:        "wifi scan",
	CapScan5GHz:        "5 GHz scan",
	CapClientDetection: "client detection",
	CapTargetedDeauth:  "targeted deauth",
	CapBroadcastDeauth: "broadcast deauth",
	CapBeaconSpam:      "beacon spam",
	CapEvilTwin:        "evil twin",
	CapBLEScan:         "BLE scan",
	CapBLESpam:         "BLE spam",
	CapChannelHop:      "channel hop",
	CapMonitorMode:     "monitor mode",
	CapEAPOLCapture:    "EAPOL capture",
}

func (c Capability) String() string {
	if c < 0 || c >= numCapabilities {
		return fmt.Sprintf("Capability(%d)", int(c))
	}
	return capabilityNames[c]
}

// Capabilities is the fixed feature set of a profile.
type Capabilities [numCapabilities]bool

// Has reports whether c is supported.
func (c Capabilities) Has(want Capability) bool {
	if want < 0 || want >= numCapabilities {
		return false
	}
	return c[want]
}

// List returns the supported capabilities in order.
func (c Capabilities) List() []Capability {
	var out []Capability
	for i, ok := range c {
		if ok {
			out = append(out, Capability(i))
		}
	}
	return out
}

func (c Capabilities) String() string {
	names := make([]string, 0, len(c))
	for _, k := range c.List() {
		names = append(names, k.String())
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func caps(list ...Capability) Capabilities {
	var c Capabilities
	for _, k := range list {
		c[k] = true
	}
	return c
}

var profileCaps = [...]Capabilities{
	Unknown: caps(CapWiFiScan, CapBroadcastDeauth),
	Native: caps(CapWiFiScan, CapScan5GHz, CapClientDetection, CapTargetedDeauth,
		CapBroadcastDeauth, CapBeaconSpam, CapEvilTwin, CapBLEScan, CapBLESpam,
		CapChannelHop, CapMonitorMode, CapEAPOLCapture),
	LegacyVariantA: caps(CapWiFiScan, CapScan5GHz, CapBroadcastDeauth, CapBeaconSpam,
		CapEvilTwin, CapChannelHop, CapEAPOLCapture),
	LegacyVariantB: caps(CapWiFiScan, CapBroadcastDeauth),
	ForeignVariant: caps(CapWiFiScan, CapBroadcastDeauth, CapBeaconSpam, CapBLEScan, CapBLESpam),
	GenericAT:      caps(CapWiFiScan),
}

// CapabilitiesFor returns the fixed capability set of p. Out-of-range
// profiles get the Unknown set.
func CapabilitiesFor(p Profile) Capabilities {
	if p < 0 || int(p) >= len(profileCaps) {
		return profileCaps[Unknown]
	}
	return profileCaps[p]
}
