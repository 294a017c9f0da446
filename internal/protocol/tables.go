package protocol

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Field size limits, in bytes of text.
const (
	MaxSSIDLen     = 32
	MACLen         = 17 // AA:BB:CC:DD:EE:FF
	MaxSecurityLen = 15
	MaxBLENameLen  = 63
)

// DefaultReason is the reason code the modern dialect assumes when none is
// given.
const DefaultReason = 2

// DeauthReasons are the 802.11 reason codes 0-24.
var DeauthReasons = []string{
	"Reserved", "Unspecified", "Auth no longer valid", "Leaving BSS",
	"Inactivity", "AP overloaded", "Class 2 error", "Class 3 error",
	"Disassoc leaving", "Not authenticated", "Power Cap invalid",
	"Channels invalid", "BSS Transition", "Invalid element", "MIC failure",
	"4-Way timeout", "Group Key timeout", "4-Way mismatch", "Invalid group",
	"Invalid pairwise", "Invalid AKMP", "Bad RSNE version", "Invalid RSNE",
	"802.1X auth fail", "Cipher rejected",
}

// Portals are the captive portal templates; index 0 stops the portal.
var Portals = []string{
	"Stop", "Default", "Google", "Facebook", "Amazon", "Apple", "Netflix", "Microsoft",
}

// Channels lists the 2.4 GHz and 5 GHz channels the radio can use.
var Channels = []int{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14,
	36, 38, 40, 42, 44, 46, 48, 50, 52, 54, 56, 58,
	60, 62, 64, 100, 102, 104, 106, 108, 110, 112, 114,
	116, 118, 120, 122, 124, 126, 128, 132, 134, 136,
	138, 140, 142, 144, 149, 151, 153, 155, 157, 159, 161, 165,
}

// ValidChannel reports whether ch is in Channels.
func ValidChannel(ch int) bool {
	for _, c := range Channels {
		if c == ch {
			return true
		}
	}
	return false
}

// Is5GHz reports whether a channel number is in the 5 GHz band.
func Is5GHz(ch int) bool {
	return ch >= 36
}

// BLESpamKind selects the advertisement flood payload.
type BLESpamKind int

const (
	SpamRandom    BLESpamKind = iota // random device names
	SpamFastPair                     // Android
	SpamSwiftPair                    // Windows
	SpamAirTag                       // Apple
	SpamAll
)

var spamNames = []string{"random", "fastpair", "swiftpair", "airtag", "all"}

func (k BLESpamKind) String() string {
	if k < 0 || int(k) >= len(spamNames) {
		return fmt.Sprintf("spam(%d)", int(k))
	}
	return spamNames[k]
}

// ParseBLESpamKind accepts a name or a digit.
func ParseBLESpamKind(s string) (BLESpamKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range spamNames {
		if s == n || s == fmt.Sprint(i) {
			return BLESpamKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown BLE spam kind %q (want one of %s)", s, strings.Join(spamNames, ", "))
}

// LEDEffect is one of the firmware's built-in LED animations.
type LEDEffect int

const (
	LEDOff LEDEffect = iota
	LEDWiFi
	LEDBLE
	LEDAttack
)

var ledNames = []string{"off", "wifi", "ble", "attack"}

func (fx LEDEffect) String() string {
	if fx < 0 || int(fx) >= len(ledNames) {
		return fmt.Sprintf("led(%d)", int(fx))
	}
	return ledNames[fx]
}

// ParseLEDEffect accepts a name or a digit.
func ParseLEDEffect(s string) (LEDEffect, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range ledNames {
		if s == n || s == fmt.Sprint(i) {
			return LEDEffect(i), nil
		}
	}
	return 0, fmt.Errorf("unknown LED effect %q (want one of %s)", s, strings.Join(ledNames, ", "))
}

// Colours used as state cues on the status LED.
var (
	ColorReady = [3]uint8{0, 255, 0}
)

// Legacy security flag bits as reported in AP: lines.
const (
	SecWEP    = 0x0001
	SecTKIP   = 0x0002
	SecAES    = 0x0004
	SecShared = 0x00008000
	SecWPA    = 0x00200000
	SecWPA2   = 0x00400000
	SecWPA3   = 0x00800000
)

// SecurityName turns a legacy security flag word into a short label.
func SecurityName(flags int) string {
	switch flags {
	case 0:
		return "OPEN"
	case SecWEP:
		return "WEP"
	case SecWEP | SecShared:
		return "WEP-S"
	case SecWPA | SecTKIP:
		return "WPA-TKIP"
	case SecWPA | SecAES:
		return "WPA-AES"
	case SecWPA2 | SecAES:
		return "WPA2-AES"
	case SecWPA2 | SecTKIP:
		return "WPA2-TKIP"
	case SecWPA2 | SecAES | SecTKIP:
		return "WPA2-MIX"
	case SecWPA | SecWPA2:
		return "WPA/2"
	case SecWPA3 | SecAES:
		return "WPA3"
	case SecWPA2 | SecWPA3 | SecAES:
		return "WPA2/3"
	default:
		return "???"
	}
}

// ValidMAC reports whether s looks like AA:BB:CC:DD:EE:FF.
func ValidMAC(s string) bool {
	if len(s) != MACLen {
		return false
	}
	for i := 0; i < MACLen; i++ {
		if i%3 == 2 {
			if s[i] != ':' {
				return false
			}
			continue
		}
		if !isHex(s[i]) {
			return false
		}
	}
	return true
}

// IsOctet reports whether s is exactly two hex digits.
func IsOctet(s string) bool {
	return len(s) == 2 && isHex(s[0]) && isHex(s[1])
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// RandomMAC returns a unicast, locally administered address.
func RandomMAC() string {
	var b [6]byte
	_, _ = rand.Read(b[:])
	b[0] &= 0xFE
	b[0] |= 0x02
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3], b[4], b[5])
}
