package protocol

import "fmt"

// Kind is the closed set of framed message kinds, keyed by tag byte.
type Kind int

const (
	KindReady        Kind = iota // 'r' boot banner or LED status
	KindScanStatus               // 's'
	KindNetwork                  // 'n'
	KindClient                   // 'c'
	KindBLE                      // 'l' device entry or BLE status
	KindCredentials              // 'C'
	KindInfo                     // 'i'
	KindError                    // 'e'
	KindDeauthStatus             // 'd'
	KindAPStatus                 // 'w'
	KindBeaconStatus             // 'b'
	KindMonitorStatus            // 'm'
	KindStopAll                  // 'x'
	KindPortal                   // 'p'
	KindAPConfig                 // 'a'
	KindKick                     // 'k'
)

var kindTags = [...]byte{
	KindReady:         'r',
	KindScanStatus:    's',
	KindNetwork:       'n',
	KindClient:        'c',
	KindBLE:           'l',
	KindCredentials:   'C',
	KindInfo:          'i',
	KindError:         'e',
	KindDeauthStatus:  'd',
	KindAPStatus:      'w',
	KindBeaconStatus:  'b',
	KindMonitorStatus: 'm',
	KindStopAll:       'x',
	KindPortal:        'p',
	KindAPConfig:      'a',
	KindKick:          'k',
}

var kindNames = [...]string{
	KindReady:         "ready",
	KindScanStatus:    "scan-status",
	KindNetwork:       "network",
	KindClient:        "client",
	KindBLE:           "ble",
	KindCredentials:   "credentials",
	KindInfo:          "info",
	KindError:         "error",
	KindDeauthStatus:  "deauth-status",
	KindAPStatus:      "ap-status",
	KindBeaconStatus:  "beacon-status",
	KindMonitorStatus: "monitor-status",
	KindStopAll:       "stop-all",
	KindPortal:        "portal",
	KindAPConfig:      "ap-config",
	KindKick:          "kick",
}

// KindForTag maps a tag byte to its kind.
func KindForTag(tag byte) (Kind, bool) {
	for k, t := range kindTags {
		if t == tag {
			return Kind(k), true
		}
	}
	return 0, false
}

// Tag returns the wire tag byte.
func (k Kind) Tag() byte {
	if k < 0 || int(k) >= len(kindTags) {
		return 0
	}
	return kindTags[k]
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}
