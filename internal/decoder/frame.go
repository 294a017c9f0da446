package decoder

import (
	"fmt"
	"strings"

	"github.com/vitaminmoo/bw16-tool/internal/config"
	"github.com/vitaminmoo/bw16-tool/internal/firmware"
	"github.com/vitaminmoo/bw16-tool/internal/notify"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

// HandleFrame decodes one framed message.
func (s *Session) HandleFrame(tag byte, body string) {
	body = protocol.NormalizeFields(body)
	s.Console.Append(fmt.Sprintf("[%c] %s", tag, body))
	config.Debugf("RX [%c] %s", tag, body)

	kind, ok := protocol.KindForTag(tag)
	if !ok {
		config.Log.Warnf("unknown message tag %q: %s", tag, body)
		return
	}

	switch kind {
	case protocol.KindReady:
		s.ready(body)
	case protocol.KindScanStatus:
		s.scanStatus(body)
	case protocol.KindNetwork:
		s.network(body)
	case protocol.KindClient:
		s.client(body)
	case protocol.KindBLE:
		s.bleStatus(body)
	case protocol.KindCredentials:
		s.credential(body)
	case protocol.KindInfo:
		s.info(body)
	case protocol.KindError:
		config.Log.Warnf("device error: %s", body)
	case protocol.KindDeauthStatus:
		s.deauthStatus(body)
	case protocol.KindAPStatus:
		s.apStatus(body)
	case protocol.KindBeaconStatus:
		s.beaconStatus(body)
	case protocol.KindMonitorStatus:
		s.monitorStatus(body)
	case protocol.KindStopAll:
		s.StopAll()
	case protocol.KindPortal:
		if v, ok := strings.CutPrefix(body, "PORTAL:"); ok {
			s.Status.Portal = protocol.LeadingInt(v, s.Status.Portal)
		}
	case protocol.KindAPConfig:
		config.Debugf("ap config: %s", body)
	case protocol.KindKick:
		s.kickStatus(body)
	}
}

// ready handles 'r', which carries both the boot banner and LED acks. Only
// the "LED" prefix tells them apart.
func (s *Session) ready(body string) {
	if strings.HasPrefix(body, "LED") {
		config.Debugf("led: %s", body)
		return
	}
	s.Observed.Profile = firmware.Native
	s.Observed.Banner = body
	if _, ver, ok := strings.Cut(body, ":"); ok {
		s.Observed.Version = ver
	}
	s.Observed.Done = true
}

func (s *Session) scanStatus(body string) {
	switch {
	case strings.HasPrefix(body, "DONE:"):
		s.Status.ScanFinished = true
		s.Status.Scanning = false
		config.Debugf("scan done: %s networks", body[5:])
	case body == "SCANNING":
		s.Status.Scanning = true
	}
}

func (s *Session) bleStatus(body string) {
	switch {
	case strings.HasPrefix(body, "SCAN_DONE:"):
		s.Status.BLEScanning = false
		config.Debugf("ble scan done: %s devices", body[10:])
	case body == "BLE_SCANNING":
		s.Status.BLEScanning = true
	case body == "BLE_SPAM_ON":
		s.setFlag(&s.Status.BLESpamActive, true, "ble spam", "")
	case body == "BLE_STOP":
		s.Status.BLEScanning = false
		s.setFlag(&s.Status.BLESpamActive, false, "", "ble spam")
	default:
		s.bleDevice(protocol.FieldTokens(body))
	}
}

func (s *Session) deauthStatus(body string) {
	switch {
	case strings.HasPrefix(body, "DEAUTH:"):
		id := protocol.LeadingInt(body[7:], -1)
		if !s.SetDeauth(id, true) {
			config.Debugf("deauth ack for unknown network %d", id)
		}
	case body == "STOPPED":
		s.ClearDeauth()
	}
}

func (s *Session) apStatus(body string) {
	switch {
	case strings.HasPrefix(body, "AP_ON:"):
		s.Status.Portal = protocol.LeadingInt(body[6:], s.Status.Portal)
		s.setFlag(&s.Status.APActive, true, "access point with portal "+body[6:], "")
	case body == "AP_OFF":
		s.setFlag(&s.Status.APActive, false, "", "access point")
	}
}

func (s *Session) beaconStatus(body string) {
	switch {
	case strings.Contains(body, "BEACON_RANDOM"),
		strings.Contains(body, "BEACON_RICKROLL"),
		strings.Contains(body, "BEACON_CUSTOM"):
		s.setFlag(&s.Status.BeaconActive, true, "beacon spam", "")
	case body == "BEACON_STOP":
		s.setFlag(&s.Status.BeaconActive, false, "", "beacon spam")
	}
}

func (s *Session) monitorStatus(body string) {
	// "MONITOR_OFF" contains "ON", so OFF is checked first.
	switch {
	case strings.Contains(body, "OFF"):
		s.setFlag(&s.Status.MonitorActive, false, "", "monitor")
	case strings.Contains(body, "ON"):
		s.setFlag(&s.Status.MonitorActive, true, "monitor", "")
	default:
		config.Debugf("monitor: %s", body)
	}
}

func (s *Session) kickStatus(body string) {
	switch {
	case strings.HasPrefix(body, "CLIENT_DEAUTH:"):
		if s.Status.KickTarget == body[14:] {
			return
		}
		s.Status.KickTarget = body[14:]
		s.notify(notify.AttackStarted, "kick %s", s.Status.KickTarget)
	case body == "CLIENT_NOT_FOUND":
		config.Log.Warn("kick target not in the device's client list")
	}
}
