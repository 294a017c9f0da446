package encoder

import (
	"fmt"
	"strconv"

	"github.com/vitaminmoo/bw16-tool/internal/firmware"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

// BLEScan starts a BLE scan.
func (e *Encoder) BLEScan() ([]Command, error) {
	if err := e.require("ble scan", firmware.CapBLEScan); err != nil {
		return nil, err
	}
	if e.Modern() {
		return []Command{ledEffect(protocol.LEDBLE), framed("ls", 0)}, nil
	}
	return []Command{line("BLESCAN", 0)}, nil
}

// BLEList asks for the BLE devices found. Legacy firmware reports them as
// it goes and has no list command.
func (e *Encoder) BLEList() ([]Command, error) {
	if err := e.require("ble list", firmware.CapBLEScan); err != nil {
		return nil, err
	}
	if err := e.modernOnly("ble list", firmware.CapBLEScan); err != nil {
		return nil, err
	}
	return []Command{framed("lg", 0)}, nil
}

// BLEStop stops BLE scanning and spam.
func (e *Encoder) BLEStop() []Command {
	if e.Modern() {
		return []Command{framed("lx", 0)}
	}
	return []Command{line("BLESTOP", 0)}
}

// BLESpam floods advertisements of the given kind.
func (e *Encoder) BLESpam(k protocol.BLESpamKind) ([]Command, error) {
	if err := e.require("ble spam", firmware.CapBLESpam); err != nil {
		return nil, err
	}
	if err := e.modernOnly("ble spam", firmware.CapBLESpam); err != nil {
		return nil, err
	}
	if k < protocol.SpamRandom || k > protocol.SpamAll {
		return nil, fmt.Errorf("ble spam kind %d: %w", k, ErrInvalidArgument)
	}
	return []Command{framed("lp"+strconv.Itoa(int(k)), 0)}, nil
}

// LED plays one of the built-in LED effects.
func (e *Encoder) LED(fx protocol.LEDEffect) ([]Command, error) {
	if err := e.modernOnly("led", firmware.CapWiFiScan); err != nil {
		return nil, err
	}
	if fx < protocol.LEDOff || fx > protocol.LEDAttack {
		return nil, fmt.Errorf("led effect %d: %w", fx, ErrInvalidArgument)
	}
	c := ledEffect(fx)
	c.Settle = 0
	return []Command{c}, nil
}

// LEDColor sets a static LED colour.
func (e *Encoder) LEDColor(r, g, b uint8) ([]Command, error) {
	if err := e.modernOnly("led", firmware.CapWiFiScan); err != nil {
		return nil, err
	}
	return []Command{framed(fmt.Sprintf("r%d,%d,%d", r, g, b), 0)}, nil
}
