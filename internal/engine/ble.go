package engine

import (
	"context"

	"github.com/vitaminmoo/bw16-tool/internal/decoder"
	"github.com/vitaminmoo/bw16-tool/internal/notify"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

// BLEScan clears the BLE list, scans, and fetches the devices found. It
// returns the number of devices.
func (e *Engine) BLEScan(ctx context.Context) (int, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return 0, err
	}
	start, err := enc.BLEScan()
	if err != nil {
		return 0, err
	}

	e.withState(func(s *decoder.Session) { s.Inventory.ClearBLE() })
	e.notify(notify.ScanStarted, "ble")
	if err := e.send(ctx, start); err != nil {
		return 0, err
	}
	if err := sleep(ctx, e.cfg.Scan.BLEWait); err != nil {
		return 0, err
	}

	if enc.Modern() {
		list, err := enc.BLEList()
		if err != nil {
			return 0, err
		}
		if err := e.send(ctx, list); err != nil {
			return 0, err
		}
		if err := sleep(ctx, e.cfg.Scan.BLEListWait); err != nil {
			return 0, err
		}
	}

	var n int
	e.withState(func(s *decoder.Session) { n = s.Inventory.BLECount() })
	if err := e.send(ctx, enc.Ready()); err != nil {
		return n, err
	}
	e.notify(notify.ScanFinished, "%d BLE devices", n)
	return n, nil
}

// BLESpam floods BLE advertisements of the given kind.
func (e *Engine) BLESpam(ctx context.Context, k protocol.BLESpamKind) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return err
	}
	cmds, err := enc.BLESpam(k)
	if err != nil {
		return err
	}
	return e.send(ctx, cmds)
}

// BLEStop stops BLE scanning and spam.
func (e *Engine) BLEStop(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return err
	}
	if err := e.send(ctx, enc.BLEStop()); err != nil {
		return err
	}
	if !enc.Modern() {
		e.withState(func(s *decoder.Session) {
			s.Status.BLEScanning = false
			s.Status.BLESpamActive = false
		})
	}
	return nil
}

// LED plays a built-in LED effect.
func (e *Engine) LED(ctx context.Context, fx protocol.LEDEffect) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return err
	}
	cmds, err := enc.LED(fx)
	if err != nil {
		return err
	}
	return e.send(ctx, cmds)
}

// LEDColor sets a static LED colour.
func (e *Engine) LEDColor(ctx context.Context, r, g, b uint8) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return err
	}
	cmds, err := enc.LEDColor(r, g, b)
	if err != nil {
		return err
	}
	return e.send(ctx, cmds)
}
