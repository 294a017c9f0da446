package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/vitaminmoo/bw16-tool/internal/engine"
	"github.com/vitaminmoo/bw16-tool/internal/inventory"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

// BLEScan scans for BLE devices and prints them.
func BLEScan(ctx context.Context, e *engine.Engine, w io.Writer) error {
	fmt.Fprintln(w, "Scanning for BLE devices...")
	n, err := e.BLEScan(ctx)
	if err != nil {
		return fmt.Errorf("BLE scan failed: %w", err)
	}
	fmt.Fprintf(w, "Found %d device(s)\n\n", n)
	PrintBLE(w, e.Snapshot().Inventory)
	return nil
}

// PrintBLE prints the BLE device table.
func PrintBLE(w io.Writer, inv inventory.Snapshot) {
	if len(inv.BLE) == 0 {
		fmt.Fprintln(w, "No BLE devices.")
		return
	}
	heading.Fprintf(w, "%3s  %-17s %4s  %s\n", "#", "ADDRESS", "RSSI", "NAME")
	for i, d := range inv.BLE {
		name := d.Name
		if name == "Unknown" {
			name = dim.Sprint(name)
		}
		fmt.Fprintf(w, "%3d  %-17s %s  %s\n", i, d.Address, signal(d.RSSI), name)
	}
}

// BLESpam starts an advertisement flood.
func BLESpam(ctx context.Context, e *engine.Engine, w io.Writer, kind string) error {
	k, err := protocol.ParseBLESpamKind(kind)
	if err != nil {
		return err
	}
	if err := e.BLESpam(ctx, k); err != nil {
		return err
	}
	bad.Fprintf(w, "BLE spam (%s) running\n", k)
	return nil
}

// BLEStop stops BLE scanning and spam.
func BLEStop(ctx context.Context, e *engine.Engine, w io.Writer) error {
	if err := e.BLEStop(ctx); err != nil {
		return err
	}
	good.Fprintln(w, "BLE stopped")
	return nil
}

// LED sets a built-in effect, or a solid colour when rgb is non-nil.
func LED(ctx context.Context, e *engine.Engine, w io.Writer, effect string, rgb []uint8) error {
	if len(rgb) > 0 {
		if len(rgb) != 3 {
			return fmt.Errorf("--rgb wants three values, got %d", len(rgb))
		}
		if err := e.LEDColor(ctx, rgb[0], rgb[1], rgb[2]); err != nil {
			return err
		}
		fmt.Fprintf(w, "LED set to %d,%d,%d\n", rgb[0], rgb[1], rgb[2])
		return nil
	}
	fx, err := protocol.ParseLEDEffect(effect)
	if err != nil {
		return err
	}
	if err := e.LED(ctx, fx); err != nil {
		return err
	}
	fmt.Fprintf(w, "LED effect %s\n", fx)
	return nil
}
