// Package transport owns the physical link to the peripheral: a USB serial
// port, a BLE UART bridge, or an in-memory pipe for tests and simulation.
package transport

import (
	"errors"
	"fmt"

	"github.com/vitaminmoo/bw16-tool/internal/config"
)

// Port is a byte link to the peripheral.
//
// Read blocks for at most the link's read timeout and returns 0, nil when
// nothing arrived. Write blocks until the bytes are handed to the link.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

var (
	// ErrClosed is returned by Read and Write after Close.
	ErrClosed = errors.New("transport closed")
	// ErrTimeout is returned when a link cannot be established in time.
	ErrTimeout = errors.New("transport timeout")
	// ErrNotFound is returned when no matching device exists.
	ErrNotFound = errors.New("device not found")
)

// Open opens the transport selected in the config.
func Open(cfg config.Config) (Port, error) {
	switch cfg.Transport {
	case "serial":
		return OpenSerial(cfg.Serial)
	case "ble":
		return OpenBLE(cfg.BLE)
	case "sim":
		p := NewPipe(cfg.Serial.ReadTimeout)
		go Simulate(p.Device())
		return p, nil
	}
	return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
}
