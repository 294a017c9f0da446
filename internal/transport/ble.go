package transport

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/vitaminmoo/bw16-tool/internal/config"
	"github.com/vitaminmoo/bw16-tool/internal/util"
)

// Nordic UART service, as exposed by BLE-to-UART bridge boards.
const (
	NUSServiceUUID = "6E400001-B5A3-F393-E0A9-E50E24DCCA9E"
	// NUSRXCharUUID is written by the central (host to peripheral).
	NUSRXCharUUID = "6E400002-B5A3-F393-E0A9-E50E24DCCA9E"
	// NUSTXCharUUID notifies the central (peripheral to host).
	NUSTXCharUUID = "6E400003-B5A3-F393-E0A9-E50E24DCCA9E"
)

// bleReadTimeout bounds a Read that finds no queued notification bytes.
const bleReadTimeout = 100 * time.Millisecond

// BLE bridges the peripheral's UART over a Nordic UART service.
type BLE struct {
	device bluetooth.Device
	rx     *bluetooth.DeviceCharacteristic

	chunk      int
	chunkDelay time.Duration

	rxq *queue
}

// OpenBLE scans for a peripheral advertising the configured name, connects
// and subscribes to its UART notifications.
func OpenBLE(c config.BLEConfig) (*BLE, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("failed to enable Bluetooth: %w", err)
	}

	config.Log.Infof("Scanning for %s...", c.Name)
	result, err := scanFor(adapter, c.Name, c.ScanTimeout)
	if err != nil {
		return nil, err
	}

	address, _ := result.Address.MarshalText()
	config.Log.Infof("Connecting to %s...", string(address))
	device, err := adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	b := &BLE{
		device:     device,
		chunk:      c.Chunk,
		chunkDelay: c.ChunkDelay,
		rxq:        newQueue(),
	}
	if err := b.setup(); err != nil {
		_ = device.Disconnect()
		return nil, err
	}
	config.Log.Info("Connected!")
	return b, nil
}

func scanFor(adapter *bluetooth.Adapter, name string, timeout time.Duration) (bluetooth.ScanResult, error) {
	var (
		found  bluetooth.ScanResult
		ok     bool
		stopMu sync.Mutex
	)
	want := strings.ToLower(name)

	timer := time.AfterFunc(timeout, func() {
		stopMu.Lock()
		defer stopMu.Unlock()
		_ = adapter.StopScan()
	})
	defer timer.Stop()

	err := adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		local := result.LocalName()
		if config.Verbose && local != "" {
			address, _ := result.Address.MarshalText()
			config.Debugf("  Found: '%s' (%s)", local, string(address))
		}
		if !ok && strings.Contains(strings.ToLower(local), want) {
			found = result
			ok = true
			stopMu.Lock()
			defer stopMu.Unlock()
			_ = adapter.StopScan()
		}
	})
	if err != nil {
		return found, fmt.Errorf("scan error: %w", err)
	}
	if !ok {
		return found, fmt.Errorf("no BLE device named %q after %s: %w", name, timeout, ErrTimeout)
	}
	return found, nil
}

func (b *BLE) setup() error {
	config.Debugf("Discovering services...")
	services, err := b.device.DiscoverServices(nil)
	if err != nil {
		return fmt.Errorf("failed to discover services: %w", err)
	}

	var nus *bluetooth.DeviceService
	for i := range services {
		if strings.EqualFold(services[i].UUID().String(), NUSServiceUUID) {
			nus = &services[i]
			break
		}
	}
	if nus == nil {
		return fmt.Errorf("UART service: %w", ErrNotFound)
	}

	chars, err := nus.DiscoverCharacteristics(nil)
	if err != nil {
		return fmt.Errorf("failed to discover characteristics: %w", err)
	}
	var tx *bluetooth.DeviceCharacteristic
	for i := range chars {
		uuid := chars[i].UUID().String()
		config.Debugf("Found characteristic: %s", uuid)
		switch {
		case strings.EqualFold(uuid, NUSRXCharUUID):
			b.rx = &chars[i]
		case strings.EqualFold(uuid, NUSTXCharUUID):
			tx = &chars[i]
		}
	}
	if b.rx == nil || tx == nil {
		return fmt.Errorf("UART characteristics: %w", ErrNotFound)
	}

	if err := tx.EnableNotifications(b.onNotify); err != nil {
		return fmt.Errorf("failed to enable notifications: %w", err)
	}
	return nil
}

func (b *BLE) onNotify(p []byte) {
	if config.Verbose {
		config.Debugf("Notification received: %d bytes\n%s", len(p), util.HexDump(p))
	}
	_ = b.rxq.push(p)
}

func (b *BLE) Read(p []byte) (int, error) { return b.rxq.pop(p, bleReadTimeout) }

// Write sends p in MTU-sized chunks without response.
func (b *BLE) Write(p []byte) (int, error) {
	sent := 0
	for sent < len(p) {
		end := min(sent+b.chunk, len(p))
		if _, err := b.rx.WriteWithoutResponse(p[sent:end]); err != nil {
			return sent, fmt.Errorf("failed to write: %w", err)
		}
		sent = end
		if sent < len(p) && b.chunkDelay > 0 {
			time.Sleep(b.chunkDelay)
		}
	}
	return sent, nil
}

func (b *BLE) Close() error {
	b.rxq.close()
	return b.device.Disconnect()
}
