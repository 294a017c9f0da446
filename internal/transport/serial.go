package transport

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial"

	"github.com/vitaminmoo/bw16-tool/internal/config"
)

// Serial is a UART link, 8N1.
type Serial struct {
	port serial.Port
	name string
}

// ListPorts returns the serial ports present on the system, USB adapters
// first.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	sort.SliceStable(ports, func(i, j int) bool {
		return isUSB(ports[i]) && !isUSB(ports[j])
	})
	return ports, nil
}

func isUSB(name string) bool {
	n := strings.ToLower(name)
	for _, s := range []string{"ttyusb", "ttyacm", "usbserial", "usbmodem", "wchusbserial", "slab_usbtouart"} {
		if strings.Contains(n, s) {
			return true
		}
	}
	return false
}

// DefaultPort picks the first USB serial port.
func DefaultPort() (string, error) {
	ports, err := ListPorts()
	if err != nil {
		return "", err
	}
	if len(ports) == 0 || !isUSB(ports[0]) {
		return "", fmt.Errorf("no USB serial port: %w", ErrNotFound)
	}
	return ports[0], nil
}

// OpenSerial opens the configured port, or the first USB port when none is
// configured.
func OpenSerial(c config.SerialConfig) (*Serial, error) {
	name := c.Port
	if name == "" {
		var err error
		if name, err = DefaultPort(); err != nil {
			return nil, err
		}
	}

	port, err := serial.Open(name, &serial.Mode{
		BaudRate: c.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, describe(err))
	}
	if err := port.SetReadTimeout(c.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
	}
	config.Debugf("opened %s at %d baud", name, c.Baud)
	return &Serial{port: port, name: name}, nil
}

// describe adds a hint to the errors a user can act on.
func describe(err error) error {
	code, ok := portErrorCode(err)
	if !ok {
		return err
	}
	switch code {
	case serial.PortNotFound:
		return fmt.Errorf("%w (is the board plugged in?)", err)
	case serial.PortBusy:
		return fmt.Errorf("%w (another program has the port open)", err)
	case serial.PermissionDenied:
		return fmt.Errorf("%w (add yourself to the dialout group)", err)
	}
	return err
}

// Name returns the device path.
func (s *Serial) Name() string { return s.name }

func (s *Serial) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if err != nil && isClosed(err) {
		return n, ErrClosed
	}
	return n, err
}

func (s *Serial) Write(p []byte) (int, error) {
	n, err := s.port.Write(p)
	if err != nil && isClosed(err) {
		return n, ErrClosed
	}
	return n, err
}

func (s *Serial) Close() error {
	return s.port.Close()
}

func isClosed(err error) bool {
	code, ok := portErrorCode(err)
	return ok && code == serial.PortClosed
}

// portErrorCode extracts the code from a PortError held by value or pointer.
func portErrorCode(err error) (serial.PortErrorCode, bool) {
	var pe serial.PortError
	if errors.As(err, &pe) {
		return pe.Code(), true
	}
	var ppe *serial.PortError
	if errors.As(err, &ppe) && ppe != nil {
		return ppe.Code(), true
	}
	return 0, false
}
