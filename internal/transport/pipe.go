package transport

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

const defaultReadTimeout = 100 * time.Millisecond

// queue is a byte buffer with a timed blocking read.
type queue struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	ready  chan struct{}
	done   chan struct{}
	closed bool
}

func newQueue() *queue {
	return &queue{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (q *queue) push(p []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.buf.Write(p)
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// pop reads queued bytes, waiting up to timeout for some to arrive. Bytes
// queued before close are still delivered.
func (q *queue) pop(p []byte, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		q.mu.Lock()
		if q.buf.Len() > 0 {
			n, _ := q.buf.Read(p)
			q.mu.Unlock()
			return n, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return 0, ErrClosed
		}

		select {
		case <-q.ready:
		case <-q.done:
		case <-deadline.C:
			return 0, nil
		}
	}
}

func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Pipe is an in-memory link. The Pipe itself is the host end; Device
// returns the peripheral end.
type Pipe struct {
	toDevice *queue
	toHost   *queue
	timeout  time.Duration
	device   *DeviceEnd
}

// NewPipe returns a connected pair whose reads give up after readTimeout.
func NewPipe(readTimeout time.Duration) *Pipe {
	p := &Pipe{
		toDevice: newQueue(),
		toHost:   newQueue(),
		timeout:  readTimeout,
	}
	p.device = &DeviceEnd{pipe: p}
	return p
}

// Device returns the peripheral end.
func (p *Pipe) Device() *DeviceEnd { return p.device }

func (p *Pipe) Read(b []byte) (int, error) { return p.toHost.pop(b, p.timeout) }

func (p *Pipe) Write(b []byte) (int, error) {
	if err := p.toDevice.push(b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Close shuts both directions.
func (p *Pipe) Close() error {
	p.toDevice.close()
	p.toHost.close()
	return nil
}

// DeviceEnd plays the peripheral.
type DeviceEnd struct {
	pipe *Pipe
}

func (d *DeviceEnd) Read(b []byte) (int, error) { return d.pipe.toDevice.pop(b, d.pipe.timeout) }

func (d *DeviceEnd) Write(b []byte) (int, error) {
	if err := d.pipe.toHost.push(b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Close closes the whole pipe, as unplugging the device would.
func (d *DeviceEnd) Close() error { return d.pipe.Close() }

// SendFrame writes STX tag body ETX.
func (d *DeviceEnd) SendFrame(tag byte, body string) error {
	_, err := d.Write(protocol.EncodeFramed(string(tag) + body))
	return err
}

// SendLine writes a newline-terminated legacy line.
func (d *DeviceEnd) SendLine(line string) error {
	_, err := d.Write(protocol.EncodeLine(line))
	return err
}

// Serve frames everything the host writes and calls handle for each
// message, until the pipe is closed.
func (d *DeviceEnd) Serve(handle func(protocol.Message)) error {
	f := protocol.NewFramer()
	buf := make([]byte, 64)
	for {
		n, err := d.Read(buf)
		for _, m := range f.FeedBytes(buf[:n]) {
			handle(m)
		}
		if errors.Is(err, ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
