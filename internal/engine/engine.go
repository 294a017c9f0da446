// Package engine owns a session with the peripheral. It runs the receive
// loop, serialises operations, and keeps the inventory, status flags and
// firmware detection behind a single lock.
//
// The receive goroutine holds the lock only while feeding bytes through the
// framer and decoders. Operations take it for reads and local updates and
// release it before any write to the link, so a slow write never stalls
// decoding.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/vitaminmoo/bw16-tool/internal/config"
	"github.com/vitaminmoo/bw16-tool/internal/decoder"
	"github.com/vitaminmoo/bw16-tool/internal/encoder"
	"github.com/vitaminmoo/bw16-tool/internal/firmware"
	"github.com/vitaminmoo/bw16-tool/internal/inventory"
	"github.com/vitaminmoo/bw16-tool/internal/notify"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
	"github.com/vitaminmoo/bw16-tool/internal/transport"
	"github.com/vitaminmoo/bw16-tool/internal/util"
)

var (
	// ErrNotConnected is returned by operations on a closed engine.
	ErrNotConnected = errors.New("not connected")
	// ErrNoSuchNetwork is returned for a network index outside the list.
	ErrNoSuchNetwork = errors.New("no such network")
	// ErrNoSuchClient is returned for a client slot outside a network's list.
	ErrNoSuchClient = errors.New("no such client")
)

// notifyQueue bounds events waiting for delivery.
const notifyQueue = 64

// Auditor records session activity. *store.Store implements it.
type Auditor interface {
	Audit(format string, args ...any) error
	AppendCredential(line string) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier adds a receiver for user-facing events.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifiers = append(e.notifiers, n) }
}

// WithAudit records transmitted commands, detection results and events,
// and persists captured credentials.
func WithAudit(a Auditor) Option {
	return func(e *Engine) { e.audit = a }
}

// Engine is a session with one peripheral.
type Engine struct {
	port transport.Port
	cfg  config.Config

	// mu guards everything the receive loop touches.
	mu        sync.Mutex
	framer    *protocol.Framer
	session   *decoder.Session
	inv       *inventory.Store
	detection firmware.Result
	detected  bool
	pinned    bool // profile chosen by the user, never re-probed
	enc       *encoder.Encoder

	// opMu serialises operations so command sequences never interleave.
	opMu sync.Mutex

	forced  *firmware.Profile
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[int]

	notifiers []notify.Notifier
	audit     Auditor
	events    *notify.Async

	bytesRX atomic.Uint64
	bytesTX atomic.Uint64

	startOnce sync.Once
	closeOnce sync.Once
	closed    atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

// New wraps an open port. Call Start to begin receiving.
func New(port transport.Port, cfg config.Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		port:   port,
		cfg:    cfg,
		framer: protocol.NewFramer(),
		inv:    inventory.New(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	if name := cfg.Detect.ForceProfile; name != "" {
		p, err := firmware.ParseProfile(name)
		if err != nil {
			return nil, fmt.Errorf("detect.force_profile: %w", err)
		}
		e.forced = &p
	}

	limit := rate.Inf
	if cfg.Write.Interval > 0 {
		limit = rate.Every(cfg.Write.Interval)
	}
	e.limiter = rate.NewLimiter(limit, 1)
	e.breaker = newBreaker(cfg)

	sinks := notify.Multi(e.notifiers)
	if e.audit != nil {
		sinks = append(sinks, auditNotifier{e.audit})
	}
	e.events = notify.NewAsync(sinks, notifyQueue)
	var decoded notify.Notifier = e.events
	if e.audit != nil {
		// Credentials are saved before the event is queued, so a full
		// queue never loses one.
		decoded = notify.Multi{credentialSaver{e.audit}, e.events}
	}
	e.session = decoder.NewSession(e.inv, decoded)
	return e, nil
}

func newBreaker(cfg config.Config) *gobreaker.CircuitBreaker[int] {
	maxFailures := cfg.Write.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	return gobreaker.NewCircuitBreaker[int](gobreaker.Settings{
		Name:        "link:" + cfg.Transport,
		MaxRequests: 1,
		Timeout:     cfg.Write.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			config.Log.Warnf("%s: circuit %s -> %s", name, from, to)
		},
	})
}

// Start spawns the receive loop.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		go e.receive()
	})
}

// Close stops the receive loop, closes the port and flushes pending
// notifications.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.stop)
		err = e.port.Close()
		started := true
		e.startOnce.Do(func() { started = false })
		if started {
			<-e.done
		}
		e.events.Close()
	})
	return err
}

func (e *Engine) receive() {
	defer close(e.done)
	buf := make([]byte, protocol.RxBufferSize)
	for {
		select {
		case <-e.stop:
			return
		default:
		}

		n, err := e.port.Read(buf)
		if n > 0 {
			e.feed(buf[:n])
		}
		if err == nil {
			continue
		}
		if errors.Is(err, transport.ErrClosed) || e.closed.Load() {
			return
		}
		config.Log.Warnf("read: %v", err)
		select {
		case <-e.stop:
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// feed runs received bytes through the framer and decoders.
func (e *Engine) feed(p []byte) {
	e.bytesRX.Add(uint64(len(p)))
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, b := range p {
		if m, ok := e.framer.Feed(b); ok {
			e.session.Handle(m)
		}
	}
}

// write sends one command, paced by the limiter and guarded by the
// breaker, then waits out its settle time.
func (e *Engine) write(ctx context.Context, c encoder.Command) error {
	if e.closed.Load() {
		return ErrNotConnected
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return err
	}

	data := c.Bytes()
	_, err := e.breaker.Execute(func() (int, error) {
		return e.port.Write(data)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("link circuit open: %w", err)
		}
		if errors.Is(err, transport.ErrClosed) {
			return ErrNotConnected
		}
		return fmt.Errorf("write %s: %w", c, err)
	}
	e.bytesTX.Add(uint64(len(data)))
	config.Debugf("TX %s", util.Printable(data))
	e.auditf("TX %s", c)

	return sleep(ctx, c.Settle)
}

func (e *Engine) send(ctx context.Context, cmds []encoder.Command) error {
	for _, c := range cmds {
		if err := e.write(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) auditf(format string, args ...any) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Audit(format, args...); err != nil {
		config.Log.Warnf("audit: %v", err)
	}
}

func (e *Engine) notify(k notify.Kind, format string, args ...any) {
	e.events.Notify(notify.New(k, format, args...))
}

// withState runs fn under the state lock.
func (e *Engine) withState(fn func(s *decoder.Session)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.session)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Counters are the link byte counts, frame overhead included.
type Counters struct {
	BytesRX uint64 `json:"bytes_rx"`
	BytesTX uint64 `json:"bytes_tx"`
	Dropped int    `json:"dropped"` // framer overflow
}

// Snapshot is a consistent copy of the session state for display.
type Snapshot struct {
	Inventory inventory.Snapshot `json:"inventory"`
	Status    decoder.Status     `json:"status"`
	Detection firmware.Result    `json:"detection"`
	Detected  bool               `json:"detected"`
	Counters  Counters           `json:"counters"`
	Console   string             `json:"console"`
	Link      string             `json:"link"` // circuit breaker state
}

// Snapshot copies the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := e.detection
	d.Phases = append([]firmware.Phase(nil), d.Phases...)
	return Snapshot{
		Inventory: e.inv.Snapshot(),
		Status:    e.session.Status,
		Detection: d,
		Detected:  e.detected,
		Counters: Counters{
			BytesRX: e.bytesRX.Load(),
			BytesTX: e.bytesTX.Load(),
			Dropped: e.framer.Dropped(),
		},
		Console: e.session.Console.String(),
		Link:    e.breaker.State().String(),
	}
}

// ClearConsole empties the console transcript.
func (e *Engine) ClearConsole() {
	e.withState(func(s *decoder.Session) { s.Console.Clear() })
}

// TakeConsole returns the console transcript and empties it.
func (e *Engine) TakeConsole() string {
	var out string
	e.withState(func(s *decoder.Session) {
		out = s.Console.String()
		s.Console.Clear()
	})
	return out
}
