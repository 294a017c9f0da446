// Package notify delivers user-facing events raised by the protocol engine:
// captured credentials, scans starting and stopping, attacks starting and
// stopping. Delivery is fire-and-forget.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Kind classifies an event.
type Kind int

const (
	CredentialCaptured Kind = iota
	ScanStarted
	ScanFinished
	AttackStarted
	AttackStopped
)

var kindNames = [...]string{
	CredentialCaptured: "credential",
	ScanStarted:        "scan-start",
	ScanFinished:       "scan-done",
	AttackStarted:      "attack-start",
	AttackStopped:      "attack-stop",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Event is one notification.
type Event struct {
	Kind   Kind
	Detail string
	Time   time.Time
}

// New stamps an event with the current time.
func New(k Kind, format string, args ...any) Event {
	return Event{Kind: k, Detail: fmt.Sprintf(format, args...), Time: time.Now()}
}

// Notifier receives events. Implementations must not block for long; the
// engine calls them with its state lock held unless wrapped in Async.
type Notifier interface {
	Notify(Event)
}

// Func adapts a function to Notifier.
type Func func(Event)

func (f Func) Notify(e Event) { f(e) }

// Discard drops everything.
var Discard Notifier = Func(func(Event) {})

// Multi fans an event out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(e Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(e)
		}
	}
}

// Log writes events to a logrus logger at Info level.
type Log struct {
	Logger *logrus.Logger
}

func (l Log) Notify(e Event) {
	l.Logger.WithField("event", e.Kind.String()).Info(e.Detail)
}

// Bell rings the terminal bell on credential capture.
type Bell struct {
	W io.Writer
}

func (b Bell) Notify(e Event) {
	if e.Kind == CredentialCaptured {
		fmt.Fprint(b.W, "\a")
	}
}

// Async delivers events on its own goroutine through a bounded queue. When
// the queue is full the event is dropped.
type Async struct {
	next Notifier
	ch   chan Event
	done chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsync starts the delivery goroutine. Close stops it.
func NewAsync(next Notifier, queue int) *Async {
	a := &Async{
		next: next,
		ch:   make(chan Event, queue),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for e := range a.ch {
		a.next.Notify(e)
	}
}

func (a *Async) Notify(e Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.ch <- e:
	default:
	}
}

// Close drains the queue and waits for delivery to finish.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.ch)
	}
	a.mu.Unlock()
	<-a.done
}
