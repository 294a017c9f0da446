// Package encoder builds the outgoing command sequences for each operation,
// in the dialect of the detected firmware. Operations the firmware cannot
// perform are refused with an error wrapping ErrUnsupported, and nothing is
// sent.
package encoder

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/vitaminmoo/bw16-tool/internal/firmware"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

// ErrUnsupported is wrapped by every capability or dialect refusal.
var ErrUnsupported = errors.New("operation not supported by firmware")

// ErrInvalidArgument is wrapped when an operation's parameters are unusable.
var ErrInvalidArgument = errors.New("invalid argument")

// UnsupportedError says which operation was refused and why.
type UnsupportedError struct {
	Op         string
	Profile    firmware.Profile
	Capability firmware.Capability
	// Dialect is set when the capability exists but the profile's command
	// set has no way to express the operation.
	Dialect bool
}

func (e *UnsupportedError) Error() string {
	if e.Dialect {
		return fmt.Sprintf("%s: no %s command in the %s dialect", e.Op, e.Op, e.Profile)
	}
	return fmt.Sprintf("%s: %s firmware has no %s support", e.Op, e.Profile, e.Capability)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// Command is one line or frame to write, and how long to let the device
// settle before the next one.
type Command struct {
	Text   string
	Framed bool
	Settle time.Duration
}

// Bytes returns the wire encoding.
func (c Command) Bytes() []byte {
	if c.Framed {
		return protocol.EncodeFramed(c.Text)
	}
	return protocol.EncodeLine(c.Text)
}

func (c Command) String() string {
	if c.Framed {
		return "[" + c.Text + "]"
	}
	return c.Text
}

// Settle times between steps of a sequence.
const (
	cueSettle    = 50 * time.Millisecond
	configSettle = 100 * time.Millisecond
	apSettle     = 200 * time.Millisecond
	fetchSettle  = 500 * time.Millisecond
	kickSettle   = time.Second
)

// Encoder encodes for one firmware profile and capability set.
type Encoder struct {
	profile firmware.Profile
	caps    firmware.Capabilities
}

// New returns an encoder for a detection result.
func New(r firmware.Result) *Encoder {
	return &Encoder{profile: r.Profile, caps: r.Capabilities}
}

// Profile returns the profile being encoded for.
func (e *Encoder) Profile() firmware.Profile { return e.profile }

// Modern reports whether commands are framed single-letter tokens.
func (e *Encoder) Modern() bool { return e.profile.Modern() }

// Capabilities returns the capability set used for gating.
func (e *Encoder) Capabilities() firmware.Capabilities { return e.caps }

func (e *Encoder) require(op string, c firmware.Capability) error {
	if e.caps.Has(c) {
		return nil
	}
	return &UnsupportedError{Op: op, Profile: e.profile, Capability: c}
}

func (e *Encoder) modernOnly(op string, c firmware.Capability) error {
	if e.Modern() {
		return nil
	}
	return &UnsupportedError{Op: op, Profile: e.profile, Capability: c, Dialect: true}
}

// cmd builds a command in the active dialect.
func (e *Encoder) cmd(text string, settle time.Duration) Command {
	return Command{Text: text, Framed: e.Modern(), Settle: settle}
}

func framed(text string, settle time.Duration) Command {
	return Command{Text: text, Framed: true, Settle: settle}
}

func line(text string, settle time.Duration) Command {
	return Command{Text: text, Settle: settle}
}

// ledEffect and ledReady are the status LED cues around modern operations.
func ledEffect(fx protocol.LEDEffect) Command {
	return framed("r"+strconv.Itoa(int(fx)), cueSettle)
}

func ledReady() Command {
	c := protocol.ColorReady
	return framed(fmt.Sprintf("r%d,%d,%d", c[0], c[1], c[2]), 0)
}

// Info asks for device information.
func (e *Encoder) Info() []Command {
	if e.Modern() {
		return []Command{framed("i", 0)}
	}
	return []Command{line("INFO", 0)}
}

// Raw sends text unchanged in the active dialect.
func (e *Encoder) Raw(text string) []Command {
	return []Command{e.cmd(text, 0)}
}

// StopAll stops every running operation. It is never refused.
func (e *Encoder) StopAll() []Command {
	if e.Modern() {
		return []Command{framed("x", 0)}
	}
	return []Command{line("STOP", 0)}
}

// Ready sets the status LED to the idle colour. Legacy firmware has no LED
// command and gets nothing.
func (e *Encoder) Ready() []Command {
	if e.Modern() {
		return []Command{ledReady()}
	}
	return nil
}
