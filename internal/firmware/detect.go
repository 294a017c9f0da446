package firmware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vitaminmoo/bw16-tool/internal/config"
)

// Phase is a state of the identification state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingBoot
	PhaseProbingModern
	PhaseProbingLegacyInfo
	PhaseProbingLegacyPing
	PhaseProbingLegacyHelp
	PhaseProbingGenericAT
	PhaseResolved
)

var phaseNames = [...]string{
	PhaseIdle:              "idle",
	PhaseAwaitingBoot:      "awaiting boot banner",
	PhaseProbingModern:     "probing modern info",
	PhaseProbingLegacyInfo: "probing legacy INFO",
	PhaseProbingLegacyPing: "probing legacy PING",
	PhaseProbingLegacyHelp: "probing legacy HELP",
	PhaseProbingGenericAT:  "probing AT",
	PhaseResolved:          "resolved",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Observation is what the receive path has learnt about the firmware. The
// decoders fill it in; the identifier only reads snapshots of it.
type Observation struct {
	Profile Profile
	Version string
	Banner  string // last identifying response, verbatim
	Done    bool   // an unambiguous signature (boot banner, vendor line) was seen
	GotInfo bool
	GotPong bool
	GotHelp bool
}

// Reset clears everything before a new detection run.
func (o *Observation) Reset() {
	*o = Observation{}
}

// Probe is one discovery command.
type Probe struct {
	Text   string
	Framed bool
}

// Prober is the I/O side of detection: it sends probes and exposes the
// current observation. Observe must be safe to call while the receive path
// is running.
type Prober interface {
	SendProbe(ctx context.Context, p Probe) error
	Observe() Observation
}

// Timing holds the wait window after each phase.
type Timing struct {
	Boot       time.Duration
	Info       time.Duration
	LegacyInfo time.Duration
	Ping       time.Duration
	Help       time.Duration
	AT         time.Duration
}

// TimingFromConfig copies the probe windows out of the config file.
func TimingFromConfig(c config.DetectConfig) Timing {
	return Timing{
		Boot:       c.BootWait,
		Info:       c.InfoWait,
		LegacyInfo: c.LegacyInfoWait,
		Ping:       c.PingWait,
		Help:       c.HelpWait,
		AT:         c.ATWait,
	}
}

// Result is the outcome of a detection run.
type Result struct {
	Profile      Profile
	Capabilities Capabilities
	Version      string
	Banner       string
	Phases       []Phase // phases visited, ending in PhaseResolved
}

type step struct {
	phase   Phase
	probe   *Probe
	wait    time.Duration
	resolve func(Observation) (Profile, bool)
}

// observed resolves as soon as any decoder has classified the firmware.
func observed(o Observation) (Profile, bool) {
	return o.Profile, o.Profile != Unknown
}

// Identify runs the probe sequence and returns the resolved profile. It
// always returns a usable Result; the error collects probe write failures
// and context cancellation, which end the run early with whatever was
// observed so far.
func Identify(ctx context.Context, p Prober, t Timing) (Result, error) {
	steps := []step{
		{PhaseAwaitingBoot, nil, t.Boot, func(o Observation) (Profile, bool) {
			return o.Profile, o.Done && o.Profile != Unknown
		}},
		{PhaseProbingModern, &Probe{Text: "i", Framed: true}, t.Info, func(o Observation) (Profile, bool) {
			if o.Profile != Unknown {
				return o.Profile, true
			}
			return Native, o.GotInfo
		}},
		{PhaseProbingLegacyInfo, &Probe{Text: "INFO"}, t.LegacyInfo, observed},
		{PhaseProbingLegacyPing, &Probe{Text: "PING"}, t.Ping, func(o Observation) (Profile, bool) {
			if o.Profile != Unknown {
				return o.Profile, true
			}
			return LegacyVariantA, o.GotPong
		}},
		{PhaseProbingLegacyHelp, &Probe{Text: "HELP"}, t.Help, observed},
		{PhaseProbingGenericAT, &Probe{Text: "AT"}, t.AT, observed},
	}

	var (
		res  Result
		errs []error
	)
	resolved := Unknown

run:
	for _, s := range steps {
		res.Phases = append(res.Phases, s.phase)
		config.Debugf("detect: %s", s.phase)

		if s.probe != nil {
			if err := p.SendProbe(ctx, *s.probe); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.phase, err))
			}
		}
		if err := sleep(ctx, s.wait); err != nil {
			errs = append(errs, err)
			if prof, ok := observed(p.Observe()); ok {
				resolved = prof
			}
			break run
		}
		if prof, ok := s.resolve(p.Observe()); ok {
			resolved = prof
			break run
		}
	}

	o := p.Observe()
	res.Phases = append(res.Phases, PhaseResolved)
	res.Profile = resolved
	res.Capabilities = CapabilitiesFor(resolved)
	res.Version = o.Version
	res.Banner = o.Banner

	config.Debugf("detect: %s (caps: %s)", res.Profile, res.Capabilities)
	return res, errors.Join(errs...)
}

// Forced builds a Result for a profile chosen by the user.
func Forced(p Profile) Result {
	return Result{
		Profile:      p,
		Capabilities: CapabilitiesFor(p),
		Phases:       []Phase{PhaseResolved},
	}
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
