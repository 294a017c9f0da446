package engine

import (
	"context"

	"github.com/vitaminmoo/bw16-tool/internal/config"
	"github.com/vitaminmoo/bw16-tool/internal/encoder"
	"github.com/vitaminmoo/bw16-tool/internal/firmware"
)

// SendProbe writes a detection probe. It implements firmware.Prober.
func (e *Engine) SendProbe(ctx context.Context, p firmware.Probe) error {
	return e.write(ctx, encoder.Command{Text: p.Text, Framed: p.Framed})
}

// Observe returns what the decoders have learnt about the firmware. It
// implements firmware.Prober.
func (e *Engine) Observe() firmware.Observation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Observed
}

// Detect identifies the firmware, replacing any earlier result. A forced
// profile from the config skips probing.
func (e *Engine) Detect(ctx context.Context) (firmware.Result, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	return e.detect(ctx)
}

func (e *Engine) detect(ctx context.Context) (firmware.Result, error) {
	if e.forced != nil {
		res := firmware.Forced(*e.forced)
		e.setDetection(res, true)
		return res, nil
	}

	e.mu.Lock()
	if e.detected {
		// A boot banner seen before the first run still counts; a re-run
		// starts from nothing.
		e.session.Observed.Reset()
	}
	e.mu.Unlock()

	res, err := firmware.Identify(ctx, e, firmware.TimingFromConfig(e.cfg.Detect))
	e.setDetection(res, false)
	if err != nil {
		config.Log.Warnf("detection incomplete: %v", err)
	}
	return res, err
}

func (e *Engine) setDetection(res firmware.Result, pinned bool) {
	e.mu.Lock()
	e.detection = res
	e.detected = true
	e.pinned = pinned
	e.enc = encoder.New(res)
	e.mu.Unlock()

	config.Log.Infof("firmware: %s %s", res.Profile, res.Version)
	e.auditf("DETECT %s version=%q caps=[%s]", res.Profile, res.Version, res.Capabilities)
}

// ForceProfile sets the profile without probing.
func (e *Engine) ForceProfile(p firmware.Profile) firmware.Result {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	res := firmware.Forced(p)
	e.setDetection(res, true)
	return res
}

// Detection returns the current result and whether detection has run.
func (e *Engine) Detection() (firmware.Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detection, e.detected
}

// ready runs detection if it has not happened yet, or if an earlier run
// could not identify the firmware. Callers hold opMu.
func (e *Engine) ready(ctx context.Context) (*encoder.Encoder, error) {
	e.mu.Lock()
	enc := e.enc
	settled := e.pinned || e.detection.Profile != firmware.Unknown
	e.mu.Unlock()
	if enc != nil && settled {
		return enc, nil
	}
	if _, err := e.detect(ctx); err != nil && ctx.Err() != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc, nil
}

// EnsureDetected runs detection unless it already identified the firmware.
func (e *Engine) EnsureDetected(ctx context.Context) (firmware.Result, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	if _, err := e.ready(ctx); err != nil {
		return firmware.Result{}, err
	}
	res, _ := e.Detection()
	return res, nil
}
