package engine

import (
	"context"
	"fmt"

	"github.com/vitaminmoo/bw16-tool/internal/decoder"
	"github.com/vitaminmoo/bw16-tool/internal/notify"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

// ToggleAdvanced starts or stops an advanced attack and returns whether it
// is now running. The firmware does not acknowledge these, so state is
// tracked locally.
func (e *Engine) ToggleAdvanced(ctx context.Context, a protocol.Attack) (bool, error) {
	if a < 0 || a >= protocol.NumAttacks {
		return false, fmt.Errorf("attack %d out of range", a)
	}
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return false, err
	}

	var on bool
	e.withState(func(s *decoder.Session) { on = !s.Status.Advanced[a] })
	cmds, err := enc.Advanced(a, on)
	if err != nil {
		return !on, err
	}
	if err := e.send(ctx, cmds); err != nil {
		return !on, err
	}

	e.withState(func(s *decoder.Session) { s.Status.Advanced[a] = on })
	if on {
		e.notify(notify.AttackStarted, "%s", a)
	} else {
		e.notify(notify.AttackStopped, "%s", a)
	}
	return on, nil
}

// RogueBaseline records the current AP list as the rogue-AP baseline.
func (e *Engine) RogueBaseline(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return err
	}
	cmds, err := enc.RogueBaseline()
	if err != nil {
		return err
	}
	return e.send(ctx, cmds)
}

// Info asks the device for its status and returns the last report after
// the info wait.
func (e *Engine) Info(ctx context.Context) (decoder.DeviceInfo, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return decoder.DeviceInfo{}, err
	}
	if err := e.send(ctx, enc.Info()); err != nil {
		return decoder.DeviceInfo{}, err
	}
	if err := sleep(ctx, e.cfg.Detect.InfoWait); err != nil {
		return decoder.DeviceInfo{}, err
	}
	var info decoder.DeviceInfo
	e.withState(func(s *decoder.Session) { info = s.Status.Device })
	return info, nil
}

// SendRaw sends console text unchanged in the firmware's dialect.
func (e *Engine) SendRaw(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	e.opMu.Lock()
	defer e.opMu.Unlock()
	enc, err := e.ready(ctx)
	if err != nil {
		return err
	}
	return e.send(ctx, enc.Raw(text))
}
