package encoder

import (
	"fmt"

	"github.com/vitaminmoo/bw16-tool/internal/firmware"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

type advancedCmd struct {
	on, off string
	fetch   string // read captures out before stopping
	cue     bool   // attack LED while running
	needs   firmware.Capability
}

var advanced = [protocol.NumAttacks]advancedCmd{
	protocol.AttackJammer:       {on: "J1", off: "J0", cue: true, needs: firmware.CapBroadcastDeauth},
	protocol.AttackProbeLog:     {on: "P1", off: "P0", needs: firmware.CapMonitorMode},
	protocol.AttackKarma:        {on: "K1", off: "K0", cue: true, needs: firmware.CapEvilTwin},
	protocol.AttackPMKID:        {on: "h1", off: "h0", fetch: "hg", needs: firmware.CapEAPOLCapture},
	protocol.AttackHandshake:    {on: "H1", off: "H0", fetch: "Hg", needs: firmware.CapEAPOLCapture},
	protocol.AttackRogueMonitor: {on: "R2", off: "R0", needs: firmware.CapMonitorMode},
}

// Advanced starts or stops one of the advanced attacks. They exist only in
// the modern dialect.
func (e *Encoder) Advanced(a protocol.Attack, on bool) ([]Command, error) {
	if a < 0 || a >= protocol.NumAttacks {
		return nil, fmt.Errorf("attack %d: %w", a, ErrInvalidArgument)
	}
	def := advanced[a]
	op := a.String()
	if err := e.require(op, def.needs); err != nil {
		return nil, err
	}
	if err := e.modernOnly(op, def.needs); err != nil {
		return nil, err
	}

	if on {
		out := []Command{framed(def.on, 0)}
		if def.cue {
			out = append(out, framed(fmt.Sprintf("r%d", protocol.LEDAttack), 0))
		}
		return out, nil
	}
	var out []Command
	if def.fetch != "" {
		out = append(out, framed(def.fetch, fetchSettle))
	}
	out = append(out, framed(def.off, 0))
	if def.cue {
		out = append(out, ledReady())
	}
	return out, nil
}

// RogueBaseline records the current AP list as the rogue-AP baseline.
func (e *Encoder) RogueBaseline() ([]Command, error) {
	if err := e.require("rogue baseline", firmware.CapMonitorMode); err != nil {
		return nil, err
	}
	if err := e.modernOnly("rogue baseline", firmware.CapMonitorMode); err != nil {
		return nil, err
	}
	return []Command{framed("R1", 0)}, nil
}
