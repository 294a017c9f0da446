package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/vitaminmoo/bw16-tool/internal/engine"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

// RogueBaselineName is the pseudo-attack that records the rogue-AP baseline.
const RogueBaselineName = "rogue-baseline"

// Attack toggles one of the advanced attacks by name.
func Attack(ctx context.Context, e *engine.Engine, w io.Writer, name string) error {
	if name == RogueBaselineName {
		if err := e.RogueBaseline(ctx); err != nil {
			return err
		}
		fmt.Fprintln(w, "Rogue AP baseline recorded")
		return nil
	}

	a, err := protocol.ParseAttack(name)
	if err != nil {
		return err
	}
	on, err := e.ToggleAdvanced(ctx, a)
	if err != nil {
		return err
	}
	if on {
		bad.Fprintf(w, "%s running\n", a)
	} else {
		good.Fprintf(w, "%s stopped\n", a)
	}
	return nil
}

// AttackNames lists what Attack accepts.
func AttackNames() []string {
	names := make([]string, 0, protocol.NumAttacks+1)
	for a := protocol.Attack(0); a < protocol.NumAttacks; a++ {
		names = append(names, a.String())
	}
	return append(names, RogueBaselineName)
}

// Reasons prints the deauth reason code table.
func Reasons(w io.Writer, current int) {
	heading.Fprintln(w, "Deauth reason codes")
	for i, r := range protocol.DeauthReasons {
		line := fmt.Sprintf("  %2d  %s", i, r)
		if i == current {
			good.Fprintln(w, line+"  (configured)")
			continue
		}
		fmt.Fprintln(w, line)
	}
}

// Portals prints the captive portal templates.
func Portals(w io.Writer, current int) {
	heading.Fprintln(w, "Captive portals")
	for i, p := range protocol.Portals {
		line := fmt.Sprintf("  %d  %s", i, p)
		if i == current {
			good.Fprintln(w, line+"  (configured)")
			continue
		}
		fmt.Fprintln(w, line)
	}
}
