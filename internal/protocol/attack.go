package protocol

import (
	"fmt"
	"strings"
)

// Attack is one of the toggleable advanced attacks of the framed dialect.
type Attack int

const (
	AttackJammer Attack = iota
	AttackProbeLog
	AttackKarma
	AttackPMKID
	AttackHandshake
	AttackRogueMonitor
	NumAttacks
)

var attackNames = [...]string{
	AttackJammer:       "jammer",
	AttackProbeLog:     "probe",
	AttackKarma:        "karma",
	AttackPMKID:        "pmkid",
	AttackHandshake:    "handshake",
	AttackRogueMonitor: "rogue-monitor",
}

func (a Attack) String() string {
	if a < 0 || a >= NumAttacks {
		return fmt.Sprintf("attack(%d)", int(a))
	}
	return attackNames[a]
}

// ParseAttack accepts the names printed by String.
func ParseAttack(s string) (Attack, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range attackNames {
		if s == n {
			return Attack(i), nil
		}
	}
	return 0, fmt.Errorf("unknown attack %q (want one of %s)", s, strings.Join(attackNames[:], ", "))
}
