package game

import (
	"time"

	"sifir-drill-service/internal/domain"
)

const (
	BasePoints = 10
	SpeedBonus = 5
	ComboBonus = 20
	ComboEvery = 3

	DefaultSpeedBonusWithin = 5 * time.Second
)

// Delta is the change a single round applies to the session state.
type Delta struct {
	Score int
	Combo int // new combo value, not an increment
	Lives int
}

// Rules holds the tunable part of scoring.
type Rules struct {
	// SpeedBonusWithin is exclusive: a latency equal to it earns no bonus.
	SpeedBonusWithin time.Duration
}

// DefaultRules returns the standard scoring rules.
func DefaultRules() Rules {
	return Rules{SpeedBonusWithin: DefaultSpeedBonusWithin}
}

// Evaluate scores one round outcome given the combo before it.
func (r Rules) Evaluate(outcome domain.Outcome, latency time.Duration, priorCombo int) Delta {
	if outcome != domain.OutcomeCorrect {
		return Delta{Score: 0, Combo: 0, Lives: -1}
	}

	points := BasePoints
	if latency < r.SpeedBonusWithin {
		points += SpeedBonus
	}
	combo := priorCombo + 1
	if combo > 0 && combo%ComboEvery == 0 {
		points += ComboBonus
	}
	return Delta{Score: points, Combo: combo, Lives: 0}
}

// Evaluate applies DefaultRules.
func Evaluate(outcome domain.Outcome, latency time.Duration, priorCombo int) Delta {
	return DefaultRules().Evaluate(outcome, latency, priorCombo)
}
