package game

import "time"

// Config holds the timing and life budget of a drill session.
type Config struct {
	SessionSeconds   int
	QuestionTimeout  time.Duration
	TickInterval     time.Duration
	Lives            int
	SpeedBonusWithin time.Duration
}

// DefaultConfig is a sixty second session, ten seconds per question and two lives.
func DefaultConfig() Config {
	return Config{
		SessionSeconds:   60,
		QuestionTimeout:  10 * time.Second,
		TickInterval:     time.Second,
		Lives:            2,
		SpeedBonusWithin: DefaultSpeedBonusWithin,
	}
}

// withDefaults replaces non-positive fields with DefaultConfig values.
// A zero tick interval would stop the session clock for good.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SessionSeconds <= 0 {
		c.SessionSeconds = def.SessionSeconds
	}
	if c.QuestionTimeout <= 0 {
		c.QuestionTimeout = def.QuestionTimeout
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.Lives < 0 {
		c.Lives = def.Lives
	}
	return c
}

func (c Config) rules() Rules {
	if c.SpeedBonusWithin <= 0 {
		return DefaultRules()
	}
	return Rules{SpeedBonusWithin: c.SpeedBonusWithin}
}
