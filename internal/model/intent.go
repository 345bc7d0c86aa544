package model

import (
	"errors"
	"time"
)

var (
	ErrMissingFireTime = errors.New("model: intent fire time is required")
	ErrMissingArmTime  = errors.New("model: intent armed time is required")
	ErrInvalidCycles   = errors.New("model: intent cycle count must be positive")
)

// AlarmIntent is the durable record of the one armed alarm. At most one
// intent exists in storage at a time; a new selection replaces the record
// wholesale rather than mutating it.
type AlarmIntent struct {
	FireAt      time.Time
	ArmedAt     time.Time
	Cycles      int
	PlatformID  string
	CompletedAt *time.Time
}

// Normalize truncates the fire time to the minute. Seconds carry no meaning
// in the user-facing model and must stay zeroed so clock comparisons and
// duplicate detection remain stable.
func (i AlarmIntent) Normalize() AlarmIntent {
	i.FireAt = i.FireAt.Truncate(time.Minute)
	return i
}

func (i AlarmIntent) Validate() error {
	if i.FireAt.IsZero() {
		return ErrMissingFireTime
	}
	if i.ArmedAt.IsZero() {
		return ErrMissingArmTime
	}
	if i.Cycles <= 0 {
		return ErrInvalidCycles
	}
	return nil
}

// Completed reports whether the intent has been consumed by an observed
// firing. A completed intent is logically dead and must never arm again.
func (i AlarmIntent) Completed() bool {
	return i.CompletedAt != nil
}

// MatchesClock reports whether t shares the intent's wall-clock hour and
// minute. Used for time-based fallback matching when the platform no longer
// knows the original identifier.
func (i AlarmIntent) MatchesClock(t time.Time) bool {
	return i.FireAt.Hour() == t.Hour() && i.FireAt.Minute() == t.Minute()
}
