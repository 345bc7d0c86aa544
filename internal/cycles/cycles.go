// Package cycles implements the 90-minute sleep-cycle arithmetic behind the
// wake-option list. All offsets are whole multiples of the cycle length plus
// a fixed fall-asleep buffer; no state is kept here.
package cycles

import (
	"time"

	"github.com/sandeepkv93/mrsleep/internal/model"
)

const (
	CycleLength      = 90 * time.Minute
	FallAsleepBuffer = 15 * time.Minute

	// MaxCycles caps the option list at a full night of sleep.
	MaxCycles = 6
)

// WakeTime returns the wake-up time for sleeping a given number of cycles
// starting at base, truncated to the minute.
func WakeTime(base time.Time, cycleCount int) time.Time {
	return base.Add(FallAsleepBuffer + time.Duration(cycleCount)*CycleLength).Truncate(time.Minute)
}

// WakeOptions lists one wake option per cycle count from 1 up to maxCycles,
// soonest first. A maxCycles outside [1, MaxCycles] falls back to MaxCycles.
func WakeOptions(now time.Time, maxCycles int) []model.WakeOption {
	if maxCycles <= 0 || maxCycles > MaxCycles {
		maxCycles = MaxCycles
	}
	out := make([]model.WakeOption, 0, maxCycles)
	for n := 1; n <= maxCycles; n++ {
		out = append(out, model.WakeOption{
			FireAt:   WakeTime(now, n),
			Cycles:   n,
			Sleep:    time.Duration(n) * CycleLength,
			Category: Categorize(n),
		})
	}
	return out
}

// Categorize maps a cycle count onto the three user-facing buckets.
func Categorize(cycleCount int) model.WakeCategory {
	switch {
	case cycleCount <= 2:
		return model.CategoryQuickBoost
	case cycleCount <= 4:
		return model.CategoryRecovery
	default:
		return model.CategoryFullRecharge
	}
}
