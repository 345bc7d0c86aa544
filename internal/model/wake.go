package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidCategory = errors.New("model: invalid wake category")

type WakeCategory string

const (
	CategoryQuickBoost   WakeCategory = "Quick Boost"
	CategoryRecovery     WakeCategory = "Recovery"
	CategoryFullRecharge WakeCategory = "Full Recharge"
)

func (c WakeCategory) IsValid() bool {
	switch c {
	case CategoryQuickBoost, CategoryRecovery, CategoryFullRecharge:
		return true
	default:
		return false
	}
}

// WakeOption is one candidate wake-up time derived from the sleep-cycle
// formula: a whole number of cycles plus the fall-asleep buffer.
type WakeOption struct {
	FireAt   time.Time
	Cycles   int
	Sleep    time.Duration
	Category WakeCategory
}

func (o WakeOption) Validate() error {
	if o.FireAt.IsZero() {
		return ErrMissingFireTime
	}
	if o.Cycles <= 0 {
		return ErrInvalidCycles
	}
	if !o.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, o.Category)
	}
	return nil
}
