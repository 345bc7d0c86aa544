// Package storage persists the single armed-alarm slot. The model is one
// record at a time: saving writes the whole record, a new save replaces the
// previous record entirely, and the only field-level mutation is the
// completion stamp.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/mrsleep/internal/model"
)

var (
	// ErrNoIntent means the slot is empty.
	ErrNoIntent = errors.New("storage: no persisted intent")
	// ErrCorruptIntent means the slot holds a record that does not decode.
	// Callers treat it the same as an empty slot rather than guessing at
	// placeholder values.
	ErrCorruptIntent = errors.New("storage: persisted intent does not decode")
)

type Store interface {
	Load(ctx context.Context) (model.AlarmIntent, error)
	Save(ctx context.Context, intent model.AlarmIntent) error
	MarkCompleted(ctx context.Context, at time.Time) error
	Clear(ctx context.Context) error
}
