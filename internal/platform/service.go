// Package platform models the alarm subsystem the reconciler talks to: an
// asynchronous, authorization-gated service that schedules, pauses, resumes,
// deletes and enumerates alarms, and may ring or drop them on its own. The
// reconciler treats it as an eventually-consistent source of truth.
package platform

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAlarmNotFound   = errors.New("platform: alarm not found")
	ErrDuplicateID     = errors.New("platform: alarm id already scheduled")
	ErrNotAuthorized   = errors.New("platform: alarm authorization not granted")
	ErrInvalidFireTime = errors.New("platform: invalid fire time")
)

type AlarmState string

const (
	AlarmStateScheduled AlarmState = "scheduled"
	AlarmStatePaused    AlarmState = "paused"
)

// AlarmView is a read-only projection of one alarm the service currently
// knows about. The service owns it; callers only compare against it.
type AlarmView struct {
	ID     string
	FireAt time.Time
	State  AlarmState
}

// MatchesClock reports whether the alarm rings at the same wall-clock hour
// and minute as t. Identity by clock time is the fallback when the original
// identifier is gone.
func (v AlarmView) MatchesClock(t time.Time) bool {
	return v.FireAt.Hour() == t.Hour() && v.FireAt.Minute() == t.Minute()
}

type ScheduleRequest struct {
	ID     string
	FireAt time.Time
	Label  string
}

// Service is the collaborator surface the reconciler consumes. Schedule may
// return an empty id for a valid schedule; callers must treat that as
// success without an identifier, not as failure.
type Service interface {
	AuthorizationCached() (granted bool, known bool)
	RequestAuthorization(ctx context.Context) (bool, error)
	Schedule(ctx context.Context, req ScheduleRequest) (string, error)
	Delete(ctx context.Context, id string) error
	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]AlarmView, error)
}

// Authorizer resolves the blocking authorization prompt. The prompt cannot
// be cancelled once shown; it suspends until the user answers.
type Authorizer interface {
	RequestAuthorization(ctx context.Context) (bool, error)
}

type AuthorizerFunc func(ctx context.Context) (bool, error)

func (f AuthorizerFunc) RequestAuthorization(ctx context.Context) (bool, error) {
	return f(ctx)
}
