// Package reconciler owns the one user-facing armed alarm. It bridges the
// persisted alarm intent with the platform service's live view of scheduled
// alarms, tolerating either side being missing, stale or wrong: the platform
// may ring, drop or forget alarms without telling us, so every foreground
// transition re-derives local truth from both sources.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sandeepkv93/mrsleep/internal/model"
	"github.com/sandeepkv93/mrsleep/internal/platform"
	"github.com/sandeepkv93/mrsleep/internal/storage"
)

const (
	// ReconcileGrace bounds two judgments made on foreground: how long past
	// its fire time an intent may live before it is declared stale, and how
	// long after arming a missing platform entry is blamed on reporting lag
	// instead of a real deletion.
	ReconcileGrace = 120 * time.Second

	// CountdownGrace is the shorter post-fire window used while the alarm is
	// under live countdown observation. The platform needs time to ring and
	// be dismissed before we tear the alarm down.
	CountdownGrace = 60 * time.Second
)

var (
	ErrPermissionDenied = errors.New("reconciler: alarm authorization denied")
	ErrDuplicateAlarm   = errors.New("reconciler: platform already has an alarm at that time")
	ErrAlarmArmed       = errors.New("reconciler: an alarm is already armed")
	ErrArmingInProgress = errors.New("reconciler: a confirmation is already in flight")
)

type Phase string

const (
	PhaseIdle    Phase = "Idle"
	PhasePending Phase = "Pending"
	PhaseArming  Phase = "Arming"
	PhaseActive  Phase = "Active"
)

// State is the resident reconciliation state. Exactly one state exists at a
// time, mirroring the single persisted intent slot.
type State struct {
	Phase         Phase
	FireAt        time.Time
	ArmedAt       time.Time
	Cycles        int
	AdjustMinutes int
	PlatformID    string
}

// Countdown is the derived display state for an active alarm.
type Countdown struct {
	Remaining time.Duration
	Display   string
	Progress  float64
	Fired     bool
	Done      bool
}

type Reconciler struct {
	mu       sync.Mutex
	platform platform.Service
	store    storage.Store
	log      zerolog.Logger
	now      func() time.Time
	state    State
}

func New(svc platform.Service, store storage.Store, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		platform: svc,
		store:    store,
		log:      log,
		now:      time.Now,
		state:    State{Phase: PhaseIdle},
	}
}

// State returns a copy of the resident state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Select records a picked-but-unconfirmed wake time.
func (r *Reconciler) Select(fireAt time.Time, cycleCount, adjustMinutes int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state.Phase {
	case PhaseArming:
		return ErrArmingInProgress
	case PhaseActive:
		return ErrAlarmArmed
	}
	r.state = State{
		Phase:         PhasePending,
		FireAt:        fireAt.Truncate(time.Minute),
		Cycles:        cycleCount,
		AdjustMinutes: adjustMinutes,
	}
	return nil
}

// ClearSelection drops a pending selection. Any other phase is untouched.
func (r *Reconciler) ClearSelection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Phase == PhasePending {
		r.state = State{Phase: PhaseIdle}
	}
}

// Confirm arms the alarm: authorization, duplicate scan, platform schedule,
// durable intent, in that order. The authorization prompt may block
// indefinitely on the user. On any failure the selection survives as
// Pending so the user does not lose their pick.
func (r *Reconciler) Confirm(ctx context.Context, fireAt time.Time, cycleCount, adjustMinutes int) error {
	fireAt = fireAt.Truncate(time.Minute)

	r.mu.Lock()
	switch r.state.Phase {
	case PhaseArming:
		r.mu.Unlock()
		return ErrArmingInProgress
	case PhaseActive:
		r.mu.Unlock()
		return ErrAlarmArmed
	}
	r.state = State{Phase: PhaseArming, FireAt: fireAt, Cycles: cycleCount, AdjustMinutes: adjustMinutes}
	r.mu.Unlock()

	granted, known := r.platform.AuthorizationCached()
	if !known {
		var err error
		granted, err = r.platform.RequestAuthorization(ctx)
		if err != nil {
			r.revertToPending(fireAt, cycleCount, adjustMinutes)
			return fmt.Errorf("request alarm authorization: %w", err)
		}
	}
	if !granted {
		r.revertToPending(fireAt, cycleCount, adjustMinutes)
		return ErrPermissionDenied
	}

	if active, err := r.platform.ListActive(ctx); err != nil {
		// The live list is advisory here; arming must not fail on a flaky probe.
		r.log.Warn().Err(err).Msg("duplicate scan skipped: platform list unavailable")
	} else {
		for _, view := range active {
			if view.MatchesClock(fireAt) {
				r.revertToPending(fireAt, cycleCount, adjustMinutes)
				return ErrDuplicateAlarm
			}
		}
	}

	platformID, err := r.platform.Schedule(ctx, platform.ScheduleRequest{
		ID:     uuid.NewString(),
		FireAt: fireAt,
		Label:  fmt.Sprintf("Wake up (%d cycles)", cycleCount),
	})
	if err != nil {
		r.revertToPending(fireAt, cycleCount, adjustMinutes)
		return fmt.Errorf("schedule alarm: %w", err)
	}

	armedAt := r.now()
	intent := model.AlarmIntent{
		FireAt:     fireAt,
		ArmedAt:    armedAt,
		Cycles:     cycleCount,
		PlatformID: platformID,
	}
	if err := r.store.Save(ctx, intent); err != nil {
		r.deleteRemote(ctx, platformID, fireAt)
		r.revertToPending(fireAt, cycleCount, adjustMinutes)
		return fmt.Errorf("persist alarm intent: %w", err)
	}

	r.mu.Lock()
	r.state = State{
		Phase:         PhaseActive,
		FireAt:        fireAt,
		ArmedAt:       armedAt,
		Cycles:        cycleCount,
		AdjustMinutes: adjustMinutes,
		PlatformID:    platformID,
	}
	r.mu.Unlock()

	r.log.Info().Time("fire_at", fireAt).Str("alarm_id", platformID).
		Int("cycles", cycleCount).Msg("alarm armed")
	return nil
}

// Cancel tears down the armed alarm. Remote deletion is best effort: the
// user's intent to cancel must never get stuck behind a platform failure, so
// local state always ends Idle. Cancelling while Idle is a no-op.
func (r *Reconciler) Cancel(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state.Phase {
	case PhaseIdle:
		return nil
	case PhaseArming:
		return ErrArmingInProgress
	case PhasePending:
		r.state = State{Phase: PhaseIdle}
		return nil
	}

	r.deleteRemote(ctx, r.state.PlatformID, r.state.FireAt)
	err := r.store.Clear(ctx)
	r.state = State{Phase: PhaseIdle}
	if err != nil {
		return fmt.Errorf("clear persisted intent: %w", err)
	}
	r.log.Info().Msg("alarm cancelled")
	return nil
}

// ReconcileOnForeground re-derives the resident state from the persisted
// intent and the platform's live list. Divergence between the two is a
// normal operating condition, not an error: it is resolved here and never
// surfaced. The routine no-ops while a confirmation is in flight so it
// cannot clear a record that has not been written yet.
func (r *Reconciler) ReconcileOnForeground(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Phase == PhaseArming {
		return nil
	}

	intent, err := r.store.Load(ctx)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNoIntent):
			r.state = State{Phase: PhaseIdle}
			return nil
		case errors.Is(err, storage.ErrCorruptIntent):
			r.log.Warn().Err(err).Msg("dropping undecodable persisted intent")
			_ = r.store.Clear(ctx)
			r.state = State{Phase: PhaseIdle}
			return nil
		default:
			return fmt.Errorf("load persisted intent: %w", err)
		}
	}

	now := r.now()

	if intent.Completed() {
		r.log.Debug().Msg("completed intent consumed")
		_ = r.store.Clear(ctx)
		r.state = State{Phase: PhaseIdle}
		return nil
	}

	if now.Sub(intent.FireAt) > ReconcileGrace {
		r.log.Info().Time("fire_at", intent.FireAt).Msg("stale intent cleared")
		r.deleteRemote(ctx, intent.PlatformID, intent.FireAt)
		_ = r.store.Clear(ctx)
		r.state = State{Phase: PhaseIdle}
		return nil
	}

	if !now.Before(intent.FireAt) {
		// Fire time reached while we were away; same cleanup as the stale
		// path, covering the exact-boundary case.
		r.log.Info().Time("fire_at", intent.FireAt).Msg("past-due intent cleared")
		r.deleteRemote(ctx, intent.PlatformID, intent.FireAt)
		_ = r.store.Clear(ctx)
		r.state = State{Phase: PhaseIdle}
		return nil
	}

	active, err := r.platform.ListActive(ctx)
	if err != nil {
		// Local truth stands until a successful probe contradicts it.
		r.log.Warn().Err(err).Msg("platform list unavailable; keeping armed state")
		r.state = activeState(intent)
		return nil
	}

	if platformHasIntent(active, intent) {
		r.state = activeState(intent)
		return nil
	}

	if now.Sub(intent.ArmedAt) < ReconcileGrace {
		// The platform's scheduled-alarm query lags right after a schedule
		// call; absence inside this window is reporting lag, not deletion.
		r.log.Debug().Time("armed_at", intent.ArmedAt).Msg("alarm missing from platform list; within arming grace")
		r.state = activeState(intent)
		return nil
	}

	r.log.Info().Str("alarm_id", intent.PlatformID).Msg("armed alarm vanished from platform; clearing")
	_ = r.store.Clear(ctx)
	r.state = State{Phase: PhaseIdle}
	return nil
}

// UpdateCountdown derives the display countdown for now. Once now is more
// than CountdownGrace past the fire time it performs the only side effect:
// remote delete, clear, Idle.
func (r *Reconciler) UpdateCountdown(ctx context.Context, now time.Time) Countdown {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Phase != PhaseActive {
		return Countdown{}
	}

	fireAt := r.state.FireAt
	if now.Sub(fireAt) > CountdownGrace {
		r.log.Info().Time("fire_at", fireAt).Msg("countdown expired; tearing down alarm")
		r.deleteRemote(ctx, r.state.PlatformID, fireAt)
		_ = r.store.Clear(ctx)
		r.state = State{Phase: PhaseIdle}
		return Countdown{Display: "00:00", Progress: 1, Fired: true, Done: true}
	}

	remaining := fireAt.Sub(now)
	if remaining <= 0 {
		return Countdown{Display: "00:00", Progress: 1, Fired: true}
	}

	progress := 0.0
	if total := fireAt.Sub(r.state.ArmedAt); total > 0 {
		progress = clamp01(1 - remaining.Seconds()/total.Seconds())
	}
	// Round up so the display never shows zero minutes while time remains.
	mins := int((remaining + time.Minute - time.Nanosecond) / time.Minute)
	return Countdown{
		Remaining: remaining,
		Display:   fmt.Sprintf("%02d:%02d", mins/60, mins%60),
		Progress:  progress,
	}
}

// MarkFired records that the alarm's firing was observed. Completion is
// terminal: the stamped intent can never arm again and the next
// reconciliation consumes it.
func (r *Reconciler) MarkFired(ctx context.Context, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.MarkCompleted(ctx, at); err != nil {
		if errors.Is(err, storage.ErrNoIntent) {
			return nil
		}
		return fmt.Errorf("mark intent completed: %w", err)
	}
	r.log.Info().Time("at", at).Msg("alarm firing observed")
	return nil
}

func (r *Reconciler) revertToPending(fireAt time.Time, cycleCount, adjustMinutes int) {
	r.mu.Lock()
	r.state = State{Phase: PhasePending, FireAt: fireAt, Cycles: cycleCount, AdjustMinutes: adjustMinutes}
	r.mu.Unlock()
}

// deleteRemote makes one deletion attempt: by ID when one is known, falling
// back to hour/minute matching when the ID is absent or the platform no
// longer recognizes it (it drops identifiers once an alarm fires, yet may
// still list a stale entry at the original time). Failures are logged only.
func (r *Reconciler) deleteRemote(ctx context.Context, platformID string, fireAt time.Time) {
	if platformID != "" {
		err := r.platform.Delete(ctx, platformID)
		if err == nil {
			return
		}
		if !errors.Is(err, platform.ErrAlarmNotFound) {
			r.log.Warn().Err(err).Str("alarm_id", platformID).Msg("platform deletion failed")
			return
		}
	}

	active, err := r.platform.ListActive(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("time-based deletion fallback: platform list unavailable")
		return
	}
	for _, view := range active {
		if view.MatchesClock(fireAt) {
			if err := r.platform.Delete(ctx, view.ID); err != nil {
				r.log.Warn().Err(err).Str("alarm_id", view.ID).Msg("time-based deletion failed")
			}
			return
		}
	}
}

func activeState(intent model.AlarmIntent) State {
	return State{
		Phase:      PhaseActive,
		FireAt:     intent.FireAt,
		ArmedAt:    intent.ArmedAt,
		Cycles:     intent.Cycles,
		PlatformID: intent.PlatformID,
	}
}

func platformHasIntent(active []platform.AlarmView, intent model.AlarmIntent) bool {
	for _, view := range active {
		if intent.PlatformID != "" {
			if view.ID == intent.PlatformID {
				return true
			}
			continue
		}
		if intent.MatchesClock(view.FireAt) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
