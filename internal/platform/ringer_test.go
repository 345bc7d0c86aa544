package platform

import (
	"testing"
	"time"
)

func TestRingerFiresInTriggerOrder(t *testing.T) {
	ringer := NewRinger(8)
	ringer.Start()
	defer ringer.Stop()

	now := time.Now().UTC()
	if err := ringer.Arm("later", now.Add(80*time.Millisecond), ""); err != nil {
		t.Fatalf("arm later: %v", err)
	}
	if err := ringer.Arm("sooner", now.Add(20*time.Millisecond), ""); err != nil {
		t.Fatalf("arm sooner: %v", err)
	}

	first := waitRing(t, ringer.C(), time.Second)
	second := waitRing(t, ringer.C(), time.Second)
	if first.ID != "sooner" || second.ID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.ID, second.ID)
	}
}

func TestRingerCancelRemovesAlarm(t *testing.T) {
	ringer := NewRinger(4)
	ringer.Start()
	defer ringer.Stop()

	now := time.Now().UTC()
	if err := ringer.Arm("victim", now.Add(30*time.Millisecond), ""); err != nil {
		t.Fatalf("arm: %v", err)
	}
	if err := ringer.Arm("keeper", now.Add(60*time.Millisecond), ""); err != nil {
		t.Fatalf("arm keeper: %v", err)
	}
	if err := ringer.Cancel("victim"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := ringer.Cancel("victim"); err != ErrAlarmNotFound {
		t.Fatalf("expected ErrAlarmNotFound on second cancel, got %v", err)
	}

	got := waitRing(t, ringer.C(), time.Second)
	if got.ID != "keeper" {
		t.Fatalf("expected keeper to ring, got %s", got.ID)
	}
}

func TestRingerPauseSuppressesAndResumeRearms(t *testing.T) {
	ringer := NewRinger(4)
	ringer.Start()
	defer ringer.Stop()

	now := time.Now().UTC()
	if err := ringer.Arm("nap", now.Add(20*time.Millisecond), ""); err != nil {
		t.Fatalf("arm: %v", err)
	}
	if err := ringer.Pause("nap"); err != nil {
		t.Fatalf("pause: %v", err)
	}

	select {
	case ev := <-ringer.C():
		t.Fatalf("paused alarm rang: %+v", ev)
	case <-time.After(80 * time.Millisecond):
	}

	pending := ringer.Pending()
	if len(pending) != 1 || pending[0].State != AlarmStatePaused {
		t.Fatalf("unexpected pending view: %#v", pending)
	}

	// Fire time already passed, so resume rings immediately.
	if err := ringer.Resume("nap"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	got := waitRing(t, ringer.C(), time.Second)
	if got.ID != "nap" {
		t.Fatalf("expected nap to ring after resume, got %s", got.ID)
	}
	if len(ringer.Pending()) != 0 {
		t.Fatal("fired alarm still listed as pending")
	}
}

func TestRingerRejectsDuplicateAndInvalidArm(t *testing.T) {
	ringer := NewRinger(1)
	now := time.Now().UTC()

	if err := ringer.Arm("dup", now.Add(time.Hour), ""); err != nil {
		t.Fatalf("arm: %v", err)
	}
	if err := ringer.Arm("dup", now.Add(2*time.Hour), ""); err != ErrDuplicateID {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if err := ringer.Arm("bad", time.Time{}, ""); err != ErrInvalidFireTime {
		t.Fatalf("expected ErrInvalidFireTime, got %v", err)
	}
}

func TestRingerPendingIsSortedByFireTime(t *testing.T) {
	ringer := NewRinger(1)
	now := time.Now().UTC()

	if err := ringer.Arm("b", now.Add(2*time.Hour), ""); err != nil {
		t.Fatalf("arm b: %v", err)
	}
	if err := ringer.Arm("a", now.Add(time.Hour), ""); err != nil {
		t.Fatalf("arm a: %v", err)
	}

	pending := ringer.Pending()
	if len(pending) != 2 || pending[0].ID != "a" || pending[1].ID != "b" {
		t.Fatalf("unexpected pending order: %#v", pending)
	}
}

func waitRing(t *testing.T, ch <-chan RingEvent, timeout time.Duration) RingEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for ring event")
		return RingEvent{}
	}
}
