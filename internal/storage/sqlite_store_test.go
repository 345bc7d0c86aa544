package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/mrsleep/internal/model"
)

func setupStore(t *testing.T) (*SQLiteStore, *sql.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "mrsleep-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, db
}

func testIntent(fire, armed time.Time) model.AlarmIntent {
	return model.AlarmIntent{FireAt: fire, ArmedAt: armed, Cycles: 4, PlatformID: "alarm-1"}
}

func TestLoadEmptySlotReturnsErrNoIntent(t *testing.T) {
	store, _ := setupStore(t)
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrNoIntent) {
		t.Fatalf("expected ErrNoIntent, got %v", err)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	armed := time.Date(2026, 8, 24, 22, 0, 0, 0, time.UTC)
	fire := time.Date(2026, 8, 25, 7, 0, 17, 0, time.UTC)

	if err := store.Save(ctx, testIntent(fire, armed)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.FireAt.Equal(fire.Truncate(time.Minute)) {
		t.Fatalf("expected minute-truncated fire time, got %v", got.FireAt)
	}
	if !got.ArmedAt.Equal(armed) || got.Cycles != 4 || got.PlatformID != "alarm-1" {
		t.Fatalf("unexpected intent: %#v", got)
	}
	if got.CompletedAt != nil {
		t.Fatalf("fresh intent should not be completed: %v", got.CompletedAt)
	}
}

func TestSaveOverwritesPreviousRecord(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()
	armed := time.Date(2026, 8, 24, 22, 0, 0, 0, time.UTC)

	first := testIntent(armed.Add(6*time.Hour), armed)
	second := testIntent(armed.Add(9*time.Hour), armed.Add(time.Minute))
	second.PlatformID = ""
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM single_alarm`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one persisted record, got %d", count)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.FireAt.Equal(second.FireAt.Truncate(time.Minute)) || got.PlatformID != "" {
		t.Fatalf("expected second record to win: %#v", got)
	}
}

func TestMarkCompletedStampsExistingRecord(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	armed := time.Date(2026, 8, 24, 22, 0, 0, 0, time.UTC)

	if err := store.MarkCompleted(ctx, armed); !errors.Is(err, ErrNoIntent) {
		t.Fatalf("expected ErrNoIntent on empty slot, got %v", err)
	}

	if err := store.Save(ctx, testIntent(armed.Add(6*time.Hour), armed)); err != nil {
		t.Fatalf("save: %v", err)
	}
	done := armed.Add(6 * time.Hour)
	if err := store.MarkCompleted(ctx, done); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Completed() || !got.CompletedAt.Equal(done) {
		t.Fatalf("expected completion stamp %v, got %#v", done, got.CompletedAt)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear empty slot: %v", err)
	}
	armed := time.Date(2026, 8, 24, 22, 0, 0, 0, time.UTC)
	if err := store.Save(ctx, testIntent(armed.Add(time.Hour), armed)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoIntent) {
		t.Fatalf("expected ErrNoIntent after clear, got %v", err)
	}
}

func TestLoadCorruptRecordReturnsErrCorruptIntent(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()

	_, err := db.Exec(`
		INSERT INTO single_alarm (slot, alarm_time, start_time, cycles, alarm_id, completed_time)
		VALUES (1, 'not-a-timestamp', '2026-08-24T22:00:00Z', 4, NULL, NULL)`)
	if err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrCorruptIntent) {
		t.Fatalf("expected ErrCorruptIntent, got %v", err)
	}
}

func TestSaveRejectsInvalidIntent(t *testing.T) {
	store, _ := setupStore(t)
	if err := store.Save(context.Background(), model.AlarmIntent{}); err == nil {
		t.Fatal("expected validation error for empty intent")
	}
}
