package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/mrsleep/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

// SQLiteStore keeps the alarm slot in a one-row table. The slot column is
// pinned to 1 so the database itself enforces the single-record invariant.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	return &SQLiteStore{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (model.AlarmIntent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT alarm_time, start_time, cycles, alarm_id, completed_time
		FROM single_alarm WHERE slot = 1`)

	var alarmTime, startTime string
	var cycles int
	var alarmID sql.NullString
	var completed sql.NullString
	if err := row.Scan(&alarmTime, &startTime, &cycles, &alarmID, &completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AlarmIntent{}, ErrNoIntent
		}
		return model.AlarmIntent{}, err
	}

	fireAt, err := time.Parse(sqliteTimeLayout, alarmTime)
	if err != nil {
		return model.AlarmIntent{}, fmt.Errorf("%w: alarm_time %q", ErrCorruptIntent, alarmTime)
	}
	armedAt, err := time.Parse(sqliteTimeLayout, startTime)
	if err != nil {
		return model.AlarmIntent{}, fmt.Errorf("%w: start_time %q", ErrCorruptIntent, startTime)
	}
	completedAt, err := parseNullableTime(completed)
	if err != nil {
		return model.AlarmIntent{}, fmt.Errorf("%w: completed_time %q", ErrCorruptIntent, completed.String)
	}
	if cycles <= 0 {
		return model.AlarmIntent{}, fmt.Errorf("%w: cycles %d", ErrCorruptIntent, cycles)
	}

	return model.AlarmIntent{
		FireAt:      fireAt,
		ArmedAt:     armedAt,
		Cycles:      cycles,
		PlatformID:  alarmID.String,
		CompletedAt: completedAt,
	}, nil
}

// Save replaces the slot with the given intent in a single statement, so a
// reader never observes a half-written record.
func (s *SQLiteStore) Save(ctx context.Context, intent model.AlarmIntent) error {
	intent = intent.Normalize()
	if err := intent.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO single_alarm (slot, alarm_time, start_time, cycles, alarm_id, completed_time)
		VALUES (1, ?, ?, ?, ?, ?)`,
		mustTime(intent.FireAt), mustTime(intent.ArmedAt), intent.Cycles,
		nullString(intent.PlatformID), nullTime(intent.CompletedAt),
	)
	return err
}

func (s *SQLiteStore) MarkCompleted(ctx context.Context, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE single_alarm SET completed_time = ? WHERE slot = 1`, mustTime(at))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoIntent
	}
	return nil
}

// Clear empties the slot. Clearing an already-empty slot is not an error.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM single_alarm WHERE slot = 1`)
	return err
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}
