// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/verte-zerg/tuishadow/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for shadowing progress and attempt history.
type Store struct {
	db    *sql.DB
	locks *keyedLock
}

// UpdateFunc computes the next progress from the stored one. A non-nil
// record is appended to the attempt history in the same transaction.
type UpdateFunc func(prev model.ShadowProgress) (model.ShadowProgress, *model.AttemptRecord, error)

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps SQLite writers from racing into SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, locks: newKeyedLock()}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS shadow_progress (
			learner TEXT NOT NULL,
			content_id TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			best_score REAL NOT NULL,
			rhythm_accuracy REAL NOT NULL,
			timing_accuracy REAL NOT NULL,
			level INTEGER NOT NULL,
			last_practiced TEXT,
			PRIMARY KEY (learner, content_id)
		);`,
		`CREATE TABLE IF NOT EXISTS shadow_attempts (
			id TEXT PRIMARY KEY,
			learner TEXT NOT NULL,
			content_id TEXT NOT NULL,
			level INTEGER NOT NULL,
			rhythm REAL NOT NULL,
			timing REAL NOT NULL,
			overall REAL NOT NULL,
			feedback TEXT NOT NULL,
			xp INTEGER NOT NULL,
			practiced_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_shadow_attempts_practiced_at ON shadow_attempts(practiced_at);`,
		`CREATE INDEX IF NOT EXISTS idx_shadow_attempts_learner_content ON shadow_attempts(learner, content_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpdateProgress runs a read-modify-write of one learner's progress on one
// content item. Calls for the same key are applied one at a time in arrival
// order; different keys do not wait on each other's lock.
func (s *Store) UpdateProgress(ctx context.Context, learner string, id model.ContentID, fn UpdateFunc) (model.ShadowProgress, error) {
	unlock, err := s.locks.lock(ctx, learner+"\x00"+string(id))
	if err != nil {
		return model.ShadowProgress{}, err
	}
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ShadowProgress{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	prev, _, err := getProgress(ctx, tx, learner, id)
	if err != nil {
		return model.ShadowProgress{}, err
	}
	next, record, err := fn(prev)
	if err != nil {
		return model.ShadowProgress{}, err
	}

	var lastPracticed any
	if next.LastPracticed != nil {
		lastPracticed = next.LastPracticed.UTC().Format(timeLayout)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO shadow_progress (learner, content_id, attempts, best_score, rhythm_accuracy, timing_accuracy, level, last_practiced)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (learner, content_id) DO UPDATE SET
			attempts = excluded.attempts,
			best_score = excluded.best_score,
			rhythm_accuracy = excluded.rhythm_accuracy,
			timing_accuracy = excluded.timing_accuracy,
			level = excluded.level,
			last_practiced = excluded.last_practiced`,
		learner, string(id), next.Attempts, next.BestScore, next.RhythmAccuracy, next.TimingAccuracy, int(next.Level), lastPracticed,
	)
	if err != nil {
		return model.ShadowProgress{}, err
	}

	if record != nil {
		if record.ID == "" {
			record.ID = xid.New().String()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO shadow_attempts (id, learner, content_id, level, rhythm, timing, overall, feedback, xp, practiced_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID, learner, string(id), int(record.Level), record.Rhythm, record.Timing, record.Overall,
			string(record.Feedback), record.XP, record.PracticedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return model.ShadowProgress{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return model.ShadowProgress{}, err
	}
	return next, nil
}

// GetProgress returns stored progress, or the initial state with ok=false.
func (s *Store) GetProgress(ctx context.Context, learner string, id model.ContentID) (model.ShadowProgress, bool, error) {
	return getProgress(ctx, s.db, learner, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getProgress(ctx context.Context, q queryer, learner string, id model.ContentID) (model.ShadowProgress, bool, error) {
	row := q.QueryRowContext(ctx,
		`SELECT attempts, best_score, rhythm_accuracy, timing_accuracy, level, last_practiced
		 FROM shadow_progress WHERE learner = ? AND content_id = ?`, learner, string(id))
	var p model.ShadowProgress
	var level int
	var lastPracticed sql.NullString
	if err := row.Scan(&p.Attempts, &p.BestScore, &p.RhythmAccuracy, &p.TimingAccuracy, &level, &lastPracticed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.NewShadowProgress(), false, nil
		}
		return model.ShadowProgress{}, false, err
	}
	p.Level = model.Level(level)
	if lastPracticed.Valid {
		parsed, err := time.Parse(timeLayout, lastPracticed.String)
		if err != nil {
			return model.ShadowProgress{}, false, err
		}
		p.LastPracticed = &parsed
	}
	return p, true, nil
}

// ListProgress returns all stored progress for a learner, ordered by content id.
func (s *Store) ListProgress(ctx context.Context, learner string) ([]model.ProgressEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT content_id, attempts, best_score, rhythm_accuracy, timing_accuracy, level, last_practiced
		 FROM shadow_progress WHERE learner = ? ORDER BY content_id ASC`, learner)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ProgressEntry
	for rows.Next() {
		var entry model.ProgressEntry
		var id string
		var level int
		var lastPracticed sql.NullString
		p := &entry.Progress
		if err := rows.Scan(&id, &p.Attempts, &p.BestScore, &p.RhythmAccuracy, &p.TimingAccuracy, &level, &lastPracticed); err != nil {
			return nil, err
		}
		entry.ContentID = model.ContentID(id)
		p.Level = model.Level(level)
		if lastPracticed.Valid {
			parsed, err := time.Parse(timeLayout, lastPracticed.String)
			if err != nil {
				return nil, err
			}
			p.LastPracticed = &parsed
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListAttempts returns attempt history filtered by stats config, oldest first.
func (s *Store) ListAttempts(ctx context.Context, cfg model.StatsConfig) ([]model.AttemptRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Learner != "" {
		clauses = append(clauses, "learner = ?")
		args = append(args, cfg.Learner)
	}
	if cfg.ContentID != "" {
		clauses = append(clauses, "content_id = ?")
		args = append(args, string(cfg.ContentID))
	}
	if cfg.Since != nil {
		clauses = append(clauses, "practiced_at >= ?")
		args = append(args, cfg.Since.UTC().Format(timeLayout))
	}
	query := fmt.Sprintf(`SELECT id, learner, content_id, level, rhythm, timing, overall, feedback, xp, practiced_at
		FROM shadow_attempts
		WHERE %s
		ORDER BY practiced_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []model.AttemptRecord
	for rows.Next() {
		var rec model.AttemptRecord
		var contentID, feedback, practicedAt string
		var level int
		if err := rows.Scan(&rec.ID, &rec.Learner, &contentID, &level, &rec.Rhythm, &rec.Timing, &rec.Overall, &feedback, &rec.XP, &practicedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, practicedAt)
		if err != nil {
			return nil, err
		}
		rec.ContentID = model.ContentID(contentID)
		rec.Level = model.Level(level)
		rec.Feedback = model.Feedback(feedback)
		rec.PracticedAt = parsed
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// TotalXP sums the xp a learner has earned.
func (s *Store) TotalXP(ctx context.Context, learner string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(xp), 0) FROM shadow_attempts WHERE learner = ?`, learner).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}
