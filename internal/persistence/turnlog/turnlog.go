// Package turnlog keeps an SQLite record of every turn and the fate of each
// action, for auditing and replay queries.
package turnlog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pixil98/go-gridgame/internal/scheduler"
	_ "modernc.org/sqlite"
)

const queueSize = 1024

type TurnRecord struct {
	Turn       uint64
	StartedAt  time.Time
	Duration   time.Duration
	Players    int
	RosterErr  string
	Added      int
	Removed    int
	Restarted  int
	FailedJobs int
}

type OutcomeRecord struct {
	Turn     uint64
	PlayerID int
	Action   string
	Applied  bool
	Reason   string
}

// Log writes turns from a background goroutine so the scheduler never waits
// on the disk. Turns are dropped if the writer falls behind.
type Log struct {
	db *sql.DB
	ch chan scheduler.TurnStats

	closeOnce sync.Once
}

func Open(path string) (*Log, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Log{db: db, ch: make(chan scheduler.TurnStats, queueSize)}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS turns (
			turn INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			players INTEGER NOT NULL,
			added INTEGER NOT NULL,
			removed INTEGER NOT NULL,
			restarted INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			roster_error TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			turn INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			action TEXT NOT NULL,
			applied INTEGER NOT NULL,
			reason TEXT,
			PRIMARY KEY (turn, player_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_player_turn ON outcomes(player_id, turn);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// ObserveTurn queues the turn for writing.
func (l *Log) ObserveTurn(ctx context.Context, st scheduler.TurnStats) error {
	select {
	case l.ch <- st:
	default:
		slog.WarnContext(ctx, "turn log is behind, dropping turn", "turn", st.Turn)
	}
	return nil
}

// Start writes queued turns until ctx is cancelled, then flushes what is
// left and closes the database.
func (l *Log) Start(ctx context.Context) error {
	defer l.Close()

	// A turn already dequeued is always written.
	wctx := context.WithoutCancel(ctx)
	for {
		select {
		case st := <-l.ch:
			l.writeOrWarn(wctx, st)
		case <-ctx.Done():
			for {
				select {
				case st := <-l.ch:
					l.writeOrWarn(wctx, st)
				default:
					return nil
				}
			}
		}
	}
}

func (l *Log) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = l.db.Close()
	})
	return err
}

func (l *Log) writeOrWarn(ctx context.Context, st scheduler.TurnStats) {
	if err := l.write(ctx, st); err != nil {
		slog.WarnContext(ctx, "writing turn log", "turn", st.Turn, "error", err)
	}
}

func (l *Log) write(ctx context.Context, st scheduler.TurnStats) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var rosterErr sql.NullString
	if st.RosterErr != nil {
		rosterErr = sql.NullString{String: st.RosterErr.Error(), Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO turns(turn, started_at, duration_ms, players, added, removed, restarted, failed, roster_error)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.Turn,
		st.Started.UTC().Format(time.RFC3339Nano),
		st.Duration.Milliseconds(),
		st.Players,
		len(st.Reconcile.Added),
		len(st.Reconcile.Removed),
		len(st.Reconcile.Restarted),
		len(st.Reconcile.Failed),
		rosterErr,
	)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO outcomes(turn, player_id, action, applied, reason) VALUES(?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range st.Outcomes {
		if _, err := stmt.ExecContext(ctx, st.Turn, o.PlayerID, o.Action.String(), o.Applied, o.Reason); err != nil {
			return fmt.Errorf("inserting outcome for player %d: %w", o.PlayerID, err)
		}
	}

	return tx.Commit()
}

// Turns returns the recorded turns in [from, to], oldest first.
func (l *Log) Turns(ctx context.Context, from, to uint64) ([]TurnRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT turn, started_at, duration_ms, players, added, removed, restarted, failed, roster_error
		 FROM turns WHERE turn BETWEEN ? AND ? ORDER BY turn`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		var (
			r         TurnRecord
			started   string
			ms        int64
			rosterErr sql.NullString
		)
		if err := rows.Scan(&r.Turn, &started, &ms, &r.Players, &r.Added, &r.Removed, &r.Restarted, &r.FailedJobs, &rosterErr); err != nil {
			return nil, err
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", r.Turn, err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		r.RosterErr = rosterErr.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// PlayerOutcomes returns the player's most recent outcomes, newest first.
func (l *Log) PlayerOutcomes(ctx context.Context, playerID int, limit int) ([]OutcomeRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT turn, player_id, action, applied, reason FROM outcomes
		 WHERE player_id = ? ORDER BY turn DESC LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutcomeRecord
	for rows.Next() {
		var (
			r      OutcomeRecord
			reason sql.NullString
		)
		if err := rows.Scan(&r.Turn, &r.PlayerID, &r.Action, &r.Applied, &reason); err != nil {
			return nil, err
		}
		r.Reason = reason.String
		out = append(out, r)
	}
	return out, rows.Err()
}
