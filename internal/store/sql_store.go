package store

import (
	"context"
	"fmt"
	"time"

	"tombola/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS draw_runs (
		id TEXT PRIMARY KEY,
		game TEXT NOT NULL,
		assignments INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS draw_runs_game ON draw_runs (game, created_at)`,
	`CREATE TABLE IF NOT EXISTS draw_assignments (
		run_id TEXT NOT NULL REFERENCES draw_runs (id) ON DELETE CASCADE,
		giver TEXT NOT NULL,
		target TEXT NOT NULL,
		PRIMARY KEY (run_id, giver)
	)`,
}

// HistoryStore records every successful draw in a sqlite database.
type HistoryStore struct {
	db  *sqlx.DB
	now func() time.Time
}

type runRow struct {
	ID          string `db:"id"`
	Game        string `db:"game"`
	Assignments int    `db:"assignments"`
	CreatedAt   int64  `db:"created_at"`
}

func (r runRow) model() models.DrawRun {
	return models.DrawRun{
		ID:          r.ID,
		Game:        r.Game,
		Assignments: r.Assignments,
		CreatedAt:   time.Unix(0, r.CreatedAt).UTC(),
	}
}

// OpenHistory opens (creating if needed) the history database at dsn.
func OpenHistory(ctx context.Context, dsn string) (*HistoryStore, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// sqlite has a single writer, and each connection to :memory: is its
	// own database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open history: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create history schema: %w", err)
		}
	}

	return &HistoryStore{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// RecordDraw stores a lottery as a new run of game.
func (s *HistoryStore) RecordDraw(ctx context.Context, game string, lottery models.Lottery) (models.DrawRun, error) {
	row := runRow{
		ID:          uuid.NewString(),
		Game:        game,
		Assignments: len(lottery),
		CreatedAt:   s.now().UnixNano(),
	}

	assignments := make([]models.Assignment, 0, len(lottery))
	for giver, target := range lottery {
		assignments = append(assignments, models.Assignment{RunID: row.ID, Giver: giver, Target: target})
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.DrawRun{}, err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `INSERT INTO draw_runs (id, game, assignments, created_at)
		VALUES (:id, :game, :assignments, :created_at)`, row); err != nil {
		return models.DrawRun{}, fmt.Errorf("record draw: %w", err)
	}
	if len(assignments) > 0 {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO draw_assignments (run_id, giver, target)
			VALUES (:run_id, :giver, :target)`, assignments); err != nil {
			return models.DrawRun{}, fmt.Errorf("record assignments: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.DrawRun{}, err
	}
	return row.model(), nil
}

// ListRuns returns the runs of game, newest first.
func (s *HistoryStore) ListRuns(ctx context.Context, game string) ([]models.DrawRun, error) {
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM draw_runs WHERE game = ? ORDER BY created_at DESC", game); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]models.DrawRun, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, row.model())
	}
	return runs, nil
}

// RunAssignments returns the pairs drawn in a run, ordered by giver.
func (s *HistoryStore) RunAssignments(ctx context.Context, runID string) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := s.db.SelectContext(ctx, &assignments,
		"SELECT run_id, giver, target FROM draw_assignments WHERE run_id = ? ORDER BY giver", runID)
	return assignments, err
}
