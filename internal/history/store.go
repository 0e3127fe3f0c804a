// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists completed search runs in a local SQLite
// database so past results stay queryable without re-running searches.
// Implements: prd008-history (R1-R3);
//
//	docs/ARCHITECTURE § Run History.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/collab-engine/pkg/types"
)

const dbFile = "runs.db"

// Store manages the run history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database at dir/runs.db,
// creating the schema when missing (R1.2).
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			profile TEXT NOT NULL,
			model_id TEXT NOT NULL,
			method TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_institutions (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			department TEXT,
			country TEXT,
			city TEXT,
			relevance_score INTEGER,
			reason TEXT,
			key_groups TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS run_collaborators (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			position TEXT,
			institution TEXT,
			email TEXT,
			research_focus TEXT,
			alignment_score INTEGER,
			alignment_reasons TEXT,
			key_publications TEXT,
			collaboration_angle TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_institutions_run ON run_institutions(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_run_collaborators_run ON run_collaborators(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun persists one run with its institutions and collaborators in a
// single transaction and assigns rec.ID (R1.1, R1.3).
func (s *Store) SaveRun(ctx context.Context, rec *types.RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, profile, model_id, method) VALUES (?, ?, ?, ?)`,
		rec.StartedAt.UTC().Format(time.RFC3339Nano), rec.Profile, rec.ModelID, string(rec.Method),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}

	for _, inst := range rec.Institutions {
		groupsJSON, _ := json.Marshal(inst.KeyGroups)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_institutions (run_id, name, department, country, city, relevance_score, reason, key_groups)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, inst.Name, inst.Department, inst.Country, inst.City,
			inst.RelevanceScore, inst.Reason, string(groupsJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting institution %s: %w", inst.Name, err)
		}
	}

	for _, c := range rec.Collaborators {
		pubsJSON, _ := json.Marshal(c.KeyPublications)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_collaborators
				(run_id, name, position, institution, email, research_focus,
				 alignment_score, alignment_reasons, key_publications, collaboration_angle)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, c.Name, c.Position, c.Institution, c.Email, c.ResearchFocus,
			c.AlignmentScore, c.AlignmentReasons, string(pubsJSON), c.CollaborationAngle,
		)
		if err != nil {
			return fmt.Errorf("inserting collaborator %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	rec.ID = runID
	return nil
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID            int64
	StartedAt     time.Time
	Profile       string
	ModelID       string
	Method        types.SearchMethod
	Collaborators int
}

// ListRuns returns run summaries, newest first, limited to limit rows
// (R2.1). limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT r.id, r.started_at, r.profile, r.model_id, r.method,
			(SELECT count(*) FROM run_collaborators c WHERE c.run_id = r.id)
		FROM runs r ORDER BY r.id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, method string
		if err := rows.Scan(&r.ID, &started, &r.Profile, &r.ModelID, &method, &r.Collaborators); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.Method = types.SearchMethod(method)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun loads one full run by id (R2.2).
func (s *Store) GetRun(ctx context.Context, id int64) (*types.RunRecord, error) {
	var rec types.RunRecord
	var started, method string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, profile, model_id, method FROM runs WHERE id = ?`, id,
	).Scan(&rec.ID, &started, &rec.Profile, &rec.ModelID, &method)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %d: %w", id, err)
	}
	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	rec.Method = types.SearchMethod(method)

	if rec.Institutions, err = s.runInstitutions(ctx, id); err != nil {
		return nil, err
	}
	if rec.Collaborators, err = s.runCollaborators(ctx, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) runInstitutions(ctx context.Context, id int64) ([]types.Institution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, department, country, city, relevance_score, reason, key_groups
		 FROM run_institutions WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("loading institutions for run %d: %w", id, err)
	}
	defer rows.Close()

	var out []types.Institution
	for rows.Next() {
		var inst types.Institution
		var groupsJSON string
		if err := rows.Scan(&inst.Name, &inst.Department, &inst.Country, &inst.City,
			&inst.RelevanceScore, &inst.Reason, &groupsJSON); err != nil {
			return nil, fmt.Errorf("scanning institution row: %w", err)
		}
		json.Unmarshal([]byte(groupsJSON), &inst.KeyGroups)
		out = append(out, inst)
	}
	return out, rows.Err()
}

func (s *Store) runCollaborators(ctx context.Context, id int64) ([]types.Collaborator, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, position, institution, email, research_focus,
			alignment_score, alignment_reasons, key_publications, collaboration_angle
		 FROM run_collaborators WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("loading collaborators for run %d: %w", id, err)
	}
	defer rows.Close()

	var out []types.Collaborator
	for rows.Next() {
		var c types.Collaborator
		var pubsJSON string
		if err := rows.Scan(&c.Name, &c.Position, &c.Institution, &c.Email, &c.ResearchFocus,
			&c.AlignmentScore, &c.AlignmentReasons, &pubsJSON, &c.CollaborationAngle); err != nil {
			return nil, fmt.Errorf("scanning collaborator row: %w", err)
		}
		json.Unmarshal([]byte(pubsJSON), &c.KeyPublications)
		out = append(out, c)
	}
	return out, rows.Err()
}
