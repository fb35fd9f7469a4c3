// Package pgx implements the run store on PostgreSQL. Results and export
// bundles are stored as jsonb so the schema does not need to follow every
// shape change of the pipeline output.
package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HexaField/causalmap/pkg/cld"
	"github.com/HexaField/causalmap/pkg/logger"
	"github.com/HexaField/causalmap/pkg/store"
)

type RunDBStore struct {
	conn *pgxpool.Pool
}

var _ store.RunStore = (*RunDBStore)(nil)

func NewRunDBStore(conn *pgxpool.Pool) *RunDBStore {
	return &RunDBStore{conn: conn}
}

func (s *RunDBStore) CreateRun(ctx context.Context, id string) error {
	_, err := s.conn.Exec(ctx,
		`INSERT INTO runs (public_id, status) VALUES ($1, $2)`,
		id, store.RunPending,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	logger.Debug("[Store] Created run", "run_id", id)
	return nil
}

func (s *RunDBStore) MarkRunning(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, store.RunRunning, "")
}

func (s *RunDBStore) FailRun(ctx context.Context, id string, message string) error {
	return s.setStatus(ctx, id, store.RunFailed, message)
}

func (s *RunDBStore) setStatus(ctx context.Context, id string, status store.RunStatus, message string) error {
	tag, err := s.conn.Exec(ctx,
		`UPDATE runs
		 SET status = $2, error_message = NULLIF($3, ''), updated_at = now()
		 WHERE public_id = $1`,
		id, status, message,
	)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrRunNotFound
	}
	logger.Debug("[Store] Updated run status", "run_id", id, "status", status)
	return nil
}

func (s *RunDBStore) CompleteRun(ctx context.Context, id string, result *cld.Result, export *cld.ExportBundle) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode run result: %w", err)
	}
	var exportJSON []byte
	if export != nil {
		if exportJSON, err = json.Marshal(export); err != nil {
			return fmt.Errorf("failed to encode export bundle: %w", err)
		}
	}

	tag, err := s.conn.Exec(ctx,
		`UPDATE runs
		 SET status = $2, result = $3, export = $4, error_message = NULL, updated_at = now()
		 WHERE public_id = $1`,
		id, store.RunCompleted, resultJSON, exportJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrRunNotFound
	}
	logger.Debug("[Store] Completed run", "run_id", id,
		"variables", len(result.Variables), "edges", len(result.Edges), "loops", len(result.Loops))
	return nil
}

func (s *RunDBStore) GetRun(ctx context.Context, id string) (*store.Run, error) {
	row := s.conn.QueryRow(ctx,
		`SELECT public_id, status, COALESCE(error_message, ''), result, export, created_at, updated_at
		 FROM runs WHERE public_id = $1`,
		id,
	)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, store.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

func (s *RunDBStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.Query(ctx,
		`SELECT public_id, status, COALESCE(error_message, ''), result, export, created_at, updated_at
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgxv5.Row) (*store.Run, error) {
	var run store.Run
	var resultJSON, exportJSON []byte
	if err := row.Scan(&run.ID, &run.Status, &run.Error, &resultJSON, &exportJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	if len(resultJSON) > 0 {
		run.Result = new(cld.Result)
		if err := json.Unmarshal(resultJSON, run.Result); err != nil {
			return nil, fmt.Errorf("failed to decode run result: %w", err)
		}
	}
	if len(exportJSON) > 0 {
		run.Export = new(cld.ExportBundle)
		if err := json.Unmarshal(exportJSON, run.Export); err != nil {
			return nil, fmt.Errorf("failed to decode export bundle: %w", err)
		}
	}
	return &run, nil
}
