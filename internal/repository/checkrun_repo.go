package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"mailproof/internal/model"
)

type CheckRunRepository struct {
	db *pgxpool.Pool
}

func NewCheckRunRepository(db *pgxpool.Pool) *CheckRunRepository {
	return &CheckRunRepository{db: db}
}

// InsertRun persists a completed verification run with its per-site rows.
func (r *CheckRunRepository) InsertRun(ctx context.Context, run *model.CheckRun) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO check_runs (ran_at, message_count)
        VALUES ($1, $2)
        RETURNING id
    `
	if err := tx.QueryRow(ctx, query, run.RanAt, run.MessageCount).Scan(&run.ID); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, res := range run.Results {
		_, err := tx.Exec(ctx, `
            INSERT INTO check_results (run_id, site, token, found)
            VALUES ($1, $2, $3, $4)
        `, run.ID, res.Site, res.Token, res.Found)
		if err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// RecentRuns returns the latest runs, newest first, rows included.
func (r *CheckRunRepository) RecentRuns(ctx context.Context, limit int) ([]model.CheckRun, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, ran_at, message_count
        FROM check_runs
        ORDER BY ran_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []model.CheckRun
	for rows.Next() {
		var run model.CheckRun
		if err := rows.Scan(&run.ID, &run.RanAt, &run.MessageCount); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		results, err := r.runResults(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Results = results
	}

	return runs, nil
}

func (r *CheckRunRepository) runResults(ctx context.Context, runID int) ([]model.TokenCheck, error) {
	rows, err := r.db.Query(ctx, `
        SELECT site, token, found
        FROM check_results
        WHERE run_id = $1
        ORDER BY id
    `, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []model.TokenCheck
	for rows.Next() {
		var res model.TokenCheck
		if err := rows.Scan(&res.Site, &res.Token, &res.Found); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
