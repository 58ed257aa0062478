package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"mailproof/internal/model"
)

type DispatchLogRepository struct {
	db *pgxpool.Pool
}

func NewDispatchLogRepository(db *pgxpool.Pool) *DispatchLogRepository {
	return &DispatchLogRepository{db: db}
}

// Insert records one send attempt, successful or not.
func (r *DispatchLogRepository) Insert(ctx context.Context, rec *model.DispatchRecord) error {
	query := `
        INSERT INTO dispatch_log (site, token, recipient, triggered_by, sent, error, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.db.Exec(ctx, query,
		rec.Site, rec.Token, rec.To, rec.Trigger, rec.Sent, rec.Error, rec.SentAt)
	if err != nil {
		return fmt.Errorf("insert dispatch record: %w", err)
	}
	return nil
}

// Recent returns the latest send attempts, newest first.
func (r *DispatchLogRepository) Recent(ctx context.Context, limit int) ([]model.DispatchRecord, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, site, token, recipient, triggered_by, sent, error, sent_at
        FROM dispatch_log
        ORDER BY sent_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query dispatch log: %w", err)
	}
	defer rows.Close()

	var recs []model.DispatchRecord
	for rows.Next() {
		var rec model.DispatchRecord
		if err := rows.Scan(&rec.ID, &rec.Site, &rec.Token, &rec.To, &rec.Trigger, &rec.Sent, &rec.Error, &rec.SentAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
