package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/udhaya30012004/backend/internal/domain/enginefault"
)

type FaultRepository struct{ db *sql.DB }

func NewFaultRepository(db *sql.DB) *FaultRepository { return &FaultRepository{db: db} }

func (r *FaultRepository) Save(ctx context.Context, f *domain.Fault) error {
	const q = `
INSERT INTO engine_faults
  (user_id, analysis_id, provider, phase, message, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`

	msg := f.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, f.UserID, f.AnalysisID, f.Provider, f.Phase, msg, created)
	return err
}

func (r *FaultRepository) ListByAnalysis(ctx context.Context, userID string, analysisID string, limit int) ([]*domain.Fault, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, user_id, analysis_id, provider, phase, message, created_at
FROM engine_faults
WHERE user_id = $1 AND analysis_id = $2
ORDER BY created_at DESC, id DESC
LIMIT $3;`
	rows, err := r.db.QueryContext(ctx, q, userID, analysisID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Fault
	for rows.Next() {
		var f domain.Fault
		if err := rows.Scan(&f.ID, &f.UserID, &f.AnalysisID, &f.Provider, &f.Phase, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
