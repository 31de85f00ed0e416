package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/udhaya30012004/backend/internal/domain/contracts"
)

type ContractRepository struct{ db *sql.DB }

func NewContractRepository(db *sql.DB) *ContractRepository { return &ContractRepository{db: db} }

const analysisColumns = `
id, user_id, contract_text, contract_type,
summary, overall_score, risks, opportunities,
recommendations, key_clauses, legal_compliance, negotiation_points,
contract_duration, termination_conditions, financial_terms, performance_metrics,
ip_clauses, feedback_rating, feedback_comments,
created_at, version, language, ai_model`

// Save insert/update the full record
func (r *ContractRepository) Save(ctx context.Context, a *domain.ContractAnalysis) error {
	const q = `
INSERT INTO contract_analyses
(id, user_id, contract_text, contract_type,
 summary, overall_score, risks, opportunities,
 recommendations, key_clauses, legal_compliance, negotiation_points,
 contract_duration, termination_conditions, financial_terms, performance_metrics,
 ip_clauses, feedback_rating, feedback_comments,
 created_at, version, language, ai_model)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
ON CONFLICT (id) DO UPDATE SET
 contract_type = EXCLUDED.contract_type,
 summary = EXCLUDED.summary,
 overall_score = EXCLUDED.overall_score,
 risks = EXCLUDED.risks,
 opportunities = EXCLUDED.opportunities;`

	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	var rating sql.NullInt64
	var comments sql.NullString
	if a.Feedback != nil {
		rating = sql.NullInt64{Int64: int64(a.Feedback.Rating), Valid: true}
		comments = nullIfEmpty(a.Feedback.Comments)
	}

	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.UserID, a.ContractText, a.ContractType,
		nullIfEmpty(a.Summary), scoreOrNull(a.OverallScore), jsonOrNull(a.Risks), jsonOrNull(a.Opportunities),
		jsonOrNull(a.Recommendations), jsonOrNull(a.KeyClauses), nullIfEmpty(a.LegalCompliance), jsonOrNull(a.NegotiationPoints),
		nullIfEmpty(a.ContractDuration), nullIfEmpty(a.TerminationConditions), jsonOrNull(a.FinancialTerms), jsonOrNull(a.PerformanceMetrics),
		ipClausesOrNull(a.IPClauses), rating, comments,
		created, a.Version, a.Language, a.AIModel,
	)
	return err
}

// Get by ID + owner
func (r *ContractRepository) Get(ctx context.Context, userID string, id domain.AnalysisID) (*domain.ContractAnalysis, error) {
	const q = `SELECT ` + analysisColumns + `
FROM contract_analyses
WHERE user_id=$1 AND id=$2 LIMIT 1;`

	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, userID, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func (r *ContractRepository) ListByUser(ctx context.Context, userID string) ([]*domain.ContractAnalysis, error) {
	const q = `SELECT ` + analysisColumns + `
FROM contract_analyses
WHERE user_id=$1
ORDER BY created_at DESC, id DESC;`

	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ContractAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateResults writes the completion columns only.
func (r *ContractRepository) UpdateResults(ctx context.Context, a *domain.ContractAnalysis) error {
	const q = `
UPDATE contract_analyses SET
 summary=$1, overall_score=$2, risks=$3, opportunities=$4,
 recommendations=$5, key_clauses=$6, legal_compliance=$7, negotiation_points=$8,
 contract_duration=$9, termination_conditions=$10, financial_terms=$11, performance_metrics=$12,
 ip_clauses=$13
WHERE user_id=$14 AND id=$15;`

	res, err := r.db.ExecContext(ctx, q,
		nullIfEmpty(a.Summary), scoreOrNull(a.OverallScore), jsonOrNull(a.Risks), jsonOrNull(a.Opportunities),
		jsonOrNull(a.Recommendations), jsonOrNull(a.KeyClauses), nullIfEmpty(a.LegalCompliance), jsonOrNull(a.NegotiationPoints),
		nullIfEmpty(a.ContractDuration), nullIfEmpty(a.TerminationConditions), jsonOrNull(a.FinancialTerms), jsonOrNull(a.PerformanceMetrics),
		ipClausesOrNull(a.IPClauses),
		a.UserID, a.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, a.UserID, a.ID); err != nil {
			return err
		}
	}
	return nil
}

// UpdateFeedback writes the feedback columns only.
func (r *ContractRepository) UpdateFeedback(ctx context.Context, userID string, id domain.AnalysisID, fb *domain.UserFeedback) error {
	const q = `
UPDATE contract_analyses SET feedback_rating=$1, feedback_comments=$2
WHERE user_id=$3 AND id=$4;`

	res, err := r.db.ExecContext(ctx, q, fb.Rating, nullIfEmpty(fb.Comments), userID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, userID, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *ContractRepository) Delete(ctx context.Context, userID string, id domain.AnalysisID) error {
	const q = `DELETE FROM contract_analyses WHERE user_id=$1 AND id=$2;`
	res, err := r.db.ExecContext(ctx, q, userID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*domain.ContractAnalysis, error) {
	var a domain.ContractAnalysis
	var summary, legal, duration, termination, comments sql.NullString
	var risks, opps, recs, clauses, points, fin, metrics, ip sql.NullString
	var score, rating sql.NullInt64

	if err := row.Scan(
		&a.ID, &a.UserID, &a.ContractText, &a.ContractType,
		&summary, &score, &risks, &opps,
		&recs, &clauses, &legal, &points,
		&duration, &termination, &fin, &metrics,
		&ip, &rating, &comments,
		&a.CreatedAt, &a.Version, &a.Language, &a.AIModel,
	); err != nil {
		return nil, err
	}

	a.Summary = summary.String
	a.LegalCompliance = legal.String
	a.ContractDuration = duration.String
	a.TerminationConditions = termination.String
	if score.Valid {
		a.OverallScore = int(score.Int64)
	}
	unmarshalIfSet(risks, &a.Risks)
	unmarshalIfSet(opps, &a.Opportunities)
	unmarshalIfSet(recs, &a.Recommendations)
	unmarshalIfSet(clauses, &a.KeyClauses)
	unmarshalIfSet(points, &a.NegotiationPoints)
	unmarshalIfSet(fin, &a.FinancialTerms)
	unmarshalIfSet(metrics, &a.PerformanceMetrics)
	unmarshalIfSet(ip, &a.IPClauses)
	if rating.Valid || comments.Valid {
		a.Feedback = &domain.UserFeedback{Rating: int(rating.Int64), Comments: comments.String}
	}
	return &a, nil
}

func jsonOrNull(v any) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" || string(b) == "[]" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func unmarshalIfSet(col sql.NullString, out any) {
	if !col.Valid || col.String == "" {
		return
	}
	_ = json.Unmarshal([]byte(col.String), out)
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func scoreOrNull(score int) sql.NullInt64 {
	if score == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(score), Valid: true}
}

func ipClausesOrNull(ip domain.IPClauses) sql.NullString {
	if ip.IsZero() {
		return sql.NullString{}
	}
	return jsonOrNull(ip)
}
