package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/udhaya30012004/backend/internal/domain/contracts"
)

type ContractRepository struct {
	db *sql.DB
}

func NewContractRepository(db *sql.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

const analysisColumns = `
id, user_id, contract_text, contract_type,
summary, overall_score, risks, opportunities,
recommendations, key_clauses, legal_compliance, negotiation_points,
contract_duration, termination_conditions, financial_terms, performance_metrics,
ip_clauses, feedback_rating, feedback_comments,
created_at, version, language, ai_model`

// Save insert/update the full record; used at creation time.
func (r *ContractRepository) Save(ctx context.Context, a *domain.ContractAnalysis) error {
	const q = `
INSERT INTO contract_analyses
(id, user_id, contract_text, contract_type,
 summary, overall_score, risks, opportunities,
 recommendations, key_clauses, legal_compliance, negotiation_points,
 contract_duration, termination_conditions, financial_terms, performance_metrics,
 ip_clauses, feedback_rating, feedback_comments,
 created_at, version, language, ai_model)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 contract_type=VALUES(contract_type),
 summary=VALUES(summary), overall_score=VALUES(overall_score),
 risks=VALUES(risks), opportunities=VALUES(opportunities);
`
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

// Get by ID + owner. A wrong owner is indistinguishable from a missing row.
func (r *ContractRepository) Get(ctx context.Context, userID string, id domain.AnalysisID) (*domain.ContractAnalysis, error) {
	const q = `SELECT ` + analysisColumns + `
FROM contract_analyses
WHERE user_id=? AND id=? LIMIT 1;`

	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, userID, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// ListByUser returns the owner's analyses, newest first.
func (r *ContractRepository) ListByUser(ctx context.Context, userID string) ([]*domain.ContractAnalysis, error) {
	const q = `SELECT ` + analysisColumns + `
FROM contract_analyses
WHERE user_id=?
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

// UpdateResults writes the completion columns only. Owner, contract text and
// the feedback columns are untouched, so this commutes with UpdateFeedback.
func (r *ContractRepository) UpdateResults(ctx context.Context, a *domain.ContractAnalysis) error {
	const q = `
UPDATE contract_analyses SET
 summary=?, overall_score=?, risks=?, opportunities=?,
 recommendations=?, key_clauses=?, legal_compliance=?, negotiation_points=?,
 contract_duration=?, termination_conditions=?, financial_terms=?, performance_metrics=?,
 ip_clauses=?
WHERE user_id=? AND id=?;
`
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
		// May also mean an identical re-apply; verify existence before
		// reporting the record gone.
		if _, err := r.Get(ctx, a.UserID, a.ID); err != nil {
			return err
		}
	}
	return nil
}

// UpdateFeedback writes the feedback columns only.
func (r *ContractRepository) UpdateFeedback(ctx context.Context, userID string, id domain.AnalysisID, fb *domain.UserFeedback) error {
	const q = `
UPDATE contract_analyses SET feedback_rating=?, feedback_comments=?
WHERE user_id=? AND id=?;
`
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
	const q = `DELETE FROM contract_analyses WHERE user_id=? AND id=?;`
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
