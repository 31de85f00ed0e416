package contracts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/udhaya30012004/backend/internal/application"
	domain "github.com/udhaya30012004/backend/internal/domain/contracts"
	"github.com/udhaya30012004/backend/internal/domain/engine"
	"github.com/udhaya30012004/backend/internal/domain/enginefault"
	"github.com/udhaya30012004/backend/internal/infra/engine/prompt"
	"github.com/udhaya30012004/backend/internal/infra/extract"
	"github.com/udhaya30012004/backend/internal/middleware"
	"github.com/udhaya30012004/backend/internal/pkg/logger"
)

const (
	schemaVersion = 1
	blobTTL       = time.Hour

	sentinelType = "Unknown Contract"
)

// Service implements the contract-analysis use cases. A submission runs in
// two phases: the synchronous phase ingests content, classifies it and
// persists the initial record; the asynchronous phase calls the engine and
// merges the results exactly once. Safe for concurrent use.
type Service struct {
	Repo    domain.Repository
	Engine  engine.Client
	Blobs   domain.BlobCache
	Archive domain.ArchiveStore    // optional
	Faults  enginefault.Repository // optional
	Notify  domain.Notifier        // optional
	Clock   application.Clock
	Log     *logger.Logger

	// Provider is the engine identifier stamped on each record.
	Provider string
	// Model names which engine model produced the analysis.
	Model string

	// AnalysisTimeout bounds the async engine call so a hung call resolves
	// into the fallback path instead of leaving the record processing
	// forever. ClassifyTimeout bounds the synchronous classification call.
	AnalysisTimeout time.Duration
	ClassifyTimeout time.Duration
}

// AnalyzeCommand carries one submission. Exactly one of Text or FileData is
// expected; Premium selects the tier.
type AnalyzeCommand struct {
	UserID   string
	Email    string
	Premium  bool
	Text     string
	FileName string
	FileData []byte
}

type AnalyzeResult struct {
	AnalysisID   domain.AnalysisID `json:"analysisId"`
	Status       domain.Status     `json:"status"`
	ContractType string            `json:"contractType"`
}

// Analyze is the synchronous submission path: normalize content, classify,
// persist the initial record, dispatch the analysis in the background and
// return immediately with status processing.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (AnalyzeResult, error) {
	text, err := s.ingest(ctx, cmd)
	if err != nil {
		return AnalyzeResult{}, err
	}

	contractType := s.classifyType(ctx, cmd.UserID, text)

	record := &domain.ContractAnalysis{
		ID:           domain.AnalysisID(uuid.New().String()),
		UserID:       cmd.UserID,
		ContractText: text,
		ContractType: contractType,
		CreatedAt:    s.Clock.Now(),
		Version:      schemaVersion,
		Language:     "en",
		AIModel:      s.Model,
	}
	if err := s.Repo.Save(ctx, record); err != nil {
		return AnalyzeResult{}, err
	}

	if s.Archive != nil && len(cmd.FileData) > 0 {
		s.archiveOriginal(record.ID, cmd)
	}

	tier := domain.TierFree
	if cmd.Premium {
		tier = domain.TierPremium
	}

	// Fire and forget; the record id is the caller's handle on the result.
	go func() {
		if err := s.ProcessAnalysis(record.ID, cmd.UserID, cmd.Email, tier, contractType, text); err != nil {
			s.Log.Error("background analysis failed", "analysisId", record.ID, "err", err)
		}
	}()

	return AnalyzeResult{
		AnalysisID:   record.ID,
		Status:       domain.StatusProcessing,
		ContractType: contractType,
	}, nil
}

// ingest normalizes raw input into analyzable text. Inline text wins when
// present; an uploaded file is staged in the transient cache, read back and
// run through extraction.
func (s *Service) ingest(ctx context.Context, cmd AnalyzeCommand) (string, error) {
	if cmd.Text != "" {
		return cmd.Text, nil
	}
	if len(cmd.FileData) == 0 {
		return "", domain.ErrNoContent
	}

	key := "file:" + uuid.New().String()
	if err := s.Blobs.Put(ctx, key, cmd.FileData, blobTTL); err != nil {
		return "", fmt.Errorf("%w: staging upload: %v", domain.ErrExtractionFailed, err)
	}

	data, err := s.Blobs.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: reading staged upload: %v", domain.ErrExtractionFailed, err)
	}

	text, err := extract.Text(cmd.FileName, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	return text, nil
}

// classifyType runs the single classification call. Failures never block
// ingestion; they resolve to the sentinel label.
func (s *Service) classifyType(ctx context.Context, userID, text string) string {
	timeout := s.ClassifyTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	label, err := s.Engine.Generate(ctx, prompt.Classification(text))
	if err != nil {
		s.Log.Warn("contract type classification failed", "err", err)
		s.recordFault(userID, "", "classify", err)
		return sentinelType
	}
	label = trimLabel(label)
	if label == "" {
		return sentinelType
	}
	return label
}

// ProcessAnalysis is the asynchronous phase: one engine call, then exactly
// one merge. Every failure mode resolves into the fallback payload so the
// record always leaves processing. The returned error reports an abandoned
// or failed merge, which no caller waits on; Analyze logs it.
func (s *Service) ProcessAnalysis(id domain.AnalysisID, userID, email string, tier domain.Tier, contractType, text string) error {
	timeout := s.AnalysisTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	engineCtx, cancelEngine := context.WithTimeout(context.Background(), timeout)
	results := s.runEngine(engineCtx, id, userID, tier, contractType, text)
	cancelEngine()

	// A hung engine call burns the whole budget and resolves via the
	// fallback; the merge still has to land, so it gets its own bound.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	record, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		// Record deleted between dispatch and merge: abandon, never retry.
		s.Log.Warn("merge abandoned", "analysisId", id, "err", err)
		return fmt.Errorf("merge abandoned: %w", err)
	}

	record.ApplyResults(results)
	if err := s.Repo.UpdateResults(ctx, record); err != nil {
		return fmt.Errorf("saving merged results: %w", err)
	}
	s.Log.Info("analysis merged", "analysisId", id, "status", record.AnalysisStatus())

	if s.Notify != nil && email != "" && tier == domain.TierPremium {
		if err := s.Notify.AnalysisComplete(ctx, email, id, contractType); err != nil {
			s.Log.Warn("completion notification failed", "analysisId", id, "err", err)
		}
	}
	return nil
}

// runEngine performs the analysis call and parses its payload, converting any
// failure into the fixed fallback result.
func (s *Service) runEngine(ctx context.Context, id domain.AnalysisID, userID string, tier domain.Tier, contractType, text string) map[string]any {
	out, err := s.Engine.Generate(ctx, prompt.ForTier(string(tier), contractType, text))
	if err != nil {
		s.Log.Warn("engine call failed, using fallback", "analysisId", id, "err", err)
		s.recordFault(userID, string(id), "analyze", err)
		middleware.IncrementAnalysesFallback()
		return engine.FallbackResult()
	}

	results, err := engine.ParseResult(out)
	if err != nil {
		s.Log.Warn("engine payload unparseable, using fallback", "analysisId", id, "err", err)
		s.recordFault(userID, string(id), "analyze", err)
		middleware.IncrementAnalysesFallback()
		return engine.FallbackResult()
	}
	return results
}

func (s *Service) recordFault(userID, analysisID, phase string, cause error) {
	if s.Faults == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	fault := &enginefault.Fault{
		UserID:     userID,
		AnalysisID: analysisID,
		Provider:   s.Provider,
		Phase:      phase,
		Message:    cause.Error(),
		CreatedAt:  s.Clock.Now(),
	}
	if err := s.Faults.Save(ctx, fault); err != nil {
		s.Log.Warn("recording engine fault failed", "err", err)
	}
}

// archiveOriginal uploads the raw document for retention. Best effort only.
func (s *Service) archiveOriginal(id domain.AnalysisID, cmd AnalyzeCommand) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		key := fmt.Sprintf("%s/%s/%s", cmd.UserID, id, cmd.FileName)
		if _, err := s.Archive.Upload(ctx, key, cmd.FileData, ""); err != nil {
			s.Log.Warn("archiving original document failed", "analysisId", id, "err", err)
		}
	}()
}

// trimLabel normalizes the classification output to a bare label. Models
// occasionally quote the label or append a trailing line anyway.
func trimLabel(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return strings.Trim(s, `"`)
}

//
// ==== READ / UPDATE USE CASES ====
//

// Get returns the full record, owner-scoped.
func (s *Service) Get(ctx context.Context, userID string, id domain.AnalysisID) (*domain.ContractAnalysis, error) {
	return s.Repo.Get(ctx, userID, id)
}

// List returns the owner's analyses, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*domain.ContractAnalysis, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// Status returns the polling projection for one record.
func (s *Service) Status(ctx context.Context, userID string, id domain.AnalysisID) (map[string]any, error) {
	record, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return record.StatusPayload(), nil
}

// UpdateFeedback stores owner feedback; allowed at any time after creation.
func (s *Service) UpdateFeedback(ctx context.Context, userID string, id domain.AnalysisID, fb *domain.UserFeedback) error {
	return s.Repo.UpdateFeedback(ctx, userID, id, fb)
}

// Delete removes a record, owner-scoped.
func (s *Service) Delete(ctx context.Context, userID string, id domain.AnalysisID) error {
	return s.Repo.Delete(ctx, userID, id)
}

// Faults lists the persisted engine faults for one analysis.
func (s *Service) ListFaults(ctx context.Context, userID string, id domain.AnalysisID, limit int) ([]*enginefault.Fault, error) {
	if s.Faults == nil {
		return nil, nil
	}
	return s.Faults.ListByAnalysis(ctx, userID, string(id), limit)
}
