package contracts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/udhaya30012004/backend/internal/domain/contracts"
	"github.com/udhaya30012004/backend/internal/domain/engine"
	"github.com/udhaya30012004/backend/internal/domain/enginefault"
	"github.com/udhaya30012004/backend/internal/pkg/logger"
)

//
// ==== FAKES ====
//

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

// fakeRepo is an in-memory Repository with the same write discipline as the
// SQL ones: UpdateResults touches only completion columns, UpdateFeedback
// only the feedback column.
type fakeRepo struct {
	mu      sync.Mutex
	records map[domain.AnalysisID]*domain.ContractAnalysis
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[domain.AnalysisID]*domain.ContractAnalysis{}}
}

func (r *fakeRepo) Save(_ context.Context, a *domain.ContractAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.records[a.ID] = &cp
	return nil
}

func (r *fakeRepo) Get(_ context.Context, userID string, id domain.AnalysisID) (*domain.ContractAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.records[id]
	if !ok || a.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) ListByUser(_ context.Context, userID string) ([]*domain.ContractAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ContractAnalysis
	for _, a := range r.records {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateResults(_ context.Context, a *domain.ContractAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[a.ID]
	if !ok || stored.UserID != a.UserID {
		return domain.ErrNotFound
	}
	stored.Summary = a.Summary
	stored.OverallScore = a.OverallScore
	stored.Risks = a.Risks
	stored.Opportunities = a.Opportunities
	stored.Recommendations = a.Recommendations
	stored.KeyClauses = a.KeyClauses
	stored.LegalCompliance = a.LegalCompliance
	stored.NegotiationPoints = a.NegotiationPoints
	stored.ContractDuration = a.ContractDuration
	stored.TerminationConditions = a.TerminationConditions
	stored.FinancialTerms = a.FinancialTerms
	stored.PerformanceMetrics = a.PerformanceMetrics
	stored.IPClauses = a.IPClauses
	return nil
}

func (r *fakeRepo) UpdateFeedback(_ context.Context, userID string, id domain.AnalysisID, fb *domain.UserFeedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[id]
	if !ok || stored.UserID != userID {
		return domain.ErrNotFound
	}
	stored.Feedback = fb
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, userID string, id domain.AnalysisID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[id]
	if !ok || stored.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

// fakeEngine answers classification and analysis prompts separately, keyed on
// the classification instruction line.
type fakeEngine struct {
	mu           sync.Mutex
	classifyOut  string
	classifyErr  error
	analyzeOut   string
	analyzeErr   error
	lastAnalyzed string
}

const classifyMarker = "determine the type of contract"

func (e *fakeEngine) Generate(_ context.Context, prompt string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if strings.Contains(prompt, classifyMarker) {
		return e.classifyOut, e.classifyErr
	}
	e.lastAnalyzed = prompt
	return e.analyzeOut, e.analyzeErr
}

type fakeBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
	puts  int
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{blobs: map[string][]byte{}} }

func (b *fakeBlobs) Put(_ context.Context, key string, data []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = data
	b.puts++
	return nil
}

func (b *fakeBlobs) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[key]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return data, nil
}

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, key)
	return nil
}

type fakeFaults struct {
	mu     sync.Mutex
	faults []*enginefault.Fault
}

func (f *fakeFaults) Save(_ context.Context, fault *enginefault.Fault) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = append(f.faults, fault)
	return nil
}

func (f *fakeFaults) ListByAnalysis(_ context.Context, userID, analysisID string, _ int) ([]*enginefault.Fault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*enginefault.Fault
	for _, fault := range f.faults {
		if fault.UserID == userID && fault.AnalysisID == analysisID {
			out = append(out, fault)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *fakeNotifier) AnalysisComplete(_ context.Context, email string, _ domain.AnalysisID, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, email)
	return nil
}

const goodAnalysis = `{
	"summary": "A balanced NDA.",
	"overallScore": 74,
	"risks": [{"risk": "Broad scope", "explanation": "Covers all info", "severity": "medium"}],
	"opportunities": [{"opportunity": "Mutuality", "explanation": "Both bound", "impact": "low"}]
}`

func newService(repo domain.Repository, eng engine.Client) *Service {
	return &Service{
		Repo:   repo,
		Engine: eng,
		Blobs:  newFakeBlobs(),
		Clock:  fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		Log:    logger.Nop(),
		Model:  "gemini-1.5-pro",
	}
}

//
// ==== SYNCHRONOUS PHASE ====
//

func TestAnalyzeTextSubmission(t *testing.T) {
	repo := newFakeRepo()
	eng := &fakeEngine{classifyOut: "Non-Disclosure Agreement", analyzeOut: goodAnalysis}
	svc := newService(repo, eng)

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{
		UserID: "u1",
		Text:   "This NDA is entered into...",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AnalysisID)
	assert.Equal(t, domain.StatusProcessing, res.Status)
	assert.Equal(t, "Non-Disclosure Agreement", res.ContractType)

	record, err := repo.Get(context.Background(), "u1", res.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, "This NDA is entered into...", record.ContractText)
	assert.Equal(t, 1, record.Version)
	assert.Equal(t, "en", record.Language)
	assert.Equal(t, "gemini-1.5-pro", record.AIModel)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), record.CreatedAt)
}

func TestAnalyzeNoContent(t *testing.T) {
	svc := newService(newFakeRepo(), &fakeEngine{})

	_, err := svc.Analyze(context.Background(), AnalyzeCommand{UserID: "u1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoContent)
}

func TestAnalyzeFileUploadStagedAndExtracted(t *testing.T) {
	repo := newFakeRepo()
	eng := &fakeEngine{classifyOut: "Lease", analyzeOut: goodAnalysis}
	svc := newService(repo, eng)
	blobs := svc.Blobs.(*fakeBlobs)

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{
		UserID:   "u1",
		FileName: "lease.txt",
		FileData: []byte("Lease agreement for unit 4B."),
	})
	require.NoError(t, err)

	record, err := repo.Get(context.Background(), "u1", res.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, "Lease agreement for unit 4B.", record.ContractText)
	assert.Equal(t, 1, blobs.puts)
}

func TestAnalyzeInlineTextWinsOverFile(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &fakeEngine{classifyOut: "Sales", analyzeOut: goodAnalysis})
	blobs := svc.Blobs.(*fakeBlobs)

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{
		UserID:   "u1",
		Text:     "inline wins",
		FileName: "also.txt",
		FileData: []byte("file body"),
	})
	require.NoError(t, err)

	record, err := repo.Get(context.Background(), "u1", res.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, "inline wins", record.ContractText)
	assert.Zero(t, blobs.puts)
}

func TestAnalyzeUnsupportedFile(t *testing.T) {
	svc := newService(newFakeRepo(), &fakeEngine{})

	_, err := svc.Analyze(context.Background(), AnalyzeCommand{
		UserID:   "u1",
		FileName: "image.png",
		FileData: []byte{0x89, 'P', 'N', 'G', 0x00, 0x00},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestAnalyzeClassificationFailureUsesSentinel(t *testing.T) {
	repo := newFakeRepo()
	faults := &fakeFaults{}
	eng := &fakeEngine{classifyErr: errors.New("boom"), analyzeOut: goodAnalysis}
	svc := newService(repo, eng)
	svc.Faults = faults
	svc.Provider = "gemini"

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{UserID: "u1", Text: "contract"})
	require.NoError(t, err)
	assert.Equal(t, "Unknown Contract", res.ContractType)

	faults.mu.Lock()
	defer faults.mu.Unlock()
	require.Len(t, faults.faults, 1)
	assert.Equal(t, "classify", faults.faults[0].Phase)
	assert.Equal(t, "gemini", faults.faults[0].Provider)
}

func TestAnalyzeClassificationLabelTrimmed(t *testing.T) {
	repo := newFakeRepo()
	eng := &fakeEngine{classifyOut: "\"Employment\"\nExtra commentary.", analyzeOut: goodAnalysis}
	svc := newService(repo, eng)

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{UserID: "u1", Text: "contract"})
	require.NoError(t, err)
	assert.Equal(t, "Employment", res.ContractType)
}

//
// ==== ASYNCHRONOUS PHASE ====
//

// seed stores an initial processing record the way Analyze would.
func seed(t *testing.T, repo *fakeRepo, id domain.AnalysisID, userID string) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), &domain.ContractAnalysis{
		ID:           id,
		UserID:       userID,
		ContractText: "text",
		ContractType: "NDA",
		Version:      1,
	}))
}

func TestProcessAnalysisMergesResults(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &fakeEngine{analyzeOut: goodAnalysis})
	seed(t, repo, "id-1", "u1")

	err := svc.ProcessAnalysis("id-1", "u1", "", domain.TierFree, "NDA", "text")
	require.NoError(t, err)

	record, err := repo.Get(context.Background(), "u1", "id-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, record.AnalysisStatus())
	assert.Equal(t, "A balanced NDA.", record.Summary)
	assert.Equal(t, 74, record.OverallScore)
	require.Len(t, record.Risks, 1)
	assert.Equal(t, "Broad scope", record.Risks[0].Risk)
}

func TestProcessAnalysisIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &fakeEngine{analyzeOut: goodAnalysis})
	seed(t, repo, "id-1", "u1")

	require.NoError(t, svc.ProcessAnalysis("id-1", "u1", "", domain.TierFree, "NDA", "text"))
	once, err := repo.Get(context.Background(), "u1", "id-1")
	require.NoError(t, err)

	require.NoError(t, svc.ProcessAnalysis("id-1", "u1", "", domain.TierFree, "NDA", "text"))
	twice, err := repo.Get(context.Background(), "u1", "id-1")
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestProcessAnalysisEngineFailureFallsBack(t *testing.T) {
	repo := newFakeRepo()
	faults := &fakeFaults{}
	svc := newService(repo, &fakeEngine{analyzeErr: engine.ErrUnreachable})
	svc.Faults = faults
	seed(t, repo, "id-1", "u1")

	require.NoError(t, svc.ProcessAnalysis("id-1", "u1", "", domain.TierFree, "NDA", "text"))

	record, err := repo.Get(context.Background(), "u1", "id-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, record.AnalysisStatus())
	assert.Equal(t, engine.FallbackSummary, record.Summary)
	assert.Equal(t, 50, record.OverallScore)
	require.Len(t, record.Risks, 1)
	assert.Equal(t, "Error analyzing contract", record.Risks[0].Risk)

	listed, err := faults.ListByAnalysis(context.Background(), "u1", "id-1", 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "analyze", listed[0].Phase)
}

// blockingEngine never answers; it only returns once its context expires.
type blockingEngine struct{}

func (blockingEngine) Generate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// ctxRepo refuses work on an expired context, like the SQL repositories do.
type ctxRepo struct{ *fakeRepo }

func (r *ctxRepo) Get(ctx context.Context, userID string, id domain.AnalysisID) (*domain.ContractAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.fakeRepo.Get(ctx, userID, id)
}

func (r *ctxRepo) UpdateResults(ctx context.Context, a *domain.ContractAnalysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.fakeRepo.UpdateResults(ctx, a)
}

func TestProcessAnalysisEngineTimeoutStillMerges(t *testing.T) {
	base := newFakeRepo()
	svc := newService(&ctxRepo{fakeRepo: base}, blockingEngine{})
	svc.AnalysisTimeout = 50 * time.Millisecond
	seed(t, base, "id-1", "u1")

	// The engine consumes its entire budget; the fallback merge must still
	// reach the store instead of being abandoned on the spent context.
	require.NoError(t, svc.ProcessAnalysis("id-1", "u1", "", domain.TierFree, "NDA", "text"))

	record, err := base.Get(context.Background(), "u1", "id-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, record.AnalysisStatus())
	assert.Equal(t, engine.FallbackSummary, record.Summary)
	assert.Equal(t, 50, record.OverallScore)
}

func TestProcessAnalysisUnparseablePayloadFallsBack(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &fakeEngine{analyzeOut: "I cannot help with that."})
	seed(t, repo, "id-1", "u1")

	require.NoError(t, svc.ProcessAnalysis("id-1", "u1", "", domain.TierFree, "NDA", "text"))

	record, err := repo.Get(context.Background(), "u1", "id-1")
	require.NoError(t, err)
	assert.Equal(t, engine.FallbackSummary, record.Summary)
}

func TestProcessAnalysisAbandonedWhenRecordDeleted(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &fakeEngine{analyzeOut: goodAnalysis})

	err := svc.ProcessAnalysis("gone", "u1", "", domain.TierFree, "NDA", "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, repo.records)
}

func TestProcessAnalysisPreservesConcurrentFeedback(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &fakeEngine{analyzeOut: goodAnalysis})
	seed(t, repo, "id-1", "u1")

	// Feedback lands while the record is still processing.
	require.NoError(t, svc.UpdateFeedback(context.Background(), "u1", "id-1",
		&domain.UserFeedback{Rating: 5, Comments: "fast"}))

	require.NoError(t, svc.ProcessAnalysis("id-1", "u1", "", domain.TierFree, "NDA", "text"))

	record, err := repo.Get(context.Background(), "u1", "id-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, record.AnalysisStatus())
	require.NotNil(t, record.Feedback)
	assert.Equal(t, 5, record.Feedback.Rating)
}

func TestProcessAnalysisPremiumNotifies(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	eng := &fakeEngine{analyzeOut: goodAnalysis}
	svc := newService(repo, eng)
	svc.Notify = notifier
	seed(t, repo, "id-1", "u1")

	require.NoError(t, svc.ProcessAnalysis("id-1", "u1", "user@example.com", domain.TierPremium, "NDA", "text"))

	notifier.mu.Lock()
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "user@example.com", notifier.calls[0])
	notifier.mu.Unlock()

	// The premium tier also selects the richer prompt.
	eng.mu.Lock()
	assert.Contains(t, eng.lastAnalyzed, "intellectualPropertyClauses")
	eng.mu.Unlock()
}

func TestProcessAnalysisFreeTierDoesNotNotify(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := newService(repo, &fakeEngine{analyzeOut: goodAnalysis})
	svc.Notify = notifier
	seed(t, repo, "id-1", "u1")

	require.NoError(t, svc.ProcessAnalysis("id-1", "u1", "user@example.com", domain.TierFree, "NDA", "text"))

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Empty(t, notifier.calls)
}

//
// ==== END TO END ====
//

func TestAnalyzeEndToEnd(t *testing.T) {
	repo := newFakeRepo()
	eng := &fakeEngine{classifyOut: "Employment", analyzeOut: goodAnalysis}
	svc := newService(repo, eng)

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{UserID: "u1", Text: "employment contract"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, res.Status)

	assert.Eventually(t, func() bool {
		payload, err := svc.Status(context.Background(), "u1", res.AnalysisID)
		if err != nil {
			return false
		}
		return payload["status"] == domain.StatusComplete
	}, 2*time.Second, 10*time.Millisecond)

	record, err := svc.Get(context.Background(), "u1", res.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, "Employment", record.ContractType)
	assert.GreaterOrEqual(t, record.OverallScore, 1)
	assert.LessOrEqual(t, record.OverallScore, 100)
}

//
// ==== READ / UPDATE USE CASES ====
//

func TestStatusPayloadWhileProcessing(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &fakeEngine{})
	seed(t, repo, "id-1", "u1")

	payload, err := svc.Status(context.Background(), "u1", "id-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, payload["status"])
	assert.Equal(t, domain.AnalysisID("id-1"), payload["analysisId"])
	assert.NotContains(t, payload, "summary")
}

func TestOwnerScoping(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &fakeEngine{})
	seed(t, repo, "id-1", "u1")

	_, err := svc.Get(context.Background(), "intruder", "id-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Status(context.Background(), "intruder", "id-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.Delete(context.Background(), "intruder", "id-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.UpdateFeedback(context.Background(), "intruder", "id-1", &domain.UserFeedback{Rating: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The record is untouched for its owner.
	_, err = svc.Get(context.Background(), "u1", "id-1")
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &fakeEngine{})
	seed(t, repo, "id-1", "u1")

	require.NoError(t, svc.Delete(context.Background(), "u1", "id-1"))
	_, err := svc.Get(context.Background(), "u1", "id-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.Delete(context.Background(), "u1", "id-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
