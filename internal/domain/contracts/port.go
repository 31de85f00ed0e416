package contracts

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence)
//
// All reads and writes are owner-scoped: an id alone never identifies a
// record. Save is a full-document upsert used at creation time;
// UpdateResults and UpdateFeedback write disjoint column sets so the async
// merge writer and a concurrent feedback writer commute.
type Repository interface {
	Save(ctx context.Context, a *ContractAnalysis) error
	Get(ctx context.Context, userID string, id AnalysisID) (*ContractAnalysis, error)
	ListByUser(ctx context.Context, userID string) ([]*ContractAnalysis, error)
	UpdateResults(ctx context.Context, a *ContractAnalysis) error
	UpdateFeedback(ctx context.Context, userID string, id AnalysisID, fb *UserFeedback) error
	Delete(ctx context.Context, userID string, id AnalysisID) error
}

// BlobCache port (interface untuk staging file upload)
type BlobCache interface {
	Put(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ArchiveStore port: durable retention of the uploaded original document.
type ArchiveStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Notifier port: completion notification to the owner. Implementations must
// never block the pipeline; failures are the caller's to swallow.
type Notifier interface {
	AnalysisComplete(ctx context.Context, email string, id AnalysisID, contractType string) error
}
