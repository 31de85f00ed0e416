package enginefault

import (
	"context"
)

// Repository defines persistence for engine faults
type Repository interface {
	Save(ctx context.Context, f *Fault) error
	ListByAnalysis(ctx context.Context, userID string, analysisID string, limit int) ([]*Fault, error)
}
