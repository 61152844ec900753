package analyses

import "context"

// Repo defines append-only persistence for analyses.
type Repo interface {
	Create(ctx context.Context, analysis Analysis) error
	GetByID(ctx context.Context, analysisID string) (Analysis, error)
	ListBySession(ctx context.Context, sessionID string) ([]Analysis, error)
	Count(ctx context.Context) (int, error)
}
