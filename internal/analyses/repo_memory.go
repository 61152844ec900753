package analyses

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo implements Repo in memory for tests and local development.
type MemoryRepo struct {
	mu    sync.Mutex
	items map[string]Analysis
}

var _ Repo = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: map[string]Analysis{}}
}

func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[analysis.ID] = analysis
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.items[analysisID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return analysis, nil
}

func (r *MemoryRepo) ListBySession(ctx context.Context, sessionID string) ([]Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Analysis
	for _, analysis := range r.items {
		if analysis.SessionID == sessionID {
			out = append(out, analysis)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}
