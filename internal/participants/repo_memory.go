package participants

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repo for tests and local development.
type MemoryRepo struct {
	mu           sync.RWMutex
	participants map[string]Participant
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{participants: make(map[string]Participant)}
}

func (r *MemoryRepo) Create(ctx context.Context, participant Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[participant.ID] = participant
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, participantID string) (Participant, error) {
	if err := ctx.Err(); err != nil {
		return Participant{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	participant, ok := r.participants[participantID]
	if !ok {
		return Participant{}, ErrNotFound
	}
	return participant, nil
}

func (r *MemoryRepo) GetByCode(ctx context.Context, participantCode string) (Participant, error) {
	if err := ctx.Err(); err != nil {
		return Participant{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, participant := range r.participants {
		if participant.ParticipantCode == participantCode {
			return participant, nil
		}
	}
	return Participant{}, ErrNotFound
}

func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants), nil
}
