package sessions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Repo for tests and local development. A single
// mutex serializes all callbacks, which satisfies the per-session ordering
// contract trivially.
type MemoryRepo struct {
	mu        sync.Mutex
	sessions  map[string]Session
	responses map[string][]Response
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		sessions:  make(map[string]Session),
		responses: make(map[string][]Response),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, session Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (r *MemoryRepo) GetByCode(ctx context.Context, sessionCode string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.SessionCode == sessionCode {
			return session, nil
		}
	}
	return Session{}, ErrNotFound
}

func (r *MemoryRepo) LatestActiveByParticipant(ctx context.Context, participantID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *Session
	for _, session := range r.sessions {
		if session.ParticipantID != participantID || !session.IsActive() {
			continue
		}
		s := session
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = &s
		}
	}
	if latest == nil {
		return Session{}, ErrNoActiveSession
	}
	return *latest, nil
}

func (r *MemoryRepo) Transition(ctx context.Context, sessionID string, mutate func(*Session) error) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	if err := mutate(&session); err != nil {
		return Session{}, err
	}
	r.sessions[sessionID] = session
	return session, nil
}

func (r *MemoryRepo) AppendResponse(ctx context.Context, sessionID string, build func(*Session) (Response, error)) (Session, Response, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, Response{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, Response{}, ErrNotFound
	}
	response, err := build(&session)
	if err != nil {
		return Session{}, Response{}, err
	}
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	r.sessions[sessionID] = session
	r.responses[sessionID] = append(r.responses[sessionID], response)
	return session, response, nil
}

func (r *MemoryRepo) ListResponses(ctx context.Context, sessionID string) ([]Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]Response(nil), r.responses[sessionID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].ImageIndex < out[j].ImageIndex })
	return out, nil
}

func (r *MemoryRepo) GetResponse(ctx context.Context, sessionID, responseID string) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, response := range r.responses[sessionID] {
		if response.ID == responseID {
			return response, nil
		}
	}
	return Response{}, ErrNotFound
}

func (r *MemoryRepo) SweepAbandoned(ctx context.Context, cutoff, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	swept := 0
	for id, session := range r.sessions {
		if !session.IsActive() || !session.LastActivityAt.Before(cutoff) {
			continue
		}
		if err := session.Abandon(now); err != nil {
			continue
		}
		r.sessions[id] = session
		swept++
	}
	return swept, nil
}

func (r *MemoryRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, session := range r.sessions {
		counts[session.Status]++
	}
	return counts, nil
}

func (r *MemoryRepo) CountResponses(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, list := range r.responses {
		total += len(list)
	}
	return total, nil
}
