package sessions

import (
	"context"
	"time"
)

// Repo defines persistence operations for sessions and their responses.
//
// Transition and AppendResponse run their callback against a row-locked
// snapshot of the session so that operations within one session are
// serialized while distinct sessions proceed in parallel.
type Repo interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, sessionID string) (Session, error)
	GetByCode(ctx context.Context, sessionCode string) (Session, error)
	LatestActiveByParticipant(ctx context.Context, participantID string) (Session, error)
	Transition(ctx context.Context, sessionID string, mutate func(*Session) error) (Session, error)
	AppendResponse(ctx context.Context, sessionID string, build func(*Session) (Response, error)) (Session, Response, error)
	ListResponses(ctx context.Context, sessionID string) ([]Response, error)
	GetResponse(ctx context.Context, sessionID, responseID string) (Response, error)
	SweepAbandoned(ctx context.Context, cutoff, now time.Time) (int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountResponses(ctx context.Context) (int, error)
}
