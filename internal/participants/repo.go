package participants

import "context"

// Repo defines persistence operations for participants.
type Repo interface {
	Create(ctx context.Context, participant Participant) error
	GetByID(ctx context.Context, participantID string) (Participant, error)
	GetByCode(ctx context.Context, participantCode string) (Participant, error)
	Count(ctx context.Context) (int, error)
}
