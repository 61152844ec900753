package participants

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RegisterInput captures the registration form fields.
type RegisterInput struct {
	Age            *int
	Gender         string
	EducationLevel string
	Occupation     string
	ContactInfo    string
	ConsentGiven   bool
}

// Service contains business logic for participants.
type Service struct {
	Repo Repo
}

// Register creates a new anonymized participant. The participant code is
// generated server-side and is the only identifier shown to the participant.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Participant, error) {
	if !input.ConsentGiven {
		return Participant{}, ErrConsentRequired
	}

	now := time.Now().UTC()
	participant := Participant{
		ID:              uuid.NewString(),
		ParticipantCode: NewParticipantCode(),
		Age:             input.Age,
		Gender:          strings.TrimSpace(input.Gender),
		EducationLevel:  strings.TrimSpace(input.EducationLevel),
		Occupation:      strings.TrimSpace(input.Occupation),
		ContactInfo:     strings.TrimSpace(input.ContactInfo),
		ConsentGiven:    true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, participant); err != nil {
		return Participant{}, err
	}
	return participant, nil
}

// GetByCode looks up a participant by their public code.
func (s *Service) GetByCode(ctx context.Context, participantCode string) (Participant, error) {
	return s.Repo.GetByCode(ctx, strings.TrimSpace(participantCode))
}

// NewParticipantCode generates a short uppercase participant code.
func NewParticipantCode() string {
	return "TAT_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
