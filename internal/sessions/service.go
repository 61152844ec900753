package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tat-backend/internal/shared/metrics"
	"tat-backend/internal/shared/telemetry"
)

// Service contains the session state machine operations. All transitions go
// through Repo callbacks so that concurrent calls against the same session
// are serialized.
type Service struct {
	Repo          Repo
	TotalImages   int
	MinStoryChars int
}

// CreateForParticipant creates a fresh session in the created state.
func (s *Service) CreateForParticipant(ctx context.Context, participantID string) (Session, error) {
	if participantID == "" {
		return Session{}, &ValidationError{Field: "participant_id", Reason: "participant id is required"}
	}
	now := time.Now().UTC()
	session := Session{
		ID:              uuid.NewString(),
		SessionCode:     NewSessionCode(),
		ParticipantID:   participantID,
		Status:          StatusCreated,
		TotalImageCount: s.TotalImages,
		LastActivityAt:  now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// Start moves a session into in_progress once the participant has read the
// instructions.
func (s *Service) Start(ctx context.Context, sessionCode string) (Session, error) {
	session, err := s.Repo.GetByCode(ctx, sessionCode)
	if err != nil {
		return Session{}, err
	}
	started, err := s.Repo.Transition(ctx, session.ID, func(current *Session) error {
		return current.Start(time.Now().UTC())
	})
	if err != nil {
		return Session{}, err
	}
	metrics.IncSessionStarted()
	telemetry.Info("session.status", map[string]any{
		"session_code":      started.SessionCode,
		"status":            started.Status,
		"status_transition": "created->in_progress",
	})
	return started, nil
}

// SubmitResponse records one narrative for the session's pending image. The
// terminal submission completes the session.
func (s *Service) SubmitResponse(ctx context.Context, sessionCode string, input SubmitInput) (Session, Response, error) {
	session, err := s.Repo.GetByCode(ctx, sessionCode)
	if err != nil {
		return Session{}, Response{}, err
	}
	if input.ImageFile == "" {
		input.ImageFile = ImageFileFor(input.ImageIndex)
	}

	updated, response, err := s.Repo.AppendResponse(ctx, session.ID, func(current *Session) (Response, error) {
		return current.ApplyResponse(input, s.MinStoryChars, time.Now().UTC())
	})
	if err != nil {
		return Session{}, Response{}, err
	}

	metrics.IncResponseStored()
	if updated.IsCompleted() {
		metrics.IncSessionCompleted()
		telemetry.Info("session.status", map[string]any{
			"session_code":      updated.SessionCode,
			"status":            updated.Status,
			"status_transition": "in_progress->completed",
			"total_duration":    derefInt(updated.TotalDuration),
		})
	}
	return updated, response, nil
}

// Resume returns the participant's most recent active session with its
// progress counter intact, refreshing the activity timestamp so a pending
// sweep does not immediately abandon it.
func (s *Service) Resume(ctx context.Context, participantID string) (Session, error) {
	session, err := s.Repo.LatestActiveByParticipant(ctx, participantID)
	if err != nil {
		return Session{}, err
	}
	return s.Repo.Transition(ctx, session.ID, func(current *Session) error {
		if !current.IsActive() {
			return &InvalidStateError{Op: "resume", Status: current.Status, Reason: "session already ended"}
		}
		current.Touch(time.Now().UTC())
		return nil
	})
}

// Get returns a session by its public code.
func (s *Service) Get(ctx context.Context, sessionCode string) (Session, error) {
	return s.Repo.GetByCode(ctx, strings.TrimSpace(sessionCode))
}

// Responses returns a session's responses in image-index order.
func (s *Service) Responses(ctx context.Context, sessionCode string) ([]Response, error) {
	session, err := s.Repo.GetByCode(ctx, sessionCode)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListResponses(ctx, session.ID)
}

// NewSessionCode generates an uppercase session code.
func NewSessionCode() string {
	return "SESSION_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// ImageFileFor names the TAT image shown at a zero-based index.
func ImageFileFor(index int) string {
	return fmt.Sprintf("tat_%02d.jpg", index+1)
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
