package analyses

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tat-backend/internal/llm"
	"tat-backend/internal/participants"
	"tat-backend/internal/sessions"
	"tat-backend/internal/shared/metrics"
	"tat-backend/internal/shared/telemetry"
)

const (
	individualMaxTokens = 2000
	sessionMaxTokens    = 3000

	individualTemperature = 0.2
	sessionTemperature    = 0.3
)

// Service orchestrates analysis runs: it snapshots the inputs, calls the
// completion client with retries, parses the reply, and persists exactly one
// row per successful run. No session lock is held across the completion call.
type Service struct {
	Repo         Repo
	Sessions     sessions.Repo
	Participants participants.Repo
	LLM          llm.Client

	Provider string
	Model    string
	Language string
	Retry    RetryPolicy

	// DegradedConfidence replaces the model's score when the reply yields
	// no structured fields.
	DegradedConfidence float64
}

// AnalyzeResponse runs an individual analysis of one stored response.
func (s *Service) AnalyzeResponse(ctx context.Context, sessionCode, responseID string) (Analysis, error) {
	session, err := s.Sessions.GetByCode(ctx, sessionCode)
	if err != nil {
		return Analysis{}, err
	}
	response, err := s.Sessions.GetResponse(ctx, session.ID, responseID)
	if err != nil {
		return Analysis{}, err
	}
	analysis := Analysis{
		ID:         uuid.NewString(),
		SessionID:  session.ID,
		ResponseID: &response.ID,
		Type:       TypeIndividual,
		PromptText: BuildIndividualPrompt(response),
	}
	return s.run(ctx, session.SessionCode, analysis, individualMaxTokens, individualTemperature)
}

// AnalyzeSession runs the integrated analysis of a completed session.
func (s *Service) AnalyzeSession(ctx context.Context, sessionCode string) (Analysis, error) {
	session, err := s.Sessions.GetByCode(ctx, sessionCode)
	if err != nil {
		return Analysis{}, err
	}
	if !session.IsCompleted() {
		return Analysis{}, &IncompleteDataError{Reason: "session is " + session.Status + ", not completed"}
	}
	responses, err := s.Sessions.ListResponses(ctx, session.ID)
	if err != nil {
		return Analysis{}, err
	}
	if len(responses) < session.TotalImageCount {
		return Analysis{}, &IncompleteDataError{Reason: "session is missing stored responses"}
	}
	participant, err := s.Participants.GetByID(ctx, session.ParticipantID)
	if err != nil {
		return Analysis{}, err
	}
	analysis := Analysis{
		ID:         uuid.NewString(),
		SessionID:  session.ID,
		Type:       TypeSession,
		PromptText: BuildSessionPrompt(participant, session, responses),
	}
	return s.run(ctx, session.SessionCode, analysis, sessionMaxTokens, sessionTemperature)
}

// Get returns one analysis by ID.
func (s *Service) Get(ctx context.Context, analysisID string) (Analysis, error) {
	return s.Repo.GetByID(ctx, analysisID)
}

// ListBySession returns a session's analyses, newest first.
func (s *Service) ListBySession(ctx context.Context, sessionCode string) ([]Analysis, error) {
	session, err := s.Sessions.GetByCode(ctx, sessionCode)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListBySession(ctx, session.ID)
}

func (s *Service) run(ctx context.Context, sessionCode string, analysis Analysis, maxTokens int, temperature float32) (Analysis, error) {
	metrics.IncAnalysisStarted()
	started := time.Now()
	telemetry.Info("analysis.start", map[string]any{
		"session_code":  sessionCode,
		"analysis_type": analysis.Type,
		"model":         s.Model,
	})

	client := newRetryingClient(s.LLM, s.Retry)
	raw, attempts, err := client.Complete(ctx, llm.CompletionInput{
		SystemPrompt: SystemPrompt(s.Language),
		UserPrompt:   analysis.PromptText,
		MaxTokens:    maxTokens,
		Temperature:  temperature,
	})
	if err != nil {
		metrics.IncAnalysisFailed()
		telemetry.Error("analysis.failed", map[string]any{
			"session_code":  sessionCode,
			"analysis_type": analysis.Type,
			"attempts":      attempts,
			"error":         err.Error(),
		})
		return Analysis{}, &AnalysisUnavailableError{Attempts: attempts, Err: err}
	}

	parsed := ParseCompletion(raw)
	analysis.Provider = s.Provider
	analysis.Model = s.Model
	analysis.RawAnalysis = raw
	analysis.Themes = parsed.Themes
	analysis.PersonalityTraits = parsed.PersonalityTraits
	analysis.EmotionalPatterns = parsed.EmotionalPatterns
	analysis.Recommendations = parsed.Recommendations
	analysis.CreatedAt = time.Now().UTC()
	switch {
	case !parsed.Extracted():
		analysis.Degraded = true
		analysis.Confidence = s.DegradedConfidence
	case parsed.HasConfidence:
		analysis.Confidence = parsed.Confidence
	default:
		analysis.Confidence = s.DegradedConfidence
	}

	if err := s.Repo.Create(ctx, analysis); err != nil {
		return Analysis{}, err
	}

	if analysis.Degraded {
		metrics.IncAnalysisDegraded()
	}
	metrics.IncAnalysisCompleted()
	telemetry.Info("analysis.complete", map[string]any{
		"session_code":  sessionCode,
		"analysis_type": analysis.Type,
		"analysis_id":   analysis.ID,
		"attempts":      attempts,
		"degraded":      analysis.Degraded,
		"confidence":    analysis.Confidence,
		"duration_ms":   time.Since(started).Milliseconds(),
	})
	return analysis, nil
}
