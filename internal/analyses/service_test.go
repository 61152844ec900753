package analyses

import (
	"context"
	"errors"
	"testing"
	"time"

	"tat-backend/internal/participants"
	"tat-backend/internal/sessions"
)

func setupAnalysisService(t *testing.T, client *scriptedLLM) (*Service, *MemoryRepo, *sessions.MemoryRepo, sessions.Session) {
	t.Helper()
	sessionRepo := sessions.NewMemoryRepo()
	participantRepo := participants.NewMemoryRepo()
	analysisRepo := NewMemoryRepo()

	now := time.Now().UTC()
	participant := participants.Participant{
		ID:              "part-1",
		ParticipantCode: "TAT_AB12CD34",
		Gender:          "male",
		ConsentGiven:    true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := participantRepo.Create(context.Background(), participant); err != nil {
		t.Fatalf("create participant: %v", err)
	}

	sessionSvc := &sessions.Service{Repo: sessionRepo, TotalImages: 2, MinStoryChars: 5}
	session, err := sessionSvc.CreateForParticipant(context.Background(), participant.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := sessionSvc.Start(context.Background(), session.SessionCode); err != nil {
		t.Fatalf("start session: %v", err)
	}
	for i := 0; i < 2; i++ {
		input := sessions.SubmitInput{
			ImageIndex:   i,
			StoryText:    "a short but valid story about the picture",
			ResponseTime: 12.5,
		}
		if session, _, err = sessionSvc.SubmitResponse(context.Background(), session.SessionCode, input); err != nil {
			t.Fatalf("submit response %d: %v", i, err)
		}
	}

	svc := &Service{
		Repo:               analysisRepo,
		Sessions:           sessionRepo,
		Participants:       participantRepo,
		LLM:                client,
		Provider:           "openai",
		Model:              "gpt-4o",
		Language:           "chinese",
		Retry:              RetryPolicy{MaxAttempts: 3, BaseDelay: time.Nanosecond, Jitter: 0},
		DegradedConfidence: 0.5,
	}
	return svc, analysisRepo, sessionRepo, session
}

func TestAnalyzeSessionRetriesThenPersistsOneRow(t *testing.T) {
	client := &scriptedLLM{replies: []scriptedReply{
		{err: errors.New("openai http status 503: overloaded")},
		{err: errors.New("connection reset by peer")},
		{out: "整体心理状态稳定。\nThemes: achievement, intimacy\nPersonality Traits: openness\nConfidence: 0.8"},
	}}
	svc, repo, _, session := setupAnalysisService(t, client)

	analysis, err := svc.AnalyzeSession(context.Background(), session.SessionCode)
	if err != nil {
		t.Fatalf("AnalyzeSession: %v", err)
	}
	if analysis.Type != TypeSession || analysis.ResponseID != nil {
		t.Fatalf("unexpected analysis shape: %+v", analysis)
	}
	if analysis.Degraded || analysis.Confidence != 0.8 {
		t.Fatalf("degraded=%v confidence=%v", analysis.Degraded, analysis.Confidence)
	}
	if len(analysis.Themes) != 2 {
		t.Fatalf("themes = %v", analysis.Themes)
	}
	if client.calls != 3 {
		t.Fatalf("expected 3 completion calls, got %d", client.calls)
	}
	if n, _ := repo.Count(context.Background()); n != 1 {
		t.Fatalf("expected exactly 1 persisted analysis, got %d", n)
	}
}

func TestAnalyzeSessionPermanentFailurePersistsNothing(t *testing.T) {
	client := &scriptedLLM{replies: []scriptedReply{
		{err: errors.New("openai http status 500: a")},
		{err: errors.New("openai http status 500: b")},
		{err: errors.New("openai http status 500: c")},
	}}
	svc, repo, _, session := setupAnalysisService(t, client)

	_, err := svc.AnalyzeSession(context.Background(), session.SessionCode)
	var unavailable *AnalysisUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected AnalysisUnavailableError, got %v", err)
	}
	if unavailable.Attempts != 3 {
		t.Fatalf("attempts = %d", unavailable.Attempts)
	}
	if n, _ := repo.Count(context.Background()); n != 0 {
		t.Fatalf("expected no persisted analyses, got %d", n)
	}
}

func TestAnalyzeSessionUnstructuredReplyDegrades(t *testing.T) {
	client := &scriptedLLM{replies: []scriptedReply{
		{out: "An entirely free-form reflection without any labeled lines."},
	}}
	svc, _, _, session := setupAnalysisService(t, client)

	analysis, err := svc.AnalyzeSession(context.Background(), session.SessionCode)
	if err != nil {
		t.Fatalf("AnalyzeSession: %v", err)
	}
	if !analysis.Degraded {
		t.Fatalf("expected degraded analysis")
	}
	if analysis.Confidence != 0.5 {
		t.Fatalf("confidence = %v, want fallback 0.5", analysis.Confidence)
	}
	if analysis.RawAnalysis == "" {
		t.Fatalf("raw reply must be preserved")
	}
}

func TestAnalyzeSessionRequiresCompletedSession(t *testing.T) {
	client := &scriptedLLM{}
	svc, _, sessionRepo, _ := setupAnalysisService(t, client)

	sessionSvc := &sessions.Service{Repo: sessionRepo, TotalImages: 2, MinStoryChars: 5}
	inProgress, err := sessionSvc.CreateForParticipant(context.Background(), "part-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := sessionSvc.Start(context.Background(), inProgress.SessionCode); err != nil {
		t.Fatalf("start session: %v", err)
	}

	_, err = svc.AnalyzeSession(context.Background(), inProgress.SessionCode)
	var incomplete *IncompleteDataError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteDataError, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("LLM must not be called when preconditions fail")
	}
}

func TestAnalyzeResponseIndividual(t *testing.T) {
	client := &scriptedLLM{replies: []scriptedReply{
		{out: "Emotional Tone: positive\nThemes: autonomy\nConfidence: 0.6"},
	}}
	svc, _, sessionRepo, session := setupAnalysisService(t, client)

	responses, err := sessionRepo.ListResponses(context.Background(), session.ID)
	if err != nil || len(responses) != 2 {
		t.Fatalf("list responses: %v (%d)", err, len(responses))
	}

	analysis, err := svc.AnalyzeResponse(context.Background(), session.SessionCode, responses[0].ID)
	if err != nil {
		t.Fatalf("AnalyzeResponse: %v", err)
	}
	if analysis.Type != TypeIndividual {
		t.Fatalf("type = %q", analysis.Type)
	}
	if analysis.ResponseID == nil || *analysis.ResponseID != responses[0].ID {
		t.Fatalf("responseID = %v", analysis.ResponseID)
	}
	if analysis.Confidence != 0.6 {
		t.Fatalf("confidence = %v", analysis.Confidence)
	}
}

func TestAnalyzeResponseUnknownResponse(t *testing.T) {
	client := &scriptedLLM{}
	svc, _, _, session := setupAnalysisService(t, client)

	_, err := svc.AnalyzeResponse(context.Background(), session.SessionCode, "missing")
	if !errors.Is(err, sessions.ErrNotFound) {
		t.Fatalf("expected sessions.ErrNotFound, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("LLM must not be called for unknown responses")
	}
}

func TestRerunAppendsNewRow(t *testing.T) {
	client := &scriptedLLM{replies: []scriptedReply{
		{out: "Themes: a\nConfidence: 0.7"},
		{out: "Themes: b\nConfidence: 0.9"},
	}}
	svc, repo, _, session := setupAnalysisService(t, client)

	first, err := svc.AnalyzeSession(context.Background(), session.SessionCode)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.AnalyzeSession(context.Background(), session.SessionCode)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("reruns must create distinct rows")
	}
	if n, _ := repo.Count(context.Background()); n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}

	list, err := svc.ListBySession(context.Background(), session.SessionCode)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list length = %d", len(list))
	}
}
