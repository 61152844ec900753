package reports

import (
	"context"
	"testing"
	"time"

	"tat-backend/internal/analyses"
	"tat-backend/internal/participants"
	"tat-backend/internal/sessions"
)

func setupReportService(t *testing.T) (*Service, sessions.Session, *analyses.MemoryRepo) {
	t.Helper()
	sessionRepo := sessions.NewMemoryRepo()
	participantRepo := participants.NewMemoryRepo()
	analysisRepo := analyses.NewMemoryRepo()

	now := time.Now().UTC()
	participant := participants.Participant{
		ID:              "part-1",
		ParticipantCode: "TAT_AB12CD34",
		Gender:          "female",
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
	stories := []string{"a story with exactly six words", "another story of seven little words here"}
	for i, story := range stories {
		input := sessions.SubmitInput{ImageIndex: i, StoryText: story, ResponseTime: 10}
		if session, _, err = sessionSvc.SubmitResponse(context.Background(), session.SessionCode, input); err != nil {
			t.Fatalf("submit response %d: %v", i, err)
		}
	}

	svc := &Service{Sessions: sessionRepo, Participants: participantRepo, Analyses: analysisRepo}
	return svc, session, analysisRepo
}

func TestAssembleOrdersResponsesAndSurfacesLatestAnalyses(t *testing.T) {
	svc, session, analysisRepo := setupReportService(t)

	base := time.Now().UTC()
	older := analyses.Analysis{
		ID: "a-old", SessionID: session.ID, Type: analyses.TypeSession,
		Confidence: 0.6, CreatedAt: base.Add(-time.Hour),
	}
	newer := analyses.Analysis{
		ID: "a-new", SessionID: session.ID, Type: analyses.TypeSession,
		Confidence: 0.9, CreatedAt: base,
	}
	for _, analysis := range []analyses.Analysis{older, newer} {
		if err := analysisRepo.Create(context.Background(), analysis); err != nil {
			t.Fatalf("create analysis: %v", err)
		}
	}

	report, err := svc.Assemble(context.Background(), session.SessionCode)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if len(report.Responses) != 2 {
		t.Fatalf("responses = %d", len(report.Responses))
	}
	for i, response := range report.Responses {
		if response.ImageIndex != i {
			t.Fatalf("response %d has image index %d", i, response.ImageIndex)
		}
	}

	if len(report.Analyses) != 2 || report.Analyses[0].ID != "a-new" {
		t.Fatalf("analyses not newest first: %+v", report.Analyses)
	}
	latest, ok := report.Latest[analyses.TypeSession]
	if !ok || latest.ID != "a-new" {
		t.Fatalf("latest session analysis = %+v", latest)
	}

	if report.Participant.ParticipantCode != "TAT_AB12CD34" {
		t.Fatalf("participant = %+v", report.Participant)
	}
	if report.Stats.TotalResponses != 2 || report.Stats.TotalWordCount != 13 {
		t.Fatalf("stats = %+v", report.Stats)
	}
	if report.Stats.AverageWordCount != 6.5 {
		t.Fatalf("average word count = %v", report.Stats.AverageWordCount)
	}
	if report.Stats.CompletionPct != 100 {
		t.Fatalf("completion = %v", report.Stats.CompletionPct)
	}
}

func TestAssembleUnknownSession(t *testing.T) {
	svc, _, _ := setupReportService(t)
	if _, err := svc.Assemble(context.Background(), "SESSION_MISSING"); err != sessions.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatsCountsRecords(t *testing.T) {
	svc, session, analysisRepo := setupReportService(t)
	if err := analysisRepo.Create(context.Background(), analyses.Analysis{
		ID: "a-1", SessionID: session.ID, Type: analyses.TypeIndividual, CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create analysis: %v", err)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Participants != 1 || stats.Responses != 2 || stats.Analyses != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.SessionsByStatus[sessions.StatusCompleted] != 1 {
		t.Fatalf("sessions by status = %v", stats.SessionsByStatus)
	}
}
