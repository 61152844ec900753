package reports

import (
	"context"

	"tat-backend/internal/analyses"
	"tat-backend/internal/participants"
	"tat-backend/internal/sessions"
)

// Service assembles read-only views over stored sessions, responses, and
// analyses. It never mutates state and never calls the completion service.
type Service struct {
	Sessions     sessions.Repo
	Participants participants.Repo
	Analyses     analyses.Repo
}

// Report is the full export for one session: the participant profile, the
// session record, every response in image order, and every analysis newest
// first with the latest run per type surfaced separately.
type Report struct {
	Participant participants.Participant
	Session     sessions.Session
	Responses   []sessions.Response
	Analyses    []analyses.Analysis
	Latest      map[string]analyses.Analysis
	Stats       SessionStats
}

// SessionStats summarizes one session's stored responses.
type SessionStats struct {
	TotalResponses   int
	TotalWordCount   int
	AverageWordCount float64
	TotalDuration    int
	CompletionPct    float64
}

// PlatformStats counts stored records across the whole platform.
type PlatformStats struct {
	Participants     int
	SessionsByStatus map[string]int
	Responses        int
	Analyses         int
}

// Assemble builds the report for one session code.
func (s *Service) Assemble(ctx context.Context, sessionCode string) (Report, error) {
	session, err := s.Sessions.GetByCode(ctx, sessionCode)
	if err != nil {
		return Report{}, err
	}
	participant, err := s.Participants.GetByID(ctx, session.ParticipantID)
	if err != nil {
		return Report{}, err
	}
	responses, err := s.Sessions.ListResponses(ctx, session.ID)
	if err != nil {
		return Report{}, err
	}
	analysisList, err := s.Analyses.ListBySession(ctx, session.ID)
	if err != nil {
		return Report{}, err
	}

	latest := map[string]analyses.Analysis{}
	for _, analysis := range analysisList {
		if _, seen := latest[analysis.Type]; !seen {
			latest[analysis.Type] = analysis
		}
	}

	return Report{
		Participant: participant,
		Session:     session,
		Responses:   responses,
		Analyses:    analysisList,
		Latest:      latest,
		Stats:       sessionStats(session, responses),
	}, nil
}

// Stats returns platform-wide record counts.
func (s *Service) Stats(ctx context.Context) (PlatformStats, error) {
	participantCount, err := s.Participants.Count(ctx)
	if err != nil {
		return PlatformStats{}, err
	}
	byStatus, err := s.Sessions.CountByStatus(ctx)
	if err != nil {
		return PlatformStats{}, err
	}
	responseCount, err := s.Sessions.CountResponses(ctx)
	if err != nil {
		return PlatformStats{}, err
	}
	analysisCount, err := s.Analyses.Count(ctx)
	if err != nil {
		return PlatformStats{}, err
	}
	return PlatformStats{
		Participants:     participantCount,
		SessionsByStatus: byStatus,
		Responses:        responseCount,
		Analyses:         analysisCount,
	}, nil
}

func sessionStats(session sessions.Session, responses []sessions.Response) SessionStats {
	stats := SessionStats{
		TotalResponses: len(responses),
		CompletionPct:  session.CompletionPercent(),
	}
	for _, response := range responses {
		stats.TotalWordCount += response.WordCount
	}
	if len(responses) > 0 {
		stats.AverageWordCount = float64(stats.TotalWordCount) / float64(len(responses))
	}
	if session.TotalDuration != nil {
		stats.TotalDuration = *session.TotalDuration
	}
	return stats
}
