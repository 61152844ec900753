package sessions

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	StatusCreated    = "created"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"
)

// Session represents one participant's pass through the TAT image sequence.
// CurrentImageIndex is the single progress counter: it names the one image a
// response is still expected for, never decreases, and never exceeds
// TotalImageCount.
type Session struct {
	ID                string
	SessionCode       string
	ParticipantID     string
	Status            string
	StartTime         *time.Time
	EndTime           *time.Time
	TotalDuration     *int
	CurrentImageIndex int
	TotalImageCount   int
	LastActivityAt    time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Response is one participant narrative tied to one image within a session.
type Response struct {
	ID           string
	SessionID    string
	ImageIndex   int
	ImageFile    string
	StoryText    string
	WordCount    int
	ResponseTime float64
	CreatedAt    time.Time
}

// SubmitInput carries one narrative submission.
type SubmitInput struct {
	ImageIndex   int
	ImageFile    string
	StoryText    string
	ResponseTime float64
}

// Start moves the session from created to in_progress.
func (s *Session) Start(now time.Time) error {
	if s.Status != StatusCreated {
		return &InvalidStateError{Op: "start", Status: s.Status, Reason: "session already started"}
	}
	t := now
	s.Status = StatusInProgress
	s.StartTime = &t
	s.LastActivityAt = now
	s.UpdatedAt = now
	return nil
}

// ApplyResponse validates and records one narrative, advancing the progress
// counter. The final image completes the session and stamps the duration.
func (s *Session) ApplyResponse(input SubmitInput, minStoryChars int, now time.Time) (Response, error) {
	if s.Status != StatusInProgress {
		return Response{}, &InvalidStateError{Op: "submit_response", Status: s.Status, Reason: "session is not accepting responses"}
	}
	if input.ImageIndex != s.CurrentImageIndex {
		return Response{}, &InvalidStateError{
			Op:     "submit_response",
			Status: s.Status,
			Reason: "image index out of sequence",
		}
	}

	story := strings.TrimSpace(input.StoryText)
	if story == "" {
		return Response{}, &ValidationError{Field: "story_text", Reason: "story text is required"}
	}
	if utf8.RuneCountInString(story) < minStoryChars {
		return Response{}, &ValidationError{Field: "story_text", Reason: "story text is too short"}
	}
	if input.ResponseTime < 0 {
		return Response{}, &ValidationError{Field: "response_time", Reason: "response time cannot be negative"}
	}

	response := Response{
		SessionID:    s.ID,
		ImageIndex:   input.ImageIndex,
		ImageFile:    input.ImageFile,
		StoryText:    story,
		WordCount:    len(strings.Fields(story)),
		ResponseTime: input.ResponseTime,
		CreatedAt:    now,
	}

	s.CurrentImageIndex++
	s.LastActivityAt = now
	s.UpdatedAt = now
	if s.CurrentImageIndex == s.TotalImageCount {
		s.complete(now)
	}
	return response, nil
}

// Abandon marks an inactive session abandoned. Terminal states reject the
// transition, which makes a concurrent sweep and resume settle cleanly.
func (s *Session) Abandon(now time.Time) error {
	if s.Status != StatusCreated && s.Status != StatusInProgress {
		return &InvalidStateError{Op: "abandon", Status: s.Status, Reason: "session already ended"}
	}
	s.Status = StatusAbandoned
	t := now
	s.EndTime = &t
	if s.StartTime != nil {
		d := int(now.Sub(*s.StartTime).Seconds())
		s.TotalDuration = &d
	}
	s.UpdatedAt = now
	return nil
}

// Touch records participant activity without changing state.
func (s *Session) Touch(now time.Time) {
	s.LastActivityAt = now
	s.UpdatedAt = now
}

func (s *Session) complete(now time.Time) {
	s.Status = StatusCompleted
	t := now
	s.EndTime = &t
	if s.StartTime != nil {
		d := int(now.Sub(*s.StartTime).Seconds())
		s.TotalDuration = &d
	}
}

// IsActive reports whether the session can still accept participant actions.
func (s *Session) IsActive() bool {
	return s.Status == StatusCreated || s.Status == StatusInProgress
}

// IsCompleted reports whether every configured image has a response.
func (s *Session) IsCompleted() bool {
	return s.Status == StatusCompleted
}

// CompletionPercent returns progress through the image sequence as 0-100.
func (s *Session) CompletionPercent() float64 {
	if s.TotalImageCount == 0 {
		return 100.0
	}
	pct := float64(s.CurrentImageIndex) / float64(s.TotalImageCount) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
