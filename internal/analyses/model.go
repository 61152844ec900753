package analyses

import "time"

const (
	TypeIndividual = "individual"
	TypeSession    = "session"
)

// Analysis is one AI-generated psychological summary for a session, or for a
// single response when Type is individual. Rows are append-only: a re-run
// creates a new row and never mutates an old one.
type Analysis struct {
	ID                string
	SessionID         string
	ResponseID        *string
	Type              string
	Provider          string
	Model             string
	PromptText        string
	Themes            []string
	PersonalityTraits []string
	EmotionalPatterns []string
	Recommendations   string
	Confidence        float64
	RawAnalysis       string
	Degraded          bool
	CreatedAt         time.Time
}
