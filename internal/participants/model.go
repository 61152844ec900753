package participants

import "time"

// Participant represents a registered experiment participant. Demographic
// fields are optional and immutable after registration.
type Participant struct {
	ID              string
	ParticipantCode string
	Age             *int
	Gender          string
	EducationLevel  string
	Occupation      string
	ContactInfo     string
	ConsentGiven    bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
