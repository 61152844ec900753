package analyses

import (
	"fmt"
	"strings"

	"tat-backend/internal/participants"
	"tat-backend/internal/sessions"
)

// Prompt building is pure and deterministic: identical input records always
// produce byte-identical prompt text, so a failed completion call can be
// retried with the same request. No timestamps or randomness belong here.

const systemPromptTemplate = "You are a professional psychologist specializing in the Thematic Apperception Test (TAT). " +
	"Write the narrative portions of your reply in %s. " +
	"Finish your reply with these labeled lines, each on its own line and in English:\n" +
	"Emotional Tone: <one of positive, negative, neutral, complex>\n" +
	"Themes: <comma-separated psychological themes>\n" +
	"Personality Traits: <comma-separated trait indicators>\n" +
	"Emotional Patterns: <comma-separated emotional patterns>\n" +
	"Recommendations: <one-line suggestions and points of attention>\n" +
	"Confidence: <a number between 0.0 and 1.0>"

// SystemPrompt renders the shared system prompt for the target language.
func SystemPrompt(language string) string {
	if strings.TrimSpace(language) == "" {
		language = "chinese"
	}
	return fmt.Sprintf(systemPromptTemplate, strings.ToLower(strings.TrimSpace(language)))
}

// BuildIndividualPrompt renders the analysis request for a single response.
func BuildIndividualPrompt(response sessions.Response) string {
	var b strings.Builder
	b.WriteString("Analyze the following TAT response.\n\n")
	fmt.Fprintf(&b, "Image: %s (index %d)\n", response.ImageFile, response.ImageIndex+1)
	fmt.Fprintf(&b, "Story: %s\n", response.StoryText)
	fmt.Fprintf(&b, "Word count: %d\n", response.WordCount)
	fmt.Fprintf(&b, "Response time: %.1f seconds\n\n", response.ResponseTime)
	b.WriteString("Cover these aspects:\n")
	b.WriteString("1. Emotional tone (positive, negative, neutral, complex)\n")
	b.WriteString("2. Key psychological themes (achievement, intimacy, power, fear, autonomy)\n")
	b.WriteString("3. Personality trait indicators (extraversion, neuroticism, openness)\n")
	b.WriteString("4. Use of defense mechanisms\n")
	b.WriteString("5. Story structure and coherence\n")
	b.WriteString("6. Attitudes toward interpersonal relationships\n")
	b.WriteString("7. Ways of coping with stress\n")
	return b.String()
}

// BuildSessionPrompt renders the integrated analysis request for a completed
// session, embedding every narrative in image-index order.
func BuildSessionPrompt(participant participants.Participant, session sessions.Session, responses []sessions.Response) string {
	var b strings.Builder
	b.WriteString("Provide an integrated psychological analysis of the following TAT session.\n\n")
	fmt.Fprintf(&b, "Participant: %s\n", describeParticipant(participant))
	fmt.Fprintf(&b, "Total responses: %d\n", len(responses))
	if session.TotalDuration != nil {
		fmt.Fprintf(&b, "Total duration: %d seconds\n", *session.TotalDuration)
	}
	b.WriteString("\nResponses in order:\n")
	for _, response := range responses {
		fmt.Fprintf(&b, "Image %d: %s\n", response.ImageIndex+1, summarizeStory(response.StoryText))
	}
	b.WriteString("\nCover these aspects:\n")
	b.WriteString("1. Overall psychological state\n")
	b.WriteString("2. Dominant personality traits\n")
	b.WriteString("3. Emotional patterns and regulation capacity\n")
	b.WriteString("4. Interpersonal relationship patterns\n")
	b.WriteString("5. Coping mechanisms and defense strategies\n")
	b.WriteString("6. Psychological needs\n")
	b.WriteString("7. Potential mental-health indicators\n")
	b.WriteString("8. Developmental observations and points of attention\n")
	return b.String()
}

func describeParticipant(participant participants.Participant) string {
	var parts []string
	if participant.Age != nil {
		parts = append(parts, fmt.Sprintf("age %d", *participant.Age))
	}
	if participant.Gender != "" {
		parts = append(parts, "gender "+participant.Gender)
	}
	if participant.EducationLevel != "" {
		parts = append(parts, "education "+participant.EducationLevel)
	}
	if participant.Occupation != "" {
		parts = append(parts, "occupation "+participant.Occupation)
	}
	if len(parts) == 0 {
		return "no demographic information provided"
	}
	return strings.Join(parts, ", ")
}

// summarizeStory truncates long narratives the way the session prompt embeds
// them, on a rune boundary.
func summarizeStory(story string) string {
	const maxRunes = 200
	runes := []rune(story)
	if len(runes) <= maxRunes {
		return story
	}
	return string(runes[:maxRunes]) + "..."
}
