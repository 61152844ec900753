package analyses

import (
	"reflect"
	"testing"
)

func TestParseCompletionLabeledReply(t *testing.T) {
	raw := "The story centers on achievement striving.\n\n" +
		"Emotional Tone: complex\n" +
		"Themes: achievement, fear of failure, autonomy\n" +
		"Personality Traits: conscientiousness, neuroticism\n" +
		"Emotional Patterns: suppressed anxiety\n" +
		"Recommendations: explore performance pressure in follow-up\n" +
		"Confidence: 0.85\n"

	got := ParseCompletion(raw)
	if got.EmotionalTone != "complex" {
		t.Fatalf("emotional tone = %q", got.EmotionalTone)
	}
	wantThemes := []string{"achievement", "fear of failure", "autonomy"}
	if !reflect.DeepEqual(got.Themes, wantThemes) {
		t.Fatalf("themes = %v, want %v", got.Themes, wantThemes)
	}
	if !reflect.DeepEqual(got.PersonalityTraits, []string{"conscientiousness", "neuroticism"}) {
		t.Fatalf("traits = %v", got.PersonalityTraits)
	}
	if !reflect.DeepEqual(got.EmotionalPatterns, []string{"suppressed anxiety"}) {
		t.Fatalf("patterns = %v", got.EmotionalPatterns)
	}
	if got.Recommendations != "explore performance pressure in follow-up" {
		t.Fatalf("recommendations = %q", got.Recommendations)
	}
	if !got.HasConfidence || got.Confidence != 0.85 {
		t.Fatalf("confidence = %v (has=%v)", got.Confidence, got.HasConfidence)
	}
	if !got.Extracted() {
		t.Fatalf("expected Extracted to be true")
	}
}

func TestParseCompletionToleratesDecoration(t *testing.T) {
	raw := "**Themes**: intimacy，loss\n" +
		"- Personality Traits: openness；agreeableness\n" +
		"* Confidence: 85%\n"

	got := ParseCompletion(raw)
	if !reflect.DeepEqual(got.Themes, []string{"intimacy", "loss"}) {
		t.Fatalf("themes = %v", got.Themes)
	}
	if !reflect.DeepEqual(got.PersonalityTraits, []string{"openness", "agreeableness"}) {
		t.Fatalf("traits = %v", got.PersonalityTraits)
	}
	if !got.HasConfidence || got.Confidence != 0.85 {
		t.Fatalf("confidence = %v (has=%v)", got.Confidence, got.HasConfidence)
	}
}

func TestParseCompletionFullWidthColon(t *testing.T) {
	got := ParseCompletion("Themes：成就，亲密关系\nConfidence：0.7")
	if !reflect.DeepEqual(got.Themes, []string{"成就", "亲密关系"}) {
		t.Fatalf("themes = %v", got.Themes)
	}
	if !got.HasConfidence || got.Confidence != 0.7 {
		t.Fatalf("confidence = %v", got.Confidence)
	}
}

func TestParseCompletionConfidenceClamped(t *testing.T) {
	for raw, want := range map[string]float64{
		"Confidence: 1.7":  1,
		"Confidence: -0.3": 0,
		"Confidence: 0.42": 0.42,
	} {
		got := ParseCompletion(raw)
		if !got.HasConfidence || got.Confidence != want {
			t.Fatalf("ParseCompletion(%q).Confidence = %v, want %v", raw, got.Confidence, want)
		}
	}
}

func TestParseCompletionUnstructuredReply(t *testing.T) {
	got := ParseCompletion("This narrative reflects a rich inner life without clear markers.")
	if got.Extracted() {
		t.Fatalf("expected no structured fields, got %+v", got)
	}
}

func TestParseCompletionIgnoresBadConfidence(t *testing.T) {
	got := ParseCompletion("Themes: power\nConfidence: fairly high")
	if got.HasConfidence {
		t.Fatalf("expected non-numeric confidence to be dropped")
	}
	if !got.Extracted() {
		t.Fatalf("themes should still be extracted")
	}
}
