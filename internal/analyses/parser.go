package analyses

import (
	"strconv"
	"strings"
)

// ParsedResult is the typed outcome of parsing a completion reply. Fields
// are best-effort: a reply that yields nothing extractable is still usable
// through the degraded path.
type ParsedResult struct {
	EmotionalTone     string
	Themes            []string
	PersonalityTraits []string
	EmotionalPatterns []string
	Recommendations   string
	Confidence        float64
	HasConfidence     bool
}

// Extracted reports whether any structured field was recognized.
func (p ParsedResult) Extracted() bool {
	return p.EmotionalTone != "" ||
		len(p.Themes) > 0 ||
		len(p.PersonalityTraits) > 0 ||
		len(p.EmotionalPatterns) > 0 ||
		p.Recommendations != "" ||
		p.HasConfidence
}

// ParseCompletion extracts the labeled lines the prompt asks for. Headers
// are matched case-insensitively and tolerate markdown decoration; unknown
// lines are ignored.
func ParseCompletion(raw string) ParsedResult {
	var result ParsedResult
	for _, line := range strings.Split(raw, "\n") {
		line = trimDecoration(line)
		if line == "" {
			continue
		}
		switch key, value := splitLabeled(line); key {
		case "emotional tone":
			result.EmotionalTone = value
		case "themes":
			result.Themes = splitList(value)
		case "personality traits":
			result.PersonalityTraits = splitList(value)
		case "emotional patterns":
			result.EmotionalPatterns = splitList(value)
		case "recommendations":
			result.Recommendations = value
		case "confidence":
			if score, ok := parseConfidence(value); ok {
				result.Confidence = score
				result.HasConfidence = true
			}
		}
	}
	return result
}

func splitLabeled(line string) (string, string) {
	idx := strings.IndexAny(line, ":：")
	if idx < 0 {
		return "", ""
	}
	key := strings.ToLower(strings.TrimSpace(strings.Trim(line[:idx], "*# ")))
	value := strings.TrimSpace(strings.TrimPrefix(line[idx:], ":"))
	value = strings.TrimSpace(strings.TrimPrefix(value, "："))
	return key, value
}

func trimDecoration(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "- ")
	line = strings.TrimPrefix(line, "* ")
	line = strings.Trim(line, "*")
	return strings.TrimSpace(line)
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == '，' || r == '、' || r == '；'
	})
	var out []string
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseConfidence(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	// Tolerate trailing prose after the number.
	if idx := strings.IndexAny(value, " \t"); idx > 0 {
		value = value[:idx]
	}
	isPercent := strings.HasSuffix(value, "%")
	value = strings.TrimSuffix(value, "%")
	score, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	if isPercent {
		score /= 100
	}
	return clampConfidence(score), true
}

func clampConfidence(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
