package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseExtraction decodes the raw model output into an Extraction. The input
// must be exactly one JSON object; malformed JSON is a hard failure here, the
// repair loop lives in the job search layer only. Individual fields of the
// wrong type are coerced rather than rejected.
func ParseExtraction(raw string) (*Extraction, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}

	score := CoerceFloat(data["score"])
	if math.IsNaN(score) {
		score = 0
	}

	total := CoerceFloat(data["total_experience"])
	if math.IsNaN(total) || total < 0 {
		total = 0
	}

	out := &Extraction{
		Score:           ClampScore(score),
		ExperienceLevel: NormalizeExperienceLevel(CoerceString(data["experience_level"])),
		TotalExperience: total,
		Feedback:        coerceStringSlice(data["feedback"]),
		JobTitles:       coerceStringSlice(data["job_titles"]),
		ExtractedText:   CoerceString(data["extracted_text"]),
	}

	items, _ := data["skills"].([]any)
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := CoerceString(entry["name"])
		if name == "" {
			continue
		}
		confidence := CoerceFloat(entry["confidence"])
		if math.IsNaN(confidence) {
			confidence = DefaultSkillConfidence
		}
		years := CoerceFloat(entry["years"])
		if math.IsNaN(years) || years < 0 {
			years = 0
		}
		out.Skills = append(out.Skills, Skill{
			Name:       name,
			Category:   NormalizeSkillCategory(CoerceString(entry["category"])),
			Confidence: ClampConfidence(confidence),
			Years:      years,
		})
	}

	return out, nil
}

func coerceStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		s := CoerceString(item)
		if s == "" {
			continue
		}
		result = append(result, s)
	}
	return result
}

// CoerceFloat converts loosely typed model output into a float64, returning
// NaN when the value is absent or not numeric.
func CoerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// CoerceString converts loosely typed model output into a trimmed string.
func CoerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
