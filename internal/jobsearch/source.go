package jobsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/vportnov/resume-scout/internal/analysis"
)

// NotSpecified is the fallback value for string fields a backend did not supply.
const NotSpecified = "Not specified"

// Source retrieves live job listings for the extracted job titles. Job matches
// are an enhancement, not a requirement: implementations never fail outward
// and return an empty slice on any unrecoverable error.
type Source interface {
	ResolveJobs(ctx context.Context, titles []string) []analysis.JobListing
}

// ParseListings decodes a JSON array of job listings from raw model output.
// Leading and trailing code-fence markers are stripped before parsing, so a
// fenced response parses identically to its interior content.
func ParseListings(raw string) ([]analysis.JobListing, error) {
	cleaned := extractJSON(raw)

	var items []any
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, fmt.Errorf("parse job listings: %w", err)
	}

	listings := make([]analysis.JobListing, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		title := analysis.CoerceString(entry["title"])
		if title == "" {
			continue
		}

		match := analysis.CoerceFloat(entry["match_percentage"])
		if math.IsNaN(match) {
			match = 0
		}

		listings = append(listings, analysis.JobListing{
			Title:              title,
			Company:            orNotSpecified(analysis.CoerceString(entry["company"])),
			Location:           orNotSpecified(analysis.CoerceString(entry["location"])),
			MatchPercentage:    analysis.ClampScore(match),
			ApplyURL:           analysis.CoerceString(entry["apply_url"]),
			Description:        analysis.CoerceString(entry["description"]),
			SalaryRange:        orNotSpecified(analysis.CoerceString(entry["salary_range"])),
			RequiredExperience: orNotSpecified(analysis.CoerceString(entry["required_experience"])),
			JobType:            orNotSpecified(analysis.CoerceString(entry["job_type"])),
		})
	}

	return listings, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func orNotSpecified(s string) string {
	if s == "" {
		return NotSpecified
	}
	return s
}
