package analysis

import "strings"

// ExperienceLevel is the seniority tier assigned to a candidate.
type ExperienceLevel string

const (
	ExperienceEntry  ExperienceLevel = "entry-level"
	ExperienceJunior ExperienceLevel = "junior"
	ExperienceMid    ExperienceLevel = "mid-level"
	ExperienceSenior ExperienceLevel = "senior"
)

// SkillCategory classifies an extracted skill.
type SkillCategory string

const (
	CategoryTechnical SkillCategory = "technical"
	CategorySoft      SkillCategory = "soft"
	CategoryDomain    SkillCategory = "domain"
)

// DefaultSkillConfidence is used when the model omits a confidence value or
// returns something that is not a number.
const DefaultSkillConfidence = 0.8

// Skill is a single skill the model found in the resume.
type Skill struct {
	Name       string        `json:"name"`
	Category   SkillCategory `json:"category"`
	Confidence float64       `json:"confidence"`
	Years      float64       `json:"years,omitempty"`
}

// JobListing is a normalized job posting from any job source backend.
type JobListing struct {
	Title              string  `json:"title"`
	Company            string  `json:"company"`
	Location           string  `json:"location"`
	MatchPercentage    float64 `json:"match_percentage"`
	ApplyURL           string  `json:"apply_url"`
	Description        string  `json:"description"`
	SalaryRange        string  `json:"salary_range"`
	RequiredExperience string  `json:"required_experience"`
	JobType            string  `json:"job_type"`
}

// Extraction is the structured assessment derived from a resume. Its shape is
// the contract the structured-generation call must conform to.
type Extraction struct {
	Score           float64         `json:"score"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	TotalExperience float64         `json:"total_experience"`
	Feedback        []string        `json:"feedback"`
	Skills          []Skill         `json:"skills"`
	JobTitles       []string        `json:"job_titles"`
	ExtractedText   string          `json:"extracted_text,omitempty"`
}

// NormalizeExperienceLevel maps arbitrary model output onto a known tier,
// falling back to the lowest one.
func NormalizeExperienceLevel(v string) ExperienceLevel {
	switch ExperienceLevel(strings.ToLower(strings.TrimSpace(v))) {
	case ExperienceJunior:
		return ExperienceJunior
	case ExperienceMid:
		return ExperienceMid
	case ExperienceSenior:
		return ExperienceSenior
	default:
		return ExperienceEntry
	}
}

// NormalizeSkillCategory maps arbitrary model output onto a known category,
// falling back to technical.
func NormalizeSkillCategory(v string) SkillCategory {
	switch SkillCategory(strings.ToLower(strings.TrimSpace(v))) {
	case CategorySoft:
		return CategorySoft
	case CategoryDomain:
		return CategoryDomain
	default:
		return CategoryTechnical
	}
}

// ClampScore bounds a score to [0,100].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ClampConfidence bounds a confidence to [0,1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
