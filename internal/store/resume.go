package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/vportnov/resume-scout/internal/analysis"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status is the lifecycle state of a resume record.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ErrResumeNotFound is returned when a record does not exist or belongs to
// another owner.
var ErrResumeNotFound = errors.New("resume not found")

// ResumeRecord is the composite persisted analysis: the header row plus all
// child collections.
type ResumeRecord struct {
	ID              uuid.UUID
	OwnerID         uuid.UUID
	Filename        string
	FileURL         string
	ExtractedText   *string
	Score           float64
	ExperienceLevel analysis.ExperienceLevel
	TotalExperience float64
	Status          Status
	CreatedAt       time.Time

	Skills   []analysis.Skill
	Feedback []string
	Jobs     []analysis.JobListing
}

// Result carries everything Finalize merges into a placeholder record.
type Result struct {
	Score           float64
	ExperienceLevel analysis.ExperienceLevel
	TotalExperience float64
	ExtractedText   string
	Skills          []analysis.Skill
	Feedback        []string
	Jobs            []analysis.JobListing
}

// CreatePlaceholder inserts a new record in processing state, marking intent
// before the analysis has produced anything.
func (s *Store) CreatePlaceholder(ctx context.Context, filename, fileURL string, ownerID uuid.UUID) (*ResumeRecord, error) {
	record := &ResumeRecord{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Filename:        filename,
		FileURL:         fileURL,
		ExperienceLevel: analysis.ExperienceEntry,
		Status:          StatusProcessing,
		CreatedAt:       time.Now().UTC(),
	}

	_, err := s.db.Exec(ctx, `
INSERT INTO resumes (id, owner_id, filename, file_url, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, record.ID, record.OwnerID, record.Filename, record.FileURL, record.Status, record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create resume record: %w", err)
	}

	s.logger.Debug("created placeholder record",
		zap.String("resume_id", record.ID.String()),
		zap.String("owner_id", ownerID.String()),
	)

	return record, nil
}

// Finalize merges the analysis into the placeholder: it sanitizes the input,
// updates the header to completed, fans out the child-row inserts and re-reads
// the composite record so the caller observes exactly what was committed.
// Sub-writes are not transactional; the first failure aborts the update and
// already-applied writes are not rolled back.
func (s *Store) Finalize(ctx context.Context, resumeID uuid.UUID, res Result) (*ResumeRecord, error) {
	res = sanitizeResult(res)

	tag, err := s.db.Exec(ctx, `
UPDATE resumes
SET score = $2, experience_level = $3, total_experience = $4, extracted_text = $5, status = $6
WHERE id = $1
`, resumeID, res.Score, res.ExperienceLevel, res.TotalExperience, nullable(res.ExtractedText), StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("update resume header: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrResumeNotFound
	}

	// The three child groups are independent of each other and may run
	// concurrently; the header update above must already be committed.
	group, groupCtx := errgroup.WithContext(ctx)
	if len(res.Skills) > 0 {
		group.Go(func() error { return s.insertSkills(groupCtx, resumeID, res.Skills) })
	}
	if len(res.Feedback) > 0 {
		group.Go(func() error { return s.insertFeedback(groupCtx, resumeID, res.Feedback) })
	}
	if len(res.Jobs) > 0 {
		group.Go(func() error { return s.insertJobs(groupCtx, resumeID, res.Jobs) })
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("finalized resume record",
		zap.String("resume_id", resumeID.String()),
		zap.Int("skills", len(res.Skills)),
		zap.Int("feedback", len(res.Feedback)),
		zap.Int("jobs", len(res.Jobs)),
	)

	return s.GetResume(ctx, resumeID)
}

// MarkFailed flips a record to failed state. Callers use it when a stage after
// record creation fails; Finalize itself never writes this status.
func (s *Store) MarkFailed(ctx context.Context, resumeID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `UPDATE resumes SET status = $2 WHERE id = $1`, resumeID, StatusFailed)
	if err != nil {
		return fmt.Errorf("mark resume failed: %w", err)
	}
	return nil
}

func (s *Store) insertSkills(ctx context.Context, resumeID uuid.UUID, skills []analysis.Skill) error {
	for _, skill := range skills {
		_, err := s.db.Exec(ctx, `
INSERT INTO skills (resume_id, name, category, confidence, years)
VALUES ($1, $2, $3, $4, NULLIF($5, 0.0))
`, resumeID, skill.Name, skill.Category, skill.Confidence, skill.Years)
		if err != nil {
			return fmt.Errorf("insert skills: %w", err)
		}
	}
	return nil
}

func (s *Store) insertFeedback(ctx context.Context, resumeID uuid.UUID, feedback []string) error {
	for _, suggestion := range feedback {
		_, err := s.db.Exec(ctx, `
INSERT INTO feedback (resume_id, suggestion)
VALUES ($1, $2)
`, resumeID, suggestion)
		if err != nil {
			return fmt.Errorf("insert feedback: %w", err)
		}
	}
	return nil
}

func (s *Store) insertJobs(ctx context.Context, resumeID uuid.UUID, jobs []analysis.JobListing) error {
	for _, job := range jobs {
		_, err := s.db.Exec(ctx, `
INSERT INTO job_listings (resume_id, title, company, location, match_percentage, apply_url, description, salary_range, required_experience, job_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`, resumeID, job.Title, job.Company, job.Location, job.MatchPercentage, job.ApplyURL,
			job.Description, job.SalaryRange, job.RequiredExperience, job.JobType)
		if err != nil {
			return fmt.Errorf("insert job listings: %w", err)
		}
	}
	return nil
}

// GetResume loads the composite record: header plus all child collections.
func (s *Store) GetResume(ctx context.Context, resumeID uuid.UUID) (*ResumeRecord, error) {
	record, err := s.scanHeader(s.db.QueryRow(ctx, `
SELECT id, owner_id, filename, file_url, extracted_text, score, experience_level, total_experience, status, created_at
FROM resumes WHERE id = $1
`, resumeID))
	if err != nil {
		return nil, err
	}

	if record.Skills, err = s.loadSkills(ctx, resumeID); err != nil {
		return nil, err
	}
	if record.Feedback, err = s.loadFeedback(ctx, resumeID); err != nil {
		return nil, err
	}
	if record.Jobs, err = s.loadJobs(ctx, resumeID); err != nil {
		return nil, err
	}

	return record, nil
}

// GetResumeForOwner is the ownership-scoped variant of GetResume.
func (s *Store) GetResumeForOwner(ctx context.Context, ownerID, resumeID uuid.UUID) (*ResumeRecord, error) {
	record, err := s.GetResume(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	if record.OwnerID != ownerID {
		return nil, ErrResumeNotFound
	}
	return record, nil
}

// ListResumes returns header rows for an owner, newest first. Child
// collections are not loaded.
func (s *Store) ListResumes(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*ResumeRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
SELECT id, owner_id, filename, file_url, extracted_text, score, experience_level, total_experience, status, created_at
FROM resumes WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	defer rows.Close()

	var records []*ResumeRecord
	for rows.Next() {
		record, err := s.scanHeader(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func (s *Store) scanHeader(row scannable) (*ResumeRecord, error) {
	var record ResumeRecord
	err := row.Scan(
		&record.ID, &record.OwnerID, &record.Filename, &record.FileURL, &record.ExtractedText,
		&record.Score, &record.ExperienceLevel, &record.TotalExperience, &record.Status, &record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan resume: %w", err)
	}
	record.CreatedAt = record.CreatedAt.UTC()
	return &record, nil
}

func (s *Store) loadSkills(ctx context.Context, resumeID uuid.UUID) ([]analysis.Skill, error) {
	rows, err := s.db.Query(ctx, `
SELECT name, category, confidence, COALESCE(years, 0)
FROM skills WHERE resume_id = $1 ORDER BY id
`, resumeID)
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	defer rows.Close()

	var skills []analysis.Skill
	for rows.Next() {
		var skill analysis.Skill
		if err := rows.Scan(&skill.Name, &skill.Category, &skill.Confidence, &skill.Years); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		skills = append(skills, skill)
	}
	return skills, rows.Err()
}

func (s *Store) loadFeedback(ctx context.Context, resumeID uuid.UUID) ([]string, error) {
	rows, err := s.db.Query(ctx, `
SELECT suggestion FROM feedback WHERE resume_id = $1 ORDER BY id
`, resumeID)
	if err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}
	defer rows.Close()

	var feedback []string
	for rows.Next() {
		var suggestion string
		if err := rows.Scan(&suggestion); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		feedback = append(feedback, suggestion)
	}
	return feedback, rows.Err()
}

func (s *Store) loadJobs(ctx context.Context, resumeID uuid.UUID) ([]analysis.JobListing, error) {
	rows, err := s.db.Query(ctx, `
SELECT title, company, location, match_percentage, apply_url, description, salary_range, required_experience, job_type
FROM job_listings WHERE resume_id = $1 ORDER BY id
`, resumeID)
	if err != nil {
		return nil, fmt.Errorf("load job listings: %w", err)
	}
	defer rows.Close()

	var jobs []analysis.JobListing
	for rows.Next() {
		var job analysis.JobListing
		err := rows.Scan(
			&job.Title, &job.Company, &job.Location, &job.MatchPercentage, &job.ApplyURL,
			&job.Description, &job.SalaryRange, &job.RequiredExperience, &job.JobType,
		)
		if err != nil {
			return nil, fmt.Errorf("scan job listing: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// sanitizeResult bounds numeric fields and defaults enum fields before the
// header write. NaN carries "the upstream value was not a number".
func sanitizeResult(res Result) Result {
	if math.IsNaN(res.Score) {
		res.Score = 0
	}
	res.Score = analysis.ClampScore(res.Score)

	if math.IsNaN(res.TotalExperience) || res.TotalExperience < 0 {
		res.TotalExperience = 0
	}

	res.ExperienceLevel = analysis.NormalizeExperienceLevel(string(res.ExperienceLevel))

	for i, skill := range res.Skills {
		if math.IsNaN(skill.Confidence) {
			skill.Confidence = analysis.DefaultSkillConfidence
		}
		skill.Confidence = analysis.ClampConfidence(skill.Confidence)
		skill.Category = analysis.NormalizeSkillCategory(string(skill.Category))
		if math.IsNaN(skill.Years) || skill.Years < 0 {
			skill.Years = 0
		}
		res.Skills[i] = skill
	}

	for i, job := range res.Jobs {
		if math.IsNaN(job.MatchPercentage) {
			job.MatchPercentage = 0
		}
		job.MatchPercentage = analysis.ClampScore(job.MatchPercentage)
		res.Jobs[i] = job
	}

	return res
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
