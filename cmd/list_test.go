package cmd

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vportnov/resume-scout/internal/analysis"
	"github.com/vportnov/resume-scout/internal/store"
)

func TestSummarizeResumes(t *testing.T) {
	id := uuid.New()
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	summaries := summarizeResumes([]*store.ResumeRecord{{
		ID:              id,
		Filename:        "cv.pdf",
		Score:           82,
		ExperienceLevel: analysis.ExperienceMid,
		Status:          store.StatusCompleted,
		CreatedAt:       created,
		Skills:          []analysis.Skill{{Name: "Go"}},
		Jobs: []analysis.JobListing{
			{Title: "Backend Engineer"},
			{Title: "SRE"},
		},
	}})

	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}

	summary := summaries[0]
	if summary.ID != id.String() {
		t.Fatalf("expected id %s, got %s", id, summary.ID)
	}
	if summary.Filename != "cv.pdf" || summary.Status != "completed" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Score != 82 || summary.ExperienceLevel != "mid-level" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Skills != 1 || summary.Jobs != 2 {
		t.Fatalf("expected child counts 1/2, got %d/%d", summary.Skills, summary.Jobs)
	}
	if summary.CreatedAt != "2026-08-01T12:00:00Z" {
		t.Fatalf("unexpected created_at: %s", summary.CreatedAt)
	}

	if empty := summarizeResumes(nil); len(empty) != 0 {
		t.Fatalf("expected no summaries for empty input, got %d", len(empty))
	}
}
