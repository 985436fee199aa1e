package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/vportnov/resume-scout/internal/analysis"
	"github.com/vportnov/resume-scout/internal/store"
	"go.uber.org/zap"
)

type stubUploader struct {
	url      string
	err      error
	calls    int
	lastPath string
}

func (s *stubUploader) Upload(_ context.Context, path string, _ []byte, _ string) (string, error) {
	s.calls++
	s.lastPath = path
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

type stubRecorder struct {
	createErr   error
	finalizeErr error

	created       *store.ResumeRecord
	finalized     *store.ResumeRecord
	lastResult    store.Result
	finalizeCalls int
}

func (s *stubRecorder) CreatePlaceholder(_ context.Context, filename, fileURL string, ownerID uuid.UUID) (*store.ResumeRecord, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = &store.ResumeRecord{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Filename: filename,
		FileURL:  fileURL,
		Status:   store.StatusProcessing,
	}
	return s.created, nil
}

func (s *stubRecorder) Finalize(_ context.Context, resumeID uuid.UUID, res store.Result) (*store.ResumeRecord, error) {
	s.finalizeCalls++
	s.lastResult = res
	if s.finalizeErr != nil {
		return nil, s.finalizeErr
	}
	s.finalized = &store.ResumeRecord{
		ID:       resumeID,
		OwnerID:  s.created.OwnerID,
		Filename: s.created.Filename,
		FileURL:  s.created.FileURL,
		Score:    res.Score,
		Status:   store.StatusCompleted,
		Skills:   res.Skills,
		Feedback: res.Feedback,
		Jobs:     res.Jobs,
	}
	return s.finalized, nil
}

type stubExtractor struct {
	extraction *analysis.Extraction
	err        error
	calls      int
}

func (s *stubExtractor) Extract(_ context.Context, _ []byte, _ string) (*analysis.Extraction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.extraction, nil
}

type stubSource struct {
	listings   []analysis.JobListing
	calls      int
	lastTitles []string
}

func (s *stubSource) ResolveJobs(_ context.Context, titles []string) []analysis.JobListing {
	s.calls++
	s.lastTitles = titles
	return s.listings
}

func pdfInput(size int) Input {
	return Input{
		Filename: "cv.pdf",
		MimeType: "application/pdf",
		Data:     bytes.Repeat([]byte("a"), size),
		OwnerID:  uuid.New(),
	}
}

func newTestPipeline(uploader *stubUploader, recorder *stubRecorder, extractor *stubExtractor, source *stubSource, progress ProgressFunc) *Pipeline {
	return New(Deps{
		Uploader:  uploader,
		Records:   recorder,
		Extractor: extractor,
		Jobs:      source,
		Logger:    zap.NewNop(),
		Progress:  progress,
	})
}

func TestRunEndToEnd(t *testing.T) {
	uploader := &stubUploader{url: "https://files.example/u1/cv.pdf"}
	recorder := &stubRecorder{}
	extractor := &stubExtractor{extraction: &analysis.Extraction{
		Score:           82,
		ExperienceLevel: analysis.ExperienceMid,
		TotalExperience: 4,
		Feedback:        []string{"Add metrics"},
		Skills:          []analysis.Skill{{Name: "Go", Category: analysis.CategoryTechnical, Confidence: 0.9}},
		JobTitles:       []string{"Backend Engineer"},
	}}
	source := &stubSource{listings: []analysis.JobListing{{Title: "Backend Engineer", Company: "Acme"}}}

	var milestones []Progress
	pipeline := newTestPipeline(uploader, recorder, extractor, source, func(p Progress) {
		milestones = append(milestones, p)
	})

	record, err := pipeline.Run(context.Background(), pdfInput(2<<20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.Status != store.StatusCompleted {
		t.Fatalf("expected completed record, got %s", record.Status)
	}
	if record.Score != 82 {
		t.Fatalf("expected score 82, got %v", record.Score)
	}
	if len(record.Skills) != 1 {
		t.Fatalf("expected exactly 1 skill, got %d", len(record.Skills))
	}
	if len(record.Jobs) != 1 {
		t.Fatalf("expected exactly 1 job, got %d", len(record.Jobs))
	}
	if source.lastTitles[0] != "Backend Engineer" {
		t.Fatalf("expected extracted titles forwarded, got %v", source.lastTitles)
	}
	if !strings.HasSuffix(uploader.lastPath, "/cv.pdf") {
		t.Fatalf("expected original filename in object path, got %s", uploader.lastPath)
	}

	if len(milestones) != 6 {
		t.Fatalf("expected 6 milestones, got %d", len(milestones))
	}
	for i := 1; i < len(milestones); i++ {
		if milestones[i].Percent <= milestones[i-1].Percent {
			t.Fatalf("milestones not monotonically increasing: %+v", milestones)
		}
	}
	if milestones[len(milestones)-1].Percent != 100 {
		t.Fatalf("expected final milestone at 100%%, got %d", milestones[len(milestones)-1].Percent)
	}
}

func TestRunSizeBoundary(t *testing.T) {
	uploader := &stubUploader{url: "https://files.example/cv.pdf"}
	recorder := &stubRecorder{}
	extractor := &stubExtractor{extraction: &analysis.Extraction{}}
	source := &stubSource{}
	pipeline := newTestPipeline(uploader, recorder, extractor, source, nil)

	// Exactly at the ceiling is accepted.
	if _, err := pipeline.Run(context.Background(), pdfInput(MaxFileSize)); err != nil {
		t.Fatalf("expected file at ceiling to be accepted: %v", err)
	}

	// One byte over is rejected before any network call.
	uploader.calls = 0
	extractor.calls = 0
	_, err := pipeline.Run(context.Background(), pdfInput(MaxFileSize+1))
	if err == nil {
		t.Fatal("expected oversized file to be rejected")
	}
	var stageErr *Error
	if !errors.As(err, &stageErr) || stageErr.Stage != StageUpload {
		t.Fatalf("expected upload stage error, got %v", err)
	}
	if uploader.calls != 0 || extractor.calls != 0 {
		t.Fatal("expected rejection before any network call")
	}
}

func TestRunRejectsUnsupportedType(t *testing.T) {
	uploader := &stubUploader{}
	pipeline := newTestPipeline(uploader, &stubRecorder{}, &stubExtractor{}, &stubSource{}, nil)

	input := pdfInput(100)
	input.MimeType = "image/png"

	if _, err := pipeline.Run(context.Background(), input); err == nil {
		t.Fatal("expected unsupported type to be rejected")
	}
	if uploader.calls != 0 {
		t.Fatal("expected rejection before upload")
	}
}

func TestRunUploadFailureIsFatal(t *testing.T) {
	uploader := &stubUploader{err: errors.New("bucket unavailable")}
	recorder := &stubRecorder{}
	pipeline := newTestPipeline(uploader, recorder, &stubExtractor{}, &stubSource{}, nil)

	_, err := pipeline.Run(context.Background(), pdfInput(100))

	var stageErr *Error
	if !errors.As(err, &stageErr) || stageErr.Stage != StageUpload {
		t.Fatalf("expected upload stage error, got %v", err)
	}
	if recorder.created != nil {
		t.Fatal("expected no record after upload failure")
	}
}

func TestRunExtractionFailureIsFatal(t *testing.T) {
	uploader := &stubUploader{url: "https://files.example/cv.pdf"}
	recorder := &stubRecorder{}
	source := &stubSource{}
	pipeline := newTestPipeline(uploader, recorder, &stubExtractor{err: errors.New("model timeout")}, source, nil)

	_, err := pipeline.Run(context.Background(), pdfInput(100))

	var stageErr *Error
	if !errors.As(err, &stageErr) || stageErr.Stage != StageExtract {
		t.Fatalf("expected extract stage error, got %v", err)
	}
	if stageErr.ResumeID == uuid.Nil {
		t.Fatal("expected resume id on post-placeholder failure")
	}
	if source.calls != 0 {
		t.Fatal("expected no job search after extraction failure")
	}
	if recorder.finalizeCalls != 0 {
		t.Fatal("expected no finalize after extraction failure")
	}
}

func TestRunEmptyJobResultIsNotFatal(t *testing.T) {
	uploader := &stubUploader{url: "https://files.example/cv.pdf"}
	recorder := &stubRecorder{}
	extractor := &stubExtractor{extraction: &analysis.Extraction{
		Score:     70,
		JobTitles: []string{"Backend Engineer"},
	}}
	source := &stubSource{} // resolves nothing, e.g. both parse attempts failed
	pipeline := newTestPipeline(uploader, recorder, extractor, source, nil)

	record, err := pipeline.Run(context.Background(), pdfInput(100))
	if err != nil {
		t.Fatalf("expected empty job result to be benign: %v", err)
	}
	if record.Status != store.StatusCompleted {
		t.Fatalf("expected completed record, got %s", record.Status)
	}
	if len(recorder.lastResult.Jobs) != 0 {
		t.Fatalf("expected no jobs persisted, got %d", len(recorder.lastResult.Jobs))
	}
}

func TestRunPersistFailureIsFatal(t *testing.T) {
	uploader := &stubUploader{url: "https://files.example/cv.pdf"}
	recorder := &stubRecorder{finalizeErr: errors.New("insert job listings: connection reset")}
	extractor := &stubExtractor{extraction: &analysis.Extraction{Score: 70}}
	pipeline := newTestPipeline(uploader, recorder, extractor, &stubSource{}, nil)

	_, err := pipeline.Run(context.Background(), pdfInput(100))

	var stageErr *Error
	if !errors.As(err, &stageErr) || stageErr.Stage != StagePersist {
		t.Fatalf("expected persist stage error, got %v", err)
	}
	if stageErr.ResumeID == uuid.Nil {
		t.Fatal("expected resume id on persist failure")
	}
}
