package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vportnov/resume-scout/internal/ai"
	"github.com/vportnov/resume-scout/internal/jobsearch"
	"github.com/vportnov/resume-scout/internal/storage"
	"github.com/vportnov/resume-scout/internal/store"
	"go.uber.org/zap"
)

// MaxFileSize is the upload ceiling. A file at exactly this size is accepted.
const MaxFileSize = 5 << 20

var supportedMimeTypes = map[string]string{
	"application/pdf": "pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
}

// Recorder is the persistence coordinator surface the pipeline drives.
type Recorder interface {
	CreatePlaceholder(ctx context.Context, filename, fileURL string, ownerID uuid.UUID) (*store.ResumeRecord, error)
	Finalize(ctx context.Context, resumeID uuid.UUID, res store.Result) (*store.ResumeRecord, error)
}

// Deps aggregates the collaborators a Pipeline orchestrates.
type Deps struct {
	Uploader  storage.Uploader
	Records   Recorder
	Extractor ai.Extractor
	Jobs      jobsearch.Source
	Logger    *zap.Logger
	Progress  ProgressFunc
}

// Input is one analysis request.
type Input struct {
	Filename string
	MimeType string
	Data     []byte
	OwnerID  uuid.UUID
}

// Pipeline runs the full analysis sequence: upload, placeholder creation,
// structured extraction, job-search grounding and persistence. It is a pure
// function of its input plus the injected collaborators; it never touches
// ambient state and never writes a failed status itself.
type Pipeline struct {
	uploader  storage.Uploader
	records   Recorder
	extractor ai.Extractor
	jobs      jobsearch.Source
	logger    *zap.Logger
	progress  ProgressFunc
}

func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		uploader:  deps.Uploader,
		records:   deps.Records,
		extractor: deps.Extractor,
		jobs:      deps.Jobs,
		logger:    logger,
		progress:  deps.Progress,
	}
}

// Run executes the pipeline and returns the finalized composite record. Stages
// are strictly sequential; the first failure from upload, record creation,
// extraction or persistence aborts the run. A job-search failure is never
// fatal.
func (p *Pipeline) Run(ctx context.Context, input Input) (*store.ResumeRecord, error) {
	if err := ValidateFile(input.Data, input.MimeType); err != nil {
		return nil, stageError(StageUpload, uuid.Nil, err)
	}

	p.report(progressUploadStarted)

	path := storage.ObjectPath(input.OwnerID, input.Filename)
	fileURL, err := p.uploader.Upload(ctx, path, input.Data, input.MimeType)
	if err != nil {
		return nil, stageError(StageUpload, uuid.Nil, err)
	}

	p.logger.Info("resume uploaded",
		zap.String("owner_id", input.OwnerID.String()),
		zap.String("path", path),
	)
	p.report(progressUploadComplete)

	record, err := p.records.CreatePlaceholder(ctx, input.Filename, fileURL, input.OwnerID)
	if err != nil {
		return nil, stageError(StageRecord, uuid.Nil, err)
	}

	p.report(progressRecordCreated)

	extraction, err := p.extractor.Extract(ctx, input.Data, input.MimeType)
	if err != nil {
		return nil, stageError(StageExtract, record.ID, err)
	}

	p.logger.Info("resume analyzed",
		zap.String("resume_id", record.ID.String()),
		zap.Float64("score", extraction.Score),
		zap.Int("skills", len(extraction.Skills)),
		zap.Strings("job_titles", extraction.JobTitles),
	)
	p.report(progressExtractionComplete)

	jobs := p.jobs.ResolveJobs(ctx, extraction.JobTitles)

	p.logger.Info("job search finished",
		zap.String("resume_id", record.ID.String()),
		zap.Int("listings", len(jobs)),
	)
	p.report(progressJobSearchComplete)

	final, err := p.records.Finalize(ctx, record.ID, store.Result{
		Score:           extraction.Score,
		ExperienceLevel: extraction.ExperienceLevel,
		TotalExperience: extraction.TotalExperience,
		ExtractedText:   extraction.ExtractedText,
		Skills:          extraction.Skills,
		Feedback:        extraction.Feedback,
		Jobs:            jobs,
	})
	if err != nil {
		return nil, stageError(StagePersist, record.ID, err)
	}

	p.report(progressComplete)

	return final, nil
}

// ValidateFile enforces the document type and size ceiling. It runs before
// any network call is made.
func ValidateFile(data []byte, mimeType string) error {
	if len(data) == 0 {
		return fmt.Errorf("file is empty")
	}
	if len(data) > MaxFileSize {
		return fmt.Errorf("file size %d exceeds limit of %d bytes", len(data), MaxFileSize)
	}
	if _, ok := supportedMimeTypes[mimeType]; !ok {
		return fmt.Errorf("unsupported file type %q, expected PDF or DOCX", mimeType)
	}
	return nil
}

func (p *Pipeline) report(progress Progress) {
	if p.progress != nil {
		p.progress(progress)
	}
}
