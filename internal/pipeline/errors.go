package pipeline

import (
	"fmt"

	"github.com/google/uuid"
)

// Stage identifies the pipeline stage an error halted at. A job-search failure
// never appears here: that stage is absorbed into an empty result.
type Stage string

const (
	StageUpload  Stage = "upload"
	StageRecord  Stage = "record"
	StageExtract Stage = "extract"
	StagePersist Stage = "persist"
)

// Error is the discriminated failure surfaced to the caller. ResumeID is set
// once a placeholder record exists, so the caller can mark it failed.
type Error struct {
	Stage    Stage
	ResumeID uuid.UUID
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, resumeID uuid.UUID, err error) *Error {
	return &Error{Stage: stage, ResumeID: resumeID, Err: err}
}
