package pipeline

// Progress is a human-readable milestone with a completion percentage. It is
// an observability contract only; percentages increase monotonically through
// a run.
type Progress struct {
	Status  string
	Percent int
}

// ProgressFunc receives milestones as the pipeline crosses stage boundaries.
type ProgressFunc func(Progress)

var (
	progressUploadStarted      = Progress{Status: "uploading resume", Percent: 10}
	progressUploadComplete     = Progress{Status: "resume uploaded", Percent: 25}
	progressRecordCreated      = Progress{Status: "analysis record created", Percent: 40}
	progressExtractionComplete = Progress{Status: "resume analyzed", Percent: 70}
	progressJobSearchComplete  = Progress{Status: "job search finished", Percent: 90}
	progressComplete           = Progress{Status: "analysis complete", Percent: 100}
)
