package ai

import (
	"context"

	"github.com/vportnov/resume-scout/internal/analysis"
)

// Extractor derives a structured assessment from a raw resume file.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (*analysis.Extraction, error)
}
