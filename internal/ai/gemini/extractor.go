package gemini

import (
	"context"
	"fmt"
	"unicode/utf8"

	_ "embed"

	"github.com/vportnov/resume-scout/internal/analysis"
	"github.com/vportnov/resume-scout/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

//go:embed extract_prompt.md
var extractPrompt string

const defaultMaxLogLength = 200

type structuredGenerator interface {
	GenerateStructured(ctx context.Context, instruction string, data []byte, mimeType string, schema *genai.Schema) (string, error)
}

// Extractor turns a resume file into a structured assessment using a single
// schema-constrained Gemini call. There is no retry and no output repair at
// this layer: a response that is not valid JSON is a hard failure.
type Extractor struct {
	generator structuredGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewExtractor(generator structuredGenerator, logger *zap.Logger, maxLogLength int) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Extractor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (*analysis.Extraction, error) {
	e.logger.Debug("gemini extraction request",
		zap.String("mime_type", mimeType),
		zap.Int("file_size", len(data)),
	)

	raw, err := e.generator.GenerateStructured(ctx, extractPrompt, data, mimeType, extractionSchema())
	if err != nil {
		return nil, fmt.Errorf("structured extraction: %w", err)
	}

	e.logger.Debug("gemini extraction response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	extraction, err := analysis.ParseExtraction(raw)
	if err != nil {
		return nil, err
	}

	return extraction, nil
}

// extractionSchema is the fixed output contract for the extraction call. The
// model must return exactly one object of this shape.
func extractionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score": {
				Type:        genai.TypeNumber,
				Description: "Overall resume score from 0 to 100.",
			},
			"experience_level": {
				Type: genai.TypeString,
				Enum: []string{"entry-level", "junior", "mid-level", "senior"},
			},
			"total_experience": {
				Type:        genai.TypeNumber,
				Description: "Total professional experience in years.",
			},
			"feedback": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "3 to 5 improvement suggestions.",
			},
			"skills": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name": {Type: genai.TypeString},
						"category": {
							Type: genai.TypeString,
							Enum: []string{"technical", "soft", "domain"},
						},
						"confidence": {
							Type:        genai.TypeNumber,
							Description: "Confidence from 0 to 1.",
						},
					},
					Required: []string{"name", "category", "confidence"},
				},
			},
			"job_titles": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "3 to 5 job titles to search for.",
			},
			"extracted_text": {
				Type:        genai.TypeString,
				Description: "Plain text content of the resume.",
			},
		},
		Required: []string{"score", "experience_level", "total_experience", "feedback", "skills", "job_titles"},
	}
}
