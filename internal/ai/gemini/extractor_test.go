package gemini

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type stubStructuredGenerator struct {
	response     string
	err          error
	lastMimeType string
	lastSchema   *genai.Schema
	lastData     []byte
}

func (s *stubStructuredGenerator) GenerateStructured(_ context.Context, _ string, data []byte, mimeType string, schema *genai.Schema) (string, error) {
	s.lastData = data
	s.lastMimeType = mimeType
	s.lastSchema = schema
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestExtractorExtract(t *testing.T) {
	stub := &stubStructuredGenerator{response: `{
		"score": 82,
		"experience_level": "mid-level",
		"total_experience": 4,
		"feedback": ["Add metrics", "Quantify impact", "Tighten summary"],
		"skills": [{"name": "Go", "category": "technical", "confidence": 0.9}],
		"job_titles": ["Backend Engineer", "Platform Engineer", "SRE"]
	}`}
	extractor := NewExtractor(stub, zap.NewNop(), 0)

	extraction, err := extractor.Extract(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if extraction.Score != 82 {
		t.Fatalf("expected score 82, got %v", extraction.Score)
	}
	if len(extraction.Skills) != 1 || extraction.Skills[0].Name != "Go" {
		t.Fatalf("unexpected skills: %+v", extraction.Skills)
	}
	if stub.lastMimeType != "application/pdf" {
		t.Fatalf("expected pdf mime type, got %s", stub.lastMimeType)
	}
	if len(stub.lastData) == 0 {
		t.Fatal("expected file payload to be sent")
	}
	if stub.lastSchema == nil || stub.lastSchema.Type != genai.TypeObject {
		t.Fatal("expected object schema to be sent")
	}
	for _, field := range []string{"score", "experience_level", "total_experience", "feedback", "skills", "job_titles"} {
		if _, ok := stub.lastSchema.Properties[field]; !ok {
			t.Fatalf("schema is missing required field %s", field)
		}
	}
}

func TestExtractorMalformedResponseIsFatal(t *testing.T) {
	stub := &stubStructuredGenerator{response: "I could not analyze this resume."}
	extractor := NewExtractor(stub, zap.NewNop(), 0)

	if _, err := extractor.Extract(context.Background(), []byte("data"), "application/pdf"); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestExtractorGeneratorFailure(t *testing.T) {
	stub := &stubStructuredGenerator{err: errors.New("boom")}
	extractor := NewExtractor(stub, zap.NewNop(), 0)

	if _, err := extractor.Extract(context.Background(), []byte("data"), "application/pdf"); err == nil {
		t.Fatal("expected generator error to propagate")
	}
}
