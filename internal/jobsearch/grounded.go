package jobsearch

import (
	"context"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/vportnov/resume-scout/internal/analysis"
	"github.com/vportnov/resume-scout/internal/utils"
	"go.uber.org/zap"
)

//go:embed jobs_prompt.md
var jobsPromptTemplate string

//go:embed repair_prompt.md
var repairPromptTemplate string

const defaultMaxLogLength = 200

type contentGenerator interface {
	GenerateGrounded(ctx context.Context, prompt string) (string, error)
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Grounded resolves job listings through a search-grounded generative call.
// When the first response does not parse as JSON it issues exactly one repair
// request with the offending text; if that also fails it gives up and returns
// nothing.
type Grounded struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewGrounded(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Grounded {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Grounded{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (g *Grounded) ResolveJobs(ctx context.Context, titles []string) []analysis.JobListing {
	if len(titles) == 0 {
		return nil
	}

	prompt := buildJobsPrompt(titles)

	g.logger.Debug("grounded job search request",
		zap.Strings("job_titles", titles),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := g.generator.GenerateGrounded(ctx, prompt)
	if err != nil {
		g.logger.Warn("grounded job search failed", zap.Error(err))
		return nil
	}

	g.logger.Debug("grounded job search response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, g.maxLogLen)),
	)

	listings, err := ParseListings(raw)
	if err == nil {
		return listings
	}

	g.logger.Debug("job search response is not valid JSON, requesting repair",
		zap.Error(err),
		zap.String("response_preview", utils.TruncateForLog(raw, g.maxLogLen)),
	)

	repaired, err := g.generator.GenerateContent(ctx, buildRepairPrompt(raw))
	if err != nil {
		g.logger.Warn("job search repair request failed", zap.Error(err))
		return nil
	}

	listings, err = ParseListings(repaired)
	if err != nil {
		g.logger.Warn("job search repair produced invalid JSON, returning no listings", zap.Error(err))
		return nil
	}

	return listings
}

func buildJobsPrompt(titles []string) string {
	template := jobsPromptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Find job openings for: {{JOB_TITLES}}. Respond with a JSON array."
	}
	return strings.ReplaceAll(template, "{{JOB_TITLES}}", strings.Join(titles, ", "))
}

func buildRepairPrompt(response string) string {
	template := repairPromptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Fix this into a valid JSON array:\n{{RESPONSE}}"
	}
	return strings.ReplaceAll(template, "{{RESPONSE}}", response)
}
