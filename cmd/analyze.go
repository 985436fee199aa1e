package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/vportnov/resume-scout/internal/ai"
	"github.com/vportnov/resume-scout/internal/ai/gemini"
	"github.com/vportnov/resume-scout/internal/jobsearch"
	"github.com/vportnov/resume-scout/internal/logger"
	"github.com/vportnov/resume-scout/internal/pipeline"
	"github.com/vportnov/resume-scout/internal/secrets"
	"github.com/vportnov/resume-scout/internal/storage"
	"github.com/vportnov/resume-scout/internal/store"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptJobsReport   = "Show job listings report"
	PromptRecordToFile = "Dump record to file"
	PromptExit         = "Exit"
)

var errExit = errors.New("exit requested")

var resultPrompt = promptui.Select{
	Label: "Analysis finished. What next?",
	Items: []string{PromptJobsReport, PromptRecordToFile, PromptExit},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <resume-file>",
	Short: "Run the resume analysis pipeline for a single file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		analyze(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("owner", "o", "", "owner profile id (overrides owner.id from config)")
	analyzeCmd.Flags().BoolP("auto-approve", "y", false, "do not prompt after the analysis finishes")
}

// analyze is the main command for the cli.
func analyze(cmd *cobra.Command, path string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting resume-scout", zap.String("version", version))

	if config == nil {
		logger.Fatal("config is required")
	}
	if config.Storage == nil || config.Storage.BaseURL == "" || config.Storage.Bucket == "" {
		logger.Fatal("storage base-url and bucket are required")
	}

	ownerID, err := resolveOwner(cmd, config)
	if err != nil {
		logger.Fatal("resolving owner id", zap.Error(err),
			zap.String("hint", "set owner.id in the configuration file or pass --owner"),
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading resume file", zap.Error(err))
	}

	filename := filepath.Base(path)
	mimeType, err := mimeTypeFor(filename)
	if err != nil {
		logger.Fatal("detecting file type", zap.Error(err))
	}

	if err := pipeline.ValidateFile(data, mimeType); err != nil {
		logger.Fatal("validating resume file", zap.Error(err))
	}

	dsn, err := resolveDSN(config)
	if err != nil {
		logger.Fatal("loading database dsn", zap.Error(err),
			zap.String("hint", "set DATABASE_DSN_FILE environment variable or the database section in the configuration file"),
		)
	}

	pool, err := store.Connect(ctx, dsn)
	if err != nil {
		logger.Fatal("connecting to postgres", zap.Error(err))
	}
	defer pool.Close()

	records := store.New(pool, logger)
	if err := records.EnsureSchema(ctx); err != nil {
		logger.Fatal("ensuring database schema", zap.Error(err))
	}

	owner := config.Owner
	if owner == nil {
		owner = &OwnerConfig{}
	}
	profile, err := records.EnsureProfile(ctx, ownerID, owner.DisplayName, owner.Email)
	if err != nil {
		logger.Fatal("ensuring owner profile", zap.Error(err))
	}

	logger.Info("resolved owner profile",
		zap.String("owner_id", profile.ID.String()),
		zap.String("display_name", profile.DisplayName),
	)

	storageKey, err := secrets.Load(secrets.Source{
		Name: "storage api key",
		File: config.Storage.APIKeyFile,
	})
	if err != nil {
		logger.Fatal("loading storage api key", zap.Error(err),
			zap.String("hint", "set STORAGE_API_KEY_FILE environment variable or storage.api-key-file in the configuration file"),
		)
	}
	uploader := storage.NewObjectStore(config.Storage.BaseURL, config.Storage.Bucket, storageKey, logger)

	extractor, generator, err := newExtractor(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building extractor", zap.Error(err))
	}

	jobs, err := newJobSource(config.JobSearch, config.AI, generator, logger)
	if err != nil {
		logger.Fatal("building job source", zap.Error(err))
	}

	runner := pipeline.New(pipeline.Deps{
		Uploader:  uploader,
		Records:   records,
		Extractor: extractor,
		Jobs:      jobs,
		Logger:    logger,
		Progress: func(p pipeline.Progress) {
			logger.Info(p.Status, zap.Int("percent", p.Percent))
		},
	})

	record, err := runner.Run(ctx, pipeline.Input{
		Filename: filename,
		MimeType: mimeType,
		Data:     data,
		OwnerID:  ownerID,
	})
	if err != nil {
		var stageErr *pipeline.Error
		if errors.As(err, &stageErr) && stageErr.ResumeID != uuid.Nil {
			if markErr := records.MarkFailed(ctx, stageErr.ResumeID); markErr != nil {
				logger.Warn("marking record as failed", zap.Error(markErr))
			}
		}
		logger.Fatal("analysis failed", zap.Error(err))
	}

	logger.Info("analysis completed",
		zap.String("resume_id", record.ID.String()),
		zap.Float64("score", record.Score),
		zap.String("experience_level", string(record.ExperienceLevel)),
		zap.Int("skills", len(record.Skills)),
		zap.Int("feedback", len(record.Feedback)),
		zap.Int("jobs", len(record.Jobs)),
	)

	if cmd.Flag("auto-approve").Value.String() == "true" {
		return
	}

	for {
		_, action, err := resultPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, record, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, record *store.ResumeRecord, logger *zap.Logger) error {
	switch action {
	case PromptJobsReport:
		pretty, _ := json.MarshalIndent(jobsReport(record), "", "  ")
		logger.Info(string(pretty), zap.Int("jobs count", len(record.Jobs)))
		return nil
	case PromptRecordToFile:
		filename, err := dumpRecord(record)
		if err != nil {
			return fmt.Errorf("dump record to file: %w", err)
		}
		logger.Info("dumping record to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// jobsReport groups the matched listings by company for a quick overview.
func jobsReport(record *store.ResumeRecord) map[string][]string {
	report := make(map[string][]string)
	for _, job := range record.Jobs {
		entry := fmt.Sprintf("%s / %s / %.0f%% match / %s",
			job.Title, job.Location, job.MatchPercentage, job.ApplyURL,
		)
		report[job.Company] = append(report[job.Company], entry)
	}
	return report
}

func dumpRecord(record *store.ResumeRecord) (string, error) {
	file, err := os.CreateTemp("", app+"-record-*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		return "", err
	}

	return file.Name(), nil
}

func resolveOwner(cmd *cobra.Command, config *Config) (uuid.UUID, error) {
	raw := strings.TrimSpace(cmd.Flag("owner").Value.String())
	if raw == "" && config.Owner != nil {
		raw = strings.TrimSpace(config.Owner.ID)
	}
	if raw == "" {
		return uuid.Nil, errors.New("owner id is not configured")
	}
	return uuid.Parse(raw)
}

func resolveDSN(config *Config) (string, error) {
	if config.Database == nil {
		return "", errors.New("database configuration is required")
	}
	if dsn := strings.TrimSpace(config.Database.DSN); dsn != "" {
		return dsn, nil
	}

	return secrets.Load(secrets.Source{
		Name: "database dsn",
		File: config.Database.DSNFile,
	})
}

func mimeTypeFor(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf", nil
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document", nil
	default:
		return "", fmt.Errorf("unsupported file extension %q, expected .pdf or .docx", filepath.Ext(filename))
	}
}

func newExtractor(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Extractor, *gemini.Generator, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, nil, errors.New("ai.gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, nil, err
	}

	extractorLogger := logger.WithCommonFields(log, "extractor", "gemini", generator.Model())

	return gemini.NewExtractor(generator, extractorLogger, cfg.Gemini.MaxLogLength), generator, nil
}

func newJobSource(cfg *JobSearchConfig, aiCfg *AIConfig, generator *gemini.Generator, log *zap.Logger) (jobsearch.Source, error) {
	provider := "gemini"
	if cfg != nil && strings.TrimSpace(cfg.Provider) != "" {
		provider = strings.TrimSpace(strings.ToLower(cfg.Provider))
	}

	switch provider {
	case "gemini":
		maxLogLength := 0
		if aiCfg != nil && aiCfg.Gemini != nil {
			maxLogLength = aiCfg.Gemini.MaxLogLength
		}
		sourceLogger := logger.WithCommonFields(log, "job_source", "gemini", generator.Model())
		return jobsearch.NewGrounded(generator, sourceLogger, maxLogLength), nil
	case "jsearch":
		if cfg == nil || cfg.JSearch == nil {
			return nil, errors.New("job-search.jsearch configuration is required")
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name: "rapidapi key",
			File: cfg.JSearch.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set job-search.jsearch.api-key-file or RAPIDAPI_KEY_FILE)", err)
		}
		sourceLogger := logger.WithCommonFields(log, "job_source", "jsearch", "")
		return jobsearch.NewJSearch(apiKey, cfg.JSearch.Params, sourceLogger), nil
	default:
		return nil, fmt.Errorf("unsupported job search provider: %s", provider)
	}
}
