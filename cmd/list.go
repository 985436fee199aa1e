package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/vportnov/resume-scout/internal/logger"
	"github.com/vportnov/resume-scout/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List analyzed resumes for the owner profile",
	Run: func(cmd *cobra.Command, _ []string) {
		list(cmd)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <resume-id>",
	Short: "Show one analysis record with skills, feedback and job listings",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		show(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)

	listCmd.Flags().StringP("owner", "o", "", "owner profile id (overrides owner.id from config)")
	listCmd.Flags().Int("limit", 20, "maximum number of records to return")
	listCmd.Flags().Int("offset", 0, "number of records to skip")

	showCmd.Flags().StringP("owner", "o", "", "owner profile id (overrides owner.id from config)")
}

func list(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	records, ownerID, closeStore, err := openStore(ctx, cmd, logger)
	if err != nil {
		logger.Fatal("preparing record store", zap.Error(err))
	}
	defer closeStore()

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	resumes, err := records.ListResumes(ctx, ownerID, limit, offset)
	if err != nil {
		logger.Fatal("listing resumes", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(summarizeResumes(resumes), "", "  ")
	logger.Info(string(pretty), zap.Int("count", len(resumes)))
}

func show(cmd *cobra.Command, rawID string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	resumeID, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		logger.Fatal("parsing resume id", zap.Error(err))
	}

	records, ownerID, closeStore, err := openStore(ctx, cmd, logger)
	if err != nil {
		logger.Fatal("preparing record store", zap.Error(err))
	}
	defer closeStore()

	record, err := records.GetResumeForOwner(ctx, ownerID, resumeID)
	if err != nil {
		logger.Fatal("getting resume record", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(record, "", "  ")
	logger.Info(string(pretty), zap.Int("jobs count", len(record.Jobs)))
}

// openStore resolves the owner id and database connection shared by the
// record-reading commands.
func openStore(ctx context.Context, cmd *cobra.Command, logger *zap.Logger) (*store.Store, uuid.UUID, func(), error) {
	config, err := getConfig()
	if err != nil {
		return nil, uuid.Nil, nil, err
	}
	if config == nil {
		return nil, uuid.Nil, nil, errors.New("config is required")
	}

	ownerID, err := resolveOwner(cmd, config)
	if err != nil {
		return nil, uuid.Nil, nil, err
	}

	dsn, err := resolveDSN(config)
	if err != nil {
		return nil, uuid.Nil, nil, err
	}

	pool, err := store.Connect(ctx, dsn)
	if err != nil {
		return nil, uuid.Nil, nil, err
	}

	return store.New(pool, logger), ownerID, pool.Close, nil
}

// resumeSummary is the compact list view of a stored record.
type resumeSummary struct {
	ID              string  `json:"id"`
	Filename        string  `json:"filename"`
	Status          string  `json:"status"`
	Score           float64 `json:"score"`
	ExperienceLevel string  `json:"experience_level"`
	Skills          int     `json:"skills"`
	Jobs            int     `json:"jobs"`
	CreatedAt       string  `json:"created_at"`
}

func summarizeResumes(records []*store.ResumeRecord) []resumeSummary {
	summaries := make([]resumeSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, resumeSummary{
			ID:              record.ID.String(),
			Filename:        record.Filename,
			Status:          string(record.Status),
			Score:           record.Score,
			ExperienceLevel: string(record.ExperienceLevel),
			Skills:          len(record.Skills),
			Jobs:            len(record.Jobs),
			CreatedAt:       record.CreatedAt.Format(time.RFC3339),
		})
	}
	return summaries
}
