package cmd

import (
	"context"
	"log"

	"github.com/vportnov/resume-scout/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the owner profile",
	Run: func(cmd *cobra.Command, _ []string) {
		profile(cmd)
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().StringP("owner", "o", "", "owner profile id (overrides owner.id from config)")
	profileCmd.Flags().String("display-name", "", "new display name")
	profileCmd.Flags().String("email", "", "email, settable only while empty")
}

func profile(cmd *cobra.Command) {
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

	current, err := records.GetProfile(ctx, ownerID)
	if err != nil {
		logger.Fatal("getting owner profile", zap.Error(err))
	}

	if cmd.Flags().Changed("display-name") || cmd.Flags().Changed("email") {
		displayName := current.DisplayName
		if cmd.Flags().Changed("display-name") {
			displayName = cmd.Flag("display-name").Value.String()
		}
		email := current.Email
		if cmd.Flags().Changed("email") {
			email = cmd.Flag("email").Value.String()
		}

		current, err = records.UpdateProfile(ctx, ownerID, displayName, email)
		if err != nil {
			logger.Fatal("updating owner profile", zap.Error(err))
		}
	}

	logger.Info("owner profile",
		zap.String("id", current.ID.String()),
		zap.String("display_name", current.DisplayName),
		zap.String("email", current.Email),
		zap.Time("created_at", current.CreatedAt),
	)
}
