package cmd

import (
	"log"

	"github.com/vportnov/resume-scout/internal/jobsearch"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "resume-scout"
)

type Config struct {
	Owner     *OwnerConfig     `mapstructure:"owner"`
	Storage   *StorageConfig   `mapstructure:"storage"`
	Database  *DatabaseConfig  `mapstructure:"database"`
	AI        *AIConfig        `mapstructure:"ai"`
	JobSearch *JobSearchConfig `mapstructure:"job-search"`
}

type OwnerConfig struct {
	ID          string `mapstructure:"id"`
	DisplayName string `mapstructure:"display-name"`
	Email       string `mapstructure:"email"`
}

type StorageConfig struct {
	BaseURL    string `mapstructure:"base-url"`
	Bucket     string `mapstructure:"bucket"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type DatabaseConfig struct {
	DSN     string `mapstructure:"dsn"`
	DSNFile string `mapstructure:"dsn-file"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type JobSearchConfig struct {
	Provider string         `mapstructure:"provider"`
	JSearch  *JSearchConfig `mapstructure:"jsearch"`
}

type JSearchConfig struct {
	APIKeyFile string                   `mapstructure:"api-key-file"`
	Params     *jobsearch.JSearchParams `mapstructure:"params"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-scout analyzes a resume with AI and finds matching job openings",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("job-search.jsearch.api-key-file", "RAPIDAPI_KEY_FILE"); err != nil {
		log.Fatalf("binding RAPIDAPI_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("database.dsn-file", "DATABASE_DSN_FILE"); err != nil {
		log.Fatalf("binding DATABASE_DSN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("storage.api-key-file", "STORAGE_API_KEY_FILE"); err != nil {
		log.Fatalf("binding STORAGE_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-scout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for commands that reach external services.
	if !configNeeded() {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func configNeeded() bool {
	for _, c := range []*cobra.Command{analyzeCmd, listCmd, showCmd, profileCmd} {
		if c.CalledAs() != "" {
			return true
		}
	}
	return false
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
