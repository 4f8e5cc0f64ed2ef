package cmd

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/fl-bidder/internal/config"
	"github.com/spigell/fl-bidder/internal/logger"
	"github.com/spigell/fl-bidder/internal/processed"
)

const (
	app = "fl-bidder"

	defaultDatabase = "fl-bidder.db"
	defaultBidLog   = "bids.csv"

	backendMemory = "memory"
	backendRedis  = "redis"
)

type Config struct {
	APIURL      string           `mapstructure:"api-url"`
	TokenFile   string           `mapstructure:"token-file"`
	UserAgent   string           `mapstructure:"user-agent"`
	Database    string           `mapstructure:"database"`
	BidLog      string           `mapstructure:"bid-log"`
	ExcludeFile string           `mapstructure:"exclude-file"`
	Processed   ProcessedConfig  `mapstructure:"processed"`
	AI          AIConfig         `mapstructure:"ai"`
	Defaults    config.Overrides `mapstructure:"defaults"`
	Sessions    []config.Session `mapstructure:"sessions"`
}

type ProcessedConfig struct {
	Backend string                `mapstructure:"backend"`
	Redis   processed.RedisConfig `mapstructure:"redis"`
}

type AIConfig struct {
	Provider string       `mapstructure:"provider"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "fl-bidder searches freelancer.com projects and bids on the ones that fit",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("token-file", "FL_TOKEN_FILE"); err != nil {
		log.Fatalf("binding FL_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	viper.SetDefault("database", defaultDatabase)
	viper.SetDefault("bid-log", defaultBidLog)
	viper.SetDefault("processed.backend", backendMemory)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.max-log-length", 2000)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is fl-bidder.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	rootCmd.PersistentFlags().String("log-file", "", "also write logs to this file")

	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	// The version command works without any configuration.
	if versionCmd.CalledAs() != "" {
		return
	}

	// .env is optional; variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func newLogger() (*zap.Logger, error) {
	return logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
		File:  viper.GetString("log-file"),
	})
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		return nil, errors.New("config is empty")
	}

	return config, nil
}
