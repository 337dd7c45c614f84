package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	PresenterTUI    = "tui"
	PresenterScript = "script"
)

// Config stores all configuration of the application.
type Config struct {
	LogFile           string `mapstructure:"log_file"`
	LogLevel          string `mapstructure:"log_level"`
	DedupeActivations bool   `mapstructure:"dedupe_activations"`
	Presenter         string `mapstructure:"presenter"`
	AnswersFile       string `mapstructure:"answers_file"`
	OutputDir         string `mapstructure:"output_dir"`
	OpenAIAPIKey      string `mapstructure:"openai_api_key"`
	OpenAIBaseURL     string `mapstructure:"openai_base_url"`
	ModelName         string `mapstructure:"model_name"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		Presenter: PresenterTUI,
		OutputDir: ".",
		ModelName: "gpt-4o-mini",
	}
}

// Override adjusts a loaded Config before it is validated.
type Override func(*Config)

// LoadConfig reads config.yaml from configPath, the working directory or
// ~/.stepseq, then applies STEPSEQ_* environment variables and overrides. A
// missing config file is not an error.
func LoadConfig(configPath string, overrides ...Override) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("dedupe_activations", def.DedupeActivations)
	v.SetDefault("presenter", def.Presenter)
	v.SetDefault("answers_file", def.AnswersFile)
	v.SetDefault("output_dir", def.OutputDir)
	v.SetDefault("openai_api_key", def.OpenAIAPIKey)
	v.SetDefault("openai_base_url", def.OpenAIBaseURL)
	v.SetDefault("model_name", def.ModelName)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".stepseq"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables
	v.SetEnvPrefix("STEPSEQ")
	v.AutomaticEnv()
	v.BindEnv("openai_api_key", "STEPSEQ_OPENAI_API_KEY", "OPENAI_API_KEY")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	for _, o := range overrides {
		o(config)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

func validateConfig(config *Config) error {
	switch config.Presenter {
	case PresenterTUI:
	case PresenterScript:
		if config.AnswersFile == "" {
			return fmt.Errorf("presenter %q requires answers_file", PresenterScript)
		}
	default:
		return fmt.Errorf("unknown presenter %q, expected %q or %q", config.Presenter, PresenterTUI, PresenterScript)
	}
	if config.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	return nil
}
