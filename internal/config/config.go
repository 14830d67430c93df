// Package config handles configuration loading and management for Parley.
// It supports XDG config paths, project-level overrides, environment
// variables, and per-agent assistant configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Parley.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	Output    OutputConfig    `mapstructure:"output"`
	TUI       TUIConfig       `mapstructure:"tui"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. May contain ${VAR} references.
	APIKey string `mapstructure:"api_key"`
	// Model is the default model for agents that don't set one.
	Model string `mapstructure:"model"`
	// UseBedrock routes API calls through AWS Bedrock instead of the direct API.
	UseBedrock bool `mapstructure:"use_bedrock"`
	// AWSRegion is the AWS region for Bedrock.
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS profile name for Bedrock credentials.
	AWSProfile string `mapstructure:"aws_profile"`
}

// AgentsConfig names the agent roster and the fixed pipeline roles.
type AgentsConfig struct {
	// Dir is the directory holding <name>_assistant_config.yaml files.
	Dir string `mapstructure:"dir"`
	// Names lists the agents to load at startup.
	Names []string `mapstructure:"names"`
	// Planner is the agent asked to decompose user requests into tasks.
	Planner string `mapstructure:"planner"`
	// Producer is the agent whose thread output feeds the consumer.
	Producer string `mapstructure:"producer"`
	// Consumer is the agent that receives the producer's output verbatim.
	Consumer string `mapstructure:"consumer"`
}

// OutputConfig holds artifact output settings.
type OutputConfig struct {
	// Dir is where downloaded files and images are materialized.
	Dir string `mapstructure:"dir"`
}

// TUIConfig holds TUI display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.parley.yaml in current directory or parent)
// 3. User config (~/.config/parley/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Project config takes precedence over the user config
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("agents.dir", cfg.Agents.Dir)
	v.Set("agents.names", cfg.Agents.Names)
	v.Set("agents.planner", cfg.Agents.Planner)
	v.Set("agents.producer", cfg.Agents.Producer)
	v.Set("agents.consumer", cfg.Agents.Consumer)
	v.Set("output.dir", cfg.Output.Dir)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_bedrock", false)

	v.SetDefault("agents.dir", "config")
	v.SetDefault("agents.names", []string{
		"TaskPlannerAgent",
		"CodeWriterAgent",
		"CodeInspectorAgent",
		"FileCreatorAgent",
	})
	v.SetDefault("agents.planner", "TaskPlannerAgent")
	v.SetDefault("agents.producer", "CodeWriterAgent")
	v.SetDefault("agents.consumer", "FileCreatorAgent")

	v.SetDefault("output.dir", "output")
	v.SetDefault("tui.refresh_rate", "100ms")
}

// getUserConfigDir returns the XDG config directory for Parley.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "parley")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "parley")
	}
	return filepath.Join(home, ".config", "parley")
}

// findProjectConfig searches for .parley.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".parley.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Agents: AgentsConfig{
			Dir: "config",
			Names: []string{
				"TaskPlannerAgent",
				"CodeWriterAgent",
				"CodeInspectorAgent",
				"FileCreatorAgent",
			},
			Planner:  "TaskPlannerAgent",
			Producer: "CodeWriterAgent",
			Consumer: "FileCreatorAgent",
		},
		Output: OutputConfig{Dir: "output"},
		TUI:    TUIConfig{RefreshRate: 100 * time.Millisecond},
	}
}
