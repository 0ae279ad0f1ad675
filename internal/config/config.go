// Package config handles configuration loading and management for
// zen-code. It supports XDG config paths, project-level overrides, .env
// files, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for zen-code.
type Config struct {
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	GitHub     GitHubConfig     `mapstructure:"github"`
	Sandbox    SandboxConfig    `mapstructure:"sandbox"`
	Validation ValidationConfig `mapstructure:"validation"`
	Debug      DebugConfig      `mapstructure:"debug"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// GitHubConfig holds GitHub settings.
type GitHubConfig struct {
	Token string `mapstructure:"token"`
}

// SandboxConfig holds sandbox settings.
type SandboxConfig struct {
	// Dir is the sandbox root. Empty selects a directory under os temp.
	Dir string `mapstructure:"dir"`
	// MaxRepoSizeMB bounds how large a cloned repository may be.
	MaxRepoSizeMB int64 `mapstructure:"max_repo_size_mb"`
}

// ValidationConfig holds validation loop settings.
type ValidationConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig holds debug logging settings.
type DebugConfig struct {
	// LogPath is the debug log destination. Empty disables debug logging.
	LogPath string `mapstructure:"log_path"`
}

// Load loads configuration from .env files, XDG paths, project
// overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, GITHUB_TOKEN, ...)
// 2. Project config (.zen-code.yaml in current directory or parent)
// 3. User config (~/.config/zen-code/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	// A local .env is a convenience, not a requirement.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
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
	v.BindEnv("anthropic.model", "DEFAULT_MODEL")
	v.BindEnv("anthropic.use_bedrock", "CLAUDE_CODE_USE_BEDROCK")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("sandbox.dir", "SANDBOX_DIR")
	v.BindEnv("sandbox.max_repo_size_mb", "MAX_REPO_SIZE_MB")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.GitHub.Token = os.ExpandEnv(cfg.GitHub.Token)

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

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.GitHub.Token = os.ExpandEnv(cfg.GitHub.Token)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("github.token", cfg.GitHub.Token)
	v.Set("sandbox.dir", cfg.Sandbox.Dir)
	v.Set("sandbox.max_repo_size_mb", cfg.Sandbox.MaxRepoSizeMB)
	v.Set("validation.enabled", cfg.Validation.Enabled)
	v.Set("debug.log_path", cfg.Debug.LogPath)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("github.token", "")
	v.SetDefault("sandbox.dir", "")
	v.SetDefault("sandbox.max_repo_size_mb", 100)
	v.SetDefault("validation.enabled", true)
	v.SetDefault("debug.log_path", "")
}

// getUserConfigDir returns the XDG config directory for zen-code.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "zen-code")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "zen-code")
	}
	return filepath.Join(home, ".config", "zen-code")
}

// findProjectConfig searches for .zen-code.yaml in the current directory
// and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".zen-code.yaml")
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

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Sandbox: SandboxConfig{
			MaxRepoSizeMB: 100,
		},
		Validation: ValidationConfig{
			Enabled: true,
		},
	}
}
