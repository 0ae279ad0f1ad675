package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ShimantoBhowmik/zen-code/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify zen-code configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/zen-code/config.yaml
Project-specific overrides can be placed in .zen-code.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", maskSecret(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
	fmt.Printf("anthropic.aws_profile: %s\n", cfg.Anthropic.AWSProfile)
	fmt.Printf("github.token: %s\n", maskSecret(cfg.GitHub.Token))
	fmt.Printf("sandbox.dir: %s\n", cfg.Sandbox.Dir)
	fmt.Printf("sandbox.max_repo_size_mb: %d\n", cfg.Sandbox.MaxRepoSizeMB)
	fmt.Printf("validation.enabled: %t\n", cfg.Validation.Enabled)
	fmt.Printf("debug.log_path: %s\n", cfg.Debug.LogPath)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// maskSecret hides a secret value in display output.
func maskSecret(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "****"
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return maskSecret(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "github.token":
		return maskSecret(cfg.GitHub.Token), nil
	case "sandbox.dir":
		return cfg.Sandbox.Dir, nil
	case "sandbox.max_repo_size_mb":
		return strconv.FormatInt(cfg.Sandbox.MaxRepoSizeMB, 10), nil
	case "validation.enabled":
		return strconv.FormatBool(cfg.Validation.Enabled), nil
	case "debug.log_path":
		return cfg.Debug.LogPath, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_bedrock: %w", err)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "github.token":
		cfg.GitHub.Token = value
	case "sandbox.dir":
		cfg.Sandbox.Dir = value
	case "sandbox.max_repo_size_mb":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value for max_repo_size_mb: %w", err)
		}
		cfg.Sandbox.MaxRepoSizeMB = n
	case "validation.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for validation.enabled: %w", err)
		}
		cfg.Validation.Enabled = b
	case "debug.log_path":
		cfg.Debug.LogPath = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
