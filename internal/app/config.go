package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rancher/pages-deploy-action/internal/config"
)

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

// Config captures runtime options sourced from GitHub Action inputs or environment variables.
type Config struct {
	GitHubToken       string
	GitHubBaseURL     string
	GitHubUploadURL   string
	RequestPagesBuild bool
	DryRun            bool
	Verbose           bool
	LogLevel          string
	LogFormat         string
	BuildCommand      string
	SettingsFile      string
	SourceDir         string
	WorkspaceDir      string
}

// LoadConfig reads action inputs from the environment, applies defaults, and performs validation.
func LoadConfig() (Config, error) {
	cfg := Config{
		LogLevel:     strings.ToLower(strings.TrimSpace(envOrDefault("INPUT_LOG_LEVEL", defaultLogLevel))),
		LogFormat:    strings.ToLower(strings.TrimSpace(envOrDefault("INPUT_LOG_FORMAT", defaultLogFormat))),
		BuildCommand: strings.TrimSpace(envOrDefault("INPUT_BUILD_COMMAND", config.DefaultBuildCommand)),
	}

	cfg.GitHubToken = strings.TrimSpace(os.Getenv("INPUT_GITHUB_TOKEN"))
	if cfg.GitHubToken == "" {
		cfg.GitHubToken = strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
	}

	cfg.GitHubBaseURL = strings.TrimSpace(os.Getenv("INPUT_GITHUB_BASE_URL"))
	cfg.GitHubUploadURL = strings.TrimSpace(os.Getenv("INPUT_GITHUB_UPLOAD_URL"))
	cfg.SettingsFile = strings.TrimSpace(os.Getenv("INPUT_CONFIG_FILE"))
	cfg.SourceDir = strings.TrimSpace(os.Getenv("INPUT_SOURCE_DIR"))
	cfg.WorkspaceDir = strings.TrimSpace(os.Getenv("INPUT_WORKSPACE_DIR"))

	var err error
	if cfg.DryRun, err = envBool("INPUT_DRY_RUN"); err != nil {
		return Config{}, err
	}
	if cfg.Verbose, err = envBool("INPUT_VERBOSE"); err != nil {
		return Config{}, err
	}
	if cfg.RequestPagesBuild, err = envBool("INPUT_REQUEST_PAGES_BUILD"); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate applies defaults to empty fields and rejects inconsistent options.
// It is run again after command-line flags have been applied.
func (cfg *Config) Validate() error {
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = defaultLogFormat
	}

	if cfg.BuildCommand == "" {
		cfg.BuildCommand = config.DefaultBuildCommand
	}

	supportedFormats := map[string]struct{}{"text": {}, "json": {}}
	if _, ok := supportedFormats[cfg.LogFormat]; !ok {
		return fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	if cfg.GitHubBaseURL == "" && cfg.GitHubUploadURL != "" {
		return fmt.Errorf("INPUT_GITHUB_UPLOAD_URL requires INPUT_GITHUB_BASE_URL")
	}

	if cfg.RequestPagesBuild && cfg.GitHubToken == "" {
		return fmt.Errorf("github token is required to request a pages build (set INPUT_GITHUB_TOKEN or GITHUB_TOKEN)")
	}

	if _, err := config.ParseCommand(cfg.BuildCommand); err != nil {
		return err
	}

	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}
