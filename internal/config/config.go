package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
	WorkspaceDir string `toml:"workspace_dir"`
	APIBind      string `toml:"api_bind"`
	APIToken     string `toml:"api_token"`
}

// Account describes one managed account and the source accounts it reposts from.
type Account struct {
	Handle      string   `toml:"handle"`
	SessionFile string   `toml:"session_file"`
	Sources     []string `toml:"sources"`
	// Cooldown overrides scheduler.cooldown for this account, in seconds.
	// Zero means use the global value.
	Cooldown int `toml:"cooldown"`
}

// Provider contains configuration for the scraping/publishing provider bridge.
type Provider struct {
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
	MaxPosts       int    `toml:"max_posts"`
	DaysCutoff     int    `toml:"days_cutoff"`
	// SourceDelay is the minimum pause between source profile fetches, in seconds.
	SourceDelay int `toml:"source_delay"`
	// ItemDelay is the minimum pause between per-item provider calls, in seconds.
	ItemDelay int `toml:"item_delay"`
}

// Scheduler contains timing configuration for the posting loop.
type Scheduler struct {
	// TickInterval is the scheduling loop period, in seconds.
	TickInterval int `toml:"tick_interval"`
	// Cooldown is the minimum elapsed time between successful posts per account, in seconds.
	Cooldown int `toml:"cooldown"`
	// RunTimeout bounds a single account run, in seconds. Zero disables the bound.
	RunTimeout int `toml:"run_timeout"`
	// WorkspaceMaxAge controls the stale workspace sweep at startup, in seconds.
	WorkspaceMaxAge int `toml:"workspace_max_age"`
}

// Retry contains the transient-operation retry policy.
type Retry struct {
	MaxAttempts int `toml:"max_attempts"`
	// BaseDelay is the first backoff delay, in seconds.
	BaseDelay int `toml:"base_delay"`
	// MaxDelay caps the backoff delay, in seconds.
	MaxDelay int `toml:"max_delay"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Posts          bool   `toml:"posts"`
	Failures       bool   `toml:"failures"`
	NoCandidates   bool   `toml:"no_candidates"`
	Daemon         bool   `toml:"daemon"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for reelay.
//
// Configuration sections by subsystem:
//   - Paths: directories, API bind address, and API token
//   - Accounts: managed accounts and their source lists
//   - Provider: scraper/publisher bridge connection and fetch bounds
//   - Scheduler: posting loop tick, cooldown, and run bounds
//   - Retry: transient-operation retry/backoff policy
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Accounts      []Account     `toml:"accounts"`
	Provider      Provider      `toml:"provider"`
	Scheduler     Scheduler     `toml:"scheduler"`
	Retry         Retry         `toml:"retry"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelay/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelay.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.WorkspaceDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AccountByHandle returns the configured account with the given handle.
func (c *Config) AccountByHandle(handle string) (Account, bool) {
	for _, account := range c.Accounts {
		if account.Handle == handle {
			return account, true
		}
	}
	return Account{}, false
}

// CooldownFor returns the effective cooldown for an account, applying the
// per-account override when set.
func (c *Config) CooldownFor(account Account) time.Duration {
	if account.Cooldown > 0 {
		return time.Duration(account.Cooldown) * time.Second
	}
	return time.Duration(c.Scheduler.Cooldown) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
