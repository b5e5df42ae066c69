package testsupport

import (
	"path/filepath"
	"testing"

	"reelay/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Provider.BaseURL = "http://127.0.0.1:0"
	cfg.Provider.SourceDelay = 0
	cfg.Provider.ItemDelay = 0
	cfg.Accounts = []config.Account{
		{Handle: "mainacct", Sources: []string{"srcone", "srctwo"}},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithAccounts replaces the configured accounts on the test config.
func WithAccounts(accounts ...config.Account) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Accounts = accounts
	}
}

// WithCooldown sets the global cooldown, in seconds.
func WithCooldown(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Scheduler.Cooldown = seconds
	}
}
