package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAccounts(); err != nil {
		return err
	}
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	return nil
}

func (c *Config) validateAccounts() error {
	seen := make(map[string]struct{}, len(c.Accounts))
	for i, account := range c.Accounts {
		if account.Handle == "" {
			return fmt.Errorf("accounts[%d].handle must be set", i)
		}
		if _, ok := seen[account.Handle]; ok {
			return fmt.Errorf("accounts: duplicate handle %q", account.Handle)
		}
		seen[account.Handle] = struct{}{}
		for _, source := range account.Sources {
			if source == account.Handle {
				return fmt.Errorf("accounts[%d]: %q cannot list itself as a source", i, account.Handle)
			}
		}
		if account.Cooldown < 0 {
			return fmt.Errorf("accounts[%d].cooldown must not be negative", i)
		}
	}
	return nil
}

func (c *Config) validateProvider() error {
	if c.Provider.BaseURL != "" &&
		!strings.HasPrefix(c.Provider.BaseURL, "http://") &&
		!strings.HasPrefix(c.Provider.BaseURL, "https://") {
		return fmt.Errorf("provider.base_url must be an http(s) URL, got %q", c.Provider.BaseURL)
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if c.Scheduler.TickInterval <= 0 {
		return errors.New("scheduler.tick_interval must be positive")
	}
	if c.Scheduler.Cooldown <= 0 {
		return errors.New("scheduler.cooldown must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// ValidateForDaemon applies the stricter checks required to run the posting
// loop: config files without accounts are fine for the CLI but useless for
// the daemon.
func (c *Config) ValidateForDaemon() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Accounts) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelay/config.toml"
		}
		return fmt.Errorf("at least one [[accounts]] entry is required. Edit %s (create with 'reelay config init')", defaultPath)
	}
	if strings.TrimSpace(c.Provider.BaseURL) == "" {
		return errors.New("provider.base_url is required to run the daemon")
	}
	return nil
}
