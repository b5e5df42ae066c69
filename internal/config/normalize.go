package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAccounts(); err != nil {
		return err
	}
	c.normalizeProvider()
	c.normalizeScheduler()
	c.normalizeRetry()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeAccounts() error {
	for i := range c.Accounts {
		account := &c.Accounts[i]
		account.Handle = strings.ToLower(strings.TrimSpace(account.Handle))
		if account.SessionFile != "" {
			expanded, err := expandPath(account.SessionFile)
			if err != nil {
				return fmt.Errorf("accounts[%d].session_file: %w", i, err)
			}
			account.SessionFile = expanded
		}
		sources := make([]string, 0, len(account.Sources))
		seen := make(map[string]struct{}, len(account.Sources))
		for _, source := range account.Sources {
			normalized := strings.ToLower(strings.TrimSpace(source))
			if normalized == "" {
				continue
			}
			if _, ok := seen[normalized]; ok {
				continue
			}
			seen[normalized] = struct{}{}
			sources = append(sources, normalized)
		}
		account.Sources = sources
	}
	return nil
}

func (c *Config) normalizeProvider() {
	c.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(c.Provider.BaseURL), "/")
	if c.Provider.RequestTimeout <= 0 {
		c.Provider.RequestTimeout = defaultRequestTimeout
	}
	if c.Provider.MaxPosts <= 0 {
		c.Provider.MaxPosts = defaultMaxPosts
	}
	if c.Provider.DaysCutoff <= 0 {
		c.Provider.DaysCutoff = defaultDaysCutoff
	}
	if c.Provider.SourceDelay < 0 {
		c.Provider.SourceDelay = defaultSourceDelay
	}
	if c.Provider.ItemDelay < 0 {
		c.Provider.ItemDelay = defaultItemDelay
	}
}

func (c *Config) normalizeScheduler() {
	if c.Scheduler.TickInterval <= 0 {
		c.Scheduler.TickInterval = defaultTickInterval
	}
	if c.Scheduler.Cooldown <= 0 {
		c.Scheduler.Cooldown = defaultCooldown
	}
	if c.Scheduler.RunTimeout < 0 {
		c.Scheduler.RunTimeout = 0
	}
	if c.Scheduler.WorkspaceMaxAge <= 0 {
		c.Scheduler.WorkspaceMaxAge = defaultWorkspaceMaxAge
	}
}

func (c *Config) normalizeRetry() {
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = defaultRetryAttempts
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = defaultRetryBaseDelay
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		c.Retry.MaxDelay = defaultRetryMaxDelay
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = defaultRetentionDays
	}
}
