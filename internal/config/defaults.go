package config

const (
	defaultDataDir         = "~/.local/share/reelay/data"
	defaultLogDir          = "~/.local/share/reelay/logs"
	defaultWorkspaceDir    = "~/.local/share/reelay/workspace"
	defaultAPIBind         = "127.0.0.1:7519"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultRetentionDays   = 60
	defaultRequestTimeout  = 120
	defaultMaxPosts        = 20
	defaultDaysCutoff      = 7
	defaultSourceDelay     = 10
	defaultItemDelay       = 2
	defaultTickInterval    = 900
	defaultCooldown        = 5 * 60 * 60
	defaultWorkspaceMaxAge = 24 * 60 * 60
	defaultRetryAttempts   = 3
	defaultRetryBaseDelay  = 4
	defaultRetryMaxDelay   = 10
	defaultNotifyTimeout   = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			LogDir:       defaultLogDir,
			WorkspaceDir: defaultWorkspaceDir,
			APIBind:      defaultAPIBind,
		},
		Provider: Provider{
			RequestTimeout: defaultRequestTimeout,
			MaxPosts:       defaultMaxPosts,
			DaysCutoff:     defaultDaysCutoff,
			SourceDelay:    defaultSourceDelay,
			ItemDelay:      defaultItemDelay,
		},
		Scheduler: Scheduler{
			TickInterval:    defaultTickInterval,
			Cooldown:        defaultCooldown,
			WorkspaceMaxAge: defaultWorkspaceMaxAge,
		},
		Retry: Retry{
			MaxAttempts: defaultRetryAttempts,
			BaseDelay:   defaultRetryBaseDelay,
			MaxDelay:    defaultRetryMaxDelay,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Posts:          true,
			Failures:       true,
			NoCandidates:   false,
			Daemon:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
	}
}
