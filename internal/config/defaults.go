package config

const (
	defaultStateDir           = "~/.local/share/daybook"
	defaultLogDir             = "~/.local/share/daybook/logs"
	defaultServerBaseURL      = "http://127.0.0.1:8000/api"
	defaultReadTimeout        = 15
	defaultStartConcurrency   = 3
	defaultDirectConcurrency  = 5
	defaultJobPollInterval    = 2
	defaultJobPollMaxInterval = 5
	defaultStatusActive       = 3
	defaultStatusIdle         = 20
	defaultStatusMaxInterval  = 60
	defaultResumeWindowHours  = 6
	defaultResumeGraceSeconds = 90
	defaultAutosaveDebounce   = 5
	defaultAutosaveMaxWait    = 30
	defaultNtfyRequestTimeout = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			BaseURL:     defaultServerBaseURL,
			ReadTimeout: defaultReadTimeout,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Publish: Publish{
			Concurrency:       defaultStartConcurrency,
			DirectConcurrency: defaultDirectConcurrency,
		},
		Poll: Poll{
			JobInterval:       defaultJobPollInterval,
			JobMaxInterval:    defaultJobPollMaxInterval,
			StatusActive:      defaultStatusActive,
			StatusIdle:        defaultStatusIdle,
			StatusMaxInterval: defaultStatusMaxInterval,
			ResumeWindowHours: defaultResumeWindowHours,
			ResumeGrace:       defaultResumeGraceSeconds,
		},
		Autosave: Autosave{
			Debounce: defaultAutosaveDebounce,
			MaxWait:  defaultAutosaveMaxWait,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
