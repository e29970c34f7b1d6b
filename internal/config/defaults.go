package config

const (
	defaultDataDir              = "~/.local/share/goggles"
	defaultLogDir               = "~/.local/share/goggles/logs"
	defaultTempDir              = "~/.local/share/goggles/tmp"
	defaultDatabaseHost         = "localhost"
	defaultDatabasePort         = 3306
	defaultDatabaseUser         = "goggles"
	defaultDatabaseName         = "goggles"
	defaultClientBinary         = "mysql"
	defaultExecutor             = ExecutorClient
	defaultImportQueueInterval  = 60
	defaultIssueCleanupInterval = 3600
	defaultMaxAttempts          = 3
	defaultMaxRunTime           = 30 * 60
	defaultRetryBackoff         = 10
	defaultObsoleteAfterDays    = 7
	defaultNotifyTimeout        = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Batch SQL executor kinds.
const (
	ExecutorClient = "client"
	ExecutorDriver = "driver"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			TempDir: defaultTempDir,
		},
		Database: Database{
			Host:         defaultDatabaseHost,
			Port:         defaultDatabasePort,
			User:         defaultDatabaseUser,
			Name:         defaultDatabaseName,
			ClientBinary: defaultClientBinary,
			Executor:     defaultExecutor,
		},
		Jobs: Jobs{
			ImportQueueInterval:  defaultImportQueueInterval,
			IssueCleanupInterval: defaultIssueCleanupInterval,
			MaxAttempts:          defaultMaxAttempts,
			MaxRunTime:           defaultMaxRunTime,
			RetryBackoff:         defaultRetryBackoff,
		},
		Issues: Issues{
			ObsoleteAfterDays: defaultObsoleteAfterDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
