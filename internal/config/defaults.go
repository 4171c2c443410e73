package config

const (
	defaultBackendExecutable = "findmyjob-backend"
	defaultDataDir           = "~/.local/share/findmyjob"
	defaultLogDir            = "~/.local/share/findmyjob/logs"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultHistoryKeepRuns   = 200
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Backend: Backend{
			Executable: defaultBackendExecutable,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled:  true,
			KeepRuns: defaultHistoryKeepRuns,
		},
	}
}
