package config

// Defaults for settings that have a meaning outside viper, such as paths the
// operator commands fall back to.
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./readsync.db"

	// DefaultLibraryDir is where the local backend keeps book files
	DefaultLibraryDir = "./library"

	DefaultHost          = "127.0.0.1"
	DefaultPort          = 9000
	DefaultCompat        = "0.0.0"
	DefaultMaxFileSizeMB = 200
	DefaultTokenTimeout  = 60 // minutes
)

// Environment variables naming an optional key = value configuration file.
// The first one set wins.
var configFileEnvVars = []string{"READSYNC_CONF", "SIMPLEREADER_CONF"}
