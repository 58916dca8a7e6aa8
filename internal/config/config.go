package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type StorageBackend string

const (
	StorageLocal StorageBackend = "local" // Files under Library.Dir (default)
	StorageS3    StorageBackend = "s3"    // S3-compatible bucket
)

type SessionStore string

const (
	SessionStoreMemory SessionStore = "memory" // Lost on restart (default)
	SessionStoreSQLite SessionStore = "sqlite" // sessions table in the main database
)

type (
	Config struct {
		HTTP
		Sync
		Library
		Storage
		Database
		Auth
		Tasks
		LibraryAudit
		Activity
		Log
		Global

		// File is the configuration file that was read, if any.
		File string
	}

	HTTP struct {
		Port int32
		Host string
	}
	Sync struct {
		Compat string // Client version required by /login
	}
	Library struct {
		Dir           string
		ScratchDir    string
		MaxFileSizeMB int
	}
	Storage struct {
		Backend StorageBackend
		S3      S3
	}
	S3 struct {
		Bucket    string
		Prefix    string
		Region    string
		Endpoint  string // Empty for AWS, set for MinIO and friends
		AccessKey string
		SecretKey string
	}
	Database struct {
		Path string
	}
	Auth struct {
		BcryptCost   int
		TokenTimeout time.Duration
		SessionStore SessionStore

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	LibraryAudit struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
		Deep     bool   // Re-hash every file instead of checking sizes only
	}
	Activity struct {
		Enabled       bool
		RetentionDays int // Events older than this are pruned nightly
	}
	Log struct {
		File       string // Empty logs to stderr only
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
		Compress   bool
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

// MaxFileSizeBytes returns the upload cap in bytes.
func (l Library) MaxFileSizeBytes() int64 {
	return int64(l.MaxFileSizeMB) * 1024 * 1024
}

// String summarises the settings operators usually care about.
func (c *Config) String() string {
	return fmt.Sprintf("%s:%d (compat=%s, maxFileSize=%dMB, tokenTimeout=%s, storage=%s, sessions=%s)",
		c.Host, c.Port, c.Compat, c.MaxFileSizeMB, c.TokenTimeout, c.Storage.Backend, c.SessionStore)
}

// NewConfig reads .env, the optional configuration file and the environment,
// in increasing order of precedence.
func NewConfig() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	file := configFilePath()
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("properties")
		if err := v.ReadInConfig(); err != nil {
			log.Printf("Could not read config file %s: %v", file, err)
			file = ""
		}
	}

	cfg := fromViper(v)
	cfg.File = file
	return cfg
}

func configFilePath() string {
	for _, name := range configFileEnvVars {
		if p := os.Getenv(name); p != "" {
			return p
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("compat", DefaultCompat)
	v.SetDefault("maxfilesize", DefaultMaxFileSizeMB)
	v.SetDefault("tokentimeout", DefaultTokenTimeout)
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("library_dir", DefaultLibraryDir)
	v.SetDefault("scratch_dir", os.TempDir())

	// Storage defaults
	v.SetDefault("storage_backend", string(StorageLocal))
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_prefix", "")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_access_key", "")
	v.SetDefault("s3_secret_key", "")

	// Auth defaults
	v.SetDefault("session_store", string(SessionStoreMemory))
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Library audit defaults
	v.SetDefault("library_audit_enabled", false)
	v.SetDefault("library_audit_schedule", "0 3 * * *") // Daily at 03:00
	v.SetDefault("library_audit_deep", false)

	// Activity log defaults
	v.SetDefault("activity_enabled", true)
	v.SetDefault("activity_retention_days", 90)

	// Log defaults
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size", 50)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age", 28)
	v.SetDefault("log_compress", false)
}

func fromViper(v *viper.Viper) *Config {
	port := v.GetInt("PORT")
	if port <= 0 || port > 65535 {
		port = DefaultPort
	}

	return &Config{
		HTTP: HTTP{
			Port: int32(port),
			Host: stringOr(v.GetString("HOST"), DefaultHost),
		},
		Sync: Sync{
			Compat: stringOr(v.GetString("COMPAT"), DefaultCompat),
		},
		Library: Library{
			Dir:           v.GetString("LIBRARY_DIR"),
			ScratchDir:    v.GetString("SCRATCH_DIR"),
			MaxFileSizeMB: positiveOr(v.GetInt("MAXFILESIZE"), DefaultMaxFileSizeMB),
		},
		Storage: Storage{
			Backend: StorageBackend(v.GetString("STORAGE_BACKEND")),
			S3: S3{
				Bucket:    v.GetString("S3_BUCKET"),
				Prefix:    v.GetString("S3_PREFIX"),
				Region:    v.GetString("S3_REGION"),
				Endpoint:  v.GetString("S3_ENDPOINT"),
				AccessKey: v.GetString("S3_ACCESS_KEY"),
				SecretKey: v.GetString("S3_SECRET_KEY"),
			},
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			TokenTimeout:     time.Duration(positiveOr(v.GetInt("TOKENTIMEOUT"), DefaultTokenTimeout)) * time.Minute,
			SessionStore:     SessionStore(v.GetString("SESSION_STORE")),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		LibraryAudit: LibraryAudit{
			Enabled:  v.GetBool("LIBRARY_AUDIT_ENABLED"),
			Schedule: v.GetString("LIBRARY_AUDIT_SCHEDULE"),
			Deep:     v.GetBool("LIBRARY_AUDIT_DEEP"),
		},
		Activity: Activity{
			Enabled:       v.GetBool("ACTIVITY_ENABLED"),
			RetentionDays: positiveOr(v.GetInt("ACTIVITY_RETENTION_DAYS"), 90),
		},
		Log: Log{
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE"),
			Compress:   v.GetBool("LOG_COMPRESS"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
