package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, name := range append(configFileEnvVars,
		"HOST", "PORT", "COMPAT", "MAXFILESIZE", "TOKENTIMEOUT", "STORAGE_BACKEND", "SESSION_STORE") {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg := NewConfig()

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, int32(9000), cfg.Port)
	assert.Equal(t, "0.0.0", cfg.Compat)
	assert.Equal(t, 200, cfg.MaxFileSizeMB)
	assert.Equal(t, int64(200*1024*1024), cfg.MaxFileSizeBytes())
	assert.Equal(t, 60*time.Minute, cfg.TokenTimeout)
	assert.Equal(t, StorageLocal, cfg.Storage.Backend)
	assert.Equal(t, SessionStoreMemory, cfg.SessionStore)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "0 3 * * *", cfg.LibraryAudit.Schedule)
	assert.True(t, cfg.Activity.Enabled)
	assert.Equal(t, 90, cfg.Activity.RetentionDays)
	assert.Equal(t, 5, cfg.ShutdownTimeoutInSeconds)
	assert.Empty(t, cfg.File)
}

func TestNewConfig_FileThenEnvironment(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "readsync.conf")
	require.NoError(t, os.WriteFile(path, []byte(`# server settings
host = 0.0.0.0
port = 8080
compat = 1.2.0
maxfilesize = 50
tokentimeout = 15
`), 0o600))
	t.Setenv("SIMPLEREADER_CONF", path)
	t.Setenv("PORT", "9443")

	cfg := NewConfig()

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, int32(9443), cfg.Port, "environment beats the file")
	assert.Equal(t, "1.2.0", cfg.Compat)
	assert.Equal(t, int64(50*1024*1024), cfg.MaxFileSizeBytes())
	assert.Equal(t, 15*time.Minute, cfg.TokenTimeout)
}

func TestNewConfig_InvalidNumbersKeepDefaults(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{"port zero", map[string]string{"PORT": "0"}, func(t *testing.T, cfg *Config) {
			assert.Equal(t, int32(DefaultPort), cfg.Port)
		}},
		{"port too high", map[string]string{"PORT": "70000"}, func(t *testing.T, cfg *Config) {
			assert.Equal(t, int32(DefaultPort), cfg.Port)
		}},
		{"negative max size", map[string]string{"MAXFILESIZE": "-3"}, func(t *testing.T, cfg *Config) {
			assert.Equal(t, DefaultMaxFileSizeMB, cfg.MaxFileSizeMB)
		}},
		{"garbage timeout", map[string]string{"TOKENTIMEOUT": "soon"}, func(t *testing.T, cfg *Config) {
			assert.Equal(t, DefaultTokenTimeout*time.Minute, cfg.TokenTimeout)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			tt.check(t, NewConfig())
		})
	}
}

func TestNewConfig_MissingFileIsIgnored(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("READSYNC_CONF", filepath.Join(t.TempDir(), "absent.conf"))

	cfg := NewConfig()

	assert.Empty(t, cfg.File)
	assert.Equal(t, int32(DefaultPort), cfg.Port)
}
