package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"GITHUB_TOKEN", "GITHUB_REPOSITORY", "GITHUB_API", "COUNT_PULL_REQUESTS",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"DB_CHARSET", "DB_TIMEOUT", "DB_PATH", "RUN_TIMEOUT",
}

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	testCases := []struct {
		name        string
		env         map[string]string
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults with mysql credentials",
			env: map[string]string{
				"GITHUB_TOKEN": "token",
				"DB_NAME":      "stats",
				"DB_USER":      "avnadmin",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "aiven/devportal", cfg.GitHub.Repository)
				assert.Equal(t, APIREST, cfg.GitHub.API)
				assert.True(t, cfg.GitHub.IncludePullRequests)
				assert.Equal(t, DriverMySQL, cfg.Database.Driver)
				assert.Equal(t, "127.0.0.1", cfg.Database.Host)
				assert.Equal(t, 3306, cfg.Database.Port)
				assert.Equal(t, "utf8mb4", cfg.Database.Charset)
				assert.Equal(t, 10*time.Second, cfg.Database.Timeout)
				assert.Zero(t, cfg.RunTimeout)
			},
		},
		{
			name: "sqlite needs no server credentials",
			env: map[string]string{
				"GITHUB_TOKEN":        "token",
				"GITHUB_API":          "graphql",
				"COUNT_PULL_REQUESTS": "false",
				"DB_DRIVER":           "sqlite",
				"DB_PATH":             "/tmp/snapshots.db",
				"DB_TIMEOUT":          "3s",
				"RUN_TIMEOUT":         "1m",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, APIGraphQL, cfg.GitHub.API)
				assert.False(t, cfg.GitHub.IncludePullRequests)
				assert.Equal(t, "/tmp/snapshots.db", cfg.Database.Path)
				assert.Equal(t, 3*time.Second, cfg.Database.Timeout)
				assert.Equal(t, time.Minute, cfg.RunTimeout)
			},
		},
		{
			name:        "missing token",
			env:         map[string]string{"DB_NAME": "stats", "DB_USER": "avnadmin"},
			expectError: true,
		},
		{
			name:        "mysql without database name",
			env:         map[string]string{"GITHUB_TOKEN": "token", "DB_USER": "avnadmin"},
			expectError: true,
		},
		{
			name:        "unknown driver",
			env:         map[string]string{"GITHUB_TOKEN": "token", "DB_DRIVER": "postgres"},
			expectError: true,
		},
		{
			name:        "unknown api",
			env:         map[string]string{"GITHUB_TOKEN": "token", "GITHUB_API": "soap", "DB_DRIVER": "sqlite"},
			expectError: true,
		},
		{
			name:        "malformed port",
			env:         map[string]string{"GITHUB_TOKEN": "token", "DB_PORT": "mysql"},
			expectError: true,
		},
		{
			name:        "negative port",
			env:         map[string]string{"GITHUB_TOKEN": "token", "DB_NAME": "stats", "DB_USER": "avnadmin", "DB_PORT": "-5"},
			expectError: true,
		},
		{
			name:        "port out of range",
			env:         map[string]string{"GITHUB_TOKEN": "token", "DB_NAME": "stats", "DB_USER": "avnadmin", "DB_PORT": "70000"},
			expectError: true,
		},
		{
			name:        "zero timeout",
			env:         map[string]string{"GITHUB_TOKEN": "token", "DB_DRIVER": "sqlite", "DB_TIMEOUT": "0s"},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			if tc.expectError {
				assert.ErrorIs(t, err, ErrInvalid)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that are already set, so unset them.
	for _, k := range []string{"GITHUB_TOKEN", "DB_DRIVER", "DB_PATH"} {
		require.NoError(t, os.Unsetenv(k))
	}
	t.Cleanup(func() {
		for _, k := range []string{"GITHUB_TOKEN", "DB_DRIVER", "DB_PATH"} {
			os.Unsetenv(k)
		}
	})

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "GITHUB_TOKEN=from-file\nDB_DRIVER=sqlite\nDB_PATH=file.db\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.GitHub.Token)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "file.db", cfg.Database.Path)
}
