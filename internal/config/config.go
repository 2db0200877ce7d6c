// Package config loads the runtime configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ErrInvalid is returned when the configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	APIREST    = "rest"
	APIGraphQL = "graphql"

	defaultRepository = "aiven/devportal"
	defaultTimeout    = 10 * time.Second
)

// Config is the complete runtime configuration.
type Config struct {
	GitHub   GitHub
	Database Database
	// RunTimeout bounds the whole run when positive.
	RunTimeout time.Duration `validate:"min=0"`
}

// GitHub holds the issue tracker settings.
type GitHub struct {
	Token               string `validate:"required"`
	Repository          string `validate:"required"`
	API                 string `validate:"oneof=rest graphql"`
	IncludePullRequests bool
}

// Database holds the connection parameters of the snapshot store.
type Database struct {
	Driver   string `validate:"oneof=mysql sqlite"`
	Host     string `validate:"required_if=Driver mysql"`
	Port     int    `validate:"required_if=Driver mysql,min=1,max=65535"`
	Name     string `validate:"required_if=Driver mysql"`
	User     string `validate:"required_if=Driver mysql"`
	Password string
	Charset  string
	// Timeout is applied to connect, read and write separately.
	Timeout time.Duration `validate:"gt=0"`
	Path    string        `validate:"required_if=Driver sqlite"`
}

// Load reads the configuration. Variables already present in the process
// environment take precedence over the ones found in envFiles; missing
// files are ignored. With no envFiles, ".env" in the working directory is tried.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read env file %s: %w", f, err)
		}
	}

	cfg := &Config{
		GitHub: GitHub{
			Token:      os.Getenv("GITHUB_TOKEN"),
			Repository: getEnv("GITHUB_REPOSITORY", defaultRepository),
			API:        getEnv("GITHUB_API", APIREST),
		},
		Database: Database{
			Driver:   getEnv("DB_DRIVER", DriverMySQL),
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Name:     os.Getenv("DB_NAME"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Charset:  getEnv("DB_CHARSET", "utf8mb4"),
			Path:     getEnv("DB_PATH", "snapshots.db"),
		},
	}

	var err error
	if cfg.GitHub.IncludePullRequests, err = strconv.ParseBool(getEnv("COUNT_PULL_REQUESTS", "true")); err != nil {
		return nil, fmt.Errorf("%w: COUNT_PULL_REQUESTS: %v", ErrInvalid, err)
	}
	if cfg.Database.Port, err = strconv.Atoi(getEnv("DB_PORT", "3306")); err != nil {
		return nil, fmt.Errorf("%w: DB_PORT: %v", ErrInvalid, err)
	}
	if cfg.Database.Timeout, err = time.ParseDuration(getEnv("DB_TIMEOUT", defaultTimeout.String())); err != nil {
		return nil, fmt.Errorf("%w: DB_TIMEOUT: %v", ErrInvalid, err)
	}
	if cfg.RunTimeout, err = time.ParseDuration(getEnv("RUN_TIMEOUT", "0s")); err != nil {
		return nil, fmt.Errorf("%w: RUN_TIMEOUT: %v", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags of the whole configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return def
}
