package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/cesargomez89/movielog/internal/constants"
)

// Config holds all application configuration
type Config struct {
	ProgramName    string
	ProgramVersion string
	Geometry       string
	Port           string
	DataDir        string
	TMDBBaseURL    string
	TMDBAPIKey     string
	UseTMDB        bool
	LogLevel       string
	LogFormat      string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		ProgramName:    getEnv("PROGRAM_NAME", constants.DefaultProgramName),
		ProgramVersion: getEnv("PROGRAM_VERSION", "dev"),
		Geometry:       getEnv("GEOMETRY", ""),
		Port:           getEnv("PORT", constants.DefaultPort),
		DataDir:        getEnv("DATA_DIR", constants.DefaultDataDir),
		TMDBBaseURL:    getEnv("TMDB_BASE_URL", constants.DefaultTMDBBaseURL),
		TMDBAPIKey:     getEnv("TMDB_API_KEY", ""),
		UseTMDB:        getEnvBool("USE_TMDB", true),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DataDir == "" {
		errors = append(errors, "DATA_DIR cannot be empty")
	}

	if c.TMDBBaseURL == "" {
		errors = append(errors, "TMDB_BASE_URL cannot be empty")
	} else {
		if _, err := url.Parse(c.TMDBBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("TMDB_BASE_URL is not a valid URL: %s", c.TMDBBaseURL))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvBool retrieves a boolean environment variable with a fallback default
func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
