package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var ErrEmptyEnvironmentVariable = errors.New("empty environment variable")

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Services ServicesConfig
	Voice    VoiceConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port int
}

// ServicesConfig holds external service API keys and endpoints
type ServicesConfig struct {
	OpenAIAPIKey  string
	CalculatorURL string
}

// VoiceConfig holds per-call voice session settings
type VoiceConfig struct {
	Voice             string
	InactivityTimeout time.Duration
}

const defaultCalculatorURL = "https://kindergeld.plus/api/anspruchEinfach"

// Load reads and validates all required environment variables
func Load() (*Config, error) {
	// Load env.local in non-production environments
	if os.Getenv("GO_ENV") != "production" {
		if err := godotenv.Load("env.local"); err != nil {
			return nil, fmt.Errorf("failed to load env.local: %w", err)
		}
	}

	cfg := &Config{}

	// Services configuration
	var err error
	if cfg.Services.OpenAIAPIKey, err = requireEnv("OPENAI_API_KEY"); err != nil {
		return nil, err
	}
	cfg.Services.CalculatorURL = getEnvWithDefault("CALCULATOR_URL", defaultCalculatorURL)

	// Voice session configuration
	cfg.Voice.Voice = getEnvWithDefault("VOICE", "alloy")
	inactivityMs := getEnvWithDefault("INACTIVITY_TIMEOUT_MS", "15000")
	ms, err := strconv.Atoi(inactivityMs)
	if err != nil {
		return nil, fmt.Errorf("failed to parse INACTIVITY_TIMEOUT_MS: %w", err)
	}
	cfg.Voice.InactivityTimeout = time.Duration(ms) * time.Millisecond

	// Server configuration
	cfg.Server.Host = getEnvWithDefault("HOST", "0.0.0.0")
	serverPort, err := requireEnv("SERVER_PORT")
	if err != nil {
		return nil, err
	}
	cfg.Server.Port, err = strconv.Atoi(serverPort)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SERVER_PORT: %w", err)
	}

	return cfg, nil
}

// requireEnv retrieves an environment variable or returns an error if empty
func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set: %w", key, ErrEmptyEnvironmentVariable)
	}
	return value, nil
}

// getEnvWithDefault retrieves an environment variable or returns a default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
