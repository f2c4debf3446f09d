package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	// Production mode skips the env.local file lookup.
	t.Setenv("GO_ENV", "production")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SERVER_PORT", "5050")
}

func TestLoadWithDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HOST", "")
	t.Setenv("CALCULATOR_URL", "")
	t.Setenv("VOICE", "")
	t.Setenv("INACTIVITY_TIMEOUT_MS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Services.OpenAIAPIKey)
	assert.Equal(t, 5050, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, defaultCalculatorURL, cfg.Services.CalculatorURL)
	assert.Equal(t, "alloy", cfg.Voice.Voice)
	assert.Equal(t, 15*time.Second, cfg.Voice.InactivityTimeout)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("CALCULATOR_URL", "https://calc.example.com/api")
	t.Setenv("VOICE", "echo")
	t.Setenv("INACTIVITY_TIMEOUT_MS", "5000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "https://calc.example.com/api", cfg.Services.CalculatorURL)
	assert.Equal(t, "echo", cfg.Voice.Voice)
	assert.Equal(t, 5*time.Second, cfg.Voice.InactivityTimeout)
}

func TestLoadFailsWithoutAPIKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyEnvironmentVariable)
}

func TestLoadFailsWithoutServerPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyEnvironmentVariable)
}

func TestLoadFailsOnUnparsablePort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}
