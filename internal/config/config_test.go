package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Data:    DataConfig{BasePath: "/some/path"},
		Uploads: UploadsConfig{MaxSizeBytes: 1024},
		Webhook: WebhookConfig{MaxAttempts: 8},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_LogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
		cfg := validConfig()
		cfg.Logger.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}

	cfg := validConfig()
	cfg.Logger.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsBadLimits(t *testing.T) {
	cfg := validConfig()
	cfg.Uploads.MaxSizeBytes = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Webhook.MaxAttempts = 0
	assert.Error(t, cfg.Validate())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/quadro-data", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "quadro-data"), got)

	got, err = expandPath("", "/default/path")
	require.NoError(t, err)
	assert.Equal(t, "/default/path", got)

	got, err = expandPath("/absolute", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/absolute", got)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"# comment\n\nQUADRO_TEST_KEY=from-file\nQUADRO_TEST_QUOTED=\"quoted\"\n"), 0o644))

	t.Setenv("QUADRO_TEST_KEY", "")
	os.Unsetenv("QUADRO_TEST_KEY")
	t.Setenv("QUADRO_TEST_QUOTED", "")
	os.Unsetenv("QUADRO_TEST_QUOTED")

	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "from-file", os.Getenv("QUADRO_TEST_KEY"))
	assert.Equal(t, "quoted", os.Getenv("QUADRO_TEST_QUOTED"))

	os.Unsetenv("QUADRO_TEST_KEY")
	os.Unsetenv("QUADRO_TEST_QUOTED")
}
