package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TORBOX_API_KEY", "")
	t.Setenv("DMM_BACKUP_JSON_FILE", "")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultInputFile, cfg.InputFile)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Delay)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.False(t, cfg.DryRun)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("TORBOX_API_KEY", "env-key")
	t.Setenv("DMM_BACKUP_JSON_FILE", "backup.json")
	t.Setenv("TBSYNC_DRY_RUN", "true")

	cfg, err := Load("", newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "backup.json", cfg.InputFile)
	assert.True(t, cfg.DryRun)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NestedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TBSYNC_NOTIFICATIONS_SERVICE_DISCORD", "https://hook")
	t.Setenv("TBSYNC_NOTIFICATIONS_SKIP_EMPTY_RUN", "true")
	t.Setenv("TBSYNC_FILTER_EXCLUDE", "HasName")
	t.Setenv("TBSYNC_MAX_RETRIES", "7")

	cfg, err := Load("", newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "https://hook", cfg.Notifications.Service.Discord)
	assert.True(t, cfg.Notifications.SkipEmptyRun)
	assert.Equal(t, []string{"HasName"}, cfg.Filter.Exclude)
	assert.Empty(t, cfg.Filter.Include)
	assert.Equal(t, 7, cfg.MaxRetries)
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		env      string
		value    string
		expected string
	}{
		{"TORBOX_API_KEY", "k", "api_key"},
		{"TORBOX_API_KEY", "", ""},
		{"TBSYNC_BASE_URL", "http://x", "base_url"},
		{"TBSYNC_NOTIFICATIONS_DETAILED", "true", "notifications.detailed"},
		{"TBSYNC_NOTIFICATIONS_SERVICE_DISCORD", "http://x", "notifications.service.discord"},
		{"TBSYNC_FILTER_INCLUDE", "HasName", "filter.include"},
		{"TBSYNC_FILTER_INCLUDE", "", ""},
		{"HOME", "/root", ""},
	}

	for _, tt := range tests {
		key, _ := envKey(tt.env, tt.value)
		assert.Equal(t, tt.expected, key, tt.env)
	}
}

func TestRegisterFlags_DelayUsage(t *testing.T) {
	f := newFlags(t).Lookup("delay")
	require.NotNil(t, f)
	assert.Contains(t, f.Usage, "backoff")
	assert.Contains(t, f.Usage, "pacing")
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TORBOX_API_KEY", "env-key")

	cfg, err := Load("", newFlags(t,
		"--api-key", "flag-key",
		"--input-file", "other.json",
		"--dry-run",
		"--no-log-file",
		"--delay", "1s",
		"--filter", `HasName`,
	))
	require.NoError(t, err)

	assert.Equal(t, "flag-key", cfg.APIKey)
	assert.Equal(t, "other.json", cfg.InputFile)
	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.NoLogFile)
	assert.Equal(t, time.Second, cfg.Delay)
	assert.Equal(t, []string{"HasName"}, cfg.Filter.Include)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_key: file-key
max_retries: 5
timeout: 10s
filter:
  exclude:
    - NameContains("sample")
notifications:
  skip_empty_run: true
  service:
    discord: https://discord.example/webhook
`), 0o600))

	cfg, err := Load(path, newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, DefaultInputFile, cfg.InputFile)
	assert.Equal(t, []string{`NameContains("sample")`}, cfg.Filter.Exclude)
	assert.True(t, cfg.Notifications.SkipEmptyRun)
	assert.Equal(t, "https://discord.example/webhook", cfg.Notifications.Service.Discord)
}

func TestErrMissingAPIKey_NoStack(t *testing.T) {
	assert.Equal(t, ErrMissingAPIKey.Error(), fmt.Sprintf("%+v", ErrMissingAPIKey))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestConfiguration_Validate(t *testing.T) {
	cfg := &Configuration{APIKey: "k", MaxRetries: 0}
	assert.Error(t, cfg.Validate())

	cfg.MaxRetries = 1
	assert.NoError(t, cfg.Validate())

	cfg.Delay = -time.Second
	assert.Error(t, cfg.Validate())
}
