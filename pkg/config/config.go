package config

import (
	stderrors "errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

const (
	DefaultInputFile = "dmm-backup.json"
	DefaultBaseURL   = "https://api.torbox.app/v1"

	envPrefix = "TBSYNC_"
)

var ErrMissingAPIKey = stderrors.New("no API key provided, use --api-key or set TORBOX_API_KEY")

// env vars kept for compatibility with existing setups
var legacyEnv = map[string]string{
	"TORBOX_API_KEY":       "api_key",
	"DMM_BACKUP_JSON_FILE": "input_file",
}

// TBSYNC_ key prefixes that address nested sections, longest first
var envSections = []struct {
	prefix  string
	section string
}{
	{"notifications_service_", "notifications.service."},
	{"notifications_", "notifications."},
	{"filter_", "filter."},
}

// keys decoded into string lists; the environment carries one entry each
var envLists = map[string]bool{
	"filter.include": true,
	"filter.exclude": true,
}

// flag names that do not translate to a key by swapping dashes for underscores
var flagKeys = map[string]string{
	"log":     "log_file",
	"filter":  "filter.include",
	"exclude": "filter.exclude",
	"config":  "",
	"verbose": "",
}

type Configuration struct {
	APIKey     string        `koanf:"api_key"`
	InputFile  string        `koanf:"input_file"`
	BaseURL    string        `koanf:"base_url"`
	DryRun     bool          `koanf:"dry_run"`
	NoLogFile  bool          `koanf:"no_log_file"`
	LogFile    string        `koanf:"log_file"`
	MaxRetries int           `koanf:"max_retries"`
	Delay      time.Duration `koanf:"delay"`
	Timeout    time.Duration `koanf:"timeout"`

	Filter        FilterConfiguration `koanf:"filter"`
	Notifications NotificationsConfig `koanf:"notifications"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"input_file":  DefaultInputFile,
		"base_url":    DefaultBaseURL,
		"max_retries": 3,
		"delay":       "5s",
		"timeout":     "30s",
	}
}

// Load layers defaults, the optional YAML file, the environment and finally
// any flags set on the command line.
func Load(configFile string, flags *pflag.FlagSet) (*Configuration, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "loading defaults")
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, errors.Wrapf(err, "config file %s", configFile)
		}
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "parsing config file %s", configFile)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "loading environment")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, errors.Wrap(err, "loading flags")
		}
	}

	cfg := &Configuration{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}

	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	return cfg, nil
}

func envKey(key string, value string) (string, interface{}) {
	if k, ok := legacyEnv[key]; ok {
		if value == "" {
			return "", nil
		}
		return k, value
	}

	if !strings.HasPrefix(key, envPrefix) {
		return "", nil
	}

	k := strings.ToLower(strings.TrimPrefix(key, envPrefix))
	for _, s := range envSections {
		if strings.HasPrefix(k, s.prefix) {
			k = s.section + strings.TrimPrefix(k, s.prefix)
			break
		}
	}

	if envLists[k] {
		if value == "" {
			return "", nil
		}
		return k, []string{value}
	}
	return k, value
}

func flagKey(name string) string {
	if k, ok := flagKeys[name]; ok {
		return k
	}
	return strings.ReplaceAll(name, "-", "_")
}

func (c *Configuration) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.MaxRetries < 1 {
		return errors.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.Delay < 0 || c.Timeout < 0 {
		return errors.New("delay and timeout must not be negative")
	}
	return nil
}
