package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel          = "info"
	DefaultLibrary           = "libddcutil.so.5"
	DefaultBrightness        = 50
	DefaultMetricsDB         = "/var/lib/ddcctl/metrics.db"
	DefaultEnvPrefix         = "DDCCTL"
	configEnv                = "DDCCTL_CONFIG"
	configName               = "ddcctl"
	maxBrightnessPercent int = 100
)

type Config struct {
	LogLevel          string `mapstructure:"log_level"`
	Library           string `mapstructure:"library"`
	DefaultBrightness int    `mapstructure:"default_brightness"`
	WaitOpen          bool   `mapstructure:"wait_open"`
	RevertOnFailure   bool   `mapstructure:"revert_on_failure"`
	Metrics           bool   `mapstructure:"metrics"`
	MetricsDB         string `mapstructure:"metrics_db"`
	DBus              bool   `mapstructure:"dbus"`

	v *viper.Viper
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"log-level":          "log_level",
	"library":            "library",
	"default-brightness": "default_brightness",
	"wait-open":          "wait_open",
	"revert-on-failure":  "revert_on_failure",
	"metrics":            "metrics",
	"metrics-db":         "metrics_db",
	"dbus":               "dbus",
}

// RegisterFlags defines the configuration flags on fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.String("library", DefaultLibrary, "Path or soname of the ddcutil shared library")
	fs.Int("default-brightness", DefaultBrightness, "Brightness reported when a display cannot be read")
	fs.Bool("wait-open", false, "Wait for a display lock when opening a display")
	fs.Bool("revert-on-failure", false, "Revert the displayed brightness when a write fails")
	fs.Bool("metrics", false, "Record brightness writes to the metrics database")
	fs.String("metrics-db", DefaultMetricsDB, "Path to the metrics database")
	fs.Bool("dbus", true, "Expose the brightness service on the session bus")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("library", DefaultLibrary)
	v.SetDefault("default_brightness", DefaultBrightness)
	v.SetDefault("wait_open", false)
	v.SetDefault("revert_on_failure", false)
	v.SetDefault("metrics", false)
	v.SetDefault("metrics_db", DefaultMetricsDB)
	v.SetDefault("dbus", true)
}

// Load reads the configuration from defaults, the config file, the
// environment and flags, in increasing order of precedence. flags may be nil.
func Load(flags *pflag.FlagSet, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{}
	if path, ok := os.LookupEnv(configEnv); ok {
		o.configPath = path
		o.configPathSet = true
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, o); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errFactory.Wrap(errors.ErrBindFlags, err)
			}
		}
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	cfg.v = v

	return cfg, nil
}

func readConfigFile(v *viper.Viper, o *options) error {
	errFactory := errors.New()

	switch {
	case o.configPathSet && o.configPath == "":
		return nil
	case o.configPathSet:
		v.SetConfigFile(o.configPath)
		v.SetConfigType("toml")
	default:
		v.SetConfigName(configName)
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	logger.Debug().Str("path", v.ConfigFileUsed()).Msg("Config file loaded")

	return nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	errFactory := errors.New()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	errFactory := errors.New()

	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.LogLevel == "warn" {
		c.LogLevel = string(LogLevelWarning)
	}
	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if c.DefaultBrightness < 0 || c.DefaultBrightness > maxBrightnessPercent {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value int
		}{
			Field: "default_brightness",
			Value: c.DefaultBrightness,
		})
	}

	if c.Library == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "library must not be empty")
	}

	if c.Metrics && c.MetricsDB == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "metrics_db must be set when metrics are enabled")
	}

	return nil
}

// File returns the config file in use, if any
func (c *Config) File() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// Watch reloads the configuration whenever the config file changes and
// passes every valid reload to callback. Invalid reloads are logged and
// skipped. Callbacks stop once ctx is done. Watching fails when the config
// file has gone away since Load.
func (c *Config) Watch(ctx context.Context, callback func(*Config)) error {
	if c.File() == "" {
		logger.Debug().Msg("No config file in use, not watching")
		return nil
	}

	if _, err := os.Stat(c.File()); err != nil {
		return errors.New().Wrap(errors.ErrWatchConfig, err)
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		if ctx.Err() != nil || !e.Has(fsnotify.Write|fsnotify.Create) {
			return
		}

		cfg, err := unmarshal(c.v)
		if err != nil {
			logger.Warn().Err(err).Str("path", e.Name).Msg("Ignoring invalid config change")
			return
		}
		cfg.v = c.v

		logger.Info().Str("path", e.Name).Msg("Config reloaded")
		callback(cfg)
	})
	c.v.WatchConfig()

	return nil
}
