// Package config loads application settings from defaults, an optional YAML
// file, TSANOMALY_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tsanomaly/domain/processing"
	"tsanomaly/infrastructure/logging"
	"tsanomaly/resources"
)

// ErrHelp is returned by Load when -h or --help was given. Usage has already
// been printed.
var ErrHelp = pflag.ErrHelp

// EnvPrefix is prepended to every environment override, e.g. TSANOMALY_PROCESSING_MASTER.
const EnvPrefix = "TSANOMALY"

// Config is the full application configuration.
type Config struct {
	Processing struct {
		AppName string `mapstructure:"app_name"`
		Master  string `mapstructure:"master"`
	} `mapstructure:"processing"`

	UI struct {
		AppID               string `mapstructure:"app_id"`
		LayoutPath          string `mapstructure:"layout_path"`
		ExitOnMissingLayout bool   `mapstructure:"exit_on_missing_layout"`
	} `mapstructure:"ui"`

	Log struct {
		Level     string `mapstructure:"level"`
		Dir       string `mapstructure:"dir"`
		AddSource bool   `mapstructure:"add_source"`
	} `mapstructure:"log"`

	EventBus struct {
		Buffer int `mapstructure:"buffer"`
	} `mapstructure:"event_bus"`

	// File is the config file that was read, empty if none was found.
	File string `mapstructure:"-"`
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("processing.app_name", processing.DefaultAppName)
	v.SetDefault("processing.master", processing.DefaultMaster)
	v.SetDefault("ui.app_id", "io.tsanomaly.desktop")
	v.SetDefault("ui.layout_path", resources.MainWindowLayout)
	v.SetDefault("ui.exit_on_missing_layout", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.add_source", false)
	v.SetDefault("event_bus.buffer", 100)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("tsanomaly", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String("master", "", "execution target: local, local[N] or local[*]")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("layout", "", "logical path of the main window layout resource")
	return fs
}

// Load builds the configuration. args are the process arguments without the
// program name.
func Load(args []string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	// Flags only override when given explicitly.
	bindings := map[string]string{
		"processing.master": "master",
		"log.level":         "log-level",
		"ui.layout_path":    "layout",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file, _ := fs.GetString("config"); file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "tsanomaly"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, defaults and env vars apply
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	if _, err := c.ProcessingConfig().Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if strings.TrimSpace(c.UI.LayoutPath) == "" {
		return errors.New("config validation failed: ui.layout_path must not be empty")
	}
	return nil
}

// ProcessingConfig returns the processing-context configuration.
func (c *Config) ProcessingConfig() *processing.Config {
	return (&processing.Config{}).
		SetAppName(c.Processing.AppName).
		SetMaster(c.Processing.Master)
}

// LoggingConfig returns the logging configuration.
func (c *Config) LoggingConfig() *logging.Config {
	lc := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		lc.Level = level
	}
	lc.Dir = c.Log.Dir
	lc.AddSource = c.Log.AddSource
	return lc
}
