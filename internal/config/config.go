// Package config provides runtime configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Bibi40k/ems-provision/configs"
)

// FileName is the config file looked up in the project and XDG directories.
const FileName = "emsprovision.yml"

// Config holds runtime settings for emsprovision.
type Config struct {
	DataDir  string `mapstructure:"data_dir" yaml:"data_dir"`
	Store    string `mapstructure:"store" yaml:"store"`
	DraftDir string `mapstructure:"draft_dir" yaml:"draft_dir"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	Operator string `mapstructure:"operator" yaml:"operator"`
}

var envKeys = []string{"data_dir", "store", "draft_dir", "log_level", "operator"}

// Load loads configuration with full precedence:
// flags > EMS_* env > <projectDir>/emsprovision.yml > XDG global config > defaults.
// flags may be nil; only flags the user changed override lower layers.
func Load(projectDir string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	d := configs.Defaults.Store
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("store", d.Kind)
	v.SetDefault("draft_dir", d.DraftDir)
	v.SetDefault("log_level", "info")
	v.SetDefault("operator", "")

	v.SetEnvPrefix("EMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		if err := v.BindEnv(k, "EMS_"+strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", k, err)
		}
	}

	if p := GlobalPath(); fileExists(p) {
		v.SetConfigFile(p)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}
	if p := ProjectPath(projectDir); fileExists(p) {
		v.SetConfigFile(p)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	if flags != nil {
		for _, k := range []string{"store", "data_dir"} {
			f := flags.Lookup(strings.ReplaceAll(k, "_", "-"))
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(k, f); err != nil {
				return nil, fmt.Errorf("binding %s flag: %w", k, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Store {
	case "yaml", "bolt":
	default:
		return fmt.Errorf("invalid store %q (want yaml or bolt)", c.Store)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir is empty")
	}
	return nil
}

// DraftPath resolves the draft directory. Relative paths live under DataDir.
func (c *Config) DraftPath() string {
	if filepath.IsAbs(c.DraftDir) {
		return c.DraftDir
	}
	return filepath.Join(c.DataDir, c.DraftDir)
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/emsprovision/emsprovision.yml or $XDG_CONFIG_HOME/emsprovision/emsprovision.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "emsprovision", FileName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "emsprovision", FileName)
}

// ProjectPath returns the project-local config path inside dir ("" means
// the working directory).
func ProjectPath(dir string) string {
	return filepath.Join(dir, FileName)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
