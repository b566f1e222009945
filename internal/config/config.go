// Package config loads fmachine's runtime configuration: the physical
// motion bounds from spec.md §6 plus the two Open Questions from §9
// promoted to explicit keys.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ciphergoth/fmachine/internal/hal"
)

// Config holds every scalar spec.md §6 requires at startup.
type Config struct {
	MaxAccel    float64 `mapstructure:"max_accel"`
	MinSpeed    float64 `mapstructure:"min_speed"`
	InitSpeed   float64 `mapstructure:"init_speed"`
	MaxSpeed    float64 `mapstructure:"max_speed"`
	MinStroke   int64   `mapstructure:"min_stroke"`
	MaxPos      int64   `mapstructure:"max_pos"`
	TimeToMaxS  float64 `mapstructure:"time_to_max_s"`
	ReportEvents bool   `mapstructure:"report_events"`

	// DirPolarity and IdleCreep resolve spec.md §9's open questions.
	DirPolarity string `mapstructure:"dir_polarity"`
	IdleCreep   bool   `mapstructure:"idle_creep"`

	GPIOChip string `mapstructure:"gpio_chip"`
	StepPin  int    `mapstructure:"step_pin"`
	DirPin   int    `mapstructure:"dir_pin"`

	InputDevice string `mapstructure:"input_device"`

	LogLevel  string `mapstructure:"log_level"`
	LogDir    string `mapstructure:"log_dir"`
}

// Polarity parses DirPolarity, defaulting to hal.Dir0Low on an empty or
// invalid value so a missing config key never blocks startup.
func (c *Config) Polarity() hal.Polarity {
	p, err := hal.ParsePolarity(c.DirPolarity)
	if err != nil {
		return hal.Dir0Low
	}
	return p
}

// Load reads configuration from file, environment, and the
// --report-events flag, following internal/config/config.go's
// viper setup: defaults first, then config file, then env, with the one
// CLI flag spec.md §6 names OR-ed on top (never overriding a true file
// or env value with a false flag default).
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath(getConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		// An explicitly named file that does not exist surfaces as a
		// not-exist error rather than ConfigFileNotFoundError; both
		// mean "no config file", so defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("FMACHINE")
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlag("report_events", flags.Lookup("report-events")); err != nil {
			return nil, fmt.Errorf("bind --report-events: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if flags != nil {
		if reportFlag, err := flags.GetBool("report-events"); err == nil && reportFlag {
			cfg.ReportEvents = true
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max_accel", 20000.0)
	v.SetDefault("min_speed", 100.0)
	v.SetDefault("init_speed", 1000.0)
	v.SetDefault("max_speed", 5000.0)
	v.SetDefault("min_stroke", int64(40))
	v.SetDefault("max_pos", int64(1340))
	v.SetDefault("time_to_max_s", 2.0)
	v.SetDefault("report_events", false)

	v.SetDefault("dir_polarity", "dir0_low")
	v.SetDefault("idle_creep", true)

	v.SetDefault("gpio_chip", "")
	v.SetDefault("step_pin", 13)
	v.SetDefault("dir_pin", 16)

	v.SetDefault("input_device", "/dev/input/event0")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "./logs")
}

func getConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".fmachine")
}
