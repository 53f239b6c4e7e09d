package xbeeapi

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Default and bound constants. MaxIncomingFrames and MaxFrameLength
// are build-time constants on the original embedded target; here they
// are runtime-configurable with the same reasonable ranges, defaulting
// to values inside that range.
const (
	DefaultMaxIncomingFrames = 10
	DefaultMaxFrameLength    = 150
	DefaultTimeout           = time.Second
	DefaultMaxFailedTransmits = 5

	minTimeout = time.Millisecond
	maxTimeout = 5 * time.Second

	minMaxFailedTransmits = 1
	maxMaxFailedTransmits = 19
)

// Config holds the driver's runtime knobs. Zero-value fields are
// replaced with defaults by clamp(); LoadConfig applies the same
// clamp() after reading a file, so New(Config{}) and a driver built
// from an empty config file behave identically.
type Config struct {
	// MaxIncomingFrames bounds the frame buffer (reasonable range 5-10,
	// but not hard-enforced here since the host has no SRAM budget).
	MaxIncomingFrames int `mapstructure:"maxIncomingFrames"`
	// MaxFrameLength bounds a single frame's payload (reasonable range
	// 70-150).
	MaxFrameLength int `mapstructure:"maxFrameLength"`
	// Timeout is the single-step deadline; composite operations
	// multiply it internally. Clamped to [1ms, 5s).
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxFailedTransmits is the consecutive-failure threshold that
	// forces disassociation. Clamped to [1,19].
	MaxFailedTransmits int `mapstructure:"maxFailedTransmits"`

	// LogLevel is a logrus level name ("debug", "info", ...). Defaults
	// to "info".
	LogLevel string `mapstructure:"logLevel"`
	// LogFile, if non-empty, routes logs through a rotating
	// lumberjack.Logger instead of stderr.
	LogFile string `mapstructure:"logFile"`
}

// clamp fills zero-valued fields with defaults and clamps configured
// values into reasonable ranges. It never returns an error —
// out-of-range input is silently corrected, matching
// set_timeout/set_max_failed_transmits in the original parser, which
// simply ignore out-of-range calls rather than reject them.
func (c Config) clamp() Config {
	out := c
	if out.MaxIncomingFrames <= 0 {
		out.MaxIncomingFrames = DefaultMaxIncomingFrames
	}
	if out.MaxFrameLength <= 0 {
		out.MaxFrameLength = DefaultMaxFrameLength
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.Timeout < minTimeout {
		out.Timeout = minTimeout
	}
	if out.Timeout >= maxTimeout {
		out.Timeout = maxTimeout - time.Millisecond
	}
	if out.MaxFailedTransmits <= 0 {
		out.MaxFailedTransmits = DefaultMaxFailedTransmits
	}
	if out.MaxFailedTransmits < minMaxFailedTransmits {
		out.MaxFailedTransmits = minMaxFailedTransmits
	}
	if out.MaxFailedTransmits > maxMaxFailedTransmits {
		out.MaxFailedTransmits = maxMaxFailedTransmits
	}
	if out.LogLevel == "" {
		out.LogLevel = "info"
	}
	return out
}

// LoadConfig reads driver configuration from path (any format viper
// supports by extension: yaml, json, toml, ...), applies defaults and
// clamps, and returns the result. A missing file is not an error —
// LoadConfig("") or a nonexistent path both return the clamped
// zero-value Config.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	cfg := Config{}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("xbeeapi: read config %q: %w", path, err)
			}
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("xbeeapi: parse config %q: %w", path, err)
		}
	}
	// A frame length below the 9-byte TX header can never carry a
	// payload (TxAddressed would reject every call), which is a
	// structurally broken configuration rather than merely an
	// out-of-range one clamp() would silently correct.
	if cfg.MaxFrameLength != 0 && cfg.MaxFrameLength < 9 {
		return nil, fmt.Errorf("xbeeapi: config %q: maxFrameLength %d: %w", path, cfg.MaxFrameLength, ErrInvalidConfig)
	}
	clamped := cfg.clamp()
	return &clamped, nil
}
