// Package config loads Cron settings from a yaml file and DATACRON_* env
// variables through viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/datacron"
	"github.com/unkn0wn-root/datacron/mirror"
)

const EnvPrefix = "DATACRON"

// Settings is the declarative part of a Cron's setup. Fetch functions,
// providers and codecs are wired in code.
type Settings struct {
	Interval      time.Duration
	Namespace     string
	MirrorTTL     time.Duration
	MirrorTimeout time.Duration
	LogLevel      string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", time.Minute)
	v.SetDefault("namespace", "")
	v.SetDefault("mirror.ttl", time.Duration(0))
	v.SetDefault("mirror.timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
}

// Load reads path (yaml, optional) and the environment into Settings.
// A missing file is not an error. v may be nil.
func Load(v *viper.Viper, path string) (Settings, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
				return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	s := Settings{
		Interval:      v.GetDuration("interval"),
		Namespace:     v.GetString("namespace"),
		MirrorTTL:     v.GetDuration("mirror.ttl"),
		MirrorTimeout: v.GetDuration("mirror.timeout"),
		LogLevel:      v.GetString("log.level"),
	}
	if s.Interval <= 0 {
		return Settings{}, fmt.Errorf("config: interval must be > 0, got %q", v.GetString("interval"))
	}
	if _, err := s.ZapLevel(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ZapLevel parses LogLevel ("debug", "info", "warn", "error").
func (s Settings) ZapLevel() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(s.LogLevel)
	if err != nil {
		return lvl, fmt.Errorf("config: log level: %w", err)
	}
	return lvl, nil
}

// Apply copies the cron settings onto opts.
func Apply[V any](s Settings, opts *datacron.Options[V]) {
	opts.Interval = s.Interval
	if s.MirrorTimeout > 0 {
		opts.MirrorTimeout = s.MirrorTimeout
	}
}

// ApplyMirror copies the mirror settings onto opts. An empty Namespace keeps
// whatever opts already has.
func ApplyMirror[V any](s Settings, opts *mirror.Options[V]) {
	if s.Namespace != "" {
		opts.Namespace = s.Namespace
	}
	opts.TTL = s.MirrorTTL
}
