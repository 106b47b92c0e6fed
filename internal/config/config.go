// Package config loads omni's configuration file (spec.md §6): typed,
// defaulted, coerced settings read once at startup into a plain struct,
// the same "parse once, typed struct downstream" shape the teacher's
// Ctx/Config handling uses for Gopkg.toml.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/types"
)

// General holds spec.md §6's `general.*` keys.
type General struct {
	AutoUpdate       bool   `mapstructure:"auto_update" yaml:"auto_update"`
	ParallelInstalls bool   `mapstructure:"parallel_installs" yaml:"parallel_installs"`
	MaxParallelJobs  int    `mapstructure:"max_parallel_jobs" yaml:"max_parallel_jobs"`
	ConfirmInstalls  bool   `mapstructure:"confirm_installs" yaml:"confirm_installs"`
	LogLevel         string `mapstructure:"log_level" yaml:"log_level"`
	FallbackEnabled  bool   `mapstructure:"fallback_enabled" yaml:"fallback_enabled"`
}

// Boxes holds spec.md §6's `boxes.*` keys. BackendOptions maps a backend
// tag to its `<backend>_options` list.
type Boxes struct {
	PreferredOrder []string            `mapstructure:"preferred_order"`
	DisabledBoxes  []string            `mapstructure:"disabled_boxes"`
	BackendOptions map[string][]string `mapstructure:"-"`
}

// Security holds spec.md §6's `security.*` keys.
type Security struct {
	VerifySignatures bool     `mapstructure:"verify_signatures" yaml:"verify_signatures"`
	VerifyChecksums  bool     `mapstructure:"verify_checksums" yaml:"verify_checksums"`
	AllowUntrusted   bool     `mapstructure:"allow_untrusted" yaml:"allow_untrusted"`
	SignatureServers []string `mapstructure:"signature_servers" yaml:"signature_servers"`
	TrustedKeys      []string `mapstructure:"trusted_keys" yaml:"trusted_keys"`
}

// Config is the fully resolved, defaulted configuration.
type Config struct {
	General  General  `mapstructure:"general"`
	Boxes    Boxes    `mapstructure:"boxes"`
	Security Security `mapstructure:"security"`
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func defaults() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("general.auto_update", false)
	v.SetDefault("general.parallel_installs", true)
	v.SetDefault("general.max_parallel_jobs", 4)
	v.SetDefault("general.confirm_installs", true)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.fallback_enabled", true)

	v.SetDefault("boxes.preferred_order", []string{
		"apt", "dnf", "pacman", "flatpak", "snap", "appimage",
	})
	v.SetDefault("boxes.disabled_boxes", []string{})

	v.SetDefault("security.verify_signatures", true)
	v.SetDefault("security.verify_checksums", true)
	v.SetDefault("security.allow_untrusted", false)
	v.SetDefault("security.signature_servers", []string{})
	v.SetDefault("security.trusted_keys", []string{})

	return v
}

// DefaultPath is `<config-dir>/omni/config.yaml`, per spec.md §6's
// "Persisted state layout", resolved through platform conventions.
func DefaultPath() (string, error) {
	p, err := xdg.ConfigFile("omni/config.yaml")
	if err != nil {
		return "", errs.Wrap(errs.Configuration, err, "failed to resolve config directory")
	}
	return p, nil
}

// DataDir is `<data-dir>/omni/` (database file, logs).
func DataDir() (string, error) {
	p, err := xdg.DataFile("omni/")
	if err != nil {
		return "", errs.Wrap(errs.Configuration, err, "failed to resolve data directory")
	}
	if err := os.MkdirAll(p, 0o700); err != nil {
		return "", errs.Wrap(errs.Configuration, err, "failed to create data directory")
	}
	return filepath.Clean(p) + string(filepath.Separator), nil
}

// CacheDir is `<cache-dir>/omni/`.
func CacheDir() (string, error) {
	p, err := xdg.CacheFile("omni/")
	if err != nil {
		return "", errs.Wrap(errs.Configuration, err, "failed to resolve cache directory")
	}
	if err := os.MkdirAll(p, 0o700); err != nil {
		return "", errs.Wrap(errs.Configuration, err, "failed to create cache directory")
	}
	return filepath.Clean(p) + string(filepath.Separator), nil
}

// Load reads path (missing is not an error; defaults apply), decodes it
// into a Config, and coerces every out-of-range or unrecognized value to
// its default rather than failing the load — spec.md §6: "Invalid values
// are coerced to defaults on load."
func Load(path string) (*Config, error) {
	v := defaults()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !os.IsNotExist(err) {
			return nil, errs.Wrap(errs.Configuration, err, "failed to read config file")
		}
	}

	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "failed to build config decoder")
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "failed to decode config")
	}

	cfg.Boxes.BackendOptions = backendOptions(v)
	coerce(&cfg)
	return &cfg, nil
}

// backendOptions collects every `<backend>_options` key present under
// `boxes`, since the key names are backend-tag-dependent and so cannot
// be declared as a fixed mapstructure field.
func backendOptions(v *viper.Viper) map[string][]string {
	out := map[string][]string{}
	boxes, ok := v.Get("boxes").(map[string]interface{})
	if !ok {
		return out
	}
	for key, val := range boxes {
		if !strings.HasSuffix(key, "_options") {
			continue
		}
		backend := strings.TrimSuffix(key, "_options")
		raw, ok := val.([]interface{})
		if !ok {
			continue
		}
		opts := make([]string, 0, len(raw))
		for _, o := range raw {
			if s, ok := o.(string); ok {
				opts = append(opts, s)
			}
		}
		out[backend] = opts
	}
	return out
}

// coerce enforces spec.md §6's "bounds-checking for numeric fields,
// enumeration check for string fields" rule in place, after decode.
func coerce(cfg *Config) {
	if cfg.General.MaxParallelJobs < 1 || cfg.General.MaxParallelJobs > 16 {
		cfg.General.MaxParallelJobs = 4
	}
	if !validLogLevels[cfg.General.LogLevel] {
		cfg.General.LogLevel = "info"
	}
	cfg.Boxes.PreferredOrder = filterValidBackends(cfg.Boxes.PreferredOrder)
	if len(cfg.Boxes.PreferredOrder) == 0 {
		cfg.Boxes.PreferredOrder = []string{"apt", "dnf", "pacman", "flatpak", "snap", "appimage"}
	}
	cfg.Boxes.DisabledBoxes = filterValidBackends(cfg.Boxes.DisabledBoxes)
}

func filterValidBackends(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if types.Backend(t).Valid() {
			out = append(out, t)
		}
	}
	return out
}
