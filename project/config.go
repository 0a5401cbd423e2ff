// Package project loads the optional YAML project file a Valley build can
// point at, generalizing lib/project/cfconfig.go's CfConf.
package project

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Diagnostics controls how the CLI renders compiler errors.
type Diagnostics struct {
	Color bool `yaml:"color"`
}

// Config is the optional project descriptor pointed at by `valleyc
// --config`. It never replaces the single source-file argument the core
// compiler takes; it only carries metadata around it.
type Config struct {
	Name            string      `yaml:"name"`
	Entry           string      `yaml:"entry"`
	LanguageVersion string      `yaml:"languageVersion"`
	Diagnostics     Diagnostics `yaml:"diagnostics"`
}

// Default mirrors CreateDefault: a minimal config naming no entry file yet.
func Default() *Config {
	return &Config{
		Name:            "valley-project",
		LanguageVersion: "v0.1.0",
		Diagnostics:     Diagnostics{Color: true},
	}
}

// Load reads and validates a YAML config file, wrapping I/O and decode
// failures with github.com/pkg/errors the way the ambient stack wraps
// every boundary failure.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening project config %q", path)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "decoding project config %q", path)
	}
	if cfg.LanguageVersion != "" && !semver.IsValid(cfg.LanguageVersion) {
		return nil, errors.Errorf("project config %q: languageVersion %q is not a valid semantic version", path, cfg.LanguageVersion)
	}
	return &cfg, nil
}

// Save writes cfg back out as YAML, mirroring CfConf.Save.
func Save(path string, cfg *Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshaling project config")
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.Wrapf(err, "writing project config %q", path)
	}
	return nil
}
