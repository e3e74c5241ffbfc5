package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/dkoosis/shotlink/pkg/logpath"
)

// FileName is the config file looked up by Find.
const FileName = ".shotlink.yaml"

// Constants for default values.
const (
	DefaultArtifactRoot = "results"
	DefaultStorageRoot  = "shotlink-report"
	DefaultFormat       = "auto"
	DefaultTheme        = "default"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
)

// Config is the resolved shotlink configuration. YAML tags match
// .shotlink.yaml keys.
type Config struct {
	Workspace    string   `yaml:"workspace"`
	ArtifactRoot string   `yaml:"artifact_root"`
	StorageRoot  string   `yaml:"storage_root"`
	Reports      []string `yaml:"reports"`
	Workers      int      `yaml:"workers"`
	Marker       string   `yaml:"marker"`
	Format       string   `yaml:"format"`
	Theme        string   `yaml:"theme"`
	LogLevel     string   `yaml:"log_level"`
	LogFormat    string   `yaml:"log_format"`
}

// Default returns the hardcoded defaults.
func Default() *Config {
	return &Config{
		Workspace:    ".",
		ArtifactRoot: DefaultArtifactRoot,
		StorageRoot:  DefaultStorageRoot,
		Workers:      runtime.GOMAXPROCS(0),
		Marker:       logpath.DefaultMarker,
		Format:       DefaultFormat,
		Theme:        DefaultTheme,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
	}
}

// Load reads the config file at path over the defaults. An empty path
// means Find; no file at all yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = Find()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	var fromFile Config
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.merge(&fromFile)
	return cfg, nil
}

// merge copies every non-zero field of o onto c.
func (c *Config) merge(o *Config) {
	setString(&c.Workspace, o.Workspace)
	setString(&c.ArtifactRoot, o.ArtifactRoot)
	setString(&c.StorageRoot, o.StorageRoot)
	if len(o.Reports) > 0 {
		c.Reports = append([]string(nil), o.Reports...)
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	setString(&c.Marker, o.Marker)
	setString(&c.Format, o.Format)
	setString(&c.Theme, o.Theme)
	setString(&c.LogLevel, o.LogLevel)
	setString(&c.LogFormat, o.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Find returns the config file to use: ./.shotlink.yaml first, then
// <UserConfigDir>/shotlink/.shotlink.yaml. Empty when neither exists.
func Find() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}

	configHome, err := os.UserConfigDir()
	// If UserConfigDir fails OR returns an empty path or "/", it's not suitable for XDG path construction here.
	if err == nil && configHome != "" && configHome != "/" {
		xdgPath := filepath.Join(configHome, "shotlink", FileName)
		if _, errStat := os.Stat(xdgPath); errStat == nil {
			return xdgPath
		}
	}
	return ""
}

// Resolve returns p relative to the workspace unless it is absolute.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) || c.Workspace == "" {
		return p
	}
	return filepath.Join(c.Workspace, p)
}

var validFormats = map[string]bool{"auto": true, "terminal": true, "text": true, "json": true}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if c.ArtifactRoot == "" {
		errs = append(errs, errors.New("artifact_root must be set"))
	}
	if c.StorageRoot == "" {
		errs = append(errs, errors.New("storage_root must be set"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if !validFormats[c.Format] {
		errs = append(errs, fmt.Errorf("unknown format %q (expected auto, terminal, text, json)", c.Format))
	}
	if c.Theme != "default" && c.Theme != "mono" {
		errs = append(errs, fmt.Errorf("unknown theme %q (expected default, mono)", c.Theme))
	}
	return errors.Join(errs...)
}
