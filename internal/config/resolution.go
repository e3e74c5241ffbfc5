package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Environment variable names.
const (
	EnvWorkspace    = "SHOTLINK_WORKSPACE"
	EnvArtifactRoot = "SHOTLINK_ARTIFACT_ROOT"
	EnvStorageRoot  = "SHOTLINK_STORAGE_ROOT"
	EnvReports      = "SHOTLINK_REPORTS"
	EnvWorkers      = "SHOTLINK_WORKERS"
	EnvMarker       = "SHOTLINK_MARKER"
	EnvFormat       = "SHOTLINK_FORMAT"
	EnvTheme        = "SHOTLINK_THEME"
	EnvLogLevel     = "SHOTLINK_LOG_LEVEL"
	EnvLogFormat    = "SHOTLINK_LOG_FORMAT"
)

// Flags holds CLI flag values. A field applies only when its name is in Set.
type Flags struct {
	Workspace    string
	ArtifactRoot string
	StorageRoot  string
	Reports      []string
	Workers      int
	Marker       string
	Format       string
	Theme        string
	LogLevel     string
	LogFormat    string

	// Set records which flags the user passed explicitly, keyed by flag name.
	Set map[string]bool
}

// Flag names shared with the CLI.
const (
	FlagWorkspace = "workspace"
	FlagArtifacts = "artifacts"
	FlagStorage   = "storage"
	FlagWorkers   = "workers"
	FlagMarker    = "marker"
	FlagFormat    = "format"
	FlagTheme     = "theme"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
)

// Resolve loads the config file, then applies the environment and the
// explicitly set flags, then validates. lookup is os.LookupEnv in
// production.
func Resolve(path string, flags Flags, lookup func(string) (string, bool)) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.applyFlags(flags)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	env := &Config{
		Workspace:    get(EnvWorkspace),
		ArtifactRoot: get(EnvArtifactRoot),
		StorageRoot:  get(EnvStorageRoot),
		Marker:       get(EnvMarker),
		Format:       get(EnvFormat),
		Theme:        get(EnvTheme),
		LogLevel:     get(EnvLogLevel),
		LogFormat:    get(EnvLogFormat),
	}
	if v := get(EnvReports); v != "" {
		env.Reports = filepath.SplitList(v)
	}
	if v := get(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		env.Workers = n
	}
	c.merge(env)
	return nil
}

func (c *Config) applyFlags(f Flags) {
	if f.Set[FlagWorkspace] {
		c.Workspace = f.Workspace
	}
	if f.Set[FlagArtifacts] {
		c.ArtifactRoot = f.ArtifactRoot
	}
	if f.Set[FlagStorage] {
		c.StorageRoot = f.StorageRoot
	}
	if len(f.Reports) > 0 {
		c.Reports = append([]string(nil), f.Reports...)
	}
	if f.Set[FlagWorkers] {
		c.Workers = f.Workers
	}
	if f.Set[FlagMarker] {
		c.Marker = f.Marker
	}
	if f.Set[FlagFormat] {
		c.Format = f.Format
	}
	if f.Set[FlagTheme] {
		c.Theme = f.Theme
	}
	if f.Set[FlagLogLevel] {
		c.LogLevel = f.LogLevel
	}
	if f.Set[FlagLogFormat] {
		c.LogFormat = f.LogFormat
	}
}
