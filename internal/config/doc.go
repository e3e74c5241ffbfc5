// Package config handles configuration loading and merging for shotlink.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--artifacts, --storage, --workers, --format, etc.)
//  2. Environment variables (SHOTLINK_ARTIFACT_ROOT, SHOTLINK_STORAGE_ROOT, ...)
//  3. YAML config file (.shotlink.yaml in the working directory or
//     $XDG_CONFIG_HOME/shotlink/.shotlink.yaml)
//  4. Hardcoded defaults
//
// When a higher-priority source sets a value, it overrides any lower-priority values.
//
// # Environment Variables
//
//   - SHOTLINK_WORKSPACE: base directory for relative artifact and storage roots
//   - SHOTLINK_ARTIFACT_ROOT: where the test framework wrote screenshots
//   - SHOTLINK_STORAGE_ROOT: where copies and result.js are written
//   - SHOTLINK_REPORTS: report paths, separated by the OS list separator
//   - SHOTLINK_WORKERS: concurrent case scans
//   - SHOTLINK_MARKER: log marker preceding the result path
//   - SHOTLINK_FORMAT, SHOTLINK_THEME: summary output
//   - SHOTLINK_LOG_LEVEL, SHOTLINK_LOG_FORMAT: logging
package config
