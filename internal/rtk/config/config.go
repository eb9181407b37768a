// Package config loads and saves RTK's optional configuration file
// (SPEC_FULL.md §6.7), adapted from the teacher codebase's
// internal/config/manager.go: same os.UserConfigDir() location convention,
// same 0600/0755 permission choices, same empty-Config-on-missing-file Load
// semantics.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// PatchMode is the default hook-installer consent mode, overridable on the
// command line.
type PatchMode string

const (
	PatchModeAsk  PatchMode = "ask"
	PatchModeAuto PatchMode = "auto"
	PatchModeSkip PatchMode = "skip"
)

// Config holds RTK's persistent configuration preferences (§6.7).
type Config struct {
	Tracking TrackingConfig `json:"tracking,omitempty"`
	Hook     HookConfig     `json:"hook,omitempty"`
}

// TrackingConfig configures the telemetry store.
type TrackingConfig struct {
	DatabasePath string `json:"database_path,omitempty"`
}

// HookConfig configures the installer's default behavior.
type HookConfig struct {
	PatchMode PatchMode `json:"patch_mode,omitempty"`
}

// Manager handles loading and saving the configuration file.
type Manager struct {
	configDir string
}

// NewManager creates a configuration manager rooted at the platform's
// standard per-user config directory, under an "rtk" subdirectory.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return &Manager{configDir: filepath.Join(configDir, "rtk")}, nil
}

// NewManagerAt creates a configuration manager rooted at an explicit
// directory, bypassing os.UserConfigDir(). Used by tests and by callers
// that already resolved RTK_CONFIG_DIR-style overrides.
func NewManagerAt(dir string) *Manager {
	return &Manager{configDir: dir}
}

// GetConfigPath returns the absolute path to config.json.
func (m *Manager) GetConfigPath() string {
	return filepath.Join(m.configDir, "config.json")
}

// Load reads the configuration from disk. If the file does not exist, it
// returns an empty Config and no error.
func (m *Manager) Load() (*Config, error) {
	path := m.GetConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to disk with restricted permissions (0600).
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.GetConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Exists reports whether the configuration file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.GetConfigPath())
	return !os.IsNotExist(err)
}

// ValidateJSONSchema checks an arbitrary decoded JSON document against a
// schema document, both already unmarshaled into Go values. Used by
// callers (such as the hook installer) that mutate a JSON config file in
// place and want to catch a malformed result before writing it back.
func ValidateJSONSchema(schema, doc map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	docLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validate json schema: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}
