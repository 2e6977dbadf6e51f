// Package config provides configuration management for the macro recorder.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// AppName names the per-user configuration directory.
const AppName = "macrorec"

// Config represents the application configuration
type Config struct {
	// General contains general application settings
	General GeneralConfig `json:"general" yaml:"general" toml:"general"`

	// API contains the HTTP/WebSocket server settings
	API APIConfig `json:"api" yaml:"api" toml:"api"`

	// Recording contains capture settings
	Recording RecordingConfig `json:"recording" yaml:"recording" toml:"recording"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// MacroPath is the macro file loaded on start and written by Save
	MacroPath string `json:"macro_path" yaml:"macro_path" toml:"macro_path"`

	// InterruptHotkey stops a running replay (e.g. "ctrl+alt+enter")
	InterruptHotkey string `json:"interrupt_hotkey" yaml:"interrupt_hotkey" toml:"interrupt_hotkey"`

	// NotifyIntervalMs is the minimum spacing of structure-changed events
	NotifyIntervalMs int `json:"notify_interval_ms" yaml:"notify_interval_ms" toml:"notify_interval_ms"`

	// WatchMacroFile reloads the macro when the file is edited externally
	WatchMacroFile bool `json:"watch_macro_file" yaml:"watch_macro_file" toml:"watch_macro_file"`

	// DefaultSectionName is the prefix of sections added without a name
	DefaultSectionName string `json:"default_section_name" yaml:"default_section_name" toml:"default_section_name"`
}

// APIConfig contains the HTTP API settings
type APIConfig struct {
	// Enabled starts the HTTP API server
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled"`

	// Port is the port for the API server (default: 18090)
	Port int `json:"port" yaml:"port" toml:"port"`

	// Token is an optional bearer token required on every request
	Token string `json:"token,omitempty" yaml:"token,omitempty" toml:"token,omitempty"`
}

// RecordingConfig contains capture settings
type RecordingConfig struct {
	// DropTrailingClick removes a final mouse step when recording stops
	DropTrailingClick bool `json:"drop_trailing_click" yaml:"drop_trailing_click" toml:"drop_trailing_click"`

	// CaptureMouse records mouse buttons as well as keys
	CaptureMouse bool `json:"capture_mouse" yaml:"capture_mouse" toml:"capture_mouse"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			InterruptHotkey:    "ctrl+alt+enter",
			NotifyIntervalMs:   100,
			WatchMacroFile:     true,
			DefaultSectionName: "Section",
		},
		API: APIConfig{
			Enabled: true,
			Port:    18090,
		},
		Recording: RecordingConfig{
			DropTrailingClick: true,
			CaptureMouse:      true,
		},
	}
}

// Format is a configuration file encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the encoding from a file extension. Unknown extensions
// use JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Marshal encodes cfg in the given format
func Marshal(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(cfg)
	case FormatTOML:
		return toml.Marshal(cfg)
	default:
		return json.MarshalIndent(cfg, "", "  ")
	}
}

// Unmarshal decodes data into cfg. Keys missing from data keep their
// current values.
func Unmarshal(data []byte, format Format, cfg *Config) error {
	switch format {
	case FormatYAML:
		return yaml.Unmarshal(data, cfg)
	case FormatTOML:
		return toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a configuration manager using the per-user config file
func NewManager() (*Manager, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(filepath.Join(configDir, "config.json")), nil
}

// NewManagerAt creates a configuration manager for an explicit file. The
// format follows the file extension.
func NewManagerAt(path string) *Manager {
	cfg := DefaultConfig()
	cfg.General.MacroPath = filepath.Join(filepath.Dir(path), "macro.json")
	return &Manager{
		configPath: path,
		config:     cfg,
	}
}

// getConfigDir returns the per-user configuration directory
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", AppName)
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, AppName)
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", AppName)
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}

	return configDir, nil
}

// Path returns the configuration file path
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk
func (m *Manager) Load() error {
	m.mu.Lock()
	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		// No config file, use defaults
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("config: read %s: %w", m.configPath, err)
	}

	cfg := *m.config
	if err := Unmarshal(data, FormatFor(m.configPath), &cfg); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("config: parse %s: %w", m.configPath, err)
	}
	m.config = &cfg
	fn := m.onChanged
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := Marshal(m.config, FormatFor(m.configPath))
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}
	log.Printf("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := *m.config
	return &cfg
}

// Set updates the configuration
func (m *Manager) Set(config *Config) {
	m.mu.Lock()
	cfg := *config
	m.config = &cfg
	fn := m.onChanged
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
