package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	m := NewManagerAt(filepath.Join("/tmp", "x", "config.json"))
	cfg := m.Get()
	assert.Equal(t, "ctrl+alt+enter", cfg.General.InterruptHotkey)
	assert.Equal(t, 100, cfg.General.NotifyIntervalMs)
	assert.Equal(t, filepath.Join("/tmp", "x", "macro.json"), cfg.General.MacroPath)
	assert.Equal(t, 18090, cfg.API.Port)
	assert.True(t, cfg.Recording.DropTrailingClick)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("a.yml"))
	assert.Equal(t, FormatYAML, FormatFor("A.YAML"))
	assert.Equal(t, FormatTOML, FormatFor("c.toml"))
	assert.Equal(t, FormatJSON, FormatFor("c.json"))
	assert.Equal(t, FormatJSON, FormatFor("noext"))
}

func TestSaveLoadEachFormat(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			m := NewManagerAt(path)
			cfg := m.Get()
			cfg.General.InterruptHotkey = "f12"
			cfg.API.Token = "secret"
			cfg.Recording.CaptureMouse = false
			m.Set(cfg)
			require.NoError(t, m.Save())

			loaded := NewManagerAt(path)
			require.NoError(t, loaded.Load())
			assert.Equal(t, m.Get(), loaded.Get())
		})
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  port: 9000\n"), 0644))

	m := NewManagerAt(path)
	require.NoError(t, m.Load())
	cfg := m.Get()
	assert.Equal(t, 9000, cfg.API.Port)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "ctrl+alt+enter", cfg.General.InterruptHotkey)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[general]\ninterrupt_hotkey = \"ctrl+q\"\nnotify_interval_ms = 250\n"), 0644))

	m := NewManagerAt(path)
	require.NoError(t, m.Load())
	assert.Equal(t, "ctrl+q", m.Get().General.InterruptHotkey)
	assert.Equal(t, 250, m.Get().General.NotifyIntervalMs)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	m := NewManagerAt(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, m.Load())
	assert.Equal(t, 18090, m.Get().API.Port)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	assert.Error(t, NewManagerAt(path).Load())
}

func TestChangeCallback(t *testing.T) {
	m := NewManagerAt(filepath.Join(t.TempDir(), "config.json"))
	calls := 0
	m.RegisterChangeCallback(func() { calls++ })

	cfg := m.Get()
	cfg.API.Port = 1
	m.Set(cfg)
	assert.Equal(t, 1, calls)

	cfg.API.Port = 2
	assert.Equal(t, 1, m.Get().API.Port, "Get must return a copy")
}
