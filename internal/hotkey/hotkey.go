// Package hotkey matches key chords such as "ctrl+alt+enter" against a
// stream of captured key events.
package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"macrorec/internal/input"
)

// ErrEmptyHotkey is returned by Register for a blank chord.
var ErrEmptyHotkey = errors.New("hotkey: empty chord")

// Manager handles hotkey registration and matching
type Manager struct {
	mu           sync.RWMutex
	hotkeys      []*registeredHotkey
	currentState map[string]bool // canonical keys currently held
}

type registeredHotkey struct {
	parts    []string // e.g. ["ctrl", "alt", "enter"]
	chord    string
	callback func()
}

// NewManager creates a new hotkey manager
func NewManager() *Manager {
	return &Manager{
		currentState: make(map[string]bool),
	}
}

// Parse splits a chord string into canonical key names.
func Parse(chord string) ([]string, error) {
	if strings.TrimSpace(chord) == "" {
		return nil, ErrEmptyHotkey
	}
	raw := strings.Split(chord, "+")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		p = input.Canonical(p)
		if p == "" {
			return nil, fmt.Errorf("hotkey: malformed chord %q", chord)
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// Register registers a chord (e.g. "Ctrl+Alt+Enter") and a callback.
// Left and right modifier variants match the same chord.
func (m *Manager) Register(chord string, callback func()) (int, error) {
	parts, err := Parse(chord)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.hotkeys = append(m.hotkeys, &registeredHotkey{
		parts:    parts,
		chord:    chord,
		callback: callback,
	})

	return len(m.hotkeys) - 1, nil
}

// Clear removes all registered hotkeys and forgets held keys
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = nil
	m.currentState = make(map[string]bool)
}

// UpdateState records a key transition and fires any chord the press
// completes. Auto-repeat of a held key does not fire again.
func (m *Manager) UpdateState(key string, isDown bool) {
	key = input.Canonical(key)
	m.mu.Lock()
	if !isDown {
		delete(m.currentState, key)
		m.mu.Unlock()
		return
	}
	if m.currentState[key] {
		m.mu.Unlock()
		return
	}
	m.currentState[key] = true
	m.mu.Unlock()

	m.checkMatches(key)
}

func (m *Manager) checkMatches(pressed string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, hk := range m.hotkeys {
		match := false
		for _, part := range hk.parts {
			if part == pressed {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		for _, part := range hk.parts {
			if !m.currentState[part] {
				match = false
				break
			}
		}

		if match {
			log.Printf("Hotkey triggered: %s", hk.chord)
			go hk.callback()
		}
	}
}

// Listen starts capture and feeds its key events to the manager until ctx
// is done or the capture's event channel closes. Injected events are
// ignored so a replay cannot trigger its own hotkeys. The capture is
// stopped before Listen returns.
func (m *Manager) Listen(ctx context.Context, capture input.Capture) error {
	if err := capture.Start(); err != nil {
		return fmt.Errorf("hotkey: start capture: %w", err)
	}
	defer capture.Stop()

	events := capture.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Type == input.TypeKey && !ev.Injected {
				m.UpdateState(ev.Key, ev.Pressed)
			}
		}
	}
}
