package input

import (
	"fmt"
	"runtime"
	"strings"
)

// Windows virtual-key codes are used as the single mapping table between
// key identifiers and platform key codes.
var vkNames = map[uint32]string{
	0x08: "backspace",
	0x09: "tab",
	0x0D: "enter",
	0x10: "shift",
	0x11: "ctrl",
	0x12: "alt",
	0x13: "pause",
	0x14: "caps_lock",
	0x1B: "esc",
	0x20: "space",
	0x21: "page_up",
	0x22: "page_down",
	0x23: "end",
	0x24: "home",
	0x25: "left",
	0x26: "up",
	0x27: "right",
	0x28: "down",
	0x2C: "print_screen",
	0x2D: "insert",
	0x2E: "delete",
	0x5B: "cmd",
	0x5C: "cmd_r",
	0x5D: "menu",
	0x90: "num_lock",
	0x91: "scroll_lock",
	0xA0: "shift",
	0xA1: "shift_r",
	0xA2: "ctrl",
	0xA3: "ctrl_r",
	0xA4: "alt",
	0xA5: "alt_r",
	0xBA: ";",
	0xBB: "=",
	0xBC: ",",
	0xBD: "-",
	0xBE: ".",
	0xBF: "/",
	0xC0: "`",
	0xDB: "[",
	0xDC: "\\",
	0xDD: "]",
	0xDE: "'",
}

// Names accepted on injection that are not produced by capture.
var keyAliases = map[string]uint32{
	"ctrl_l":  0xA2,
	"alt_l":   0xA4,
	"alt_gr":  0xA5,
	"shift_l": 0xA0,
	"cmd_l":   0x5B,
	"win":     0x5B,
	"winleft": 0x5B,
	"return":  0x0D,
	"escape":  0x1B,
	"del":     0x2E,
	"pgup":    0x21,
	"pgdn":    0x22,
}

// Keys that need the extended-key flag when injected.
var extendedVK = map[uint32]bool{
	0x21: true, 0x22: true, 0x23: true, 0x24: true,
	0x25: true, 0x26: true, 0x27: true, 0x28: true,
	0x2D: true, 0x2E: true, 0x5B: true, 0x5C: true, 0x5D: true,
	0x90: true, 0xA3: true, 0xA5: true,
}

var nameToVK = func() map[string]uint32 {
	m := make(map[string]uint32, len(vkNames)+len(keyAliases)+36+12)
	for vk, name := range vkNames {
		// Prefer the left-hand code (0xA0..0xA5) over the generic one.
		if cur, ok := m[name]; !ok || vk > cur && vk >= 0xA0 {
			m[name] = vk
		}
	}
	for name, vk := range keyAliases {
		m[name] = vk
	}
	for c := 'a'; c <= 'z'; c++ {
		m[string(c)] = uint32(c - 'a' + 'A')
	}
	for c := '0'; c <= '9'; c++ {
		m[string(c)] = uint32(c)
	}
	for i := 1; i <= 12; i++ {
		m[fmt.Sprintf("f%d", i)] = uint32(0x6F + i)
	}
	return m
}()

// KeyName returns the normalized identifier for a Windows virtual-key code,
// or "" if the code is not mapped.
func KeyName(vk uint32) string {
	switch {
	case vk >= 'A' && vk <= 'Z':
		return string(rune(vk - 'A' + 'a'))
	case vk >= '0' && vk <= '9':
		return string(rune(vk))
	case vk >= 0x70 && vk <= 0x7B:
		return fmt.Sprintf("f%d", vk-0x6F)
	}
	return vkNames[vk]
}

// KeyCode returns the Windows virtual-key code for an identifier. Single
// upper-case letters are accepted as their lower-case key.
func KeyCode(name string) (uint32, bool) {
	name = OSKey(name)
	if vk, ok := nameToVK[name]; ok {
		return vk, true
	}
	if vk, ok := nameToVK[strings.ToLower(name)]; ok {
		return vk, true
	}
	return 0, false
}

// IsExtended reports whether vk must be sent with the extended-key flag.
func IsExtended(vk uint32) bool {
	return extendedVK[vk]
}

// osKeyName is the identifier of the OS key on the running platform.
var osKeyName = func() string {
	if runtime.GOOS == "windows" {
		return "win"
	}
	return "cmd"
}()

// OSKey maps the generic OS-key identifiers "cmd", "cmd_r" and "win" to the
// platform's primary OS key. Other identifiers are returned unchanged.
func OSKey(key string) string {
	switch key {
	case "cmd", "cmd_r", "win":
		return osKeyName
	}
	return key
}

// Canonical folds left/right variants together ("ctrl_r" -> "ctrl") and
// lower-cases the identifier. It is used for hotkey matching, not for
// recording.
func Canonical(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, suffix := range []string{"_l", "_r", "_gr"} {
		if base, ok := strings.CutSuffix(key, suffix); ok && base != "" {
			key = base
			break
		}
	}
	switch key {
	case "control":
		return "ctrl"
	case "return":
		return "enter"
	case "escape":
		return "esc"
	case "win", "super", "meta", "command":
		return "cmd"
	case "option":
		return "alt"
	}
	return key
}
