//go:build windows

package input

import (
	"fmt"
	"unicode/utf8"
	"unsafe"
)

// Windows implementation of input injection using SendInput

var (
	procSendInput    = user32.NewProc("SendInput")
	procSetCursorPos = user32.NewProc("SetCursorPos")
	procVkKeyScan    = user32.NewProc("VkKeyScanW")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002

	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
)

// mouseInput mirrors INPUT with a MOUSEINPUT union member (40 bytes on amd64).
type mouseInput struct {
	Type        uint32
	_           uint32
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// keybdInput mirrors INPUT with a KEYBDINPUT union member, padded to the
// size of the union.
type keybdInput struct {
	Type        uint32
	_           uint32
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
	_           [8]byte
}

// SendInputInjector injects events with SendInput
type SendInputInjector struct{}

// NewInjector creates a new Windows injector
func NewInjector() Injector {
	return &SendInputInjector{}
}

// KeyDown injects a key press
func (i *SendInputInjector) KeyDown(key string) error {
	return i.sendKey(key, 0)
}

// KeyUp injects a key release
func (i *SendInputInjector) KeyUp(key string) error {
	return i.sendKey(key, keyeventfKeyUp)
}

func (i *SendInputInjector) sendKey(key string, flags uint32) error {
	vk, ok := KeyCode(key)
	if !ok {
		vk, ok = scanChar(key)
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if IsExtended(vk) {
		flags |= keyeventfExtendedKey
	}
	in := keybdInput{Type: inputKeyboard, WVk: uint16(vk), DwFlags: flags}
	return sendInput(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

// scanChar resolves a single character through the active keyboard layout.
func scanChar(key string) (uint32, bool) {
	r, size := utf8.DecodeRuneInString(key)
	if size == 0 || size != len(key) || r > 0xFFFF {
		return 0, false
	}
	ret, _, _ := procVkKeyScan.Call(uintptr(r))
	if int16(ret) == -1 {
		return 0, false
	}
	return uint32(ret & 0xFF), true
}

// MouseMove moves the pointer to absolute screen coordinates
func (i *SendInputInjector) MouseMove(x, y int) error {
	ret, _, err := procSetCursorPos.Call(uintptr(int32(x)), uintptr(int32(y)))
	if ret == 0 {
		return fmt.Errorf("SetCursorPos failed: %v", err)
	}
	return nil
}

// MouseDown injects a button press at the current pointer position
func (i *SendInputInjector) MouseDown(button string) error {
	return i.sendButton(button, true)
}

// MouseUp injects a button release at the current pointer position
func (i *SendInputInjector) MouseUp(button string) error {
	return i.sendButton(button, false)
}

func (i *SendInputInjector) sendButton(button string, pressed bool) error {
	var flags uint32
	switch button {
	case ButtonLeft:
		flags = mouseeventfLeftUp
		if pressed {
			flags = mouseeventfLeftDown
		}
	case ButtonRight:
		flags = mouseeventfRightUp
		if pressed {
			flags = mouseeventfRightDown
		}
	case ButtonMiddle:
		flags = mouseeventfMiddleUp
		if pressed {
			flags = mouseeventfMiddleDown
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownButton, button)
	}
	in := mouseInput{Type: inputMouse, DwFlags: flags}
	return sendInput(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

func sendInput(in unsafe.Pointer, size uintptr) error {
	ret, _, err := procSendInput.Call(1, uintptr(in), size)
	if ret != 1 {
		return fmt.Errorf("SendInput failed: %v", err)
	}
	return nil
}
