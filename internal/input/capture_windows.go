//go:build windows

package input

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Windows implementation of input capture using low-level hooks

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procPostThreadMessage   = user32.NewProc("PostThreadMessageW")
	procGetModuleHandle     = kernel32.NewProc("GetModuleHandleW")
)

const (
	WH_KEYBOARD_LL = 13
	WH_MOUSE_LL    = 14
	WM_QUIT        = 0x0012
	WM_KEYDOWN     = 0x0100
	WM_KEYUP       = 0x0101
	WM_SYSKEYDOWN  = 0x0104
	WM_SYSKEYUP    = 0x0105
	WM_LBUTTONDOWN = 0x0201
	WM_LBUTTONUP   = 0x0202
	WM_RBUTTONDOWN = 0x0204
	WM_RBUTTONUP   = 0x0205
	WM_MBUTTONDOWN = 0x0207
	WM_MBUTTONUP   = 0x0208

	LLKHF_INJECTED = 0x10
	LLMHF_INJECTED = 0x01
)

type KBDLLHOOKSTRUCT struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type MSLLHOOKSTRUCT struct {
	Pt          struct{ X, Y int32 }
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type MSG struct {
	Hwnd    syscall.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// Hook callbacks run on the thread that installed them, so captures are
// looked up by thread id.
var (
	capturesMu sync.Mutex
	captures   = make(map[uint32]*Hook)

	keyboardCallback = syscall.NewCallback(keyboardHookProc)
	mouseCallback    = syscall.NewCallback(mouseHookProc)
)

// Hook is a Windows keyboard+mouse capture backed by WH_KEYBOARD_LL and
// WH_MOUSE_LL hooks on a dedicated OS thread.
type Hook struct {
	mu        sync.Mutex
	events    chan Event
	withMouse bool
	threadID  uint32
	keyHook   uintptr
	mouseHook uintptr
	running   bool
	done      chan struct{}
}

// NewCapture creates a keyboard capture, plus mouse buttons when withMouse
// is set.
func NewCapture(withMouse bool) Capture {
	return &Hook{
		events:    make(chan Event, 1024),
		withMouse: withMouse,
		done:      make(chan struct{}),
	}
}

// Start installs the hooks and begins delivering events
func (h *Hook) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return fmt.Errorf("capture already running")
	}

	started := make(chan error, 1)
	go h.loop(started)
	if err := <-started; err != nil {
		return err
	}
	h.running = true
	return nil
}

// loop must own its OS thread: hooks deliver to the installing thread's
// message queue.
func (h *Hook) loop(started chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.done)
	defer close(h.events)

	h.threadID = windows.GetCurrentThreadId()
	capturesMu.Lock()
	captures[h.threadID] = h
	capturesMu.Unlock()
	defer func() {
		capturesMu.Lock()
		delete(captures, h.threadID)
		capturesMu.Unlock()
	}()

	hMod, _, _ := procGetModuleHandle.Call(0)

	var err error
	h.keyHook, _, err = procSetWindowsHookEx.Call(WH_KEYBOARD_LL, keyboardCallback, hMod, 0)
	if h.keyHook == 0 {
		started <- fmt.Errorf("failed to set keyboard hook: %v", err)
		return
	}
	defer procUnhookWindowsHookEx.Call(h.keyHook)

	if h.withMouse {
		h.mouseHook, _, err = procSetWindowsHookEx.Call(WH_MOUSE_LL, mouseCallback, hMod, 0)
		if h.mouseHook == 0 {
			started <- fmt.Errorf("failed to set mouse hook: %v", err)
			return
		}
		defer procUnhookWindowsHookEx.Call(h.mouseHook)
	}

	log.Printf("Capture: Windows low-level hooks installed (mouse: %v)", h.withMouse)
	started <- nil

	var msg MSG
	for {
		ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		if int32(ret) <= 0 {
			break
		}
	}
	log.Printf("Capture: hooks removed")
}

// Stop removes the hooks and closes the event channel
func (h *Hook) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = false
	tid := h.threadID
	h.mu.Unlock()

	procPostThreadMessage.Call(uintptr(tid), WM_QUIT, 0, 0)
	<-h.done
	return nil
}

// Events returns the input event channel
func (h *Hook) Events() <-chan Event {
	return h.events
}

func (h *Hook) emit(ev Event) {
	select {
	case h.events <- ev:
	default:
		log.Printf("Capture: event buffer full, dropping %s event", ev.Type)
	}
}

func lookupCapture() *Hook {
	capturesMu.Lock()
	defer capturesMu.Unlock()
	return captures[windows.GetCurrentThreadId()]
}

func keyboardHookProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	h := lookupCapture()
	if nCode == 0 && h != nil {
		kbd := (*KBDLLHOOKSTRUCT)(unsafe.Pointer(lParam))
		if name := KeyName(kbd.VkCode); name != "" {
			injected := kbd.Flags&LLKHF_INJECTED != 0
			switch wParam {
			case WM_KEYDOWN, WM_SYSKEYDOWN:
				h.emit(Event{Type: TypeKey, Key: name, Pressed: true, Injected: injected, Timestamp: time.Now().UnixMilli()})
			case WM_KEYUP, WM_SYSKEYUP:
				h.emit(Event{Type: TypeKey, Key: name, Pressed: false, Injected: injected, Timestamp: time.Now().UnixMilli()})
			}
		}
	}
	var hook uintptr
	if h != nil {
		hook = h.keyHook
	}
	ret, _, _ := procCallNextHookEx.Call(hook, uintptr(nCode), wParam, lParam)
	return ret
}

func mouseHookProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	h := lookupCapture()
	if nCode == 0 && h != nil {
		ms := (*MSLLHOOKSTRUCT)(unsafe.Pointer(lParam))
		var button string
		var pressed bool

		switch wParam {
		case WM_LBUTTONDOWN:
			button, pressed = ButtonLeft, true
		case WM_LBUTTONUP:
			button, pressed = ButtonLeft, false
		case WM_RBUTTONDOWN:
			button, pressed = ButtonRight, true
		case WM_RBUTTONUP:
			button, pressed = ButtonRight, false
		case WM_MBUTTONDOWN:
			button, pressed = ButtonMiddle, true
		case WM_MBUTTONUP:
			button, pressed = ButtonMiddle, false
		}

		if button != "" {
			h.emit(Event{
				Type:      TypeMouseButton,
				X:         int(ms.Pt.X),
				Y:         int(ms.Pt.Y),
				Button:    button,
				Pressed:   pressed,
				Injected:  ms.Flags&LLMHF_INJECTED != 0,
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}
	var hook uintptr
	if h != nil {
		hook = h.mouseHook
	}
	ret, _, _ := procCallNextHookEx.Call(hook, uintptr(nCode), wParam, lParam)
	return ret
}
