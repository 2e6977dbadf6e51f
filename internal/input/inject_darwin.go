//go:build darwin && cgo

package input

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices

#include <stdbool.h>
#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <ApplicationServices/ApplicationServices.h>

static bool hasAccessibilityPermissions() {
    return AXIsProcessTrusted();
}

static CGPoint currentMousePosition() {
    CGEventRef event = CGEventCreate(NULL);
    CGPoint cursor = CGEventGetLocation(event);
    CFRelease(event);
    return cursor;
}

static void injectMouseMove(CGFloat x, CGFloat y) {
    CGEventRef event = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved, CGPointMake(x, y), kCGMouseButtonLeft);
    CGEventPost(kCGSessionEventTap, event);
    CFRelease(event);
}

// button: 1 left, 2 right, 3 middle
static void injectMouseButton(int button, bool pressed) {
    CGMouseButton cgButton;
    CGEventType eventType;

    switch (button) {
        case 1:
            cgButton = kCGMouseButtonLeft;
            eventType = pressed ? kCGEventLeftMouseDown : kCGEventLeftMouseUp;
            break;
        case 2:
            cgButton = kCGMouseButtonRight;
            eventType = pressed ? kCGEventRightMouseDown : kCGEventRightMouseUp;
            break;
        case 3:
            cgButton = kCGMouseButtonCenter;
            eventType = pressed ? kCGEventOtherMouseDown : kCGEventOtherMouseUp;
            break;
        default:
            return;
    }

    CGEventRef event = CGEventCreateMouseEvent(NULL, eventType, currentMousePosition(), cgButton);
    CGEventPost(kCGSessionEventTap, event);
    CFRelease(event);
}

static void injectKey(CGKeyCode keyCode, bool pressed) {
    CGEventRef event = CGEventCreateKeyboardEvent(NULL, keyCode, pressed);
    CGEventPost(kCGSessionEventTap, event);
    CFRelease(event);
}

// Types a UTF-16 code unit that has no fixed key code in the current layout.
static void injectChar(UniChar ch, bool pressed) {
    CGEventRef event = CGEventCreateKeyboardEvent(NULL, 0, pressed);
    CGEventKeyboardSetUnicodeString(event, 1, &ch);
    CGEventPost(kCGSessionEventTap, event);
    CFRelease(event);
}
*/
import "C"

import (
	"fmt"
	"log"
	"unicode/utf8"
)

// macOS implementation of input injection using CoreGraphics

// CGInjector posts events to the session event tap
type CGInjector struct{}

// NewInjector creates a new macOS injector. Posted events are dropped by
// the system until the process is granted Accessibility access.
func NewInjector() Injector {
	if !bool(C.hasAccessibilityPermissions()) {
		log.Printf("Input: accessibility access not granted, replayed input will be ignored")
	}
	return &CGInjector{}
}

// KeyDown injects a key press
func (i *CGInjector) KeyDown(key string) error {
	return i.sendKey(key, true)
}

// KeyUp injects a key release
func (i *CGInjector) KeyUp(key string) error {
	return i.sendKey(key, false)
}

func (i *CGInjector) sendKey(key string, pressed bool) error {
	if code, ok := MacKeyCode(key); ok {
		C.injectKey(C.CGKeyCode(code), C.bool(pressed))
		return nil
	}
	r, size := utf8.DecodeRuneInString(key)
	if size == 0 || size != len(key) || r > 0xFFFF {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	C.injectChar(C.UniChar(r), C.bool(pressed))
	return nil
}

// MouseMove moves the pointer to absolute screen coordinates
func (i *CGInjector) MouseMove(x, y int) error {
	C.injectMouseMove(C.CGFloat(x), C.CGFloat(y))
	return nil
}

// MouseDown injects a button press at the current pointer position
func (i *CGInjector) MouseDown(button string) error {
	return i.sendButton(button, true)
}

// MouseUp injects a button release at the current pointer position
func (i *CGInjector) MouseUp(button string) error {
	return i.sendButton(button, false)
}

func (i *CGInjector) sendButton(button string, pressed bool) error {
	var n int
	switch button {
	case ButtonLeft:
		n = 1
	case ButtonRight:
		n = 2
	case ButtonMiddle:
		n = 3
	default:
		return fmt.Errorf("%w: %q", ErrUnknownButton, button)
	}
	C.injectMouseButton(C.int(n), C.bool(pressed))
	return nil
}
