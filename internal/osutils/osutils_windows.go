//go:build windows

package osutils

import (
	"context"
	"log"
	"runtime"

	"golang.org/x/sys/windows"
)

var (
	kernel32                    = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadExecutionState = kernel32.NewProc("SetThreadExecutionState")
)

const (
	esSystemRequired  = 0x00000001
	esDisplayRequired = 0x00000002
	esContinuous      = 0x80000000
)

// IsAdmin checks if the current process has administrative privileges
func IsAdmin() bool {
	var token windows.Token
	h, _ := windows.GetCurrentProcess()
	err := windows.OpenProcessToken(h, windows.TOKEN_QUERY, &token)
	if err != nil {
		return false
	}
	defer token.Close()

	var sid *windows.SID
	err = windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := token.IsMember(sid)
	if err != nil {
		return false
	}

	return member
}

// KeepAwake stops the system and display from sleeping until ctx is done.
// The execution state belongs to a thread, so it is set and cleared on one
// locked OS thread.
func KeepAwake(ctx context.Context) {
	ready := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if r, _, err := procSetThreadExecutionState.Call(esContinuous | esSystemRequired | esDisplayRequired); r == 0 {
			log.Printf("KeepAwake: SetThreadExecutionState failed: %v", err)
			close(ready)
			return
		}
		close(ready)
		<-ctx.Done()
		procSetThreadExecutionState.Call(esContinuous)
	}()
	<-ready
}
