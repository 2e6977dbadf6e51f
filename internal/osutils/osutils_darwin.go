//go:build darwin

package osutils

import (
	"context"
	"log"
	"os"
	"os/exec"
	"strconv"
)

// IsAdmin reports whether the process runs as root
func IsAdmin() bool {
	return os.Geteuid() == 0
}

// KeepAwake runs caffeinate until ctx is done.
func KeepAwake(ctx context.Context) {
	cmd := exec.CommandContext(ctx, "caffeinate", "-d", "-i", "-w", strconv.Itoa(os.Getpid()))
	if err := cmd.Start(); err != nil {
		log.Printf("KeepAwake: caffeinate unavailable: %v", err)
		return
	}
	go cmd.Wait()
}
