//go:build !windows && !darwin

package osutils

import (
	"context"
	"os"
)

// IsAdmin reports whether the process runs as root
func IsAdmin() bool {
	return os.Geteuid() == 0
}

// KeepAwake is a no-op on this platform.
func KeepAwake(ctx context.Context) {}
