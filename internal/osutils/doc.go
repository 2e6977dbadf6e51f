// Package osutils holds small platform helpers: privilege checks and
// keeping the machine awake while a macro replays.
package osutils
