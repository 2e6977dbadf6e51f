package recorder

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"macrorec/internal/macro"
)

// SaveFile writes the macro to path. The file is replaced atomically.
func (c *Core) SaveFile(path string) error {
	c.mu.Lock()
	snap := c.macro.Clone()
	c.mu.Unlock()

	data, err := macro.Encode(snap)
	if err != nil {
		return fmt.Errorf("recorder: encode macro: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("recorder: save %s: %w", path, err)
	}

	hash, err := macro.FingerprintBytes(data)
	if err != nil {
		return fmt.Errorf("recorder: fingerprint: %w", err)
	}
	c.mu.Lock()
	c.lastHash = hash
	c.mu.Unlock()

	log.Printf("Recorder: saved %d sections to %s", len(snap.Sections), path)
	return nil
}

// LoadFile replaces the macro with the contents of path.
func (c *Core) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("recorder: load %s: %w", path, err)
	}
	m, err := macro.Decode(data)
	if err != nil {
		return fmt.Errorf("recorder: load %s: %w", path, err)
	}
	hash, err := macro.FingerprintBytes(data)
	if err != nil {
		return fmt.Errorf("recorder: fingerprint: %w", err)
	}

	c.Replace(m)
	c.mu.Lock()
	c.lastHash = hash
	c.mu.Unlock()

	log.Printf("Recorder: loaded %d sections from %s", len(m.Sections), path)
	return nil
}

// LastFingerprint is the canonical digest of the file most recently saved
// or loaded, or "" if there was none.
func (c *Core) LastFingerprint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastHash
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
