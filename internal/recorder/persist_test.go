package recorder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrorec/internal/macro"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	c, _ := newTestCore(t)
	c.AddSection("A")
	c.AddDelayStep(0, 120)
	c.AddSection("B")
	c.SetBetweenDelay(0, 900)

	path := filepath.Join(t.TempDir(), "nested", "macro.json")
	require.NoError(t, c.SaveFile(path))
	saved := c.LastFingerprint()
	assert.NotEmpty(t, saved)

	other, _ := newTestCore(t)
	require.NoError(t, other.LoadFile(path))
	assert.Equal(t, c.Snapshot(), other.Snapshot())
	assert.Equal(t, saved, other.LastFingerprint())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestLoadLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"type":"press","key":"a"},{"type":"release","key":"a"}]`), 0644))

	c, _ := newTestCore(t)
	require.NoError(t, c.LoadFile(path))
	assert.Equal(t, macro.Macro{
		Sections: []macro.Section{{Name: "", Steps: []macro.Step{macro.KeyPress{Key: "a"}, macro.KeyRelease{Key: "a"}}}},
		Gaps:     []int{},
	}, c.Snapshot())
}

func TestLoadFileErrors(t *testing.T) {
	c, _ := newTestCore(t)
	c.AddSection("keep")

	err := c.LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"sections": 3}`), 0644))
	assert.Error(t, c.LoadFile(bad))

	assert.Equal(t, "keep", c.Snapshot().Sections[0].Name)
}

func TestSaveFileError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	c, _ := newTestCore(t)
	assert.Error(t, c.SaveFile(filepath.Join(blocker, "macro.json")))
}
