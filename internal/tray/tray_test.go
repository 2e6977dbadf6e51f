package tray

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMenuItemIDs(t *testing.T) {
	tr := New("macrorec", "idle")
	a := tr.AddMenuItem("A", nil)
	tr.AddSeparator()
	b := tr.AddMenuItem("B", func() {})

	assert.Equal(t, 0, a)
	assert.Equal(t, 2, b)
	require.Len(t, tr.items, 3)
	assert.Nil(t, tr.items[1])
	assert.Equal(t, "B", tr.items[2].Title)
}

func TestSettersBeforeRunAreNoops(t *testing.T) {
	tr := New("macrorec", "idle")
	id := tr.AddMenuItem("A", nil)
	tr.AddSeparator()

	assert.NotPanics(t, func() {
		tr.SetItemChecked(id, true)
		tr.SetItemEnabled(id, false)
		tr.SetItemChecked(1, true)
		tr.SetItemChecked(42, true)
		tr.SetTooltip("recording")
	})
}

func TestIconHeader(t *testing.T) {
	icon := getIcon()
	le := binary.LittleEndian
	assert.Equal(t, uint16(1), le.Uint16(icon[2:]))
	assert.Equal(t, uint16(1), le.Uint16(icon[4:]))
	assert.Equal(t, len(icon)-22, int(le.Uint32(icon[14:])))
	assert.Equal(t, uint32(22), le.Uint32(icon[18:]))

	// Center pixel is opaque, corner transparent.
	px := icon[22+40:]
	center := (8*16 + 8) * 4
	assert.Equal(t, byte(0xFF), px[center+3])
	assert.Equal(t, byte(0x00), px[3])
}
