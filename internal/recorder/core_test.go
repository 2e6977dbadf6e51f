package recorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrorec/internal/input"
	"macrorec/internal/input/inputtest"
	"macrorec/internal/macro"
)

var t0 = time.UnixMilli(1_700_000_000_000)

func newTestCore(t *testing.T, opts ...Option) (*Core, *inputtest.Capture) {
	t.Helper()
	capture := inputtest.NewCapture()
	base := []Option{
		WithClock(func() time.Time { return t0 }),
		WithCaptureFactory(func() (input.Capture, error) { return capture, nil }),
		WithInjector(&inputtest.Injector{}),
		WithNotifyInterval(0),
	}
	return New(append(base, opts...)...), capture
}

func sectionNames(m macro.Macro) []string {
	out := make([]string, len(m.Sections))
	for i, s := range m.Sections {
		out[i] = s.Name
	}
	return out
}

func TestAddSectionDefaultNames(t *testing.T) {
	c, _ := newTestCore(t)
	assert.Equal(t, 0, c.AddSection(""))
	assert.Equal(t, 1, c.AddSection("custom"))
	assert.Equal(t, 2, c.AddSection(""))

	snap := c.Snapshot()
	assert.Equal(t, []string{"Section 1", "custom", "Section 3"}, sectionNames(snap))
	assert.Equal(t, []int{0, 0}, snap.Gaps)
}

func TestAddSectionCustomPrefix(t *testing.T) {
	c, _ := newTestCore(t, WithDefaultSectionName("Part"))
	c.AddSection("")
	assert.Equal(t, "Part 1", c.Snapshot().Sections[0].Name)
}

func TestDeleteSectionMergesGaps(t *testing.T) {
	c, _ := newTestCore(t)
	c.AddSection("A")
	c.AddSection("B")
	c.AddSection("C")
	c.SetBetweenDelay(0, 300)
	c.SetBetweenDelay(1, 700)

	c.DeleteSection(1)
	snap := c.Snapshot()
	assert.Equal(t, []string{"A", "C"}, sectionNames(snap))
	assert.Equal(t, []int{1000}, snap.Gaps)
}

func TestMoveSectionKeepsGaps(t *testing.T) {
	c, _ := newTestCore(t)
	c.AddSection("A")
	c.AddSection("B")
	c.AddSection("C")
	c.SetBetweenDelay(0, 10)
	c.SetBetweenDelay(1, 20)

	c.MoveSectionRight(0)
	c.MoveSectionLeft(2)
	c.MoveSectionLeft(0) // no-op
	c.MoveSectionRight(2) // no-op

	snap := c.Snapshot()
	assert.Equal(t, []string{"B", "C", "A"}, sectionNames(snap))
	assert.Equal(t, []int{10, 20}, snap.Gaps)
}

func TestInvalidIndicesAreIgnored(t *testing.T) {
	c, _ := newTestCore(t)
	c.AddSection("A")
	before := c.Snapshot()

	c.RenameSection(4, "x")
	c.DeleteSection(-1)
	c.AddDelayStep(3, 10)
	c.DeleteStep(0, 0)
	c.MoveStepUp(0, 0)
	c.MoveStepDown(0, 0)
	c.EditDelay(0, 5, 1)
	c.SetBetweenDelay(0, 5)
	assert.Nil(t, c.MoveStepsUp(0, []int{0}))

	assert.Equal(t, before, c.Snapshot())
}

func TestStepEditing(t *testing.T) {
	c, _ := newTestCore(t)
	c.AddSection("A")
	c.AddDelayStep(0, 100)
	c.AddDelayStep(0, 200)
	c.AddDelayStep(0, -5)

	c.MoveStepDown(0, 0)
	c.MoveStepDown(0, 2) // boundary
	assert.Equal(t, []macro.Step{macro.Millis(200), macro.Millis(100), macro.Millis(0)}, c.Snapshot().Sections[0].Steps)

	c.SetDelayUnit(0, 0, macro.UnitSeconds)
	c.SetDelayUnit(0, 1, macro.Unit("days"))
	assert.Equal(t, macro.Delay{Amount: 200, Unit: macro.UnitSeconds}, c.Snapshot().Sections[0].Steps[0])
	assert.Equal(t, macro.Millis(100), c.Snapshot().Sections[0].Steps[1])

	c.EditDelay(0, 0, 40)
	assert.Equal(t, macro.Millis(40), c.Snapshot().Sections[0].Steps[0])

	moved := c.MoveStepsDown(0, []int{0, 1})
	assert.Equal(t, []int{1, 2}, moved)
	assert.Equal(t, []macro.Step{macro.Millis(0), macro.Millis(40), macro.Millis(100)}, c.Snapshot().Sections[0].Steps)

	c.DeleteStep(0, 0)
	assert.Len(t, c.Snapshot().Sections[0].Steps, 2)
}

func TestEditDelayIgnoresNonDelay(t *testing.T) {
	c, _ := newTestCore(t)
	c.AddSection("A")
	c.Replace(macro.Macro{Sections: []macro.Section{{Name: "A", Steps: []macro.Step{macro.KeyPress{Key: "a"}}}}})
	c.EditDelay(0, 0, 50)
	c.SetDelayUnit(0, 0, macro.UnitHours)
	assert.Equal(t, macro.KeyPress{Key: "a"}, c.Snapshot().Sections[0].Steps[0])
}

func TestClearAll(t *testing.T) {
	c, _ := newTestCore(t)
	c.AddSection("A")
	c.AddSection("B")
	c.ClearAll()
	snap := c.Snapshot()
	assert.Empty(t, snap.Sections)
	assert.Empty(t, snap.Gaps)
}

func TestSnapshotIsIsolated(t *testing.T) {
	c, _ := newTestCore(t)
	c.AddSection("A")
	c.AddDelayStep(0, 5)

	snap := c.Snapshot()
	snap.Sections[0].Name = "mutated"
	snap.Sections[0].Steps[0] = macro.Millis(999)

	require.Equal(t, "A", c.Snapshot().Sections[0].Name)
	assert.Equal(t, macro.Millis(5), c.Snapshot().Sections[0].Steps[0])
}
