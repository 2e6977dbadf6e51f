package macro

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeSections() Macro {
	m := Macro{}
	m.AppendSection("A")
	m.AppendSection("B")
	m.AppendSection("C")
	m.Gaps[0] = 100
	m.Gaps[1] = 250
	return m
}

func names(m Macro) []string {
	out := make([]string, len(m.Sections))
	for i, s := range m.Sections {
		out[i] = s.Name
	}
	return out
}

func TestAppendSectionAddsGaps(t *testing.T) {
	m := Macro{}
	assert.Equal(t, 0, m.AppendSection("first"))
	assert.Empty(t, m.Gaps)

	assert.Equal(t, 1, m.AppendSection("second"))
	assert.Equal(t, []int{0}, m.Gaps)
}

func TestRemoveSectionMergesMiddleGaps(t *testing.T) {
	m := threeSections()
	require.True(t, m.RemoveSection(1))

	assert.Equal(t, []string{"A", "C"}, names(m))
	assert.Equal(t, []int{350}, m.Gaps)
}

func TestRemoveSectionEndpoints(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		wantNames []string
		wantGaps  []int
	}{
		{"first", 0, []string{"B", "C"}, []int{250}},
		{"last", 2, []string{"A", "B"}, []int{100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := threeSections()
			require.True(t, m.RemoveSection(tt.index))
			assert.Equal(t, tt.wantNames, names(m))
			assert.Equal(t, tt.wantGaps, m.Gaps)
		})
	}
}

func TestRemoveSoleSectionClearsGaps(t *testing.T) {
	m := Macro{}
	m.AppendSection("only")
	require.True(t, m.RemoveSection(0))
	assert.Empty(t, m.Sections)
	assert.Empty(t, m.Gaps)
}

func TestRemoveSectionOutOfRange(t *testing.T) {
	m := threeSections()
	assert.False(t, m.RemoveSection(3))
	assert.False(t, m.RemoveSection(-1))
	assert.Equal(t, []int{100, 250}, m.Gaps)
}

func TestSwapSectionsKeepsGaps(t *testing.T) {
	m := threeSections()
	require.True(t, m.SwapSections(0, 1))
	assert.Equal(t, []string{"B", "A", "C"}, names(m))
	assert.Equal(t, []int{100, 250}, m.Gaps)
}

func TestEnsureGapsRepairs(t *testing.T) {
	m := Macro{Sections: make([]Section, 3), Gaps: []int{5}}
	m.EnsureGaps()
	assert.Equal(t, []int{5, 0}, m.Gaps)

	m.Gaps = []int{1, 2, 3, 4}
	m.EnsureGaps()
	assert.Equal(t, []int{1, 2}, m.Gaps)
}

func TestCloneIsDeep(t *testing.T) {
	m := threeSections()
	m.Sections[0].Steps = append(m.Sections[0].Steps, KeyPress{Key: "a"})

	c := m.Clone()
	m.Sections[0].Steps[0] = KeyPress{Key: "b"}
	m.Sections[0].Name = "changed"
	m.Gaps[0] = 9

	assert.Equal(t, KeyPress{Key: "a"}, c.Sections[0].Steps[0])
	assert.Equal(t, "A", c.Sections[0].Name)
	assert.Equal(t, 100, c.Gaps[0])
}

func TestDelayDuration(t *testing.T) {
	tests := []struct {
		delay Delay
		want  time.Duration
	}{
		{Delay{250, UnitMillis}, 250 * time.Millisecond},
		{Delay{3, UnitSeconds}, 3 * time.Second},
		{Delay{2, UnitMinutes}, 2 * time.Minute},
		{Delay{1, UnitHours}, time.Hour},
		{Delay{40, Unit("fortnights")}, 40 * time.Millisecond},
		{Delay{7, ""}, 7 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.delay.Duration(), "delay %+v", tt.delay)
	}
}

func TestDelayDurationSaturates(t *testing.T) {
	assert.Equal(t, MaxDuration, Delay{3000000, UnitHours}.Duration())
	assert.Equal(t, MaxDuration, Delay{math.MaxInt, UnitMillis}.Duration())
	assert.Equal(t, time.Duration(0), Delay{-10, UnitSeconds}.Duration())

	m := Macro{
		Sections: []Section{
			{Name: "a", Steps: []Step{Delay{3000000, UnitHours}, Delay{3000000, UnitHours}}},
			{Name: "b"},
		},
		Gaps: []int{math.MaxInt},
	}
	assert.Equal(t, MaxDuration, m.TotalDuration())
}

func TestTotalDuration(t *testing.T) {
	m := threeSections()
	m.Sections[0].Steps = []Step{Millis(50), KeyPress{Key: "a"}, Delay{1, UnitSeconds}}
	assert.Equal(t, 1050*time.Millisecond+350*time.Millisecond, m.TotalDuration())
}

func TestMoveStepsUpBlock(t *testing.T) {
	m := Macro{}
	m.AppendSection("s")
	m.Sections[0].Steps = []Step{
		KeyPress{Key: "a"}, KeyPress{Key: "b"}, KeyPress{Key: "c"}, KeyPress{Key: "d"}, KeyPress{Key: "e"},
	}

	moved := m.MoveSteps(0, []int{3, 1}, -1)
	assert.Equal(t, []int{0, 2}, moved)
	assert.Equal(t, []Step{
		KeyPress{Key: "b"}, KeyPress{Key: "a"}, KeyPress{Key: "d"}, KeyPress{Key: "c"}, KeyPress{Key: "e"},
	}, m.Sections[0].Steps)
}

func TestMoveStepsDownContiguous(t *testing.T) {
	m := Macro{}
	m.AppendSection("s")
	m.Sections[0].Steps = []Step{KeyPress{Key: "a"}, KeyPress{Key: "b"}, KeyPress{Key: "c"}}

	moved := m.MoveSteps(0, []int{0, 1}, 1)
	assert.Equal(t, []int{1, 2}, moved)
	assert.Equal(t, []Step{KeyPress{Key: "c"}, KeyPress{Key: "a"}, KeyPress{Key: "b"}}, m.Sections[0].Steps)
}

func TestMoveStepsRejectsBoundary(t *testing.T) {
	m := Macro{}
	m.AppendSection("s")
	orig := []Step{KeyPress{Key: "a"}, KeyPress{Key: "b"}, KeyPress{Key: "c"}}
	m.Sections[0].Steps = append([]Step(nil), orig...)

	assert.Nil(t, m.MoveSteps(0, []int{0, 2}, -1))
	assert.Nil(t, m.MoveSteps(0, []int{1, 2}, 1))
	assert.Nil(t, m.MoveSteps(0, []int{1, 7}, 1))
	assert.Nil(t, m.MoveSteps(0, nil, 1))
	assert.Equal(t, orig, m.Sections[0].Steps)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Delay 5 secs", Label(Delay{5, UnitSeconds}))
	assert.Equal(t, "ctrl (pressed)", Label(KeyPress{Key: "ctrl"}))
	assert.Equal(t, "a (released)", Label(KeyRelease{Key: "a"}))
	assert.Equal(t, "left click (3, 4)", Label(MousePress{X: 3, Y: 4, Button: ButtonLeft}))
	assert.Equal(t, "Unknown", Label(Unknown{Tag: "scroll"}))
}
