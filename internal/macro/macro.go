package macro

import "time"

// Section is a named, ordered group of steps.
type Section struct {
	Name  string
	Steps []Step
}

// Macro is the whole recording: sections in replay order and the gaps
// (in milliseconds) between adjacent sections.
//
// Gaps[i] is waited after Sections[i] and before Sections[i+1], so
// len(Gaps) == max(0, len(Sections)-1) once EnsureGaps has run.
type Macro struct {
	Sections []Section
	Gaps     []int
}

// Clone returns a deep copy that shares no slices with m.
func (m Macro) Clone() Macro {
	out := Macro{
		Sections: make([]Section, len(m.Sections)),
		Gaps:     make([]int, len(m.Gaps)),
	}
	copy(out.Gaps, m.Gaps)
	for i, s := range m.Sections {
		steps := make([]Step, len(s.Steps))
		for j, st := range s.Steps {
			steps[j] = cloneStep(st)
		}
		out.Sections[i] = Section{Name: s.Name, Steps: steps}
	}
	return out
}

// ValidSection reports whether i indexes an existing section.
func (m *Macro) ValidSection(i int) bool {
	return i >= 0 && i < len(m.Sections)
}

// ValidStep reports whether (section, step) indexes an existing step.
func (m *Macro) ValidStep(section, step int) bool {
	return m.ValidSection(section) && step >= 0 && step < len(m.Sections[section].Steps)
}

// StepCount returns the total number of steps across all sections.
func (m Macro) StepCount() int {
	n := 0
	for _, s := range m.Sections {
		n += len(s.Steps)
	}
	return n
}

// TotalDuration is the time a full replay spends waiting: every delay step
// plus every gap. Key and mouse injection are counted as instantaneous.
func (m Macro) TotalDuration() time.Duration {
	var total time.Duration
	for _, s := range m.Sections {
		for _, st := range s.Steps {
			if d, ok := st.(Delay); ok {
				total = addDuration(total, d.Duration())
			}
		}
	}
	for _, g := range m.Gaps {
		total = addDuration(total, Millis(g).Duration())
	}
	return total
}
