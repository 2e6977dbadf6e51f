package macro

// EnsureGaps pads Gaps with zeros or truncates it so that
// len(Gaps) == max(0, len(Sections)-1).
func (m *Macro) EnsureGaps() {
	n := len(m.Sections) - 1
	if n < 0 {
		n = 0
	}
	switch {
	case len(m.Gaps) < n:
		m.Gaps = append(m.Gaps, make([]int, n-len(m.Gaps))...)
	case len(m.Gaps) > n:
		m.Gaps = m.Gaps[:n]
	}
}

// AppendSection adds an empty section at the end and returns its index.
func (m *Macro) AppendSection(name string) int {
	m.Sections = append(m.Sections, Section{Name: name, Steps: []Step{}})
	m.EnsureGaps()
	return len(m.Sections) - 1
}

// RemoveSection deletes section i and reconciles the gaps around it.
//
// Removing the first section drops gap 0 and removing the last drops the
// final gap. Removing a middle section replaces its left gap with the sum of
// both flanking gaps and drops the right one, so the time between its former
// neighbours is unchanged. It reports false if i is out of range.
func (m *Macro) RemoveSection(i int) bool {
	if !m.ValidSection(i) {
		return false
	}
	n := len(m.Sections)
	m.Sections = append(m.Sections[:i], m.Sections[i+1:]...)

	switch {
	case n == 1:
		m.Gaps = m.Gaps[:0]
	case i == 0:
		if len(m.Gaps) > 0 {
			m.Gaps = m.Gaps[1:]
		}
	case i == n-1:
		if len(m.Gaps) > 0 {
			m.Gaps = m.Gaps[:len(m.Gaps)-1]
		}
	default:
		if i < len(m.Gaps) {
			m.Gaps[i-1] += m.Gaps[i]
			m.Gaps = append(m.Gaps[:i], m.Gaps[i+1:]...)
		}
	}
	m.EnsureGaps()
	return true
}

// SwapSections exchanges sections i and j. Gaps belong to positions, not to
// sections, so they are left untouched.
func (m *Macro) SwapSections(i, j int) bool {
	if !m.ValidSection(i) || !m.ValidSection(j) {
		return false
	}
	m.Sections[i], m.Sections[j] = m.Sections[j], m.Sections[i]
	return true
}
