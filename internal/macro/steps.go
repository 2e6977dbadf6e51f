package macro

import "sort"

// SwapSteps exchanges two steps of one section.
func (m *Macro) SwapSteps(section, a, b int) bool {
	if !m.ValidStep(section, a) || !m.ValidStep(section, b) {
		return false
	}
	steps := m.Sections[section].Steps
	steps[a], steps[b] = steps[b], steps[a]
	return true
}

// RemoveStep deletes one step.
func (m *Macro) RemoveStep(section, step int) bool {
	if !m.ValidStep(section, step) {
		return false
	}
	steps := m.Sections[section].Steps
	m.Sections[section].Steps = append(steps[:step], steps[step+1:]...)
	return true
}

// MoveSteps shifts the selected steps of a section one position up
// (delta < 0) or down (delta > 0) as a block, keeping their relative order.
// Steps that are not selected are displaced around the block.
//
// It returns the new indices of the selection in ascending order, or nil
// without changing anything if the selection is empty, contains an invalid
// index, or would be pushed past either end of the section.
func (m *Macro) MoveSteps(section int, indices []int, delta int) []int {
	if !m.ValidSection(section) || len(indices) == 0 || delta == 0 {
		return nil
	}
	sel := uniqueSorted(indices)
	for _, i := range sel {
		if !m.ValidStep(section, i) {
			return nil
		}
	}
	steps := m.Sections[section].Steps
	moved := make([]int, len(sel))

	if delta < 0 {
		if sel[0] == 0 {
			return nil
		}
		for k, i := range sel {
			steps[i-1], steps[i] = steps[i], steps[i-1]
			moved[k] = i - 1
		}
		return moved
	}

	if sel[len(sel)-1] == len(steps)-1 {
		return nil
	}
	for k := len(sel) - 1; k >= 0; k-- {
		i := sel[k]
		steps[i+1], steps[i] = steps[i], steps[i+1]
		moved[k] = i + 1
	}
	return moved
}

func uniqueSorted(in []int) []int {
	out := make([]int, 0, len(in))
	seen := make(map[int]bool, len(in))
	for _, i := range in {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}
