package app

import (
	"fmt"
	"log"
)

// Menu is the subset of the tray used to build the application menu.
type Menu interface {
	AddMenuItem(title string, callback func()) int
	AddSeparator()
	SetItemChecked(id int, checked bool)
	SetItemEnabled(id int, enabled bool)
	SetTooltip(tooltip string)
}

// AttachMenu adds the recorder controls to m and keeps their state in sync.
// quit runs when the Quit item is chosen.
func (a *App) AttachMenu(m Menu, quit func()) {
	m.AddMenuItem("New Section", func() {
		a.core.AddSection("")
	})
	recordID := m.AddMenuItem("Record into Last Section", func() {
		if a.core.IsRecording() {
			a.StopRecording()
			return
		}
		section := len(a.core.Snapshot().Sections) - 1
		if section < 0 {
			section = a.core.AddSection("")
		}
		if err := a.StartRecording(section); err != nil {
			log.Printf("Tray: record failed: %v", err)
		}
	})
	playID := m.AddMenuItem("Play", func() {
		if a.core.IsPlaying() {
			a.StopPlayback()
			return
		}
		if err := a.Play(); err != nil {
			log.Printf("Tray: play failed: %v", err)
		}
	})
	m.AddSeparator()
	m.AddMenuItem("Save", func() {
		if err := a.Save(); err != nil {
			log.Printf("Tray: save failed: %v", err)
		}
	})
	m.AddMenuItem("Reload", func() {
		if err := a.Load(); err != nil {
			log.Printf("Tray: load failed: %v", err)
		}
	})
	m.AddMenuItem("Clear All", func() {
		a.core.ClearAll()
	})
	m.AddSeparator()
	m.AddMenuItem("Quit", quit)

	a.OnStateChanged(func() {
		recording := a.core.IsRecording()
		playing := a.core.IsPlaying()
		m.SetItemChecked(recordID, recording)
		m.SetItemChecked(playID, playing)
		m.SetItemEnabled(recordID, !playing)
		m.SetItemEnabled(playID, !recording)

		st := a.Status()
		switch {
		case recording:
			m.SetTooltip(fmt.Sprintf("Recording into section %d", st.ActiveSection+1))
		case playing:
			m.SetTooltip("Playing")
		default:
			m.SetTooltip(fmt.Sprintf("%d sections, %d steps", st.Sections, st.Steps))
		}
	})
}
