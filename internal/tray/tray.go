// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"encoding/binary"
	"sync"

	"github.com/getlantern/systray"
)

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Title    string
	Callback func()
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	mu      sync.Mutex
	items   []*MenuItem
	onReady func()
	onExit  func()
	readyCh chan struct{}
	quitCh  chan struct{}
}

// New creates a new system tray
func New(title, tooltip string) *Tray {
	t := &Tray{
		items:   make([]*MenuItem, 0),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}

	t.onReady = func() {
		systray.SetTitle(title)
		systray.SetTooltip(tooltip)
		systray.SetIcon(getIcon())
	}

	t.onExit = func() {
		close(t.quitCh)
	}

	return t
}

// AddMenuItem adds a menu item to the tray. Items must be added before Run.
func (t *Tray) AddMenuItem(title string, callback func()) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := len(t.items)
	menuItem := &MenuItem{
		ID:       id,
		Title:    title,
		Callback: callback,
	}
	t.items = append(t.items, menuItem)
	return id
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, nil) // nil indicates separator
}

// SetItemChecked sets the checked state of a menu item
func (t *Tray) SetItemChecked(id int, checked bool) {
	if item := t.systrayItem(id); item != nil {
		if checked {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// SetItemEnabled enables or greys out a menu item
func (t *Tray) SetItemEnabled(id int, enabled bool) {
	if item := t.systrayItem(id); item != nil {
		if enabled {
			item.Enable()
		} else {
			item.Disable()
		}
	}
}

// SetTooltip updates the tray icon tooltip
func (t *Tray) SetTooltip(tooltip string) {
	select {
	case <-t.readyCh:
		systray.SetTooltip(tooltip)
	default:
	}
}

func (t *Tray) systrayItem(id int) *systray.MenuItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id >= 0 && id < len(t.items) && t.items[id] != nil {
		return t.items[id].item
	}
	return nil
}

// Ready is closed once the tray menu exists.
func (t *Tray) Ready() <-chan struct{} {
	return t.readyCh
}

// Run starts the tray event loop (blocks)
func (t *Tray) Run() {
	systray.Run(t.setupMenu, t.onExit)
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	t.onReady()
	defer close(t.readyCh)

	t.mu.Lock()
	defer t.mu.Unlock()

	// Create menu items
	for _, menuItem := range t.items {
		if menuItem == nil {
			// Separator
			systray.AddSeparator()
		} else {
			item := systray.AddMenuItem(menuItem.Title, "")
			menuItem.item = item

			// Handle clicks in goroutine
			if menuItem.Callback != nil {
				go func(mi *MenuItem) {
					for {
						select {
						case <-mi.item.ClickedCh:
							mi.Callback()
						case <-t.quitCh:
							return
						}
					}
				}(menuItem)
			}
		}
	}
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

// getIcon returns a 16x16 ICO with a red record dot.
func getIcon() []byte {
	const size = 16
	const pixels = size * size * 4
	const mask = size * 4 // 1bpp rows padded to 32 bits
	const dib = 40

	icon := make([]byte, 6+16+dib+pixels+mask)
	le := binary.LittleEndian

	// ICONDIR
	le.PutUint16(icon[2:], 1)
	le.PutUint16(icon[4:], 1)

	// ICONDIRENTRY
	icon[6], icon[7] = size, size
	le.PutUint16(icon[10:], 1)
	le.PutUint16(icon[12:], 32)
	le.PutUint32(icon[14:], dib+pixels+mask)
	le.PutUint32(icon[18:], 22)

	// BITMAPINFOHEADER, height doubled for the AND mask
	h := icon[22:]
	le.PutUint32(h[0:], dib)
	le.PutUint32(h[4:], size)
	le.PutUint32(h[8:], size*2)
	le.PutUint16(h[12:], 1)
	le.PutUint16(h[14:], 32)
	le.PutUint32(h[20:], pixels)

	// Bottom-up BGRA rows
	px := icon[22+dib:]
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := 2*x-size+1, 2*y-size+1
			if dx*dx+dy*dy > 13*13 {
				continue
			}
			o := (y*size + x) * 4
			px[o+0], px[o+1], px[o+2], px[o+3] = 0x30, 0x30, 0xE0, 0xFF
		}
	}
	return icon
}
