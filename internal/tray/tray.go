// Package tray provides a macOS system tray interface for the Kuchipudi scroll pipeline.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the macOS system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onHud    func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	menuToggle     *systray.MenuItem
	menuTouchArmed *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpenHud sets the callback function to be called when the "Open HUD" menu item
// is clicked.
func (t *Tray) OnOpenHud(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onHud = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Kuchipudi")
	systray.SetTooltip("Kuchipudi Scroll")

	t.menuToggle = systray.AddMenuItem("● Enabled", "Toggle scroll pipeline")
	systray.AddSeparator()

	t.menuTouchArmed = systray.AddMenuItem("Touch: idle", "Current TouchProof state")
	t.menuTouchArmed.Disable()
	systray.AddSeparator()

	menuHud := systray.AddMenuItem("Open HUD...", "Open the HUD visualizer in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Kuchipudi")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuHud.ClickedCh:
				t.handleOpenHud()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if enabled {
		t.menuToggle.SetTitle("● Enabled")
	} else {
		t.menuToggle.SetTitle("○ Disabled")
	}

	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpenHud() {
	t.mu.RLock()
	callback := t.onHud
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetTouchArmed updates the touch-state display in the menu.
func (t *Tray) SetTouchArmed(touching bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuTouchArmed == nil {
		return
	}
	if touching {
		t.menuTouchArmed.SetTitle("Touch: armed")
	} else {
		t.menuTouchArmed.SetTitle("Touch: idle")
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
