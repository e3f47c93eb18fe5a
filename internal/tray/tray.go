// Package tray provides a system tray interface for the objecthunt game.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/objecthunt/internal/game"
)

const idleStatus = "No game"

// Tray represents the system tray application.
type Tray struct {
	onNextTurn func()
	onEndGame  func()
	onOpen     func()
	onQuit     func()
	status     string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{status: idleStatus}
}

// OnNextTurn sets the callback for the "Next player" menu item.
func (t *Tray) OnNextTurn(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onNextTurn = fn
}

// OnEndGame sets the callback for the "End game" menu item.
func (t *Tray) OnEndGame(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEndGame = fn
}

// OnOpenBrowser sets the callback for the "Open in browser" menu item.
func (t *Tray) OnOpenBrowser(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
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

// Quit stops the tray from another goroutine.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
func (t *Tray) onReady() {
	systray.SetTitle("ObjectHunt")
	systray.SetTooltip("ObjectHunt")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(t.status, "Current turn")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuNext := systray.AddMenuItem("Next player", "Start the next player's turn")
	menuEnd := systray.AddMenuItem("End game", "End the game now")
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in browser", "Open the game page")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit ObjectHunt")

	go func() {
		for {
			select {
			case <-menuNext.ClickedCh:
				t.call(func(t *Tray) func() { return t.onNextTurn })
			case <-menuEnd.ClickedCh:
				t.call(func(t *Tray) func() { return t.onEndGame })
			case <-menuOpen.ClickedCh:
				t.call(func(t *Tray) func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// call runs the callback chosen by pick outside the lock.
func (t *Tray) call(pick func(t *Tray) func()) {
	t.mu.RLock()
	callback := pick(t)
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.call(func(t *Tray) func() { return t.onQuit })
	systray.Quit()
}

// Update refreshes the status line from a controller event.
func (t *Tray) Update(ev game.Event) {
	t.SetStatus(StatusLine(ev))
}

// SetStatus replaces the status line.
func (t *Tray) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = status
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(status)
	}
}

// Status returns the current status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// StatusLine formats ev as "<player> <remaining>s <found>/<total>".
func StatusLine(ev game.Event) string {
	switch ev.Type {
	case game.EventGameOver:
		if ev.Results != nil && ev.Results.WinnerName != "" {
			return "Winner: " + ev.Results.WinnerName
		}
		return "Game over: tie"
	case game.EventCaptureFailed:
		return fmt.Sprintf("%s: camera unavailable", ev.PlayerName)
	}

	if ev.PlayerName == "" {
		return idleStatus
	}
	return fmt.Sprintf("%s %ds %d/%d", ev.PlayerName, int(ev.Remaining+0.5), ev.Found, ev.Total)
}
