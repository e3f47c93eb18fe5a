package app

import (
	"time"

	"github.com/ayusman/objecthunt/internal/game"
	"github.com/ayusman/objecthunt/internal/handoff"
)

// callbacks maps controller callbacks to events for subscribers and hooks.
// They run on the controller loop, after a.ctrl is set.
func (a *App) callbacks() game.Callbacks {
	return game.Callbacks{
		OnTurnStarted: func(player int) {
			a.emit(a.ctrl.EventOf(game.EventTurnStarted, player))
		},
		OnScoreChanged: func(player, score int) {
			a.emit(a.ctrl.EventOf(game.EventScore, player))
		},
		OnTick: func(player int, remaining time.Duration) {
			a.emit(a.ctrl.EventOf(game.EventTick, player))
		},
		OnTurnTimeout: func(player int) {
			a.emit(a.ctrl.EventOf(game.EventTimeout, player))
		},
		OnTurnCompleted: func(player int, elapsed time.Duration) {
			a.emit(a.ctrl.EventOf(game.EventCompleted, player))
		},
		OnCaptureFailed: func(player int, err error) {
			ev := a.ctrl.EventOf(game.EventCaptureFailed, player)
			ev.Error = err.Error()
			a.emit(ev)
		},
		OnGameOver: func(results game.Results) {
			a.emit(a.ctrl.EventOf(game.EventGameOver, 0))
		},
		OnFrame: func(u handoff.Update) {
			a.frames.Set(u.JPEG)
		},
	}
}

func (a *App) emit(ev game.Event) {
	a.mu.RLock()
	subs := a.subscribers
	a.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
	a.dispatcher.Notify(ev.Type, ev)
}
