package app

import (
	"context"
	"log"
	"time"

	"github.com/ayusman/objecthunt/internal/detector"
	"github.com/ayusman/objecthunt/internal/game"
	"github.com/ayusman/objecthunt/internal/server/api"
	"github.com/ayusman/objecthunt/internal/store"
)

// Labels returns the labels the detector can recognize.
func (a *App) Labels() []string {
	return append([]string(nil), a.labels...)
}

// Start resolves the target list and player names from req and starts a
// game on the controller loop.
func (a *App) Start(ctx context.Context, req api.StartRequest) (game.Snapshot, error) {
	targets, err := a.resolveTargets(req)
	if err != nil {
		return game.Snapshot{}, err
	}

	player1 := a.playerName(store.SettingPlayer1, req.Player1)
	player2 := a.playerName(store.SettingPlayer2, req.Player2)

	budget := a.settings.Game.TimeBudget
	if req.TimeBudget > 0 {
		budget = time.Duration(req.TimeBudget * float64(time.Second))
	}

	var snap game.Snapshot
	var startErr error
	err = a.loop.Do(ctx, func() {
		startErr = a.ctrl.StartGame(targets, player1, player2, budget)
		snap = a.ctrl.Snapshot()
	})
	if err != nil {
		return game.Snapshot{}, err
	}
	if startErr != nil {
		return game.Snapshot{}, startErr
	}

	if req.PresetID != "" && a.store != nil {
		if err := a.store.Settings().Set(store.SettingPreset, req.PresetID); err != nil {
			log.Printf("Error saving last preset: %v", err)
		}
	}
	return snap, nil
}

// resolveTargets picks explicit targets, then a preset, then a random set.
func (a *App) resolveTargets(req api.StartRequest) ([]string, error) {
	var requested []string
	switch {
	case len(req.Targets) > 0:
		requested = req.Targets
	case req.PresetID != "":
		if a.store == nil {
			return nil, store.ErrNotFound
		}
		p, err := a.store.Presets().GetByID(req.PresetID)
		if err != nil {
			return nil, err
		}
		requested = p.Labels
	case req.Random > 0:
		return game.PickTargets(a.labels, req.Random, nil), nil
	}

	targets := detector.ValidateTargets(requested, a.labels)
	if len(targets) == 0 {
		return nil, game.ErrNoTargets
	}
	return targets, nil
}

// playerName returns name and remembers it, or the remembered name when
// name is empty.
func (a *App) playerName(key, name string) string {
	if a.store == nil {
		return name
	}
	if name == "" {
		return a.store.Settings().GetOr(key, "")
	}
	if err := a.store.Settings().Set(key, name); err != nil {
		log.Printf("Error saving player name: %v", err)
	}
	return name
}

// Snapshot returns the controller state.
func (a *App) Snapshot(ctx context.Context) (game.Snapshot, error) {
	var snap game.Snapshot
	err := a.loop.Do(ctx, func() { snap = a.ctrl.Snapshot() })
	return snap, err
}

// NextTurn asks the controller to move on to the next turn.
func (a *App) NextTurn(ctx context.Context) error {
	return a.do(ctx, a.ctrl.RequestNextTurn)
}

// End ends the game now.
func (a *App) End(ctx context.Context) error {
	return a.do(ctx, a.ctrl.EndGameNow)
}

// SetPaused pauses or resumes the current turn.
func (a *App) SetPaused(ctx context.Context, paused bool) error {
	return a.do(ctx, func() error { return a.ctrl.SetPaused(paused) })
}

func (a *App) do(ctx context.Context, fn func() error) error {
	var opErr error
	if err := a.loop.Do(ctx, func() { opErr = fn() }); err != nil {
		return err
	}
	return opErr
}
