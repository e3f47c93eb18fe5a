package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/objecthunt/internal/game"
	"github.com/ayusman/objecthunt/internal/store"
)

// StartRequest is the body of POST /api/game.
// Targets wins over PresetID, which wins over Random.
type StartRequest struct {
	Targets    []string `json:"targets,omitempty"`
	PresetID   string   `json:"preset_id,omitempty"`
	Random     int      `json:"random,omitempty"`
	Player1    string   `json:"player1"`
	Player2    string   `json:"player2"`
	TimeBudget float64  `json:"time_budget_seconds,omitempty"`
}

// Game is the controller surface the HTTP API drives.
type Game interface {
	Labels() []string
	Start(ctx context.Context, req StartRequest) (game.Snapshot, error)
	Snapshot(ctx context.Context) (game.Snapshot, error)
	NextTurn(ctx context.Context) error
	End(ctx context.Context) error
	SetPaused(ctx context.Context, paused bool) error
}

// GameHandler handles /api/game, /api/game/{action} and /api/labels.
type GameHandler struct {
	game Game
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(g Game) *GameHandler {
	return &GameHandler{game: g}
}

type labelsResponse struct {
	Labels []string `json:"labels"`
}

// ServeLabels handles GET /api/labels.
func (h *GameHandler) ServeLabels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, labelsResponse{Labels: h.game.Labels()})
}

// ServeHTTP routes /api/game and /api/game/{next,end,pause,resume}.
func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimPrefix(r.URL.Path, "/api/game")
	action = strings.TrimPrefix(action, "/")

	if action == "" {
		switch r.Method {
		case http.MethodGet:
			h.snapshot(w, r)
		case http.MethodPost:
			h.start(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var err error
	switch action {
	case "next":
		err = h.game.NextTurn(r.Context())
	case "end":
		err = h.game.End(r.Context())
	case "pause":
		err = h.game.SetPaused(r.Context(), true)
	case "resume":
		err = h.game.SetPaused(r.Context(), false)
	default:
		writeError(w, http.StatusNotFound, "Unknown game action")
		return
	}
	if err != nil {
		writeGameError(w, err)
		return
	}

	h.snapshot(w, r)
}

func (h *GameHandler) start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.TimeBudget < 0 {
		writeError(w, http.StatusBadRequest, "Time budget must be positive")
		return
	}

	snap, err := h.game.Start(r.Context(), req)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snap)
}

func (h *GameHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.game.Snapshot(r.Context())
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// writeGameError maps controller errors to HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrNoTargets):
		writeError(w, http.StatusBadRequest, "No valid target labels")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Preset not found")
	case errors.Is(err, game.ErrNoGame):
		writeError(w, http.StatusConflict, "No game in progress")
	case errors.Is(err, game.ErrGameInProgress):
		writeError(w, http.StatusConflict, "Game already in progress")
	case errors.Is(err, game.ErrTransitionInFlight):
		writeError(w, http.StatusConflict, "Turn change already in progress")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, game.ErrLoopStopped):
		writeError(w, http.StatusServiceUnavailable, "Game controller unavailable")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
