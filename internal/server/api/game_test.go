package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/objecthunt/internal/game"
	"github.com/ayusman/objecthunt/internal/store"
)

func TestWriteGameError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no targets", game.ErrNoTargets, http.StatusBadRequest},
		{"wrapped no targets", fmt.Errorf("start: %w", game.ErrNoTargets), http.StatusBadRequest},
		{"missing preset", store.ErrNotFound, http.StatusNotFound},
		{"no game", game.ErrNoGame, http.StatusConflict},
		{"game in progress", game.ErrGameInProgress, http.StatusConflict},
		{"transition in flight", game.ErrTransitionInFlight, http.StatusConflict},
		{"loop stopped", game.ErrLoopStopped, http.StatusServiceUnavailable},
		{"request canceled", context.Canceled, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeGameError(rec, tt.err)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestGameHandler_InvalidJSON(t *testing.T) {
	h := NewGameHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/game", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
