package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/objecthunt/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPresetHandler_Create(t *testing.T) {
	h := NewPresetHandler(newTestStore(t), nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"name": "desk", "labels": ["laptop", "mouse"]}`, http.StatusCreated},
		{"missing name", `{"labels": ["cup"]}`, http.StatusBadRequest},
		{"no labels", `{"name": "empty"}`, http.StatusBadRequest},
		{"invalid json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/presets", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestPresetHandler_ListEmpty(t *testing.T) {
	h := NewPresetHandler(newTestStore(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/presets", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp listPresetsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if resp.Presets == nil || len(resp.Presets) != 0 {
		t.Errorf("presets = %v, want empty list", resp.Presets)
	}
}

func TestPresetHandler_NotFound(t *testing.T) {
	h := NewPresetHandler(newTestStore(t), nil)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/presets/missing", bytes.NewBufferString(`{}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want %d", method, rec.Code, http.StatusNotFound)
		}
	}
}
