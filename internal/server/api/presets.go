package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/objecthunt/internal/store"
)

// PresetHandler handles HTTP requests for target presets.
type PresetHandler struct {
	store *store.Store
	// validate filters labels to those the detector knows. Nil keeps all.
	validate func([]string) []string
}

// NewPresetHandler creates a new PresetHandler. validate may be nil.
func NewPresetHandler(s *store.Store, validate func([]string) []string) *PresetHandler {
	return &PresetHandler{store: s, validate: validate}
}

// ServeHTTP routes /api/presets and /api/presets/{id}.
func (h *PresetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/presets")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type presetRequest struct {
	Name   string   `json:"name"`
	Labels []string `json:"labels"`
}

type listPresetsResponse struct {
	Presets []*store.Preset `json:"presets"`
}

func (h *PresetHandler) labels(requested []string) []string {
	if h.validate == nil {
		return requested
	}
	return h.validate(requested)
}

// list handles GET /api/presets.
func (h *PresetHandler) list(w http.ResponseWriter, r *http.Request) {
	presets, err := h.store.Presets().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list presets")
		return
	}
	if presets == nil {
		presets = []*store.Preset{}
	}

	writeJSON(w, http.StatusOK, listPresetsResponse{Presets: presets})
}

// get handles GET /api/presets/{id}.
func (h *PresetHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	preset, err := h.store.Presets().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get preset")
		return
	}

	writeJSON(w, http.StatusOK, preset)
}

// create handles POST /api/presets.
func (h *PresetHandler) create(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	labels := h.labels(req.Labels)
	if len(labels) == 0 {
		writeError(w, http.StatusBadRequest, "At least one known label is required")
		return
	}

	preset := &store.Preset{Name: req.Name, Labels: labels}
	if err := h.store.Presets().Create(preset); err != nil {
		if _, getErr := h.store.Presets().GetByName(req.Name); getErr == nil {
			writeError(w, http.StatusConflict, "Preset name already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create preset")
		return
	}

	writeJSON(w, http.StatusCreated, preset)
}

// update handles PUT /api/presets/{id}.
func (h *PresetHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	preset, err := h.store.Presets().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get preset")
		return
	}

	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		preset.Name = req.Name
	}
	if req.Labels != nil {
		labels := h.labels(req.Labels)
		if len(labels) == 0 {
			writeError(w, http.StatusBadRequest, "At least one known label is required")
			return
		}
		preset.Labels = labels
	}

	if err := h.store.Presets().Update(preset); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update preset")
		return
	}

	writeJSON(w, http.StatusOK, preset)
}

// delete handles DELETE /api/presets/{id}.
func (h *PresetHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Presets().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete preset")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
