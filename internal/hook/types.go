// Package hook runs external executables in response to game events.
package hook

import (
	"encoding/json"
	"time"
)

// ManifestFile is the manifest file name inside each hook directory.
const ManifestFile = "hook.json"

// AllEvents subscribes a hook to every event type.
const AllEvents = "*"

// Manifest describes a hook's metadata and subscriptions.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Events      []string `json:"events"`
}

// Request is the JSON document written to a hook's stdin.
type Request struct {
	Event string          `json:"event"`
	Time  time.Time       `json:"time"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Response is the optional JSON document a hook writes to stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Subscribes reports whether the hook wants events of type event.
func (h *Hook) Subscribes(event string) bool {
	for _, e := range h.Manifest.Events {
		if e == event || e == AllEvents {
			return true
		}
	}
	return false
}
