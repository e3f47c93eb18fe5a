// Package main provides a hook that shows a desktop notification when a
// turn or game ends. It uses AppleScript on macOS and notify-send elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// Request represents the input from the hook executor.
type Request struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Event holds the event fields this hook reads.
type Event struct {
	PlayerName string  `json:"player_name"`
	Found      int     `json:"found"`
	Total      int     `json:"total"`
	Elapsed    float64 `json:"elapsed_seconds"`
	Error      string  `json:"error"`
	Results    *struct {
		WinnerName string `json:"winner_name"`
	} `json:"results"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	var ev Event
	if err := json.Unmarshal(req.Data, &ev); err != nil {
		writeResponse(fmt.Errorf("failed to decode event: %w", err))
		return
	}

	message := messageFor(req.Event, ev)
	if message == "" {
		writeResponse(nil)
		return
	}

	writeResponse(notify("Object Hunt", message))
}

// messageFor returns the notification text for an event, or "" to skip it.
func messageFor(event string, ev Event) string {
	switch event {
	case "completed":
		return fmt.Sprintf("%s found all %d objects in %.0fs!", ev.PlayerName, ev.Total, ev.Elapsed)
	case "timeout":
		return fmt.Sprintf("Time is up for %s: %d/%d objects", ev.PlayerName, ev.Found, ev.Total)
	case "game_over":
		if ev.Results == nil || ev.Results.WinnerName == "" {
			return "Game over: it's a draw!"
		}
		return fmt.Sprintf("Game over: %s wins!", ev.Results.WinnerName)
	case "capture_failed":
		return "Camera unavailable: " + ev.Error
	}
	return ""
}

// notify shows a desktop notification.
func notify(title, message string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf("display notification %s with title %s", strconv.Quote(message), strconv.Quote(title))
		cmd = exec.Command("osascript", "-e", script)
	} else {
		cmd = exec.Command("notify-send", title, message)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeResponse writes the hook response to stdout.
func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
