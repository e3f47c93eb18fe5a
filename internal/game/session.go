// Package game implements the turn-based two-player detection session:
// per-player turn clocks, checklists, scoring and the start/stop choreography
// with the capture worker.
package game

import (
	"time"
)

// NumPlayers is the number of players in a game.
const NumPlayers = 2

// Phase is the lifecycle stage of a game.
type Phase int

const (
	// PhaseIdle means no game has been started.
	PhaseIdle Phase = iota
	// PhaseTurn means a player's turn is running.
	PhaseTurn
	// PhaseBetween means a turn has ended and the next one has not begun.
	PhaseBetween
	// PhaseOver means the game has ended and results are available.
	PhaseOver
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTurn:
		return "turn"
	case PhaseBetween:
		return "between"
	case PhaseOver:
		return "over"
	default:
		return "unknown"
	}
}

// PlayerState is one player's progress.
type PlayerState struct {
	Name      string
	Score     int
	Completed bool
	// Elapsed is the time the player needed to find every target.
	// Only meaningful when Completed.
	Elapsed time.Duration
	// Played is set once the player's turn has ended.
	Played    bool
	Checklist map[string]bool
}

// Found returns how many checklist entries are set.
func (p *PlayerState) Found() int {
	n := 0
	for _, ok := range p.Checklist {
		if ok {
			n++
		}
	}
	return n
}

func (p *PlayerState) clearChecklist(targets []string) {
	p.Checklist = make(map[string]bool, len(targets))
	for _, t := range targets {
		p.Checklist[t] = false
	}
}

func (p PlayerState) clone() PlayerState {
	c := p
	c.Checklist = make(map[string]bool, len(p.Checklist))
	for k, v := range p.Checklist {
		c.Checklist[k] = v
	}
	return c
}

// TurnClock is the countdown of the running turn.
type TurnClock struct {
	Remaining time.Duration
	Active    bool
}

// Session is one game between two players.
type Session struct {
	ID         string
	Targets    []string
	TimeBudget time.Duration
	// Current is the 1-based index of the player whose turn it is.
	Current int
	Players [NumPlayers]PlayerState
}

func (s *Session) player(n int) *PlayerState {
	return &s.Players[n-1]
}

func (s *Session) isTarget(label string) bool {
	for _, t := range s.Targets {
		if t == label {
			return true
		}
	}
	return false
}

// Results is the outcome of a finished game.
type Results struct {
	GameID  string
	Targets []string
	Players [NumPlayers]PlayerState
	// Winner is the 1-based index of the winning player, or 0 for a draw.
	Winner int
	Policy string
	// EndedEarly is set when the game was ended before both turns ran out.
	EndedEarly bool
}

// WinnerName returns the winner's name, or "" for a draw.
func (r Results) WinnerName() string {
	if r.Winner < 1 || r.Winner > NumPlayers {
		return ""
	}
	return r.Players[r.Winner-1].Name
}

// PlayerSnapshot is the read-only view of a player.
type PlayerSnapshot struct {
	Name      string          `json:"name"`
	Score     int             `json:"score"`
	Found     int             `json:"found"`
	Total     int             `json:"total"`
	Completed bool            `json:"completed"`
	Elapsed   float64         `json:"elapsed_seconds"`
	Played    bool            `json:"played"`
	Checklist map[string]bool `json:"checklist"`
}

// Snapshot is a typed copy of the controller state for presentation.
type Snapshot struct {
	GameID    string                     `json:"game_id,omitempty"`
	Phase     string                     `json:"phase"`
	Current   int                        `json:"current"`
	Remaining float64                    `json:"remaining_seconds"`
	Budget    float64                    `json:"budget_seconds"`
	Active    bool                       `json:"clock_active"`
	Paused    bool                       `json:"paused"`
	Targets   []string                   `json:"targets"`
	Players   [NumPlayers]PlayerSnapshot `json:"players"`
	Winner    *int                       `json:"winner,omitempty"`
}

func snapshotPlayer(p PlayerState, total int) PlayerSnapshot {
	c := p.clone()
	return PlayerSnapshot{
		Name:      c.Name,
		Score:     c.Score,
		Found:     c.Found(),
		Total:     total,
		Completed: c.Completed,
		Elapsed:   c.Elapsed.Seconds(),
		Played:    c.Played,
		Checklist: c.Checklist,
	}
}
