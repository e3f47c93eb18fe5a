package game

// Event types pushed to presentation adapters and hooks.
const (
	EventTurnStarted   = "turn_started"
	EventScore         = "score"
	EventTick          = "tick"
	EventTimeout       = "timeout"
	EventCompleted     = "completed"
	EventGameOver      = "game_over"
	EventCaptureFailed = "capture_failed"
)

// Event is the serializable form of a controller callback.
type Event struct {
	Type       string          `json:"type"`
	GameID     string          `json:"game_id,omitempty"`
	Player     int             `json:"player,omitempty"`
	PlayerName string          `json:"player_name,omitempty"`
	Score      int             `json:"score"`
	Found      int             `json:"found"`
	Total      int             `json:"total"`
	Remaining  float64         `json:"remaining_seconds"`
	Elapsed    float64         `json:"elapsed_seconds,omitempty"`
	Error      string          `json:"error,omitempty"`
	Results    *ResultsSummary `json:"results,omitempty"`
}

// ResultsSummary is the serializable form of Results.
type ResultsSummary struct {
	GameID     string                     `json:"game_id"`
	Winner     int                        `json:"winner"`
	WinnerName string                     `json:"winner_name,omitempty"`
	Policy     string                     `json:"policy"`
	EndedEarly bool                       `json:"ended_early"`
	Players    [NumPlayers]PlayerSnapshot `json:"players"`
}

// Summary converts r for serialization.
func (r Results) Summary() *ResultsSummary {
	s := &ResultsSummary{
		GameID:     r.GameID,
		Winner:     r.Winner,
		WinnerName: r.WinnerName(),
		Policy:     r.Policy,
		EndedEarly: r.EndedEarly,
	}
	for i := range r.Players {
		s.Players[i] = snapshotPlayer(r.Players[i], len(r.Targets))
	}
	return s
}

// EventOf builds an Event of type typ for player n from the controller
// state. It must be called on the controller context.
func (c *Controller) EventOf(typ string, n int) Event {
	e := Event{
		Type:      typ,
		Player:    n,
		Remaining: c.clock.Remaining.Seconds(),
	}
	if c.session == nil {
		return e
	}

	e.GameID = c.session.ID
	e.Total = len(c.session.Targets)
	if n >= 1 && n <= NumPlayers {
		p := c.session.player(n)
		e.PlayerName = p.Name
		e.Score = p.Score
		e.Found = p.Found()
		if p.Completed {
			e.Elapsed = p.Elapsed.Seconds()
		}
	}
	if typ == EventGameOver && c.results != nil {
		e.Results = c.results.Summary()
	}
	return e
}
