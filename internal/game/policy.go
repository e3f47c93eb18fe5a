package game

import "fmt"

// Policy names accepted by PolicyByName.
const (
	PolicyScore      = "score"
	PolicyCompletion = "completion"
)

// WinnerPolicy decides the winner of a finished game.
type WinnerPolicy interface {
	Name() string
	// Winner returns 1 or 2 for the winning player, 0 for a draw.
	Winner(p1, p2 PlayerState) int
}

// ScorePolicy awards the game to the higher score. Equal scores draw.
type ScorePolicy struct{}

func (ScorePolicy) Name() string { return PolicyScore }

func (ScorePolicy) Winner(p1, p2 PlayerState) int {
	return compareScore(p1, p2)
}

// CompletionPolicy awards the game to whoever found every target. When both
// did, the lower elapsed time wins. Otherwise scores decide.
type CompletionPolicy struct{}

func (CompletionPolicy) Name() string { return PolicyCompletion }

func (CompletionPolicy) Winner(p1, p2 PlayerState) int {
	switch {
	case p1.Completed && p2.Completed:
		switch {
		case p1.Elapsed < p2.Elapsed:
			return 1
		case p2.Elapsed < p1.Elapsed:
			return 2
		}
		return compareScore(p1, p2)
	case p1.Completed:
		return 1
	case p2.Completed:
		return 2
	}
	return compareScore(p1, p2)
}

func compareScore(p1, p2 PlayerState) int {
	switch {
	case p1.Score > p2.Score:
		return 1
	case p2.Score > p1.Score:
		return 2
	}
	return 0
}

// PolicyByName returns the policy registered under name.
// An empty name selects ScorePolicy.
func PolicyByName(name string) (WinnerPolicy, error) {
	switch name {
	case "", PolicyScore:
		return ScorePolicy{}, nil
	case PolicyCompletion:
		return CompletionPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown winner policy %q", name)
	}
}
