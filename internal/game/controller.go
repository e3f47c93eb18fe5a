package game

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/objecthunt/internal/handoff"
)

// Default controller settings.
const (
	DefaultTimeBudget  = 60 * time.Second
	DefaultStep        = time.Second
	DefaultStopTimeout = 2 * time.Second
)

var (
	// ErrNoTargets is returned when a game is started without target labels.
	ErrNoTargets = errors.New("no target labels")

	// ErrWorkerLive is returned when a turn would start while a capture
	// worker from an earlier turn is still live.
	ErrWorkerLive = errors.New("capture worker still live")

	// ErrNoGame is returned by turn operations when no game is running.
	ErrNoGame = errors.New("no game in progress")

	// ErrGameInProgress is returned when starting a game while one is running.
	ErrGameInProgress = errors.New("game already in progress")

	// ErrTransitionInFlight is returned when a turn transition is requested
	// while another one has not finished.
	ErrTransitionInFlight = errors.New("turn transition in progress")
)

// Accumulator is the set of labels recognized since the last Reset.
type Accumulator interface {
	// Reset clears the set and returns the new epoch.
	Reset() uint64
	Labels() []string
}

// Capture is a running capture worker.
type Capture interface {
	Stop()
	Wait(timeout time.Duration) bool
	Done() <-chan struct{}
	Err() error
	Pause()
	Resume()
}

// Launcher starts a capture worker for a turn.
type Launcher interface {
	Launch(epoch uint64, targets []string) (Capture, error)
}

// Feed is the consumer side of the worker hand-off slot.
type Feed interface {
	Take() (handoff.Update, bool)
	Clear()
}

// Scheduler runs functions on the controller context.
type Scheduler interface {
	// Post queues fn to run on the controller context. It may be called
	// from any goroutine.
	Post(fn func())
	// ResetClock restarts the tick interval. It is called on the
	// controller context when a turn clock starts.
	ResetClock()
}

// Callbacks notify the presentation layer. Nil callbacks are skipped.
// All callbacks run on the controller context.
type Callbacks struct {
	OnScoreChanged  func(player, score int)
	OnTurnTimeout   func(player int)
	OnTurnCompleted func(player int, elapsed time.Duration)
	OnGameOver      func(results Results)
	OnCaptureFailed func(player int, err error)
	OnTick          func(player int, remaining time.Duration)
	OnTurnStarted   func(player int)
	OnFrame         func(u handoff.Update)
}

// Options configures a Controller.
type Options struct {
	Accumulator Accumulator
	Launcher    Launcher
	Feed        Feed
	Scheduler   Scheduler
	Policy      WinnerPolicy
	Callbacks   Callbacks

	// StopTimeout bounds the wait for a stopping worker.
	StopTimeout time.Duration
	// Step is the amount one Tick removes from the clock.
	Step time.Duration
	// AutoAdvance makes the controller move on to the next turn by itself
	// after a completion or timeout. When false the presentation must call
	// RequestNextTurn.
	AutoAdvance bool
}

// Controller owns the game session, the turn clock and the capture worker
// lifecycle.
//
// Controller is not safe for concurrent use. Every method must be called
// from the single controller context, normally a Loop.
type Controller struct {
	acc         Accumulator
	launcher    Launcher
	feed        Feed
	sched       Scheduler
	policy      WinnerPolicy
	cb          Callbacks
	stopTimeout time.Duration
	step        time.Duration
	autoAdvance bool

	session       *Session
	phase         Phase
	clock         TurnClock
	capture       Capture
	epoch         uint64
	turnEnded     bool
	paused        bool
	transitioning bool
	results       *Results
}

// NewController creates a Controller. Accumulator, Launcher and Scheduler
// are required; NewController panics without them.
func NewController(opts Options) *Controller {
	switch {
	case opts.Accumulator == nil:
		panic("game: Options.Accumulator is required")
	case opts.Launcher == nil:
		panic("game: Options.Launcher is required")
	case opts.Scheduler == nil:
		panic("game: Options.Scheduler is required")
	}
	if opts.Policy == nil {
		opts.Policy = ScorePolicy{}
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	if opts.Step <= 0 {
		opts.Step = DefaultStep
	}

	return &Controller{
		acc:         opts.Accumulator,
		launcher:    opts.Launcher,
		feed:        opts.Feed,
		sched:       opts.Scheduler,
		policy:      opts.Policy,
		cb:          opts.Callbacks,
		stopTimeout: opts.StopTimeout,
		step:        opts.Step,
		autoAdvance: opts.AutoAdvance,
		phase:       PhaseIdle,
	}
}

// StartGame creates a new session and begins player 1's turn.
func (c *Controller) StartGame(targets []string, player1, player2 string, budget time.Duration) error {
	if c.transitioning {
		return ErrTransitionInFlight
	}
	if c.phase == PhaseTurn || c.phase == PhaseBetween {
		return ErrGameInProgress
	}

	targets = dedupe(targets)
	if len(targets) == 0 {
		return ErrNoTargets
	}
	if budget <= 0 {
		return fmt.Errorf("time budget must be positive, got %s", budget)
	}

	if player1 == "" {
		player1 = "Player 1"
	}
	if player2 == "" {
		player2 = "Player 2"
	}

	c.session = &Session{
		ID:         uuid.New().String(),
		Targets:    targets,
		TimeBudget: budget,
		Current:    1,
	}
	c.session.Players[0] = PlayerState{Name: player1}
	c.session.Players[1] = PlayerState{Name: player2}
	for i := range c.session.Players {
		c.session.Players[i].clearChecklist(targets)
	}
	c.results = nil
	c.clock = TurnClock{Remaining: budget}

	log.Printf("Game %s started: %s vs %s, %d targets, %s per turn", c.session.ID, player1, player2, len(targets), budget)

	return c.BeginTurn()
}

// BeginTurn starts the current player's turn: it resets the accumulator,
// clears the checklist, starts the clock and launches a capture worker.
// It fails with ErrWorkerLive if the previous worker was not stopped first.
func (c *Controller) BeginTurn() error {
	if c.session == nil || c.phase == PhaseOver {
		return ErrNoGame
	}
	if c.capture != nil {
		log.Printf("Refusing to begin turn: %v", ErrWorkerLive)
		return ErrWorkerLive
	}

	n := c.session.Current
	c.epoch = c.acc.Reset()
	if c.feed != nil {
		c.feed.Clear()
	}

	c.session.player(n).clearChecklist(c.session.Targets)
	c.clock = TurnClock{Remaining: c.session.TimeBudget, Active: true}
	c.turnEnded = false
	c.paused = false
	c.phase = PhaseTurn
	c.sched.ResetClock()

	log.Printf("Turn started for %s", c.session.player(n).Name)
	if c.cb.OnTurnStarted != nil {
		c.cb.OnTurnStarted(n)
	}

	capture, err := c.launcher.Launch(c.epoch, c.session.Targets)
	if err != nil {
		// The clock keeps running so the turn still ends on timeout.
		log.Printf("Error starting capture: %v", err)
		c.captureFailed(err)
		return nil
	}
	c.capture = capture

	return nil
}

// OnLabelDetected marks label as found for the current player. Labels that
// are not targets, already found, or arrive outside a running turn are
// ignored.
func (c *Controller) OnLabelDetected(label string) {
	if c.session == nil || c.phase != PhaseTurn || c.turnEnded {
		return
	}
	if !c.session.isTarget(label) {
		return
	}

	n := c.session.Current
	if !c.markFound(n, label) {
		return
	}
	if !c.markCompleted(n) {
		return
	}

	c.finishTurn()
}

// Tick removes one step from the running clock. When the clock reaches
// zero the turn times out.
func (c *Controller) Tick() {
	if c.session == nil || !c.clock.Active {
		return
	}

	c.clock.Remaining -= c.step
	if c.clock.Remaining < 0 {
		c.clock.Remaining = 0
	}

	n := c.session.Current
	if c.cb.OnTick != nil {
		c.cb.OnTick(n, c.clock.Remaining)
	}

	if c.clock.Remaining > 0 {
		return
	}

	c.clock.Active = false
	c.turnEnded = true
	if c.syncScore() {
		c.finishTurn()
		return
	}

	log.Printf("Time is up for %s with score %d", c.session.player(n).Name, c.session.player(n).Score)
	if c.cb.OnTurnTimeout != nil {
		c.cb.OnTurnTimeout(n)
	}

	c.finishTurn()
}

// AdvanceTurn moves from player 1 to player 2, or ends the game after
// player 2. The capture worker must already be stopped.
func (c *Controller) AdvanceTurn() error {
	if c.session == nil || c.phase == PhaseOver {
		return ErrNoGame
	}
	if c.capture != nil {
		return ErrWorkerLive
	}

	c.session.player(c.session.Current).Played = true

	if c.session.Current < NumPlayers {
		c.session.Current++
		c.clock = TurnClock{Remaining: c.session.TimeBudget}
		return c.BeginTurn()
	}

	c.gameOver(false)
	return nil
}

// StopAnd freezes the clock, stops the capture worker and runs fn on the
// controller context once the worker has exited or the stop timeout has
// passed. It reports false, without running fn, if a transition is
// already in flight.
func (c *Controller) StopAnd(fn func()) bool {
	if c.transitioning {
		log.Println("Turn transition already in progress, ignoring request")
		return false
	}
	c.transitioning = true
	c.clock.Active = false

	capture := c.capture
	c.capture = nil

	finish := func() {
		c.transitioning = false
		if fn != nil {
			fn()
		}
	}

	if capture == nil {
		go c.sched.Post(finish)
		return true
	}

	capture.Stop()
	timeout := c.stopTimeout
	go func() {
		if !capture.Wait(timeout) {
			log.Printf("Capture worker did not stop within %s, proceeding", timeout)
		}
		c.sched.Post(finish)
	}()

	return true
}

// EndGameNow ends the game early, keeping the current player's score.
func (c *Controller) EndGameNow() error {
	if c.session == nil || c.phase == PhaseOver || c.phase == PhaseIdle {
		return ErrNoGame
	}
	if c.transitioning {
		log.Println("Turn transition already in progress, ignoring end game")
		return ErrTransitionInFlight
	}

	if c.phase == PhaseTurn {
		c.syncScore()
		c.turnEnded = true
	}
	c.session.player(c.session.Current).Played = true

	log.Printf("Game %s ended early", c.session.ID)
	c.StopAnd(func() {
		c.gameOver(true)
	})
	return nil
}

// RequestNextTurn ends the current turn, or leaves the between-turns
// pause, and moves on to the next player.
func (c *Controller) RequestNextTurn() error {
	if c.session == nil || c.phase == PhaseOver || c.phase == PhaseIdle {
		return ErrNoGame
	}
	if c.transitioning {
		log.Println("Turn transition already in progress, ignoring next turn")
		return ErrTransitionInFlight
	}

	if c.phase == PhaseBetween {
		return c.AdvanceTurn()
	}

	c.syncScore()
	c.clock.Active = false
	c.turnEnded = true
	c.StopAnd(c.advance)
	return nil
}

// SetPaused pauses or resumes the running turn. A paused turn neither
// pulls frames nor loses time.
func (c *Controller) SetPaused(paused bool) error {
	if c.session == nil || c.phase != PhaseTurn || c.turnEnded {
		return ErrNoGame
	}
	if c.paused == paused {
		return nil
	}

	c.paused = paused
	c.clock.Active = !paused
	if c.capture != nil {
		if paused {
			c.capture.Pause()
		} else {
			c.capture.Resume()
		}
	}
	if !paused {
		c.sched.ResetClock()
	}

	return nil
}

// Poll drains the hand-off slot and checks on the capture worker. It never
// blocks.
func (c *Controller) Poll() {
	if c.capture != nil {
		select {
		case <-c.capture.Done():
			if err := c.capture.Err(); err != nil {
				log.Printf("Capture worker failed: %v", err)
				c.captureFailed(err)
			} else {
				log.Println("Capture worker exited")
			}
			c.capture = nil
		default:
		}
	}

	if c.feed == nil {
		return
	}
	u, ok := c.feed.Take()
	if !ok {
		return
	}
	if u.Epoch != c.epoch {
		return
	}

	if c.cb.OnFrame != nil {
		c.cb.OnFrame(u)
	}
	for _, label := range u.NewLabels {
		c.OnLabelDetected(label)
	}
}

// Shutdown stops any live worker and waits for it up to the stop timeout.
func (c *Controller) Shutdown() {
	c.clock.Active = false
	if c.capture == nil {
		return
	}

	capture := c.capture
	c.capture = nil
	capture.Stop()
	if !capture.Wait(c.stopTimeout) {
		log.Printf("Capture worker did not stop within %s", c.stopTimeout)
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Clock returns the turn clock.
func (c *Controller) Clock() TurnClock {
	return c.clock
}

// Transitioning reports whether a StopAnd is in flight.
func (c *Controller) Transitioning() bool {
	return c.transitioning
}

// WorkerLive reports whether a capture worker handle is held.
func (c *Controller) WorkerLive() bool {
	return c.capture != nil
}

// Player returns a copy of player n (1-based).
func (c *Controller) Player(n int) (PlayerState, bool) {
	if c.session == nil || n < 1 || n > NumPlayers {
		return PlayerState{}, false
	}
	return c.session.player(n).clone(), true
}

// Results returns the results of the last finished game.
func (c *Controller) Results() (Results, bool) {
	if c.results == nil {
		return Results{}, false
	}
	return *c.results, true
}

// Snapshot returns typed counters for presentation.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Phase:     c.phase.String(),
		Remaining: c.clock.Remaining.Seconds(),
		Active:    c.clock.Active,
		Paused:    c.paused,
	}
	if c.session == nil {
		return s
	}

	s.GameID = c.session.ID
	s.Current = c.session.Current
	s.Budget = c.session.TimeBudget.Seconds()
	s.Targets = append([]string(nil), c.session.Targets...)
	for i := range c.session.Players {
		s.Players[i] = snapshotPlayer(c.session.Players[i], len(c.session.Targets))
	}
	if c.results != nil {
		w := c.results.Winner
		s.Winner = &w
	}
	return s
}

// markFound sets checklist[label] for player n and bumps the score.
// It reports false if the label was already found.
func (c *Controller) markFound(n int, label string) bool {
	p := c.session.player(n)
	if p.Checklist[label] {
		return false
	}

	p.Checklist[label] = true
	p.Score++
	if c.cb.OnScoreChanged != nil {
		c.cb.OnScoreChanged(n, p.Score)
	}
	return true
}

// syncScore credits targets that reached the accumulator but were not
// drained from the hand-off slot yet. It reports whether that completed
// the current player's checklist.
func (c *Controller) syncScore() bool {
	n := c.session.Current
	for _, label := range c.acc.Labels() {
		if c.session.isTarget(label) {
			c.markFound(n, label)
		}
	}
	return c.markCompleted(n)
}

// markCompleted ends player n's turn as completed once every target is
// found. It reports false if the checklist is not full or the completion
// was already recorded.
func (c *Controller) markCompleted(n int) bool {
	p := c.session.player(n)
	if p.Completed || p.Found() < len(c.session.Targets) {
		return false
	}

	p.Completed = true
	p.Elapsed = c.session.TimeBudget - c.clock.Remaining
	c.clock.Active = false
	c.turnEnded = true

	log.Printf("%s found every target in %s", p.Name, p.Elapsed)
	if c.cb.OnTurnCompleted != nil {
		c.cb.OnTurnCompleted(n, p.Elapsed)
	}
	return true
}

// finishTurn stops the worker after a completion or timeout and either
// advances or waits for the presentation.
func (c *Controller) finishTurn() {
	c.StopAnd(func() {
		if c.autoAdvance {
			c.advance()
			return
		}
		c.phase = PhaseBetween
	})
}

func (c *Controller) advance() {
	if err := c.AdvanceTurn(); err != nil {
		log.Printf("Error advancing turn: %v", err)
	}
}

func (c *Controller) captureFailed(err error) {
	if c.cb.OnCaptureFailed != nil {
		c.cb.OnCaptureFailed(c.session.Current, err)
	}
}

func (c *Controller) gameOver(early bool) {
	c.clock.Active = false
	c.phase = PhaseOver

	r := Results{
		GameID:     c.session.ID,
		Targets:    append([]string(nil), c.session.Targets...),
		Policy:     c.policy.Name(),
		EndedEarly: early,
	}
	for i := range c.session.Players {
		r.Players[i] = c.session.Players[i].clone()
	}
	r.Winner = c.policy.Winner(r.Players[0], r.Players[1])
	c.results = &r

	if r.Winner == 0 {
		log.Printf("Game %s over: draw", r.GameID)
	} else {
		log.Printf("Game %s over: %s wins", r.GameID, r.WinnerName())
	}
	if c.cb.OnGameOver != nil {
		c.cb.OnGameOver(r)
	}
}

func dedupe(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
