// Package app wires the objecthunt components together: detector, capture
// workers, the game controller loop and the presentation fan-out.
package app

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/ayusman/objecthunt/internal/capture"
	"github.com/ayusman/objecthunt/internal/config"
	"github.com/ayusman/objecthunt/internal/detector"
	"github.com/ayusman/objecthunt/internal/game"
	"github.com/ayusman/objecthunt/internal/handoff"
	"github.com/ayusman/objecthunt/internal/hook"
	"github.com/ayusman/objecthunt/internal/store"
)

// Config holds the collaborators of an App. Only Settings is required.
type Config struct {
	Settings *config.Config
	Store    *store.Store

	// Detector overrides detector selection.
	Detector detector.Detector
	// NewSource overrides how capture sources are opened for each turn.
	NewSource func(capture.Handle) capture.Source
}

// Publisher receives every controller event.
type Publisher interface {
	Broadcast(v any)
}

// App is the main application that runs the game controller.
type App struct {
	settings  *config.Config
	store     *store.Store
	detector  detector.Detector
	labels    []string
	acc       *detector.Accumulator
	engine    *detector.Engine
	slot      *handoff.Slot
	frames    *FrameBuffer
	loop      *game.Loop
	ctrl      *game.Controller
	newSource func(capture.Handle) capture.Source

	hookMgr    *hook.Manager
	dispatcher *hook.Dispatcher

	mu          sync.RWMutex
	subscribers []func(game.Event)
}

// New creates a new App instance with the given configuration.
func New(cfg Config) (*App, error) {
	if cfg.Settings == nil {
		return nil, errors.New("app: settings are required")
	}
	s := cfg.Settings

	policy, err := game.PolicyByName(s.Game.WinnerPolicy)
	if err != nil {
		return nil, err
	}

	a := &App{
		settings:  s,
		store:     cfg.Store,
		detector:  cfg.Detector,
		acc:       detector.NewAccumulator(),
		slot:      handoff.NewSlot(),
		frames:    NewFrameBuffer(),
		loop:      game.NewLoop(s.Game.TickInterval, s.Game.PollInterval),
		newSource: cfg.NewSource,
		hookMgr:   hook.NewManager(s.Hooks.Dir),
	}
	if a.newSource == nil {
		a.newSource = capture.NewSource
	}
	a.dispatcher = hook.NewDispatcher(a.hookMgr, hook.NewExecutor(s.Hooks.Timeout))

	if a.detector == nil {
		a.detector = selectDetector(s.Detector)
	}
	a.labels = a.detector.Labels()
	a.engine = detector.NewEngine(a.detector, a.acc, s.Detector.MinConfidence)

	a.ctrl = game.NewController(game.Options{
		Accumulator: a.acc,
		Launcher:    launcher{a},
		Feed:        a.slot,
		Scheduler:   a.loop,
		Policy:      policy,
		Callbacks:   a.callbacks(),
		StopTimeout: s.Capture.StopTimeout,
		Step:        s.Game.TickInterval,
		AutoAdvance: s.Game.AutoAdvance,
	})

	return a, nil
}

// selectDetector tries the DNN model first, then the model service, and
// falls back to the mock detector so the game still runs without a model.
func selectDetector(s config.DetectorConfig) detector.Detector {
	cfg := detector.Config{
		ModelPath:     s.Model,
		LabelsPath:    s.Labels,
		ServiceScript: s.ServiceScript,
		MinConfidence: s.MinConfidence,
		NMSThreshold:  s.NMSThreshold,
		InputSize:     s.InputSize,
	}

	d, err := detector.NewDNNDetector(cfg)
	if err == nil {
		log.Printf("Using DNN object detection (%s)", s.Model)
		return d
	}
	log.Printf("DNN model not available (%v)", err)

	svc, err := detector.NewServiceDetector(cfg)
	if err == nil {
		log.Println("Using model service object detection")
		return svc
	}
	log.Printf("Model service not available (%v), using mock detector", err)

	return detector.NewMockDetector()
}

// DiscoverHooks scans the hooks directory.
func (a *App) DiscoverHooks() error {
	if err := a.hookMgr.Discover(); err != nil {
		return err
	}
	log.Printf("Loaded %d hooks from %s", len(a.hookMgr.List()), a.hookMgr.HookDir())
	return nil
}

// SeedPresets creates the default preset on first run.
func (a *App) SeedPresets() error {
	if a.store == nil {
		return nil
	}

	targets := game.PickTargets(a.labels, a.settings.Game.RandomTargets, nil)
	created, err := a.store.Presets().EnsureDefault(store.DefaultPresetName, targets)
	if err != nil {
		return err
	}
	if created {
		log.Printf("Created %q preset: %v", store.DefaultPresetName, targets)
	}
	return nil
}

// Subscribe registers fn for every controller event. fn runs on the
// controller loop and must not block.
func (a *App) Subscribe(fn func(game.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subscribers = append(a.subscribers, fn)
}

// SubscribePublisher broadcasts every event through p.
func (a *App) SubscribePublisher(p Publisher) {
	a.Subscribe(func(ev game.Event) { p.Broadcast(ev) })
}

// Run drives the controller loop and the hook dispatcher until ctx is
// cancelled. Any live capture worker is stopped before Run returns.
func (a *App) Run(ctx context.Context) error {
	go a.dispatcher.Run(ctx)
	err := a.loop.Run(ctx, a.ctrl)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the detector.
func (a *App) Close() error {
	if a.detector == nil {
		return nil
	}
	return a.detector.Close()
}

// Frames returns the latest annotated frame buffer.
func (a *App) Frames() *FrameBuffer {
	return a.frames
}

// ValidateLabels keeps the labels the detector can recognize.
func (a *App) ValidateLabels(labels []string) []string {
	return detector.ValidateTargets(labels, a.labels)
}

// launcher starts one capture worker per turn.
type launcher struct {
	a *App
}

func (l launcher) Launch(epoch uint64, targets []string) (game.Capture, error) {
	s := l.a.settings.Capture
	src := l.a.newSource(capture.ParseHandle(s.Source))
	if s.MaxFPS > 0 {
		src.SetFPS(s.MaxFPS)
	}

	w := capture.NewWorker(src, l.a.engine, l.a.slot, capture.WorkerConfig{
		Epoch:  epoch,
		Filter: targets,
		MaxFPS: s.MaxFPS,
	})
	w.Start()
	return w, nil
}
