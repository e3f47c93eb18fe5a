package capture

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/objecthunt/internal/detector"
	"github.com/ayusman/objecthunt/internal/handoff"
)

// Worker timing constants.
const (
	// PausePoll is how long a paused worker sleeps between flag checks.
	PausePoll = 100 * time.Millisecond
	// ReadRetryDelay is the pause after a transient read error.
	ReadRetryDelay = 10 * time.Millisecond
	// MaxReadFailures is the number of consecutive read errors after which
	// the worker gives up on the source.
	MaxReadFailures = 50
)

// WorkerConfig holds the per-turn settings of a Worker.
type WorkerConfig struct {
	// Epoch is the accumulator epoch of the turn this worker serves.
	Epoch uint64
	// Filter restricts detection to these labels. Empty means all labels.
	Filter []string
	// MaxFPS paces frame pulls. Zero pulls as fast as the source allows.
	MaxFPS int
}

// Worker pulls frames from a Source, runs them through the detection
// Engine and publishes the annotated result to a hand-off Slot.
//
// A Worker is single-use: Start it once, Stop it once. Stop only requests
// termination; Done is closed after the loop has observed the request and
// released the source.
type Worker struct {
	source   Source
	engine   *detector.Engine
	slot     *handoff.Slot
	epoch    uint64
	filter   map[string]bool
	interval time.Duration

	paused    atomic.Bool
	stopCh    chan struct{}
	stopOnce  sync.Once
	startOnce sync.Once
	done      chan struct{}

	mu  sync.Mutex
	err error
}

// NewWorker creates a Worker. It does not touch the source until Start.
func NewWorker(src Source, engine *detector.Engine, slot *handoff.Slot, cfg WorkerConfig) *Worker {
	filter := make(map[string]bool, len(cfg.Filter))
	for _, l := range cfg.Filter {
		filter[l] = true
	}

	var interval time.Duration
	if cfg.MaxFPS > 0 {
		interval = time.Second / time.Duration(cfg.MaxFPS)
	}

	return &Worker{
		source:   src,
		engine:   engine,
		slot:     slot,
		epoch:    cfg.Epoch,
		filter:   filter,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the capture loop in its own goroutine.
func (w *Worker) Start() {
	w.startOnce.Do(func() {
		go w.run()
	})
}

// Pause makes the worker stop pulling frames until Resume.
func (w *Worker) Pause() {
	w.paused.Store(true)
}

// Resume undoes Pause.
func (w *Worker) Resume() {
	w.paused.Store(false)
}

// Paused reports whether the worker is paused.
func (w *Worker) Paused() bool {
	return w.paused.Load()
}

// Stop requests termination and returns immediately.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Done is closed once the worker has exited and released its source.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Wait blocks until the worker exits or timeout elapses.
// It reports whether the worker exited.
func (w *Worker) Wait(timeout time.Duration) bool {
	select {
	case <-w.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Err returns the reason the worker exited abnormally, if any.
// End of stream and Stop are not errors.
func (w *Worker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Worker) setErr(err error) {
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
}

func (w *Worker) stopping() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

// sleep waits for d or until Stop. It reports false when stopped.
func (w *Worker) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-w.stopCh:
		return false
	case <-t.C:
		return true
	}
}

// run is the capture loop.
//
// Loop logic:
// 1. Open the source; on failure record the error and exit without publishing
// 2. Check the stop flag once per iteration
// 3. While paused, sleep PausePoll instead of pulling frames
// 4. Pull a frame; end of stream exits, other read errors are retried
// 5. Process the frame and publish the annotated result
func (w *Worker) run() {
	defer close(w.done)

	if err := w.source.Open(); err != nil {
		log.Printf("Error opening frame source %s: %v", w.source.Handle(), err)
		w.setErr(err)
		return
	}
	defer func() {
		if err := w.source.Close(); err != nil {
			log.Printf("Error closing frame source: %v", err)
		}
	}()

	log.Printf("Capture started - source: %s at %d fps", w.source.Handle(), w.source.FPS())

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	failures := 0
	for {
		if w.stopping() {
			log.Println("Capture stopped")
			return
		}

		if w.paused.Load() {
			if !w.sleep(PausePoll) {
				return
			}
			continue
		}

		if tick != nil {
			select {
			case <-w.stopCh:
				return
			case <-tick:
			}
		}

		frame, err := w.source.ReadFrame()
		if err != nil {
			if errors.Is(err, ErrEndOfStream) {
				log.Println("End of video stream")
				return
			}

			failures++
			if failures >= MaxReadFailures {
				log.Printf("Giving up on frame source after %d read errors: %v", failures, err)
				w.setErr(fmt.Errorf("read frame: %w", err))
				return
			}
			log.Printf("Error reading frame: %v", err)
			if !w.sleep(ReadRetryDelay) {
				return
			}
			continue
		}
		failures = 0

		w.processFrame(frame)
	}
}

// processFrame runs detection on frame and publishes the result.
// An inference error is logged and the raw frame is still published.
func (w *Worker) processFrame(frame *gocv.Mat) {
	defer frame.Close()

	res, err := w.engine.Process(frame, w.epoch, w.filter)
	if err != nil {
		log.Printf("Error processing frame: %v", err)
	}

	if w.stopping() {
		return
	}

	w.slot.Put(handoff.Update{
		Epoch:         w.epoch,
		JPEG:          encodeJPEG(frame),
		FPS:           res.FPS,
		FrameDetected: res.FrameDetected,
		TotalDetected: res.TotalDetected,
		NewLabels:     res.NewLabels,
	})
}

// encodeJPEG returns frame as JPEG bytes, or nil if encoding fails.
func encodeJPEG(frame *gocv.Mat) []byte {
	if frame == nil || frame.Empty() {
		return nil
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		log.Printf("Error encoding frame: %v", err)
		return nil
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...)
}
