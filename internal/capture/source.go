// Package capture provides frame sources and the capture worker using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture settings
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrSourceNotOpen is returned when reading from a source that is not open.
	ErrSourceNotOpen = errors.New("frame source is not open")

	// ErrEndOfStream is returned when a file source has no more frames.
	ErrEndOfStream = errors.New("end of stream")
)

// Handle identifies a frame source: a camera device index or a video file path.
type Handle struct {
	Device int
	Path   string
}

// ParseHandle interprets s as a device index when it is all digits,
// otherwise as a file path. An empty string selects device 0.
func ParseHandle(s string) Handle {
	s = strings.TrimSpace(s)
	if s == "" {
		return Handle{Device: 0}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return Handle{Device: n}
	}
	return Handle{Path: s}
}

// IsDevice reports whether the handle names a camera device.
func (h Handle) IsDevice() bool {
	return h.Path == ""
}

func (h Handle) String() string {
	if h.IsDevice() {
		return fmt.Sprintf("camera %d", h.Device)
	}
	return h.Path
}

// Source defines the interface for frame source implementations.
type Source interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
	Handle() Handle
}

// videoSource reads frames from a camera device or video file using GoCV.
type videoSource struct {
	handle  Handle
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewSource creates a new Source for the given handle.
func NewSource(h Handle) Source {
	return &videoSource{
		handle:  h,
		fps:     DefaultFPS,
		running: false,
		capture: nil,
	}
}

// Open opens the source for capturing frames.
// Camera devices are set to 640x480 for inference performance.
func (s *videoSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	var device interface{} = s.handle.Device
	if !s.handle.IsDevice() {
		device = s.handle.Path
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.handle, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open %s: capture not opened", s.handle)
	}

	if s.handle.IsDevice() {
		capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
		capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
		capture.Set(gocv.VideoCaptureFPS, float64(s.fps))
	}

	s.capture = capture
	s.running = true

	return nil
}

// Close closes the source and releases resources.
func (s *videoSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		s.running = false
		return nil
	}

	err := s.capture.Close()
	s.capture = nil
	s.running = false

	return err
}

// ReadFrame reads a single frame from the source.
// The caller is responsible for closing the returned Mat.
// File sources return ErrEndOfStream once exhausted.
func (s *videoSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := s.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		if !s.handle.IsDevice() {
			return nil, ErrEndOfStream
		}
		return nil, errors.New("failed to read frame from camera")
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (s *videoSource) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fps = fps

	if s.capture != nil && s.handle.IsDevice() {
		s.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (s *videoSource) FPS() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fps
}

// IsOpen returns true if the source is currently open.
func (s *videoSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Handle returns the source handle.
func (s *videoSource) Handle() Handle {
	return s.handle
}
