package detector

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the recognition results.
type MockDetector struct {
	mu         sync.Mutex
	detections []Detection
	err        error
	panicMsg   string
	calls      int
	labels     []string
}

// NewMockDetector creates a new MockDetector recognizing the COCO labels.
func NewMockDetector() *MockDetector {
	return &MockDetector{labels: CocoLabels}
}

// SetDetections sets the detections that will be returned by Recognize.
func (m *MockDetector) SetDetections(detections []Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detections = detections
}

// SetError sets the error that will be returned by Recognize.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetPanic makes Recognize panic with msg. An empty msg disables it.
func (m *MockDetector) SetPanic(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicMsg = msg
}

// Calls returns how many times Recognize was called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Recognize returns the pre-configured detections or error.
func (m *MockDetector) Recognize(frame *gocv.Mat) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.err != nil {
		return nil, m.err
	}
	return append([]Detection(nil), m.detections...), nil
}

// Labels returns the mock label universe.
func (m *MockDetector) Labels() []string {
	return m.labels
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Sighting returns a Detection for label with the given confidence and a
// fixed box in the upper-left quadrant of a 640x480 frame.
func Sighting(label string, confidence float64) Detection {
	classID := -1
	for i, l := range CocoLabels {
		if l == label {
			classID = i
			break
		}
	}
	return Detection{
		ClassID:    classID,
		Label:      label,
		Confidence: confidence,
		Box:        image.Rect(40, 60, 200, 220),
	}
}
