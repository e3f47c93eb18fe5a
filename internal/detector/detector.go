// Package detector provides object recognition for the ObjectHunt game.
package detector

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
)

// ErrModelNotFound is returned when no model file or service script can be located.
var ErrModelNotFound = errors.New("detection model not found")

// Detection is a single recognized object in a frame.
type Detection struct {
	ClassID    int
	Label      string
	Confidence float64
	Box        image.Rectangle
}

// Detector defines the interface for object recognition implementations.
type Detector interface {
	// Recognize analyzes a video frame and returns every object found.
	// Confidence filtering is left to the caller.
	Recognize(frame *gocv.Mat) ([]Detection, error)

	// Labels returns the set of labels the detector can recognize.
	Labels() []string

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for object recognition.
type Config struct {
	// ModelPath is the YOLO ONNX model used by the DNN detector.
	ModelPath string

	// LabelsPath is an optional file with one class label per line.
	// The COCO labels are used when empty.
	LabelsPath string

	// ServiceScript is the model service started by the service detector.
	ServiceScript string

	// MinConfidence is the minimum confidence kept by the Engine (0.0-1.0).
	MinConfidence float64

	// NMSThreshold is the IoU threshold for non-maximum suppression.
	NMSThreshold float64

	// InputSize is the square network input size in pixels.
	InputSize int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.5,
		NMSThreshold:  0.45,
		InputSize:     640,
	}
}
