package detector

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"
)

// Annotation colours, by confidence band.
var (
	colorHigh   = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	colorMedium = color.RGBA{R: 245, G: 224, B: 66, A: 0}
	colorLow    = color.RGBA{R: 245, G: 66, B: 78, A: 0}
	colorFPS    = color.RGBA{R: 255, G: 0, B: 0, A: 0}
)

// FrameResult summarizes one processed frame.
type FrameResult struct {
	FPS           float64
	FrameDetected int
	TotalDetected int
	NewLabels     []string
}

// Engine turns raw detector output into game detections: it applies the
// confidence threshold and label filter, records new labels in the
// Accumulator and annotates the frame in place.
type Engine struct {
	detector      Detector
	acc           *Accumulator
	minConfidence float64
}

// NewEngine creates an Engine. A minConfidence <= 0 uses the default of 0.5.
func NewEngine(d Detector, acc *Accumulator, minConfidence float64) *Engine {
	if minConfidence <= 0 {
		minConfidence = DefaultConfig().MinConfidence
	}
	return &Engine{
		detector:      d,
		acc:           acc,
		minConfidence: minConfidence,
	}
}

// Process recognizes objects in frame on behalf of turn epoch. Only labels
// in filter are kept; an empty filter keeps every label. A recognition
// error leaves the frame untouched and is returned to the caller.
func (e *Engine) Process(frame *gocv.Mat, epoch uint64, filter map[string]bool) (FrameResult, error) {
	start := time.Now()

	detections, err := e.recognize(frame)
	if err != nil {
		return FrameResult{}, err
	}

	var res FrameResult
	for _, d := range detections {
		if len(filter) > 0 && !filter[d.Label] {
			continue
		}
		if d.Confidence < e.minConfidence {
			continue
		}

		if e.acc.Add(epoch, d.Label) {
			res.NewLabels = append(res.NewLabels, d.Label)
		}

		annotate(frame, d)
		res.FrameDetected++
	}

	if elapsed := time.Since(start).Seconds(); elapsed > 0 {
		res.FPS = 1 / elapsed
	}
	if frame != nil && !frame.Empty() {
		gocv.PutText(frame, fmt.Sprintf("FPS: %.2f", res.FPS), image.Pt(50, 50), gocv.FontHersheyPlain, 1, colorFPS, 2)
	}
	res.TotalDetected = e.acc.Len()

	return res, nil
}

// recognize calls the detector, turning a panic into an error so a single
// bad frame never kills the worker.
func (e *Engine) recognize(frame *gocv.Mat) (detections []Detection, err error) {
	d := e.detector
	if d == nil {
		return nil, fmt.Errorf("no detector configured")
	}

	defer func() {
		if r := recover(); r != nil {
			detections = nil
			err = fmt.Errorf("recognize panicked: %v", r)
		}
	}()

	return d.Recognize(frame)
}

// annotate draws the detection box and "label: confidence" on frame.
func annotate(frame *gocv.Mat, d Detection) {
	if frame == nil || frame.Empty() {
		return
	}

	c := colorLow
	switch {
	case d.Confidence > 0.6:
		c = colorHigh
	case d.Confidence > 0.3:
		c = colorMedium
	}

	gocv.Rectangle(frame, d.Box, c, 2)
	gocv.PutText(frame, fmt.Sprintf("%s: %.2f", d.Label, d.Confidence), image.Pt(d.Box.Min.X, d.Box.Min.Y-5), gocv.FontHersheyPlain, 2, c, 2)
}
