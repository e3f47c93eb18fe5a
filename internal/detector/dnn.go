package detector

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// candidateThreshold is the score below which raw network outputs are
// discarded before non-maximum suppression.
const candidateThreshold = 0.25

// DNNDetector implements Detector with a YOLOv8 ONNX model run through the
// OpenCV DNN module.
type DNNDetector struct {
	mu           sync.Mutex
	net          gocv.Net
	labels       []string
	inputSize    int
	nmsThreshold float32
}

// NewDNNDetector loads the model at cfg.ModelPath.
// Returns ErrModelNotFound if the model file does not exist.
func NewDNNDetector(cfg Config) (*DNNDetector, error) {
	if cfg.ModelPath == "" {
		return nil, ErrModelNotFound
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	labels, err := LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("load model %s: empty network", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	size := cfg.InputSize
	if size <= 0 {
		size = DefaultConfig().InputSize
	}
	nms := cfg.NMSThreshold
	if nms <= 0 {
		nms = DefaultConfig().NMSThreshold
	}

	return &DNNDetector{
		net:          net,
		labels:       labels,
		inputSize:    size,
		nmsThreshold: float32(nms),
	}, nil
}

// Recognize runs the network on frame and decodes the YOLOv8 output
// tensor of shape [1, 4+classes, candidates].
func (d *DNNDetector) Recognize(frame *gocv.Mat) ([]Detection, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(*frame, 1.0/255.0, image.Pt(d.inputSize, d.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	channels, candidates := dims[1], dims[2]

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	xScale := float64(frame.Cols()) / float64(d.inputSize)
	yScale := float64(frame.Rows()) / float64(d.inputSize)

	var (
		boxes   []image.Rectangle
		scores  []float32
		classes []int
	)
	for i := 0; i < candidates; i++ {
		best, bestScore := -1, float32(0)
		for c := 4; c < channels; c++ {
			if s := data[c*candidates+i]; s > bestScore {
				best, bestScore = c-4, s
			}
		}
		if best < 0 || bestScore < candidateThreshold {
			continue
		}

		cx := float64(data[i])
		cy := float64(data[candidates+i])
		w := float64(data[2*candidates+i])
		h := float64(data[3*candidates+i])

		boxes = append(boxes, image.Rect(
			int((cx-w/2)*xScale),
			int((cy-h/2)*yScale),
			int((cx+w/2)*xScale),
			int((cy+h/2)*yScale),
		))
		scores = append(scores, bestScore)
		classes = append(classes, best)
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	keep := gocv.NMSBoxes(boxes, scores, candidateThreshold, d.nmsThreshold)

	detections := make([]Detection, 0, len(keep))
	for _, k := range keep {
		detections = append(detections, Detection{
			ClassID:    classes[k],
			Label:      d.label(classes[k]),
			Confidence: float64(scores[k]),
			Box:        boxes[k],
		})
	}

	return detections, nil
}

// Labels returns the model's class labels.
func (d *DNNDetector) Labels() []string {
	return d.labels
}

// Close releases the network.
func (d *DNNDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

func (d *DNNDetector) label(classID int) string {
	if classID >= 0 && classID < len(d.labels) {
		return d.labels[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}
