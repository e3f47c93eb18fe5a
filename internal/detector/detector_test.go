package detector

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

func TestAccumulator(t *testing.T) {
	t.Run("add reports only first sighting", func(t *testing.T) {
		acc := NewAccumulator()
		epoch := acc.Reset()

		if !acc.Add(epoch, "cup") {
			t.Error("first Add(cup) should report new")
		}
		if acc.Add(epoch, "cup") {
			t.Error("second Add(cup) should not report new")
		}
		if !acc.Add(epoch, "book") {
			t.Error("first Add(book) should report new")
		}

		got := acc.Labels()
		if len(got) != 2 || got[0] != "cup" || got[1] != "book" {
			t.Errorf("Labels() = %v, want [cup book]", got)
		}
		if acc.Len() != 2 {
			t.Errorf("Len() = %d, want 2", acc.Len())
		}
	})

	t.Run("reset clears labels and advances epoch", func(t *testing.T) {
		acc := NewAccumulator()
		first := acc.Reset()
		acc.Add(first, "cup")

		second := acc.Reset()
		if second != first+1 {
			t.Errorf("Reset() epoch = %d, want %d", second, first+1)
		}
		if acc.Len() != 0 {
			t.Errorf("Len() after Reset = %d, want 0", acc.Len())
		}
	})

	t.Run("stale epoch is ignored", func(t *testing.T) {
		acc := NewAccumulator()
		old := acc.Reset()
		acc.Reset()

		if acc.Add(old, "cup") {
			t.Error("Add with stale epoch should be ignored")
		}
		if acc.Len() != 0 {
			t.Errorf("Len() = %d, want 0", acc.Len())
		}
	})
}

func TestValidateTargets(t *testing.T) {
	tests := []struct {
		name      string
		requested []string
		want      []string
	}{
		{
			name:      "keeps known labels in order",
			requested: []string{"book", "cup"},
			want:      []string{"book", "cup"},
		},
		{
			name:      "drops unknown labels",
			requested: []string{"cup", "unicorn"},
			want:      []string{"cup"},
		},
		{
			name:      "drops duplicates and blanks",
			requested: []string{" cup ", "cup", "", "book"},
			want:      []string{"cup", "book"},
		},
		{
			name:      "nothing known",
			requested: []string{"unicorn"},
			want:      []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateTargets(tt.requested, CocoLabels)
			if len(got) != len(tt.want) {
				t.Fatalf("ValidateTargets() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ValidateTargets()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadLabels(t *testing.T) {
	t.Run("empty path returns coco", func(t *testing.T) {
		labels, err := LoadLabels("")
		if err != nil {
			t.Fatalf("LoadLabels() error = %v", err)
		}
		if len(labels) != 80 {
			t.Errorf("len(labels) = %d, want 80", len(labels))
		}
	})

	t.Run("reads file skipping blanks", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "labels.txt")
		if err := os.WriteFile(path, []byte("cup\n\n book \n"), 0644); err != nil {
			t.Fatal(err)
		}

		labels, err := LoadLabels(path)
		if err != nil {
			t.Fatalf("LoadLabels() error = %v", err)
		}
		if len(labels) != 2 || labels[0] != "cup" || labels[1] != "book" {
			t.Errorf("LoadLabels() = %v, want [cup book]", labels)
		}
	})

	t.Run("empty file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "labels.txt")
		if err := os.WriteFile(path, []byte("\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadLabels(path); err == nil {
			t.Error("expected error for empty labels file")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := LoadLabels(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
			t.Error("expected error for missing labels file")
		}
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("returns nothing by default", func(t *testing.T) {
		mock := NewMockDetector()

		detections, err := mock.Recognize(nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(detections) != 0 {
			t.Errorf("expected no detections, got %v", detections)
		}
	})

	t.Run("returns configured detections", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetDetections([]Detection{Sighting("cup", 0.9)})

		detections, err := mock.Recognize(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(detections) != 1 || detections[0].Label != "cup" {
			t.Errorf("Recognize() = %v, want one cup", detections)
		}
		if detections[0].ClassID != 41 {
			t.Errorf("ClassID = %d, want 41", detections[0].ClassID)
		}
		if mock.Calls() != 1 {
			t.Errorf("Calls() = %d, want 1", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		want := errors.New("inference failed")
		mock.SetError(want)

		if _, err := mock.Recognize(nil); !errors.Is(err, want) {
			t.Errorf("Recognize() error = %v, want %v", err, want)
		}
	})
}

func TestNewDNNDetector_MissingModel(t *testing.T) {
	cfg := DefaultConfig()

	if _, err := NewDNNDetector(cfg); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("empty path: error = %v, want ErrModelNotFound", err)
	}

	cfg.ModelPath = filepath.Join(t.TempDir(), "yolov8m.onnx")
	if _, err := NewDNNDetector(cfg); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("missing file: error = %v, want ErrModelNotFound", err)
	}
}

func TestNewServiceDetector_MissingScript(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServiceScript = filepath.Join(t.TempDir(), "yolo_service.py")

	if _, err := NewServiceDetector(cfg); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("error = %v, want ErrModelNotFound", err)
	}
}

func TestJSONDetection_ToDetection(t *testing.T) {
	t.Run("label from response", func(t *testing.T) {
		jd := jsonDetection{Class: 41, Label: "cup", Confidence: 0.8, Box: [4]float64{1, 2, 30, 40}}
		d := jd.toDetection(CocoLabels)

		if d.Label != "cup" || d.Confidence != 0.8 {
			t.Errorf("toDetection() = %+v", d)
		}
		if d.Box.Min.X != 1 || d.Box.Min.Y != 2 || d.Box.Max.X != 30 || d.Box.Max.Y != 40 {
			t.Errorf("Box = %v, want (1,2)-(30,40)", d.Box)
		}
	})

	t.Run("label from class id", func(t *testing.T) {
		jd := jsonDetection{Class: 73, Confidence: 0.7}
		if d := jd.toDetection(CocoLabels); d.Label != "book" {
			t.Errorf("Label = %q, want book", d.Label)
		}
	})
}

func TestEngine_Process(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	t.Run("filters by confidence and label", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetDetections([]Detection{
			Sighting("cup", 0.9),
			Sighting("book", 0.4),
			Sighting("person", 0.95),
		})

		acc := NewAccumulator()
		epoch := acc.Reset()
		engine := NewEngine(mock, acc, 0.5)

		res, err := engine.Process(&frame, epoch, map[string]bool{"cup": true, "book": true})
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if res.FrameDetected != 1 {
			t.Errorf("FrameDetected = %d, want 1", res.FrameDetected)
		}
		if len(res.NewLabels) != 1 || res.NewLabels[0] != "cup" {
			t.Errorf("NewLabels = %v, want [cup]", res.NewLabels)
		}
		if res.TotalDetected != 1 {
			t.Errorf("TotalDetected = %d, want 1", res.TotalDetected)
		}

		res, _ = engine.Process(&frame, epoch, map[string]bool{"cup": true, "book": true})
		if len(res.NewLabels) != 0 {
			t.Errorf("second frame NewLabels = %v, want none", res.NewLabels)
		}
	})

	t.Run("empty filter keeps every label", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetDetections([]Detection{Sighting("cup", 0.9), Sighting("person", 0.95)})

		acc := NewAccumulator()
		engine := NewEngine(mock, acc, 0.5)

		res, err := engine.Process(&frame, acc.Reset(), nil)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if res.FrameDetected != 2 {
			t.Errorf("FrameDetected = %d, want 2", res.FrameDetected)
		}
	})

	t.Run("panic becomes error", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetPanic("boom")

		acc := NewAccumulator()
		engine := NewEngine(mock, acc, 0.5)

		if _, err := engine.Process(&frame, acc.Reset(), nil); err == nil {
			t.Error("expected error from panicking detector")
		}
	})
}
