package capture

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestParseHandle(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantDevice int
		wantPath   string
	}{
		{name: "empty selects default camera", input: "", wantDevice: 0},
		{name: "device index", input: "2", wantDevice: 2},
		{name: "device index with spaces", input: " 1 ", wantDevice: 1},
		{name: "file path", input: "/tmp/clip.mp4", wantPath: "/tmp/clip.mp4"},
		{name: "negative number is a path", input: "-1", wantPath: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ParseHandle(tt.input)
			if h.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", h.Path, tt.wantPath)
			}
			if tt.wantPath == "" {
				if !h.IsDevice() {
					t.Error("expected device handle")
				}
				if h.Device != tt.wantDevice {
					t.Errorf("Device = %d, want %d", h.Device, tt.wantDevice)
				}
			}
		})
	}
}

func TestHandle_String(t *testing.T) {
	if got := (Handle{Device: 1}).String(); got != "camera 1" {
		t.Errorf("String() = %q, want %q", got, "camera 1")
	}
	if got := (Handle{Path: "clip.mp4"}).String(); got != "clip.mp4" {
		t.Errorf("String() = %q, want %q", got, "clip.mp4")
	}
}

func TestNewSource(t *testing.T) {
	src := NewSource(Handle{Device: 0})

	if src == nil {
		t.Fatal("NewSource returned nil")
	}
	if got := src.FPS(); got != DefaultFPS {
		t.Errorf("FPS() = %d, want %d (default)", got, DefaultFPS)
	}
	if src.IsOpen() {
		t.Error("source should not be open initially")
	}
	if src.Handle().Device != 0 {
		t.Errorf("Handle().Device = %d, want 0", src.Handle().Device)
	}
}

func TestSource_SetFPS(t *testing.T) {
	src := NewSource(Handle{Device: 0})

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{name: "set to 10", fps: 10, wantFPS: 10},
		{name: "set to 1", fps: 1, wantFPS: 1},
		{name: "set to 0 should keep previous", fps: 0, wantFPS: 1},
		{name: "set to negative should keep previous", fps: -5, wantFPS: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src.SetFPS(tt.fps)

			if got := src.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
		})
	}
}

func TestSource_ReadFrame_NotOpened(t *testing.T) {
	src := NewSource(Handle{Device: 0})

	if _, err := src.ReadFrame(); !errors.Is(err, ErrSourceNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrSourceNotOpen", err)
	}
}

func TestSource_Close_NotOpened(t *testing.T) {
	src := NewSource(Handle{Device: 0})

	if err := src.Close(); err != nil {
		t.Errorf("Close() on not opened source should return nil, got: %v", err)
	}
}

func TestSource_Open_MissingFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires OpenCV video backends")
	}

	src := NewSource(Handle{Path: filepath.Join(t.TempDir(), "missing.mp4")})

	if err := src.Open(); err == nil {
		src.Close()
		t.Fatal("Open() should fail for a missing file")
	}
	if src.IsOpen() {
		t.Error("IsOpen() should be false after failed Open()")
	}
}

func TestSource_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	src := NewSource(Handle{Device: 0})

	if err := src.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	if !src.IsOpen() {
		t.Error("IsOpen() should return true after Open()")
	}

	mat, err := src.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		if mat.Empty() {
			t.Error("ReadFrame() returned empty mat")
		}
		mat.Close()
	}

	if err := src.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if src.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}
