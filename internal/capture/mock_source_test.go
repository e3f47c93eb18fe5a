package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockSource_Playback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	src := NewMockSource([]*gocv.Mat{&frame1, &frame2}, false)

	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	for i := 0; i < 2; i++ {
		f, err := src.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		f.Close()
	}

	// Third read reports end of stream (no loop)
	if _, err := src.ReadFrame(); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("ReadFrame() error = %v, want ErrEndOfStream", err)
	}
}

func TestMockSource_Loop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	src := NewMockSource([]*gocv.Mat{&frame}, true)
	src.Open()
	defer src.Close()

	for i := 0; i < 5; i++ {
		f, err := src.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockSource_Errors(t *testing.T) {
	src := NewMockSource(nil, true)

	openErr := errors.New("no such device")
	src.SetOpenError(openErr)
	if err := src.Open(); !errors.Is(err, openErr) {
		t.Errorf("Open() error = %v, want %v", err, openErr)
	}
	if src.IsOpen() {
		t.Error("source should not be open after failed Open()")
	}

	src.SetOpenError(nil)
	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	readErr := errors.New("usb hiccup")
	src.SetReadError(readErr)
	if _, err := src.ReadFrame(); !errors.Is(err, readErr) {
		t.Errorf("ReadFrame() error = %v, want %v", err, readErr)
	}
	if src.Reads() != 1 {
		t.Errorf("Reads() = %d, want 1", src.Reads())
	}
}
