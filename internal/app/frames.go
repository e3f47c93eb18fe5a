package app

import "sync"

// FrameBuffer holds the most recent annotated JPEG for the stream endpoint.
type FrameBuffer struct {
	mu   sync.RWMutex
	jpeg []byte
	seq  uint64
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Set replaces the current frame. Empty frames are ignored.
func (b *FrameBuffer) Set(jpeg []byte) {
	if len(jpeg) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jpeg = jpeg
	b.seq++
}

// Latest returns the current frame and its sequence number.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.jpeg, b.seq
}
