// Package audio accumulates raw PCM from the ingest socket into fixed-length
// windows that are handed to batch transcription.
package audio

import (
	"sync"
	"time"
)

// Format describes the 16-bit little-endian PCM sent by the ingest client.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat is 16 kHz mono.
var DefaultFormat = Format{SampleRate: 16000, Channels: 1}

func (f Format) bytesPerSecond() int {
	ch := f.Channels
	if ch <= 0 {
		ch = 1
	}
	return f.SampleRate * ch * 2
}

// Duration estimates how much audio n bytes hold.
func (f Format) Duration(n int) time.Duration {
	bps := f.bytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bps)
}

// Buffer collects chunks until a window is full.
type Buffer struct {
	format Format
	window time.Duration

	mu    sync.Mutex
	data  []byte
	ready bool
}

func NewBuffer(format Format, window time.Duration) *Buffer {
	return &Buffer{format: format, window: window}
}

// Add appends a chunk. It returns true exactly once per window, when the
// buffered duration first reaches the window length.
func (b *Buffer) Add(chunk []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, chunk...)
	if b.ready {
		return false
	}
	if b.format.Duration(len(b.data)) >= b.window {
		b.ready = true
		return true
	}
	return false
}

// Drain returns everything buffered so far and resets the buffer.
func (b *Buffer) Drain() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.data
	b.data = nil
	b.ready = false
	return out
}

// Duration reports the currently buffered duration.
func (b *Buffer) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.format.Duration(len(b.data))
}

// Viable reports whether a drained window is long enough to be worth transcribing.
func Viable(f Format, pcm []byte, min time.Duration) bool {
	return len(pcm) > 0 && f.Duration(len(pcm)) >= min
}
