// Package kinematics provides a fixed-capacity ring buffer of timestamped fingertip
// positions, retained in both image-frame and hand-frame coordinates.
package kinematics

import "github.com/ayusman/kuchipudi/internal/align"

// Sample is a single timestamped fingertip-midpoint observation.
type Sample struct {
	TMs          int64
	MidpointImg  align.Point2D
	MidpointHand align.Point2D
}

// Buffer is a fixed-capacity ring buffer of Sample, sized to cover the longer of the
// velocity window and the optical-flow history window. No heap growth per frame.
type Buffer struct {
	data  []Sample
	head  int // index of the oldest sample
	count int
}

// New creates a Buffer with the given fixed capacity.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{data: make([]Sample, capacity)}
}

// Append adds a new sample, overwriting the oldest entry once the buffer is full.
func (b *Buffer) Append(s Sample) {
	idx := (b.head + b.count) % len(b.data)
	b.data[idx] = s

	if b.count < len(b.data) {
		b.count++
	} else {
		b.head = (b.head + 1) % len(b.data)
	}
}

// Len returns the number of samples currently held.
func (b *Buffer) Len() int {
	return b.count
}

// At returns the i-th sample in insertion order (0 = oldest).
func (b *Buffer) At(i int) Sample {
	return b.data[(b.head+i)%len(b.data)]
}

// Newest returns the most recently appended sample and whether the buffer is non-empty.
func (b *Buffer) Newest() (Sample, bool) {
	if b.count == 0 {
		return Sample{}, false
	}
	return b.At(b.count - 1), true
}

// Reset clears the buffer, as required on ControllerState transitioning to IDLE.
func (b *Buffer) Reset() {
	b.head = 0
	b.count = 0
}

// OldestWithinWindow returns the oldest sample whose timestamp is within windowMs of
// the newest sample's timestamp, and whether such a sample (and at least one other
// sample) exists.
func (b *Buffer) OldestWithinWindow(windowMs int64) (oldest, newest Sample, ok bool) {
	if b.count < 2 {
		return Sample{}, Sample{}, false
	}

	newest = b.At(b.count - 1)
	cutoff := newest.TMs - windowMs

	for i := 0; i < b.count; i++ {
		s := b.At(i)
		if s.TMs >= cutoff {
			return s, newest, true
		}
	}

	return b.At(b.count - 1), newest, true
}
