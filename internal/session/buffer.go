package session

import "errors"

// DefaultBufferSize is the response buffer capacity used when none is configured.
const DefaultBufferSize = 2048

// ErrBufferFull is returned by [Buffer.Write] when the write was truncated.
var ErrBufferFull = errors.New("response buffer full")

// Buffer is a fixed-capacity byte region that receives one response.
//
// The backing array is allocated once by [NewBuffer] and never grows. Writes
// beyond capacity are truncated and reported with [ErrBufferFull]. Buffer is
// not safe for concurrent use; the [Session] hands it to exactly one writer at
// a time.
type Buffer struct {
	data      []byte
	n         int
	truncated bool
}

// NewBuffer allocates a Buffer with the given capacity.
// A size of zero or less selects [DefaultBufferSize].
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{data: make([]byte, size)}
}

// Write appends p up to the remaining capacity.
func (b *Buffer) Write(p []byte) (int, error) {
	n := copy(b.data[b.n:], p)
	b.n += n
	if n < len(p) {
		b.truncated = true
		return n, ErrBufferFull
	}
	return n, nil
}

// WriteString appends s up to the remaining capacity.
func (b *Buffer) WriteString(s string) (int, error) {
	n := copy(b.data[b.n:], s)
	b.n += n
	if n < len(s) {
		b.truncated = true
		return n, ErrBufferFull
	}
	return n, nil
}

// Bytes returns the written portion of the buffer. The slice aliases the
// buffer and is only valid until the next [Buffer.Reset].
func (b *Buffer) Bytes() []byte {
	return b.data[:b.n]
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int {
	return b.n
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Truncated reports whether any write since the last reset was cut short.
func (b *Buffer) Truncated() bool {
	return b.truncated
}

// Reset empties the buffer and zeroes the previously written bytes so stale
// data cannot be mistaken for a new response.
func (b *Buffer) Reset() {
	clear(b.data[:b.n])
	b.n = 0
	b.truncated = false
}
