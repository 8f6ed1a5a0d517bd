package graph

import (
	"github.com/geoknoesis/rdf-batch/rdf"
)

// maxPrealloc caps the up-front allocation for very large capacities.
const maxPrealloc = 4096

// Buffer accumulates pending statements in insertion order.
type Buffer struct {
	quads    []rdf.Quad
	capacity int
}

// NewBuffer returns an empty buffer that reports Full at capacity statements.
func NewBuffer(capacity int) *Buffer {
	b := &Buffer{capacity: capacity}
	b.Clear()
	return b
}

// Append adds q. It does not check capacity.
func (b *Buffer) Append(q rdf.Quad) {
	b.quads = append(b.quads, q)
}

// Clear empties the buffer. The previous backing array is released, never
// reused, so a sink may keep the slice it was handed.
func (b *Buffer) Clear() {
	b.quads = make([]rdf.Quad, 0, min(b.capacity, maxPrealloc))
}

// Size returns the number of pending statements.
func (b *Buffer) Size() int { return len(b.quads) }

// Capacity returns the flush threshold.
func (b *Buffer) Capacity() int { return b.capacity }

// Full reports whether the buffer reached its capacity.
func (b *Buffer) Full() bool { return len(b.quads) >= b.capacity }

// Quads returns a copy of the pending statements.
func (b *Buffer) Quads() []rdf.Quad {
	out := make([]rdf.Quad, len(b.quads))
	copy(out, b.quads)
	return out
}

// batch returns the live slice for forwarding.
func (b *Buffer) batch() []rdf.Quad { return b.quads }
