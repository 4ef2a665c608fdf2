// Package render defines the vertex-buffer interface the display drives and a
// concrete FIFO implementation used by the daemon and tests.
package render

import "sync"

// Point is a renderer-ready vertex: position in renderer coordinates plus an
// RGB color in [0,1].
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
}

// Renderer is the scene object the display keeps synchronized with its cloud
// buffer. The point queue is strict prefix-pop / suffix-append: AddPoints
// appends at the tail and PopPoints drops from the head, so eviction order
// matches insertion order.
type Renderer interface {
	AddPoints(points []Point)
	PopPoints(count int)
	Clear()
	SetAlpha(alpha float32)
	SetBillboardDimensions(width, height float32)
	SetUsePoints(usePoints bool)
}

// PointBuffer is an in-memory Renderer. It holds the current vertex queue and
// the display settings last pushed into it, for publishing to clients.
type PointBuffer struct {
	mu        sync.RWMutex
	points    []Point
	alpha     float32
	width     float32
	height    float32
	usePoints bool
}

// NewPointBuffer creates an empty PointBuffer with alpha 1.
func NewPointBuffer() *PointBuffer {
	return &PointBuffer{alpha: 1.0}
}

// AddPoints appends points at the tail of the queue.
func (b *PointBuffer) AddPoints(points []Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.points = append(b.points, points...)
}

// PopPoints drops count points from the head of the queue. Popping more than
// the queue holds empties it.
func (b *PointBuffer) PopPoints(count int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if count >= len(b.points) {
		b.points = b.points[:0]
		return
	}
	b.points = b.points[:copy(b.points, b.points[count:])]
}

// Clear drops every queued point.
func (b *PointBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.points = b.points[:0]
}

// SetAlpha records the display opacity.
func (b *PointBuffer) SetAlpha(alpha float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alpha = alpha
}

// SetBillboardDimensions records the billboard quad size in world units.
func (b *PointBuffer) SetBillboardDimensions(width, height float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
}

// SetUsePoints switches between billboard and raw point primitives.
func (b *PointBuffer) SetUsePoints(usePoints bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.usePoints = usePoints
}

// Len returns the current number of queued points.
func (b *PointBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.points)
}

// Snapshot copies the current queue and settings for publishing.
func (b *PointBuffer) Snapshot() BufferSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pts := make([]Point, len(b.points))
	copy(pts, b.points)
	return BufferSnapshot{
		Points:      pts,
		Alpha:       b.alpha,
		BillboardW:  b.width,
		BillboardH:  b.height,
		UsePoints:   b.usePoints,
		TotalPoints: len(pts),
	}
}

// BufferSnapshot is a point-in-time copy of the vertex queue, serialised to
// websocket clients.
type BufferSnapshot struct {
	Points      []Point `json:"points"`
	Alpha       float32 `json:"alpha"`
	BillboardW  float32 `json:"billboard_w"`
	BillboardH  float32 `json:"billboard_h"`
	UsePoints   bool    `json:"use_points"`
	TotalPoints int     `json:"total_points"`
}
