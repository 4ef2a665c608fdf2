package display

import "github.com/banshee-data/cloudview/internal/cloud"

// CloudEntry is one buffered cloud: a shared reference to the message, its
// age in seconds since insertion and the point count recorded at insertion.
// The recorded count is what the renderer releases on eviction, so it stays
// correct even if the source message is later dropped.
type CloudEntry struct {
	Message    *cloud.PointCloud
	Age        float32
	PointCount int
}

// CloudBuffer is the ordered sequence of buffered clouds, oldest first.
// Callers serialize access; the display holds its state lock around every
// operation.
type CloudBuffer struct {
	entries []*CloudEntry
}

// Push appends an entry at the tail.
func (b *CloudBuffer) Push(e *CloudEntry) {
	b.entries = append(b.entries, e)
}

// Tick adds dt seconds to every entry's age.
func (b *CloudBuffer) Tick(dt float32) {
	for _, e := range b.entries {
		e.Age += dt
	}
}

// EvictExpired pops entries from the head while the head's age exceeds
// decayTime, reporting each popped entry's point count through pop so the
// renderer can drop an equal-sized prefix. Returns the number of entries
// evicted.
func (b *CloudBuffer) EvictExpired(decayTime float32, pop func(pointCount int)) int {
	evicted := 0
	for len(b.entries) > 0 && b.entries[0].Age > decayTime {
		if pop != nil {
			pop(b.entries[0].PointCount)
		}
		b.entries[0] = nil
		b.entries = b.entries[1:]
		evicted++
	}
	return evicted
}

// Clear drops every entry.
func (b *CloudBuffer) Clear() {
	for i := range b.entries {
		b.entries[i] = nil
	}
	b.entries = b.entries[:0]
}

// Len returns the number of buffered entries.
func (b *CloudBuffer) Len() int {
	return len(b.entries)
}

// Head returns the oldest entry, or nil when empty.
func (b *CloudBuffer) Head() *CloudEntry {
	if len(b.entries) == 0 {
		return nil
	}
	return b.entries[0]
}

// Newest returns the most recently pushed entry, or nil when empty.
func (b *CloudBuffer) Newest() *CloudEntry {
	if len(b.entries) == 0 {
		return nil
	}
	return b.entries[len(b.entries)-1]
}

// TotalPoints sums the recorded point counts across all entries. It mirrors
// the renderer's queue length at all times.
func (b *CloudBuffer) TotalPoints() int {
	total := 0
	for _, e := range b.entries {
		total += e.PointCount
	}
	return total
}
