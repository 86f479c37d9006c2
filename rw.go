// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cbq

import (
	"fmt"
)

// WriteEntry appends one message to the ring.
//
// The entry is framed as a length prefix plus payload, aligned to the
// entry granularity. When the remaining tail of the ring is too short
// for the frame, a wrap marker is stored there and the entry goes to
// offset 0; the marker bytes count against capacity until the reader
// consumes them. Payload bytes become visible to the peer before the
// write offset and message count advance, so a lock-free emptiness
// poll never observes a half-published entry.
//
// Empty writes are accepted and discarded. When the frame does not fit
// (transient back-pressure or an entry larger than the ring), the
// dropped counter advances and WriteEntry returns ErrNoResource; the
// caller decides whether to retry after draining.
func (q *Queue) WriteEntry(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if !State(q.state.Load()).usable() {
		return fmt.Errorf("cbq: write in state %v: %w", q.State(), ErrInvalidState)
	}
	if len(data) > maxEntryLen {
		q.Lock()
		q.env.setDropped(q.env.dropped() + 1)
		q.Unlock()
		return fmt.Errorf("cbq: entry of %d bytes exceeds frame limit: %w", len(data), ErrNoResource)
	}

	span := entrySpan(len(data))
	size := uint32(q.size)

	q.Lock()
	w := q.env.writeOffset()
	r := q.env.readOffset()
	count := q.env.dataCount()
	free := freeBytes(size, w, r, count)

	if tail := size - w; span > tail {
		// Entry would straddle the ring end. The marker wastes the
		// tail, so the frame must fit on top of that waste.
		if tail+span > free {
			q.env.setDropped(q.env.dropped() + 1)
			q.Unlock()
			return fmt.Errorf("cbq: entry of %d bytes, %d free: %w", len(data), free, ErrNoResource)
		}
		q.env.storePrefix(w, wrapMarker)
		w = 0
	} else if span > free {
		q.env.setDropped(q.env.dropped() + 1)
		q.Unlock()
		return fmt.Errorf("cbq: entry of %d bytes, %d free: %w", len(data), free, ErrNoResource)
	}

	q.env.storePrefix(w, uint16(len(data)))
	q.env.storePayload(w+entryPrefixSize, data)

	w += span
	if w == size {
		w = 0
	}
	q.env.setWriteOffset(w)
	q.env.setEnqueued(q.env.enqueued() + 1)
	q.env.setDataCount(count + 1)
	q.Unlock()
	return nil
}

// ReadEntry removes the oldest message and copies it into out.
//
// Returns the payload length. An empty ring returns ErrEmpty. When out
// is too small for the pending entry, ReadEntry returns ErrNoResource
// and the entry stays queued for a retry with a larger buffer. A wrap
// marker under the read offset is consumed transparently.
func (q *Queue) ReadEntry(out []byte) (int, error) {
	if !State(q.state.Load()).usable() {
		return 0, fmt.Errorf("cbq: read in state %v: %w", q.State(), ErrInvalidState)
	}

	q.Lock()
	count := q.env.dataCount()
	if count == 0 {
		q.Unlock()
		return 0, ErrEmpty
	}
	r := q.env.readOffset()
	n := q.env.loadPrefix(r)
	if n == wrapMarker {
		r = 0
		q.env.setReadOffset(0)
		n = q.env.loadPrefix(0)
	}
	if int(n) > len(out) {
		q.Unlock()
		return 0, fmt.Errorf("cbq: entry of %d bytes, receive buffer of %d: %w", n, len(out), ErrNoResource)
	}
	q.env.loadPayload(r+entryPrefixSize, out[:n])

	r += entrySpan(int(n))
	if r == uint32(q.size) {
		r = 0
	}
	q.env.setReadOffset(r)
	q.env.setDataCount(count - 1)
	q.Unlock()
	return int(n), nil
}

// Clear drops all queued messages and resets both offsets. The
// enqueued and dropped counters keep their values; they are lifetime
// statistics, not ring state.
func (q *Queue) Clear() error {
	if !State(q.state.Load()).usable() {
		return fmt.Errorf("cbq: clear in state %v: %w", q.State(), ErrInvalidState)
	}
	q.Lock()
	q.env.setReadOffset(0)
	q.env.setWriteOffset(0)
	q.env.setDataCount(0)
	q.Unlock()
	return nil
}

// DataCount returns the number of queued messages without taking the
// lock. The value may be stale by the time the caller acts on it; it
// is exact while the caller holds Lock. Returns 0 when the instance
// has no buffer.
func (q *Queue) DataCount() int {
	if !State(q.state.Load()).usable() {
		return 0
	}
	return int(q.env.dataCount())
}

// FreeSpace returns the payload bytes currently available without
// taking the lock, with the same staleness caveat as DataCount.
func (q *Queue) FreeSpace() int {
	if !State(q.state.Load()).usable() {
		return 0
	}
	return int(freeBytes(uint32(q.size), q.env.writeOffset(), q.env.readOffset(), q.env.dataCount()))
}

// Enqueued returns the lifetime count of accepted entries. Wraps at
// 32 bits.
func (q *Queue) Enqueued() uint32 {
	if !State(q.state.Load()).usable() {
		return 0
	}
	return q.env.enqueued()
}

// Dropped returns the lifetime count of entries rejected for missing
// capacity. Wraps at 32 bits.
func (q *Queue) Dropped() uint32 {
	if !State(q.state.Load()).usable() {
		return 0
	}
	return q.env.dropped()
}
