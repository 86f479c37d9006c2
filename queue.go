// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cbq

import (
	"fmt"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/cbq/hostif"
	"code.hybscloud.com/cbq/internal/irq"
	"code.hybscloud.com/cbq/internal/mmio"
)

// Queue is one channel endpoint on the local CPU.
//
// A shared queue has exactly two parties: the PCP endpoint and the
// host endpoint, one producing and one consuming. Which side produces
// is a property of the channel, not of this type; both endpoints may
// call any data operation and the envelope lock serializes them.
// A local-only queue is shared between the execution contexts of a
// single CPU and is serialized by the interrupt gate alone.
//
// Instances are obtained from [Registry.CreateInstance] and remain
// owned by the Registry. The zero Queue is unusable.
type Queue struct {
	id       ID
	side     Side
	slot     string
	win      *hostif.Window
	gate     *irq.Gate
	identity uint32

	state  atomix.Int32
	env    envelope
	size   int
	irqTok irq.Token
}

// ID returns the channel ID.
func (q *Queue) ID() ID {
	return q.id
}

// Side returns the CPU side of this endpoint.
func (q *Queue) Side() Side {
	return q.side
}

// Shared reports whether the queue traverses the shared window.
func (q *Queue) Shared() bool {
	return q.slot != ""
}

// Slot returns the window slot token of a shared queue, "" for
// local-only queues.
func (q *Queue) Slot() string {
	return q.slot
}

// State returns the current lifecycle state.
func (q *Queue) State() State {
	return State(q.state.Load())
}

// PayloadSize returns the ring capacity in bytes, or 0 before the
// instance is Ready or Attached.
func (q *Queue) PayloadSize() int {
	return q.size
}

// AllocBuffer allocates and initialises the ring.
//
// Local-only queues allocate header+size bytes on the local heap; the
// effective capacity is the requested size rounded down to the entry
// alignment. Shared queues take their memory from the window slot: the
// request must not exceed the slot capacity, and the effective
// capacity is the request minus the envelope overhead. The envelope is
// initialised with the lock word written UNLOCK as the final, publishing
// store, after which the peer may attach. Only the PCP side allocates
// shared buffers.
//
// Returns the effective payload capacity. The instance must be in
// Created state and becomes Ready.
func (q *Queue) AllocBuffer(size int) (int, error) {
	if State(q.state.Load()) != StateCreated {
		return 0, fmt.Errorf("cbq: alloc in state %v: %w", q.State(), ErrInvalidState)
	}
	if q.Shared() && q.side != SidePCP {
		return 0, fmt.Errorf("cbq: only the pcp side allocates shared buffers: %w", ErrInvalidState)
	}
	if size <= 0 {
		return 0, fmt.Errorf("cbq: alloc of %d bytes: %w", size, ErrNoResource)
	}

	if !q.Shared() {
		eff := size &^ (entryAlign - 1)
		if eff == 0 {
			return 0, fmt.Errorf("cbq: alloc of %d bytes: %w", size, ErrNoResource)
		}
		q.env = localEnvelope(mmio.Alloc(hdrSize + eff))
		q.env.initHeader(uint32(eff))
		q.size = eff
		q.state.Store(int32(StateReady))
		return eff, nil
	}

	reg, capacity, err := q.win.Buf(q.slot)
	if err != nil {
		return 0, fmt.Errorf("cbq: queue %v slot lookup: %w", q.id, ErrNoResource)
	}
	if size > capacity {
		return 0, fmt.Errorf("cbq: queue %v wants %d bytes, slot provides %d: %w",
			q.id, size, capacity, ErrNoResource)
	}
	eff := (size - envOverhead) &^ (entryAlign - 1)
	if size <= envOverhead || eff == 0 {
		return 0, fmt.Errorf("cbq: queue %v request %d below envelope overhead: %w",
			q.id, size, ErrNoResource)
	}
	q.env = sharedEnvelope(reg)
	q.env.initHeader(uint32(eff))
	reg.Store32(lockOff, lockUnlocked)
	q.size = eff
	q.state.Store(int32(StateReady))
	return eff, nil
}

// ConnectBuffer attaches to a ring the PCP has already allocated in
// the shared window. The slot base and capacity are re-read from the
// window; the lock byte and header contents are left untouched, so a
// connect can happen at any time, including re-attach after a host
// restart. Local-only queues have nothing to connect to and return nil
// unchanged.
//
// The instance must be in Created or Attached state and becomes
// Attached.
func (q *Queue) ConnectBuffer() error {
	if !q.Shared() {
		return nil
	}
	if st := State(q.state.Load()); st != StateCreated && st != StateAttached {
		return fmt.Errorf("cbq: connect in state %v: %w", st, ErrInvalidState)
	}
	reg, capacity, err := q.win.Buf(q.slot)
	if err != nil {
		return fmt.Errorf("cbq: queue %v slot lookup: %w", q.id, ErrNoResource)
	}
	env := sharedEnvelope(reg)
	size := int(env.bufferSize())
	if size+envOverhead > capacity {
		return fmt.Errorf("cbq: queue %v ring of %d bytes exceeds slot of %d: %w",
			q.id, size, capacity, ErrNoResource)
	}
	q.env = env
	q.size = size
	q.state.Store(int32(StateAttached))
	return nil
}

// FreeBuffer releases the ring. Local-only queues drop their heap
// block; shared buffers stay in the window, which outlives any single
// endpoint. FreeBuffer is idempotent: repeated calls, or calls on an
// instance that never allocated, change nothing.
func (q *Queue) FreeBuffer() {
	if State(q.state.Load()) == StateDestroyed {
		return
	}
	if !q.Shared() {
		q.env = envelope{}
		q.size = 0
	}
	q.state.Store(int32(StateDestroyed))
}

// DisconnectBuffer detaches from a shared ring without touching it.
// The counterpart of ConnectBuffer; the buffer remains live for other
// endpoints and future re-attach.
func (q *Queue) DisconnectBuffer() {
	if State(q.state.Load()) == StateDestroyed {
		return
	}
	q.state.Store(int32(StateDestroyed))
}
