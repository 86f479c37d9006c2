// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cbq

import (
	"code.hybscloud.com/spin"
)

// Lock byte values of the shared envelope. Each side only ever writes
// UNLOCK and its own identity; observing the peer's identity means the
// peer holds the buffer. A plain test-and-set of a single value would
// lose the information of who won when both sides claim an unlocked
// byte, which is why the identities must stay distinct.
const (
	lockUnlocked uint32 = 0
	lockPCP      uint32 = 1
	lockHost     uint32 = 2
)

// Lock enters the queue's critical section: interrupts of the local
// CPU go off first, then for shared queues the envelope lock is
// claimed by swapping UNLOCK for this side's identity. The swap is the
// write and the read-back confirmation in one indivisible step, so
// when both CPUs observe UNLOCK simultaneously exactly one claim
// survives and the loser spins. Local-only queues are fully serialized
// by the interrupt gate and skip the envelope lock.
//
// Wait time is bounded by the peer's critical section, a bounded copy
// plus constant header updates. Queue operations take the lock
// themselves; Lock is for callers grouping several snapshot reads.
// Nested queue operations under a held Lock deadlock.
//
// Lock panics when the instance is not Ready or Attached.
func (q *Queue) Lock() {
	if !State(q.state.Load()).usable() {
		panic("cbq: lock on queue without a buffer")
	}
	q.irqTok = q.gate.Disable()
	if !q.env.shared {
		return
	}
	sw := spin.Wait{}
	for !q.env.reg.CompareAndSwap32(lockOff, lockUnlocked, q.identity) {
		sw.Once()
	}
}

// Unlock leaves the critical section: the envelope lock returns to
// UNLOCK first, then the interrupt state prior to Lock is restored.
func (q *Queue) Unlock() {
	if q.env.shared {
		q.env.reg.Store32(lockOff, lockUnlocked)
	}
	q.irqTok.Restore()
}
