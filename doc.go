// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cbq provides single-producer single-consumer circular
// message queues in memory shared between two processors.
//
// The package targets the two-CPU split of an industrial-Ethernet
// stack: a protocol-control processor (PCP) and a host processor
// exchange events, frames and control requests through a shared
// memory window. Each logical channel is one bounded FIFO ring inside
// that window, guarded by a one-byte lock with per-CPU identities.
// Channels that never cross the CPU boundary run the same ring over
// local memory, serialized by the interrupt gate alone.
//
// # Quick Start
//
// The PCP side creates the window, allocates rings and produces or
// consumes on them:
//
//	w, err := hostif.Create(hostif.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	reg := cbq.New().PCP().Window(w).Build()
//
//	q, err := reg.CreateInstance(cbq.KernelToUser)
//	if err != nil {
//	    return err
//	}
//	if _, err = q.AllocBuffer(4096); err != nil {
//	    return err
//	}
//	err = q.WriteEntry(event)
//
// The host side attaches to the same window and connects to rings the
// PCP has allocated:
//
//	w, err := hostif.Wait(path, time.Second)
//	if err != nil {
//	    return err
//	}
//	reg := cbq.New().Host().Window(w).Build()
//
//	q, err := reg.CreateInstance(cbq.KernelToUser)
//	if err != nil {
//	    return err
//	}
//	if err = q.ConnectBuffer(); err != nil {
//	    return err
//	}
//	buf := make([]byte, 2048)
//	n, err := q.ReadEntry(buf)
//
// # Channels
//
// The channel set is a closed enumeration; the placement of each
// channel is compile-time policy:
//
//	UserToKernel      shared    host → PCP events
//	KernelToUser      shared    PCP → host events
//	KernelInternal    local     PCP-internal events
//	UserInternal      local     host-internal events
//	TxGeneric         shared    generic transmit requests
//	TxNmt             shared    network-management transmit requests
//	TxSync            shared    synchronous transmit requests
//	MNRequestNmt      local     async scheduler, NMT requests
//	MNRequestGeneric  local     async scheduler, generic requests
//	MNRequestIdent    local     async scheduler, ident requests
//	MNRequestStatus   local     async scheduler, status requests
//
// # Envelope Layout
//
// Both CPUs dereference the shared slots, so the layout is bit-exact
// and little-endian:
//
//	offset 0   lock byte (0 unlocked, 1 PCP, 2 host)
//	offset 1   3 reserved zero bytes
//	offset 4   bufferSize, readOffset, writeOffset, dataCount,
//	           enqueued, dropped (uint32 each)
//	offset 28  payload ring
//
// Ring entries carry a 16-bit length prefix and are padded to 4-byte
// alignment. An entry never straddles the ring end: a zero prefix is
// the wrap marker telling the reader to resume at offset 0.
//
// # Locking
//
// Every mutating operation masks local interrupts and, for shared
// rings, claims the envelope lock by swapping UNLOCK for the side's
// own identity. The two identities are a correctness device: when both
// CPUs race for an unlocked buffer, exactly one side's claim survives
// and the read-back of a foreign identity sends the loser back to
// spinning. Release stores UNLOCK and restores the interrupt state.
//
// Critical sections are bounded by one entry copy plus constant header
// updates. There is no blocking wait: callers poll, back off, or are
// driven by interrupts. Nested queue operations inside a critical
// section deadlock and are a programming error.
//
// # Error Handling
//
// Operations return errors as values, never panic on data-path
// conditions:
//
//	cbq.ErrEmpty        read on an empty ring (alias of iox.ErrWouldBlock)
//	cbq.ErrNoResource   no window, no capacity, or receive buffer too small
//	cbq.ErrInvalidState operation in a lifecycle state that forbids it
//
// ErrEmpty is sourced from [code.hybscloud.com/iox] for ecosystem
// consistency; retry loops compose with iox.Backoff:
//
//	backoff := iox.Backoff{}
//	for {
//	    n, err := q.ReadEntry(buf)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if !cbq.IsWouldBlock(err) {
//	        return err
//	    }
//	    backoff.Wait()
//	}
//
// Back-pressure is visible without logging: every rejected entry
// advances the dropped counter, every accepted one the enqueued
// counter.
//
// # Observers
//
// DataCount and FreeSpace read the header without the lock and may be
// slightly stale, which is fit for emptiness polling from interrupt
// context. Producers publish payload bytes before advancing offsets
// and the message count, so observers never see a half-published
// entry.
//
// # Race Detection
//
// The lock protocol is built on atomix operations, which the race
// detector sees as plain memory accesses, so concurrent tests report
// false positives under -race. Such tests skip themselves when
// RaceEnabled is set; single-goroutine tests run either way.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause
// instructions. The shared window is provided by
// [code.hybscloud.com/cbq/hostif].
package cbq
