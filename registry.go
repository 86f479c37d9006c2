// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cbq

import (
	"fmt"

	"code.hybscloud.com/cbq/hostif"
	"code.hybscloud.com/cbq/internal/irq"
)

// ID names one logical channel between the two CPUs. The enumeration
// is closed; every ID maps statically to either a shared-window slot
// or to local memory.
type ID uint8

const (
	// UserToKernel carries events from the host application layer to
	// the PCP kernel layer.
	UserToKernel ID = iota
	// KernelToUser carries events from the PCP kernel layer to the
	// host application layer.
	KernelToUser
	// KernelInternal carries events within the PCP kernel layer.
	KernelInternal
	// UserInternal carries events within the host application layer.
	UserInternal
	// TxGeneric queues generic transmit requests for the data link
	// layer.
	TxGeneric
	// TxNmt queues network-management transmit requests.
	TxNmt
	// TxSync queues synchronous transmit requests.
	TxSync
	// MNRequestNmt queues NMT requests of the asynchronous scheduler.
	MNRequestNmt
	// MNRequestGeneric queues generic requests of the asynchronous
	// scheduler.
	MNRequestGeneric
	// MNRequestIdent queues ident requests of the asynchronous
	// scheduler.
	MNRequestIdent
	// MNRequestStatus queues status requests of the asynchronous
	// scheduler.
	MNRequestStatus

	queueCount
)

// queueSlots is the placement policy: each ID maps to the hostif slot
// it traverses, or to the empty token for a queue that stays on the
// local CPU. This table is the single point deciding which channels
// cross the hardware boundary.
var queueSlots = [queueCount]string{
	UserToKernel:     hostif.SlotUserToKernel,
	KernelToUser:     hostif.SlotKernelToUser,
	KernelInternal:   "",
	UserInternal:     "",
	TxGeneric:        hostif.SlotTxGeneric,
	TxNmt:            hostif.SlotTxNmt,
	TxSync:           hostif.SlotTxSync,
	MNRequestNmt:     "",
	MNRequestGeneric: "",
	MNRequestIdent:   "",
	MNRequestStatus:  "",
}

var queueNames = [queueCount]string{
	UserToKernel:     "user-to-kernel",
	KernelToUser:     "kernel-to-user",
	KernelInternal:   "kernel-internal",
	UserInternal:     "user-internal",
	TxGeneric:        "tx-generic",
	TxNmt:            "tx-nmt",
	TxSync:           "tx-sync",
	MNRequestNmt:     "mn-request-nmt",
	MNRequestGeneric: "mn-request-generic",
	MNRequestIdent:   "mn-request-ident",
	MNRequestStatus:  "mn-request-status",
}

// String returns the channel name.
func (id ID) String() string {
	if id >= queueCount {
		return fmt.Sprintf("id(%d)", uint8(id))
	}
	return queueNames[id]
}

// Shared reports whether the channel traverses the shared window.
func (id ID) Shared() bool {
	return id < queueCount && queueSlots[id] != ""
}

// QueueIDs returns all channel IDs in table order.
func QueueIDs() []ID {
	ids := make([]ID, queueCount)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}

// Registry is the process-wide table of queue instances for one CPU
// side. Construct exactly one per side with the [Builder]; its
// embedded instance table is fixed for the Registry's lifetime, which
// mirrors the static identity of channels in the embedded setting.
//
// Instances are handed out by CreateInstance and stay owned by the
// Registry. The Registry also owns the CPU-local interrupt gate every
// instance locks through.
type Registry struct {
	side      Side
	win       *hostif.Window
	gate      irq.Gate
	_         pad
	instances [queueCount]Queue
}

// Side returns the CPU side this Registry was built for.
func (r *Registry) Side() Side {
	return r.side
}

// Window returns the shared window handle, or nil for a local-only
// deployment.
func (r *Registry) Window() *hostif.Window {
	return r.win
}

// CreateInstance hands out the instance slot for id and wires its
// placement. Shared IDs require the Registry's window handle; its
// absence returns ErrNoResource, and the instance stays untouched.
// An instance is created once; re-creation is only permitted after
// FreeBuffer or DisconnectBuffer.
//
// Panics if id is outside the channel enumeration.
func (r *Registry) CreateInstance(id ID) (*Queue, error) {
	if id >= queueCount {
		panic("cbq: queue id out of range")
	}
	q := &r.instances[id]
	if st := State(q.state.Load()); st != stateNone && st != StateDestroyed {
		return nil, fmt.Errorf("cbq: queue %v already created: %w", id, ErrInvalidState)
	}
	slot := queueSlots[id]
	if slot != "" && r.win == nil {
		return nil, fmt.Errorf("cbq: queue %v needs a shared window: %w", id, ErrNoResource)
	}
	q.id = id
	q.side = r.side
	q.slot = slot
	q.gate = &r.gate
	q.identity = r.side.lockValue()
	if slot != "" {
		q.win = r.win
	} else {
		q.win = nil
	}
	q.env = envelope{}
	q.size = 0
	q.state.Store(int32(StateCreated))
	return q, nil
}
