// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cbq

// Side identifies which CPU a Registry runs on. The protocol-control
// processor owns buffer allocation; the host attaches to buffers the
// PCP has allocated. The side also selects the lock identity written
// into shared lock bytes, so the two CPUs can never impersonate each
// other.
type Side uint8

const (
	// SidePCP is the protocol-control processor, the allocating side.
	SidePCP Side = 1 + iota
	// SideHost is the application processor, the attaching side.
	SideHost
)

// String returns the side name.
func (s Side) String() string {
	switch s {
	case SidePCP:
		return "pcp"
	case SideHost:
		return "host"
	default:
		return "unknown"
	}
}

// lockValue returns the lock identity this side writes when acquiring
// a shared buffer lock.
func (s Side) lockValue() uint32 {
	if s == SidePCP {
		return lockPCP
	}
	return lockHost
}

// State is the lifecycle state of a queue instance.
//
// Instances move Created→Ready through AllocBuffer on the PCP side, or
// Created→Attached through ConnectBuffer on the host side. Data
// operations require Ready or Attached. FreeBuffer and DisconnectBuffer
// end in Destroyed, from which the instance may be created again.
type State int32

const (
	stateNone State = iota
	// StateCreated means the instance exists but has no buffer yet.
	StateCreated
	// StateReady means the buffer was allocated by this side.
	StateReady
	// StateAttached means this side connected to an existing buffer.
	StateAttached
	// StateDestroyed means the buffer was freed or disconnected.
	StateDestroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case stateNone:
		return "uninitialized"
	case StateCreated:
		return "created"
	case StateReady:
		return "ready"
	case StateAttached:
		return "attached"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// usable reports whether data operations are permitted in s.
func (s State) usable() bool {
	return s == StateReady || s == StateAttached
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
