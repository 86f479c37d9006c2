// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cbq

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrEmpty indicates a read on an empty queue.
//
// ErrEmpty is a control flow signal, not a failure: the peer simply has
// not produced yet. The caller should retry later (with backoff or
// driven by an interrupt) rather than propagating the error.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
//
// Example:
//
//	backoff := iox.Backoff{}
//	for {
//	    n, err := q.ReadEntry(buf)
//	    if err == nil {
//	        backoff.Reset()
//	        handle(buf[:n])
//	        continue
//	    }
//	    if cbq.IsWouldBlock(err) {
//	        backoff.Wait()  // Empty - peer not ready
//	        continue
//	    }
//	    return err  // Unexpected error
//	}
var ErrEmpty = iox.ErrWouldBlock

// ErrNoResource indicates an allocation or capacity failure: the shared
// window is absent or too small, the ring has insufficient free bytes
// for the entry (the entry is dropped and counted), or the caller's
// output buffer cannot receive the pending entry (the entry stays).
//
// Unlike [ErrEmpty], retrying without freeing resources does not help.
var ErrNoResource = errors.New("cbq: no resource")

// ErrInvalidState indicates an operation on an instance whose lifecycle
// state does not permit it, such as writing before AllocBuffer or after
// FreeBuffer. This is a programming error.
var ErrInvalidState = errors.New("cbq: invalid state")

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil or ErrEmpty. Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
