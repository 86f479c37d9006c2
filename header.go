// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cbq

import (
	"code.hybscloud.com/cbq/internal/mmio"
)

// Envelope layout inside a shared-window slot. The first word holds the
// lock byte and three reserved zero bytes, then the ring header, then
// the payload ring. Both CPUs dereference this layout, so it is
// bit-exact and little-endian. Local-only rings use the same header and
// payload layout without the lock word.
const (
	lockOff = 0

	hdrOffShared = 4
	hdrOffLocal  = 0
	hdrSize      = 24

	// envOverhead is the shared-slot overhead in front of the payload.
	envOverhead = hdrOffShared + hdrSize

	fldBufferSize  = 0
	fldReadOffset  = 4
	fldWriteOffset = 8
	fldDataCount   = 12
	fldEnqueued    = 16
	fldDropped     = 20
)

// Ring entry framing: a 16-bit length prefix, payload immediately
// after, span rounded up to the entry alignment. A zero prefix is the
// wrap marker telling the reader to resume at offset 0, so zero-length
// payloads are never stored.
const (
	entryPrefixSize = 2
	entryAlign      = 4
	wrapMarker      = uint16(0)
	maxEntryLen     = int(^uint16(0))
)

// entrySpan returns the ring bytes an n-byte payload occupies.
func entrySpan(n int) uint32 {
	return uint32(entryPrefixSize+n+entryAlign-1) &^ uint32(entryAlign-1)
}

// envelope binds a region with the header and payload base offsets.
// The region covers the whole envelope, so the enclosing slot is always
// recoverable from the instance without offset arithmetic.
type envelope struct {
	reg    mmio.Region
	hdrOff int
	payOff int
	shared bool
}

func sharedEnvelope(reg mmio.Region) envelope {
	return envelope{reg: reg, hdrOff: hdrOffShared, payOff: envOverhead, shared: true}
}

func localEnvelope(reg mmio.Region) envelope {
	return envelope{reg: reg, hdrOff: hdrOffLocal, payOff: hdrSize}
}

func (e *envelope) bufferSize() uint32  { return e.reg.Load32(e.hdrOff + fldBufferSize) }
func (e *envelope) readOffset() uint32  { return e.reg.Load32(e.hdrOff + fldReadOffset) }
func (e *envelope) writeOffset() uint32 { return e.reg.Load32(e.hdrOff + fldWriteOffset) }
func (e *envelope) dataCount() uint32   { return e.reg.Load32(e.hdrOff + fldDataCount) }
func (e *envelope) enqueued() uint32    { return e.reg.Load32(e.hdrOff + fldEnqueued) }
func (e *envelope) dropped() uint32     { return e.reg.Load32(e.hdrOff + fldDropped) }

func (e *envelope) setReadOffset(v uint32)  { e.reg.Store32(e.hdrOff+fldReadOffset, v) }
func (e *envelope) setWriteOffset(v uint32) { e.reg.Store32(e.hdrOff+fldWriteOffset, v) }
func (e *envelope) setDataCount(v uint32)   { e.reg.Store32(e.hdrOff+fldDataCount, v) }
func (e *envelope) setEnqueued(v uint32)    { e.reg.Store32(e.hdrOff+fldEnqueued, v) }
func (e *envelope) setDropped(v uint32)     { e.reg.Store32(e.hdrOff+fldDropped, v) }

// initHeader establishes a fresh ring of the given payload capacity.
// Offsets, count and counters start at zero. For shared slots the lock
// word is written afterwards by the allocator, as the publishing store.
func (e *envelope) initHeader(size uint32) {
	e.reg.Store32(e.hdrOff+fldBufferSize, size)
	e.reg.Store32(e.hdrOff+fldReadOffset, 0)
	e.reg.Store32(e.hdrOff+fldWriteOffset, 0)
	e.reg.Store32(e.hdrOff+fldDataCount, 0)
	e.reg.Store32(e.hdrOff+fldEnqueued, 0)
	e.reg.Store32(e.hdrOff+fldDropped, 0)
}

func (e *envelope) loadPrefix(off uint32) uint16 {
	return e.reg.Load16(e.payOff + int(off))
}

func (e *envelope) storePrefix(off uint32, v uint16) {
	e.reg.Store16(e.payOff+int(off), v)
}

func (e *envelope) loadPayload(off uint32, p []byte) {
	e.reg.LoadBytes(e.payOff+int(off), p)
}

func (e *envelope) storePayload(off uint32, p []byte) {
	e.reg.StoreBytes(e.payOff+int(off), p)
}

// freeBytes computes the payload bytes available for new entries.
// Equal offsets are ambiguous on their own; dataCount disambiguates
// the empty and full cases.
func freeBytes(size, w, r, count uint32) uint32 {
	switch {
	case count == 0:
		return size
	case w == r:
		return 0
	case w > r:
		return size - (w - r)
	default:
		return r - w
	}
}
