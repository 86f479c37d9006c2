// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mmio provides width-exact, ordered access to memory shared
// with a peer processor.
//
// Layout contract:
// A Region is little-endian and its base address is 8-byte aligned.
// Sub-word stores merge into the containing 32-bit word by CAS, so
// concurrent writers of neighbouring bytes never clobber each other.
// Bulk copies are plain; callers publish them through a subsequent
// ordered store (release) and observe them after an ordered load
// (acquire).
package mmio

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// Region is a window of memory visible to the peer CPU.
//
// Regions are produced by Map (attaching to an existing shared mapping)
// or Alloc (DMA-visible heap block) and consumed by the accessors below.
// The raw bytes never escape, so a cached view of the same memory cannot
// be mixed in by accident. The zero Region is empty and must not be
// accessed.
type Region struct {
	b []byte
}

// Map wraps an existing shared mapping, typically obtained from mmap.
// The base address must be 8-byte aligned and the slice non-empty.
func Map(b []byte) Region {
	if len(b) == 0 {
		panic("mmio: empty region")
	}
	if uintptr(unsafe.Pointer(&b[0]))&7 != 0 {
		panic("mmio: region base not 8-byte aligned")
	}
	return Region{b: b}
}

// Alloc allocates an n-byte zeroed region on the local heap with the
// alignment Map requires. Used for rings that stay on one CPU and for
// buffers handed to DMA engines.
func Alloc(n int) Region {
	if n <= 0 {
		panic("mmio: non-positive region size")
	}
	words := make([]uint64, (n+7)/8)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), n)
	return Region{b: b}
}

// Size returns the region length in bytes. Zero for the zero Region.
func (r Region) Size() int {
	return len(r.b)
}

// Slice derives a sub-region. off must be 8-byte aligned so the derived
// region keeps the base alignment contract.
func (r Region) Slice(off, n int) Region {
	if off&7 != 0 {
		panic("mmio: slice offset not 8-byte aligned")
	}
	if off < 0 || n <= 0 || off+n > len(r.b) {
		panic("mmio: slice out of range")
	}
	return Region{b: r.b[off : off+n : off+n]}
}

func (r Region) word32(off int) *atomix.Uint32 {
	if off < 0 || off+4 > len(r.b) {
		panic("mmio: offset out of range")
	}
	return (*atomix.Uint32)(unsafe.Pointer(&r.b[off]))
}

func (r Region) word64(off int) *atomix.Uint64 {
	if off < 0 || off+8 > len(r.b) {
		panic("mmio: offset out of range")
	}
	return (*atomix.Uint64)(unsafe.Pointer(&r.b[off]))
}

// Load8 returns the byte at off with acquire ordering.
func (r Region) Load8(off int) uint8 {
	w := r.word32(off &^ 3).LoadAcquire()
	return uint8(w >> ((off & 3) * 8))
}

// Store8 writes the byte at off, merging into the containing word.
func (r Region) Store8(off int, v uint8) {
	w := r.word32(off &^ 3)
	shift := (off & 3) * 8
	mask := uint32(0xFF) << shift
	for {
		old := w.LoadRelaxed()
		if w.CompareAndSwapAcqRel(old, old&^mask|uint32(v)<<shift) {
			return
		}
	}
}

// Load16 returns the 16-bit value at off with acquire ordering.
// off must be 2-byte aligned.
func (r Region) Load16(off int) uint16 {
	if off&1 != 0 {
		panic("mmio: offset not 2-byte aligned")
	}
	w := r.word32(off &^ 3).LoadAcquire()
	return uint16(w >> ((off & 3) * 8))
}

// Store16 writes the 16-bit value at off, merging into the containing
// word. off must be 2-byte aligned.
func (r Region) Store16(off int, v uint16) {
	if off&1 != 0 {
		panic("mmio: offset not 2-byte aligned")
	}
	w := r.word32(off &^ 3)
	shift := (off & 3) * 8
	mask := uint32(0xFFFF) << shift
	for {
		old := w.LoadRelaxed()
		if w.CompareAndSwapAcqRel(old, old&^mask|uint32(v)<<shift) {
			return
		}
	}
}

// Load32 returns the 32-bit value at off with acquire ordering.
// off must be 4-byte aligned.
func (r Region) Load32(off int) uint32 {
	if off&3 != 0 {
		panic("mmio: offset not 4-byte aligned")
	}
	return r.word32(off).LoadAcquire()
}

// Store32 writes the 32-bit value at off with release ordering.
// off must be 4-byte aligned.
func (r Region) Store32(off int, v uint32) {
	if off&3 != 0 {
		panic("mmio: offset not 4-byte aligned")
	}
	r.word32(off).StoreRelease(v)
}

// CompareAndSwap32 atomically replaces the 32-bit value at off with new
// if it equals old, with acquire-release ordering. off must be 4-byte
// aligned.
func (r Region) CompareAndSwap32(off int, old, new uint32) bool {
	if off&3 != 0 {
		panic("mmio: offset not 4-byte aligned")
	}
	return r.word32(off).CompareAndSwapAcqRel(old, new)
}

// Load64 returns the 64-bit value at off with acquire ordering.
// off must be 8-byte aligned.
func (r Region) Load64(off int) uint64 {
	if off&7 != 0 {
		panic("mmio: offset not 8-byte aligned")
	}
	return r.word64(off).LoadAcquire()
}

// Store64 writes the 64-bit value at off with release ordering.
// off must be 8-byte aligned.
func (r Region) Store64(off int, v uint64) {
	if off&7 != 0 {
		panic("mmio: offset not 8-byte aligned")
	}
	r.word64(off).StoreRelease(v)
}

// LoadBytes copies len(p) bytes starting at off into p. Plain copy;
// pair with an ordered load that observed the peer's publication.
func (r Region) LoadBytes(off int, p []byte) {
	if off < 0 || off+len(p) > len(r.b) {
		panic("mmio: offset out of range")
	}
	copy(p, r.b[off:off+len(p)])
}

// StoreBytes copies p into the region starting at off. Plain copy;
// publish with a subsequent ordered store.
func (r Region) StoreBytes(off int, p []byte) {
	if off < 0 || off+len(p) > len(r.b) {
		panic("mmio: offset out of range")
	}
	copy(r.b[off:off+len(p)], p)
}
