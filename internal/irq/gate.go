// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package irq models the CPU-local interrupt mask as a scoped gate.
//
// A CPU that has masked interrupts cannot be preempted by its own
// handlers, so a nested disable can only be issued by code already
// running under the gate. The Token type carries that proof: the first
// Disable acquires the gate, further disables go through the token,
// and restoring a token re-establishes exactly the level it saw.
package irq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Gate is the interrupt-enable state of one CPU. The zero value is an
// open gate (interrupts enabled).
type Gate struct {
	depth atomix.Int32
}

// Token records the gate level prior to a Disable. Restoring the
// outermost token is the effective re-enable.
type Token struct {
	g     *Gate
	level int32
}

// Disable masks the gate and returns the restore token. Spins while
// another execution context holds the gate.
func (g *Gate) Disable() Token {
	sw := spin.Wait{}
	for !g.depth.CompareAndSwapAcqRel(0, 1) {
		sw.Once()
	}
	return Token{g: g, level: 0}
}

// Disable nests under an already-held gate. Only the holder can reach
// this (interrupts are off), so no acquisition is needed.
func (t Token) Disable() Token {
	if t.g == nil {
		panic("irq: disable through zero token")
	}
	d := t.g.depth.Add(1)
	return Token{g: t.g, level: d - 1}
}

// Restore re-establishes the gate level recorded in the token. The
// outermost restore (level 0) releases the gate.
func (t Token) Restore() {
	if t.g == nil {
		panic("irq: restore of zero token")
	}
	t.g.depth.StoreRelease(t.level)
}

// Enabled reports whether the gate is currently open. Snapshot only;
// the state may change immediately after.
func (g *Gate) Enabled() bool {
	return g.depth.Load() == 0
}
