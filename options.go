// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cbq

import "code.hybscloud.com/cbq/hostif"

// Options configures Registry construction.
type Options struct {
	// CPU side (determines allocation rights and lock identity)
	side Side

	// Shared window handle; absent for local-only deployments
	win *hostif.Window
}

// Builder creates a Registry with fluent configuration.
//
// The Registry is the documented initialisation point of the
// process-wide instance table: build it once per CPU side during
// startup, before any channel is used.
//
// Example:
//
//	// PCP side, owning the shared window
//	w, err := hostif.Create(hostif.DefaultConfig())
//	reg := cbq.New().PCP().Window(w).Build()
//
//	// Host side, attaching to the same window
//	w, err := hostif.Wait(path, time.Second)
//	reg := cbq.New().Host().Window(w).Build()
//
//	// Local-only deployment (no peer CPU)
//	reg := cbq.New().PCP().Build()
type Builder struct {
	opts Options
}

// New creates a Registry builder.
func New() *Builder {
	return &Builder{}
}

// PCP declares the protocol-control processor side. The PCP allocates
// shared buffers and writes the LOCK_PCP identity.
func (b *Builder) PCP() *Builder {
	b.opts.side = SidePCP
	return b
}

// Host declares the application processor side. The host attaches to
// buffers the PCP allocated and writes the LOCK_HOST identity.
func (b *Builder) Host() *Builder {
	b.opts.side = SideHost
	return b
}

// Window supplies the shared window handle for the channels that
// traverse the hardware boundary. Without it, creating a shared
// channel instance fails with ErrNoResource.
func (b *Builder) Window(w *hostif.Window) *Builder {
	b.opts.win = w
	return b
}

// Build creates the Registry.
// Panics if no side was declared.
func (b *Builder) Build() *Registry {
	if b.opts.side != SidePCP && b.opts.side != SideHost {
		panic("cbq: registry side not configured")
	}
	return &Registry{side: b.opts.side, win: b.opts.win}
}
