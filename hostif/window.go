// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hostif maps the shared memory window that carries the queue
// rings between the protocol-control processor and the host.
//
// The window is one mmap-ed file. A fixed header carries a magic
// word, the layout version and a slot directory; each directory entry
// binds a short token to a 64-byte-aligned slot holding one ring
// envelope. The creating side writes the directory first and
// publishes the magic word last, so an attaching host never observes
// a half-written header: it polls for the magic and then trusts the
// directory. Slot placement is decided once at creation and both
// sides resolve a token to the same bytes for the lifetime of the
// window.
package hostif

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"code.hybscloud.com/iox"

	"code.hybscloud.com/cbq/internal/mmio"
)

// Tokens of the shared slots. The set is closed: slots exist for the
// channels that cross the CPU boundary and for nothing else.
const (
	SlotUserToKernel = "u2k"
	SlotKernelToUser = "k2u"
	SlotTxGeneric    = "txgen"
	SlotTxNmt        = "txnmt"
	SlotTxSync       = "txsync"
)

const (
	// windowMagic is "CBQWIN1\x00" read as a little-endian word.
	windowMagic   uint64 = 0x00314e4957514243
	windowVersion        = 1

	hdrMagicOff   = 0
	hdrVersionOff = 8
	hdrSizeOff    = 12
	hdrCountOff   = 16
	dirOff        = 24
	dirEntrySize  = 16
	tokenSize     = 8
	slotAlign     = 64
	maxSlots      = 64
)

var (
	// ErrBadWindow reports a backing file that is not, or not yet, a
	// valid window: wrong magic, wrong version, or a directory that
	// does not fit the file.
	ErrBadWindow = errors.New("hostif: bad window")

	// ErrNoSlot reports a slot token absent from the window directory.
	ErrNoSlot = errors.New("hostif: no such slot")
)

// Slot locates one ring buffer inside a window.
type Slot struct {
	Token    string
	Offset   int
	Capacity int
}

// Window is one mapped shared memory window. The zero value is not
// usable; obtain a Window from Create, Open or Wait.
type Window struct {
	f     *os.File
	mem   []byte
	reg   mmio.Region
	path  string
	slots []Slot
	owner bool
}

// Create builds a new window from the configuration, laying out one
// slot per configured capacity. A stale backing file left by a dead
// owner is removed and replaced. The caller owns the window and its
// Close removes the backing file.
func Create(cfg Config) (*Window, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}

	slots, total := layoutSlots(cfg)

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if os.IsExist(err) {
		log.Warnf("hostif: removing stale window %s", cfg.Path)
		if rerr := os.Remove(cfg.Path); rerr != nil {
			return nil, fmt.Errorf("hostif: remove stale window: %w", rerr)
		}
		f, err = os.OpenFile(cfg.Path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	}
	if err != nil {
		return nil, fmt.Errorf("hostif: create window %s: %w", cfg.Path, err)
	}

	cleanup := func() {
		f.Close()
		os.Remove(cfg.Path)
	}

	if err = f.Truncate(int64(total)); err != nil {
		cleanup()
		return nil, fmt.Errorf("hostif: resize window to %d bytes: %w", total, err)
	}
	mem, err := mmapFile(f, total)
	if err != nil {
		cleanup()
		return nil, err
	}

	w := &Window{f: f, mem: mem, reg: mmio.Map(mem), path: cfg.Path, slots: slots, owner: true}

	// The fresh file reads as zeros. Fill the directory first and
	// publish the magic word last.
	w.reg.Store32(hdrVersionOff, windowVersion)
	w.reg.Store32(hdrSizeOff, uint32(total))
	w.reg.Store32(hdrCountOff, uint32(len(slots)))
	for i, s := range slots {
		off := dirOff + i*dirEntrySize
		var token [tokenSize]byte
		copy(token[:], s.Token)
		w.reg.StoreBytes(off, token[:])
		w.reg.Store32(off+8, uint32(s.Offset))
		w.reg.Store32(off+12, uint32(s.Capacity))
	}
	w.reg.Store64(hdrMagicOff, windowMagic)

	log.Debugf("hostif: created window %s: %d bytes, %d slots", cfg.Path, total, len(slots))
	return w, nil
}

// Open attaches to an existing window and validates its header. The
// underlying error is ErrBadWindow when the file exists but does not
// hold a published window yet.
func Open(path string) (*Window, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("hostif: stat window %s: %w", path, err)
	}
	size := int(info.Size())
	if size < dirOff {
		f.Close()
		return nil, fmt.Errorf("hostif: window %s is %d bytes: %w", path, size, ErrBadWindow)
	}
	mem, err := mmapFile(f, size)
	if err != nil {
		f.Close()
		return nil, err
	}

	w := &Window{f: f, mem: mem, reg: mmio.Map(mem), path: path}
	if err = w.validate(); err != nil {
		munmapMem(mem)
		f.Close()
		return nil, err
	}

	log.Debugf("hostif: opened window %s: %d bytes, %d slots", path, size, len(w.slots))
	return w, nil
}

// Wait polls Open until the owner has published the window or the
// timeout elapses. A missing file and an unpublished window are both
// retried; any other error fails immediately.
func Wait(path string, timeout time.Duration) (*Window, error) {
	backoff := iox.Backoff{}
	deadline := time.Now().Add(timeout)
	for {
		w, err := Open(path)
		if err == nil {
			return w, nil
		}
		if !os.IsNotExist(err) && !errors.Is(err, ErrBadWindow) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("hostif: window not ready after %v: %w", timeout, err)
		}
		backoff.Wait()
	}
}

func layoutSlots(cfg Config) ([]Slot, int) {
	slots := make([]Slot, 0, len(cfg.Capacity))
	off := dirOff + len(cfg.Capacity)*dirEntrySize
	off = (off + slotAlign - 1) &^ (slotAlign - 1)
	for _, token := range slotOrder {
		capacity, ok := cfg.Capacity[token]
		if !ok {
			continue
		}
		slots = append(slots, Slot{Token: token, Offset: off, Capacity: capacity})
		off += capacity
	}
	return slots, off
}

func (w *Window) validate() error {
	if magic := w.reg.Load64(hdrMagicOff); magic != windowMagic {
		return fmt.Errorf("hostif: window %s has magic %#016x: %w", w.path, magic, ErrBadWindow)
	}
	if v := w.reg.Load32(hdrVersionOff); v != windowVersion {
		return fmt.Errorf("hostif: window %s has version %d, want %d: %w", w.path, v, windowVersion, ErrBadWindow)
	}
	if total := int(w.reg.Load32(hdrSizeOff)); total != len(w.mem) {
		return fmt.Errorf("hostif: window %s header claims %d bytes, file has %d: %w", w.path, total, len(w.mem), ErrBadWindow)
	}
	count := int(w.reg.Load32(hdrCountOff))
	if count == 0 || count > maxSlots {
		return fmt.Errorf("hostif: window %s has %d slots: %w", w.path, count, ErrBadWindow)
	}
	if dirOff+count*dirEntrySize > len(w.mem) {
		return fmt.Errorf("hostif: window %s directory exceeds file: %w", w.path, ErrBadWindow)
	}

	slots := make([]Slot, 0, count)
	for i := 0; i < count; i++ {
		off := dirOff + i*dirEntrySize
		var token [tokenSize]byte
		w.reg.LoadBytes(off, token[:])
		name := string(bytes.TrimRight(token[:], "\x00"))
		slotOff := int(w.reg.Load32(off + 8))
		slotCap := int(w.reg.Load32(off + 12))
		if name == "" || slotOff%slotAlign != 0 || slotCap <= 0 || slotOff+slotCap > len(w.mem) {
			return fmt.Errorf("hostif: window %s slot %d (%q) is out of range: %w", w.path, i, name, ErrBadWindow)
		}
		slots = append(slots, Slot{Token: name, Offset: slotOff, Capacity: slotCap})
	}
	w.slots = slots
	return nil
}

// Buf resolves a slot token to its mapped bytes and capacity.
func (w *Window) Buf(token string) (mmio.Region, int, error) {
	for _, s := range w.slots {
		if s.Token == token {
			return w.reg.Slice(s.Offset, s.Capacity), s.Capacity, nil
		}
	}
	return mmio.Region{}, 0, fmt.Errorf("hostif: window %s has no slot %q: %w", w.path, token, ErrNoSlot)
}

// Slots returns a copy of the window directory in layout order.
func (w *Window) Slots() []Slot {
	out := make([]Slot, len(w.slots))
	copy(out, w.slots)
	return out
}

// Path returns the backing file path.
func (w *Window) Path() string { return w.path }

// Size returns the mapped window size in bytes.
func (w *Window) Size() int { return len(w.mem) }

// Close unmaps the window. The owning side also removes the backing
// file. Close is idempotent; rings resolved from the window must not
// be used afterwards.
func (w *Window) Close() error {
	if w.mem == nil {
		return nil
	}
	err := munmapMem(w.mem)
	w.mem = nil
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if w.owner {
		if rerr := os.Remove(w.path); err == nil && rerr != nil && !os.IsNotExist(rerr) {
			err = rerr
		}
	}
	log.Debugf("hostif: closed window %s", w.path)
	return err
}
