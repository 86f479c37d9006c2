// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cbq_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/cbq"
)

// =============================================================================
// Channel Table
// =============================================================================

// TestChannelPlacement pins down which channels traverse the shared
// window and the names they report.
func TestChannelPlacement(t *testing.T) {
	tests := []struct {
		id     cbq.ID
		name   string
		shared bool
	}{
		{cbq.UserToKernel, "user-to-kernel", true},
		{cbq.KernelToUser, "kernel-to-user", true},
		{cbq.KernelInternal, "kernel-internal", false},
		{cbq.UserInternal, "user-internal", false},
		{cbq.TxGeneric, "tx-generic", true},
		{cbq.TxNmt, "tx-nmt", true},
		{cbq.TxSync, "tx-sync", true},
		{cbq.MNRequestNmt, "mn-request-nmt", false},
		{cbq.MNRequestGeneric, "mn-request-generic", false},
		{cbq.MNRequestIdent, "mn-request-ident", false},
		{cbq.MNRequestStatus, "mn-request-status", false},
	}

	ids := cbq.QueueIDs()
	if len(ids) != len(tests) {
		t.Fatalf("QueueIDs: got %d channels, want %d", len(ids), len(tests))
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ids[i] != tt.id {
				t.Fatalf("QueueIDs[%d]: got %v, want %v", i, ids[i], tt.id)
			}
			if got := tt.id.String(); got != tt.name {
				t.Fatalf("String: got %q, want %q", got, tt.name)
			}
			if got := tt.id.Shared(); got != tt.shared {
				t.Fatalf("Shared: got %v, want %v", got, tt.shared)
			}
		})
	}
}

// =============================================================================
// Registry Construction
// =============================================================================

// TestBuilderPanicsWithoutSide verifies Build refuses a registry with
// no declared CPU side.
func TestBuilderPanicsWithoutSide(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for unset side")
		}
	}()
	cbq.New().Build()
}

// TestBuilderSides verifies the fluent side declarations.
func TestBuilderSides(t *testing.T) {
	if got := cbq.New().PCP().Build().Side(); got != cbq.SidePCP {
		t.Fatalf("PCP registry side: got %v, want %v", got, cbq.SidePCP)
	}
	if got := cbq.New().Host().Build().Side(); got != cbq.SideHost {
		t.Fatalf("Host registry side: got %v, want %v", got, cbq.SideHost)
	}
	if w := cbq.New().PCP().Build().Window(); w != nil {
		t.Fatalf("local-only registry window: got %v, want nil", w)
	}
}

// TestSideNames verifies the Side and State string forms used in logs.
func TestSideNames(t *testing.T) {
	if cbq.SidePCP.String() != "pcp" || cbq.SideHost.String() != "host" {
		t.Fatalf("side names: got %q/%q", cbq.SidePCP, cbq.SideHost)
	}
	if got := cbq.Side(9).String(); got != "unknown" {
		t.Fatalf("unknown side: got %q", got)
	}
}

// =============================================================================
// Instance Lifecycle
// =============================================================================

// TestCreateInstanceTwice verifies an instance cannot be created while
// a previous incarnation is still live.
func TestCreateInstanceTwice(t *testing.T) {
	reg := cbq.New().PCP().Build()
	if _, err := reg.CreateInstance(cbq.KernelInternal); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := reg.CreateInstance(cbq.KernelInternal); !errors.Is(err, cbq.ErrInvalidState) {
		t.Fatalf("second create: got %v, want ErrInvalidState", err)
	}
}

// TestRecreateAfterFree verifies the create-alloc-free cycle can
// repeat on the same channel.
func TestRecreateAfterFree(t *testing.T) {
	reg := cbq.New().PCP().Build()

	for round := range 3 {
		q, err := reg.CreateInstance(cbq.UserInternal)
		if err != nil {
			t.Fatalf("round %d: CreateInstance: %v", round, err)
		}
		if _, err = q.AllocBuffer(64); err != nil {
			t.Fatalf("round %d: AllocBuffer: %v", round, err)
		}
		if err = q.WriteEntry([]byte("ping")); err != nil {
			t.Fatalf("round %d: WriteEntry: %v", round, err)
		}
		q.FreeBuffer()
		if got := q.State(); got != cbq.StateDestroyed {
			t.Fatalf("round %d: state after free: got %v", round, got)
		}
	}
}

// TestCreateInstancePanicsOutOfRange verifies the closed enumeration
// is enforced.
func TestCreateInstancePanicsOutOfRange(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for out-of-range id")
		}
	}()
	reg := cbq.New().PCP().Build()
	reg.CreateInstance(cbq.ID(42))
}

// TestSharedNeedsWindow verifies shared channels cannot be created on
// a registry without a window handle.
func TestSharedNeedsWindow(t *testing.T) {
	reg := cbq.New().PCP().Build()
	if _, err := reg.CreateInstance(cbq.UserToKernel); !errors.Is(err, cbq.ErrNoResource) {
		t.Fatalf("create shared without window: got %v, want ErrNoResource", err)
	}
}

// TestOperationsRequireBuffer verifies the data path rejects instances
// that have no ring yet.
func TestOperationsRequireBuffer(t *testing.T) {
	reg := cbq.New().PCP().Build()
	q, err := reg.CreateInstance(cbq.KernelInternal)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}

	if err = q.WriteEntry([]byte("x")); !errors.Is(err, cbq.ErrInvalidState) {
		t.Fatalf("write before alloc: got %v, want ErrInvalidState", err)
	}
	if _, err = q.ReadEntry(make([]byte, 4)); !errors.Is(err, cbq.ErrInvalidState) {
		t.Fatalf("read before alloc: got %v, want ErrInvalidState", err)
	}
	if err = q.Clear(); !errors.Is(err, cbq.ErrInvalidState) {
		t.Fatalf("clear before alloc: got %v, want ErrInvalidState", err)
	}
	if q.DataCount() != 0 || q.FreeSpace() != 0 || q.Enqueued() != 0 || q.Dropped() != 0 {
		t.Fatal("observers must return zero without a buffer")
	}
}

// TestAllocStateMachine verifies the allocation guards.
func TestAllocStateMachine(t *testing.T) {
	reg := cbq.New().PCP().Build()
	q, err := reg.CreateInstance(cbq.KernelInternal)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}

	if _, err = q.AllocBuffer(0); !errors.Is(err, cbq.ErrNoResource) {
		t.Fatalf("alloc 0: got %v, want ErrNoResource", err)
	}
	if _, err = q.AllocBuffer(-16); !errors.Is(err, cbq.ErrNoResource) {
		t.Fatalf("alloc negative: got %v, want ErrNoResource", err)
	}
	if _, err = q.AllocBuffer(3); !errors.Is(err, cbq.ErrNoResource) {
		t.Fatalf("alloc below alignment: got %v, want ErrNoResource", err)
	}

	eff, err := q.AllocBuffer(130)
	if err != nil {
		t.Fatalf("AllocBuffer(130): %v", err)
	}
	if eff != 128 {
		t.Fatalf("effective capacity: got %d, want 128", eff)
	}
	if got := q.State(); got != cbq.StateReady {
		t.Fatalf("state after alloc: got %v, want %v", got, cbq.StateReady)
	}

	if _, err = q.AllocBuffer(64); !errors.Is(err, cbq.ErrInvalidState) {
		t.Fatalf("alloc twice: got %v, want ErrInvalidState", err)
	}
}

// TestFreeIdempotent verifies FreeBuffer can be repeated and applied
// to instances that never allocated.
func TestFreeIdempotent(t *testing.T) {
	reg := cbq.New().PCP().Build()
	q, err := reg.CreateInstance(cbq.MNRequestStatus)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}

	// Free without a buffer.
	q.FreeBuffer()
	if got := q.State(); got != cbq.StateDestroyed {
		t.Fatalf("state: got %v, want %v", got, cbq.StateDestroyed)
	}
	// And again.
	q.FreeBuffer()
	q.DisconnectBuffer()
	if got := q.State(); got != cbq.StateDestroyed {
		t.Fatalf("state after repeat: got %v, want %v", got, cbq.StateDestroyed)
	}

	if err = q.WriteEntry([]byte("x")); !errors.Is(err, cbq.ErrInvalidState) {
		t.Fatalf("write after free: got %v, want ErrInvalidState", err)
	}
}

// TestConnectLocalNoop verifies local-only channels treat connect as a
// no-op.
func TestConnectLocalNoop(t *testing.T) {
	reg := cbq.New().Host().Build()
	q, err := reg.CreateInstance(cbq.UserInternal)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	if err = q.ConnectBuffer(); err != nil {
		t.Fatalf("ConnectBuffer on local: %v", err)
	}
	if got := q.State(); got != cbq.StateCreated {
		t.Fatalf("state after local connect: got %v, want %v", got, cbq.StateCreated)
	}
}

// TestLockPanicsWithoutBuffer verifies Lock refuses unusable instances.
func TestLockPanicsWithoutBuffer(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for lock without buffer")
		}
	}()
	reg := cbq.New().PCP().Build()
	q, err := reg.CreateInstance(cbq.KernelInternal)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	q.Lock()
}

// TestInstanceAccessors verifies the read-only instance metadata.
func TestInstanceAccessors(t *testing.T) {
	reg := cbq.New().PCP().Build()
	q, err := reg.CreateInstance(cbq.KernelInternal)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	if q.ID() != cbq.KernelInternal {
		t.Fatalf("ID: got %v", q.ID())
	}
	if q.Side() != cbq.SidePCP {
		t.Fatalf("Side: got %v", q.Side())
	}
	if q.Shared() || q.Slot() != "" {
		t.Fatalf("local queue claims slot %q", q.Slot())
	}
	if q.PayloadSize() != 0 {
		t.Fatalf("PayloadSize before alloc: got %d", q.PayloadSize())
	}
}
