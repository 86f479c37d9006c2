// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hostif_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"code.hybscloud.com/cbq/hostif"
)

// TestDefaultConfig verifies the built-in layout names every shared
// slot.
func TestDefaultConfig(t *testing.T) {
	cfg := hostif.DefaultConfig()

	if !strings.HasSuffix(cfg.Path, hostif.DefaultWindowName) {
		t.Fatalf("default path %q does not end in %q", cfg.Path, hostif.DefaultWindowName)
	}
	want := map[string]int{
		hostif.SlotUserToKernel: 8192,
		hostif.SlotKernelToUser: 8192,
		hostif.SlotTxGeneric:    16384,
		hostif.SlotTxNmt:        2048,
		hostif.SlotTxSync:       1024,
	}
	if len(cfg.Capacity) != len(want) {
		t.Fatalf("slot count: got %d, want %d", len(cfg.Capacity), len(want))
	}
	for token, capacity := range want {
		if got := cfg.Capacity[token]; got != capacity {
			t.Fatalf("slot %q: got %d, want %d", token, got, capacity)
		}
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cbq.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// TestLoadConfigOverlay verifies a partial file overrides only the
// keys it names.
func TestLoadConfigOverlay(t *testing.T) {
	cfg, err := hostif.LoadConfig(writeConfig(t, `
path = "/run/cbq/window"

[capacity]
u2k = 4096
txsync = 512
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Path != "/run/cbq/window" {
		t.Fatalf("path: got %q, want /run/cbq/window", cfg.Path)
	}
	want := map[string]int{
		hostif.SlotUserToKernel: 4096,
		hostif.SlotKernelToUser: 8192,
		hostif.SlotTxGeneric:    16384,
		hostif.SlotTxNmt:        2048,
		hostif.SlotTxSync:       512,
	}
	for token, capacity := range want {
		if got := cfg.Capacity[token]; got != capacity {
			t.Fatalf("slot %q: got %d, want %d", token, got, capacity)
		}
	}
}

// TestLoadConfigKeepsDefaultPath verifies a file without a path entry
// falls back to the default location.
func TestLoadConfigKeepsDefaultPath(t *testing.T) {
	cfg, err := hostif.LoadConfig(writeConfig(t, `
[capacity]
txnmt = 4096
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Path != hostif.DefaultConfig().Path {
		t.Fatalf("path: got %q, want default", cfg.Path)
	}
	if got := cfg.Capacity[hostif.SlotTxNmt]; got != 4096 {
		t.Fatalf("txnmt: got %d, want 4096", got)
	}
}

// TestLoadConfigMissing verifies a missing file surfaces as a
// not-exist error, so callers can fall back to defaults.
func TestLoadConfigMissing(t *testing.T) {
	_, err := hostif.LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if !os.IsNotExist(err) {
		t.Fatalf("LoadConfig: got %v, want not-exist", err)
	}
}

// TestLoadConfigBadSyntax verifies parse failures are reported, not
// papered over with defaults.
func TestLoadConfigBadSyntax(t *testing.T) {
	_, err := hostif.LoadConfig(writeConfig(t, "path = [broken"))
	if err == nil {
		t.Fatal("LoadConfig accepted invalid TOML")
	}
}
