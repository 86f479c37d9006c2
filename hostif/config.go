// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hostif

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultWindowName is the file name of the shared window when the
// configuration does not override it.
const DefaultWindowName = "cbq-window"

// minSlotCapacity is the smallest useful slot: the ring envelope plus
// one aligned entry, rounded up to the slot alignment.
const minSlotCapacity = 64

// Config describes a shared window: where the backing file lives and
// how many bytes each slot carries. Capacity keys are slot tokens.
type Config struct {
	Path     string         `toml:"path"`
	Capacity map[string]int `toml:"capacity"`
}

// DefaultConfig returns the built-in window layout. The backing file
// goes to /dev/shm when available, the system temporary directory
// otherwise.
func DefaultConfig() Config {
	return Config{
		Path: filepath.Join(shmDir(), DefaultWindowName),
		Capacity: map[string]int{
			SlotUserToKernel: 8192,
			SlotKernelToUser: 8192,
			SlotTxGeneric:    16384,
			SlotTxNmt:        2048,
			SlotTxSync:       1024,
		},
	}
}

// LoadConfig reads a TOML configuration file and overlays it on the
// defaults: a missing path or a missing capacity entry keeps its
// default value.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var c Config
	if err := toml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("hostif: parse %s: %w", path, err)
	}

	def := DefaultConfig()
	if c.Path == "" {
		c.Path = def.Path
	}
	if c.Capacity == nil {
		c.Capacity = make(map[string]int, len(def.Capacity))
	}
	for token, capacity := range def.Capacity {
		if _, ok := c.Capacity[token]; !ok {
			c.Capacity[token] = capacity
		}
	}

	return c, nil
}

// normalized validates the configuration and rounds every capacity up
// to the slot alignment. The slot set is closed: unknown tokens are a
// configuration error, not an extension point.
func (c Config) normalized() (Config, error) {
	if c.Path == "" {
		return Config{}, fmt.Errorf("hostif: config has no window path")
	}
	if len(c.Capacity) == 0 {
		return Config{}, fmt.Errorf("hostif: config has no slots")
	}

	out := Config{Path: c.Path, Capacity: make(map[string]int, len(c.Capacity))}
	for token, capacity := range c.Capacity {
		if !knownSlot(token) {
			return Config{}, fmt.Errorf("hostif: unknown slot token %q", token)
		}
		if capacity <= 0 {
			return Config{}, fmt.Errorf("hostif: slot %q has capacity %d", token, capacity)
		}
		capacity = (capacity + slotAlign - 1) &^ (slotAlign - 1)
		if capacity < minSlotCapacity {
			capacity = minSlotCapacity
		}
		out.Capacity[token] = capacity
	}
	return out, nil
}

// slotOrder is the canonical slot ordering inside the window, so that
// the same configuration always produces the same layout.
var slotOrder = []string{
	SlotUserToKernel,
	SlotKernelToUser,
	SlotTxGeneric,
	SlotTxNmt,
	SlotTxSync,
}

func knownSlot(token string) bool {
	for _, s := range slotOrder {
		if s == token {
			return true
		}
	}
	return false
}
