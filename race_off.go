// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

package cbq

// RaceEnabled reports whether the race detector is enabled.
// Tests that drive a queue from several goroutines skip when it is on:
// the ordered window accessors look like plain memory operations to the
// detector, which reports false positives for them.
const RaceEnabled = false
