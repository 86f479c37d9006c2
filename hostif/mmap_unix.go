// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package hostif

import (
	"fmt"
	"os"
	"syscall"
)

// shmDir returns the preferred directory for window backing files.
// /dev/shm keeps the window off persistent storage; the temporary
// directory is the fallback on systems without it.
func shmDir() string {
	info, err := os.Stat("/dev/shm")
	if err == nil && info.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}

func mmapFile(f *os.File, size int) ([]byte, error) {
	mem, err := syscall.Mmap(int(f.Fd()), 0, size,
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("hostif: mmap %s: %w", f.Name(), err)
	}
	return mem, nil
}

func munmapMem(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	if err := syscall.Munmap(mem); err != nil {
		return fmt.Errorf("hostif: munmap: %w", err)
	}
	return nil
}
