// Copyright 2026 The go-flexcan Authors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memmap

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

const devMem = "/dev/mem"

// Bus maps a physical register block through /dev/mem and implements
// flexcan.Bus over it. Accesses use 32-bit atomic loads and stores so
// each register touch is a single, ordered word access; the register
// block must therefore be 4-byte aligned, which every FlexCAN and
// SIUL2 base address is.
//
// Register words are accessed in host byte order. On the big-endian
// e200 cores this matches the reference manual layouts directly.
type Bus struct {
	f       *os.File
	mapping []byte // full page-aligned mmap region
	mem     []byte // register block view within mapping
	base    uint32
	size    int
}

// Open maps size bytes of physical address space starting at base.
// base need not be page aligned; the mapping is widened as required.
func Open(base uint32, size int) (*Bus, error) {
	f, err := os.OpenFile(devMem, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("memmap: open %s: %w", devMem, err)
	}

	page := unix.Getpagesize()
	offset := int(base) % page
	mapping, err := unix.Mmap(int(f.Fd()), int64(base)-int64(offset),
		size+offset, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("memmap: mmap 0x%X+0x%X: %w", base, size, err)
	}

	return &Bus{
		f:       f,
		mapping: mapping,
		mem:     mapping[offset:],
		base:    base,
		size:    size,
	}, nil
}

// Read32 implements flexcan.Bus.
func (b *Bus) Read32(off uint32) uint32 {
	return atomic.LoadUint32(b.word(off))
}

// Write32 implements flexcan.Bus.
func (b *Bus) Write32(off uint32, val uint32) {
	atomic.StoreUint32(b.word(off), val)
}

func (b *Bus) word(off uint32) *uint32 {
	if int(off)+4 > b.size || off%4 != 0 {
		panic(fmt.Sprintf("memmap: bad register offset 0x%X", off))
	}
	return (*uint32)(unsafe.Pointer(&b.mem[off]))
}

// Base returns the physical base address of the mapping.
func (b *Bus) Base() uint32 { return b.base }

// Close unmaps the register block.
func (b *Bus) Close() error {
	if err := unix.Munmap(b.mapping); err != nil {
		_ = b.f.Close()
		return fmt.Errorf("memmap: munmap: %w", err)
	}
	if err := b.f.Close(); err != nil {
		return fmt.Errorf("memmap: close %s: %w", devMem, err)
	}
	return nil
}
