// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool_test

import (
	"testing"
	"unsafe"

	"github.com/hayabusa-cloud/slabpool"
)

func TestAlignedMem(t *testing.T) {
	for _, align := range []uintptr{8, 64, 4096} {
		buf := slabpool.AlignedMem(100, align)
		if len(buf) != 100 {
			t.Fatalf("len(buf) = %d, want 100", len(buf))
		}
		addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
		if addr%align != 0 {
			t.Fatalf("address %#x is not %d-aligned", addr, align)
		}
	}
}

func TestAlignedMemBlocks(t *testing.T) {
	const align = 4096
	blocks := slabpool.AlignedMemBlocks(8, 256, align)
	if len(blocks) != 8 {
		t.Fatalf("len(blocks) = %d, want 8", len(blocks))
	}
	seen := map[uintptr]bool{}
	for i, b := range blocks {
		if len(b) != 256 {
			t.Fatalf("block %d has length %d, want 256", i, len(b))
		}
		addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
		if addr%align != 0 {
			t.Fatalf("block %d address %#x is not %d-aligned", i, addr, align)
		}
		if seen[addr] {
			t.Fatalf("block %d reuses address %#x", i, addr)
		}
		seen[addr] = true
	}
}
