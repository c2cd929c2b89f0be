// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool

import "unsafe"

// AlignedMem returns a byte slice of size bytes whose starting address is
// a multiple of align. The slice is carved out of a slightly larger
// allocation to guarantee the alignment; do not assume len(result) ==
// cap(result).
func AlignedMem(size int, align uintptr) []byte {
	buf := make([]byte, uintptr(size)+align-1)
	base := unsafe.Pointer(unsafe.SliceData(buf))
	offset := ((uintptr(base)+align-1)/align)*align - uintptr(base)
	return unsafe.Slice((*byte)(unsafe.Add(base, offset)), size)
}

// AlignedMemBlocks returns n blocks of blockSize bytes each, every block's
// starting address a multiple of align. All n blocks share one contiguous
// underlying allocation, which is what lets Arena recover a block's index
// from its address via pointer arithmetic. Panics if n < 1.
func AlignedMemBlocks(n int, blockSize int, align uintptr) (blocks [][]byte) {
	assertf(n >= 1, "slabpool: block count must be positive, got %d", n)

	alignedBlockSize := ((uintptr(blockSize) + align - 1) / align) * align
	total := int(alignedBlockSize)*n + int(align) - 1
	buf := make([]byte, total)
	base := unsafe.Pointer(unsafe.SliceData(buf))
	offset := ((uintptr(base)+align-1)/align)*align - uintptr(base)

	blocks = make([][]byte, n)
	for i := range n {
		blocks[i] = unsafe.Slice((*byte)(unsafe.Add(base, offset+uintptr(i)*alignedBlockSize)), blockSize)
	}
	return blocks
}
