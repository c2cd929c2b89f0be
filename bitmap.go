// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool

import "math/bits"

// clusterBitmap is a Cluster's free-run endpoint bitmap. Bit i is set if
// and only if slot i is the first or last slot of some free run; it is
// deliberately not an occupancy bitmap, and most occupied slots have their
// bit clear. Grounded on the word-oriented bitmap layout used by physical
// page frame allocators, reinterpreted here to mark run endpoints rather
// than used-vs-free pages.
type clusterBitmap []uint64

// bitmapWords returns the number of uint64 words needed to address n slot
// indices.
func bitmapWords(n int) int {
	return (n + 63) / 64
}

// bitmapBytes returns the byte size of the bitmap storage for n slot
// indices, a whole number of machine words.
func bitmapBytes(n int) uintptr {
	return uintptr(bitmapWords(n)) * wordSize
}

func (b clusterBitmap) test(i int) bool {
	return b[i>>6]&(uint64(1)<<uint(i&63)) != 0
}

func (b clusterBitmap) set(i int) {
	b[i>>6] |= uint64(1) << uint(i&63)
}

func (b clusterBitmap) clear(i int) {
	b[i>>6] &^= uint64(1) << uint(i&63)
}

// popcount returns the number of set bits across the whole bitmap. Verify
// uses it to cross-check the bitmap against the runs it walked.
func (b clusterBitmap) popcount() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}
