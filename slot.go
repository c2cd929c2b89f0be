// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool

import "unsafe"

// wordSize is the machine word size used to size and align bitmap storage
// and slot overlays.
const wordSize = unsafe.Sizeof(uintptr(0))

// firstSlotOverlay is the shape a free slot takes when it is the first
// slot of a free run: an intrusive list node threading the run into its
// size bucket, plus the run's length in slots. node.next is never nil
// (list heads are self-pointing sentinels), which is what lets a
// lastSlotOverlay's sentinel word distinguish the two shapes when
// inspecting an arbitrary free slot.
type firstSlotOverlay struct {
	node      listNode
	runLength uint64
}

// lastSlotOverlay is the shape the last slot of a run takes, but only when
// the run's length is 2 or more: a back-pointer to the run's first-slot
// overlay, and a null sentinel word occupying the same relative offset
// firstSlotOverlay uses for node.next.
type lastSlotOverlay struct {
	back     *firstSlotOverlay
	sentinel uintptr
}

// firstSlotOverlaySize is always >= lastSlotOverlaySize given the field
// layout above (three words vs two), so it alone determines the minimum
// usable slot size.
const firstSlotOverlaySize = unsafe.Sizeof(firstSlotOverlay{})

// alignElemSize rounds size up to the larger of firstSlotOverlaySize and a
// whole number of machine words: every slot must be able to hold whichever
// free-slot overlay is asked of it, and addressing within a Cluster relies
// on every slot starting on a word boundary.
func alignElemSize(size uintptr) uintptr {
	if size < firstSlotOverlaySize {
		size = firstSlotOverlaySize
	}
	return (size + wordSize - 1) / wordSize * wordSize
}

func asFirstSlot(addr unsafe.Pointer) *firstSlotOverlay {
	return (*firstSlotOverlay)(addr)
}

func asLastSlot(addr unsafe.Pointer) *lastSlotOverlay {
	return (*lastSlotOverlay)(addr)
}

// isFirstSlotShape reports whether the free slot at addr is currently
// written as a first-slot overlay (a length-one run) rather than a
// last-slot overlay of some longer run. Only meaningful for a slot already
// known, via its bitmap bit, to be a run endpoint.
func isFirstSlotShape(addr unsafe.Pointer) bool {
	return asLastSlot(addr).sentinel != 0
}
