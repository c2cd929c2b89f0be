// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool

import (
	"testing"
	"unsafe"
)

type testElem struct{ x [32]byte }

func newTestCluster(slots int) *cluster[testElem] {
	const elemSize = unsafe.Sizeof(testElem{})
	raw := make([]byte, int(elemSize)*slots)
	return &cluster[testElem]{
		raw:    raw,
		bmp:    make(clusterBitmap, bitmapWords(slots)),
		base:   unsafe.Pointer(unsafe.SliceData(raw)),
		extent: elemSize * uintptr(slots),
	}
}

func TestClusterContains(t *testing.T) {
	c := newTestCluster(16)
	const elemSize = unsafe.Sizeof(testElem{})

	if !c.contains(c.base) {
		t.Fatal("base address should be contained")
	}
	last := unsafe.Add(c.base, c.extent-elemSize)
	if !c.contains(last) {
		t.Fatal("last slot address should be contained")
	}
	afterEnd := unsafe.Add(c.base, c.extent)
	if c.contains(afterEnd) {
		t.Fatal("one-past-the-end address should not be contained")
	}
	before := unsafe.Add(c.base, -int(elemSize))
	if c.contains(before) {
		t.Fatal("address before base should not be contained")
	}
}

func TestClusterIndexAndSlotAddr(t *testing.T) {
	c := newTestCluster(16)
	const elemSize = unsafe.Sizeof(testElem{})

	for i := 0; i < 16; i++ {
		addr := c.slotAddr(i, elemSize)
		if got := c.index(addr, elemSize); got != i {
			t.Fatalf("index(slotAddr(%d)) = %d, want %d", i, got, i)
		}
	}
}

func TestClusterOf(t *testing.T) {
	c := newTestCluster(4)
	recovered := clusterOf[testElem](&c.node)
	if recovered != c {
		t.Fatalf("clusterOf did not recover the original cluster: got %p, want %p", recovered, c)
	}
}
