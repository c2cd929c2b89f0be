// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool

import "unsafe"

// IoVec is a scatter/gather I/O descriptor compatible with the standard C
// struct iovec layout.
type IoVec struct {
	Base *byte
	Len  uint64
}

// LiveVectors returns one IoVec per maximal run of occupied slots across
// every Cluster of the Pool, letting a caller export every live slot with
// a single writev-style call instead of visiting them one at a time.
// Because Alloc never moves a live slot's address, a returned IoVec stays
// valid until the next Alloc or Free call on this Pool.
func (p *Pool[T]) LiveVectors() []IoVec {
	var vecs []IoVec
	p.clusters.foreach(func(n *listNode) bool {
		c := clusterOf[T](n)
		i := 0
		for i < p.slotsPerCluster {
			if c.bmp.test(i) {
				i += int(asFirstSlot(c.slotAddr(i, p.elemSize)).runLength)
				continue
			}
			start := i
			for i < p.slotsPerCluster && !c.bmp.test(i) {
				i++
			}
			vecs = append(vecs, IoVec{
				Base: (*byte)(c.slotAddr(start, p.elemSize)),
				Len:  uint64(i-start) * uint64(p.elemSize),
			})
		}
		return true
	})
	return vecs
}

// Buffers returns the same live-slot ranges as LiveVectors, as
// net.Buffers-compatible byte slices instead of raw IoVecs.
func (p *Pool[T]) Buffers() Buffers {
	vecs := p.LiveVectors()
	bufs := make(Buffers, len(vecs))
	for i, v := range vecs {
		bufs[i] = unsafe.Slice(v.Base, v.Len)
	}
	return bufs
}
