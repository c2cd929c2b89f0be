// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool

import (
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"

	"github.com/hayabusa-cloud/slabpool/internal"
)

// boundedIndexPool is a lock-free MPMC pool of indices in [0, capacity),
// adapted from the teacher package's BoundedPool[T]: the same CAS ring,
// the same remap function spreading adjacent turns across distinct cache
// lines, and the same empty/turn encoding. Arena is the only place this
// module needs a concurrent pool of anything, so the ring machinery lives
// here rather than as an exported generic type.
//
// The implementation follows the algorithm in:
//
//	https://nikitakoval.org/publications/ppopp20-queues.pdf
type boundedIndexPool struct {
	_ noCopy

	capacity, mask            uint32
	entries                   []atomic.Uint64
	remapM, remapN, remapMask uint32
	head, tail                atomic.Uint32

	nonblocking bool
}

func newBoundedIndexPool(capacity int) *boundedIndexPool {
	assertf(capacity >= 1, "slabpool: arena capacity must be positive, got %d", capacity)

	capacity--
	capacity |= capacity >> 1
	capacity |= capacity >> 2
	capacity |= capacity >> 4
	capacity |= capacity >> 8
	capacity |= capacity >> 16
	capacity++

	remapM := min(internal.CacheLineSize/int(wordSize), capacity)
	remapN := max(1, capacity/remapM)

	p := &boundedIndexPool{
		capacity:  uint32(capacity),
		mask:      uint32(capacity - 1),
		remapM:    uint32(remapM),
		remapN:    uint32(remapN),
		remapMask: uint32(remapN - 1),
	}
	p.entries = make([]atomic.Uint64, capacity)
	for i := range p.entries {
		p.entries[i].Store(uint64(i))
	}
	p.tail.Store(uint32(capacity))
	return p
}

const (
	boundedEntryEmpty    = 1 << 62
	boundedEntryTurnMask = boundedEntryEmpty>>32 - 1
)

func (p *boundedIndexPool) remap(cursor uint32) int {
	c, q := cursor/p.remapN, cursor&p.remapMask
	return int(q*p.remapM + c%p.remapM)
}

func (p *boundedIndexPool) empty(turn uint32) uint64 {
	return boundedEntryEmpty | uint64(turn&boundedEntryTurnMask)
}

func (p *boundedIndexPool) tryGet() (entry uint64, err error) {
	sw := spin.Wait{}
	for {
		h, t := p.head.Load(), p.tail.Load()
		hi := p.remap(h & p.mask)
		e := p.entries[hi].Load()

		if h != p.head.Load() {
			sw.Once()
			continue
		}
		if h == t {
			return boundedEntryEmpty, iox.ErrWouldBlock
		}

		nextTurn := (h/p.capacity + 1) & boundedEntryTurnMask
		if e == p.empty(nextTurn) {
			p.head.CompareAndSwap(h, h+1)
			sw.Once()
			continue
		}
		ok := p.entries[hi].CompareAndSwap(e, p.empty(nextTurn))
		p.head.CompareAndSwap(h, h+1)
		if ok {
			return e, nil
		}
		sw.Once()
	}
}

func (p *boundedIndexPool) tryPut(e uint64) error {
	sw := spin.Wait{}
	for {
		h, t := p.head.Load(), p.tail.Load()
		if t != p.tail.Load() {
			sw.Once()
			continue
		}
		if t == h+p.capacity {
			return iox.ErrWouldBlock
		}
		turn, ti := (t/p.capacity)&boundedEntryTurnMask, p.remap(t)
		ok := p.entries[ti].CompareAndSwap(p.empty(turn), e)
		p.tail.CompareAndSwap(t, t+1)
		if ok {
			return nil
		}
		sw.Once()
	}
}

func (p *boundedIndexPool) get() (int, error) {
	var aw iox.Backoff
	for {
		e, err := p.tryGet()
		if err == nil {
			return int(e & uint64(p.mask)), nil
		}
		if err == iox.ErrWouldBlock {
			if p.nonblocking {
				return 0, err
			}
			aw.Wait()
			continue
		}
		return 0, err
	}
}

func (p *boundedIndexPool) put(i int) error {
	var aw iox.Backoff
	e := uint64(i)
	for {
		err := p.tryPut(e)
		if err == nil {
			return nil
		}
		if err == iox.ErrWouldBlock {
			if p.nonblocking {
				return err
			}
			aw.Wait()
			continue
		}
		return err
	}
}

// Arena is a bounded, pre-faulted cache of page-aligned, fixed-size raw
// memory blocks, safe for concurrent use by multiple goroutines. It exists
// for programs that run one Pool per goroutine but want every Pool to draw
// its Cluster memory from a single shared supply instead of each calling
// the OS allocator independently: Arena.Acquire and Arena.Release implement
// the AcquireFunc/ReleaseFunc hook pair a Pool expects from WithHooks.
type Arena struct {
	_ noCopy

	blockSize        uintptr
	alignedBlockSize uintptr
	base             unsafe.Pointer
	blocks           [][]byte
	idx              *boundedIndexPool
}

// NewArena creates an Arena of blocks of at least blockSize bytes each.
// capacity is rounded up to the next power of two, as Nikolaev's bounded
// ring requires.
func NewArena(blockSize, capacity int) *Arena {
	assertf(blockSize >= 1, "slabpool: arena block size must be positive, got %d", blockSize)

	idx := newBoundedIndexPool(capacity)
	n := int(idx.capacity)
	blocks := AlignedMemBlocks(n, blockSize, PageSize)

	return &Arena{
		blockSize:        uintptr(blockSize),
		alignedBlockSize: ((uintptr(blockSize) + PageSize - 1) / PageSize) * PageSize,
		base:             unsafe.Pointer(unsafe.SliceData(blocks[0])),
		blocks:           blocks,
		idx:              idx,
	}
}

// SetNonblock enables or disables non-blocking mode: when enabled, Acquire
// and Release never spin/backoff-wait for capacity; Acquire instead
// reports ok=false immediately and Release is dropped.
func (a *Arena) SetNonblock(nonblocking bool) {
	a.idx.nonblocking = nonblocking
}

// Cap returns the Arena's capacity, in blocks.
func (a *Arena) Cap() int {
	return int(a.idx.capacity)
}

// Acquire implements AcquireFunc: it hands out one block from the Arena's
// cache, resliced down to size. It reports failure if size exceeds the
// Arena's block size, or if the Arena is exhausted in non-blocking mode.
func (a *Arena) Acquire(size int) ([]byte, bool) {
	if uintptr(size) > a.blockSize {
		return nil, false
	}
	i, err := a.idx.get()
	if err != nil {
		return nil, false
	}
	return a.blocks[i][:size], true
}

// Release implements ReleaseFunc: it returns a block previously obtained
// from Acquire to the Arena's cache.
func (a *Arena) Release(block []byte) {
	if len(block) == 0 {
		return
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(block)))
	i := int((addr - uintptr(a.base)) / a.alignedBlockSize)
	_ = a.idx.put(i)
}
