// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool

import (
	"fmt"
	"unsafe"

	"github.com/hayabusa-cloud/slabpool/internal"
)

// AcquireFunc obtains a block of raw memory at least size bytes long, or
// reports failure. It must behave like the standard heap: return a
// suitably aligned, writable, zero-length-safe block, or ok=false on
// exhaustion. Arena.Acquire implements this signature over a bounded,
// pre-faulted cache of blocks.
type AcquireFunc func(size int) (block []byte, ok bool)

// ReleaseFunc returns a block previously obtained from an AcquireFunc back
// to whatever supply produced it.
type ReleaseFunc func(block []byte)

func defaultAcquire(size int) ([]byte, bool) {
	return make([]byte, size), true
}

func defaultRelease(_ []byte) {}

// Option configures a Pool at Init time.
type Option[T any] func(*Pool[T])

// WithFinalizer registers f to be called, during Destroy, on every slot
// that is still live (allocated and not yet freed).
func WithFinalizer[T any](f func(*T)) Option[T] {
	return func(p *Pool[T]) { p.finalizer = f }
}

// WithHooks overrides the default make([]byte, n) / no-op acquire and
// release hooks a Pool uses to obtain and return Cluster memory. Neither
// hook may call back into this Pool.
func WithHooks[T any](acquire AcquireFunc, release ReleaseFunc) Option[T] {
	return func(p *Pool[T]) { p.acquire, p.release = acquire, release }
}

// WithBuckets overrides the default bucket count (8) a Pool threads its
// free runs through.
func WithBuckets[T any](n int) Option[T] {
	return func(p *Pool[T]) {
		if n < 1 {
			n = 1
		}
		p.bucketCount = n
	}
}

// WithLifecycleHooks registers callbacks observing Pool lifecycle: onInit
// runs at the end of Init, onDestroy at the end of Destroy. Either may be
// nil. These observe lifecycle only; they are not the raw-memory
// acquire/release hooks (see WithHooks).
func WithLifecycleHooks[T any](onInit, onDestroy func()) Option[T] {
	return func(p *Pool[T]) { p.onInit, p.onDestroy = onInit, onDestroy }
}

// Pool is a fixed-element-size memory pool. It hands out and reclaims
// T-sized slots in amortised constant time by grouping them into Clusters
// and coalescing adjacent free slots into runs threaded through a small
// number of size-bucketed free-lists.
//
// Pool is not safe for concurrent use; see the package doc's "Thread
// Safety" section. Its zero value is not ready to use — call Init first,
// or construct one with New.
type Pool[T any] struct {
	_ noCopy

	elemSize        uintptr
	slotsPerCluster int
	bucketCount     int

	clusters listNode // head of the Cluster list
	buckets  []listNode
	linger   *cluster[T]

	free      uint64
	allocated int

	finalizer func(*T)
	acquire   AcquireFunc
	release   ReleaseFunc

	onInit    func()
	onDestroy func()
}

// New creates and initialises a Pool of slotsPerCluster slots per Cluster.
func New[T any](slotsPerCluster int, opts ...Option[T]) *Pool[T] {
	p := new(Pool[T])
	p.Init(slotsPerCluster, opts...)
	return p
}

// Init prepares a Pool for use. It is safe to call again on a Pool that
// has had Destroy called on it, but not on one that still holds live
// Clusters.
func (p *Pool[T]) Init(slotsPerCluster int, opts ...Option[T]) {
	assertf(slotsPerCluster > 0, "slabpool: slotsPerCluster must be positive, got %d", slotsPerCluster)

	var zero T
	p.elemSize = alignElemSize(unsafe.Sizeof(zero))
	p.slotsPerCluster = slotsPerCluster
	p.bucketCount = defaultBucketCount
	p.finalizer = nil
	p.acquire = defaultAcquire
	p.release = defaultRelease
	p.free = 0
	p.allocated = 0
	p.linger = nil
	p.onInit = nil
	p.onDestroy = nil

	for _, opt := range opts {
		opt(p)
	}

	p.clusters.initHead()
	p.buckets = make([]listNode, p.bucketCount)
	for i := range p.buckets {
		p.buckets[i].initHead()
	}

	if p.onInit != nil {
		p.onInit()
	}
}

// Available returns the number of slots currently free across every
// Cluster of the Pool.
func (p *Pool[T]) Available() int {
	return int(p.free)
}

// Reserve ensures at least n slots are free, acquiring new Clusters as
// needed. It returns ErrExhausted if a Cluster could not be acquired
// before the target was reached.
func (p *Pool[T]) Reserve(n int) error {
	for p.free < uint64(n) {
		if _, err := p.newCluster(); err != nil {
			return err
		}
	}
	return nil
}

// Stats is a read-only snapshot of a Pool's bookkeeping.
type Stats struct {
	ElemSize          int
	SlotsPerCluster   int
	ClustersAllocated int
	Free              int
	HasLinger         bool
	PerBucket         []int // number of runs currently linked in each bucket
}

// Stats returns a snapshot of the Pool's current bookkeeping.
func (p *Pool[T]) Stats() Stats {
	perBucket := make([]int, len(p.buckets))
	for i := range p.buckets {
		p.buckets[i].foreach(func(*listNode) bool {
			perBucket[i]++
			return true
		})
	}
	return Stats{
		ElemSize:          int(p.elemSize),
		SlotsPerCluster:   p.slotsPerCluster,
		ClustersAllocated: p.allocated,
		Free:              int(p.free),
		HasLinger:         p.linger != nil,
		PerBucket:         perBucket,
	}
}

// Alloc returns a pointer to a free slot, or ErrExhausted if none could be
// made available. hint, if non-nil, is a previously-allocated-and-freed
// slot the caller expects to be reused soon; Alloc may use it to favour
// locality, but is free to ignore it.
func (p *Pool[T]) Alloc(hint *T) (*T, error) {
	const request = 1

	needNewCluster := p.free == 0 || (hint == nil && p.free < uint64(p.slotsPerCluster)/2)
	if needNewCluster {
		if _, err := p.newCluster(); err != nil {
			if p.free == 0 {
				return nil, ErrExhausted
			}
		} else {
			hint = nil
		}
	}
	_ = hint // locality hint has no effect beyond triggering eager growth above

	node := p.selectRun(request)
	if node == nil {
		return nil, ErrExhausted
	}
	first := firstSlotOf(node)
	node.unlink()

	c := p.clusterFor(unsafe.Pointer(first))
	assertf(c != nil, "slabpool: allocated run is not owned by any Cluster of this Pool")
	if c == p.linger {
		p.linger = nil // no longer entirely free
	}
	idx := c.index(unsafe.Pointer(first), p.elemSize)
	c.bmp.clear(idx)

	oldLen := int(first.runLength)
	chosen := unsafe.Pointer(first)

	if oldLen > request {
		newLen := oldLen - request
		newIdx := idx + request
		newFirstAddr := c.slotAddr(newIdx, p.elemSize)
		nf := asFirstSlot(newFirstAddr)
		nf.node = listNode{}
		nf.runLength = uint64(newLen)

		if newLen == 1 {
			// newIdx is the old run's former last-slot position, whose bit
			// is already set; setting it again is a harmless no-op.
			c.bmp.set(newIdx)
		} else {
			c.bmp.set(newIdx)
			lastIdx := idx + oldLen - 1
			last := asLastSlot(c.slotAddr(lastIdx, p.elemSize))
			last.back = nf
		}
		p.bucketHead(newLen).insertHead(&nf.node)
	}

	p.free -= uint64(request)

	if Debug {
		p.verifyOrPanic()
	}
	return (*T)(chosen), nil
}

// Free returns the slot pointed to by *ref to the Pool and sets *ref to
// nil. *ref must be a slot previously returned by Alloc on this Pool and
// not already freed.
func (p *Pool[T]) Free(ref **T) error {
	assertf(ref != nil && *ref != nil, "slabpool: Free called with a nil slot reference")
	addr := unsafe.Pointer(*ref)

	c := p.clusterFor(addr)
	assertf(c != nil, "slabpool: Free called with an address outside every Cluster of this Pool")

	idx := c.index(addr, p.elemSize)
	assertf(!c.bmp.test(idx), "slabpool: double free detected")

	start, length := idx, 1

	frontCoalesced := false
	if idx > 0 && c.bmp.test(idx-1) {
		frontCoalesced = true
		neighbor := c.slotAddr(idx-1, p.elemSize)
		if isFirstSlotShape(neighbor) {
			absorbed := asFirstSlot(neighbor)
			absorbed.node.unlink()
			start--
			length++
		} else {
			last := asLastSlot(neighbor)
			first := last.back
			firstIdx := c.index(unsafe.Pointer(first), p.elemSize)
			c.bmp.clear(idx - 1)
			first.node.unlink()
			start = firstIdx
			length += int(first.runLength)
		}
	}
	if !frontCoalesced {
		c.bmp.set(start)
	}

	backCoalesced := false
	backIdx := start + length
	if backIdx < p.slotsPerCluster && c.bmp.test(backIdx) {
		backCoalesced = true
		absorbed := asFirstSlot(c.slotAddr(backIdx, p.elemSize))
		absorbed.node.unlink()
		if int(absorbed.runLength) == 1 {
			length++
		} else {
			c.bmp.clear(backIdx)
			length += int(absorbed.runLength)
		}
	}
	if !backCoalesced && length > 1 {
		c.bmp.set(start + length - 1)
	}

	first := asFirstSlot(c.slotAddr(start, p.elemSize))
	first.node = listNode{}
	first.runLength = uint64(length)
	if length >= 2 {
		last := asLastSlot(c.slotAddr(start+length-1, p.elemSize))
		last.back = first
		last.sentinel = 0
	}
	p.bucketHead(length).insertHead(&first.node)

	p.free++

	if length == p.slotsPerCluster {
		p.retireOrLinger(c)
	}

	*ref = nil

	if Debug {
		p.verifyOrPanic()
	}
	return nil
}

// Destroy finalises every live slot (if a finalizer was configured),
// releases every Cluster back through the release hook, and resets the
// Pool's runtime state. Configuration set at Init (element size, slots
// per Cluster, bucket count, hooks, finalizer) is left untouched, so the
// Pool is immediately reusable.
func (p *Pool[T]) Destroy() {
	for n := p.clusters.popTail(); n != nil; n = p.clusters.popTail() {
		c := clusterOf[T](n)
		if p.finalizer != nil {
			p.finalizeLive(c)
		}
		p.release(c.raw)
	}
	for i := range p.buckets {
		p.buckets[i].initHead()
	}
	p.linger = nil
	p.free = 0
	p.allocated = 0

	if p.onDestroy != nil {
		p.onDestroy()
	}
}

func (p *Pool[T]) finalizeLive(c *cluster[T]) {
	i := 0
	for i < p.slotsPerCluster {
		if c.bmp.test(i) {
			i += int(asFirstSlot(c.slotAddr(i, p.elemSize)).runLength)
			continue
		}
		p.finalizer((*T)(c.slotAddr(i, p.elemSize)))
		i++
	}
}

func (p *Pool[T]) newCluster() (*cluster[T], error) {
	bmpBytes := bitmapBytes(p.slotsPerCluster)
	bmpPadded := roundUp(bmpBytes, uintptr(internal.CacheLineSize))
	total := bmpPadded + p.elemSize*uintptr(p.slotsPerCluster)

	raw, ok := p.acquire(int(total))
	if !ok {
		return nil, ErrExhausted
	}

	c := &cluster[T]{
		raw:    raw,
		bmp:    clusterBitmap(unsafe.Slice((*uint64)(unsafe.Pointer(unsafe.SliceData(raw))), bitmapWords(p.slotsPerCluster))),
		base:   unsafe.Add(unsafe.Pointer(unsafe.SliceData(raw)), bmpPadded),
		extent: p.elemSize * uintptr(p.slotsPerCluster),
	}

	first := asFirstSlot(c.slotAddr(0, p.elemSize))
	first.node = listNode{}
	first.runLength = uint64(p.slotsPerCluster)
	c.bmp.set(0)
	if p.slotsPerCluster > 1 {
		last := asLastSlot(c.slotAddr(p.slotsPerCluster-1, p.elemSize))
		last.back = first
		last.sentinel = 0
		c.bmp.set(p.slotsPerCluster - 1)
	}
	p.bucketHead(p.slotsPerCluster).insertHead(&first.node)

	p.clusters.insertHead(&c.node)
	p.free += uint64(p.slotsPerCluster)
	p.allocated++
	return c, nil
}

// retireOrLinger implements the linger-Cluster policy: the most recently
// fully-freed Cluster is kept in reserve rather than released immediately,
// so workloads that hover around a Cluster's worth of live slots don't
// thrash acquire/release on every Alloc/Free pair. Only when a second
// Cluster becomes entirely free is the previous lingering one actually
// released.
func (p *Pool[T]) retireOrLinger(c *cluster[T]) {
	if p.linger != nil && p.linger != c {
		old := p.linger
		oldRun := asFirstSlot(old.slotAddr(0, p.elemSize))
		oldRun.node.unlink()
		old.node.unlink()
		p.free -= uint64(p.slotsPerCluster)
		p.allocated--
		p.release(old.raw)
	}
	p.linger = c
}

func (p *Pool[T]) selectRun(request int) *listNode {
	start := bucketIndex(request, p.bucketCount)
	for bi := start; bi < p.bucketCount; bi++ {
		head := &p.buckets[bi]
		if head.isEmpty() {
			continue
		}
		if n := head.search(func(n *listNode) bool {
			return int(firstSlotOf(n).runLength) >= request
		}); n != nil {
			return n
		}
	}
	return nil
}

func (p *Pool[T]) bucketHead(runLength int) *listNode {
	return &p.buckets[bucketIndex(runLength, p.bucketCount)]
}

// clusterFor locates the Cluster whose slot range contains addr by
// scanning the Cluster list. This is the one operation in Pool whose cost
// scales with the number of Clusters rather than being amortised
// constant-time; workloads with many simultaneously-live Clusters pay for
// it on every Alloc and Free.
func (p *Pool[T]) clusterFor(addr unsafe.Pointer) *cluster[T] {
	var found *cluster[T]
	p.clusters.foreach(func(n *listNode) bool {
		c := clusterOf[T](n)
		if c.contains(addr) {
			found = c
			return false
		}
		return true
	})
	return found
}

func firstSlotOf(n *listNode) *firstSlotOverlay {
	return (*firstSlotOverlay)(unsafe.Pointer(n))
}

func roundUp(v, align uintptr) uintptr {
	return (v + align - 1) / align * align
}

// Verify walks every Cluster's bitmap, confirms every free run's overlay
// is internally consistent, cross-checks the bitmap's set-bit count
// against the run endpoints the walk found, checks that every run linked
// into a bucket has a length belonging to that bucket, and compares the
// free count with the summed run lengths. It does not check that every
// walked run is linked into a bucket. It returns the first inconsistency
// found, or nil. Alloc and Free call it automatically when Debug is
// enabled.
func (p *Pool[T]) Verify() error {
	var freeTotal uint64
	var walkErr error

	p.clusters.foreach(func(n *listNode) bool {
		c := clusterOf[T](n)
		set := 0
		i := 0
		for i < p.slotsPerCluster {
			if !c.bmp.test(i) {
				i++
				continue
			}
			first := asFirstSlot(c.slotAddr(i, p.elemSize))
			length := int(first.runLength)
			if length < 1 || i+length > p.slotsPerCluster {
				walkErr = fmt.Errorf("slabpool: invalid run length %d at slot %d", length, i)
				return false
			}
			set++
			if length > 1 {
				set++
				lastIdx := i + length - 1
				if !c.bmp.test(lastIdx) {
					walkErr = fmt.Errorf("slabpool: run [%d,%d) missing end bit", i, i+length)
					return false
				}
				last := asLastSlot(c.slotAddr(lastIdx, p.elemSize))
				if last.sentinel != 0 || last.back != first {
					walkErr = fmt.Errorf("slabpool: run [%d,%d) has a bad back-pointer", i, i+length)
					return false
				}
			}
			freeTotal += uint64(length)
			i += length
		}
		if got := c.bmp.popcount(); got != set {
			walkErr = fmt.Errorf("slabpool: bitmap set-bit count %d does not match %d run endpoints", got, set)
			return false
		}
		return true
	})
	if walkErr != nil {
		return walkErr
	}

	for bi := range p.buckets {
		var bucketErr error
		p.buckets[bi].foreach(func(n *listNode) bool {
			length := int(firstSlotOf(n).runLength)
			if bucketIndex(length, p.bucketCount) != bi {
				bucketErr = fmt.Errorf("slabpool: run of length %d linked into bucket %d", length, bi)
				return false
			}
			return true
		})
		if bucketErr != nil {
			return bucketErr
		}
	}

	if freeTotal != p.free {
		return fmt.Errorf("slabpool: free count %d does not match summed run length %d", p.free, freeTotal)
	}
	return nil
}

func (p *Pool[T]) verifyOrPanic() {
	if err := p.Verify(); err != nil {
		panic(err)
	}
}
