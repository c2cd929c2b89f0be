// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package slabpool provides a fixed-element-size memory pool for workloads
// that allocate and free enormous numbers of small, identically sized
// objects — interpreter cells, parse-tree nodes, skiplist links — where the
// general-purpose heap is both too slow and too fragmenting.
//
// # Clusters, runs, and buckets
//
// A Pool hands out slots drawn from Clusters: large, contiguous allocations
// each holding a fixed number of equally sized slots plus a bitmap. The
// bitmap does not record occupancy; it records the two endpoints of every
// maximal run of adjacent free slots, which is what makes coalescing a
// freed slot with its neighbours an O(1) operation regardless of run
// length. Free runs are indexed by length in a small, fixed number of
// bucketed free-lists (bucket i holds runs in [2^i, 2^(i+1)); the last
// bucket also holds every longer run), so Alloc can
// find a big-enough run without scanning every Cluster.
//
// Usage pattern:
//
//	var pool slabpool.Pool[myElem]
//	pool.Init(32000)             // 32000 slots per Cluster
//	pool.Reserve(32)             // preallocate at least one Cluster
//	slot, err := pool.Alloc(nil) // no locality hint
//	if err != nil {
//	    // Handle ErrExhausted (no more memory available)
//	}
//	*slot = myElem{...}
//	pool.Free(&slot)             // slot is nulled on return
//	pool.Destroy()               // releases every Cluster
//
// # Linger Cluster
//
// When a Cluster becomes entirely free, Pool does not release it
// immediately; it is parked in a single "linger" slot. A second Cluster
// becoming entirely free evicts and releases whichever Cluster was
// lingering. This one-Cluster hysteresis absorbs alloc/free churn that
// sits exactly at a Cluster boundary.
//
// # Raw memory supply
//
// Pool acquires Cluster-sized blocks through a pair of hooks (Acquire,
// Release) rather than calling the system allocator directly. The default
// hooks call make([]byte, n); Arena (see arena.go) is an alternative,
// concurrency-safe hook pair backed by a pre-faulted, page-aligned cache of
// blocks, useful when many goroutines each run one Pool of their own and
// want to share a single supply of raw memory.
//
// # Thread Safety
//
// Pool itself is not safe for concurrent use; all public operations mutate
// Pool and Cluster state without locks, and callers must serialise access
// externally. Arena, by contrast, is safe for concurrent use:
// it is the one component in this module built to be shared across
// goroutines, each of which may be driving its own, separate Pool.
//
// # Dependencies
//
// slabpool depends on:
//   - code.hybscloud.com/iox: semantic error types (ErrWouldBlock) and
//     Backoff, used by Arena
//   - code.hybscloud.com/spin: spin-wait primitives, used by Arena
package slabpool
