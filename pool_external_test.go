// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool_test

import (
	"testing"

	"github.com/hayabusa-cloud/slabpool"
)

type record struct {
	id   int
	data [48]byte
}

func TestPoolBasicUsage(t *testing.T) {
	p := slabpool.New[record](64)
	defer p.Destroy()

	r, err := p.Alloc(nil)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	r.id = 42
	if r.id != 42 {
		t.Fatal("allocated slot should be writable")
	}
	if err := p.Free(&r); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if r != nil {
		t.Fatal("Free should have nilled the caller's pointer")
	}
}

func TestPoolVerifyClean(t *testing.T) {
	p := slabpool.New[record](32)
	defer p.Destroy()

	var refs []*record
	for i := 0; i < 50; i++ {
		r, err := p.Alloc(nil)
		if err != nil {
			t.Fatalf("Alloc #%d: %v", i, err)
		}
		refs = append(refs, r)
	}
	for i := 0; i < len(refs); i += 2 {
		if err := p.Free(&refs[i]); err != nil {
			t.Fatalf("Free #%d: %v", i, err)
		}
	}
	if err := p.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestPoolStatsReflectsUsage(t *testing.T) {
	p := slabpool.New[record](16)
	defer p.Destroy()

	if err := p.Reserve(16); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	before := p.Stats()
	if before.SlotsPerCluster != 16 {
		t.Fatalf("SlotsPerCluster = %d, want 16", before.SlotsPerCluster)
	}

	r, err := p.Alloc(nil)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	after := p.Stats()
	if after.Free != before.Free-1 {
		t.Fatalf("Free = %d, want %d", after.Free, before.Free-1)
	}
	var total int
	for _, n := range after.PerBucket {
		total += n
	}
	if total == 0 {
		t.Fatal("PerBucket should account for the remaining free run")
	}
	if err := p.Free(&r); err != nil {
		t.Fatalf("Free: %v", err)
	}
}

func TestPoolWithBuckets(t *testing.T) {
	p := slabpool.New[record](32, slabpool.WithBuckets[record](4))
	defer p.Destroy()

	if err := p.Reserve(1); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if got := len(p.Stats().PerBucket); got != 4 {
		t.Fatalf("len(PerBucket) = %d, want 4", got)
	}
}
