// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool_test

import (
	"testing"

	"github.com/hayabusa-cloud/slabpool"
)

type benchElem struct{ x [64]byte }

func BenchmarkPoolAllocFree(b *testing.B) {
	p := slabpool.New[benchElem](1024)
	defer p.Destroy()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e, err := p.Alloc(nil)
		if err != nil {
			b.Fatalf("Alloc: %v", err)
		}
		if err := p.Free(&e); err != nil {
			b.Fatalf("Free: %v", err)
		}
	}
}

func BenchmarkPoolAllocFreeChurn(b *testing.B) {
	const live = 256
	p := slabpool.New[benchElem](1024)
	defer p.Destroy()

	refs := make([]*benchElem, live)
	for i := range refs {
		e, err := p.Alloc(nil)
		if err != nil {
			b.Fatalf("Alloc: %v", err)
		}
		refs[i] = e
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		slot := i % live
		if err := p.Free(&refs[slot]); err != nil {
			b.Fatalf("Free: %v", err)
		}
		e, err := p.Alloc(nil)
		if err != nil {
			b.Fatalf("Alloc: %v", err)
		}
		refs[slot] = e
	}
}

func BenchmarkArenaAcquireRelease(b *testing.B) {
	a := slabpool.NewArena(4096, 256)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			block, ok := a.Acquire(4096)
			if !ok {
				b.Fatal("Acquire failed")
			}
			a.Release(block)
		}
	})
}
