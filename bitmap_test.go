// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool

import "testing"

func TestBitmapWordsAndBytes(t *testing.T) {
	cases := []struct {
		n         int
		wantWords int
	}{
		{0, 0},
		{1, 1},
		{64, 1},
		{65, 2},
		{32000, 500},
	}
	for _, c := range cases {
		if got := bitmapWords(c.n); got != c.wantWords {
			t.Errorf("bitmapWords(%d) = %d, want %d", c.n, got, c.wantWords)
		}
		if got := bitmapBytes(c.n); got != uintptr(c.wantWords)*wordSize {
			t.Errorf("bitmapBytes(%d) = %d, want %d", c.n, got, uintptr(c.wantWords)*wordSize)
		}
	}
}

func TestBitmapSetTestClear(t *testing.T) {
	bmp := clusterBitmap(make([]uint64, bitmapWords(200)))
	for _, i := range []int{0, 1, 63, 64, 65, 199} {
		if bmp.test(i) {
			t.Fatalf("bit %d should start clear", i)
		}
		bmp.set(i)
		if !bmp.test(i) {
			t.Fatalf("bit %d should be set after set()", i)
		}
	}
	if got, want := bmp.popcount(), 6; got != want {
		t.Fatalf("popcount = %d, want %d", got, want)
	}
	bmp.clear(64)
	if bmp.test(64) {
		t.Fatal("bit 64 should be clear after clear()")
	}
	if got, want := bmp.popcount(), 5; got != want {
		t.Fatalf("popcount after clear = %d, want %d", got, want)
	}
}
