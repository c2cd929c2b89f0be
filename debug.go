// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool

// Debug enables the exhaustive consistency check Pool.Verify performs:
// when true, Alloc and Free call Verify after every mutation and panic on
// the first invariant violation found. It defaults to false; this
// package's own tests turn it on.
var Debug = false

// SetDebug toggles the package-wide consistency-check switch.
func SetDebug(enabled bool) {
	Debug = enabled
}
