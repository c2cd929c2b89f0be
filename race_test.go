// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package slabpool_test

// raceEnabled is true when the race detector is active. Arena's concurrent
// tests scale rounds down under race mode to keep instrumentation overhead
// reasonable.
const raceEnabled = true
