// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !amd64 && !arm64 && !riscv64 && !loong64

package internal

// CacheLineSize is the default cache line size for every architecture not
// given its own file: 32-bit and 64-bit alike. 64 bytes is the most common
// cache line size across modern CPUs (mips64, ppc64, s390x, wasm, 386, arm,
// ...); Cluster header padding only needs to be a reasonable upper bound,
// not exact, since slabpool's own code is never concurrent within a Pool.
const CacheLineSize = 64
