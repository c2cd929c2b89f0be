// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool

import (
	"errors"
	"fmt"
)

// ErrExhausted is returned by Alloc and Reserve when no further Cluster
// memory can be acquired to satisfy the request.
var ErrExhausted = errors.New("slabpool: exhausted")

// assertf panics with a formatted message if cond is false. Pool treats
// caller misuse and internal invariant violations as fatal rather than as
// recoverable errors; ErrExhausted is the one condition a caller is
// expected to handle.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
