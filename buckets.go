// Copyright (c) 2025 slabpool authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slabpool

import "math/bits"

// defaultBucketCount is the number of bucketed free-lists a Pool threads
// its free runs through unless overridden with WithBuckets.
const defaultBucketCount = 8

// bucketIndex returns the bucket a run of the given length belongs to:
// bucket i holds runs with length L such that 2^i <= L < 2^(i+1), except
// the last bucket, which catches every L >= 2^(bucketCount-1).
func bucketIndex(length int, bucketCount int) int {
	if length < 1 {
		length = 1
	}
	idx := bits.Len(uint(length)) - 1
	if idx >= bucketCount {
		idx = bucketCount - 1
	}
	return idx
}
