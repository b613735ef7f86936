// Package mono provides a monotonic clock source (nlog stamps its lines
// with time.Now and does not use it).
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var start = time.Now()

// NanoTime returns nanoseconds elapsed since process start, monotonic
// within a single process lifetime.
func NanoTime() int64 { return int64(time.Since(start)) }
