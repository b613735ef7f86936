// SS placement: highest-random-weight (rendezvous) selection of the
// storage server that should own a newly created file, so placement is
// deterministic given the active SS set without any central counter.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nm

import (
	"sort"

	"github.com/OneOfOne/xxhash"
)

// PickSS returns the id of the active server in candidates with the
// highest HRW weight for filename, or "" if candidates is empty.
func PickSS(filename string, candidates []string) string {
	ranked := RankSS(filename, candidates)
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0]
}

// RankSS returns candidates sorted by descending HRW weight for filename,
// so a caller that needs to fall over to the next-best server on transport
// failure (e.g. CREATE) can walk the list in order.
func RankSS(filename string, candidates []string) []string {
	type weighted struct {
		id string
		w  uint64
	}
	fdigest := xxhash.ChecksumString64(filename)
	ws := make([]weighted, len(candidates))
	for i, id := range candidates {
		ws[i] = weighted{id: id, w: mix64(xxhash.ChecksumString64(id) ^ fdigest)}
	}
	sort.Slice(ws, func(i, j int) bool { return ws[i].w > ws[j].w })
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.id
	}
	return out
}

// mix64 is the MurmurHash3 fmix64 finalizer, spreading the xor'd digest before
// comparison so weight ties are effectively impossible.
func mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
