// SS undo history: a fixed-capacity ring of whole-file snapshots taken
// when a WRITE session locks a sentence and before a REVERT, so UNDO can
// restore a prior state.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ss

import (
	"sync"
	"time"

	"github.com/klauspost/compress/s2"
)

type undoEntry struct {
	filename  string
	snapshot  []byte // s2-compressed canonical bytes; bounds ring memory use
	timestamp time.Time
}

// undoRing is a fixed-capacity circular buffer of (filename, snapshot, ts).
// UNDO pops the most recent entry matching a filename, scanning backward
// from the top.
type undoRing struct {
	mu      sync.Mutex
	entries []undoEntry // newest last; oldest evicted at cap, pop removes from any position
	cap     int
}

func newUndoRing(capacity int) *undoRing {
	if capacity <= 0 {
		capacity = 50
	}
	return &undoRing{cap: capacity}
}

// push records a pre-edit snapshot, taken when a WRITE session locks its
// sentence and before REVERT. CHECKPOINT does not push.
func (r *undoRing) push(filename string, canonical []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	compressed := s2.Encode(nil, canonical)
	r.entries = append(r.entries, undoEntry{filename: filename, snapshot: compressed, timestamp: time.Now()})
	if len(r.entries) > r.cap {
		r.entries = r.entries[len(r.entries)-r.cap:]
	}
}

// pop removes and returns the newest snapshot matching filename, or ok=false
// if the ring holds none.
func (r *undoRing) pop(filename string) (content []byte, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].filename != filename {
			continue
		}
		e := r.entries[i]
		r.entries = append(r.entries[:i], r.entries[i+1:]...)
		decoded, err := s2.Decode(nil, e.snapshot)
		if err != nil {
			return nil, false
		}
		return decoded, true
	}
	return nil, false
}
