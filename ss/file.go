// Package ss implements the storage server: per-file sentence/word
// doubly-linked lists, sentence-granular locking, the staged-draft ETIRW
// write protocol, word-paced streaming, undo history, and named
// checkpoints.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ss

import (
	"sync"
	"time"
)

// DraftSentence mirrors a live Sentence's shape, staged during a WRITE
// session.
type DraftSentence struct {
	Words     []string
	Delimiter byte // 0 == absent
}

// Sentence is one node of a file's doubly-linked sentence list.
// Nodes are keyed by a stable ID rather than addressed by pointer so that
// splicing during commit never invalidates another goroutine's reference.
type Sentence struct {
	ID        string
	Words     []string
	Delimiter byte // 0 == absent, else one of '.', '!', '?'

	mu       sync.Mutex // per-sentence lock
	lockedBy string     // client id holding WRITE_LOCK, "" if free
	draft    []DraftSentence

	prev, next string // neighbor IDs; "" at the ends
}

// File is one on-disk document: a name, its canonical doubly-linked
// sentence list, and the locks/history that guard it.
type File struct {
	Name string

	// FLOCK: file-level reader/writer lock. SLOCK: structure lock
	// protecting head/tail/count. Order is FLOCK -> SLOCK -> sentence.mu;
	// it is kept by convention and no runtime assertion checks it.
	FLock sync.RWMutex
	SLock sync.Mutex

	head, tail string // sentence IDs
	count      int
	bySentence map[string]*Sentence

	Size         int
	WordCount    int
	CharCount    int
	LastModified time.Time
	LastAccessed time.Time
	LastAccessBy string

	undo *undoRing
}

// newFile builds an empty canonical file: one empty sentence, no delimiter.
func newFile(name string, undoCap int) *File {
	f := &File{
		Name:       name,
		bySentence: make(map[string]*Sentence),
		undo:       newUndoRing(undoCap),
	}
	f.reset()
	return f
}

func (f *File) reset() {
	f.bySentence = make(map[string]*Sentence)
	f.head, f.tail, f.count = "", "", 0
	f.appendNode(&Sentence{})
}

// appendNode must be called with SLock held.
func (f *File) appendNode(s *Sentence) {
	s.ID = genSentenceID()
	f.bySentence[s.ID] = s
	if f.tail == "" {
		f.head, f.tail = s.ID, s.ID
	} else {
		tail := f.bySentence[f.tail]
		tail.next = s.ID
		s.prev = f.tail
		f.tail = s.ID
	}
	f.count++
}

// insertAfter splices a freshly-built node in right after "after" (an ID),
// used by commit when a draft produces extra sentences. Must be called
// with SLock held.
func (f *File) insertAfter(after string, s *Sentence) {
	s.ID = genSentenceID()
	f.bySentence[s.ID] = s
	prevNode := f.bySentence[after]
	nxt := prevNode.next
	s.prev = after
	s.next = nxt
	prevNode.next = s.ID
	if nxt != "" {
		f.bySentence[nxt].prev = s.ID
	} else {
		f.tail = s.ID
	}
	f.count++
}

// NthID returns the sentence ID at the given 0-based index, or "" if out
// of range. Must be called with at least SLock held (or FLOCK for a
// stable read).
func (f *File) NthID(idx int) string {
	if idx < 0 || idx >= f.count {
		return ""
	}
	id := f.head
	for i := 0; i < idx; i++ {
		id = f.bySentence[id].next
	}
	return id
}

func (f *File) SentenceAt(idx int) *Sentence {
	id := f.NthID(idx)
	if id == "" {
		return nil
	}
	return f.bySentence[id]
}

func (f *File) Count() int { return f.count }

// All returns sentences in list order; caller must hold FLOCK (read is
// fine) since it walks next pointers.
func (f *File) All() []*Sentence {
	out := make([]*Sentence, 0, f.count)
	for id := f.head; id != ""; {
		s := f.bySentence[id]
		out = append(out, s)
		id = s.next
	}
	return out
}
