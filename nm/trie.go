// File-name trie: a 256-way byte trie mapping filenames to FileMeta, ahead
// of which sits a cuckoo filter existence precheck so a miss on a cold
// cache never has to walk the trie at all.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nm

import (
	"sync"

	cuckoo "github.com/seiflotfy/cuckoofilter"
)

type trieNode struct {
	children [256]*trieNode
	meta     *FileMeta
}

// Trie is the NM's authoritative filename -> FileMeta index.
type Trie struct {
	mu     sync.RWMutex
	root   *trieNode
	filter *cuckoo.Filter // probabilistic "definitely absent" precheck
}

func NewTrie() *Trie {
	return &Trie{root: &trieNode{}, filter: cuckoo.NewFilter(1 << 16)}
}

// MaybeExists is a lock-free, false-positive-possible precheck: false means
// the name is definitely not in the trie, so callers can skip the walk and
// its lock entirely.
func (t *Trie) MaybeExists(name string) bool {
	return t.filter.Lookup([]byte(name))
}

// Insert adds or replaces the metadata for name.
func (t *Trie) Insert(name string, meta *FileMeta) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.root
	for i := 0; i < len(name); i++ {
		c := name[i]
		if n.children[c] == nil {
			n.children[c] = &trieNode{}
		}
		n = n.children[c]
	}
	n.meta = meta
	t.filter.Insert([]byte(name))
}

// Get returns the metadata for name, or nil if absent.
func (t *Trie) Get(name string) *FileMeta {
	if !t.MaybeExists(name) {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := t.walk(name)
	if n == nil {
		return nil
	}
	return n.meta
}

func (t *Trie) walk(name string) *trieNode {
	n := t.root
	for i := 0; i < len(name); i++ {
		n = n.children[name[i]]
		if n == nil {
			return nil
		}
	}
	return n
}

// Delete removes name's metadata. The node itself is left in place (shared
// prefixes may still be live); only the leaf's meta pointer is cleared.
func (t *Trie) Delete(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.walk(name)
	if n != nil {
		n.meta = nil
	}
	t.filter.Delete([]byte(name))
}

// Rename moves name's metadata to a new key, relying on MaybeExists at the
// new key staying accurate (cuckoo filters tolerate being a superset).
func (t *Trie) Rename(oldName, newName string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.walk(oldName)
	if n == nil || n.meta == nil {
		return false
	}
	meta := n.meta
	n.meta = nil
	t.filter.Delete([]byte(oldName))

	meta.Name = newName
	dst := t.root
	for i := 0; i < len(newName); i++ {
		c := newName[i]
		if dst.children[c] == nil {
			dst.children[c] = &trieNode{}
		}
		dst = dst.children[c]
	}
	dst.meta = meta
	t.filter.Insert([]byte(newName))
	return true
}

// Walk visits every (name, meta) pair in the trie in lexicographic child
// order; used by the VIEW command family. cb is called once per pair and
// has no other parameter, so any accumulator or view setting reaches it
// through the caller's closure.
func (t *Trie) Walk(cb func(name string, meta *FileMeta)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var buf []byte
	var rec func(n *trieNode)
	rec = func(n *trieNode) {
		if n.meta != nil {
			cb(string(buf), n.meta)
		}
		for c := 0; c < 256; c++ {
			if child := n.children[c]; child != nil {
				buf = append(buf, byte(c))
				rec(child)
				buf = buf[:len(buf)-1]
			}
		}
	}
	rec(t.root)
}
