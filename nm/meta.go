// Package nm implements the name server: the file-metadata trie and LRU
// cache, ACL and access-request engine, user registry, SS placement and
// connection management, and the client-facing command router.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nm

import (
	"sync"
	"time"
)

// AccessRight mirrors cmn's wire vocabulary for ACL entries; WRITE implies
// READ.
type AccessRight int

const (
	AccessNone AccessRight = iota
	AccessRead
	AccessWrite
)

func (r AccessRight) String() string {
	switch r {
	case AccessRead:
		return "READ"
	case AccessWrite:
		return "WRITE"
	default:
		return "NONE"
	}
}

// AccessEntry is one ACL row.
type AccessEntry struct {
	User  string
	Right AccessRight
}

// PendingRequest is an outstanding request_access awaiting owner action.
type PendingRequest struct {
	User        string
	Right       AccessRight
	RequestedAt time.Time
}

// FileMeta is the NM's view of one file: everything needed to answer
// CREATE/DELETE/INFO/ACL queries without contacting the owning SS.
type FileMeta struct {
	mu sync.Mutex

	Name         string
	Owner        string
	SSID         string
	CreatedAt    time.Time
	LastModified time.Time
	LastAccessed time.Time
	Size         int
	WordCount    int
	CharCount    int

	ACL     []AccessEntry
	Pending []PendingRequest
}

func newFileMeta(name, owner, ssID string) *FileMeta {
	now := time.Now()
	return &FileMeta{Name: name, Owner: owner, SSID: ssID, CreatedAt: now, LastModified: now}
}

// clone returns a value copy safe to hand to callers outside the trie/cache
// locks (the mutex itself is never copied out).
func (m *FileMeta) clone() *FileMeta {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &FileMeta{
		Name: m.Name, Owner: m.Owner, SSID: m.SSID,
		CreatedAt: m.CreatedAt, LastModified: m.LastModified, LastAccessed: m.LastAccessed,
		Size: m.Size, WordCount: m.WordCount, CharCount: m.CharCount,
		ACL:     append([]AccessEntry(nil), m.ACL...),
		Pending: append([]PendingRequest(nil), m.Pending...),
	}
	return c
}
