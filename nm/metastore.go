// Metadata persistence: FileMeta records are saved into an embedded buntdb
// when commands change them (a READ/STREAM/WRITE redirect's LastAccessed
// update is not saved), so the trie can be rebuilt across NM restarts without
// waiting on every SS to re-register and re-announce its file list.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nm

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/buntdb"

	"github.com/wordstore/wordstore/cmn/nlog"
)

func unixOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

// metaRecord is the JSON shape written to buntdb; FileMeta itself carries
// an unexported mutex and can't be marshaled directly.
type metaRecord struct {
	Name         string
	Owner        string
	SSID         string
	CreatedAt    int64
	LastModified int64
	LastAccessed int64
	Size         int
	WordCount    int
	CharCount    int
	ACL          []AccessEntry
	Pending      []PendingRequest
}

// MetaStore wraps an embedded buntdb keyed by filename.
type MetaStore struct {
	db *buntdb.DB
}

// OpenMetaStore opens (creating if needed) the buntdb file at path, or an
// in-memory store if path is empty (used by tests).
func OpenMetaStore(path string) (*MetaStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &MetaStore{db: db}, nil
}

func (s *MetaStore) Close() error { return s.db.Close() }

// Save upserts m's current state.
func (s *MetaStore) Save(m *FileMeta) error {
	m.mu.Lock()
	rec := metaRecord{
		Name: m.Name, Owner: m.Owner, SSID: m.SSID,
		CreatedAt: m.CreatedAt.Unix(), LastModified: m.LastModified.Unix(), LastAccessed: m.LastAccessed.Unix(),
		Size: m.Size, WordCount: m.WordCount, CharCount: m.CharCount,
		ACL:     append([]AccessEntry(nil), m.ACL...),
		Pending: append([]PendingRequest(nil), m.Pending...),
	}
	name := m.Name
	m.mu.Unlock()

	data, err := jsoniter.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set("file:"+name, string(data), nil)
		return err
	})
}

// Delete removes name's persisted record.
func (s *MetaStore) Delete(name string) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete("file:" + name)
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
}

// LoadAll reconstructs every persisted FileMeta, used to repopulate the
// trie on NM boot.
func (s *MetaStore) LoadAll() []*FileMeta {
	var out []*FileMeta
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("file:*", func(key, value string) bool {
			var rec metaRecord
			if jerr := jsoniter.Unmarshal([]byte(value), &rec); jerr != nil {
				nlog.Warningf("nm: metastore: skip %s: %v", key, jerr)
				return true
			}
			out = append(out, recordToMeta(rec))
			return true
		})
	})
	if err != nil {
		nlog.Warningf("nm: metastore load: %v", err)
	}
	return out
}

func recordToMeta(rec metaRecord) *FileMeta {
	m := newFileMeta(rec.Name, rec.Owner, rec.SSID)
	m.CreatedAt = unixOrZero(rec.CreatedAt)
	m.LastModified = unixOrZero(rec.LastModified)
	m.LastAccessed = unixOrZero(rec.LastAccessed)
	m.Size, m.WordCount, m.CharCount = rec.Size, rec.WordCount, rec.CharCount
	m.ACL = rec.ACL
	m.Pending = rec.Pending
	return m
}
