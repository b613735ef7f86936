// Store is the storage server's in-memory file registry: a mutex-guarded
// map of all File objects it currently serves.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ss

import (
	"sync"

	"github.com/wordstore/wordstore/cmn"
	"github.com/wordstore/wordstore/cmn/config"
)

type Store struct {
	cfg *config.SSConfig

	filesLock sync.Mutex
	files     map[string]*File
}

func NewStore(cfg *config.SSConfig) *Store {
	return &Store{cfg: cfg, files: make(map[string]*File)}
}

func (st *Store) get(name string) (*File, error) {
	st.filesLock.Lock()
	defer st.filesLock.Unlock()
	f, ok := st.files[name]
	if !ok {
		return nil, cmn.NewCodeError(cmn.ErrFileNotFound, "file %q not found", name)
	}
	return f, nil
}

func (st *Store) has(name string) bool {
	st.filesLock.Lock()
	defer st.filesLock.Unlock()
	_, ok := st.files[name]
	return ok
}

// Names returns a snapshot of all file names currently served, used by the
// NM registration frame.
func (st *Store) Names() []string {
	st.filesLock.Lock()
	defer st.filesLock.Unlock()
	out := make([]string, 0, len(st.files))
	for name := range st.files {
		out = append(out, name)
	}
	return out
}

// Create allocates a new, empty file. Fails with FILE_EXISTS if the name
// is already in use.
func (st *Store) Create(name string) error {
	st.filesLock.Lock()
	if _, ok := st.files[name]; ok {
		st.filesLock.Unlock()
		return cmn.NewCodeError(cmn.ErrFileExists, "file %q already exists", name)
	}
	f := newFile(name, st.cfg.UndoRingCap)
	st.files[name] = f
	st.filesLock.Unlock()
	return st.persist(f)
}

// Delete removes a file, its checkpoint tree, and persisted content.
func (st *Store) Delete(name string) error {
	st.filesLock.Lock()
	_, ok := st.files[name]
	if !ok {
		st.filesLock.Unlock()
		return cmn.NewCodeError(cmn.ErrFileNotFound, "file %q not found", name)
	}
	delete(st.files, name)
	st.filesLock.Unlock()

	st.removeCheckpoints(name)
	return st.removeOnDisk(name)
}

// Rename performs a flat-namespace rename of the SS-side file. It does no
// owner check; the NM checks ownership and re-keys its trie before
// forwarding RENAME.
func (st *Store) Rename(oldName, newName string) error {
	st.filesLock.Lock()
	if _, exists := st.files[newName]; exists {
		st.filesLock.Unlock()
		return cmn.NewCodeError(cmn.ErrFileExists, "file %q already exists", newName)
	}
	f, ok := st.files[oldName]
	if !ok {
		st.filesLock.Unlock()
		return cmn.NewCodeError(cmn.ErrFileNotFound, "file %q not found", oldName)
	}
	delete(st.files, oldName)
	f.Name = newName
	st.files[newName] = f
	st.filesLock.Unlock()

	_ = st.removeOnDisk(oldName)
	return st.persist(f)
}
