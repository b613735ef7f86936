// SS persistence: atomic file rewrite on mutation, directory scan on boot.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ss

import (
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"

	"github.com/wordstore/wordstore/cmn"
	"github.com/wordstore/wordstore/cmn/nlog"
)

func (st *Store) filePath(name string) string {
	return filepath.Join(st.cfg.StorageDir, name)
}

// persist serializes f's canonical bytes and atomically rewrites its file
// on disk: write to a temp file in the same directory, flock it, then
// rename over the target.
func (st *Store) persist(f *File) error {
	f.FLock.RLock()
	canonical := rebuildFile(f)
	f.FLock.RUnlock()

	if err := os.MkdirAll(st.cfg.StorageDir, 0o755); err != nil {
		return cmn.NewCodeError(cmn.ErrSystem, "mkdir storage dir: %v", err)
	}
	path := st.filePath(f.Name)
	tmp := path + ".tmp"
	if err := writeFileLocked(tmp, []byte(canonical)); err != nil {
		return cmn.NewCodeError(cmn.ErrSystem, "write %s: %v", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return cmn.NewCodeError(cmn.ErrSystem, "rename %s: %v", path, err)
	}
	return nil
}

func (st *Store) removeOnDisk(name string) error {
	err := os.Remove(st.filePath(name))
	if err != nil && !os.IsNotExist(err) {
		return cmn.NewCodeError(cmn.ErrSystem, "remove %s: %v", name, err)
	}
	return nil
}

// LoadAll enumerates ./storage via a fast directory walk and loads each
// regular file via parseContent. Per-file errors are logged
// and skipped; they never abort startup.
func (st *Store) LoadAll() {
	if _, err := os.Stat(st.cfg.StorageDir); os.IsNotExist(err) {
		return
	}
	err := godirwalk.Walk(st.cfg.StorageDir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			name := filepath.Base(path)
			if filepath.Dir(path) != filepath.Clean(st.cfg.StorageDir) {
				return nil // skip the checkpoints/ subtree
			}
			if filepath.Ext(name) == ".tmp" {
				return nil
			}
			raw, rerr := os.ReadFile(path)
			if rerr != nil {
				nlog.Warningf("ss: boot: skip %s: %v", path, rerr)
				return nil
			}
			f := newFile(name, st.cfg.UndoRingCap)
			f.SLock.Lock()
			loadFromContent(f, string(raw))
			f.SLock.Unlock()
			st.filesLock.Lock()
			st.files[name] = f
			st.filesLock.Unlock()
			return nil
		},
	})
	if err != nil {
		nlog.Warningf("ss: boot scan of %s: %v", st.cfg.StorageDir, err)
	}
}
