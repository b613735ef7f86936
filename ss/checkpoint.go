// SS checkpoints: named on-disk snapshots under a per-file checkpoint
// directory.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ss

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	lz4 "github.com/pierrec/lz4/v3"

	"github.com/wordstore/wordstore/cmn"
)

var tagRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidCheckpointTag reports whether tag matches [A-Za-z0-9_.-]+.
func ValidCheckpointTag(tag string) bool {
	return tag != "" && tagRe.MatchString(tag)
}

func (st *Store) checkpointDir(filename string) string {
	return filepath.Join(st.cfg.StorageDir, "checkpoints", filename)
}

func (st *Store) checkpointPath(filename, tag string) string {
	return filepath.Join(st.checkpointDir(filename), tag+".chk")
}

// Checkpoint writes canonical bytes, lz4-compressed, to
// storage/checkpoints/<file>/<tag>.chk. Refuses with FILE_EXISTS if the
// snapshot already exists.
func (st *Store) Checkpoint(filename, tag string) error {
	if !ValidCheckpointTag(tag) {
		return cmn.NewCodeError(cmn.ErrInvalidOperation, "invalid checkpoint tag %q", tag)
	}
	f, err := st.get(filename)
	if err != nil {
		return err
	}
	path := st.checkpointPath(filename, tag)
	if _, err := os.Stat(path); err == nil {
		return cmn.NewCodeError(cmn.ErrFileExists, "checkpoint %q already exists", tag)
	}
	f.FLock.RLock()
	canonical := rebuildFile(f)
	f.FLock.RUnlock()

	if err := os.MkdirAll(st.checkpointDir(filename), 0o755); err != nil {
		return cmn.NewCodeError(cmn.ErrSystem, "mkdir checkpoints: %v", err)
	}
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write([]byte(canonical)); err != nil {
		return cmn.NewCodeError(cmn.ErrSystem, "compress checkpoint: %v", err)
	}
	if err := zw.Close(); err != nil {
		return cmn.NewCodeError(cmn.ErrSystem, "compress checkpoint: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return cmn.NewCodeError(cmn.ErrSystem, "write checkpoint: %v", err)
	}
	return nil
}

// readCheckpoint decompresses and returns a checkpoint's canonical bytes.
func (st *Store) readCheckpoint(filename, tag string) (string, error) {
	path := st.checkpointPath(filename, tag)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", cmn.NewCodeError(cmn.ErrFileNotFound, "checkpoint %q not found", tag)
		}
		return "", cmn.NewCodeError(cmn.ErrSystem, "read checkpoint: %v", err)
	}
	zr := lz4.NewReader(bytes.NewReader(raw))
	decoded, err := io.ReadAll(zr)
	if err != nil {
		return "", cmn.NewCodeError(cmn.ErrSystem, "decompress checkpoint: %v", err)
	}
	return string(decoded), nil
}

// maxViewCheckpoint bounds the bytes returned by VIEWCHECKPOINT so a huge
// snapshot can't blow past the line-protocol's practical frame size.
const maxViewCheckpoint = 64 * 1024

// ViewCheckpoint renders a checkpoint's content, truncating with a marker
// if it overflows maxViewCheckpoint.
func (st *Store) ViewCheckpoint(filename, tag string) (string, error) {
	content, err := st.readCheckpoint(filename, tag)
	if err != nil {
		return "", err
	}
	if len(content) > maxViewCheckpoint {
		return content[:maxViewCheckpoint] + "...[truncated]", nil
	}
	return content, nil
}

// Revert loads a checkpoint back into the live file, first pushing the
// current content onto the undo ring so the revert itself can be undone.
func (st *Store) Revert(filename, tag string) error {
	content, err := st.readCheckpoint(filename, tag)
	if err != nil {
		return err
	}
	f, err := st.get(filename)
	if err != nil {
		return err
	}
	f.FLock.Lock()
	defer f.FLock.Unlock()
	f.SLock.Lock()
	current := rebuildFile(f)
	f.undo.push(filename, []byte(current))
	loadFromContent(f, content)
	f.LastModified = time.Now()
	f.SLock.Unlock()
	return st.persist(f)
}

type CheckpointInfo struct {
	Tag     string
	ModTime time.Time
}

// ListCheckpoints enumerates .chk files in the file's checkpoint directory
// with modification times.
func (st *Store) ListCheckpoints(filename string) ([]CheckpointInfo, error) {
	dir := st.checkpointDir(filename)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cmn.NewCodeError(cmn.ErrSystem, "list checkpoints: %v", err)
	}
	out := make([]CheckpointInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".chk" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, CheckpointInfo{Tag: e.Name()[:len(e.Name())-len(".chk")], ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.Before(out[j].ModTime) })
	return out, nil
}

// removeCheckpoints removes the entire checkpoint directory tree for a
// file, called on DELETE.
func (st *Store) removeCheckpoints(filename string) {
	_ = os.RemoveAll(st.checkpointDir(filename))
}
