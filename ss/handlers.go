// SS command handlers for the NM-forwarded control channel, plus the
// Info/Read/Undo store operations they call. The direct client commands
// (READ/STREAM/WRITE_LOCK/WRITE_UNLOCK/ETIRW) are dispatched in server.go
// since they carry per-connection session state.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ss

import (
	"fmt"
	"time"

	"github.com/wordstore/wordstore/cmn"
	"github.com/wordstore/wordstore/wire"
)

// Info is the INFO response payload: "SIZE:<bytes> WORDS:<n> CHARS:<n>[ LAST_ACCESS:<epoch>]".
type Info struct {
	Size, Words, Chars int
	LastAccess         time.Time
}

func (st *Store) Info(filename string) (Info, error) {
	f, err := st.get(filename)
	if err != nil {
		return Info{}, err
	}
	f.FLock.RLock()
	defer f.FLock.RUnlock()
	return Info{Size: f.Size, Words: f.WordCount, Chars: f.CharCount, LastAccess: f.LastAccessed}, nil
}

func (i Info) String() string {
	s := fmt.Sprintf("SIZE:%d WORDS:%d CHARS:%d", i.Size, i.Words, i.Chars)
	if !i.LastAccess.IsZero() {
		s += fmt.Sprintf(" LAST_ACCESS:%d", i.LastAccess.Unix())
	}
	return s
}

// Read returns a file's canonical content.
func (st *Store) Read(filename, accessor string) (string, error) {
	f, err := st.get(filename)
	if err != nil {
		return "", err
	}
	f.FLock.RLock()
	content := rebuildFile(f)
	f.FLock.RUnlock()
	f.SLock.Lock()
	f.LastAccessed = time.Now()
	f.LastAccessBy = accessor
	f.SLock.Unlock()
	return content, nil
}

// Undo pops the newest matching undo-ring entry and reloads the file from
// it.
func (st *Store) Undo(filename string) error {
	f, err := st.get(filename)
	if err != nil {
		return err
	}
	content, ok := f.undo.pop(filename)
	if !ok {
		return cmn.NewCodeError(cmn.ErrSystem, "undo history for %q is empty", filename)
	}
	f.FLock.Lock()
	f.SLock.Lock()
	loadFromContent(f, string(content))
	f.LastModified = time.Now()
	f.SLock.Unlock()
	f.FLock.Unlock()
	return st.persist(f)
}

// HandleControl dispatches the commands the NM forwards over the
// NM<->SS control channel : CREATE, DELETE, UNDO, INFO, READ,
// CHECKPOINT, VIEWCHECKPOINT, REVERT, LISTCHECKPOINTS, RENAME.
func (st *Store) HandleControl(cmd wire.Command) (tag, payload string) {
	switch cmd.Name {
	case "READ":
		if cmd.NArgs() < 1 {
			return wire.TagError, "usage: READ <name>"
		}
		content, err := st.Read(cmd.Arg(0), "")
		if err != nil {
			return wire.TagError, err.Error()
		}
		return wire.TagSuccess, content

	case "CREATE":
		if cmd.NArgs() < 1 {
			return wire.TagError, "usage: CREATE <name>"
		}
		if err := st.Create(cmd.Arg(0)); err != nil {
			return wire.TagError, err.Error()
		}
		return wire.TagSuccess, ""

	case "DELETE":
		if cmd.NArgs() < 1 {
			return wire.TagError, "usage: DELETE <name>"
		}
		if err := st.Delete(cmd.Arg(0)); err != nil {
			return wire.TagError, err.Error()
		}
		return wire.TagSuccess, ""

	case "RENAME":
		if cmd.NArgs() < 2 {
			return wire.TagError, "usage: RENAME <old> <new>"
		}
		if err := st.Rename(cmd.Arg(0), cmd.Arg(1)); err != nil {
			return wire.TagError, err.Error()
		}
		return wire.TagSuccess, ""

	case "UNDO":
		if cmd.NArgs() < 1 {
			return wire.TagError, "usage: UNDO <name>"
		}
		if err := st.Undo(cmd.Arg(0)); err != nil {
			return wire.TagError, err.Error()
		}
		return wire.TagSuccess, ""

	case "INFO":
		if cmd.NArgs() < 1 {
			return wire.TagError, "usage: INFO <name>"
		}
		info, err := st.Info(cmd.Arg(0))
		if err != nil {
			return wire.TagError, err.Error()
		}
		return wire.TagSuccess, info.String()

	case "CHECKPOINT":
		if cmd.NArgs() < 2 {
			return wire.TagError, "usage: CHECKPOINT <name> <tag>"
		}
		if err := st.Checkpoint(cmd.Arg(0), cmd.Arg(1)); err != nil {
			return wire.TagError, err.Error()
		}
		return wire.TagSuccess, ""

	case "VIEWCHECKPOINT":
		if cmd.NArgs() < 2 {
			return wire.TagError, "usage: VIEWCHECKPOINT <name> <tag>"
		}
		content, err := st.ViewCheckpoint(cmd.Arg(0), cmd.Arg(1))
		if err != nil {
			return wire.TagError, err.Error()
		}
		return wire.TagSuccess, content

	case "REVERT":
		if cmd.NArgs() < 2 {
			return wire.TagError, "usage: REVERT <name> <tag>"
		}
		if err := st.Revert(cmd.Arg(0), cmd.Arg(1)); err != nil {
			return wire.TagError, err.Error()
		}
		return wire.TagSuccess, ""

	case "LISTCHECKPOINTS":
		if cmd.NArgs() < 1 {
			return wire.TagError, "usage: LISTCHECKPOINTS <name>"
		}
		list, err := st.ListCheckpoints(cmd.Arg(0))
		if err != nil {
			return wire.TagError, err.Error()
		}
		payload := ""
		for i, c := range list {
			if i > 0 {
				payload += ";"
			}
			payload += fmt.Sprintf("%s:%d", c.Tag, c.ModTime.Unix())
		}
		return wire.TagSuccess, payload

	default:
		return wire.TagError, "unknown control command: " + cmd.Name
	}
}
