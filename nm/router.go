// Router implements the client-facing command table: file lifecycle,
// redirects to SS for data-plane ops, ACL management, EXEC, and the user
// listing -- everything a REGISTER_CLIENT connection can issue.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nm

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wordstore/wordstore/cmn"
	"github.com/wordstore/wordstore/cmn/config"
	"github.com/wordstore/wordstore/wire"
)

// Router holds every piece of server-wide state a client command needs.
type Router struct {
	Trie     *Trie
	Cache    *LRUCache
	SS       *SSRegistry
	Users    *UserRegistry
	Store    *MetaStore
	Cfg      *config.NMConfig
	infoOnce singleflight.Group // collapses concurrent INFO on the same file
}

func NewRouter(cfg *config.NMConfig, store *MetaStore, users *UserRegistry) *Router {
	return &Router{
		Trie:  NewTrie(),
		Cache: NewLRUCache(cfg.CacheCap),
		SS:    NewSSRegistry(),
		Users: users,
		Store: store,
		Cfg:   cfg,
	}
}

// Bootstrap repopulates the trie from the metadata store at startup.
func (rt *Router) Bootstrap() {
	for _, m := range rt.Store.LoadAll() {
		rt.Trie.Insert(m.Name, m)
	}
}

// lookup resolves name via cache, then trie, populating the cache on a
// trie hit.
func (rt *Router) lookup(name string) *FileMeta {
	if m := rt.Cache.Get(name); m != nil {
		return m
	}
	m := rt.Trie.Get(name)
	if m != nil {
		rt.Cache.Put(name, m)
	}
	return m
}

// OnSSRegister reconciles the trie with the file list a (re)connecting SS
// just announced: existing entries are re-pointed at this SS id; names with
// no prior metadata get a record with no owner; no command assigns one later.
func (rt *Router) OnSSRegister(ss *SSConn, files []string) {
	for _, name := range files {
		m := rt.lookup(name)
		if m == nil {
			m = newFileMeta(name, "", ss.ID)
			rt.Trie.Insert(name, m)
			_ = rt.Store.Save(m)
			continue
		}
		m.mu.Lock()
		m.SSID = ss.ID
		m.mu.Unlock()
		_ = rt.Store.Save(m)
	}
}

// Dispatch handles one client request line, replying over c with the
// NM-side "<code>:<message>" frame.
func (rt *Router) Dispatch(c *wire.Conn, user, clientIP string, cmd wire.Command) {
	switch cmd.Name {
	case "CREATE":
		rt.handleCreate(c, user, cmd)
	case "DELETE":
		rt.handleDelete(c, user, cmd)
	case "READ", "STREAM":
		rt.handleRedirect(c, user, cmd, AccessRead)
	case "WRITE":
		rt.handleWrite(c, user, cmd)
	case "UNDO":
		rt.handleForwardSimple(c, user, cmd, AccessWrite, "UNDO")
	case "INFO":
		rt.handleInfo(c, user, cmd)
	case "EXEC":
		rt.handleExec(c, user, cmd)
	case "RENAME":
		rt.handleRename(c, user, cmd)
	case "ADDACCESS":
		rt.handleAddAccess(c, user, cmd)
	case "REMACCESS":
		rt.handleRemoveAccess(c, user, cmd)
	case "REQACCESS":
		rt.handleRequestAccess(c, user, cmd)
	case "LISTREQUESTS":
		rt.handleListRequests(c, user, cmd)
	case "PROCESSREQUEST":
		rt.handleProcessRequest(c, user, cmd)
	case "CHECKPOINT", "VIEWCHECKPOINT", "REVERT", "LISTCHECKPOINTS":
		rt.handleForwardVariadic(c, user, cmd, AccessWrite)
	case "VIEW":
		rt.handleViewFiles(c, cmd)
	case "LIST":
		rt.handleListUsers(c)
	default:
		wire.WriteReply(c, cmn.ErrInvalidOperation, "unknown command %s", cmd.Name)
	}
}

func (rt *Router) handleCreate(c *wire.Conn, user string, cmd wire.Command) {
	name := cmd.Arg(0)
	if name == "" {
		wire.WriteReply(c, cmn.ErrInvalidOperation, "usage: CREATE <name>")
		return
	}
	if rt.lookup(name) != nil {
		wire.WriteReply(c, cmn.ErrFileExists, "file %q already exists", name)
		return
	}
	candidates := RankSS(name, rt.SS.Active())
	if len(candidates) == 0 {
		wire.WriteReply(c, cmn.ErrSSNotFound, "no storage server available")
		return
	}
	// Walk candidates in HRW order, falling over to the next one on
	// transport failure. An SS-side FILE_EXISTS reply is definitive and
	// returned immediately without trying the rest.
	var lastErr error
	for _, ssID := range candidates {
		ss := rt.SS.Get(ssID)
		if ss == nil {
			continue
		}
		tag, payload, err := rt.SS.Forward(ss, "CREATE "+name)
		if err != nil {
			lastErr = err
			continue
		}
		if tag == wire.TagError {
			if strings.HasPrefix(payload, cmn.ErrFileExists.String()) {
				wire.WriteReply(c, cmn.ErrFileExists, "file %q already exists", name)
				return
			}
			wire.WriteReply(c, cmn.ErrSystem, "%s", payload)
			return
		}
		m := newFileMeta(name, user, ssID)
		rt.Trie.Insert(name, m)
		rt.Cache.Put(name, m)
		_ = rt.Store.Save(m)
		wire.WriteOK(c, "created %s", name)
		return
	}
	if lastErr != nil {
		wire.WriteReply(c, cmn.ErrSSNotFound, "no storage server could create %q: %v", name, lastErr)
		return
	}
	wire.WriteReply(c, cmn.ErrSSNotFound, "no storage server available")
}

func (rt *Router) handleDelete(c *wire.Conn, user string, cmd wire.Command) {
	name := cmd.Arg(0)
	m := rt.lookup(name)
	if m == nil {
		wire.WriteReply(c, cmn.ErrFileNotFound, "file %q not found", name)
		return
	}
	if CheckAccess(m, user) < AccessWrite {
		wire.WriteReply(c, cmn.ErrPermissionDenied, "write access required")
		return
	}
	ss := rt.SS.Get(m.SSID)
	if ss != nil {
		if _, _, err := rt.SS.Forward(ss, "DELETE "+name); err != nil {
			wire.WriteErr(c, err)
			return
		}
	}
	rt.Trie.Delete(name)
	rt.Cache.Remove(name)
	_ = rt.Store.Delete(name)
	wire.WriteOK(c, "deleted %s", name)
}

func (rt *Router) handleRedirect(c *wire.Conn, user string, cmd wire.Command, need AccessRight) {
	name := cmd.Arg(0)
	m := rt.lookup(name)
	if m == nil {
		wire.WriteReply(c, cmn.ErrFileNotFound, "file %q not found", name)
		return
	}
	if need > AccessNone && CheckAccess(m, user) < need {
		wire.WriteReply(c, cmn.ErrPermissionDenied, "insufficient access")
		return
	}
	ss := rt.SS.Get(m.SSID)
	if ss == nil || !ss.active {
		wire.WriteReply(c, cmn.ErrSSDisconnected, "storage server for %q is unavailable", name)
		return
	}
	m.mu.Lock()
	m.LastAccessed = time.Now()
	m.mu.Unlock()
	wire.WriteOK(c, "SS_INFO %s %d", ss.IP, ss.ClientPort)
}

func (rt *Router) handleWrite(c *wire.Conn, user string, cmd wire.Command) {
	rt.handleRedirect(c, user, cmd, AccessWrite)
}

func (rt *Router) handleForwardSimple(c *wire.Conn, user string, cmd wire.Command, need AccessRight, verb string) {
	name := cmd.Arg(0)
	m := rt.lookup(name)
	if m == nil {
		wire.WriteReply(c, cmn.ErrFileNotFound, "file %q not found", name)
		return
	}
	if CheckAccess(m, user) < need {
		wire.WriteReply(c, cmn.ErrPermissionDenied, "insufficient access")
		return
	}
	ss := rt.SS.Get(m.SSID)
	if ss == nil {
		wire.WriteReply(c, cmn.ErrSSNotFound, "no storage server for %q", name)
		return
	}
	tag, payload, err := rt.SS.Forward(ss, verb+" "+name)
	if err != nil {
		wire.WriteErr(c, err)
		return
	}
	if tag == wire.TagError {
		wire.WriteReply(c, cmn.ErrSystem, "%s", payload)
		return
	}
	wire.WriteOK(c, "%s", payload)
}

// handleForwardVariadic forwards CHECKPOINT/VIEWCHECKPOINT/REVERT/
// LISTCHECKPOINTS, whose argument count varies by verb.
func (rt *Router) handleForwardVariadic(c *wire.Conn, user string, cmd wire.Command, need AccessRight) {
	name := cmd.Arg(0)
	m := rt.lookup(name)
	if m == nil {
		wire.WriteReply(c, cmn.ErrFileNotFound, "file %q not found", name)
		return
	}
	if CheckAccess(m, user) < need {
		wire.WriteReply(c, cmn.ErrPermissionDenied, "insufficient access")
		return
	}
	ss := rt.SS.Get(m.SSID)
	if ss == nil {
		wire.WriteReply(c, cmn.ErrSSNotFound, "no storage server for %q", name)
		return
	}
	line := cmd.Name + " " + strings.Join(cmd.Args, " ")
	tag, payload, err := rt.SS.Forward(ss, line)
	if err != nil {
		wire.WriteErr(c, err)
		return
	}
	if tag == wire.TagError {
		wire.WriteReply(c, cmn.ErrSystem, "%s", payload)
		return
	}
	wire.WriteOK(c, "%s", payload)
}

func (rt *Router) handleRename(c *wire.Conn, user string, cmd wire.Command) {
	oldName, newName := cmd.Arg(0), cmd.Arg(1)
	m := rt.lookup(oldName)
	if m == nil {
		wire.WriteReply(c, cmn.ErrFileNotFound, "file %q not found", oldName)
		return
	}
	if !IsOwner(m, user) {
		wire.WriteReply(c, cmn.ErrPermissionDenied, "only the owner may rename")
		return
	}
	if rt.lookup(newName) != nil {
		wire.WriteReply(c, cmn.ErrFileExists, "file %q already exists", newName)
		return
	}
	ss := rt.SS.Get(m.SSID)
	if ss != nil {
		if _, _, err := rt.SS.Forward(ss, "RENAME "+oldName+" "+newName); err != nil {
			wire.WriteErr(c, err)
			return
		}
	}
	rt.Trie.Rename(oldName, newName)
	rt.Cache.Remove(oldName)
	_ = rt.Store.Delete(oldName)
	_ = rt.Store.Save(m)
	wire.WriteOK(c, "renamed to %s", newName)
}

// handleInfo collapses concurrent INFO calls for the same file into one SS
// round trip via singleflight, then refreshes the cached stats.
func (rt *Router) handleInfo(c *wire.Conn, user string, cmd wire.Command) {
	name := cmd.Arg(0)
	m := rt.lookup(name)
	if m == nil {
		wire.WriteReply(c, cmn.ErrFileNotFound, "file %q not found", name)
		return
	}
	if CheckAccess(m, user) == AccessNone {
		wire.WriteReply(c, cmn.ErrPermissionDenied, "insufficient access")
		return
	}
	ss := rt.SS.Get(m.SSID)
	if ss == nil {
		wire.WriteReply(c, cmn.ErrSSNotFound, "no storage server for %q", name)
		return
	}
	v, err, _ := rt.infoOnce.Do(name, func() (any, error) {
		tag, payload, ferr := rt.SS.Forward(ss, "INFO "+name)
		if ferr != nil {
			return nil, ferr
		}
		if tag == wire.TagError {
			return nil, cmn.NewCodeError(cmn.ErrSystem, "%s", payload)
		}
		return payload, nil
	})
	if err != nil {
		wire.WriteErr(c, err)
		return
	}
	payload := v.(string)
	applyInfoPayload(m, payload)
	_ = rt.Store.Save(m)
	wire.WriteOK(c, "%s owner=%s", payload, m.Owner)
}

func applyInfoPayload(m *FileMeta, payload string) {
	for _, field := range strings.Fields(payload) {
		kv := strings.SplitN(field, ":", 2)
		if len(kv) != 2 {
			continue
		}
		n, err := strconv.Atoi(kv[1])
		if err != nil {
			continue
		}
		m.mu.Lock()
		switch kv[0] {
		case "SIZE":
			m.Size = n
		case "WORDS":
			m.WordCount = n
		case "CHARS":
			m.CharCount = n
		}
		m.mu.Unlock()
	}
}

// handleExec fetches a file's content from its SS, runs it through the
// host shell, and streams back exit status plus captured output.
func (rt *Router) handleExec(c *wire.Conn, user string, cmd wire.Command) {
	name := cmd.Arg(0)
	m := rt.lookup(name)
	if m == nil {
		wire.WriteReply(c, cmn.ErrFileNotFound, "file %q not found", name)
		return
	}
	if CheckAccess(m, user) < AccessRead {
		wire.WriteReply(c, cmn.ErrPermissionDenied, "insufficient access")
		return
	}
	ss := rt.SS.Get(m.SSID)
	if ss == nil {
		wire.WriteReply(c, cmn.ErrSSNotFound, "no storage server for %q", name)
		return
	}
	tag, payload, err := rt.SS.Forward(ss, "READ "+name)
	if err != nil {
		wire.WriteErr(c, err)
		return
	}
	if tag == wire.TagError {
		wire.WriteReply(c, cmn.ErrSystem, "%s", payload)
		return
	}
	out, runErr := exec.Command("sh", "-c", payload).CombinedOutput()
	if runErr != nil {
		wire.WriteOK(c, "Command terminated abnormally\nOutput:\n%s", string(out))
		return
	}
	wire.WriteOK(c, "Exit code: 0\nOutput:\n%s", string(out))
}

func (rt *Router) handleAddAccess(c *wire.Conn, user string, cmd wire.Command) {
	name, target, rightStr := cmd.Arg(0), cmd.Arg(1), cmd.Arg(2)
	m := rt.lookup(name)
	if m == nil {
		wire.WriteReply(c, cmn.ErrFileNotFound, "file %q not found", name)
		return
	}
	right := parseRight(rightStr)
	if err := AddAccess(m, user, target, right); err != nil {
		wire.WriteErr(c, err)
		return
	}
	_ = rt.Store.Save(m)
	wire.WriteOK(c, "granted %s %s on %s", target, right, name)
}

func (rt *Router) handleRemoveAccess(c *wire.Conn, user string, cmd wire.Command) {
	name, target := cmd.Arg(0), cmd.Arg(1)
	m := rt.lookup(name)
	if m == nil {
		wire.WriteReply(c, cmn.ErrFileNotFound, "file %q not found", name)
		return
	}
	if err := RemoveAccess(m, user, target); err != nil {
		wire.WriteErr(c, err)
		return
	}
	_ = rt.Store.Save(m)
	wire.WriteOK(c, "revoked access for %s on %s", target, name)
}

func (rt *Router) handleRequestAccess(c *wire.Conn, user string, cmd wire.Command) {
	name, rightStr := cmd.Arg(0), cmd.Arg(1)
	m := rt.lookup(name)
	if m == nil {
		wire.WriteReply(c, cmn.ErrFileNotFound, "file %q not found", name)
		return
	}
	if err := RequestAccess(m, user, parseRight(rightStr)); err != nil {
		wire.WriteErr(c, err)
		return
	}
	_ = rt.Store.Save(m)
	wire.WriteOK(c, "requested %s on %s", rightStr, name)
}

func (rt *Router) handleListRequests(c *wire.Conn, user string, cmd wire.Command) {
	name := cmd.Arg(0)
	m := rt.lookup(name)
	if m == nil {
		wire.WriteReply(c, cmn.ErrFileNotFound, "file %q not found", name)
		return
	}
	if !IsOwner(m, user) {
		wire.WriteReply(c, cmn.ErrPermissionDenied, "only the owner may list requests")
		return
	}
	pending := ListPending(m)
	lines := make([]string, len(pending))
	for i, p := range pending {
		lines[i] = fmt.Sprintf("%s %s", p.User, p.Right)
	}
	wire.WriteOK(c, "%s", strings.Join(lines, ";"))
}

func (rt *Router) handleProcessRequest(c *wire.Conn, user string, cmd wire.Command) {
	name, target, decision := cmd.Arg(0), cmd.Arg(1), strings.ToUpper(cmd.Arg(2))
	m := rt.lookup(name)
	if m == nil {
		wire.WriteReply(c, cmn.ErrFileNotFound, "file %q not found", name)
		return
	}
	if !IsOwner(m, user) {
		wire.WriteReply(c, cmn.ErrPermissionDenied, "only the owner may process requests")
		return
	}
	if err := ProcessRequest(m, user, target, decision == "APPROVE"); err != nil {
		wire.WriteErr(c, err)
		return
	}
	_ = rt.Store.Save(m)
	wire.WriteOK(c, "processed request from %s: %s", target, decision)
}

func (rt *Router) handleViewFiles(c *wire.Conn, cmd wire.Command) {
	flags := cmd.Arg(0)
	var lines []string
	rt.Trie.Walk(func(name string, m *FileMeta) {
		lines = append(lines, formatFileInfo(m, flags == "detailed"))
	})
	wire.WriteOK(c, "%s", strings.Join(lines, ";"))
}

func formatFileInfo(m *FileMeta, detailed bool) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !detailed {
		return m.Name
	}
	return fmt.Sprintf("%s owner=%s size=%d words=%d", m.Name, m.Owner, m.Size, m.WordCount)
}

func (rt *Router) handleListUsers(c *wire.Conn) {
	users := rt.Users.List()
	var lines []string
	for _, u := range users {
		lines = append(lines, fmt.Sprintf("%s active=%t", u.User, u.Active))
	}
	wire.WriteOK(c, "%s", strings.Join(lines, ";"))
}

func parseRight(s string) AccessRight {
	switch strings.ToUpper(s) {
	case "WRITE":
		return AccessWrite
	case "READ":
		return AccessRead
	default:
		return AccessNone
	}
}
