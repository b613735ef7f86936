// Storage-server bookkeeping: the registry of active SS connections the NM
// forwards commands over, keyed by (ip, client_port) so a reconnecting SS
// is recognized and reuses its previous id rather than minting a new one.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nm

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/wordstore/wordstore/cmn"
	"github.com/wordstore/wordstore/cmn/nlog"
	"github.com/wordstore/wordstore/wire"
)

// SSConn is one registered storage server: its control socket and the
// files it last announced.
type SSConn struct {
	ID         string
	IP         string
	NMPort     int
	ClientPort int

	mu     sync.Mutex // serializes forwarded requests; one in flight at a time
	conn   *wire.Conn
	active bool
	files  map[string]bool
	closed chan struct{} // closed exactly once when conn dies, wakes the accepting goroutine
}

func ssKey(ip string, clientPort int) string { return fmt.Sprintf("%s:%d", ip, clientPort) }

// SSRegistry tracks every storage server that has ever registered.
type SSRegistry struct {
	mu    sync.Mutex
	byKey map[string]*SSConn // (ip, client_port) -> conn, survives reconnects
}

func NewSSRegistry() *SSRegistry {
	return &SSRegistry{byKey: make(map[string]*SSConn)}
}

// Register binds a freshly accepted control connection to an SSConn,
// reusing the existing entry (and id) if this (ip, client_port) has
// registered before; otherwise it allocates a new one.
func (r *SSRegistry) Register(ip string, nmPort, clientPort int, files []string, c *wire.Conn) *SSConn {
	key := ssKey(ip, clientPort)
	r.mu.Lock()
	defer r.mu.Unlock()
	ss, ok := r.byKey[key]
	if !ok {
		ss = &SSConn{ID: key, IP: ip, NMPort: nmPort, ClientPort: clientPort}
		r.byKey[key] = ss
	}
	ss.mu.Lock()
	ss.conn = c
	ss.active = true
	ss.closed = make(chan struct{})
	ss.files = make(map[string]bool, len(files))
	for _, f := range files {
		ss.files[f] = true
	}
	ss.mu.Unlock()
	return ss
}

// MarkInactive flags ss as disconnected; existing file placements are kept
// so a later READ can still report SS_DISCONNECTED instead of FILE_NOT_FOUND.
func (r *SSRegistry) MarkInactive(ss *SSConn) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	closeSSLocked(ss)
}

// closeSSLocked marks ss inactive and wakes anyone blocked on ss.closed.
// Caller must hold ss.mu. Safe to call more than once per registration.
func closeSSLocked(ss *SSConn) {
	if ss.active {
		ss.active = false
		ss.conn = nil
		close(ss.closed)
	}
}

// Active returns the ids of every currently connected storage server.
func (r *SSRegistry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.byKey))
	for id, ss := range r.byKey {
		ss.mu.Lock()
		active := ss.active
		ss.mu.Unlock()
		if active {
			out = append(out, id)
		}
	}
	return out
}

func (r *SSRegistry) Get(id string) *SSConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byKey[id]
}

// WaitClosed blocks until ss's current connection is marked inactive,
// either by Forward() observing a write/read error or by an explicit
// MarkInactive call. The accepting goroutine uses this instead of reading
// the socket itself, since Forward already owns all reads and writes on it.
func (ss *SSConn) WaitClosed() {
	ss.mu.Lock()
	ch := ss.closed
	ss.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

// Forward sends cmd to ss over its control channel and waits for the
// SS-tag reply. Only one forwarded request is in flight per SS at a time.
func (r *SSRegistry) Forward(ss *SSConn, line string) (tag, payload string, err error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if !ss.active || ss.conn == nil {
		return "", "", cmn.NewCodeError(cmn.ErrSSDisconnected, "storage server %s is not connected", ss.ID)
	}
	if werr := ss.conn.WriteLine(line); werr != nil {
		closeSSLocked(ss)
		return "", "", cmn.NewCodeError(cmn.ErrSSDisconnected, "storage server %s: %v", ss.ID, werr)
	}
	resp, rerr := ss.conn.ReadLine()
	if rerr != nil {
		closeSSLocked(ss)
		return "", "", cmn.NewCodeError(cmn.ErrSSDisconnected, "storage server %s: %v", ss.ID, rerr)
	}
	tag, payload = wire.ParseTag(resp)
	return tag, payload, nil
}

// ControlLoop parses one SS's REGISTER_SS line and registers it, returning
// the SSConn. It does not read the connection further or mark it inactive.
func (r *SSRegistry) ControlLoop(ip string, c *wire.Conn, cmd wire.Command) (*SSConn, error) {
	if cmd.NArgs() < 3 {
		return nil, cmn.NewCodeError(cmn.ErrSystem, "malformed REGISTER_SS")
	}
	nmPort := atoiOr(cmd.Arg(0), 0)
	clientPort := atoiOr(cmd.Arg(1), 0)
	n := atoiOr(cmd.Arg(2), 0)
	var files []string
	for i := 0; i < n && 3+i < cmd.NArgs(); i++ {
		files = append(files, cmd.Arg(3+i))
	}
	ss := r.Register(ip, nmPort, clientPort, files, c)
	nlog.Infof("nm: registered ss %s serving %d file(s)", ss.ID, len(files))
	return ss, nil
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
