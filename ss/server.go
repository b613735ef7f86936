// SS server: one outbound, auto-reconnecting control channel to the NM and
// one inbound listener for direct client sessions (READ/STREAM/WRITE_LOCK/
// ETIRW/WRITE_UNLOCK).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ss

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wordstore/wordstore/cmn/config"
	"github.com/wordstore/wordstore/cmn/cos"
	"github.com/wordstore/wordstore/cmn/metrics"
	"github.com/wordstore/wordstore/cmn/nlog"
	"github.com/wordstore/wordstore/wire"
)

// Server owns a Store and the two connections/listeners that front it.
type Server struct {
	Store   *Store
	Cfg     *config.SSConfig
	Tracker *metrics.Tracker
}

func NewServer(cfg *config.SSConfig, tracker *metrics.Tracker) *Server {
	st := NewStore(cfg)
	st.LoadAll()
	return &Server{Store: st, Cfg: cfg, Tracker: tracker}
}

// Run blocks until ctx is canceled or either loop returns a fatal error.
func (srv *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.connectNM(ctx) })
	g.Go(func() error { return srv.serveClients(ctx) })
	return g.Wait()
}

// connectNM dials the NM, registers this SS's client-facing address and
// served file names, then services commands the NM forwards over the same
// socket until it drops -- at which point it redials with backoff. The NM
// treats a closed control socket as SS_DISCONNECTED and marks this server
// inactive until the next successful registration.
func (srv *Server) connectNM(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", srv.Cfg.NMHost, srv.Cfg.NMPort))
		if err != nil {
			nlog.Warningf("ss: dial nm %s:%d: %v", srv.Cfg.NMHost, srv.Cfg.NMPort, err)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		c := wire.NewConn(conn)
		if err := srv.register(c); err != nil {
			nlog.Warningf("ss: register with nm: %v", err)
			conn.Close()
			time.Sleep(time.Second)
			continue
		}
		nlog.Infof("ss: registered with nm at %s:%d", srv.Cfg.NMHost, srv.Cfg.NMPort)
		srv.controlLoop(c)
		conn.Close()
		nlog.Warningf("ss: control channel to nm dropped, reconnecting")
	}
}

func (srv *Server) register(c *wire.Conn) error {
	names := srv.Store.Names()
	line := fmt.Sprintf("REGISTER_SS %d %d %d", srv.Cfg.NMPort, srv.Cfg.ClientPort, len(names))
	for _, n := range names {
		line += " " + n
	}
	return c.WriteLine(line)
}

// controlLoop reads forwarded commands until the socket errors or the NM
// closes it.
func (srv *Server) controlLoop(c *wire.Conn) {
	for {
		line, err := c.ReadLine()
		if err != nil {
			return
		}
		cmd := wire.ParseCommand(line)
		if cmd.Name == "" {
			continue
		}
		start := time.Now()
		tag, payload := srv.Store.HandleControl(cmd)
		if srv.Tracker != nil {
			srv.Tracker.Requests.WithLabelValues(cmd.Name).Inc()
			srv.Tracker.Latency.WithLabelValues(cmd.Name).Observe(time.Since(start).Seconds())
			if tag == wire.TagError {
				srv.Tracker.Errors.WithLabelValues(cmd.Name).Inc()
			}
		}
		if werr := wire.WriteTagPayload(c, tag, payload); werr != nil {
			return
		}
	}
}

// serveClients accepts direct client connections on ClientPort: one
// goroutine per connection, matching the one-worker-per-socket model used
// throughout.
func (srv *Server) serveClients(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", srv.Cfg.ClientPort))
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			nlog.Warningf("ss: accept client: %v", err)
			continue
		}
		go srv.handleClient(wire.NewConn(conn))
	}
}

func (srv *Server) handleClient(c *wire.Conn) {
	defer c.Close()
	clientID := cos.GenClientID()
	var session *Session
	defer func() {
		if session != nil && session.Uncommitted() {
			session.Unlock()
		}
	}()

	for {
		line, err := c.ReadLine()
		if err != nil {
			return
		}
		cmd := wire.ParseCommand(line)
		switch cmd.Name {
		case "READ":
			content, err := srv.Store.Read(cmd.Arg(0), clientID)
			if err != nil {
				wire.WriteSSError(c, "%v", err)
				continue
			}
			wire.WriteTagPayload(c, wire.TagSuccess, content)

		case "STREAM":
			if err := srv.Store.Stream(c, cmd.Arg(0)); err != nil {
				wire.WriteSSError(c, "%v", err)
			}

		case "WRITE_LOCK", "WRITE":
			if session != nil {
				wire.WriteSSError(c, "session already open")
				continue
			}
			idx, err := strconv.Atoi(cmd.Arg(1))
			if err != nil {
				wire.WriteSSError(c, "bad sentence index %q", cmd.Arg(1))
				continue
			}
			s, err := srv.Store.Lock(cmd.Arg(0), idx, clientID)
			if err != nil {
				wire.WriteSSError(c, "%v", err)
				continue
			}
			session = s
			wire.WriteTag(c, wire.TagLocked)

		case "WRITE_UNLOCK":
			if session == nil {
				wire.WriteSSError(c, "no open session")
				continue
			}
			session.Unlock()
			session = nil
			wire.WriteTag(c, wire.TagUnlock)

		case "ETIRW":
			if session == nil {
				wire.WriteSSError(c, "no open session")
				continue
			}
			if err := session.Commit(); err != nil {
				wire.WriteSSError(c, "%v", err)
				continue
			}
			wire.WriteTag(c, wire.TagSuccess)

		default:
			if session != nil {
				if err := handleSessionLine(session, cmd); err != nil {
					wire.WriteSSError(c, "%v", err)
					continue
				}
				wire.WriteTag(c, wire.TagSuccess)
				continue
			}
			wire.WriteSSError(c, "unknown command: %s", cmd.Name)
		}
	}
}

// handleSessionLine parses a "<word_index> <content>" draft edit line.
func handleSessionLine(s *Session, cmd wire.Command) error {
	idx, err := strconv.Atoi(cmd.Name)
	if err != nil {
		return fmt.Errorf("unrecognized session command: %s", cmd.Name)
	}
	return s.Edit(idx, cmd.Rest(0))
}
