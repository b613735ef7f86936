// Server is the name server's connection acceptor: one worker goroutine
// per accepted socket, routed by its first line to either the SS
// registration protocol or the client command protocol.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nm

import (
	"context"
	"net"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/wordstore/wordstore/cmn"
	"github.com/wordstore/wordstore/cmn/config"
	"github.com/wordstore/wordstore/cmn/metrics"
	"github.com/wordstore/wordstore/cmn/nlog"
	"github.com/wordstore/wordstore/wire"
)

type Server struct {
	Router  *Router
	Cfg     *config.NMConfig
	Tracker *metrics.Tracker
}

func NewServer(cfg *config.NMConfig, store *MetaStore, users *UserRegistry, tracker *metrics.Tracker) *Server {
	rt := NewRouter(cfg, store, users)
	rt.Bootstrap()
	return &Server{Router: rt, Cfg: cfg, Tracker: tracker}
}

func (srv *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.accept(ctx) })
	return g.Wait()
}

func (srv *Server) accept(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", ":"+strconv.Itoa(srv.Cfg.Port))
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
			nlog.Warningf("nm: accept: %v", err)
			continue
		}
		go srv.handleConn(wire.NewConn(conn))
	}
}

// handleConn reads the mandatory first line and dispatches to the SS or
// client protocol; an unrecognized first command terminates the connection.
func (srv *Server) handleConn(c *wire.Conn) {
	line, err := c.ReadLine()
	if err != nil {
		c.Close()
		return
	}
	cmd := wire.ParseCommand(line)
	ip, _, _ := net.SplitHostPort(c.RemoteAddr().String())

	switch cmd.Name {
	case "REGISTER_SS":
		srv.serveSS(c, ip, cmd)
	case "REGISTER_CLIENT":
		srv.serveClient(c, ip, cmd)
	default:
		wire.WriteReply(c, cmn.ErrInvalidOperation, "first command must be REGISTER_SS or REGISTER_CLIENT")
		c.Close()
	}
}

func (srv *Server) serveSS(c *wire.Conn, ip string, cmd wire.Command) {
	defer c.Close()
	ss, err := srv.Router.SS.ControlLoop(ip, c, cmd)
	if err != nil {
		wire.WriteSSError(c, "%v", err)
		return
	}
	var files []string
	for name := range ss.files {
		files = append(files, name)
	}
	srv.Router.OnSSRegister(ss, files)
	defer srv.Router.SS.MarkInactive(ss)

	// The control channel itself is only ever read or written by Forward()
	// (ssconn.go), which serializes every NM->SS command/reply round trip.
	// This goroutine just waits for that channel to be torn down so the SS
	// can be marked inactive and a later reconnect recognized.
	ss.WaitClosed()
}

func (srv *Server) serveClient(c *wire.Conn, ip string, cmd wire.Command) {
	defer c.Close()
	if cmd.NArgs() < 1 {
		wire.WriteReply(c, cmn.ErrInvalidOperation, "usage: REGISTER_CLIENT <username> <nm_port> <ss_port>")
		return
	}
	user := cmd.Arg(0)
	srv.Router.Users.MarkActive(user, ip, true)
	defer srv.Router.Users.MarkActive(user, ip, false)
	wire.WriteOK(c, "registered as %s", user)

	for {
		line, err := c.ReadLine()
		if err != nil {
			return
		}
		req := wire.ParseCommand(line)
		if req.Name == "" {
			continue
		}
		if req.Name == "QUIT" {
			wire.WriteOK(c, "farewell %s", user)
			return
		}
		srv.Router.Dispatch(c, user, ip, req)
	}
}
