// Client connection lifecycle: REGISTER_CLIENT handshake and QUIT farewell.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nm

import (
	"net"
	"testing"

	"github.com/wordstore/wordstore/cmn/config"
	"github.com/wordstore/wordstore/wire"
)

func TestServeClientQuitSendsFarewellAndDisconnects(t *testing.T) {
	store, err := OpenMetaStore("")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	rt := NewRouter(config.DefaultNM(), store, LoadUserRegistry(""))
	srv := &Server{Router: rt}

	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()

	go srv.serveClient(wire.NewConn(serverSide), "10.0.0.5", wire.ParseCommand("REGISTER_CLIENT alice"))

	cc := wire.NewConn(clientSide)
	line, err := cc.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine (register reply): %v", err)
	}
	if _, _, err := wire.ParseReply(line); err != nil {
		t.Fatalf("ParseReply(register): %v", err)
	}

	if err := cc.WriteLine("QUIT"); err != nil {
		t.Fatal(err)
	}
	line, err = cc.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine (farewell): %v", err)
	}
	code, msg, err := wire.ParseReply(line)
	if err != nil {
		t.Fatalf("ParseReply(farewell): %v", err)
	}
	if code != 0 {
		t.Errorf("QUIT reply code = %v, want success", code)
	}
	if msg != "farewell alice" {
		t.Errorf("QUIT reply = %q, want %q", msg, "farewell alice")
	}

	if _, err := cc.ReadLine(); err == nil {
		t.Errorf("connection still open after QUIT, want the server side closed")
	}
}
