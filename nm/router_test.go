// Router command table: pure helpers plus an end-to-end CREATE/redirect
// flow against a fake SS connected over a net.Pipe.
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

func TestParseRight(t *testing.T) {
	tests := []struct {
		in   string
		want AccessRight
	}{
		{"write", AccessWrite},
		{"WRITE", AccessWrite},
		{"read", AccessRead},
		{"nonsense", AccessNone},
		{"", AccessNone},
	}
	for _, tt := range tests {
		if got := parseRight(tt.in); got != tt.want {
			t.Errorf("parseRight(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatFileInfo(t *testing.T) {
	m := newFileMeta("doc.txt", "alice", "ss-1")
	m.Size, m.WordCount = 42, 7

	if got := formatFileInfo(m, false); got != "doc.txt" {
		t.Errorf("formatFileInfo(terse) = %q, want %q", got, "doc.txt")
	}
	detailed := formatFileInfo(m, true)
	want := "doc.txt owner=alice size=42 words=7"
	if detailed != want {
		t.Errorf("formatFileInfo(detailed) = %q, want %q", detailed, want)
	}
}

// newTestRouter wires a Router against in-memory stores and registers one
// fake SS that acknowledges every forwarded command with SUCCESS.
func newTestRouter(t *testing.T) (*Router, string) {
	t.Helper()
	store, err := OpenMetaStore("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	users := LoadUserRegistry("")
	rt := NewRouter(config.DefaultNM(), store, users)

	ssServer, ssNM := net.Pipe()
	t.Cleanup(func() { ssServer.Close(); ssNM.Close() })
	ssConn := rt.SS.Register("127.0.0.1", 9000, 9001, nil, wire.NewConn(ssNM))

	go func() {
		c := wire.NewConn(ssServer)
		for {
			if _, err := c.ReadLine(); err != nil {
				return
			}
			if err := wire.WriteTagPayload(c, wire.TagSuccess, ""); err != nil {
				return
			}
		}
	}()

	return rt, ssConn.ID
}

// dispatchAndRead runs cmd through the router and returns the client-facing
// reply line.
func dispatchAndRead(t *testing.T, rt *Router, user, ip string, cmd wire.Command) (code int, msg string) {
	t.Helper()
	clientServer, clientNM := net.Pipe()
	defer clientServer.Close()
	defer clientNM.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		rt.Dispatch(wire.NewConn(clientNM), user, ip, cmd)
	}()

	line, err := wire.NewConn(clientServer).ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	<-done
	c, m, err := wire.ParseReply(line)
	if err != nil {
		t.Fatalf("ParseReply(%q): %v", line, err)
	}
	return int(c), m
}

func TestRouterCreateThenRedirect(t *testing.T) {
	rt, _ := newTestRouter(t)

	code, msg := dispatchAndRead(t, rt, "alice", "10.0.0.5", wire.ParseCommand("CREATE doc.txt"))
	if code != 0 {
		t.Fatalf("CREATE reply = %d:%s, want success", code, msg)
	}

	code, msg = dispatchAndRead(t, rt, "alice", "10.0.0.5", wire.ParseCommand("CREATE doc.txt"))
	if code == 0 {
		t.Fatalf("second CREATE of the same name succeeded, want FILE_EXISTS")
	}

	code, msg = dispatchAndRead(t, rt, "alice", "10.0.0.5", wire.ParseCommand("READ doc.txt"))
	if code != 0 {
		t.Fatalf("READ reply = %d:%s, want success", code, msg)
	}
	if got, want := msg, "SS_INFO 127.0.0.1 9001"; got != want {
		t.Errorf("READ redirect = %q, want %q", got, want)
	}

	code, _ = dispatchAndRead(t, rt, "mallory", "10.0.0.6", wire.ParseCommand("READ doc.txt"))
	if code == 0 {
		t.Fatalf("READ by a user with no access succeeded, want PERMISSION_DENIED")
	}
}

// TestRouterCreateFallsOverOnTransportFailure registers one SS whose
// control socket is already dead alongside the normal working fake SS, and
// checks CREATE still succeeds by falling over to the next candidate
// instead of failing outright because it happened to hash to the dead one.
func TestRouterCreateFallsOverOnTransportFailure(t *testing.T) {
	rt, workingID := newTestRouter(t)

	deadServer, deadNM := net.Pipe()
	deadServer.Close()
	deadNM.Close()
	rt.SS.Register("10.0.0.9", 9000, 9002, nil, wire.NewConn(deadNM))

	code, msg := dispatchAndRead(t, rt, "alice", "10.0.0.5", wire.ParseCommand("CREATE doc.txt"))
	if code != 0 {
		t.Fatalf("CREATE with one dead candidate = %d:%s, want success via fallback", code, msg)
	}

	m := rt.lookup("doc.txt")
	if m == nil {
		t.Fatal("doc.txt not found in trie after CREATE")
	}
	if m.SSID != workingID {
		t.Errorf("CREATE placed the file on %q, want the surviving SS %q", m.SSID, workingID)
	}
}

func TestRouterCreateReturnsSSNotFoundWhenEveryCandidateFails(t *testing.T) {
	store, err := OpenMetaStore("")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	rt := NewRouter(config.DefaultNM(), store, LoadUserRegistry(""))

	deadServer, deadNM := net.Pipe()
	deadServer.Close()
	deadNM.Close()
	rt.SS.Register("10.0.0.9", 9000, 9002, nil, wire.NewConn(deadNM))

	code, _ := dispatchAndRead(t, rt, "alice", "10.0.0.5", wire.ParseCommand("CREATE doc.txt"))
	if code == 0 {
		t.Fatalf("CREATE succeeded with no live SS, want SS_NOT_FOUND")
	}
}

func TestRouterListRequestsOwnerOnly(t *testing.T) {
	rt, _ := newTestRouter(t)
	dispatchAndRead(t, rt, "alice", "10.0.0.5", wire.ParseCommand("CREATE doc.txt"))
	dispatchAndRead(t, rt, "bob", "10.0.0.6", wire.ParseCommand("REQACCESS doc.txt WRITE"))

	code, _ := dispatchAndRead(t, rt, "bob", "10.0.0.6", wire.ParseCommand("LISTREQUESTS doc.txt"))
	if code == 0 {
		t.Fatalf("LISTREQUESTS by a non-owner succeeded, want PERMISSION_DENIED")
	}

	code, msg := dispatchAndRead(t, rt, "alice", "10.0.0.5", wire.ParseCommand("LISTREQUESTS doc.txt"))
	if code != 0 {
		t.Fatalf("LISTREQUESTS by the owner failed: %d:%s", code, msg)
	}
	if msg != "bob WRITE" {
		t.Errorf("LISTREQUESTS payload = %q, want %q", msg, "bob WRITE")
	}

	code, msg = dispatchAndRead(t, rt, "alice", "10.0.0.5", wire.ParseCommand("PROCESSREQUEST doc.txt bob APPROVE"))
	if code != 0 {
		t.Fatalf("PROCESSREQUEST failed: %d:%s", code, msg)
	}
	_, msg = dispatchAndRead(t, rt, "alice", "10.0.0.5", wire.ParseCommand("LISTREQUESTS doc.txt"))
	if msg != "" {
		t.Errorf("LISTREQUESTS after APPROVE = %q, want empty (request consumed)", msg)
	}
}

func TestRouterDeleteRequiresWriteAccess(t *testing.T) {
	rt, _ := newTestRouter(t)
	dispatchAndRead(t, rt, "alice", "10.0.0.5", wire.ParseCommand("CREATE doc.txt"))

	code, _ := dispatchAndRead(t, rt, "mallory", "10.0.0.6", wire.ParseCommand("DELETE doc.txt"))
	if code == 0 {
		t.Fatalf("DELETE by a non-owner succeeded, want PERMISSION_DENIED")
	}

	code, msg := dispatchAndRead(t, rt, "alice", "10.0.0.5", wire.ParseCommand("DELETE doc.txt"))
	if code != 0 {
		t.Fatalf("DELETE by the owner failed: %d:%s", code, msg)
	}

	code, _ = dispatchAndRead(t, rt, "alice", "10.0.0.5", wire.ParseCommand("READ doc.txt"))
	if code == 0 {
		t.Fatalf("READ of a deleted file succeeded, want FILE_NOT_FOUND")
	}
}
