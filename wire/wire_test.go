// Wire codec round trips: command parsing and both reply frame shapes.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package wire

import (
	"net"
	"testing"

	"github.com/wordstore/wordstore/cmn"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantArgs []string
	}{
		{"CREATE report.txt", "CREATE", []string{"report.txt"}},
		{"create report.txt", "CREATE", []string{"report.txt"}},
		{"  VIEW  ", "VIEW", nil},
		{"", "", nil},
	}
	for _, tt := range tests {
		cmd := ParseCommand(tt.line)
		if cmd.Name != tt.wantName {
			t.Errorf("ParseCommand(%q).Name = %q, want %q", tt.line, cmd.Name, tt.wantName)
		}
		if cmd.NArgs() != len(tt.wantArgs) {
			t.Errorf("ParseCommand(%q).NArgs() = %d, want %d", tt.line, cmd.NArgs(), len(tt.wantArgs))
		}
		for i, a := range tt.wantArgs {
			if cmd.Arg(i) != a {
				t.Errorf("ParseCommand(%q).Arg(%d) = %q, want %q", tt.line, i, cmd.Arg(i), a)
			}
		}
	}
}

func TestCommandRest(t *testing.T) {
	cmd := ParseCommand("3 hello there friend")
	if got := cmd.Rest(0); got != "hello there friend" {
		t.Errorf("Rest(0) = %q, want %q", got, "hello there friend")
	}
	if got := cmd.Rest(1); got != "there friend" {
		t.Errorf("Rest(1) = %q, want %q", got, "there friend")
	}
	if got := cmd.Rest(10); got != "" {
		t.Errorf("Rest(out of range) = %q, want empty", got)
	}
}

func TestNMReplyRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	cc := NewConn(client)
	sc := NewConn(server)

	go WriteReply(sc, cmn.ErrFileNotFound, "file %q not found", "a.txt")

	line, err := cc.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	code, msg, err := ParseReply(line)
	if err != nil {
		t.Fatalf("ParseReply(%q): %v", line, err)
	}
	if code != cmn.ErrFileNotFound {
		t.Errorf("code = %v, want %v", code, cmn.ErrFileNotFound)
	}
	if msg != `file "a.txt" not found` {
		t.Errorf("msg = %q, want %q", msg, `file "a.txt" not found`)
	}
}

func TestReplyEscapesEmbeddedNewlines(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	cc := NewConn(client)
	sc := NewConn(server)

	go WriteOK(sc, "line one\nline two")

	line, err := cc.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	_, msg, err := ParseReply(line)
	if err != nil {
		t.Fatalf("ParseReply(%q): %v", line, err)
	}
	if msg != `line one\nline two` {
		t.Errorf("msg = %q, want embedded newline escaped", msg)
	}
}

func TestSSTagPayloadRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	cc := NewConn(client)
	sc := NewConn(server)

	go WriteTagPayload(sc, TagSuccess, "SIZE:10 WORDS:2 CHARS:10")

	line, err := cc.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	tag, payload := ParseTag(line)
	if tag != TagSuccess {
		t.Errorf("tag = %q, want %q", tag, TagSuccess)
	}
	if payload != "SIZE:10 WORDS:2 CHARS:10" {
		t.Errorf("payload = %q", payload)
	}
}

func TestParseTagWithoutPayload(t *testing.T) {
	tag, payload := ParseTag("LOCKED")
	if tag != "LOCKED" || payload != "" {
		t.Errorf("ParseTag(LOCKED) = (%q, %q), want (LOCKED, \"\")", tag, payload)
	}
}
