// Word-paced STREAM: snapshot-before-emit so a commit landing mid-stream
// can't produce torn output.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ss

import (
	"net"
	"testing"
	"time"

	"github.com/wordstore/wordstore/wire"
)

func TestStreamEmitsWordsThenStop(t *testing.T) {
	st := newTestStore(t)
	st.cfg.StreamPace = time.Millisecond
	if err := st.Create("doc"); err != nil {
		t.Fatal(err)
	}
	sess, err := st.Lock("doc", 0, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if err := sess.Edit(0, "hello world."); err != nil {
		t.Fatal(err)
	}
	if err := sess.Commit(); err != nil {
		t.Fatal(err)
	}
	sess.Unlock()

	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()
	done := make(chan error, 1)
	go func() { done <- st.Stream(wire.NewConn(serverSide), "doc") }()

	cc := wire.NewConn(clientSide)
	var words []string
	for {
		line, rerr := cc.ReadLine()
		if rerr != nil {
			t.Fatalf("ReadLine: %v", rerr)
		}
		if line == wire.TagStop {
			break
		}
		words = append(words, line)
	}
	if err := <-done; err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(words) != 2 || words[0] != "hello" || words[1] != "world." {
		t.Fatalf("streamed words = %v, want [hello world.]", words)
	}
}

// TestStreamUnaffectedByConcurrentCommit exercises the data-race scenario
// directly: a commit to the same sentence fires while a slow, paced stream
// is still emitting it. Stream snapshots words/delimiter by value before
// the pace loop starts, so the full emitted sentence must match the
// pre-commit content rather than mixing old and new words.
func TestStreamUnaffectedByConcurrentCommit(t *testing.T) {
	st := newTestStore(t)
	st.cfg.StreamPace = 5 * time.Millisecond
	if err := st.Create("doc"); err != nil {
		t.Fatal(err)
	}
	sess, err := st.Lock("doc", 0, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if err := sess.Edit(0, "alpha beta gamma."); err != nil {
		t.Fatal(err)
	}
	if err := sess.Commit(); err != nil {
		t.Fatal(err)
	}
	sess.Unlock()

	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()
	done := make(chan error, 1)
	go func() { done <- st.Stream(wire.NewConn(serverSide), "doc") }()

	go func() {
		sess2, err := st.Lock("doc", 0, "bob")
		if err != nil {
			return
		}
		_ = sess2.Edit(0, "changed words entirely now.")
		_ = sess2.Commit()
		sess2.Unlock()
	}()

	cc := wire.NewConn(clientSide)
	var words []string
	for {
		line, rerr := cc.ReadLine()
		if rerr != nil {
			t.Fatalf("ReadLine: %v", rerr)
		}
		if line == wire.TagStop {
			break
		}
		words = append(words, line)
	}
	if err := <-done; err != nil {
		t.Fatalf("Stream: %v", err)
	}
	want := []string{"alpha", "beta", "gamma."}
	if len(words) != len(want) {
		t.Fatalf("streamed words = %v, want %v (torn/mixed output)", words, want)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("streamed words = %v, want %v (torn/mixed output)", words, want)
			break
		}
	}
}
