// Checkpoint create/view/revert/list round trip.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ss

import (
	"testing"

	"github.com/wordstore/wordstore/cmn/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.DefaultSS()
	cfg.StorageDir = t.TempDir()
	return NewStore(cfg)
}

func TestValidCheckpointTag(t *testing.T) {
	valid := []string{"v1", "2024-01-01", "a_b.c"}
	invalid := []string{"", "has space", "slash/tag"}
	for _, tag := range valid {
		if !ValidCheckpointTag(tag) {
			t.Errorf("ValidCheckpointTag(%q) = false, want true", tag)
		}
	}
	for _, tag := range invalid {
		if ValidCheckpointTag(tag) {
			t.Errorf("ValidCheckpointTag(%q) = true, want false", tag)
		}
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	st := newTestStore(t)
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

	if err := st.Checkpoint("doc", "v1"); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}
	if err := st.Checkpoint("doc", "v1"); err == nil {
		t.Fatalf("second Checkpoint with same tag succeeded, want FILE_EXISTS")
	}

	view, err := st.ViewCheckpoint("doc", "v1")
	if err != nil {
		t.Fatalf("ViewCheckpoint: %v", err)
	}
	original, _ := st.Read("doc", "alice")
	if view != original {
		t.Errorf("ViewCheckpoint = %q, want %q", view, original)
	}

	list, err := st.ListCheckpoints("doc")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Tag != "v1" {
		t.Fatalf("ListCheckpoints = %+v, want one entry tagged v1", list)
	}
}

func TestRevertRestoresCheckpointAndPreservesUndo(t *testing.T) {
	st := newTestStore(t)
	if err := st.Create("doc"); err != nil {
		t.Fatal(err)
	}
	sess, _ := st.Lock("doc", 0, "alice")
	_ = sess.Edit(0, "version one")
	_ = sess.Commit()
	sess.Unlock()
	versionOne, _ := st.Read("doc", "alice")

	if err := st.Checkpoint("doc", "v1"); err != nil {
		t.Fatal(err)
	}

	sess2, _ := st.Lock("doc", 0, "alice")
	_ = sess2.Edit(0, "version two")
	_ = sess2.Commit()
	sess2.Unlock()
	versionTwo, _ := st.Read("doc", "alice")

	if err := st.Revert("doc", "v1"); err != nil {
		t.Fatalf("Revert: %v", err)
	}
	content, _ := st.Read("doc", "alice")
	if content != versionOne {
		t.Errorf("content after Revert = %q, want checkpointed %q", content, versionOne)
	}

	// Revert pushed the pre-revert state onto the undo ring, so UNDO must
	// bring back the version-two content.
	if err := st.Undo("doc"); err != nil {
		t.Fatalf("Undo after Revert: %v", err)
	}
	content, _ = st.Read("doc", "alice")
	if content != versionTwo {
		t.Errorf("content after Undo-of-Revert = %q, want %q", content, versionTwo)
	}
}
