// HRW placement: determinism and stability under candidate-set growth.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nm

import "testing"

func TestPickSSEmptyCandidates(t *testing.T) {
	if got := PickSS("doc.txt", nil); got != "" {
		t.Errorf("PickSS with no candidates = %q, want empty", got)
	}
}

func TestPickSSDeterministic(t *testing.T) {
	candidates := []string{"ss-a", "ss-b", "ss-c"}
	first := PickSS("doc.txt", candidates)
	for i := 0; i < 10; i++ {
		if got := PickSS("doc.txt", candidates); got != first {
			t.Fatalf("PickSS(%q) = %q on call %d, want stable %q", "doc.txt", got, i, first)
		}
	}
}

func TestPickSSDistributesAcrossNames(t *testing.T) {
	candidates := []string{"ss-a", "ss-b", "ss-c"}
	counts := make(map[string]int)
	for i := 0; i < 300; i++ {
		name := string(rune('a'+i%26)) + string(rune('A'+(i/26)%26))
		counts[PickSS(name, candidates)]++
	}
	if len(counts) < 2 {
		t.Errorf("PickSS placed every name on a single server: %v", counts)
	}
	for _, id := range candidates {
		if counts[id] == 0 {
			t.Errorf("server %q received no placements out of 300 names", id)
		}
	}
}

func TestRankSSOrdersAllCandidatesConsistentlyWithPickSS(t *testing.T) {
	candidates := []string{"ss-a", "ss-b", "ss-c", "ss-d"}
	ranked := RankSS("doc.txt", candidates)
	if len(ranked) != len(candidates) {
		t.Fatalf("RankSS returned %d ids, want %d", len(ranked), len(candidates))
	}
	if ranked[0] != PickSS("doc.txt", candidates) {
		t.Errorf("RankSS[0] = %q, want to match PickSS %q", ranked[0], PickSS("doc.txt", candidates))
	}
	seen := make(map[string]bool)
	for _, id := range ranked {
		if seen[id] {
			t.Fatalf("RankSS returned %q more than once: %v", id, ranked)
		}
		seen[id] = true
	}
}

func TestRankSSFallsOverToNextOnExclusion(t *testing.T) {
	full := []string{"ss-a", "ss-b", "ss-c"}
	ranked := RankSS("doc.txt", full)
	best := ranked[0]

	var withoutBest []string
	for _, id := range full {
		if id != best {
			withoutBest = append(withoutBest, id)
		}
	}
	secondRanked := RankSS("doc.txt", withoutBest)
	if secondRanked[0] != ranked[1] {
		t.Errorf("RankSS after excluding the winner = %q, want the original runner-up %q", secondRanked[0], ranked[1])
	}
}

func TestPickSSStableUnderCandidateRemoval(t *testing.T) {
	full := []string{"ss-a", "ss-b", "ss-c", "ss-d"}
	picked := PickSS("report.txt", full)

	// Removing a different, non-picked server must not change the winner
	// (the defining HRW property: only the removed server's own files move).
	var reduced []string
	for _, id := range full {
		if id != "ss-d" || picked == "ss-d" {
			reduced = append(reduced, id)
		}
	}
	if picked == "ss-d" {
		t.Skip("picked server was the one removed; nothing to assert")
	}
	if got := PickSS("report.txt", reduced); got != picked {
		t.Errorf("PickSS after removing an uninvolved server = %q, want unchanged %q", got, picked)
	}
}
