// Parsing and canonicalization.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ss

import (
	"strings"

	"github.com/wordstore/wordstore/cmn/cos"
)

// parseContent canonicalizes raw bytes into an ordered list of
// (words, delimiter) sentences:
//  1. skip leading whitespace between sentences
//  2. each run of non-delimiter bytes is one sentence, trailing delimiter captured
//  3. whitespace inside a sentence splits it into words
//  4. if the last sentence has a delimiter, append one empty trailing sentence
//  5. if nothing was produced, produce one empty sentence
func parseContent(content string) []DraftSentence {
	var out []DraftSentence

	i, n := 0, len(content)
	for i < n {
		for i < n && cos.IsWhitespace(content[i]) {
			i++
		}
		if i >= n {
			break
		}
		start := i
		var delim byte
		for i < n {
			if cos.IsDelimiter(content[i]) {
				delim = content[i]
				break
			}
			i++
		}
		raw := content[start:i]
		if delim != 0 {
			i++ // consume the delimiter
		}
		words := cos.SplitWords(strings.TrimSpace(raw))
		out = append(out, DraftSentence{Words: words, Delimiter: delim})
	}

	if len(out) > 0 && out[len(out)-1].Delimiter != 0 {
		out = append(out, DraftSentence{})
	}
	if len(out) == 0 {
		out = append(out, DraftSentence{})
	}
	return out
}

// rebuildFile produces the canonical serialization of f: words joined by
// single spaces, sentences joined by a single space, each sentence's
// delimiter appended. Caller must hold at least FLOCK(R).
func rebuildFile(f *File) string {
	var b strings.Builder
	first := true
	for id := f.head; id != ""; {
		s := f.bySentence[id]
		if !first {
			b.WriteByte(' ')
		}
		first = false
		b.WriteString(strings.Join(s.Words, " "))
		if s.Delimiter != 0 {
			b.WriteByte(s.Delimiter)
		}
		id = s.next
	}
	return b.String()
}

// refreshStats recomputes size/word_count/char_count from the live list.
// Caller must hold FLOCK(W)+SLock (commit) or just SLock (load from disk,
// before anyone else can see the file).
func refreshStats(f *File) {
	canonical := rebuildFile(f)
	f.CharCount = len(canonical)
	f.Size = len(canonical)
	words := 0
	for id := f.head; id != ""; {
		s := f.bySentence[id]
		words += len(s.Words)
		id = s.next
	}
	f.WordCount = words
}

// loadFromContent replaces f's sentence list wholesale from raw bytes,
// used at boot and by UNDO/REVERT. UNDO/REVERT hold FLOCK(W)+SLock; the
// boot scan holds only SLock, on a file not yet published in the Store.
func loadFromContent(f *File, content string) {
	drafts := parseContent(content)
	f.bySentence = make(map[string]*Sentence)
	f.head, f.tail, f.count = "", "", 0
	for _, d := range drafts {
		f.appendNode(&Sentence{Words: d.Words, Delimiter: d.Delimiter})
	}
	refreshStats(f)
}
