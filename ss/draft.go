// SS lock manager and ETIRW write protocol.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ss

import (
	"strings"
	"time"

	"github.com/wordstore/wordstore/cmn"
	"github.com/wordstore/wordstore/cmn/cos"
)

// Session is the span from WRITE_LOCK to WRITE_UNLOCK on one sentence for
// one client.
type Session struct {
	st       *Store
	file     *File
	sentence *Sentence
	index    int
	clientID string
	uncommitted bool
}

// Lock validates 0 <= index < sentence_count, acquires the sentence's
// mutex, and stages a draft cloned from the live sentence. It also
// snapshots the whole file into the undo ring before any edit is applied,
// so UNDO after a later commit restores this pre-session state.
func (st *Store) Lock(filename string, index int, clientID string) (*Session, error) {
	f, err := st.get(filename)
	if err != nil {
		return nil, err
	}
	f.FLock.RLock()
	s := f.SentenceAt(index)
	f.FLock.RUnlock()
	if s == nil {
		return nil, cmn.NewCodeError(cmn.ErrInvalidSentence, "sentence index %d out of range", index)
	}

	s.mu.Lock()
	if s.lockedBy != "" && s.lockedBy != clientID {
		s.mu.Unlock()
		return nil, cmn.NewCodeError(cmn.ErrFileLocked, "sentence %d is locked", index)
	}
	s.lockedBy = clientID
	s.draft = []DraftSentence{{Words: append([]string(nil), s.Words...), Delimiter: s.Delimiter}}
	s.mu.Unlock()

	f.FLock.RLock()
	canonical := rebuildFile(f)
	f.FLock.RUnlock()
	f.undo.push(filename, []byte(canonical))

	return &Session{st: st, file: f, sentence: s, index: index, clientID: clientID, uncommitted: true}, nil
}

// Edit inserts tokenized content at wordIndex within the draft's first
// sentence. If any inserted token contains a delimiter, the draft is
// re-split using the canonical parse rules, potentially producing
// multiple draft sentences.
func (s *Session) Edit(wordIndex int, content string) error {
	s.sentence.mu.Lock()
	defer s.sentence.mu.Unlock()
	if s.sentence.lockedBy != s.clientID {
		return cmn.NewCodeError(cmn.ErrInvalidOperation, "session no longer holds this sentence")
	}

	head := s.sentence.draft[0]
	tail := append([]DraftSentence(nil), s.sentence.draft[1:]...)

	tokens := cos.SplitWords(content)
	needsResplit := false
	for _, t := range tokens {
		if containsDelimiter(t) {
			needsResplit = true
			break
		}
	}

	if wordIndex < 0 {
		wordIndex = 0
	}
	if wordIndex > len(head.Words) {
		wordIndex = len(head.Words)
	}

	if !needsResplit {
		words := make([]string, 0, len(head.Words)+len(tokens))
		words = append(words, head.Words[:wordIndex]...)
		words = append(words, tokens...)
		words = append(words, head.Words[wordIndex:]...)
		head.Words = words
		s.sentence.draft = append([]DraftSentence{head}, tail...)
		return nil
	}

	// Re-split: rebuild the affected words plus inserted tokens as raw
	// text and re-run the canonical parser, then graft the
	// resulting sentences in place of head, followed by the unaffected
	// tail sentences. Head's own delimiter, when set, is always appended
	// to the raw text before re-parsing.
	var raw string
	raw = joinWords(head.Words[:wordIndex])
	if raw != "" {
		raw += " "
	}
	raw += joinWords(tokens)
	rest := joinWords(head.Words[wordIndex:])
	if rest != "" {
		raw += " " + rest
	}
	if head.Delimiter != 0 {
		raw += string(head.Delimiter)
	}

	resplit := parseContent(raw)
	s.sentence.draft = append(resplit, tail...)
	return nil
}

// Commit finalizes a WRITE session: under FLOCK(W) and SLock, the first
// draft sentence's words/delimiter replace the live sentence; subsequent
// draft sentences are spliced in as new nodes after the session's index.
// The session's sentence.mu is briefly released before taking SLock to
// respect the FLOCK -> SLOCK -> sentence.mu ordering without inverting it.
func (s *Session) Commit() error {
	s.sentence.mu.Lock()
	if s.sentence.lockedBy != s.clientID {
		s.sentence.mu.Unlock()
		return cmn.NewCodeError(cmn.ErrInvalidOperation, "session no longer holds this sentence")
	}
	draft := s.sentence.draft
	s.sentence.mu.Unlock()

	if len(draft) == 0 {
		return nil
	}

	s.file.FLock.Lock()
	s.file.SLock.Lock()

	s.sentence.mu.Lock()
	s.sentence.Words = draft[0].Words
	s.sentence.Delimiter = draft[0].Delimiter
	s.sentence.mu.Unlock()

	after := s.sentence.ID
	for _, extra := range draft[1:] {
		node := &Sentence{Words: extra.Words, Delimiter: extra.Delimiter}
		s.file.insertAfter(after, node)
		after = node.ID
	}
	refreshStats(s.file)
	s.file.LastModified = time.Now()
	s.file.SLock.Unlock()
	s.file.FLock.Unlock()

	s.uncommitted = false
	return s.st.persist(s.file)
}

// Unlock releases the sentence lock. If Commit was never called, the
// draft is discarded (rollback).
func (s *Session) Unlock() {
	s.sentence.mu.Lock()
	if s.sentence.lockedBy == s.clientID {
		s.sentence.lockedBy = ""
		s.sentence.draft = nil
	}
	s.sentence.mu.Unlock()
}

// Uncommitted reports whether Commit has not (yet) been called, used by
// disconnect cleanup to decide whether to roll back (Glossary: "Release-
// without-commit discards draft").
func (s *Session) Uncommitted() bool { return s.uncommitted }

func containsDelimiter(tok string) bool {
	for i := 0; i < len(tok); i++ {
		if cos.IsDelimiter(tok[i]) {
			return true
		}
	}
	return false
}

func joinWords(words []string) string { return strings.Join(words, " ") }
