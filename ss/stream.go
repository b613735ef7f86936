// SS streaming engine: word-paced transmission.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ss

import (
	"time"

	"github.com/wordstore/wordstore/cmn"
	"github.com/wordstore/wordstore/wire"
)

// streamSentence is a by-value copy of the words/delimiter a paced stream
// emits, taken while the file is locked so a commit landing mid-stream
// can't produce torn output off the live *Sentence nodes.
type streamSentence struct {
	words     []string
	delimiter byte
}

// Stream emits each word of filename as its own line over c, pacing
// st.cfg.StreamPace between words; the last word of a sentence carries its
// delimiter. Finishes with a STOP frame. The whole sentence list is copied
// by value under FLOCK(R) and SLOCK before any line is written, so the
// word-paced loop below never touches the live sentences a concurrent
// commit could be mutating.
func (st *Store) Stream(c *wire.Conn, filename string) error {
	f, err := st.get(filename)
	if err != nil {
		return err
	}

	f.FLock.RLock()
	f.SLock.Lock()
	live := f.All()
	snapshot := make([]streamSentence, len(live))
	for i, s := range live {
		snapshot[i] = streamSentence{words: append([]string(nil), s.Words...), delimiter: s.Delimiter}
	}
	f.LastAccessed = time.Now()
	f.SLock.Unlock()
	f.FLock.RUnlock()

	for _, s := range snapshot {
		for i, w := range s.words {
			line := w
			if i == len(s.words)-1 && s.delimiter != 0 {
				line += string(s.delimiter)
			}
			if err := c.WriteLine(line); err != nil {
				return cmn.NewCodeError(cmn.ErrSystem, "stream write: %v", err)
			}
			time.Sleep(st.cfg.StreamPace)
		}
	}
	return c.WriteLine(wire.TagStop)
}
