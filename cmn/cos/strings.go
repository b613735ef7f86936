// Package cos provides common low-level types and utilities shared by the
// NM and SS.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import "unicode"

// IsWhitespace reports whether b is one of the word-separating bytes used
// throughout the sentence parser: space, tab, newline, or carriage return.
func IsWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// IsDelimiter reports whether b terminates a sentence.
func IsDelimiter(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// SplitWords tokenizes s on runs of whitespace, coalescing consecutive
// separators.
func SplitWords(s string) []string {
	var (
		words []string
		start = -1
	)
	for i := 0; i < len(s); i++ {
		if IsWhitespace(s[i]) {
			if start >= 0 {
				words = append(words, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, s[start:])
	}
	return words
}

// Plural returns "s" unless n == 1.
func Plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// IsPrintableASCII reports whether r is a printable ASCII character.
// Checkpoint tag validation relies on its regexp alone and does not call it.
func IsPrintableASCII(r rune) bool {
	return r < unicode.MaxASCII && unicode.IsPrint(r)
}
