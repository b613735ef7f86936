// String/word helpers used by the sentence parser and checkpoint-tag
// validation.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import "testing"

func TestIsWhitespace(t *testing.T) {
	for _, b := range []byte{' ', '\t', '\n', '\r'} {
		if !IsWhitespace(b) {
			t.Errorf("IsWhitespace(%q) = false, want true", b)
		}
	}
	for _, b := range []byte{'a', '.', '0'} {
		if IsWhitespace(b) {
			t.Errorf("IsWhitespace(%q) = true, want false", b)
		}
	}
}

func TestIsDelimiter(t *testing.T) {
	for _, b := range []byte{'.', '!', '?'} {
		if !IsDelimiter(b) {
			t.Errorf("IsDelimiter(%q) = false, want true", b)
		}
	}
	if IsDelimiter(',') {
		t.Errorf("IsDelimiter(',') = true, want false")
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"hello world", []string{"hello", "world"}},
		{"  leading  and   trailing  ", []string{"leading", "and", "trailing"}},
		{"", nil},
		{"one", []string{"one"}},
		{"a\tb\nc", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		got := SplitWords(tt.in)
		if len(got) != len(tt.want) {
			t.Fatalf("SplitWords(%q) = %v, want %v", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SplitWords(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestPlural(t *testing.T) {
	if Plural(1) != "" {
		t.Errorf("Plural(1) = %q, want empty", Plural(1))
	}
	for _, n := range []int{0, 2, 100} {
		if Plural(n) != "s" {
			t.Errorf("Plural(%d) = %q, want %q", n, Plural(n), "s")
		}
	}
}

func TestIsPrintableASCII(t *testing.T) {
	for _, r := range []rune{'a', 'Z', '0', '_', '.'} {
		if !IsPrintableASCII(r) {
			t.Errorf("IsPrintableASCII(%q) = false, want true", r)
		}
	}
	for _, r := range []rune{'\n', 'é', 0} {
		if IsPrintableASCII(r) {
			t.Errorf("IsPrintableASCII(%q) = true, want false", r)
		}
	}
}
