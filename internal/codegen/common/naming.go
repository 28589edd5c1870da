package common

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LegacyPrefix is the module prefix older GNU Radio releases put on every
// class namespace.
const LegacyPrefix = "gr_"

// MaxSuffixLen is the longest trailing key segment treated as a type suffix.
const MaxSuffixLen = 3

var titleCaser = cases.Title(language.English)

// SplitKey splits a descriptor or class key on underscores.
func SplitKey(key string) []string {
	return strings.Split(key, "_")
}

// TrimLegacyPrefix strips a leading "gr_" from a canonical key.
func TrimLegacyPrefix(key string) string {
	return strings.TrimPrefix(key, LegacyPrefix)
}

// TypeSuffix reports whether key ends in a short alphanumeric type suffix
// such as "ff" or "cc", and returns the remaining segments and the suffix.
// Example: "add_const_ff" => (["add", "const"], "ff", true).
func TypeSuffix(key string) (stem []string, suffix string, ok bool) {
	segs := SplitKey(key)
	if len(segs) < 2 {
		return nil, "", false
	}
	last := segs[len(segs)-1]
	if last == "" || len(last) > MaxSuffixLen || !isAlnum(last) {
		return nil, "", false
	}
	return segs[:len(segs)-1], last, true
}

// LastSegment returns the text after the final underscore.
func LastSegment(name string) string {
	if i := strings.LastIndex(name, "_"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Title turns a snake_case name into a display label: "add_ff" => "Add Ff".
func Title(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

// ContainsIdent reports whether word occurs in s delimited by non-identifier
// characters, so "window" matches "gr::fft::window::win_type" but "win"
// does not match "window".
func ContainsIdent(s, word string) bool {
	if word == "" {
		return false
	}
	for off := 0; ; {
		i := strings.Index(s[off:], word)
		if i < 0 {
			return false
		}
		start := off + i
		end := start + len(word)
		if (start == 0 || !IsIdentByte(s[start-1])) && (end == len(s) || !IsIdentByte(s[end])) {
			return true
		}
		off = start + 1
	}
}

// IsIdentByte reports whether b may appear in a C identifier.
func IsIdentByte(b byte) bool {
	return b == '_' || isAlnumByte(b)
}

// LeadingIdent returns the identifier prefix of s: "nchan)*2" => "nchan".
func LeadingIdent(s string) string {
	for i := 0; i < len(s); i++ {
		if !IsIdentByte(s[i]) {
			return s[:i]
		}
	}
	return s
}

func isAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isAlnumByte(s[i]) {
			return false
		}
	}
	return true
}

func isAlnumByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
