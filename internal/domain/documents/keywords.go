package documents

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MatchesAny reports whether lower contains one of keywords as whole words.
// A keyword ending in '*' is a stem and matches any word starting with it,
// so "concorren*" covers "concorrenza" and "concorrenti". Keywords and input
// are expected in lower case.
func MatchesAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if matchKeyword(lower, k) {
			return true
		}
	}
	return false
}

func matchKeyword(s, k string) bool {
	stem := strings.HasSuffix(k, "*")
	k = strings.TrimSuffix(k, "*")
	if k == "" {
		return false
	}
	for off := 0; off < len(s); {
		i := strings.Index(s[off:], k)
		if i < 0 {
			return false
		}
		start := off + i
		end := start + len(k)
		if boundaryBefore(s, start) && (stem || boundaryAfter(s, end)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		off = start + size
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
