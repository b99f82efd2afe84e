// Package normalize canonicalizes free text into comparison keys.
package normalize

import (
	"sort"
	"strings"
	"unicode"
)

// Key lowercases s, drops every rune that is neither a letter, a digit nor
// whitespace, trims the ends and collapses interior whitespace runs to a
// single space. Keys are for comparison only and are never stored.
func Key(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ArtistKey returns the sorted keys of artists, so that two lists naming
// the same people in a different order compare equal.
func ArtistKey(artists []string) []string {
	keys := make([]string, len(artists))
	for i, a := range artists {
		keys[i] = Key(a)
	}
	sort.Strings(keys)
	return keys
}
