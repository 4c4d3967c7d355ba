// Package text provides utilities for text processing shared by the counter,
// the background computation host and the assignment CLI.
package text

import "unicode/utf8"

// CountRunes counts the number of Unicode characters (runes) in the given text.
// Multi-byte characters count once, so the result matches what the frequency
// table reports as "characters processed".
//
// Examples:
//
//	CountRunes("hello")   // returns 5
//	CountRunes("héllo")   // returns 5
//	CountRunes("")        // returns 0
func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}

// Truncate returns the first n characters of text.
// A text shorter than n is returned unchanged; n <= 0 yields "".
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}
