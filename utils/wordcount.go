package utils

import "strings"

// CountWords counts whitespace-separated words, the same measure used for a
// question's minimum-word threshold and the detector gate.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
