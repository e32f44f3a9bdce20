package extract

import "regexp"

// addressPattern matches ASCII addresses: local@domain.tld with a TLD of at
// least two letters.
var addressPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Detect returns all address-like substrings of text, left to right,
// non-overlapping and with their original case. Duplicates are kept.
func Detect(text string) []string {
	if text == "" {
		return nil
	}
	return addressPattern.FindAllString(text, -1)
}
