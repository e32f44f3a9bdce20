// Package email provides common email address helpers.
package email

import "strings"

// SplitAddress splits an address into local part and domain at the first '@'.
// ok is false when there is no '@' or either side is empty.
func SplitAddress(addr string) (local, domain string, ok bool) {
	at := strings.IndexByte(addr, '@')
	if at <= 0 || at == len(addr)-1 {
		return "", "", false
	}
	return addr[:at], addr[at+1:], true
}

// LocalPart returns the part of the address before the first '@'.
// Returns empty string if the address is malformed.
func LocalPart(addr string) string {
	local, _, _ := SplitAddress(addr)
	return local
}

// Domain returns the part of the address after the first '@'.
// Returns empty string if the address is malformed.
func Domain(addr string) string {
	_, domain, _ := SplitAddress(addr)
	return domain
}
