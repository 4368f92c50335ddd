package analytics

import (
	"strings"
)

// MaskEmail hides most of the local part of an address: half of it, at
// least one and at most three characters, is kept before "***@domain".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		local := []rune(email)
		return string(local[:keepWidth(len(local))]) + "***"
	}
	local := []rune(email[:at])
	return string(local[:keepWidth(len(local))]) + "***@" + email[at+1:]
}

func keepWidth(n int) int {
	keep := n / 2
	if keep < 1 {
		keep = 1
	}
	if keep > 3 {
		keep = 3
	}
	if keep > n {
		keep = n
	}
	return keep
}
