package phone

import "strings"

// Normalize strips formatting characters from a phone number, keeping a single
// leading "+" and the digits. Returns the empty string when nothing usable
// remains.
func Normalize(raw string) string {
	var b strings.Builder
	for i, c := range strings.TrimSpace(raw) {
		switch {
		case c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == '+' && i == 0:
			b.WriteRune(c)
		}
	}
	n := b.String()
	if n == "+" {
		return ""
	}
	return n
}

// Valid reports whether a normalized phone number looks like a dialable
// number: optional leading "+" followed by 5 to 15 digits.
func Valid(normalized string) bool {
	digits := strings.TrimPrefix(normalized, "+")
	if len(digits) < 5 || len(digits) > 15 {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Suffix returns the last n characters of a phone number, used to derive
// default usernames. Shorter numbers are returned whole.
func Suffix(number string, n int) string {
	if len(number) <= n {
		return number
	}
	return number[len(number)-n:]
}
