// Package validate holds the input checks used to give users early
// feedback on forms. They are hints for the UI; the scoring API and the
// database remain the authority on what is accepted.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password Password accepts.
const MinPasswordLength = 6

var (
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe  = regexp.MustCompile(`^[0-9]{10,}$`)
	cardRe   = regexp.MustCompile(`^[0-9]{13,19}$`)
	nonDigit = regexp.MustCompile(`\D`)
	spaces   = regexp.MustCompile(`\s`)
)

// Email reports whether s looks like local@domain.tld.
func Email(s string) bool {
	return emailRe.MatchString(s)
}

// Phone reports whether s contains at least ten digits once every
// non-digit character is dropped.
func Phone(s string) bool {
	return phoneRe.MatchString(nonDigit.ReplaceAllString(s, ""))
}

// CreditCard reports whether s is 13 to 19 digits once whitespace is
// removed. It is a format check only; no Luhn checksum is applied.
func CreditCard(s string) bool {
	return cardRe.MatchString(spaces.ReplaceAllString(s, ""))
}

// Password reports whether s has at least MinPasswordLength characters.
func Password(s string) bool {
	return utf8.RuneCountInString(s) >= MinPasswordLength
}

// Required reports whether s has content other than whitespace.
func Required(s string) bool {
	return strings.TrimSpace(s) != ""
}
