// Package validate holds the stateless field predicates used by the
// order wizard. They run on every keystroke, so they allocate nothing
// beyond the stripped input copy.
package validate

import (
	"regexp"
	"strings"
)

// dniLetters is the official modulus-23 check letter table.
const dniLetters = "TRWAGMYFPDXBNJZSQVHLCKE"

var (
	dniPattern   = regexp.MustCompile(`^[0-9]{8}[A-Za-z]$`)
	niePattern   = regexp.MustCompile(`^[XYZxyz][0-9]{7}[A-Za-z]$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneDigits  = regexp.MustCompile(`^[0-9]{9}$`)
)

// DNI reports whether s is a valid Spanish DNI or NIE, check letter
// included. Case-insensitive.
func DNI(s string) bool {
	s = strings.TrimSpace(s)
	switch {
	case dniPattern.MatchString(s):
		return checkLetter(s[:8]) == upper(s[8])
	case niePattern.MatchString(s):
		// NIE: the leading letter maps to a digit for the checksum.
		var prefix byte
		switch upper(s[0]) {
		case 'X':
			prefix = '0'
		case 'Y':
			prefix = '1'
		case 'Z':
			prefix = '2'
		}
		return checkLetter(string(prefix)+s[1:8]) == upper(s[8])
	}
	return false
}

func checkLetter(digits string) byte {
	var n int
	for i := 0; i < len(digits); i++ {
		n = n*10 + int(digits[i]-'0')
	}
	return dniLetters[n%23]
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// Phone reports whether s is exactly 9 digits after stripping spaces
// and hyphens.
func Phone(s string) bool {
	s = strings.NewReplacer(" ", "", "-", "").Replace(s)
	return phoneDigits.MatchString(s)
}

// Email reports whether s is empty (the field is optional) or has a
// local@domain.tld shape.
func Email(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	return emailPattern.MatchString(s)
}
