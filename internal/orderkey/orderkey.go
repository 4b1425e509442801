// Package orderkey generates sibling order keys: opaque strings that sort
// bytewise and stay densely insertable, so a new sibling can always be placed
// between two existing ones without rewriting its neighbors.
//
// A key is a variable-length base-62 integer part followed by an optional
// fraction. The head character encodes the integer length ('a'..'z' for
// positive, 'A'..'Z' for negative), so appending or prepending grows key
// length logarithmically while inserting between two keys extends the
// fraction digit by digit. When a gap closes the generator grows the key
// instead of failing; exhaustion is only reachable at the far ends of a
// 26-digit integer space.
package orderkey

import (
	"fmt"
	"strings"
)

// digits are ASCII-ordered so that bytewise string comparison matches
// numeric comparison of the encoded values.
const digits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const base = len(digits)

var smallestInteger = "A" + strings.Repeat("0", 26)

// ErrExhausted is returned when the integer key space overflows. Reaching it
// requires ~62^26 consecutive appends or prepends in one sibling group.
var ErrExhausted = fmt.Errorf("order key space exhausted")

// First returns the key assigned to the first child of an empty sibling
// group. Equivalent to KeyBetween("", "").
func First() string {
	return "a0"
}

// KeyBetween returns a key strictly between lo and hi. An empty lo means
// "before everything", an empty hi means "after everything".
func KeyBetween(lo, hi string) (string, error) {
	if lo != "" {
		if err := Validate(lo); err != nil {
			return "", fmt.Errorf("low key: %w", err)
		}
	}
	if hi != "" {
		if err := Validate(hi); err != nil {
			return "", fmt.Errorf("high key: %w", err)
		}
	}
	if lo != "" && hi != "" && lo >= hi {
		return "", fmt.Errorf("low key %q not below high key %q", lo, hi)
	}

	switch {
	case lo == "" && hi == "":
		return First(), nil

	case lo == "":
		ih, fh := splitKey(hi)
		if ih == smallestInteger {
			if fh == "" {
				return "", ErrExhausted
			}
			return ih + midpoint("", fh), nil
		}
		if ih < hi {
			// hi carries a fraction; its bare integer part sorts below it
			return ih, nil
		}
		return decrementInteger(ih)

	case hi == "":
		il, _ := splitKey(lo)
		return incrementInteger(il)

	default:
		il, fl := splitKey(lo)
		ih, fh := splitKey(hi)
		if il == ih {
			return il + midpoint(fl, fh), nil
		}
		next, err := incrementInteger(il)
		if err != nil {
			return "", err
		}
		if next < hi {
			return next, nil
		}
		return il + midpoint(fl, ""), nil
	}
}

// Validate checks that key is a well-formed order key.
func Validate(key string) error {
	if key == "" {
		return fmt.Errorf("empty order key")
	}
	n, err := integerLength(key[0])
	if err != nil {
		return fmt.Errorf("order key %q: %w", key, err)
	}
	if len(key) < n {
		return fmt.Errorf("order key %q shorter than its integer part", key)
	}
	for i := 1; i < len(key); i++ {
		if strings.IndexByte(digits, key[i]) < 0 {
			return fmt.Errorf("order key %q has invalid digit %q", key, key[i])
		}
	}
	if len(key) > n && key[len(key)-1] == digits[0] {
		return fmt.Errorf("order key %q has trailing zero fraction digit", key)
	}
	return nil
}

// integerLength maps a head character to the total length of the integer
// part, head included.
func integerLength(head byte) (int, error) {
	switch {
	case head >= 'a' && head <= 'z':
		return int(head-'a') + 2, nil
	case head >= 'A' && head <= 'Z':
		return int('Z'-head) + 2, nil
	default:
		return 0, fmt.Errorf("invalid head character %q", head)
	}
}

// splitKey separates a well-formed key into integer part and fraction.
func splitKey(key string) (string, string) {
	n, _ := integerLength(key[0])
	return key[:n], key[n:]
}

// incrementInteger returns the next integer part above x.
func incrementInteger(x string) (string, error) {
	head, body := x[0], []byte(x[1:])
	for i := len(body) - 1; i >= 0; i-- {
		d := strings.IndexByte(digits, body[i])
		if d < base-1 {
			body[i] = digits[d+1]
			return string(head) + string(body), nil
		}
		body[i] = digits[0]
	}
	// carry out of the current length
	switch {
	case head == 'z':
		return "", ErrExhausted
	case head == 'Z':
		return "a0", nil
	case head >= 'a':
		return string(head+1) + strings.Repeat(string(digits[0]), len(body)+1), nil
	default:
		return string(head+1) + strings.Repeat(string(digits[0]), len(body)-1), nil
	}
}

// decrementInteger returns the next integer part below x.
func decrementInteger(x string) (string, error) {
	head, body := x[0], []byte(x[1:])
	for i := len(body) - 1; i >= 0; i-- {
		d := strings.IndexByte(digits, body[i])
		if d > 0 {
			body[i] = digits[d-1]
			return string(head) + string(body), nil
		}
		body[i] = digits[base-1]
	}
	// borrow out of the current length
	switch {
	case head == 'A':
		return "", ErrExhausted
	case head == 'a':
		return "Z" + string(digits[base-1]), nil
	case head >= 'b':
		return string(head-1) + strings.Repeat(string(digits[base-1]), len(body)-1), nil
	default:
		return string(head-1) + strings.Repeat(string(digits[base-1]), len(body)+1), nil
	}
}

// midpoint returns the shortest fraction strictly between a and b, where an
// empty a is the bottom of the fraction space and an empty b the top. Both
// are assumed well formed and a < b when both are set.
func midpoint(a, b string) string {
	if b != "" {
		// strip the longest common prefix; a is padded with zero digits
		n := 0
		for n < len(b) && digitAt(a, n) == b[n] {
			n++
		}
		if n > 0 {
			return b[:n] + midpoint(suffix(a, n), b[n:])
		}
	}

	da := strings.IndexByte(digits, digitAt(a, 0))
	db := base
	if b != "" {
		db = strings.IndexByte(digits, b[0])
	}
	if db-da > 1 {
		return string(digits[(da+db+1)/2])
	}

	// bounding digits are consecutive
	if len(b) > 1 {
		return b[:1]
	}
	return string(digits[da]) + midpoint(suffix(a, 1), "")
}

func digitAt(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return digits[0]
}

func suffix(s string, n int) string {
	if n < len(s) {
		return s[n:]
	}
	return ""
}
