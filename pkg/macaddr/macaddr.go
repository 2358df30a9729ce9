// Package macaddr provides utilities for working with MAC addresses including
// normalization, formatting, wildcard patterns, and extraction of the MAC that
// Mist embeds in device ids.
package macaddr

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Matcher reports whether a MAC address (any separator style) matches.
type Matcher func(mac string) bool

// NormalizeExactMac normalizes a MAC address to a 12-character lowercase hex string
// without separators. Accepts colon, dash, dot, or no separators.
func NormalizeExactMac(input string) (string, error) {
	clean := stripSeparators(strings.ToLower(strings.TrimSpace(input)))
	if len(clean) != 12 {
		return "", fmt.Errorf("invalid MAC address length: %s", input)
	}
	for i := 0; i < len(clean); i++ {
		if !isHexDigit(clean[i]) {
			return "", fmt.Errorf("invalid MAC address characters: %s", input)
		}
	}
	return clean, nil
}

// Equal reports whether a and b are the same MAC address regardless of case
// or separator style. Invalid or empty addresses never compare equal.
func Equal(a, b string) bool {
	na, err := NormalizeExactMac(a)
	if err != nil {
		return false
	}
	nb, err := NormalizeExactMac(b)
	if err != nil {
		return false
	}
	return na == nb
}

// FromDeviceID extracts the MAC address from a Mist device id of the form
// 00000000-0000-0000-1000-5c5b35a1b2c3. The result is normalized.
func FromDeviceID(id string) (string, bool) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	for _, b := range u[:8] {
		if b != 0 {
			return "", false
		}
	}
	mac := hex.EncodeToString(u[10:])
	if mac == "000000000000" {
		return "", false
	}
	return mac, true
}

// FormatMacColon formats a MAC address with colon separators.
// Example: "5C5B35A1B2C3" -> "5c:5b:35:a1:b2:c3". Input that is not a valid
// MAC is returned unchanged.
func FormatMacColon(mac string) string {
	clean, err := NormalizeExactMac(mac)
	if err != nil {
		return mac
	}
	var b strings.Builder
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(clean[i : i+2])
	}
	return b.String()
}

// Compile builds a Matcher from an exact MAC or a pattern.
//
// Supports:
//   - Exact MAC: "5c:5b:35:a1:b2:c3"
//   - Wildcards: "5c:5b:35:*:*:*" where * matches one byte
//   - Bracket patterns: "5c:5b:35:a1:b2:[0-3][0-f]" for hex ranges
func Compile(pattern string) (Matcher, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, errors.New("MAC pattern cannot be empty")
	}

	if !strings.ContainsAny(pattern, "*[") {
		want, err := NormalizeExactMac(pattern)
		if err != nil {
			return nil, err
		}
		return func(mac string) bool {
			got, err := NormalizeExactMac(mac)
			return err == nil && got == want
		}, nil
	}

	re, err := BuildMacRegex(strings.ToUpper(stripPatternSeparators(pattern)))
	if err != nil {
		return nil, err
	}
	return func(mac string) bool {
		got, err := NormalizeExactMac(mac)
		if err != nil {
			return false
		}
		return re.MatchString(strings.ToUpper(got))
	}, nil
}

// BuildMacRegex builds an anchored regex from an uppercase, separator-free
// pattern such as "5C5B35***" or "5C5B35A1B2[0-3][0-F]".
func BuildMacRegex(clean string) (*regexp.Regexp, error) {
	var b strings.Builder
	nibbles := 0
	for i := 0; i < len(clean); {
		switch c := clean[i]; {
		case c == '[':
			end := strings.IndexByte(clean[i:], ']')
			if end == -1 {
				return nil, errors.New("unmatched bracket in MAC pattern")
			}
			class, err := sanitizeBracket(clean[i : i+end+1])
			if err != nil {
				return nil, err
			}
			b.WriteString(class)
			nibbles++
			i += end + 1
		case c == '*':
			b.WriteString("[0-9A-F]{2}")
			nibbles += 2
			i++
		case isHexDigit(c):
			b.WriteByte(c)
			nibbles++
			i++
		default:
			return nil, fmt.Errorf("invalid MAC pattern: %s", clean)
		}
	}
	if nibbles != 12 {
		return nil, fmt.Errorf("invalid MAC pattern length (need 12 nibbles): %s", clean)
	}
	return regexp.Compile("^" + b.String() + "$")
}

func sanitizeBracket(token string) (string, error) {
	inner := strings.ToUpper(strings.TrimSuffix(strings.TrimPrefix(token, "["), "]"))
	if inner == "" {
		return "", errors.New("empty bracket pattern")
	}
	for i := 0; i < len(inner); i++ {
		if inner[i] != '-' && !isHexDigit(inner[i]) {
			return "", fmt.Errorf("invalid bracket pattern: %s", token)
		}
	}
	return "[" + inner + "]", nil
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ':' || r == '.' || r == '-' {
			return -1
		}
		return r
	}, s)
}

// stripPatternSeparators removes separators outside of bracket classes so
// ranges such as [0-3] survive.
func stripPatternSeparators(s string) string {
	var b strings.Builder
	inBracket := false
	for _, r := range s {
		switch {
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case !inBracket && (r == ':' || r == '.' || r == '-'):
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}
