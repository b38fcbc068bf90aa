package validation

import (
	"strconv"
	"strings"
	"unicode"
)

// Grammar checks for the XSD micro-types scripts declare. Each checker
// reports whether a single literal value satisfies the type.

func isBoolean(s string) bool {
	return s == "true" || s == "false"
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isDecimal(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func integerValue(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

// isNameStartChar follows the XML Name production's start set, without the
// colon (NCName start set).
func isNameStartChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// isNameChar follows the XML NameChar production, without the colon.
func isNameChar(r rune) bool {
	return isNameStartChar(r) || r == '-' || r == '.' || unicode.IsDigit(r) ||
		unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

// isNCName checks the XML NCName production: a Name with no colons.
func isNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !isNameStartChar(r) {
				return false
			}
			continue
		}
		if !isNameChar(r) {
			return false
		}
	}
	return true
}

// isName checks the XML Name production: like NCName but colons are
// permitted.
func isName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if r != ':' && !isNameStartChar(r) {
				return false
			}
			continue
		}
		if r != ':' && !isNameChar(r) {
			return false
		}
	}
	return true
}

// isQName checks the XML QName production: an optional NCName prefix, a
// colon, and an NCName local part.
func isQName(s string) bool {
	prefix, local, found := strings.Cut(s, ":")
	if !found {
		return isNCName(s)
	}
	return isNCName(prefix) && isNCName(local)
}

// isNmtoken checks the XML Nmtoken production: one or more name
// characters, with no start-character restriction.
func isNmtoken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != ':' && !isNameChar(r) {
			return false
		}
	}
	return true
}

// isLanguage checks the RFC 3066 language-tag grammar: a 1-8 letter
// primary tag followed by zero or more 1-8 character alphanumeric subtags.
func isLanguage(s string) bool {
	tags := strings.Split(s, "-")
	for i, tag := range tags {
		if len(tag) < 1 || len(tag) > 8 {
			return false
		}
		for _, r := range tag {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9':
				if i == 0 {
					return false
				}
			default:
				return false
			}
		}
	}
	return true
}
