package evr

import "strings"

// Vercmp compares two version or release strings the way rpm does.
//
// Both strings are walked as alternating runs of digits and letters; any
// other byte only separates runs. Digit runs compare numerically (leading
// zeros ignored, the longer run wins), letter runs compare lexically, and a
// digit run is newer than a letter run. A tilde sorts before everything,
// including the end of the string; a caret sorts after the end of the string
// but before anything else. When all runs match, the string with runs left
// over is newer.
//
//	 1: a is newer than b
//	 0: a and b are the same version
//	-1: b is newer than a
func Vercmp(a, b string) int {
	if a == b {
		return 0
	}

	for {
		a = strings.TrimLeftFunc(a, isSeparator)
		b = strings.TrimLeftFunc(b, isSeparator)

		aTilde, bTilde := strings.HasPrefix(a, "~"), strings.HasPrefix(b, "~")
		switch {
		case aTilde && bTilde:
			a, b = a[1:], b[1:]
			continue
		case aTilde:
			return -1
		case bTilde:
			return 1
		}

		aCaret, bCaret := strings.HasPrefix(a, "^"), strings.HasPrefix(b, "^")
		switch {
		case aCaret && bCaret:
			a, b = a[1:], b[1:]
			continue
		case aCaret:
			if b == "" {
				return 1
			}
			return -1
		case bCaret:
			if a == "" {
				return -1
			}
			return 1
		}

		if a == "" || b == "" {
			break
		}

		numeric := isDigit(rune(a[0]))
		var segA, segB string
		if numeric {
			segA, a = span(a, isDigit)
			segB, b = span(b, isDigit)
		} else {
			segA, a = span(a, isAlpha)
			segB, b = span(b, isAlpha)
		}

		// Segments of different types: numeric is newer.
		if segB == "" {
			if numeric {
				return 1
			}
			return -1
		}

		if numeric {
			segA = strings.TrimLeft(segA, "0")
			segB = strings.TrimLeft(segB, "0")
			if len(segA) != len(segB) {
				if len(segA) > len(segB) {
					return 1
				}
				return -1
			}
		}
		if c := strings.Compare(segA, segB); c != 0 {
			return c
		}
	}

	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}

// span splits s at the first rune not accepted by f.
func span(s string, f func(rune) bool) (string, string) {
	i := strings.IndexFunc(s, func(r rune) bool { return !f(r) })
	if i == -1 {
		return s, ""
	}
	return s[:i], s[i:]
}

func isSeparator(r rune) bool { return !isAlnum(r) && r != '~' && r != '^' }

func isAlpha(r rune) bool { return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isAlnum(r rune) bool { return isAlpha(r) || isDigit(r) }
