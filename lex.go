package shaderscript

import (
	"strconv"
	"strings"
)

// eatWhitespace returns s with leading spaces and tabs removed. Newlines
// never appear because callers operate on single lines.
func eatWhitespace(s string) string {
	return strings.TrimLeft(s, " \t\r")
}

// scanToken splits off the leading whitespace-terminated token.
func scanToken(s string) (token, rest string) {
	s = eatWhitespace(s)
	i := strings.IndexAny(s, " \t\r")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

// scanFloat reads one float literal from the front of s using standard
// float lexing: optional sign, digits, optional fraction and exponent.
// It returns the value and the unconsumed remainder.
func scanFloat(s string) (v float64, rest string, ok bool) {
	s = eatWhitespace(s)
	end := floatEnd(s)
	if end == 0 {
		return 0, s, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, s, false
	}
	return v, s[end:], true
}

// floatEnd returns the length of the longest float-literal prefix of s.
func floatEnd(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expDigits := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			expDigits++
		}
		if expDigits > 0 {
			i = j
		}
	}
	return i
}

// parseFloats reads exactly count floats from s, separated by whitespace or
// commas, and returns them as float32. A line with fewer well-formed
// numbers than the caller requires is a malformed script, reported loudly
// rather than padded with defaults.
func parseFloats(s string, count int, line string) ([]float32, error) {
	out := make([]float32, 0, count)
	rest := s
	for len(out) < count {
		rest = strings.TrimLeft(rest, " \t\r,")
		v, r, ok := scanFloat(rest)
		if !ok {
			return nil, &ScriptError{
				Line: line,
				Msg:  "expected " + strconv.Itoa(count) + " numeric arguments",
			}
		}
		out = append(out, float32(v))
		rest = r
	}
	return out, nil
}
