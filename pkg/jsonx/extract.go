// Package jsonx pulls JSON objects out of free-form model output.
package jsonx

import (
	"errors"
	"strings"
)

var (
	// ErrNoObject is returned when the input contains no '{'
	ErrNoObject = errors.New("no JSON object found")
	// ErrUnbalanced is returned when an object is opened but never closed
	ErrUnbalanced = errors.New("unbalanced JSON object")
)

// ExtractObject returns the first balanced {...} span in s. Braces inside
// string literals are ignored. The span is not validated as JSON.
func ExtractObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", ErrUnbalanced
}

// StripFences removes a surrounding markdown code fence (``` or ```json)
// and returns the trimmed body. Input without a fence is returned trimmed.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		trimmed = ""
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")

	return strings.TrimSpace(trimmed)
}

// HasFence reports whether s carries a code fence marker anywhere
func HasFence(s string) bool {
	return strings.Contains(s, "```")
}
