// Package helpers holds small utilities for sanitizing LLM output before it
// is parsed. Models wrap JSON in prose, markdown fences, or a BOM depending
// on mood; callers should never json.Unmarshal raw completions directly.
package helpers

import (
	"errors"
	"strings"
)

// ExtractJSON returns the first balanced JSON object or array embedded in s.
// Markdown code fences and surrounding prose are stripped; braces and
// brackets inside string literals are ignored while balancing.
func ExtractJSON(s string) (string, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "\ufeff")
	if inner, ok := unfence(s); ok {
		s = strings.TrimSpace(inner)
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		if out, ok := balancedFrom(s, i); ok {
			return out, nil
		}
	}
	return "", errors.New("no balanced JSON object or array found")
}

// unfence strips the first ``` or ~~~ fenced block when s opens with one,
// tolerating a language tag on the fence line.
func unfence(s string) (string, bool) {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	var fence string
	switch {
	case strings.HasPrefix(trimmed, "```"):
		fence = "```"
	case strings.HasPrefix(trimmed, "~~~"):
		fence = "~~~"
	default:
		return "", false
	}
	rest := trimmed[len(fence):]
	nl := strings.IndexByte(rest, '\n')
	if nl == -1 {
		return "", false
	}
	rest = rest[nl+1:]
	end := strings.Index(rest, fence)
	if end == -1 {
		return "", false
	}
	return rest[:end], true
}

// balancedFrom scans for the close matching the opener at s[start],
// rejecting mismatched pairs like "{]".
func balancedFrom(s string, start int) (string, bool) {
	var stack []byte
	var inString, escaped bool
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
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 {
				return "", false
			}
			open := stack[len(stack)-1]
			if (open == '{' && c != '}') || (open == '[' && c != ']') {
				return "", false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
