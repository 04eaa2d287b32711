// Package glob implements the minimal path-glob matcher needed
// for exclude patterns: "*" (any characters within one path
// segment), "**" (any number of segments, including zero), and "?" (a
// single character). No pack example library matches this exact semantic,
// so this is hand-rolled over the strings package (see DESIGN.md).
package glob

import "strings"

// Match reports whether path matches pattern under the exclude-pattern
// semantics. Both pattern and path are expected to already
// use "/" as the segment separator; callers normalize before calling.
func Match(pattern, path string) bool {
	patternSegs := strings.Split(pattern, "/")
	pathSegs := strings.Split(path, "/")
	return matchSegments(patternSegs, pathSegs)
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}

	head := pattern[0]
	if head == "**" {
		// ** may consume zero or more path segments.
		if matchSegments(pattern[1:], path) {
			return true
		}
		if len(path) == 0 {
			return false
		}
		return matchSegments(pattern, path[1:])
	}

	if len(path) == 0 {
		return false
	}
	if !matchSegment(head, path[0]) {
		return false
	}
	return matchSegments(pattern[1:], path[1:])
}

// matchSegment matches a single path segment against a single pattern
// segment containing "*" and "?" wildcards (no "/" within either side).
func matchSegment(pattern, seg string) bool {
	return matchRunes([]rune(pattern), []rune(seg))
}

func matchRunes(pattern, seg []rune) bool {
	if len(pattern) == 0 {
		return len(seg) == 0
	}

	switch pattern[0] {
	case '*':
		if matchRunes(pattern[1:], seg) {
			return true
		}
		if len(seg) == 0 {
			return false
		}
		return matchRunes(pattern, seg[1:])
	case '?':
		if len(seg) == 0 {
			return false
		}
		return matchRunes(pattern[1:], seg[1:])
	default:
		if len(seg) == 0 || seg[0] != pattern[0] {
			return false
		}
		return matchRunes(pattern[1:], seg[1:])
	}
}

// MatchAny reports whether path matches any of patterns.
func MatchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if Match(p, path) {
			return true
		}
	}
	return false
}
