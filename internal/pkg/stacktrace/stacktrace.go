// Package stacktrace trims goroutine dumps down to the frames that belong to this module.
package stacktrace

import (
	"runtime/debug"
	"strings"
)

const marker = "/internal/"

// InternalPaths returns the "internal/<pkg>/<file>.go:<line>" locations found in a
// raw stack as produced by debug.Stack. Frames outside internal/ are dropped.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "/") || !strings.Contains(line, ".go:") {
			continue
		}

		loc, _, _ := strings.Cut(line, " ")
		idx := strings.Index(loc, marker)
		if idx == -1 {
			continue
		}
		paths = append(paths, loc[idx+1:])
	}
	return paths
}

// Capture returns the internal frames of the calling goroutine, or the full
// dump when none of them are internal.
func Capture() any {
	stack := debug.Stack()
	if paths := InternalPaths(stack); len(paths) > 0 {
		return paths
	}
	return string(stack)
}
