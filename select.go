// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

package ustar

import "strings"

// Selector matches archive entry names against requested path prefixes.
// A prefix matches itself and any descendant: "a/b" selects "a/b", "a/b/"
// and "a/b/c" but not "a/bc". An empty prefix or "/" selects every entry.
type Selector struct {
	// requested keeps prefixes as given, for reporting.
	requested []string
	// prefixes holds requested prefixes without their trailing separator.
	prefixes []string
}

// NewSelector returns a Selector for prefixes. Order decides which prefix is
// reported when several match.
func NewSelector(prefixes []string) *Selector {
	s := &Selector{
		requested: make([]string, len(prefixes)),
		prefixes:  make([]string, len(prefixes)),
	}

	copy(s.requested, prefixes)
	for i, p := range prefixes {
		s.prefixes[i] = strings.TrimSuffix(p, "/")
	}

	return s
}

// All reports whether the selector matches every entry.
func (s *Selector) All() bool {
	return s == nil || len(s.prefixes) == 0
}

// Match reports whether name is selected and returns the first requested
// prefix that matched. An empty selector matches everything.
func (s *Selector) Match(name string) (string, bool) {
	if s.All() {
		return "", true
	}

	for i, prefix := range s.prefixes {
		if prefix == "" {
			// "" and "/" name the archive root.
			return s.requested[i], true
		}

		if !strings.HasPrefix(name, prefix) {
			continue
		}

		if len(name) == len(prefix) || name[len(prefix)] == '/' {
			return s.requested[i], true
		}
	}

	return "", false
}
