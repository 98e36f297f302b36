// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package asset

import (
	"path/filepath"
	"strings"
)

// Scope restricts which local files the asset protocol will serve. A path
// is allowed only when its cleaned form matches at least one pattern. An
// empty scope allows nothing: serving is strictly opt-in.
type Scope struct {
	patterns []string
}

// NewScope builds a scope from glob patterns. A trailing "/**" makes a
// pattern recursive; otherwise filepath.Match semantics apply (one
// pattern component per path component, no recursion).
func NewScope(patterns []string) *Scope {
	cleaned := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		cleaned = append(cleaned, p)
	}
	return &Scope{patterns: cleaned}
}

// Allows reports whether path may be served. The caller must pass a
// cleaned absolute path; Allows cleans again to be safe against traversal
// sequences surviving upstream.
func (s *Scope) Allows(path string) bool {
	path = filepath.Clean(path)
	for _, pattern := range s.patterns {
		if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
			prefix = filepath.Clean(prefix)
			if path == prefix || strings.HasPrefix(path, prefix+string(filepath.Separator)) {
				return true
			}
			continue
		}
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}
