// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

package ustar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/woozymasta/pathrules"
)

// WalkItem is one filesystem object selected for archiving.
type WalkItem struct {
	// Path is the archive name; directory paths end with "/".
	Path string `json:"path" yaml:"path"`
	// Meta is the object metadata.
	Meta FileMetadata `json:"meta" yaml:"meta"`
}

// WalkFunc receives walk items in archive order. A non-nil error stops the walk.
type WalkFunc func(item WalkItem) error

// excludeMatcher holds compiled exclude rules.
type excludeMatcher struct {
	matcher *pathrules.Matcher
}

// Walk traverses roots depth-first in pre-order: a directory is emitted
// before its children, children in name order. Regular files and symlinks
// are leaves; symlinks are never followed.
//
// Objects that cannot be stated, read or archived are logged and skipped.
// Owner and group lookup failures stop the walk.
func Walk(fsys afero.Fs, roots []string, opts WalkOptions, fn WalkFunc) error {
	opts.applyDefaults()

	if opts.Metadata == nil {
		opts.Metadata = NewMetadataProvider(fsys)
	}

	exclude, err := newExcludeMatcher(opts.Exclude, opts.ExcludeMatcherOptions)
	if err != nil {
		return err
	}

	w := &walker{fs: fsys, meta: opts.Metadata, log: opts.Logger, exclude: exclude}
	for _, root := range roots {
		if err := w.walkRoot(root, fn); err != nil {
			return err
		}
	}

	return nil
}

// walker carries traversal state shared by all roots.
type walker struct {
	fs      afero.Fs
	meta    MetadataProvider
	log     logrus.FieldLogger
	exclude *excludeMatcher
}

// walkRoot emits root and, for directories, its whole subtree.
func (w *walker) walkRoot(root string, fn WalkFunc) error {
	rootItem, ok, err := w.item(root)
	if err != nil || !ok {
		return err
	}

	// Explicit stack; children are pushed in reverse so they pop in order.
	stack := []WalkItem{rootItem}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := fn(item); err != nil {
			return err
		}

		if item.Meta.Type != FileTypeDir {
			continue
		}

		children, err := afero.ReadDir(w.fs, item.Path)
		if err != nil {
			w.log.WithError(err).WithField("path", item.Path).Warn("cannot read directory, skipping contents")
			continue
		}

		batch := make([]WalkItem, 0, len(children))
		for _, child := range children {
			name := child.Name()
			if name == "." || name == ".." {
				continue
			}

			childItem, ok, err := w.item(item.Path + name)
			if err != nil {
				return err
			}
			if ok {
				batch = append(batch, childItem)
			}
		}

		for i := len(batch) - 1; i >= 0; i-- {
			stack = append(stack, batch[i])
		}
	}

	return nil
}

// item resolves one path into a walk item. It reports false for objects that
// are skipped; only fatal lookup failures are returned as errors.
func (w *walker) item(path string) (WalkItem, bool, error) {
	meta, err := w.meta.Lstat(path)
	if err != nil {
		if errors.Is(err, ErrOwnerLookup) || errors.Is(err, ErrGroupLookup) {
			return WalkItem{}, false, err
		}

		w.log.WithError(err).WithField("path", path).Warn("cannot stat path, skipping")
		return WalkItem{}, false, nil
	}

	if meta.Type == FileTypeUnknown {
		w.log.WithField("path", path).Warn("unsupported file type, skipping")
		return WalkItem{}, false, nil
	}

	isDir := meta.Type == FileTypeDir
	if isDir && !strings.HasSuffix(path, "/") {
		path += "/"
	}

	if w.exclude.Match(path, isDir) {
		w.log.WithField("path", path).Debug("excluded by rule")
		return WalkItem{}, false, nil
	}

	return WalkItem{Path: path, Meta: meta}, true, nil
}

// newExcludeMatcher compiles exclude rules; no rules yields a nil matcher.
func newExcludeMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*excludeMatcher, error) {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := strings.TrimPrefix(strings.TrimSpace(rule.Pattern), "./")
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{Action: rule.Action, Pattern: pattern})
	}

	if len(normalized) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(normalized, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidExcludePattern, err)
	}

	return &excludeMatcher{matcher: matcher}, nil
}

// Match reports whether path is excluded from the archive.
func (m *excludeMatcher) Match(path string, isDir bool) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	candidate := strings.TrimPrefix(strings.TrimSuffix(path, "/"), "./")
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, isDir)
}
