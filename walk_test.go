// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

package ustar

import (
	"errors"
	"os"
	"path"
	"slices"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/woozymasta/pathrules"
)

// failingMetadata fails Lstat for selected paths and delegates the rest.
type failingMetadata struct {
	base MetadataProvider
	fail map[string]error
}

func (m failingMetadata) Lstat(path string) (FileMetadata, error) {
	if err, ok := m.fail[path]; ok {
		return FileMetadata{}, err
	}

	return m.base.Lstat(path)
}

// newMemTree returns an in-memory fs populated with files; names ending
// with "/" become empty directories.
func newMemTree(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()

	fsys := afero.NewMemMapFs()
	for name, content := range files {
		if name[len(name)-1] == '/' {
			if err := fsys.MkdirAll(name, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", name, err)
			}
			continue
		}

		if err := fsys.MkdirAll(path.Dir(name), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", path.Dir(name), err)
		}
		if err := afero.WriteFile(fsys, name, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	return fsys
}

// walkPaths collects item paths of a walk.
func walkPaths(t *testing.T, fsys afero.Fs, roots []string, opts WalkOptions) []string {
	t.Helper()

	var paths []string
	err := Walk(fsys, roots, opts, func(item WalkItem) error {
		paths = append(paths, item.Path)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	return paths
}

func sampleTree(t *testing.T) afero.Fs {
	t.Helper()

	return newMemTree(t, map[string]string{
		"src/z.txt":      "z",
		"src/a.txt":      "a",
		"src/sub/b.txt":  "b",
		"src/sub/empty/": "",
		"src/debug.log":  "log",
		"other.txt":      "o",
	})
}

func TestWalk_PreOrder(t *testing.T) {
	t.Parallel()

	logger, _ := nullLogger()
	got := walkPaths(t, sampleTree(t), []string{"src", "other.txt"}, WalkOptions{Logger: logger})
	want := []string{
		"src/",
		"src/a.txt",
		"src/debug.log",
		"src/sub/",
		"src/sub/b.txt",
		"src/sub/empty/",
		"src/z.txt",
		"other.txt",
	}

	if !slices.Equal(got, want) {
		t.Fatalf("paths=%v, want %v", got, want)
	}
}

func TestWalk_Metadata(t *testing.T) {
	t.Parallel()

	fsys := sampleTree(t)
	logger, _ := nullLogger()

	items := map[string]WalkItem{}
	err := Walk(fsys, []string{"src"}, WalkOptions{Logger: logger}, func(item WalkItem) error {
		items[item.Path] = item
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	dir := items["src/sub/"]
	if dir.Meta.Type != FileTypeDir || dir.Meta.Mode != 0o755 {
		t.Fatalf("dir meta=%+v", dir.Meta)
	}

	file := items["src/a.txt"]
	if file.Meta.Type != FileTypeRegular || file.Meta.Size != 1 || file.Meta.Mode != 0o644 {
		t.Fatalf("file meta=%+v", file.Meta)
	}
}

func TestWalk_MissingRootIsSkipped(t *testing.T) {
	t.Parallel()

	logger, hook := nullLogger()
	got := walkPaths(t, sampleTree(t), []string{"missing", "other.txt"}, WalkOptions{Logger: logger})
	if !slices.Equal(got, []string{"other.txt"}) {
		t.Fatalf("paths=%v", got)
	}

	if hook.LastEntry() == nil || hook.LastEntry().Level != logrus.WarnLevel {
		t.Fatal("missing root was not reported")
	}
}

func TestWalk_StatFailureSkipsEntry(t *testing.T) {
	t.Parallel()

	fsys := sampleTree(t)
	logger, _ := nullLogger()
	meta := failingMetadata{
		base: NewMetadataProvider(fsys),
		fail: map[string]error{
			"src/sub": os.ErrPermission,
		},
	}

	got := walkPaths(t, fsys, []string{"src"}, WalkOptions{Logger: logger, Metadata: meta})
	want := []string{"src/", "src/a.txt", "src/debug.log", "src/z.txt"}
	if !slices.Equal(got, want) {
		t.Fatalf("paths=%v, want %v", got, want)
	}
}

func TestWalk_LookupFailureIsFatal(t *testing.T) {
	t.Parallel()

	fsys := sampleTree(t)
	logger, _ := nullLogger()

	for _, sentinel := range []error{ErrOwnerLookup, ErrGroupLookup} {
		meta := failingMetadata{
			base: NewMetadataProvider(fsys),
			fail: map[string]error{"src/sub/b.txt": sentinel},
		}

		var seen []string
		err := Walk(fsys, []string{"src", "other.txt"}, WalkOptions{Logger: logger, Metadata: meta}, func(item WalkItem) error {
			seen = append(seen, item.Path)
			return nil
		})
		if !errors.Is(err, sentinel) {
			t.Fatalf("err=%v, want %v", err, sentinel)
		}
		if slices.Contains(seen, "other.txt") {
			t.Fatal("walk continued after lookup failure")
		}
	}
}

func TestWalk_CallbackErrorStops(t *testing.T) {
	t.Parallel()

	stop := errors.New("stop")
	logger, _ := nullLogger()

	calls := 0
	err := Walk(sampleTree(t), []string{"src"}, WalkOptions{Logger: logger}, func(WalkItem) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("err=%v, want stop", err)
	}
	if calls != 2 {
		t.Fatalf("calls=%d, want 2", calls)
	}
}

func TestWalk_ExcludeRules(t *testing.T) {
	t.Parallel()

	logger, _ := nullLogger()
	opts := WalkOptions{
		Logger: logger,
		Exclude: []pathrules.Rule{
			{Action: pathrules.ActionInclude, Pattern: "*.log"},
			{Action: pathrules.ActionInclude, Pattern: "sub/"},
		},
	}

	got := walkPaths(t, sampleTree(t), []string{"src"}, opts)
	want := []string{"src/", "src/a.txt", "src/z.txt"}
	if !slices.Equal(got, want) {
		t.Fatalf("paths=%v, want %v", got, want)
	}
}

func TestWalk_InvalidExcludeRule(t *testing.T) {
	t.Parallel()

	opts := WalkOptions{
		Exclude: []pathrules.Rule{{Action: pathrules.ActionUnknown, Pattern: "*.log"}},
	}

	err := Walk(sampleTree(t), []string{"src"}, opts, func(WalkItem) error { return nil })
	if !errors.Is(err, ErrInvalidExcludePattern) {
		t.Fatalf("err=%v, want ErrInvalidExcludePattern", err)
	}
}

func TestModeBits(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		mode os.FileMode
		want int64
	}{
		{mode: 0o644, want: 0o644},
		{mode: os.ModeDir | 0o755, want: 0o755},
		{mode: os.ModeSetuid | 0o755, want: 0o4755},
		{mode: os.ModeSetgid | os.ModeSticky | 0o700, want: 0o3700},
	}

	for _, tc := range testCases {
		if got := modeBits(tc.mode); got != tc.want {
			t.Fatalf("modeBits(%v)=%o, want %o", tc.mode, got, tc.want)
		}
	}
}
