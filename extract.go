// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

package ustar

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Output permissions for extracted objects before umask.
const (
	extractDirMode  os.FileMode = 0o777
	extractExecMode os.FileMode = 0o777
	extractFileMode os.FileMode = 0o666
)

// Extractor materializes archive entries under a root directory.
type Extractor struct {
	fs     afero.Fs
	log    logrus.FieldLogger
	root   string
	strict bool
}

// NewExtractor returns an Extractor writing into root on fsys.
// An empty root means the current directory.
func NewExtractor(fsys afero.Fs, root string, opts ExtractOptions) *Extractor {
	opts.applyDefaults()

	if root == "" {
		root = "."
	}

	root = filepath.Clean(root)
	if strings.HasPrefix(filepath.ToSlash(root), "..") {
		// Scoped joins need a root without ".." segments.
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}

	return &Extractor{
		fs:     fsys,
		log:    opts.ReadOptions.Logger,
		root:   root,
		strict: opts.ReadOptions.Strict,
	}
}

// Extract creates the filesystem object for hdr and returns its output path.
// Content of regular files is streamed from r. Missing parent directories are
// created; existing directories are not an error. Symlink creation is
// best-effort: failures are logged, not returned.
//
// Symlinks already present under the root are resolved as if the root were
// the filesystem root, so no entry is written outside of it. A symlink at the
// output path of a regular file is replaced, not followed.
//
// In strict mode an entry with a GNU binary-encoded uid fails with ErrGNUUid.
func (e *Extractor) Extract(hdr *Header, r *Reader) (string, error) {
	if e.strict && hdr.GNUUid {
		return "", fmt.Errorf("%w: %s", ErrGNUUid, hdr.Name)
	}

	rel, err := normalizeExtractEntryPath(hdr.Name)
	if err == nil && rel == "" && !hdr.IsDir() {
		err = ErrInvalidExtractPath
	}
	if err != nil {
		return "", fmt.Errorf("entry %q: %w", hdr.Name, err)
	}

	outPath, err := e.resolve(rel)
	if err != nil {
		return "", fmt.Errorf("entry %q: %w", hdr.Name, err)
	}

	switch {
	case hdr.IsDir():
		if err := e.fs.MkdirAll(outPath, extractDirMode); err != nil {
			return "", fmt.Errorf("create directory %s: %w", outPath, err)
		}
	case hdr.IsSymlink():
		if err := e.mkParent(outPath); err != nil {
			return "", err
		}

		if err := e.symlink(hdr.Linkname, outPath); err != nil {
			e.log.WithError(err).WithField("path", outPath).Warn("failed to create symlink")
		}
	case hdr.IsRegular():
		if err := e.mkParent(outPath); err != nil {
			return "", err
		}

		if err := e.writeFile(outPath, hdr, r); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("%w: %s: typeflag %q", ErrUnsupportedType, hdr.Name, hdr.Typeflag)
	}

	return outPath, nil
}

// resolve maps a normalized entry path to its output path. Parent
// components are joined through existing symlinks scoped to the root; the
// final component is kept as is.
func (e *Extractor) resolve(rel string) (string, error) {
	if rel == "" {
		return e.root, nil
	}

	dir, base := path.Split(rel)
	safeDir, err := securejoin.SecureJoinVFS(e.root, dir, aferoVFS{fs: e.fs})
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %w", ErrInvalidExtractPath, rel, err)
	}

	return filepath.Join(safeDir, base), nil
}

// aferoVFS exposes afero lstat and readlink to securejoin.
type aferoVFS struct {
	fs afero.Fs
}

func (v aferoVFS) Lstat(name string) (os.FileInfo, error) {
	return lstat(v.fs, name)
}

func (v aferoVFS) Readlink(name string) (string, error) {
	return readlink(v.fs, name)
}

// mkParent creates all missing parent directories of path.
func (e *Extractor) mkParent(path string) error {
	dir := filepath.Dir(path)
	if err := e.fs.MkdirAll(dir, extractDirMode); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	return nil
}

// symlink creates a symbolic link at path pointing to target.
func (e *Extractor) symlink(target, path string) error {
	linker, ok := e.fs.(afero.Linker)
	if !ok {
		return &os.LinkError{Op: "symlink", Old: target, New: path, Err: afero.ErrNoSymlink}
	}

	return linker.SymlinkIfPossible(target, path)
}

// writeFile creates or truncates path and streams the entry content into it.
// A symlink at path is removed first.
func (e *Extractor) writeFile(path string, hdr *Header, r *Reader) error {
	if fi, err := lstat(e.fs, path); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		if err := e.fs.Remove(path); err != nil {
			return fmt.Errorf("replace symlink %s: %w", path, err)
		}
	}

	file, err := e.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, extractPerm(hdr.Mode))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	_, copyErr := r.WriteContentTo(file)
	closeErr := file.Close()
	if copyErr != nil {
		return fmt.Errorf("write %s: %w", path, copyErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}

	return nil
}

// extractPerm grants rwx to everyone when any execute bit is stored,
// rw to everyone otherwise.
func extractPerm(mode int64) os.FileMode {
	if mode&0o111 != 0 {
		return extractExecMode
	}

	return extractFileMode
}

// normalizeExtractEntryPath strips leading separators and "." segments and
// rejects traversal outside the extraction root. A path made only of "."
// segments, such as "./", normalizes to the empty string.
func normalizeExtractEntryPath(entryPath string) (string, error) {
	if entryPath == "" || strings.ContainsRune(entryPath, 0) {
		return "", ErrInvalidExtractPath
	}

	parts := strings.Split(entryPath, "/")
	cleanParts := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", ErrInvalidExtractPath
		default:
			cleanParts = append(cleanParts, part)
		}
	}
	return strings.Join(cleanParts, "/"), nil
}
