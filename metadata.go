// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

package ustar

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

// MetadataProvider resolves archive metadata for one filesystem path
// without following a final symlink.
type MetadataProvider interface {
	Lstat(path string) (FileMetadata, error)
}

// fsMetadata is the afero-backed MetadataProvider.
type fsMetadata struct {
	fs          afero.Fs
	lookupOwner func(uid int64) (string, error)
	lookupGroup func(gid int64) (string, error)
}

// NewMetadataProvider returns a MetadataProvider reading from fsys.
// Owner and group names are resolved from the system user and group databases.
func NewMetadataProvider(fsys afero.Fs) MetadataProvider {
	return &fsMetadata{
		fs:          fsys,
		lookupOwner: lookupOwnerName,
		lookupGroup: lookupGroupName,
	}
}

// Lstat returns metadata for path. Stat and readlink failures are returned
// as is; name lookup failures wrap ErrOwnerLookup or ErrGroupLookup.
func (m *fsMetadata) Lstat(path string) (FileMetadata, error) {
	fi, err := lstat(m.fs, path)
	if err != nil {
		return FileMetadata{}, fmt.Errorf("stat %s: %w", path, err)
	}

	meta := FileMetadata{
		ModTime: fi.ModTime(),
		Mode:    modeBits(fi.Mode()),
		Size:    fi.Size(),
	}

	switch {
	case fi.Mode().IsRegular():
		meta.Type = FileTypeRegular
	case fi.IsDir():
		meta.Type = FileTypeDir
	case fi.Mode()&fs.ModeSymlink != 0:
		meta.Type = FileTypeSymlink
		meta.Linkname, err = readlink(m.fs, path)
		if err != nil {
			return FileMetadata{}, fmt.Errorf("readlink %s: %w", path, err)
		}
	default:
		meta.Type = FileTypeUnknown
	}

	uid, gid, ok := fileOwner(fi)
	if !ok {
		return meta, nil
	}

	meta.Uid, meta.Gid = uid, gid
	if meta.Uname, err = m.lookupOwner(uid); err != nil {
		return FileMetadata{}, fmt.Errorf("%w: %s: uid %d: %w", ErrOwnerLookup, path, uid, err)
	}
	if meta.Gname, err = m.lookupGroup(gid); err != nil {
		return FileMetadata{}, fmt.Errorf("%w: %s: gid %d: %w", ErrGroupLookup, path, gid, err)
	}

	return meta, nil
}

// lstat stats path without following a final symlink when fsys supports it.
func lstat(fsys afero.Fs, path string) (os.FileInfo, error) {
	if lst, ok := fsys.(afero.Lstater); ok {
		fi, _, err := lst.LstatIfPossible(path)
		return fi, err
	}

	return fsys.Stat(path)
}

// readlink returns the target of the symlink at path.
func readlink(fsys afero.Fs, path string) (string, error) {
	lr, ok := fsys.(afero.LinkReader)
	if !ok {
		return "", &os.PathError{Op: "readlink", Path: path, Err: afero.ErrNoReadlink}
	}

	return lr.ReadlinkIfPossible(path)
}

// modeBits converts fs.FileMode to ustar permission bits.
func modeBits(fm fs.FileMode) int64 {
	mode := int64(fm.Perm())
	if fm&fs.ModeSetuid != 0 {
		mode |= 0o4000
	}
	if fm&fs.ModeSetgid != 0 {
		mode |= 0o2000
	}
	if fm&fs.ModeSticky != 0 {
		mode |= 0o1000
	}

	return mode
}
