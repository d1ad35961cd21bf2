// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

package ustar

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/woozymasta/pathrules"
)

// Archive layout constants.
const (
	// BlockSize is the archive unit size; headers and content are block aligned.
	BlockSize = 512
	// DefaultBufferBlocks is the number of blocks held by the write buffer.
	DefaultBufferBlocks = 8
	// endBlocks is the number of zero blocks terminating an archive.
	endBlocks = 2
)

// Header field widths.
const (
	nameSize     = 100
	modeSize     = 8
	idSize       = 8
	sizeSize     = 12
	mtimeSize    = 12
	chksumSize   = 8
	linknameSize = 100
	magicSize    = 6
	versionSize  = 2
	ownerSize    = 32
	devSize      = 8
	prefixSize   = 155
)

// Header magic and version written by this package.
const (
	Magic   = "ustar"
	Version = "00"
)

// Typeflag values understood by this package.
const (
	// TypeRegular marks a regular file.
	TypeRegular byte = '0'
	// TypeRegularLegacy marks a regular file in pre-POSIX archives.
	TypeRegularLegacy byte = 0
	// TypeSymlink marks a symbolic link.
	TypeSymlink byte = '2'
	// TypeDir marks a directory.
	TypeDir byte = '5'
)

// Block is one raw 512-byte archive block.
type Block [BlockSize]byte

// FileType is the filesystem object kind reported by a MetadataProvider.
type FileType uint8

// Supported filesystem object kinds.
const (
	// FileTypeUnknown is any object this package cannot archive.
	FileTypeUnknown FileType = iota
	// FileTypeRegular is a regular file.
	FileTypeRegular
	// FileTypeDir is a directory.
	FileTypeDir
	// FileTypeSymlink is a symbolic link.
	FileTypeSymlink
)

// String returns a short lower-case name of the file type.
func (t FileType) String() string {
	switch t {
	case FileTypeRegular:
		return "file"
	case FileTypeDir:
		return "dir"
	case FileTypeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// FileMetadata describes one filesystem object to be archived.
type FileMetadata struct {
	// ModTime is the modification time; stored with second precision.
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	// Uname is the owner display name.
	Uname string `json:"uname,omitempty" yaml:"uname,omitempty"`
	// Gname is the group display name.
	Gname string `json:"gname,omitempty" yaml:"gname,omitempty"`
	// Linkname is the symlink target; empty for other types.
	Linkname string `json:"linkname,omitempty" yaml:"linkname,omitempty"`
	// Size is the content size in bytes; ignored for directories and symlinks.
	Size int64 `json:"size" yaml:"size"`
	// Mode holds permission bits (setuid/setgid/sticky included).
	Mode int64 `json:"mode" yaml:"mode"`
	// Uid is the numeric owner id.
	Uid int64 `json:"uid" yaml:"uid"` //nolint:revive // matches tar field naming
	// Gid is the numeric group id.
	Gid int64 `json:"gid" yaml:"gid"` //nolint:revive // matches tar field naming
	// Type is the object kind.
	Type FileType `json:"type" yaml:"type"`
}

// Header is a decoded archive header record.
type Header struct {
	// ModTime is the stored modification time.
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	// Name is the full entry path (prefix and name fields joined).
	Name string `json:"name" yaml:"name"`
	// Linkname is the symlink target.
	Linkname string `json:"linkname,omitempty" yaml:"linkname,omitempty"`
	// Magic is the raw magic field up to the first NUL.
	Magic string `json:"magic" yaml:"magic"`
	// Version is the raw version field.
	Version string `json:"version" yaml:"version"`
	// Uname is the owner display name.
	Uname string `json:"uname,omitempty" yaml:"uname,omitempty"`
	// Gname is the group display name.
	Gname string `json:"gname,omitempty" yaml:"gname,omitempty"`
	// Size is the content length in bytes.
	Size int64 `json:"size" yaml:"size"`
	// Mode holds permission bits.
	Mode int64 `json:"mode" yaml:"mode"`
	// Uid is the numeric owner id.
	Uid int64 `json:"uid" yaml:"uid"` //nolint:revive // matches tar field naming
	// Gid is the numeric group id.
	Gid int64 `json:"gid" yaml:"gid"` //nolint:revive // matches tar field naming
	// Typeflag is the raw entry type byte.
	Typeflag byte `json:"typeflag" yaml:"typeflag"`
	// GNUUid reports whether the uid field used the GNU binary encoding.
	GNUUid bool `json:"gnu_uid,omitempty" yaml:"gnu_uid,omitempty"`
	// GNUGid reports whether the gid field used the GNU binary encoding.
	GNUGid bool `json:"gnu_gid,omitempty" yaml:"gnu_gid,omitempty"`
}

// IsDir reports whether the entry is a directory.
func (h *Header) IsDir() bool {
	return h.Typeflag == TypeDir
}

// IsSymlink reports whether the entry is a symbolic link.
func (h *Header) IsSymlink() bool {
	return h.Typeflag == TypeSymlink
}

// IsRegular reports whether the entry is a regular file.
func (h *Header) IsRegular() bool {
	return h.Typeflag == TypeRegular || h.Typeflag == TypeRegularLegacy
}

// ReadOptions configures archive reading.
type ReadOptions struct {
	// Logger receives diagnostics; nil means logrus standard logger.
	Logger logrus.FieldLogger `json:"-" yaml:"-"`
	// Strict rejects headers without "ustar" magic and "00" version,
	// and rejects extraction of entries with GNU binary-encoded uid.
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty"`
	// StrictContent fails on content block read errors instead of zero-filling them.
	StrictContent bool `json:"strict_content,omitempty" yaml:"strict_content,omitempty"`
}

// WalkOptions configures directory traversal for create.
type WalkOptions struct {
	// Logger receives diagnostics; nil means logrus standard logger.
	Logger logrus.FieldLogger `json:"-" yaml:"-"`
	// Metadata resolves file metadata; nil means NewMetadataProvider on the walked fs.
	Metadata MetadataProvider `json:"-" yaml:"-"`
	// Exclude defines ordered path rules; included paths are skipped.
	Exclude []pathrules.Rule `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	// ExcludeMatcherOptions control exclude rule matching.
	ExcludeMatcherOptions pathrules.MatcherOptions `json:"exclude_matcher_options,omitzero" yaml:"exclude_matcher_options,omitzero"`
}

// CreateOptions configures archive creation.
type CreateOptions struct {
	// OnEntryDone is called after one entry is fully written to the archive.
	OnEntryDone func(path string, meta FileMetadata) `json:"-" yaml:"-"`
	// WalkOptions configure traversal of the input roots.
	WalkOptions WalkOptions `json:"walk_options,omitzero" yaml:"walk_options,omitzero"`
	// BufferBlocks is the write buffer size in blocks.
	BufferBlocks int `json:"buffer_blocks,omitempty" yaml:"buffer_blocks,omitempty"`
}

// CreateResult contains create statistics.
type CreateResult struct {
	// Entries is number of entries written.
	Entries int `json:"entries" yaml:"entries"`
	// ContentBytes is total unpadded content bytes written.
	ContentBytes int64 `json:"content_bytes" yaml:"content_bytes"`
	// Duration is end-to-end create duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// ListOptions configures archive listing.
type ListOptions struct {
	// Out receives listing lines; nil means io.Discard.
	Out io.Writer `json:"-" yaml:"-"`
	// Location formats modification times; nil means time.Local.
	Location *time.Location `json:"-" yaml:"-"`
	// ReadOptions configure the archive reader.
	ReadOptions ReadOptions `json:"read_options,omitzero" yaml:"read_options,omitzero"`
	// Paths limits listing to entries under these prefixes; empty means all.
	Paths []string `json:"paths,omitempty" yaml:"paths,omitempty"`
	// Verbose prints permissions, owner, size and time before each name.
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// ExtractOptions configures archive extraction.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is materialized.
	OnEntryDone func(hdr *Header, outputPath string) `json:"-" yaml:"-"`
	// ReadOptions configure the archive reader; Strict also rejects GNU uids.
	ReadOptions ReadOptions `json:"read_options,omitzero" yaml:"read_options,omitzero"`
	// Paths limits extraction to entries under these prefixes; empty means all.
	Paths []string `json:"paths,omitempty" yaml:"paths,omitempty"`
}

// applyDefaults fills zero-valued create options with defaults.
func (opts *CreateOptions) applyDefaults() {
	if opts.BufferBlocks <= 0 {
		opts.BufferBlocks = DefaultBufferBlocks
	}

	opts.WalkOptions.applyDefaults()
}

// applyDefaults fills zero-valued walk options with defaults.
func (opts *WalkOptions) applyDefaults() {
	opts.Logger = loggerOrDefault(opts.Logger)

	if opts.ExcludeMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.ExcludeMatcherOptions.DefaultAction = pathrules.ActionExclude
	}
}

// applyDefaults fills zero-valued read options with defaults.
func (opts *ReadOptions) applyDefaults() {
	opts.Logger = loggerOrDefault(opts.Logger)
}

// applyDefaults fills zero-valued list options with defaults.
func (opts *ListOptions) applyDefaults() {
	opts.ReadOptions.applyDefaults()

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if opts.Location == nil {
		opts.Location = time.Local
	}
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	opts.ReadOptions.applyDefaults()
}

// loggerOrDefault returns l or the logrus standard logger when l is nil.
func loggerOrDefault(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return logrus.StandardLogger()
	}

	return l
}
