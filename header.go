// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

package ustar

import (
	"bytes"
	"fmt"
	"time"
)

// field is an offset/width pair inside a header block.
type field struct {
	off  int
	size int
}

// Header record layout.
var (
	fieldName     = field{0, nameSize}
	fieldMode     = field{100, modeSize}
	fieldUid      = field{108, idSize} //nolint:revive // matches tar field naming
	fieldGid      = field{116, idSize} //nolint:revive // matches tar field naming
	fieldSize     = field{124, sizeSize}
	fieldMtime    = field{136, mtimeSize}
	fieldChksum   = field{148, chksumSize}
	fieldTypeflag = field{156, 1}
	fieldLinkname = field{157, linknameSize}
	fieldMagic    = field{257, magicSize}
	fieldVersion  = field{263, versionSize}
	fieldUname    = field{265, ownerSize}
	fieldGname    = field{297, ownerSize}
	fieldDevmajor = field{329, devSize}
	fieldDevminor = field{337, devSize}
	fieldPrefix   = field{345, prefixSize}
	fieldUnused   = field{500, 12}
)

// headerLayout lists every header field in record order.
var headerLayout = []field{
	fieldName, fieldMode, fieldUid, fieldGid, fieldSize, fieldMtime,
	fieldChksum, fieldTypeflag, fieldLinkname, fieldMagic, fieldVersion,
	fieldUname, fieldGname, fieldDevmajor, fieldDevminor, fieldPrefix,
	fieldUnused,
}

// zeroBlock is compared against candidate blocks to detect end of archive.
var zeroBlock Block

// slice returns the bytes of f within b.
func (b *Block) slice(f field) []byte {
	return b[f.off : f.off+f.size]
}

// IsZeroBlock reports whether every byte of b is zero.
func IsZeroBlock(b *Block) bool {
	return *b == zeroBlock
}

// Checksum computes the header checksum of b: the unsigned byte sum of the
// record with the chksum field counted as eight spaces. b is not modified.
func Checksum(b *Block) int64 {
	var sum int64
	for i, c := range b {
		if i >= fieldChksum.off && i < fieldChksum.off+fieldChksum.size {
			sum += ' '
			continue
		}

		sum += int64(c)
	}

	return sum
}

// validChecksum reports whether the stored checksum matches the record.
func validChecksum(b *Block) (stored int64, computed int64, ok bool) {
	stored = parseOctal(b.slice(fieldChksum))
	computed = Checksum(b)

	return stored, computed, stored == computed
}

// EncodeHeader builds a header record for the entry at name.
// Modification times before the Unix epoch are stored as 0.
// The checksum is computed last.
func EncodeHeader(name string, meta FileMetadata) (*Block, error) {
	var b Block

	prefix, base, err := splitPath(name)
	if err != nil {
		return nil, err
	}
	copy(b.slice(fieldName), base)
	copy(b.slice(fieldPrefix), prefix)

	typeflag, err := typeflagFor(meta.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	b[fieldTypeflag.off] = typeflag

	if err := formatOctal(b.slice(fieldMode), meta.Mode&0o7777); err != nil {
		return nil, fmt.Errorf("%s: mode: %w", name, err)
	}

	if _, err := formatID(b.slice(fieldUid), meta.Uid); err != nil {
		return nil, fmt.Errorf("%s: uid: %w", name, err)
	}

	if _, err := formatID(b.slice(fieldGid), meta.Gid); err != nil {
		return nil, fmt.Errorf("%s: gid: %w", name, err)
	}

	size := meta.Size
	if meta.Type != FileTypeRegular {
		size = 0
	}
	if err := formatOctal(b.slice(fieldSize), size); err != nil {
		return nil, fmt.Errorf("%s: size: %w", name, err)
	}

	if err := formatOctal(b.slice(fieldMtime), max(meta.ModTime.Unix(), 0)); err != nil {
		return nil, fmt.Errorf("%s: mtime: %w", name, err)
	}

	if meta.Type == FileTypeSymlink {
		if len(meta.Linkname) > linknameSize {
			return nil, fmt.Errorf("%w: %s -> %s", ErrLinknameTooLong, name, meta.Linkname)
		}

		copy(b.slice(fieldLinkname), meta.Linkname)
	}

	copy(b.slice(fieldMagic), Magic)
	copy(b.slice(fieldVersion), Version)
	putCString(b.slice(fieldUname), meta.Uname)
	putCString(b.slice(fieldGname), meta.Gname)

	putChecksum(&b)

	return &b, nil
}

// DecodeHeader parses a header record. The checksum is always validated.
func DecodeHeader(b *Block) (*Header, error) {
	stored, computed, ok := validChecksum(b)
	if !ok {
		return nil, fmt.Errorf("%w: stored %o, computed %o", ErrChecksum, stored, computed)
	}

	hdr := &Header{
		Name:     joinPath(cString(b.slice(fieldPrefix)), cString(b.slice(fieldName))),
		Mode:     parseOctal(b.slice(fieldMode)),
		Size:     parseOctal(b.slice(fieldSize)),
		ModTime:  time.Unix(parseOctal(b.slice(fieldMtime)), 0),
		Typeflag: b[fieldTypeflag.off],
		Linkname: cString(b.slice(fieldLinkname)),
		Magic:    cString(b.slice(fieldMagic)),
		Version:  string(b.slice(fieldVersion)),
		Uname:    cString(b.slice(fieldUname)),
		Gname:    cString(b.slice(fieldGname)),
	}
	hdr.Uid, hdr.GNUUid = parseID(b.slice(fieldUid))
	hdr.Gid, hdr.GNUGid = parseID(b.slice(fieldGid))

	return hdr, nil
}

// compliant reports whether the header carries ustar magic and version.
func (h *Header) compliant() bool {
	return h.Magic == Magic && h.Version == Version
}

// FormatPermissions renders mode as a 10-character listing string such as
// "drwxr-xr-x". The first character is taken from typeflag.
func FormatPermissions(mode int64, typeflag byte) string {
	var out [10]byte

	switch typeflag {
	case TypeDir:
		out[0] = 'd'
	case TypeSymlink:
		out[0] = 'l'
	default:
		out[0] = '-'
	}

	const rwx = "rwx"
	for i := 0; i < 9; i++ {
		if mode&(1<<(8-i)) != 0 {
			out[i+1] = rwx[i%3]
		} else {
			out[i+1] = '-'
		}
	}

	return string(out[:])
}

// splitPath splits p into prefix and name fields. Paths that fit the name
// field use an empty prefix. Longer paths are split at the separator that
// keeps the longest name within the field.
func splitPath(p string) (string, string, error) {
	if len(p) <= nameSize {
		return "", p, nil
	}

	if len(p) > prefixSize+1+nameSize {
		return "", "", fmt.Errorf("%w: %s (%d bytes)", ErrPathTooLong, p, len(p))
	}

	// Separator at index i leaves a name of len(p)-i-1 bytes; the last byte
	// is excluded so the name is never empty.
	for i := len(p) - nameSize - 1; i < len(p)-1; i++ {
		if p[i] != '/' || i == 0 {
			continue
		}

		if i > prefixSize {
			break
		}

		return p[:i], p[i+1:], nil
	}

	return "", "", fmt.Errorf("%w: %s (%d bytes)", ErrPathTooLong, p, len(p))
}

// joinPath reconstructs a full entry path from prefix and name fields.
func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}

	return prefix + "/" + name
}

// typeflagFor maps a filesystem object kind to its header typeflag.
func typeflagFor(t FileType) (byte, error) {
	switch t {
	case FileTypeRegular:
		return TypeRegular, nil
	case FileTypeDir:
		return TypeDir, nil
	case FileTypeSymlink:
		return TypeSymlink, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

// putChecksum stores the record checksum as six octal digits, NUL and space.
func putChecksum(b *Block) {
	dst := b.slice(fieldChksum)
	_ = formatOctal(dst[:chksumSize-1], Checksum(b)) // max sum 512*255 fits six digits
	dst[chksumSize-1] = ' '
}

// putCString copies s into dst, keeping room for a terminating NUL.
func putCString(dst []byte, s string) {
	if len(s) > len(dst)-1 {
		s = s[:len(dst)-1]
	}

	copy(dst, s)
}

// cString returns b up to its first NUL byte.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(b)
}
