// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

package ustar

import "errors"

// Sentinel errors for archive operations. Use errors.Is in callers.
var (
	// ErrChecksum means a header record failed checksum validation.
	ErrChecksum = errors.New("header checksum mismatch")
	// ErrNonCompliantHeader means a header failed strict magic/version checks.
	// The entry has been skipped and reading may continue.
	ErrNonCompliantHeader = errors.New("non-compliant ustar header")
	// ErrPathTooLong means the path cannot be split into name and prefix fields.
	ErrPathTooLong = errors.New("path too long for ustar header")
	// ErrLinknameTooLong means the symlink target exceeds the linkname field.
	ErrLinknameTooLong = errors.New("symlink target too long for ustar header")
	// ErrOwnerLookup means the owner name of a file could not be resolved.
	ErrOwnerLookup = errors.New("owner lookup failed")
	// ErrGroupLookup means the group name of a file could not be resolved.
	ErrGroupLookup = errors.New("group lookup failed")
	// ErrNegativeNumber means a negative value was passed to a numeric field.
	ErrNegativeNumber = errors.New("negative value in numeric header field")
	// ErrNumberTooLarge means a value does not fit its numeric header field.
	ErrNumberTooLarge = errors.New("value too large for numeric header field")
	// ErrShortContent means the content source ended before the declared size.
	ErrShortContent = errors.New("content shorter than declared size")
	// ErrWriteAfterClose means the writer was used after Close.
	ErrWriteAfterClose = errors.New("write after close")
	// ErrNilReader means the archive source is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the archive sink is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrInvalidExtractPath means archive entry path is invalid for extraction destination.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrUnsupportedType means the entry or file type cannot be archived or extracted.
	ErrUnsupportedType = errors.New("unsupported entry type")
	// ErrGNUUid means strict extraction rejected a GNU binary-encoded uid.
	ErrGNUUid = errors.New("uid uses GNU binary encoding")
	// ErrInvalidExcludePattern means one or more exclude rules are invalid.
	ErrInvalidExcludePattern = errors.New("invalid exclude rules")
)
