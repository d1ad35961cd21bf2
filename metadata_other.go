// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris)

package ustar

import "os"

// fileOwner reports no ownership on platforms without unix stat data.
func fileOwner(os.FileInfo) (int64, int64, bool) {
	return 0, 0, false
}

// lookupOwnerName is unused where fileOwner reports no ownership.
func lookupOwnerName(int64) (string, error) {
	return "", nil
}

// lookupGroupName is unused where fileOwner reports no ownership.
func lookupGroupName(int64) (string, error) {
	return "", nil
}
