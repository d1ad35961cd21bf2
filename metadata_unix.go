// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package ustar

import (
	"os"
	"syscall"

	"github.com/moby/sys/user"
)

// fileOwner returns numeric owner and group ids when fi carries them.
func fileOwner(fi os.FileInfo) (int64, int64, bool) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok || st == nil {
		return 0, 0, false
	}

	return int64(st.Uid), int64(st.Gid), true
}

// lookupOwnerName resolves uid through the user database.
func lookupOwnerName(uid int64) (string, error) {
	u, err := user.LookupUid(int(uid))
	if err != nil {
		return "", err
	}

	return u.Name, nil
}

// lookupGroupName resolves gid through the group database.
func lookupGroupName(gid int64) (string, error) {
	g, err := user.LookupGid(int(gid))
	if err != nil {
		return "", err
	}

	return g.Name, nil
}
