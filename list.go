// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

package ustar

import (
	"context"
	"fmt"
	"io"
	"time"
)

// listTimeLayout formats modification times in verbose listings.
const listTimeLayout = "2006-01-02 15:04"

// List writes one line per selected entry to opts.Out: the entry name, or in
// verbose mode permissions, owner/group, size, local time and name.
func List(ctx context.Context, in io.Reader, opts ListOptions) error {
	opts.applyDefaults()

	return forEachSelected(ctx, in, opts.ReadOptions, opts.Paths, func(hdr *Header, _ *Reader) error {
		line := hdr.Name
		if opts.Verbose {
			line = FormatListLine(hdr, opts.Location)
		}

		if _, err := fmt.Fprintln(opts.Out, line); err != nil {
			return fmt.Errorf("write listing: %w", err)
		}

		return nil
	})
}

// ListEntries returns headers of the selected entries without reading content.
func ListEntries(ctx context.Context, in io.Reader, opts ListOptions) ([]Header, error) {
	opts.applyDefaults()

	var entries []Header
	err := forEachSelected(ctx, in, opts.ReadOptions, opts.Paths, func(hdr *Header, _ *Reader) error {
		entries = append(entries, *hdr)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// FormatListLine renders the verbose listing line for hdr with times in loc.
func FormatListLine(hdr *Header, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	return fmt.Sprintf("%-10s %-17s %8d %-16s %s",
		FormatPermissions(hdr.Mode, hdr.Typeflag),
		hdr.Uname+"/"+hdr.Gname,
		hdr.Size,
		hdr.ModTime.In(loc).Format(listTimeLayout),
		hdr.Name,
	)
}
