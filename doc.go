// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

/*
Package ustar creates, lists and extracts USTAR archives. It is designed for
streaming workflows: archives are written and read sequentially in 512-byte
blocks and entry content is never held in memory.

Archive layout:
  - every entry is a 512-byte header record followed by its content padded
    to a block boundary (directories and symlinks carry no content);
  - paths longer than 100 bytes are split into the prefix and name fields;
  - uid/gid above 7 octal digits use the GNU binary encoding;
  - the archive ends with two zero blocks.

# Creating

Archive a directory tree from the OS filesystem:

	f, err := os.Create("out.tar")
	if err != nil {
	    return err
	}
	defer f.Close()

	res, err := ustar.Create(ctx, f, afero.NewOsFs(), []string{"src"}, ustar.CreateOptions{
	    WalkOptions: ustar.WalkOptions{
	        Exclude: []pathrules.Rule{
	            {Action: pathrules.ActionInclude, Pattern: "*.o"},
	        },
	    },
	})
	_ = res.Entries

# Listing

	err := ustar.List(ctx, f, ustar.ListOptions{
	    Out:     os.Stdout,
	    Verbose: true,
	    Paths:   []string{"src/cmd"},
	})

# Extracting

	err := ustar.Extract(ctx, f, afero.NewOsFs(), "out/", ustar.ExtractOptions{
	    ReadOptions: ustar.ReadOptions{Strict: true},
	})

# Low-level access

Writer and Reader expose the block stream directly:

	w := ustar.NewWriter(dst)
	if _, err := w.WriteEntry("a.txt", meta, open); err != nil {
	    return err
	}
	if err := w.Close(); err != nil {
	    return err
	}

	r := ustar.NewReader(src, ustar.ReadOptions{})
	for {
	    hdr, err := r.Next()
	    if err == io.EOF {
	        break
	    }
	    if err != nil {
	        return err
	    }
	    _, _ = r.WriteContentTo(io.Discard)
	    _ = hdr
	}

Checksum mismatches are fatal. In strict mode headers without "ustar" magic
and "00" version yield ErrNonCompliantHeader and may be skipped. Content block
read errors are logged and zero-filled unless ReadOptions.StrictContent is set.
*/
package ustar
