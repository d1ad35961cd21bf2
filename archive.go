// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

package ustar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"
)

// Create writes an archive of roots read from fsys to out.
// Entries follow Walk order; the end-of-archive marker is always written,
// also when roots is empty. Files that cannot be opened are logged and skipped.
func Create(ctx context.Context, out io.Writer, fsys afero.Fs, roots []string, opts CreateOptions) (*CreateResult, error) {
	startedAt := time.Now()

	if out == nil {
		return nil, ErrNilWriter
	}

	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()
	log := opts.WalkOptions.Logger

	w := NewWriterSize(out, opts.BufferBlocks)
	res := &CreateResult{}

	err := Walk(fsys, roots, opts.WalkOptions, func(item WalkItem) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if item.Meta.ModTime.Unix() < 0 {
			log.WithField("path", item.Path).Warn("modification time before 1970, storing epoch")
		}

		var openErr error
		n, err := w.WriteEntry(item.Path, item.Meta, func() (io.ReadCloser, error) {
			f, err := fsys.Open(item.Path)
			openErr = err
			return f, err
		})
		if openErr != nil {
			// Nothing was written for this entry yet.
			log.WithError(openErr).WithField("path", item.Path).Warn("cannot open file, skipping")
			return nil
		}
		if err != nil {
			return err
		}

		res.Entries++
		res.ContentBytes += n
		if opts.OnEntryDone != nil {
			opts.OnEntryDone(item.Path, item.Meta)
		}

		return nil
	})
	if err != nil {
		w.abort()
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	res.Duration = time.Since(startedAt)
	return res, nil
}

// Extract materializes the selected entries of the archive read from in
// under root on fsys. Entries rejected by strict mode, with unsafe paths or unsupported
// types are logged and skipped; checksum and I/O failures stop extraction.
func Extract(ctx context.Context, in io.Reader, fsys afero.Fs, root string, opts ExtractOptions) error {
	opts.applyDefaults()
	log := opts.ReadOptions.Logger
	x := NewExtractor(fsys, root, opts)

	return forEachSelected(ctx, in, opts.ReadOptions, opts.Paths, func(hdr *Header, r *Reader) error {
		outPath, err := x.Extract(hdr, r)
		if err != nil {
			if errors.Is(err, ErrGNUUid) || errors.Is(err, ErrInvalidExtractPath) || errors.Is(err, ErrUnsupportedType) {
				log.WithError(err).WithField("path", hdr.Name).Warn("skipping entry")
				return nil
			}

			return err
		}

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(hdr, outPath)
		}

		return nil
	})
}

// forEachSelected calls fn for every entry matching paths. Content of
// unmatched entries is skipped; non-compliant entries are logged and skipped.
func forEachSelected(
	ctx context.Context,
	in io.Reader,
	readOpts ReadOptions,
	paths []string,
	fn func(hdr *Header, r *Reader) error,
) error {
	if in == nil {
		return ErrNilReader
	}

	if ctx == nil {
		ctx = context.Background()
	}

	readOpts.applyDefaults()
	log := readOpts.Logger
	r := NewReader(in, readOpts)
	selector := NewSelector(paths)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, ErrNonCompliantHeader) {
			log.WithError(err).WithField("path", hdr.Name).Warn("encountered non-compliant entry, skipping")
			continue
		}
		if err != nil {
			return err
		}

		if _, ok := selector.Match(hdr.Name); !ok {
			if err := r.Skip(); err != nil {
				return fmt.Errorf("skip %s: %w", hdr.Name, err)
			}

			continue
		}

		if err := fn(hdr, r); err != nil {
			return err
		}
	}
}
