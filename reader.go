// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

package ustar

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Reader cycles through the entries of an archive stream.
// It holds at most one current entry and reads the source unbuffered.
// A Reader is not safe for concurrent use.
type Reader struct {
	// src is the archive source.
	src io.Reader
	// log receives lenient-policy diagnostics.
	log logrus.FieldLogger
	// cur is the current entry header.
	cur *Header
	// err is a sticky fatal error; once set every Next returns it.
	err error
	// remaining is the unread content length of the current entry.
	remaining int64
	// pad is the unread padding after the current entry content.
	pad int64
	// opts holds reader policies.
	opts ReadOptions
	// block is the scratch block for header and content reads.
	block Block
	// end is the source size of a seekable source, once known.
	end int64
	// endKnown reports whether end was measured.
	endKnown bool
	// done reports whether the end-of-archive marker was reached.
	done bool
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, opts ReadOptions) *Reader {
	opts.applyDefaults()

	return &Reader{src: r, opts: opts, log: opts.Logger}
}

// Next advances to the next entry, skipping any unread content of the
// current one. It returns io.EOF at the end-of-archive marker.
//
// ErrChecksum and read failures are fatal and sticky. In strict mode a header
// without ustar magic/version yields ErrNonCompliantHeader together with the
// decoded header; its content is already skipped and Next may be called again.
func (r *Reader) Next() (*Header, error) {
	if r.src == nil {
		return nil, ErrNilReader
	}

	if r.err != nil {
		return nil, r.err
	}

	if r.done {
		return nil, io.EOF
	}

	if err := r.Skip(); err != nil {
		return nil, err
	}

	r.cur = nil
	n, err := io.ReadFull(r.src, r.block[:])
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			r.log.Warn("archive ends without end-of-archive marker")
			r.done = true
			return nil, io.EOF
		}

		r.err = fmt.Errorf("read header: %w", err)
		return nil, r.err
	}

	if IsZeroBlock(&r.block) {
		r.done = true
		return nil, io.EOF
	}

	hdr, err := DecodeHeader(&r.block)
	if err != nil {
		r.err = fmt.Errorf("read header: %w", err)
		return nil, r.err
	}

	r.cur = hdr
	r.remaining = hdr.Size
	r.pad = blockPadding(hdr.Size)

	if r.opts.Strict && !hdr.compliant() {
		if err := r.Skip(); err != nil {
			return nil, err
		}

		return hdr, fmt.Errorf("%w: %s: magic %q, version %q", ErrNonCompliantHeader, hdr.Name, hdr.Magic, hdr.Version)
	}

	return hdr, nil
}

// Header returns the current entry header, or nil before the first entry.
func (r *Reader) Header() *Header {
	return r.cur
}

// Skip advances past the unread content and padding of the current entry.
// It seeks when the source supports it and discards otherwise. An archive
// that ends inside the skipped range fails with io.ErrUnexpectedEOF; the
// error is sticky.
func (r *Reader) Skip() error {
	if r.err != nil {
		return r.err
	}

	n := r.remaining + r.pad
	if n == 0 {
		return nil
	}

	r.remaining, r.pad = 0, 0

	if s, ok := r.src.(io.Seeker); ok {
		seeked, err := r.seekSkip(s, n)
		if err != nil {
			r.err = err
			return err
		}
		if seeked {
			return nil
		}
		// Unseekable sources such as pipes fall through to discard.
	}

	if _, err := io.CopyN(io.Discard, r.src, n); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}

		r.err = fmt.Errorf("skip content: %w", err)
		return r.err
	}

	return nil
}

// seekSkip seeks n bytes forward and checks the new offset against the
// source size. It reports false when the source cannot seek.
func (r *Reader) seekSkip(s io.Seeker, n int64) (bool, error) {
	pos, err := s.Seek(n, io.SeekCurrent)
	if err != nil {
		return false, nil
	}

	if !r.endKnown {
		end, err := s.Seek(0, io.SeekEnd)
		if err != nil {
			return true, fmt.Errorf("skip content: measure source: %w", err)
		}
		if _, err := s.Seek(pos, io.SeekStart); err != nil {
			return true, fmt.Errorf("skip content: %w", err)
		}

		r.end, r.endKnown = end, true
	}

	if pos > r.end {
		return true, fmt.Errorf("skip content: %w", io.ErrUnexpectedEOF)
	}

	return true, nil
}

// WriteContentTo copies the unread content of the current entry to dst block
// by block, discarding padding. A failed block read is logged and written as
// zeros unless ReadOptions.StrictContent is set. A truncated archive is fatal.
func (r *Reader) WriteContentTo(dst io.Writer) (int64, error) {
	var written int64
	for r.remaining > 0 {
		n := int64(BlockSize)
		if r.remaining < n {
			n = r.remaining
		}

		_, err := io.ReadFull(r.src, r.block[:])
		r.remaining -= n
		if r.remaining == 0 {
			r.pad = 0
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				r.remaining, r.pad = 0, 0
				r.err = fmt.Errorf("read content %s: %w", r.cur.Name, io.ErrUnexpectedEOF)
				return written, r.err
			}

			if r.opts.StrictContent {
				return written, fmt.Errorf("read content %s: %w", r.cur.Name, err)
			}

			r.log.WithError(err).WithField("path", r.cur.Name).Warn("content block read failed, writing zeros")
			clear(r.block[:n])
		}

		wn, err := dst.Write(r.block[:n])
		written += int64(wn)
		if err != nil {
			return written, fmt.Errorf("write content %s: %w", r.cur.Name, err)
		}
	}

	return written, nil
}

// blockPadding returns the number of zero bytes following size content bytes.
func blockPadding(size int64) int64 {
	if rem := size % BlockSize; rem != 0 {
		return BlockSize - rem
	}

	return 0
}
