// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

package ustar

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
)

var (
	// defaultBlockWriterPool reuses default-sized bufio writers between archives.
	defaultBlockWriterPool = sync.Pool{
		New: func() any {
			return bufio.NewWriterSize(io.Discard, DefaultBufferBlocks*BlockSize)
		},
	}
)

// Writer serializes entries into a block-aligned archive stream.
// Headers go straight to the sink; content is staged in a block buffer.
// A Writer is not safe for concurrent use.
type Writer struct {
	// sink is the archive destination.
	sink io.Writer
	// buf stages content blocks until full or flushed.
	buf *bufio.Writer
	// release returns buf to its pool.
	release func()
	// block is the scratch block used to pad content reads.
	block Block
	// closed reports whether Close was already called.
	closed bool
}

// NewWriter returns a Writer with the default buffer of DefaultBufferBlocks blocks.
func NewWriter(w io.Writer) *Writer {
	return NewWriterSize(w, DefaultBufferBlocks)
}

// NewWriterSize returns a Writer buffering up to blocks content blocks.
func NewWriterSize(w io.Writer, blocks int) *Writer {
	if blocks <= 0 {
		blocks = DefaultBufferBlocks
	}

	buf, release := acquireBlockWriter(w, blocks*BlockSize)
	return &Writer{sink: w, buf: buf, release: release}
}

// acquireBlockWriter returns a buffered writer and release callback.
func acquireBlockWriter(out io.Writer, size int) (*bufio.Writer, func()) {
	if size == DefaultBufferBlocks*BlockSize {
		w := defaultBlockWriterPool.Get().(*bufio.Writer) //nolint:forcetypeassert // pool contains only *bufio.Writer
		w.Reset(out)

		return w, func() {
			w.Reset(io.Discard)
			defaultBlockWriterPool.Put(w)
		}
	}

	return bufio.NewWriterSize(out, size), func() {}
}

// WriteHeader writes one 512-byte header record directly to the sink.
// Any buffered content is flushed first so record order is preserved.
func (w *Writer) WriteHeader(b *Block) error {
	if w.closed {
		return ErrWriteAfterClose
	}

	if err := w.Flush(); err != nil {
		return err
	}

	if _, err := w.sink.Write(b[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	return nil
}

// WriteContent copies exactly size bytes from src in block units, zero-padding
// the final partial block, then flushes. It fails with ErrShortContent when
// src ends early.
func (w *Writer) WriteContent(src io.Reader, size int64) (int64, error) {
	if w.closed {
		return 0, ErrWriteAfterClose
	}

	var written int64
	for written < size {
		n := int64(BlockSize)
		if size-written < n {
			n = size - written
		}

		readN, err := io.ReadFull(src, w.block[:n])
		written += int64(readN)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return written, fmt.Errorf("%w: got %d of %d bytes", ErrShortContent, written, size)
			}

			return written, fmt.Errorf("read content: %w", err)
		}

		clear(w.block[n:])
		if _, err := w.buf.Write(w.block[:]); err != nil {
			return written, fmt.Errorf("write content: %w", err)
		}
	}

	return written, w.Flush()
}

// WriteEntry encodes meta as the header for name and writes header and content.
// For regular files open is called before the header is written and the
// returned stream is closed once its content is written.
func (w *Writer) WriteEntry(name string, meta FileMetadata, open func() (io.ReadCloser, error)) (int64, error) {
	hdr, err := EncodeHeader(name, meta)
	if err != nil {
		return 0, err
	}

	if meta.Type != FileTypeRegular {
		return 0, w.WriteHeader(hdr)
	}

	if open == nil {
		return 0, fmt.Errorf("entry %s: open is nil", name)
	}

	rc, err := open()
	if err != nil {
		return 0, fmt.Errorf("open entry %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()

	if err := w.WriteHeader(hdr); err != nil {
		return 0, err
	}

	n, err := w.WriteContent(rc, meta.Size)
	if err != nil {
		return n, fmt.Errorf("entry %s: %w", name, err)
	}

	return n, nil
}

// Flush writes buffered content blocks to the sink.
func (w *Writer) Flush() error {
	if w.buf == nil {
		return ErrWriteAfterClose
	}

	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush blocks: %w", err)
	}

	return nil
}

// Close appends the two zero-block end marker and flushes.
// It does not close the underlying sink.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	w.closed = true
	err := w.padEnd()
	if err == nil {
		err = w.Flush()
	}

	w.release()
	w.buf = nil

	return err
}

// abort releases the buffer without writing the end marker.
func (w *Writer) abort() {
	if w.closed {
		return
	}

	w.closed = true
	w.release()
	w.buf = nil
}

// padEnd buffers the end-of-archive marker, flushing first when the buffer
// cannot hold both blocks.
func (w *Writer) padEnd() error {
	if w.buf.Available() < endBlocks*BlockSize {
		if err := w.Flush(); err != nil {
			return err
		}
	}

	for i := 0; i < endBlocks; i++ {
		if _, err := w.buf.Write(zeroBlock[:]); err != nil {
			return fmt.Errorf("write end marker: %w", err)
		}
	}

	return nil
}
