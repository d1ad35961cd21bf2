// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

package ustar

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

const (
	// maxOctalID is the largest id representable as 7 octal digits.
	maxOctalID = 0o7777777
	// gnuBinaryFlag marks a numeric field holding a big-endian binary value.
	gnuBinaryFlag = 0x80
	// gnuBinaryWidth is the width of the binary value at the field tail.
	gnuBinaryWidth = 4
)

// formatOctal writes v as zero-padded octal digits followed by NUL,
// filling the whole field.
func formatOctal(dst []byte, v int64) error {
	if v < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeNumber, v)
	}

	digits := len(dst) - 1
	s := strconv.FormatInt(v, 8)
	if len(s) > digits {
		return fmt.Errorf("%w: %d needs %d octal digits, field holds %d", ErrNumberTooLarge, v, len(s), digits)
	}

	pad := digits - len(s)
	for i := 0; i < pad; i++ {
		dst[i] = '0'
	}
	copy(dst[pad:digits], s)
	dst[digits] = 0

	return nil
}

// parseOctal scans octal digits permissively: leading spaces are skipped and
// scanning stops at the first byte that is not an octal digit.
func parseOctal(b []byte) int64 {
	i := 0
	for i < len(b) && b[i] == ' ' {
		i++
	}

	var v int64
	for ; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '7' {
			break
		}
		if v > math.MaxInt64>>3 {
			break
		}

		v = v<<3 | int64(c-'0')
	}

	return v
}

// formatID writes a uid/gid field. Values above 7 octal digits use the GNU
// binary encoding and report true.
func formatID(dst []byte, v int64) (bool, error) {
	if v < 0 {
		return false, fmt.Errorf("%w: %d", ErrNegativeNumber, v)
	}

	if v <= maxOctalID {
		return false, formatOctal(dst, v)
	}

	if v > math.MaxInt32 || len(dst) < gnuBinaryWidth {
		return false, fmt.Errorf("%w: %d", ErrNumberTooLarge, v)
	}

	clear(dst)
	binary.BigEndian.PutUint32(dst[len(dst)-gnuBinaryWidth:], uint32(v)) //nolint:gosec // bounded by MaxInt32 check above
	dst[0] |= gnuBinaryFlag

	return true, nil
}

// parseID reads a uid/gid field, recognizing the GNU binary encoding.
func parseID(b []byte) (int64, bool) {
	if len(b) >= gnuBinaryWidth && b[0]&gnuBinaryFlag != 0 {
		raw := binary.BigEndian.Uint32(b[len(b)-gnuBinaryWidth:])
		return int64(int32(raw)), true //nolint:gosec // two's-complement field by format definition
	}

	return parseOctal(b), false
}
