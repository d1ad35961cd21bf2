// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

package ustar

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// testEntry is one entry for buildArchive.
type testEntry struct {
	name    string
	content string
	meta    FileMetadata
}

// buildArchive writes entries with Writer and returns the archive bytes.
func buildArchive(t *testing.T, entries ...testEntry) []byte {
	t.Helper()

	var out bytes.Buffer
	w := NewWriter(&out)
	for _, e := range entries {
		if _, err := w.WriteEntry(e.name, e.meta, openString(e.content)); err != nil {
			t.Fatalf("WriteEntry %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	return out.Bytes()
}

func fileEntry(name, content string) testEntry {
	return testEntry{name: name, content: content, meta: testMeta(FileTypeRegular, int64(len(content)))}
}

func dirEntry(name string) testEntry {
	return testEntry{name: name, meta: testMeta(FileTypeDir, 0)}
}

// nullLogger returns a logger that records entries without output.
func nullLogger() (*logrus.Logger, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

// streamOnly hides io.Seeker from the wrapped reader.
type streamOnly struct {
	r io.Reader
}

func (s streamOnly) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// flakyReader fails the read covering byte offset failAt once.
type flakyReader struct {
	r      io.Reader
	off    int
	failAt int
	failed bool
}

func (f *flakyReader) Read(p []byte) (int, error) {
	if !f.failed && f.off <= f.failAt && f.failAt < f.off+len(p) {
		f.failed = true
		// Consume the block so the stream stays aligned.
		n, _ := io.ReadFull(f.r, p)
		f.off += n
		return 0, errors.New("media error")
	}

	n, err := f.r.Read(p)
	f.off += n
	return n, err
}

// withMagic rewrites the magic field of the header at offset and fixes its checksum.
func withMagic(archive []byte, offset int, magic string) {
	var b Block
	copy(b[:], archive[offset:offset+BlockSize])
	clear(b.slice(fieldMagic))
	copy(b.slice(fieldMagic), magic)
	putChecksum(&b)
	copy(archive[offset:], b[:])
}

func TestReader_EndMarkerOnly(t *testing.T) {
	t.Parallel()

	r := NewReader(bytes.NewReader(make([]byte, 1024)), ReadOptions{})
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("Next err=%v, want io.EOF", err)
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("second Next err=%v, want io.EOF", err)
	}
}

func TestReader_NilSource(t *testing.T) {
	t.Parallel()

	if _, err := NewReader(nil, ReadOptions{}).Next(); !errors.Is(err, ErrNilReader) {
		t.Fatalf("err=%v, want ErrNilReader", err)
	}
}

func TestReader_StopsAtFirstZeroBlock(t *testing.T) {
	t.Parallel()

	archive := buildArchive(t, fileEntry("a", "x"))
	// Garbage after the first zero block must never be decoded.
	archive = append(archive[:len(archive)-1024], make([]byte, BlockSize)...)
	archive = append(archive, bytes.Repeat([]byte{0xff}, BlockSize)...)

	r := NewReader(bytes.NewReader(archive), ReadOptions{})
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("Next err=%v, want io.EOF", err)
	}
}

func TestReader_IteratesAndStreams(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("0123456789", 200)
	archive := buildArchive(t,
		dirEntry("d/"),
		fileEntry("d/a.txt", "hello"),
		fileEntry("d/big.bin", big),
		fileEntry("d/empty", ""),
	)

	for _, src := range map[string]io.Reader{
		"seeker": bytes.NewReader(archive),
		"stream": streamOnly{r: bytes.NewReader(archive)},
	} {
		r := NewReader(src, ReadOptions{})

		var names []string
		contents := map[string]string{}
		for {
			hdr, err := r.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				t.Fatalf("Next: %v", err)
			}

			names = append(names, hdr.Name)
			if hdr.Name == "d/a.txt" {
				// Leave content unread; Next must skip it.
				continue
			}

			var buf bytes.Buffer
			n, err := r.WriteContentTo(&buf)
			if err != nil {
				t.Fatalf("WriteContentTo %s: %v", hdr.Name, err)
			}
			if n != hdr.Size {
				t.Fatalf("%s copied=%d, want %d", hdr.Name, n, hdr.Size)
			}
			contents[hdr.Name] = buf.String()
		}

		if strings.Join(names, ",") != "d/,d/a.txt,d/big.bin,d/empty" {
			t.Fatalf("names=%v", names)
		}
		if contents["d/big.bin"] != big {
			t.Fatalf("big content len=%d, want %d", len(contents["d/big.bin"]), len(big))
		}
		if contents["d/empty"] != "" {
			t.Fatalf("empty content=%q", contents["d/empty"])
		}
	}
}

func TestReader_ChecksumFailureIsFatal(t *testing.T) {
	t.Parallel()

	archive := buildArchive(t, fileEntry("a", "x"), fileEntry("b", "y"))
	archive[0] ^= 0x01

	r := NewReader(bytes.NewReader(archive), ReadOptions{})
	if _, err := r.Next(); !errors.Is(err, ErrChecksum) {
		t.Fatalf("Next err=%v, want ErrChecksum", err)
	}
	if _, err := r.Next(); !errors.Is(err, ErrChecksum) {
		t.Fatalf("sticky err=%v, want ErrChecksum", err)
	}
}

func TestReader_StrictSkipsNonCompliant(t *testing.T) {
	t.Parallel()

	archive := buildArchive(t, fileEntry("bad.txt", strings.Repeat("b", 700)), fileEntry("good.txt", "g"))
	withMagic(archive, 0, "nope!")

	strict := NewReader(bytes.NewReader(archive), ReadOptions{Strict: true})
	hdr, err := strict.Next()
	if !errors.Is(err, ErrNonCompliantHeader) {
		t.Fatalf("strict Next err=%v, want ErrNonCompliantHeader", err)
	}
	if hdr == nil || hdr.Name != "bad.txt" {
		t.Fatalf("strict header=%v, want bad.txt", hdr)
	}

	hdr, err = strict.Next()
	if err != nil {
		t.Fatalf("strict Next after skip: %v", err)
	}
	if hdr.Name != "good.txt" {
		t.Fatalf("Name=%q, want good.txt", hdr.Name)
	}

	lenient := NewReader(bytes.NewReader(archive), ReadOptions{})
	hdr, err = lenient.Next()
	if err != nil {
		t.Fatalf("lenient Next: %v", err)
	}
	if hdr.Name != "bad.txt" || hdr.Magic != "nope!" {
		t.Fatalf("lenient header=%q magic=%q", hdr.Name, hdr.Magic)
	}
}

func TestReader_TruncatedHeader(t *testing.T) {
	t.Parallel()

	archive := buildArchive(t, fileEntry("a", "x"))
	r := NewReader(bytes.NewReader(archive[:100]), ReadOptions{})
	if _, err := r.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err=%v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReader_MissingEndMarker(t *testing.T) {
	t.Parallel()

	archive := buildArchive(t, fileEntry("a", "x"))
	logger, hook := nullLogger()

	r := NewReader(bytes.NewReader(archive[:1024]), ReadOptions{Logger: logger})
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v, want io.EOF", err)
	}
	if len(hook.AllEntries()) != 1 || hook.LastEntry().Level != logrus.WarnLevel {
		t.Fatalf("log entries=%d, want one warning", len(hook.AllEntries()))
	}
}

func TestReader_TruncatedContent(t *testing.T) {
	t.Parallel()

	archive := buildArchive(t, fileEntry("a", strings.Repeat("x", 1500)))
	r := NewReader(bytes.NewReader(archive[:BlockSize+600]), ReadOptions{})
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}

	if _, err := r.WriteContentTo(io.Discard); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err=%v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReader_LenientBlockReadError(t *testing.T) {
	t.Parallel()

	content := strings.Repeat("a", BlockSize) + strings.Repeat("b", BlockSize) + "tail"
	archive := buildArchive(t, fileEntry("f", content), fileEntry("next", "n"))
	logger, hook := nullLogger()

	// Fail the second content block.
	src := &flakyReader{r: bytes.NewReader(archive), failAt: 2*BlockSize + 10}
	r := NewReader(streamOnly{r: src}, ReadOptions{Logger: logger})
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}

	var buf bytes.Buffer
	n, err := r.WriteContentTo(&buf)
	if err != nil {
		t.Fatalf("WriteContentTo: %v", err)
	}
	if n != int64(len(content)) {
		t.Fatalf("copied=%d, want %d", n, len(content))
	}

	want := strings.Repeat("a", BlockSize) + strings.Repeat("\x00", BlockSize) + "tail"
	if buf.String() != want {
		t.Fatal("failed block was not zero-filled")
	}
	if hook.LastEntry() == nil || hook.LastEntry().Level != logrus.WarnLevel {
		t.Fatal("block read error was not logged")
	}

	hdr, err := r.Next()
	if err != nil {
		t.Fatalf("Next after lenient read: %v", err)
	}
	if hdr.Name != "next" {
		t.Fatalf("Name=%q, want next", hdr.Name)
	}
}

func TestReader_StrictContentReturnsBlockError(t *testing.T) {
	t.Parallel()

	archive := buildArchive(t, fileEntry("f", strings.Repeat("a", 2*BlockSize)))
	src := &flakyReader{r: bytes.NewReader(archive), failAt: BlockSize + 1}
	r := NewReader(streamOnly{r: src}, ReadOptions{StrictContent: true})
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}

	if _, err := r.WriteContentTo(io.Discard); err == nil || errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err=%v, want block read error", err)
	}
}

func TestReader_SkipTruncatedContent(t *testing.T) {
	t.Parallel()

	archive := buildArchive(t, fileEntry("big.bin", strings.Repeat("x", 5000)))
	truncated := archive[:2*BlockSize]

	for name, src := range map[string]io.Reader{
		"seeker": bytes.NewReader(truncated),
		"stream": io.MultiReader(bytes.NewReader(truncated)),
	} {
		r := NewReader(src, ReadOptions{})
		if _, err := r.Next(); err != nil {
			t.Fatalf("%s: Next: %v", name, err)
		}

		if err := r.Skip(); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("%s: Skip err=%v, want io.ErrUnexpectedEOF", name, err)
		}
		if _, err := r.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("%s: sticky err=%v, want io.ErrUnexpectedEOF", name, err)
		}
	}
}

func TestReader_SkipWithinSource(t *testing.T) {
	t.Parallel()

	archive := buildArchive(t, fileEntry("a", strings.Repeat("a", 700)), fileEntry("b", "b"))
	r := NewReader(bytes.NewReader(archive), ReadOptions{})
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := r.Skip(); err != nil {
		t.Fatalf("Skip: %v", err)
	}

	hdr, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if hdr.Name != "b" {
		t.Fatalf("Name=%q, want b", hdr.Name)
	}
}
