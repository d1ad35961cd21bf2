// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/ustar

// Command mytar creates, lists and extracts USTAR archives.
//
//	mytar [ctxvS]f archive [path ...]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/woozymasta/ustar"
)

const usage = "usage: mytar [ctxvS]f tarfile [ path [ ... ] ]"

// errUsage reports malformed command line arguments.
var errUsage = errors.New(usage)

// mode is the selected archive operation.
type mode int

const (
	modeNone mode = iota
	modeCreate
	modeList
	modeExtract
)

// cliFlags holds the parsed command line.
type cliFlags struct {
	archive string
	paths   []string
	mode    mode
	verbose bool
	strict  bool
}

func main() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if err := run(context.Background(), os.Args[1:], os.Stdout, logrus.StandardLogger()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(1)
		}

		logrus.WithError(err).Fatal("mytar failed")
	}
}

// run executes one mytar invocation.
func run(ctx context.Context, args []string, stdout io.Writer, log logrus.FieldLogger) error {
	flags, err := parseArgs(args)
	if err != nil {
		return err
	}

	switch flags.mode {
	case modeCreate:
		return create(ctx, flags, stdout, log)
	case modeList:
		return list(ctx, flags, stdout, log)
	case modeExtract:
		return extract(ctx, flags, stdout, log)
	default:
		return errUsage
	}
}

// parseArgs parses the bundled mode letters, the archive name and paths.
func parseArgs(args []string) (cliFlags, error) {
	var flags cliFlags
	if len(args) < 2 {
		return flags, errUsage
	}

	var err error
	hasArchive := false
	for _, c := range strings.TrimPrefix(args[0], "-") {
		switch c {
		case 'c':
			err = flags.setMode(modeCreate)
		case 't':
			err = flags.setMode(modeList)
		case 'x':
			err = flags.setMode(modeExtract)
		case 'v':
			flags.verbose = true
		case 'S':
			flags.strict = true
		case 'f':
			hasArchive = true
		default:
			err = fmt.Errorf("%w: unknown option %q", errUsage, c)
		}

		if err != nil {
			return flags, err
		}
	}

	if !hasArchive || flags.mode == modeNone {
		return flags, errUsage
	}

	flags.archive = args[1]
	flags.paths = args[2:]

	return flags, nil
}

// setMode selects the operation; modes are mutually exclusive.
func (f *cliFlags) setMode(m mode) error {
	if f.mode != modeNone && f.mode != m {
		return fmt.Errorf("%w: only one of c, t, x may be given", errUsage)
	}

	f.mode = m
	return nil
}

// create archives flags.paths into flags.archive.
func create(ctx context.Context, flags cliFlags, stdout io.Writer, log logrus.FieldLogger) (err error) {
	f, err := os.OpenFile(flags.archive, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close archive: %w", closeErr)
		}
	}()

	opts := ustar.CreateOptions{
		WalkOptions: ustar.WalkOptions{Logger: log},
	}
	if flags.verbose {
		opts.OnEntryDone = func(path string, _ ustar.FileMetadata) {
			_, _ = fmt.Fprintln(stdout, path)
		}
	}

	_, err = ustar.Create(ctx, f, afero.NewOsFs(), flags.paths, opts)
	return err
}

// list prints the entries of flags.archive.
func list(ctx context.Context, flags cliFlags, stdout io.Writer, log logrus.FieldLogger) error {
	f, err := os.Open(flags.archive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ustar.List(ctx, f, ustar.ListOptions{
		Out:         stdout,
		Paths:       flags.paths,
		Verbose:     flags.verbose,
		ReadOptions: ustar.ReadOptions{Logger: log, Strict: flags.strict},
	})
}

// extract materializes the entries of flags.archive in the current directory.
func extract(ctx context.Context, flags cliFlags, stdout io.Writer, log logrus.FieldLogger) error {
	f, err := os.Open(flags.archive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	opts := ustar.ExtractOptions{
		Paths:       flags.paths,
		ReadOptions: ustar.ReadOptions{Logger: log, Strict: flags.strict},
	}
	if flags.verbose {
		opts.OnEntryDone = func(hdr *ustar.Header, _ string) {
			_, _ = fmt.Fprintln(stdout, hdr.Name)
		}
	}

	return ustar.Extract(ctx, f, afero.NewOsFs(), ".", opts)
}
