// Package stream opens possibly compressed files for sequential byte
// I/O. The compression is picked off the file name: ".gz", ".bz2" and
// ".xz" files decompress and compress on the fly, everything else
// passes through untouched. The special name "-" means stdin or stdout.
package stream

import (
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// Reader reads a possibly compressed file.
type Reader struct {
	fd         *os.File
	r          io.Reader
	zip        io.Closer // set when the decompressor must be closed
	regular    bool
	compressed bool
	stdin      bool
}

// Open opens path for reading. "-" reads from stdin, suffixes pick the
// decompression.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return &Reader{fd: os.Stdin, r: os.Stdin, stdin: true}, nil
	}

	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := &Reader{fd: fd, r: fd}
	if info, err := fd.Stat(); err == nil {
		r.regular = info.Mode().IsRegular()
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(fd)
		if err != nil {
			fd.Close()
			return nil, errors.Wrapf(err, "gzip header of '%s'", path)
		}

		r.r, r.zip, r.compressed = gz, gz, true
	case strings.HasSuffix(path, ".bz2"):
		r.r, r.compressed = bzip2.NewReader(fd), true
	case strings.HasSuffix(path, ".xz"):
		xr, err := xz.NewReader(fd)
		if err != nil {
			fd.Close()
			return nil, errors.Wrapf(err, "xz header of '%s'", path)
		}

		r.r, r.compressed = xr, true
	}

	return r, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

// IsCompressed reports whether the bytes pass through a decompressor.
func (r *Reader) IsCompressed() bool {
	return r.compressed
}

// Seekable reports whether Seek works: plain files on regular media.
func (r *Reader) Seekable() bool {
	return r.regular && !r.compressed
}

// Seek repositions the underlying file. Seeking a compressed or piped
// reader is a programming error and panics.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if !r.Seekable() {
		panic("stream: Seek on a non-seekable reader")
	}

	return r.fd.Seek(offset, whence)
}

// File exposes the underlying file, mainly for Stat.
func (r *Reader) File() *os.File {
	return r.fd
}

// Close releases the decompressor and the file. Readers handed stdin
// leave it open.
func (r *Reader) Close() error {
	var zipErr error
	if r.zip != nil {
		zipErr = r.zip.Close()
		r.zip = nil
	}

	if r.stdin {
		return zipErr
	}

	closeErr := r.fd.Close()
	if zipErr != nil {
		return zipErr
	}

	return closeErr
}
