package stream

import (
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// ErrBzip2Unsupported is returned when creating a ".bz2" file. There is
// no bzip2 compressor to write one with.
var ErrBzip2Unsupported = errors.New("bzip2 files can be read but not written")

// Writer writes a possibly compressed file.
type Writer struct {
	fd         *os.File
	w          io.Writer
	zip        io.Closer // compressor; closed before the file
	compressed bool
	stdout     bool
}

// Create creates or truncates path for writing. "-" writes to stdout,
// ".gz" and ".xz" suffixes compress transparently, ".bz2" is rejected.
func Create(path string) (*Writer, error) {
	if path == "-" {
		return &Writer{fd: os.Stdout, w: os.Stdout, stdout: true}, nil
	}

	if strings.HasSuffix(path, ".bz2") {
		return nil, ErrBzip2Unsupported
	}

	fd, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := &Writer{fd: fd, w: fd}

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz := gzip.NewWriter(fd)
		w.w, w.zip, w.compressed = gz, gz, true
	case strings.HasSuffix(path, ".xz"):
		xw, err := xz.NewWriter(fd)
		if err != nil {
			fd.Close()
			return nil, errors.Wrapf(err, "xz writer for '%s'", path)
		}

		w.w, w.zip, w.compressed = xw, xw, true
	}

	return w, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

// IsCompressed reports whether the bytes pass through a compressor.
func (w *Writer) IsCompressed() bool {
	return w.compressed
}

// Close flushes the compressor and closes the file. Writers handed
// stdout leave it open.
func (w *Writer) Close() error {
	var zipErr error
	if w.zip != nil {
		zipErr = w.zip.Close()
		w.zip = nil
	}

	if w.stdout {
		return zipErr
	}

	closeErr := w.fd.Close()
	if zipErr != nil {
		return zipErr
	}

	return closeErr
}
