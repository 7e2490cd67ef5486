package stream

import (
	"compress/bzip2"
	"io"
	"os"
)

// defaultBzipBufferBytes is the chunk size BzipBuffer pulls at a time.
const defaultBzipBufferBytes = 32 * 1024

// BzipBuffer is a pull style byte cursor over a bzip2 compressed file.
// Get peeks the byte under the cursor, Next steps forward, Seek
// repositions on an offset of the decompressed stream. Since bzip2
// streams cannot rewind, backward seeks restart the decompression from
// the top of the file.
type BzipBuffer struct {
	src    io.Reader
	reopen func() (io.Reader, error)
	close  func() error

	buf    []byte
	bufPos int
	bufLen int

	pos int64 // decompressed offset of buf[bufPos]
	eof bool
	err error
}

// NewBzipBuffer opens a bzip2 file as a pull style byte cursor.
func NewBzipBuffer(path string) (*BzipBuffer, error) {
	return NewBzipBufferSize(path, defaultBzipBufferBytes)
}

// NewBzipBufferSize is NewBzipBuffer with an explicit chunk size.
func NewBzipBufferSize(path string, bufferBytes int) (*BzipBuffer, error) {
	if bufferBytes <= 0 {
		bufferBytes = defaultBzipBufferBytes
	}

	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	b := &BzipBuffer{
		src: bzip2.NewReader(fd),
		reopen: func() (io.Reader, error) {
			if _, err := fd.Seek(0, io.SeekStart); err != nil {
				return nil, err
			}

			return bzip2.NewReader(fd), nil
		},
		close: fd.Close,
		buf:   make([]byte, bufferBytes),
	}

	b.fill()
	return b, nil
}

// newBzipBufferSource wires the cursor over any reader factory. Tests
// use this; bzip2 data cannot be produced with what we link against.
func newBzipBufferSource(reopen func() (io.Reader, error), bufferBytes int) (*BzipBuffer, error) {
	src, err := reopen()
	if err != nil {
		return nil, err
	}

	b := &BzipBuffer{
		src:    src,
		reopen: reopen,
		buf:    make([]byte, bufferBytes),
	}

	b.fill()
	return b, nil
}

// fill pulls the next chunk. The end of the stream shows up as eof once
// everything buffered was consumed; real read errors park in err.
func (b *BzipBuffer) fill() {
	b.bufPos = 0

	n, err := io.ReadFull(b.src, b.buf)
	b.bufLen = n

	switch err {
	case nil, io.EOF, io.ErrUnexpectedEOF:
	default:
		b.err = err
	}

	if n == 0 {
		b.eof = true
	}
}

// EOF reports whether the cursor ran off the end of the stream.
func (b *BzipBuffer) EOF() bool {
	return b.eof
}

// Err returns the first read error the cursor ran into, if any. The end
// of the stream is not an error.
func (b *BzipBuffer) Err() error {
	return b.err
}

// Tell returns the decompressed offset of the byte under the cursor.
func (b *BzipBuffer) Tell() int64 {
	return b.pos
}

// Get peeks the byte under the cursor. Past the end it returns zero.
func (b *BzipBuffer) Get() byte {
	if b.bufPos >= b.bufLen {
		return 0
	}

	return b.buf[b.bufPos]
}

// Next steps one byte forward and reports whether the cursor now sits
// past the end of the stream.
func (b *BzipBuffer) Next() bool {
	if b.eof {
		return true
	}

	b.bufPos++
	b.pos++
	if b.bufPos >= b.bufLen {
		b.fill()
	}

	return b.eof
}

// GetNext returns the byte under the cursor and steps past it.
func (b *BzipBuffer) GetNext() byte {
	c := b.Get()
	b.Next()
	return c
}

// Read drains up to len(p) bytes into p, moving the cursor past them.
func (b *BzipBuffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	read := 0
	for read < len(p) && !b.eof {
		n := copy(p[read:], b.buf[b.bufPos:b.bufLen])
		b.bufPos += n
		b.pos += int64(n)
		read += n

		if b.bufPos >= b.bufLen {
			b.fill()
		}
	}

	if read == 0 {
		if b.err != nil {
			return 0, b.err
		}

		return 0, io.EOF
	}

	return read, nil
}

// Seek places the cursor on the given offset of the decompressed stream
// and reports whether a byte is available there.
func (b *BzipBuffer) Seek(pos int64) bool {
	// Backward targets still inside the buffer just move the cursor.
	if start := b.pos - int64(b.bufPos); pos < b.pos && pos >= start {
		b.bufPos = int(pos - start)
		b.pos = pos
		return b.bufPos < b.bufLen
	}

	if pos < b.pos {
		src, err := b.reopen()
		if err != nil {
			b.err = err
			b.eof = true
			return false
		}

		b.src = src
		b.pos = 0
		b.eof = false
		b.err = nil
		b.fill()
	}

	return b.skip(pos - b.pos)
}

// skip walks n bytes forward.
func (b *BzipBuffer) skip(n int64) bool {
	for n > 0 && !b.eof {
		left := int64(b.bufLen - b.bufPos)
		if n < left {
			b.bufPos += int(n)
			b.pos += n
			return true
		}

		n -= left
		b.pos += left
		b.fill()
	}

	return n == 0 && !b.eof
}

// Close releases the underlying file.
func (b *BzipBuffer) Close() error {
	if b.close == nil {
		return nil
	}

	err := b.close()
	b.close = nil
	return err
}
