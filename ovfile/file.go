package ovfile

import (
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/seqwerk/ovio/stream"
	"github.com/seqwerk/ovio/util"
)

// ErrPartialRecord is returned when a stream ends in the middle of a
// record. Whole files never do this; a partial record means truncation.
var ErrPartialRecord = errors.New("stream ends inside a record")

const (
	// DefaultBufferBytes is the word buffer size used when Options does
	// not say otherwise.
	DefaultBufferBytes = 1024 * 1024

	// MinBufferBytes is the smallest word buffer a File will work with.
	// Smaller requests are raised to this.
	MinBufferBytes = 16 * 1024
)

// Options tune how a File is opened beyond mode and layout. The zero
// value picks sane defaults.
type Options struct {
	// Blocks selects the framing strategy. BlocksDefault resolves to
	// raw for normal shapes and snappy for full shapes.
	Blocks Blocks

	// BufferBytes sizes the word buffer. The effective capacity is
	// rounded down to a multiple of the least common record size, so a
	// record never straddles a flush. Readers must use at least the
	// buffer size the file was written with.
	BufferBytes int
}

// File reads or writes one overlap file sequentially. It is not safe for
// concurrent use.
type File struct {
	path   string
	mode   Mode
	layout Layout

	// recWords is the on-disk word count of one record.
	recWords int

	buf    []uint32
	bufPos int // next word to read
	bufLen int // words filled

	blocks blockCodec

	in  *stream.Reader
	out *stream.Writer

	counts     *countTracker
	countsPath string

	seekable bool
	closed   bool
}

// Open opens path with default options.
func Open(path string, mode Mode, layout Layout) (*File, error) {
	return OpenOptions(path, mode, layout, Options{})
}

// OpenOptions opens path for sequential overlap I/O. Write modes
// truncate; read modes transparently decompress gz, bz2 and xz files.
// The returned File must be closed, for counting writers the counts side
// file only exists afterwards.
func OpenOptions(path string, mode Mode, layout Layout, opts Options) (*File, error) {
	if !mode.Valid() {
		return nil, ErrBadMode
	}
	if !layout.Valid() {
		return nil, ErrBadLayout
	}

	blocks := opts.Blocks
	if blocks == BlocksDefault {
		blocks = defaultBlocks(mode)
	}
	if _, ok := blocksToString[blocks]; !ok {
		return nil, ErrBadBlocks
	}

	f := &File{
		path:     path,
		mode:     mode,
		layout:   layout,
		recWords: layout.WordsPerOverlap(mode.Full()),
		buf:      make([]uint32, bufferWords(layout, opts.BufferBytes)),
	}

	if mode.Writing() {
		out, err := stream.Create(path)
		if err != nil {
			return nil, err
		}

		f.out = out
		f.blocks, err = newBlockCodec(blocks, nil, out)
		if err != nil {
			out.Close()
			return nil, err
		}

		if mode.TracksCounts() {
			f.counts = newCountTracker()
			f.countsPath = CountsPath(path)
		}
	} else {
		in, err := stream.Open(path)
		if err != nil {
			return nil, err
		}

		f.in = in
		f.blocks, err = newBlockCodec(blocks, in, nil)
		if err != nil {
			in.Close()
			return nil, err
		}

		f.seekable = blocks == BlocksRaw && in.Seekable()
	}

	log.Debugf(
		"ovfile: opened '%s' (%s, layout %s, %s blocks)",
		path, mode, layout, blocks,
	)
	return f, nil
}

// defaultBlocks picks the framing for callers that do not care: normal
// shape files stay raw so they can be seeked, full shape files compress
// well and go through snappy.
func defaultBlocks(m Mode) Blocks {
	if m.Full() {
		return BlocksSnappy
	}

	return BlocksRaw
}

// bufferWords sizes the word buffer so it always holds a whole number of
// records of either shape: the capacity is a multiple of the least
// common multiple of the normal and full record word counts.
func bufferWords(layout Layout, bufferBytes int) int {
	if bufferBytes <= 0 {
		bufferBytes = DefaultBufferBytes
	}
	if bufferBytes < MinBufferBytes {
		bufferBytes = MinBufferBytes
	}

	lcm := util.LCM(
		layout.WordsPerOverlap(false),
		layout.WordsPerOverlap(true),
	)
	return (bufferBytes / (wordBytes * lcm)) * lcm
}

// Mode returns the mode the file was opened with.
func (f *File) Mode() Mode {
	return f.mode
}

// Layout returns the payload geometry of the file.
func (f *File) Layout() Layout {
	return f.layout
}

// Path returns the path the file was opened with.
func (f *File) Path() string {
	return f.path
}

// RecordBytes returns the on-disk size of one record.
func (f *File) RecordBytes() int {
	return wordBytes * f.recWords
}

// Seekable reports whether SeekOverlap may be used: only raw files on
// seekable media qualify.
func (f *File) Seekable() bool {
	return f.seekable
}

// WriteOverlap appends one record.
func (f *File) WriteOverlap(ov *Overlap) error {
	f.ensureWritable("WriteOverlap")

	if err := f.flushFull(); err != nil {
		return err
	}

	if f.counts != nil {
		f.counts.grow(util.UMax32(ov.AID, ov.BID))
		f.counts.bump(ov.AID, ov.BID)
	}

	f.encodeOverlap(ov)
	return nil
}

// WriteOverlaps appends a batch of records. The counts array grows at
// most once for the whole batch.
func (f *File) WriteOverlaps(ovs []Overlap) error {
	f.ensureWritable("WriteOverlaps")

	if f.counts != nil && len(ovs) > 0 {
		maxID := uint32(0)
		for i := range ovs {
			maxID = util.UMax32(maxID, util.UMax32(ovs[i].AID, ovs[i].BID))
		}

		f.counts.grow(maxID)
	}

	for i := range ovs {
		if err := f.flushFull(); err != nil {
			return err
		}

		if f.counts != nil {
			f.counts.bump(ovs[i].AID, ovs[i].BID)
		}

		f.encodeOverlap(&ovs[i])
	}

	return nil
}

// ReadOverlap reads the next record into ov. It returns false with a nil
// error at the end of the stream. Normal shapes do not store the a-ID,
// so ov.AID is left alone and the caller tracks it.
func (f *File) ReadOverlap(ov *Overlap) (bool, error) {
	f.ensureReadable("ReadOverlap")
	return f.nextRecord(ov)
}

// ReadOverlaps fills ovs with the next records and returns how many it
// read. A short count with a nil error means the stream ended.
func (f *File) ReadOverlaps(ovs []Overlap) (int, error) {
	f.ensureReadable("ReadOverlaps")

	for n := range ovs {
		ok, err := f.nextRecord(&ovs[n])
		if err != nil || !ok {
			return n, err
		}
	}

	return len(ovs), nil
}

// SeekOverlap repositions the read cursor on the record with the given
// index. Only raw files on seekable media support this; calling it on
// anything else is a programming error and panics.
func (f *File) SeekOverlap(index int64) error {
	f.ensureOpen("SeekOverlap")

	if !f.seekable {
		panic("ovfile: SeekOverlap on a non-seekable file")
	}

	if _, err := f.in.Seek(index*int64(f.RecordBytes()), io.SeekStart); err != nil {
		return err
	}

	// Drop whatever the buffer holds; the next read reloads it.
	f.bufPos, f.bufLen = 0, 0
	return nil
}

// Close flushes pending records, persists the counts side file for
// counting writers and releases the underlying stream. Closing twice is
// fine; every call after the first is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if f.mode.Reading() {
		return f.in.Close()
	}

	flushErr := f.flush()

	var countsErr error
	if f.counts != nil {
		countsErr = f.counts.writeFile(f.countsPath)
		f.counts = nil
	}

	closeErr := f.out.Close()

	if flushErr != nil {
		return flushErr
	}
	if countsErr != nil {
		return countsErr
	}
	return closeErr
}

// nextRecord decodes one record off the buffer, reloading it first if
// the cursor drained it.
func (f *File) nextRecord(ov *Overlap) (bool, error) {
	if err := f.fillBuffer(); err != nil {
		return false, err
	}
	if f.bufLen == 0 {
		return false, nil
	}

	if left := f.bufLen - f.bufPos; left < f.recWords {
		return false, errors.Wrapf(
			ErrPartialRecord,
			"%d words left, record takes %d", left, f.recWords,
		)
	}

	f.decodeOverlap(ov)
	return true, nil
}

// fillBuffer reloads the word buffer once the cursor drained it.
func (f *File) fillBuffer() error {
	if f.bufPos < f.bufLen {
		return nil
	}

	n, err := f.blocks.load(f.buf)
	if err != nil {
		f.bufPos, f.bufLen = 0, 0
		return err
	}

	f.bufPos, f.bufLen = 0, n
	return nil
}

// flushFull pushes the buffer out once it is full.
func (f *File) flushFull() error {
	if f.bufLen < len(f.buf) {
		return nil
	}

	return f.flush()
}

// flush persists whatever the buffer holds. Close uses it to push out
// the final partial buffer.
func (f *File) flush() error {
	if f.bufLen == 0 {
		return nil
	}

	if err := f.blocks.flush(f.buf[:f.bufLen]); err != nil {
		return err
	}

	f.bufLen = 0
	return nil
}

// encodeOverlap appends the on-disk words of ov to the buffer. The
// caller made sure there is room.
func (f *File) encodeOverlap(ov *Overlap) {
	buf, n := f.buf, f.bufLen

	if f.mode.Full() {
		buf[n] = ov.AID
		n++
	}
	buf[n] = ov.BID
	n++

	if f.layout.wide() {
		for i := 0; i < f.layout.DatWords(); i++ {
			buf[n] = uint32(ov.Dat[i] >> 32)
			buf[n+1] = uint32(ov.Dat[i])
			n += 2
		}
	} else {
		for i := 0; i < f.layout.DatWords(); i++ {
			buf[n] = uint32(ov.Dat[i])
			n++
		}
	}

	f.bufLen = n
}

// decodeOverlap reads one record at the buffer cursor into ov.
func (f *File) decodeOverlap(ov *Overlap) {
	buf, n := f.buf, f.bufPos

	if f.mode.Full() {
		ov.AID = buf[n]
		n++
	}
	ov.BID = buf[n]
	n++

	if f.layout.wide() {
		for i := 0; i < f.layout.DatWords(); i++ {
			ov.Dat[i] = uint64(buf[n])<<32 | uint64(buf[n+1])
			n += 2
		}
	} else {
		for i := 0; i < f.layout.DatWords(); i++ {
			ov.Dat[i] = uint64(buf[n])
			n++
		}
	}

	f.bufPos = n
}

func (f *File) ensureOpen(op string) {
	if f.closed {
		panic("ovfile: " + op + " on a closed file")
	}
}

func (f *File) ensureReadable(op string) {
	f.ensureOpen(op)
	if !f.mode.Reading() {
		panic("ovfile: " + op + " on a write mode file")
	}
}

func (f *File) ensureWritable(op string) {
	f.ensureOpen(op)
	if !f.mode.Writing() {
		panic("ovfile: " + op + " on a read mode file")
	}
}
