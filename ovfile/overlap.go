// Package ovfile implements the on-disk codec for sequence overlap files.
//
// An overlap file is a flat stream of fixed size records. Every record is
// a run of little endian 32 bit words:
//
//	[AID] BID PAYLOAD...
//
// The a-ID is only stored in "full" files; "normal" files are sorted by
// a-ID and keep it implicit. The payload geometry is fixed per file:
// three 64 bit words (each stored as a high/low word pair), five 32 bit
// words or eight 32 bit words.
//
// Records pass through a word buffer whose capacity is a multiple of
// every record size, so no record ever straddles a buffer boundary. The
// buffer reaches the underlying stream in one of two framings: raw, where
// the word image is written back to back and records can be addressed by
// offset, or framed, where every flush becomes one length prefixed,
// compressed block.
//
// Writers of full files additionally track how many overlaps touch each
// sequence and leave a counts side file next to the data file on Close.
package ovfile

import (
	"github.com/pkg/errors"
)

var (
	// ErrBadMode is returned when a file is opened with an unknown mode.
	ErrBadMode = errors.New("Invalid file mode")

	// ErrBadLayout is returned when a file is opened with an unsupported
	// payload layout.
	ErrBadLayout = errors.New("Invalid payload layout")
)

// wordBytes is the size of one on-disk word.
const wordBytes = 4

// MaxDatWords is the widest payload any layout carries.
const MaxDatWords = 8

// Overlap is one overlap record between two sequences. AID only hits the
// disk in full shape files; normal reads leave it untouched and the
// caller tracks it. Dat carries the payload: Layout3 uses Dat[0:3] as
// full 64 bit words, Layout5 and Layout8 use the low 32 bits of Dat[0:5]
// and Dat[0:8] respectively.
type Overlap struct {
	AID uint32
	BID uint32
	Dat [MaxDatWords]uint64
}

// Layout selects the payload geometry of a file. The value is the number
// of payload words a record carries in memory.
type Layout uint8

const (
	// Layout3 stores three 64 bit payload words as high/low pairs.
	Layout3 Layout = 3

	// Layout5 stores five 32 bit payload words.
	Layout5 Layout = 5

	// Layout8 stores eight 32 bit payload words.
	Layout8 Layout = 8
)

// DefaultLayout is used by the command line tools unless told otherwise.
const DefaultLayout = Layout5

// LayoutFromWords maps a payload word count to its layout.
func LayoutFromWords(n int) (Layout, error) {
	l := Layout(n)
	if !l.Valid() {
		return 0, ErrBadLayout
	}

	return l, nil
}

// Valid reports whether l is a supported payload geometry.
func (l Layout) Valid() bool {
	switch l {
	case Layout3, Layout5, Layout8:
		return true
	}

	return false
}

// DatWords returns the number of in-memory payload words.
func (l Layout) DatWords() int {
	return int(l)
}

// diskDatWords returns the number of 32 bit words the payload occupies
// on disk. The 64 bit payload is split into high/low word pairs.
func (l Layout) diskDatWords() int {
	if l == Layout3 {
		return 6
	}

	return int(l)
}

// wide reports whether the payload words are 64 bit wide.
func (l Layout) wide() bool {
	return l == Layout3
}

// WordsPerOverlap returns the number of 32 bit words one record occupies
// on disk: the payload plus the b-ID, plus the a-ID for full shapes.
func (l Layout) WordsPerOverlap(full bool) int {
	n := 1 + l.diskDatWords()
	if full {
		n++
	}

	return n
}

// RecordBytes returns the on-disk size of one record.
func (l Layout) RecordBytes(full bool) int {
	return wordBytes * l.WordsPerOverlap(full)
}

func (l Layout) String() string {
	switch l {
	case Layout3:
		return "3x64"
	case Layout5:
		return "5x32"
	case Layout8:
		return "8x32"
	}

	return "unknown layout"
}

// Mode states what a File does: read or write, normal or full shape.
type Mode uint8

const (
	// ReadNormal reads records that carry no a-ID on disk.
	ReadNormal Mode = iota

	// ReadFull reads records that carry their a-ID on disk.
	ReadFull

	// WriteNormal writes records without their a-ID.
	WriteNormal

	// WriteFull writes records with their a-ID and tracks per sequence
	// counts, persisted to the counts side file on Close.
	WriteFull

	// WriteFullNoCounts is WriteFull without the counts side file.
	// Intermediate files that are merged away later use this.
	WriteFullNoCounts
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m <= WriteFullNoCounts
}

// Reading reports whether m is one of the read modes.
func (m Mode) Reading() bool {
	return m == ReadNormal || m == ReadFull
}

// Writing reports whether m is one of the write modes.
func (m Mode) Writing() bool {
	return !m.Reading()
}

// Full reports whether records carry their a-ID on disk.
func (m Mode) Full() bool {
	return m != ReadNormal && m != WriteNormal
}

// TracksCounts reports whether a writer maintains the counts side file.
func (m Mode) TracksCounts() bool {
	return m == WriteFull
}

func (m Mode) String() string {
	switch m {
	case ReadNormal:
		return "read"
	case ReadFull:
		return "read-full"
	case WriteNormal:
		return "write"
	case WriteFull:
		return "write-full"
	case WriteFullNoCounts:
		return "write-full-nocounts"
	}

	return "unknown mode"
}
