package ovfile

import (
	"encoding/binary"
	"io"

	lz4 "github.com/bkaradzic/go-lz4"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

var (
	// ErrBadBlocks is returned on an unsupported/unknown blocks strategy.
	ErrBadBlocks = errors.New("Invalid blocks strategy")

	// ErrTruncatedFrame is returned when a compressed block ends before
	// its length prefix says it should. The stream is unusable past this
	// point.
	ErrTruncatedFrame = errors.New("truncated block frame")

	// ErrCorruptFrame is returned when a compressed block cannot be
	// decoded back into whole records.
	ErrCorruptFrame = errors.New("corrupt block frame")
)

// Blocks selects how flushed word buffers are framed in the underlying
// stream.
type Blocks uint8

const (
	// BlocksDefault resolves to BlocksRaw for normal shapes and to
	// BlocksSnappy for full shapes when the file is opened.
	BlocksDefault Blocks = iota

	// BlocksRaw writes the little endian word image back to back. Only
	// raw files on seekable media support SeekOverlap.
	BlocksRaw

	// BlocksSnappy wraps every flush in a snappy compressed frame.
	BlocksSnappy

	// BlocksLZ4 wraps every flush in a lz4 compressed frame.
	BlocksLZ4
)

var (
	blocksToString = map[Blocks]string{
		BlocksDefault: "default",
		BlocksRaw:     "raw",
		BlocksSnappy:  "snappy",
		BlocksLZ4:     "lz4",
	}

	stringToBlocks = map[string]Blocks{
		"default": BlocksDefault,
		"raw":     BlocksRaw,
		"snappy":  BlocksSnappy,
		"lz4":     BlocksLZ4,
	}
)

// BlocksFromString tries to convert a strategy name to a Blocks value.
func BlocksFromString(s string) (Blocks, error) {
	b, ok := stringToBlocks[s]
	if !ok {
		return 0, ErrBadBlocks
	}

	return b, nil
}

func (b Blocks) String() string {
	name, ok := blocksToString[b]
	if !ok {
		return "unknown blocks"
	}

	return name
}

// Algorithm is the common interface for all supported frame compressors.
type Algorithm interface {
	Encode([]byte) ([]byte, error)
	Decode([]byte) ([]byte, error)
}

type snappyAlgo struct{}
type lz4Algo struct{}

var algoMap = map[Blocks]Algorithm{
	BlocksSnappy: snappyAlgo{},
	BlocksLZ4:    lz4Algo{},
}

// BlocksSnappy
func (a snappyAlgo) Encode(src []byte) ([]byte, error) {
	return snappy.Encode(nil, src), nil
}

func (a snappyAlgo) Decode(src []byte) ([]byte, error) {
	return snappy.Decode(nil, src)
}

// BlocksLZ4
func (a lz4Algo) Encode(src []byte) ([]byte, error) {
	return lz4.Encode(nil, src)
}

func (a lz4Algo) Decode(src []byte) ([]byte, error) {
	return lz4.Decode(nil, src)
}

// algorithmFor returns the frame compressor behind a blocks strategy.
func algorithmFor(b Blocks) (Algorithm, error) {
	if algo, ok := algoMap[b]; ok {
		return algo, nil
	}

	return nil, ErrBadBlocks
}

// blockCodec moves whole word buffers between memory and the stream.
// flush persists one buffer; load fills one and returns the word count,
// where zero with a nil error is a clean end of stream.
type blockCodec interface {
	flush(words []uint32) error
	load(words []uint32) (int, error)
}

// newBlockCodec builds the codec for an already resolved strategy.
func newBlockCodec(blocks Blocks, r io.Reader, w io.Writer) (blockCodec, error) {
	if blocks == BlocksRaw {
		return &rawBlocks{r: r, w: w}, nil
	}

	algo, err := algorithmFor(blocks)
	if err != nil {
		return nil, err
	}

	return &framedBlocks{r: r, w: w, algo: algo}, nil
}

func packWords(img []byte, words []uint32) {
	for i, w := range words {
		binary.LittleEndian.PutUint32(img[wordBytes*i:], w)
	}
}

func unpackWords(words []uint32, img []byte) {
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(img[wordBytes*i:])
	}
}

// rawBlocks dumps the word image without any framing. Record boundaries
// survive because buffer capacities are a multiple of the record size.
type rawBlocks struct {
	r   io.Reader
	w   io.Writer
	img []byte
}

// image returns the staging buffer, grown to hold nWords words.
func (rb *rawBlocks) image(nWords int) []byte {
	if need := wordBytes * nWords; cap(rb.img) < need {
		rb.img = make([]byte, need)
	}

	return rb.img[:wordBytes*nWords]
}

func (rb *rawBlocks) flush(words []uint32) error {
	img := rb.image(len(words))
	packWords(img, words)

	_, err := rb.w.Write(img)
	return err
}

func (rb *rawBlocks) load(words []uint32) (int, error) {
	img := rb.image(len(words))

	n, err := io.ReadFull(rb.r, img)
	switch err {
	case nil, io.EOF, io.ErrUnexpectedEOF:
		// A short read just means the stream is drained.
	default:
		return 0, err
	}

	nWords := n / wordBytes
	unpackWords(words[:nWords], img)
	return nWords, nil
}

// framedBlocks wraps every buffer in one compressed frame, preceded by a
// little endian 64 bit byte length. Frames cannot be seeked, only read
// back in order.
type framedBlocks struct {
	r     io.Reader
	w     io.Writer
	algo  Algorithm
	img   []byte
	frame []byte
	head  [8]byte
}

func (fb *framedBlocks) image(nWords int) []byte {
	if need := wordBytes * nWords; cap(fb.img) < need {
		fb.img = make([]byte, need)
	}

	return fb.img[:wordBytes*nWords]
}

func (fb *framedBlocks) framePayload(n int) []byte {
	if cap(fb.frame) < n {
		fb.frame = make([]byte, n)
	}

	return fb.frame[:n]
}

// maxFrameLen bounds how big an encoded frame may claim to be. Snappy
// and lz4 both stay well below twice the input in the worst case, so
// anything beyond that is corruption, not data.
func maxFrameLen(nWords int) uint64 {
	return uint64(2*wordBytes*nWords + 64)
}

func (fb *framedBlocks) flush(words []uint32) error {
	img := fb.image(len(words))
	packWords(img, words)

	frame, err := fb.algo.Encode(img)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint64(fb.head[:], uint64(len(frame)))
	if _, err := fb.w.Write(fb.head[:]); err != nil {
		return err
	}

	_, err = fb.w.Write(frame)
	return err
}

func (fb *framedBlocks) load(words []uint32) (int, error) {
	_, err := io.ReadFull(fb.r, fb.head[:])
	if err == io.EOF {
		return 0, nil
	}
	if err == io.ErrUnexpectedEOF {
		return 0, errors.Wrap(ErrTruncatedFrame, "frame length")
	}
	if err != nil {
		return 0, err
	}

	frameLen := binary.LittleEndian.Uint64(fb.head[:])
	if limit := maxFrameLen(len(words)); frameLen > limit {
		return 0, errors.Wrapf(
			ErrCorruptFrame,
			"frame claims %d bytes, at most %d make sense", frameLen, limit,
		)
	}

	frame := fb.framePayload(int(frameLen))
	if _, err := io.ReadFull(fb.r, frame); err != nil {
		return 0, errors.Wrapf(ErrTruncatedFrame, "frame payload: %v", err)
	}

	img, err := fb.algo.Decode(frame)
	if err != nil {
		return 0, errors.Wrapf(ErrCorruptFrame, "decode: %v", err)
	}

	if len(img)%wordBytes != 0 {
		return 0, errors.Wrapf(
			ErrCorruptFrame,
			"frame decodes to %d bytes, not a whole word count", len(img),
		)
	}

	nWords := len(img) / wordBytes
	if nWords > len(words) {
		return 0, errors.Wrapf(
			ErrCorruptFrame,
			"frame holds %d words, buffer takes %d", nWords, len(words),
		)
	}

	unpackWords(words[:nWords], img)
	return nWords, nil
}
