package ovfile

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/seqwerk/ovio/util/testutil"
)

func TestBlocksStrings(t *testing.T) {
	for _, blk := range []Blocks{BlocksDefault, BlocksRaw, BlocksSnappy, BlocksLZ4} {
		back, err := BlocksFromString(blk.String())
		require.Nil(t, err)
		require.Equal(t, blk, back)
	}

	_, err := BlocksFromString("brotli")
	require.Equal(t, ErrBadBlocks, err)
	require.Equal(t, "unknown blocks", Blocks(99).String())
}

func TestAlgorithms(t *testing.T) {
	data := testutil.CreateDummyBuf(4096)

	for _, blk := range []Blocks{BlocksSnappy, BlocksLZ4} {
		algo, err := algorithmFor(blk)
		require.Nil(t, err)

		packed, err := algo.Encode(data)
		require.Nil(t, err)
		require.True(t, len(packed) < len(data))

		unpacked, err := algo.Decode(packed)
		require.Nil(t, err)
		require.Equal(t, data, unpacked)
	}

	// Raw has no compressor behind it.
	_, err := algorithmFor(BlocksRaw)
	require.Equal(t, ErrBadBlocks, err)
}

func TestRawByteLayout(t *testing.T) {
	dir := t.TempDir()

	t.Run("wide", func(t *testing.T) {
		path := filepath.Join(dir, "wide.ovb")

		f, err := OpenOptions(path, WriteNormal, Layout3, Options{Blocks: BlocksRaw})
		require.Nil(t, err)

		ov := Overlap{BID: 0x11223344}
		ov.Dat[0] = 0xAABBCCDD55667788
		ov.Dat[1] = 0x1111111122222222
		ov.Dat[2] = 0x3333333344444444
		require.Nil(t, f.WriteOverlap(&ov))
		require.Nil(t, f.Close())

		raw, err := os.ReadFile(path)
		require.Nil(t, err)
		require.Len(t, raw, Layout3.RecordBytes(false))

		words := make([]uint32, 7)
		unpackWords(words, raw)
		require.Equal(t, []uint32{
			0x11223344, // b-ID
			0xAABBCCDD, 0x55667788, // dat[0]: high word, then low
			0x11111111, 0x22222222,
			0x33333333, 0x44444444,
		}, words)
	})

	t.Run("narrow", func(t *testing.T) {
		path := filepath.Join(dir, "narrow.ovb")

		f, err := OpenOptions(path, WriteFullNoCounts, Layout5, Options{Blocks: BlocksRaw})
		require.Nil(t, err)

		ov := Overlap{AID: 7, BID: 9}
		for j := 0; j < 5; j++ {
			ov.Dat[j] = uint64(j + 1)
		}
		require.Nil(t, f.WriteOverlap(&ov))
		require.Nil(t, f.Close())

		raw, err := os.ReadFile(path)
		require.Nil(t, err)
		require.Len(t, raw, Layout5.RecordBytes(true))

		words := make([]uint32, 7)
		unpackWords(words, raw)
		require.Equal(t, []uint32{7, 9, 1, 2, 3, 4, 5}, words)
	})

	t.Run("endianness", func(t *testing.T) {
		path := filepath.Join(dir, "endian.ovb")

		f, err := OpenOptions(path, WriteNormal, Layout5, Options{Blocks: BlocksRaw})
		require.Nil(t, err)
		require.Nil(t, f.WriteOverlap(&Overlap{BID: 0x01020304}))
		require.Nil(t, f.Close())

		raw, err := os.ReadFile(path)
		require.Nil(t, err)
		require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, raw[:4])
	})
}

func TestFramedFileShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framed.ovb")
	const n = 50

	writeDummyFile(t, path, WriteFullNoCounts, Layout5, Options{Blocks: BlocksSnappy}, n)

	// One flush, so: an 8 byte length prefix plus exactly that many
	// compressed bytes, which decode back to the word image.
	raw, err := os.ReadFile(path)
	require.Nil(t, err)
	require.True(t, len(raw) > 8)

	frameLen := binary.LittleEndian.Uint64(raw[:8])
	require.Equal(t, int(frameLen), len(raw)-8)

	img, err := snappy.Decode(nil, raw[8:])
	require.Nil(t, err)
	require.Equal(t, n*Layout5.RecordBytes(true), len(img))
}

func TestTruncatedFrame(t *testing.T) {
	base := filepath.Join(t.TempDir(), "base.ovb")

	// Two frames: the first holds a full buffer worth of records.
	opts := Options{Blocks: BlocksSnappy, BufferBytes: MinBufferBytes}
	perFrame := bufferWords(Layout5, MinBufferBytes) / Layout5.WordsPerOverlap(true)
	total := perFrame + 100

	writeDummyFile(t, base, WriteFullNoCounts, Layout5, opts, total)

	raw, err := os.ReadFile(base)
	require.Nil(t, err)

	cases := []struct {
		name string
		keep int
		good int // records readable before the error
	}{
		{"first-frame-length", 5, 0},
		{"first-frame-payload", 100, 0},
		{"second-frame-payload", len(raw) - 3, perFrame},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "trunc.ovb")
			require.Nil(t, os.WriteFile(path, raw[:c.keep], 0644))

			f, err := OpenOptions(path, ReadFull, Layout5, opts)
			require.Nil(t, err)

			good := 0
			var readErr error
			for {
				ok, err := f.ReadOverlap(&Overlap{})
				if err != nil {
					readErr = err
					break
				}
				if !ok {
					break
				}
				good++
			}

			require.Equal(t, c.good, good)
			require.Equal(t, ErrTruncatedFrame, errors.Cause(readErr))
			require.Nil(t, f.Close())
		})
	}
}

func TestCorruptFrame(t *testing.T) {
	dir := t.TempDir()

	t.Run("absurd-length", func(t *testing.T) {
		img := make([]byte, 16)
		binary.LittleEndian.PutUint64(img, ^uint64(0))

		path := filepath.Join(dir, "absurd.ovb")
		require.Nil(t, os.WriteFile(path, img, 0644))

		f, err := OpenOptions(path, ReadFull, Layout5, Options{Blocks: BlocksSnappy})
		require.Nil(t, err)

		_, err = f.ReadOverlap(&Overlap{})
		require.Equal(t, ErrCorruptFrame, errors.Cause(err))
		require.Nil(t, f.Close())
	})

	t.Run("ragged-words", func(t *testing.T) {
		// A frame that decodes fine but not to whole words.
		payload := snappy.Encode(nil, []byte{1, 2, 3, 4, 5})
		img := make([]byte, 8+len(payload))
		binary.LittleEndian.PutUint64(img, uint64(len(payload)))
		copy(img[8:], payload)

		path := filepath.Join(dir, "ragged.ovb")
		require.Nil(t, os.WriteFile(path, img, 0644))

		f, err := OpenOptions(path, ReadFull, Layout5, Options{Blocks: BlocksSnappy})
		require.Nil(t, err)

		_, err = f.ReadOverlap(&Overlap{})
		require.Equal(t, ErrCorruptFrame, errors.Cause(err))
		require.Nil(t, f.Close())
	})

	t.Run("garbage-payload", func(t *testing.T) {
		// Word aligned length, bytes that are not snappy at all.
		img := make([]byte, 8+16)
		binary.LittleEndian.PutUint64(img, 16)
		for i := 8; i < len(img); i++ {
			img[i] = 0xff
		}

		path := filepath.Join(dir, "garbage.ovb")
		require.Nil(t, os.WriteFile(path, img, 0644))

		f, err := OpenOptions(path, ReadFull, Layout5, Options{Blocks: BlocksSnappy})
		require.Nil(t, err)

		_, err = f.ReadOverlap(&Overlap{})
		require.Equal(t, ErrCorruptFrame, errors.Cause(err))
		require.Nil(t, f.Close())
	})
}

func TestPartialRecordRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.ovb")

	// Three 24 byte records, then chop two bytes off the last one.
	writeDummyFile(t, path, WriteNormal, Layout5, Options{Blocks: BlocksRaw}, 3)
	require.Nil(t, os.Truncate(path, 70))

	f, err := Open(path, ReadNormal, Layout5)
	require.Nil(t, err)

	ovs := make([]Overlap, 10)
	got, err := f.ReadOverlaps(ovs)
	require.Equal(t, 2, got)
	require.Equal(t, ErrPartialRecord, errors.Cause(err))
	require.Nil(t, f.Close())
}
