package ovfile

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountsPath(t *testing.T) {
	table := []struct {
		in   string
		want string
	}{
		{"reads.ovb", "reads.counts"},
		{"reads.ovb.gz", "reads.counts"},
		{"reads", "reads.counts"},
		{"asm/reads.ovb.gz", "asm/reads.counts"},
		{"/a/b.c/x.y.z", "/a/b.c/x.counts"},
		{"dir.with.dots/plain", "dir.with.dots/plain.counts"},
	}

	for _, row := range table {
		require.Equal(t, row.want, CountsPath(row.in), row.in)
	}
}

func TestCountTrackerGrowth(t *testing.T) {
	ct := newCountTracker()
	require.Len(t, ct.counts, initialCountSlots)

	// The last preallocated slot does not grow anything.
	ct.grow(uint32(initialCountSlots - 1))
	require.Len(t, ct.counts, initialCountSlots)
	require.Equal(t, uint32(initialCountSlots-1), ct.last)

	// One past it grows by a quarter.
	ct.grow(uint32(initialCountSlots))
	require.Len(t, ct.counts, initialCountSlots+initialCountSlots/4)

	// Growth steps by at least 25% until the ID fits.
	before := len(ct.counts)
	ct.grow(uint32(before))
	require.True(t, len(ct.counts) >= before+before/4)

	// Smaller IDs afterwards change nothing.
	size, last := len(ct.counts), ct.last
	ct.grow(5)
	require.Len(t, ct.counts, size)
	require.Equal(t, last, ct.last)

	// A far jump needs several steps at once and still fits.
	far := newCountTracker()
	far.grow(1000000)
	require.True(t, len(far.counts) > 1000000)
	require.Equal(t, uint32(1000000), far.last)
}

func TestCountTrackerImage(t *testing.T) {
	ct := newCountTracker()

	for _, pair := range [][2]uint32{{1, 2}, {1, 3}, {2, 3}} {
		ct.grow(pair[1])
		ct.bump(pair[0], pair[1])
	}

	buf := &bytes.Buffer{}
	require.Nil(t, ct.writeTo(buf))

	img := buf.Bytes()
	require.Len(t, img, 4*5)
	require.Equal(t, uint32(4), binary.LittleEndian.Uint32(img[0:]))

	want := []uint32{0, 2, 2, 2}
	for i, w := range want {
		require.Equal(t, w, binary.LittleEndian.Uint32(img[4*(i+1):]))
	}

	// A session without records still records sequence zero.
	empty := &bytes.Buffer{}
	require.Nil(t, newCountTracker().writeTo(empty))
	require.Equal(
		t,
		[]byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		empty.Bytes(),
	)
}

func TestCountsThroughFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("batch", func(t *testing.T) {
		path := filepath.Join(dir, "batch.ovb")

		f, err := Open(path, WriteFull, Layout5)
		require.Nil(t, err)
		require.Nil(t, f.WriteOverlaps([]Overlap{
			{AID: 1, BID: 2},
			{AID: 1, BID: 3},
			{AID: 2, BID: 3},
		}))
		require.Nil(t, f.Close())

		counts, err := ReadCounts(CountsPath(path))
		require.Nil(t, err)
		require.Equal(t, []uint32{0, 2, 2, 2}, counts)
	})

	t.Run("large-ids", func(t *testing.T) {
		path := filepath.Join(dir, "large.ovb")

		f, err := Open(path, WriteFull, Layout5)
		require.Nil(t, err)
		require.Nil(t, f.WriteOverlap(&Overlap{AID: 200000, BID: 3}))
		require.Nil(t, f.Close())

		counts, err := ReadCounts(CountsPath(path))
		require.Nil(t, err)
		require.Len(t, counts, 200001)
		require.Equal(t, uint32(1), counts[200000])
		require.Equal(t, uint32(1), counts[3])
		require.Equal(t, uint32(0), counts[0])
	})

	t.Run("no-records", func(t *testing.T) {
		path := filepath.Join(dir, "empty.ovb")

		f, err := Open(path, WriteFull, Layout5)
		require.Nil(t, err)
		require.Nil(t, f.Close())

		counts, err := ReadCounts(CountsPath(path))
		require.Nil(t, err)
		require.Equal(t, []uint32{0}, counts)
	})
}

func TestReadCountsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadCounts(filepath.Join(dir, "missing.counts"))
	require.NotNil(t, err)

	// Too short for even the header.
	short := filepath.Join(dir, "short.counts")
	require.Nil(t, os.WriteFile(short, []byte{0x01, 0x00}, 0644))
	_, err = ReadCounts(short)
	require.NotNil(t, err)

	// Header promises more entries than the file holds.
	lying := filepath.Join(dir, "lying.counts")
	img := make([]byte, 4+2*4)
	binary.LittleEndian.PutUint32(img, 10)
	require.Nil(t, os.WriteFile(lying, img, 0644))
	_, err = ReadCounts(lying)
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "promises")

	// Trailing bytes beyond the promised entries are ignored.
	padded := filepath.Join(dir, "padded.counts")
	img = make([]byte, 4+2*4+3)
	binary.LittleEndian.PutUint32(img, 2)
	binary.LittleEndian.PutUint32(img[4:], 5)
	binary.LittleEndian.PutUint32(img[8:], 6)
	require.Nil(t, os.WriteFile(padded, img, 0644))

	counts, err := ReadCounts(padded)
	require.Nil(t, err)
	require.Equal(t, []uint32{5, 6}, counts)
}
