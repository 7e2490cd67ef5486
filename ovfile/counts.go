package ovfile

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// countsSuffix is appended to the derived file prefix.
const countsSuffix = ".counts"

// initialCountSlots is how many per sequence slots a counting writer
// starts out with. Small runs never reallocate.
const initialCountSlots = 128 * 1024

// CountsPath derives the counts side file path for an overlap file: the
// base name is cut at its first dot, the directory part stays untouched.
// "asm/reads.ovb.gz" maps to "asm/reads.counts".
func CountsPath(path string) string {
	dir, base := filepath.Split(path)
	if dot := strings.IndexByte(base, '.'); dot >= 0 {
		base = base[:dot]
	}

	return dir + base + countsSuffix
}

// countTracker records how many overlaps touch each sequence ID.
type countTracker struct {
	counts []uint32
	last   uint32 // highest ID seen
}

func newCountTracker() *countTracker {
	return &countTracker{counts: make([]uint32, initialCountSlots)}
}

// grow makes sure id has a slot, extending by at least a quarter per
// step so long runs do not reallocate on every record.
func (ct *countTracker) grow(id uint32) {
	if id > ct.last {
		ct.last = id
	}

	newMax := uint64(len(ct.counts))
	for newMax <= uint64(id) {
		newMax += newMax / 4
	}

	if newMax > uint64(len(ct.counts)) {
		grown := make([]uint32, newMax)
		copy(grown, ct.counts)
		ct.counts = grown
	}
}

// bump counts one overlap for both of its sequences. The caller must
// have grown the slots first.
func (ct *countTracker) bump(aID, bID uint32) {
	ct.counts[aID]++
	ct.counts[bID]++
}

// writeTo dumps the counts in the side file format: one word holding the
// slot count, then one word per sequence up to the highest ID seen. A
// session without records still writes the slot for sequence zero.
func (ct *countTracker) writeTo(w io.Writer) error {
	n := int(ct.last) + 1

	img := make([]byte, wordBytes*(n+1))
	binary.LittleEndian.PutUint32(img[0:], uint32(n))
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(img[wordBytes*(i+1):], ct.counts[i])
	}

	_, err := w.Write(img)
	return err
}

// writeFile persists the tracker next to the data file.
func (ct *countTracker) writeFile(path string) error {
	fd, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := ct.writeTo(fd); err != nil {
		fd.Close()
		return err
	}

	return fd.Close()
}

// ReadCounts loads a counts side file. The returned slice has one entry
// per sequence ID, index zero included.
func ReadCounts(path string) ([]uint32, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	info, err := fd.Stat()
	if err != nil {
		return nil, err
	}

	var head [wordBytes]byte
	if _, err := io.ReadFull(fd, head[:]); err != nil {
		return nil, errors.Wrapf(err, "counts header of '%s'", path)
	}

	n := int64(binary.LittleEndian.Uint32(head[:]))
	if want := wordBytes * (n + 1); info.Size() < want {
		return nil, errors.Errorf(
			"counts file '%s' holds %d bytes, header promises %d",
			path, info.Size(), want,
		)
	}

	img := make([]byte, wordBytes*n)
	if _, err := io.ReadFull(fd, img); err != nil {
		return nil, errors.Wrapf(err, "counts body of '%s'", path)
	}

	counts := make([]uint32, n)
	unpackWords(counts, img)
	return counts, nil
}
