package history

import (
	"encoding/binary"
	"fmt"
	"sort"

	"golang.org/x/exp/mmap"

	"github.com/dd0wney/sourcenet/pkg/numerics"
)

const (
	frameHeaderSize  = 16
	frameTrailerSize = 4
)

type frameRef struct {
	offset  int64
	step    uint64
	rawLen  uint32
	compLen uint32
}

// Reader gives random access to a history log through a memory map. The
// frame index is built by one header walk at open; record bodies are read
// and verified on demand. Seek additionally needs the step numbers to be
// increasing, which holds for any log written by a single Log instance.
type Reader struct {
	r      *mmap.ReaderAt
	frames []frameRef
	steps  []uint64
	sorted bool
}

// OpenReader maps the log at path and indexes its frames.
func OpenReader(path string) (*Reader, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mapping history log: %w", err)
	}
	rd := &Reader{r: r}
	if err := rd.index(); err != nil {
		r.Close()
		return nil, err
	}
	rd.sorted = numerics.IsSorted(rd.steps)
	return rd, nil
}

func (r *Reader) index() error {
	size := int64(r.r.Len())
	header := make([]byte, frameHeaderSize)
	for off := int64(0); off < size; {
		if size-off < frameHeaderSize {
			return ErrTruncated
		}
		if _, err := r.r.ReadAt(header, off); err != nil {
			return fmt.Errorf("indexing history frame: %w", err)
		}
		ref := frameRef{
			offset:  off,
			step:    binary.BigEndian.Uint64(header[0:8]),
			rawLen:  binary.BigEndian.Uint32(header[8:12]),
			compLen: binary.BigEndian.Uint32(header[12:16]),
		}
		end := off + frameHeaderSize + int64(ref.compLen) + frameTrailerSize
		if end > size {
			return ErrTruncated
		}
		r.frames = append(r.frames, ref)
		r.steps = append(r.steps, ref.step)
		off = end
	}
	return nil
}

// Len returns the number of indexed records.
func (r *Reader) Len() int { return len(r.frames) }

// Steps returns the step number of every record in file order.
func (r *Reader) Steps() []uint64 {
	return append([]uint64(nil), r.steps...)
}

// Record reads, verifies and decodes the record at position i.
func (r *Reader) Record(i int) (Record, error) {
	if i < 0 || i >= len(r.frames) {
		return Record{}, fmt.Errorf("record %d outside log of %d records", i, len(r.frames))
	}
	ref := r.frames[i]
	body := make([]byte, int(ref.compLen)+frameTrailerSize)
	if _, err := r.r.ReadAt(body, ref.offset+frameHeaderSize); err != nil {
		return Record{}, fmt.Errorf("reading history frame: %w", err)
	}
	compressed := body[:ref.compLen]
	sum := binary.BigEndian.Uint32(body[ref.compLen:])
	return decodeRecord(ref.step, ref.rawLen, compressed, sum)
}

// Seek returns the record with the given step number.
func (r *Reader) Seek(step uint64) (Record, error) {
	if !r.sorted {
		return Record{}, ErrUnsortedSteps
	}
	i := sort.Search(len(r.steps), func(i int) bool { return r.steps[i] >= step })
	if i == len(r.steps) || r.steps[i] != step {
		return Record{}, fmt.Errorf("step %d: %w", step, ErrStepNotFound)
	}
	return r.Record(i)
}

// Close unmaps the log.
func (r *Reader) Close() error { return r.r.Close() }
