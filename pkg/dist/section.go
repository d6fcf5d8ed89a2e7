package dist

import (
	"fmt"

	"github.com/dd0wney/sourcenet/pkg/numerics"
)

// Section describes the rank-local layout of one node category's unknowns:
// the storage offset and block size for each local index. Block sizes are
// fixed at construction and never change.
type Section struct {
	offsets []int
	sizes   []int
	total   int
}

// NewSection builds a section from per-block sizes, laying the blocks out
// contiguously in local-index order.
func NewSection(blockSizes []int) *Section {
	ends := numerics.CumulativeSum(blockSizes)
	offsets := make([]int, len(blockSizes))
	for i := range offsets {
		offsets[i] = ends[i] - blockSizes[i]
	}
	total := 0
	if len(ends) > 0 {
		total = ends[len(ends)-1]
	}
	sizes := make([]int, len(blockSizes))
	copy(sizes, blockSizes)
	return &Section{offsets: offsets, sizes: sizes, total: total}
}

// NumBlocks returns the number of blocks in the section.
func (s *Section) NumBlocks() int { return len(s.offsets) }

// LocalSize returns the total number of unknowns the section lays out.
func (s *Section) LocalSize() int { return s.total }

// Offset returns the position of the block for localIndex within the
// rank-local storage segment.
func (s *Section) Offset(localIndex int) (int, error) {
	if localIndex < 0 || localIndex >= len(s.offsets) {
		return 0, fmt.Errorf("%w: %d (section has %d blocks)", ErrIndexOutOfRange, localIndex, len(s.offsets))
	}
	return s.offsets[localIndex], nil
}

// BlockSize returns the number of unknowns in the block for localIndex.
func (s *Section) BlockSize(localIndex int) (int, error) {
	if localIndex < 0 || localIndex >= len(s.sizes) {
		return 0, fmt.Errorf("%w: %d (section has %d blocks)", ErrIndexOutOfRange, localIndex, len(s.sizes))
	}
	return s.sizes[localIndex], nil
}

// GlobalOffset resolves the flat global position of a node's unknown block
// from its section, its local index and the recorded range start of the
// owning rank's segment within the distributed vector.
func GlobalOffset(s *Section, localIndex, rangeStart int) (int, error) {
	off, err := s.Offset(localIndex)
	if err != nil {
		return 0, err
	}
	return rangeStart + off, nil
}
