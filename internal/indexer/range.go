package indexer

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned by SplitRange for an empty batch size or a
// reversed range.
var ErrInvalidRange = errors.New("invalid block range")

// BlockRange is one eth_getLogs window. Both ends are inclusive, and the
// checkpoint advances to To once the window's logs are stored.
type BlockRange struct {
	From uint64
	To   uint64
}

// Len returns the number of blocks in the window.
func (r BlockRange) Len() uint64 {
	return r.To - r.From + 1
}

func (r BlockRange) String() string {
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// SplitRange cuts [from, to] into consecutive windows of at most batchSize
// blocks so no single log query outgrows the provider's limit. The last
// window may be shorter.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("%w: batch size is zero", ErrInvalidRange)
	}
	if to < from {
		return nil, fmt.Errorf("%w: to %d before from %d", ErrInvalidRange, to, from)
	}

	ranges := make([]BlockRange, 0, (to-from)/batchSize+1)
	for start := from; ; start += batchSize {
		// to-start < batchSize also guards start+batchSize against overflow
		if to-start < batchSize {
			ranges = append(ranges, BlockRange{From: start, To: to})
			return ranges, nil
		}
		ranges = append(ranges, BlockRange{From: start, To: start + batchSize - 1})
	}
}
