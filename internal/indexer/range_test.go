package indexer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRange(t *testing.T) {
	cases := []struct {
		name          string
		from, to, max uint64
		want          []BlockRange
	}{
		{
			name: "even windows",
			from: 100, to: 105, max: 2,
			want: []BlockRange{{From: 100, To: 101}, {From: 102, To: 103}, {From: 104, To: 105}},
		},
		{
			name: "short tail",
			from: 10_000_000, to: 10_002_500, max: 1000,
			want: []BlockRange{
				{From: 10_000_000, To: 10_000_999},
				{From: 10_001_000, To: 10_001_999},
				{From: 10_002_000, To: 10_002_500},
			},
		},
		{
			name: "single block",
			from: 5, to: 5, max: 10,
			want: []BlockRange{{From: 5, To: 5}},
		},
		{
			name: "ends at the last representable block",
			from: math.MaxUint64 - 2, to: math.MaxUint64, max: 2,
			want: []BlockRange{{From: math.MaxUint64 - 2, To: math.MaxUint64 - 1}, {From: math.MaxUint64, To: math.MaxUint64}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SplitRange(tc.from, tc.to, tc.max)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			var blocks uint64
			for _, r := range got {
				blocks += r.Len()
			}
			assert.Equal(t, tc.to-tc.from+1, blocks, "windows cover the range exactly")
		})
	}
}

func TestSplitRangeInvalid(t *testing.T) {
	_, err := SplitRange(10, 9, 1)
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = SplitRange(1, 10, 0)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestBlockRangeString(t *testing.T) {
	r := BlockRange{From: 7, To: 9}
	assert.Equal(t, "7-9", r.String())
	assert.Equal(t, uint64(3), r.Len())
}
