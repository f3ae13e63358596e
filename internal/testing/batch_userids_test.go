package testing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBatchUserIDs(t *testing.T) {
	batches := BatchUserIDs([]int64{0, 1, 2, 3, 4, 5})
	require.Equal(t, [][]int64{{0, 1}, {0, 2}, {0, 3}, {0, 4}, {0, 5}}, batches)
}

func TestBatchUserIDsSinglePair(t *testing.T) {
	batches := BatchUserIDs([]int64{7, 8})
	require.Equal(t, [][]int64{{7, 8}}, batches)
}

func TestReverseIDs(t *testing.T) {
	ids := []int64{1, 2, 3}
	require.Equal(t, []int64{3, 2, 1}, ReverseIDs(ids))
	require.Equal(t, []int64{1, 2, 3}, ids)
}
