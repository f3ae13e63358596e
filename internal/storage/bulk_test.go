package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemberRows(t *testing.T) {
	rows := memberRows(7, 1, []int64{2, 3, 2, 1, 4})
	require.Equal(t, []memberRow{{7, 1}, {7, 2}, {7, 3}, {7, 4}}, rows)
}

func TestMemberRowsCreatorOnly(t *testing.T) {
	rows := memberRows(7, 1, nil)
	require.Equal(t, []memberRow{{7, 1}}, rows)
}

func TestCopyFromMembers(t *testing.T) {
	src := copyFromMembers([]memberRow{{7, 1}, {7, 2}})

	require.True(t, src.Next())
	values, err := src.Values()
	require.NoError(t, err)
	require.Equal(t, []interface{}{int64(7), int64(1)}, values)

	require.True(t, src.Next())
	values, err = src.Values()
	require.NoError(t, err)
	require.Equal(t, []interface{}{int64(7), int64(2)}, values)

	require.False(t, src.Next())
	require.NoError(t, src.Err())
}
