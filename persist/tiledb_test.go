package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenBytes_ConcatenatesAndComputesOffsets(t *testing.T) {
	rows := [][]byte{[]byte("ab"), []byte(""), []byte("cde")}
	flat, offsets := flattenBytes(rows)

	assert.Equal(t, []byte("abcde"), flat)
	require.Len(t, offsets, 3)
	assert.Equal(t, []uint64{0, 2, 2}, offsets)
}

func TestFlattenBytes_Empty(t *testing.T) {
	flat, offsets := flattenBytes(nil)
	assert.Empty(t, flat)
	assert.Empty(t, offsets)
}
