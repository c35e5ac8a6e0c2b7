package pixel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer(12)
	assert.Equal(t, 12, b.Len())
	assert.Empty(t, b.Lit(), "a new buffer should be black")
}

func TestBuffer_SetGetRoundTrip(t *testing.T) {
	b := NewBuffer(13)
	for i := 0; i < b.Len(); i++ {
		p := RGB(byte(i), byte(255-i), byte(i*7))
		require.NoError(t, b.Set(i, p))
		got, err := b.Get(i)
		require.NoError(t, err)
		assert.Equal(t, p, got, "pixel %d should round trip", i)
	}
}

func TestBuffer_OutOfRange(t *testing.T) {
	b := NewBuffer(4)
	b.Fill(RGB(1, 2, 3))
	before := b.Snapshot()

	for _, idx := range []int{-1, 4, 100} {
		err := b.Set(idx, RGB(9, 9, 9))
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "Set(%d) should be rejected", idx)
		_, err = b.Get(idx)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "Get(%d) should be rejected", idx)
	}
	assert.Equal(t, before, b.Snapshot(), "rejected writes must not change the buffer")
}

func TestBuffer_FillClearLit(t *testing.T) {
	b := NewBuffer(5)
	b.Fill(RGB(10, 0, 0))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, b.Lit())

	b.Clear()
	assert.Empty(t, b.Lit())

	require.NoError(t, b.Set(3, RGB(0, 0, 1)))
	assert.Equal(t, []int{3}, b.Lit())
}

func TestBuffer_SnapshotIsCopy(t *testing.T) {
	b := NewBuffer(2)
	snap := b.Snapshot()
	snap[0] = RGB(1, 1, 1)
	p, _ := b.Get(0)
	assert.True(t, p.IsEmpty(), "changing a snapshot must not change the buffer")
}
