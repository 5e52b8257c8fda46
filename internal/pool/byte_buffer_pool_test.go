package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteBuffer_Basics(t *testing.T) {
	bb := NewByteBuffer(64)
	require.Equal(t, 0, bb.Len())
	require.Equal(t, 64, bb.Cap())

	bb.MustWrite([]byte("hello"))
	assert.Equal(t, 5, bb.Len())
	assert.Equal(t, []byte("hello"), bb.Bytes())

	bb.Reset()
	assert.Equal(t, 0, bb.Len())
}

func TestByteBuffer_Grow(t *testing.T) {
	bb := NewByteBuffer(8)
	bb.Grow(1000)
	assert.GreaterOrEqual(t, bb.Cap(), 1000)
}

func TestGetPutBuffer(t *testing.T) {
	bb := GetBuffer()
	require.NotNil(t, bb)
	bb.MustWrite([]byte("data"))
	PutBuffer(bb)

	bb2 := GetBuffer()
	assert.Equal(t, 0, bb2.Len())
	PutBuffer(bb2)
}

func TestPutBuffer_NilIsNoop(t *testing.T) {
	assert.NotPanics(t, func() { PutBuffer(nil) })
}

func TestGetPutArtifactBuffer(t *testing.T) {
	bb := GetArtifactBuffer()
	require.NotNil(t, bb)
	assert.GreaterOrEqual(t, bb.Cap(), ArtifactBufferDefaultSize)
	PutArtifactBuffer(bb)
}
