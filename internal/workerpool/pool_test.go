package workerpool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapPreservesOrder(t *testing.T) {
	in := make([]int, 1000)
	for i := range in {
		in[i] = i
	}

	out, err := Map(context.Background(), in, 8, func(v int) int { return v * 2 })
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i, v := range out {
		require.Equal(t, i*2, v)
	}
}

func TestMapEmptyInput(t *testing.T) {
	out, err := Map(context.Background(), nil, 4, func(v int) int { return v })
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestMapCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := make([]int, 100)
	_, err := Map(ctx, in, 4, func(v int) int { return v })
	require.Error(t, err)
}

func TestMapSingleWorker(t *testing.T) {
	out, err := Map(context.Background(), []string{"a", "b", "c"}, 1, func(s string) string { return s + s })
	require.NoError(t, err)
	require.Equal(t, []string{"aa", "bb", "cc"}, out)
}
