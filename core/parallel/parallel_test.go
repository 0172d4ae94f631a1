package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunks(t *testing.T) {
	tests := []struct {
		name    string
		items   int
		workers int
		want    [][2]int
	}{
		{"empty", 0, 4, nil},
		{"even", 8, 4, [][2]int{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"uneven", 7, 3, [][2]int{{0, 3}, {3, 5}, {5, 7}}},
		{"more workers than items", 2, 8, [][2]int{{0, 1}, {1, 2}}},
		{"zero workers", 3, 0, [][2]int{{0, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunks(tt.items, tt.workers))
		})
	}
}

func TestForCoversEveryIndexOnce(t *testing.T) {
	for _, threshold := range []int{0, 10, 10000} {
		hits := make([]int32, 1000)
		For(len(hits), threshold, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			require.Equal(t, int32(1), h, "index %d threshold %d", i, threshold)
		}
	}
}

func TestForBelowThresholdIsSingleCall(t *testing.T) {
	var calls int
	For(5, 5, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 5, end)
	})
	assert.Equal(t, 1, calls)
}

func TestForErr(t *testing.T) {
	boom := errors.New("boom")
	err := ForErr(context.Background(), 100, 0, func(_ context.Context, start, end int) error {
		if start == 0 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = ForErr(ctx, 100, 0, func(ctx context.Context, start, end int) error {
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)

	assert.NoError(t, ForErr(context.Background(), 0, 0, nil))
}
