package remote

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEach_PreservesOrder(t *testing.T) {
	out := make([]int, 20)

	err := Each(context.Background(), len(out), 4, func(_ context.Context, i int) {
		// later rows finish first
		time.Sleep(time.Duration(len(out)-i) * time.Millisecond)
		out[i] = i * i
	})

	require.NoError(t, err)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestEach_RespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int32

	err := Each(context.Background(), 30, 3, func(_ context.Context, _ int) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestEach_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	err := Each(ctx, 10, 2, func(_ context.Context, _ int) {
		calls.Add(1)
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}
