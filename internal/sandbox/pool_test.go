package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xilef-bot/evalbot/internal/evalerr"
)

func TestPoolAcquireRelease(t *testing.T) {
	pool := NewPool(1, 30*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, pool.Acquire(ctx))

	err := pool.Acquire(ctx)
	assert.ErrorIs(t, err, evalerr.ErrBusy)

	pool.Release()
	require.NoError(t, pool.Acquire(ctx))
	pool.Release()

	stats := pool.Stats()
	assert.Equal(t, 1, stats["size"])
	assert.Equal(t, 1, stats["available"])
	assert.Equal(t, int64(1), stats["rejected"])
}

func TestPoolRun(t *testing.T) {
	pool := NewPool(2, time.Second)

	res, err := pool.Run(context.Background(), "6 * 7", nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "42", res.Text)
	assert.Equal(t, int64(1), pool.Stats()["completed"])
}

func TestPoolClosed(t *testing.T) {
	pool := NewPool(1, time.Second)
	require.NoError(t, pool.Close())

	_, err := pool.Run(context.Background(), "1", nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPoolCanceledWhileWaiting(t *testing.T) {
	pool := NewPool(1, time.Second)
	require.NoError(t, pool.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pool.Acquire(ctx), evalerr.ErrCanceled)
}
