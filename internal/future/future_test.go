package future

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giantswarm/registrar/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_SetOnce(t *testing.T) {
	f := New[int]()
	assert.False(t, f.IsDone())

	_, ok := f.Peek()
	assert.False(t, ok)

	assert.True(t, f.Set(1))
	assert.False(t, f.Set(2), "second Set must not overwrite")
	assert.False(t, f.Cancel(), "resolved future cannot be cancelled")

	v, ok := f.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	got, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestFuture_Cancel(t *testing.T) {
	f := New[string]()
	assert.True(t, f.Cancel())
	assert.True(t, f.IsDone())
	assert.True(t, f.IsCancelled())
	assert.False(t, f.Set("late"))

	_, ok := f.Peek()
	assert.False(t, ok)

	_, err := f.Get(context.Background())
	assert.ErrorIs(t, err, api.ErrCancelled)
}

func TestFuture_GetWakesUp(t *testing.T) {
	f := New[int]()

	go func() {
		time.Sleep(20 * time.Millisecond)
		f.Set(7)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	v, err := f.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestFuture_GetInterrupted(t *testing.T) {
	f := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Get(ctx)
	require.Error(t, err)
	assert.True(t, api.IsInterrupted(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestFuture_GetDoneIgnoresEndedContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := Resolved("ready")
	for i := 0; i < 200; i++ {
		v, err := f.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ready", v)
	}

	c := New[string]()
	c.Cancel()
	_, err := c.Get(ctx)
	assert.ErrorIs(t, err, api.ErrCancelled)
}

func TestResolved(t *testing.T) {
	f := Resolved("x")
	assert.True(t, f.IsDone())
	assert.False(t, f.IsCancelled())
	v, ok := f.Peek()
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}
