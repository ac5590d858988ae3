package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitInvalidURL(t *testing.T) {
	err := Init("://invalid-url", "")
	assert.Error(t, err)
}

func TestInitWithMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() { SetClient(nil) })

	require.NoError(t, Init("redis://"+mr.Addr(), ""))
	assert.True(t, Enabled())
	require.NoError(t, Close())
	assert.False(t, Enabled())
}

func TestHelpersWithoutClient(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	assert.ErrorIs(t, Set(ctx, "k", "v", time.Second), ErrNotConfigured)
	_, err := Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, Del(ctx, "k"), ErrNotConfigured)
	_, err = Exists(ctx, "k")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = SetNX(ctx, "k", "v", time.Second)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, Close())
}

func TestBasicOpsWithMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	SetClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = Close() })
	ctx := context.Background()

	require.NoError(t, Set(ctx, "k", "v", time.Minute))
	v, err := Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	ok, err := Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	first, err := SetNX(ctx, "lock", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)
	second, err := SetNX(ctx, "lock", "1", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	require.NoError(t, Del(ctx, "k"))
	_, err = Get(ctx, "k")
	assert.True(t, IsNil(err))
}

func TestSetClientAndBasicOpsWithUnreachableRedis(t *testing.T) {
	cli := goredis.NewClient(&goredis.Options{
		Addr:         "127.0.0.1:0",
		DialTimeout:  50 * time.Millisecond,
		ReadTimeout:  50 * time.Millisecond,
		WriteTimeout: 50 * time.Millisecond,
	})
	SetClient(cli)
	t.Cleanup(func() { _ = Close() })
	assert.NotNil(t, GetClient())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	assert.Error(t, Set(ctx, "k", "v", time.Second))
	_, err := Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, Del(ctx, "k"))
	_, err = SetNX(ctx, "k", "v", time.Second)
	assert.Error(t, err)
	assert.Error(t, pingClient(ctx, cli))
}
