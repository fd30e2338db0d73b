package redis

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestConnectNotConfigured(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	_, err := Connect(context.Background(), Config{})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestConnectByAddr(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	srv := mr.RunT(t)
	client, err := Connect(context.Background(), Config{Addr: srv.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	srv.CheckGet(t, "k", "v")
}

func TestConnectURLFromEnv(t *testing.T) {
	srv := mr.RunT(t)
	t.Setenv("REDIS_URL", "redis://"+srv.Addr()+"/0")
	client, err := Connect(context.Background(), Config{Addr: "ignored:1"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.Equal(t, srv.Addr(), client.Options().Addr)
}

func TestConnectGivesUp(t *testing.T) {
	srv := mr.RunT(t)
	addr := srv.Addr()
	srv.Close()

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	defer client.Close()
	err := connectWithRetry(context.Background(), client, addr, retryPolicy{
		total:       200 * time.Millisecond,
		initialWait: 20 * time.Millisecond,
		maxWait:     50 * time.Millisecond,
		pingTimeout: 50 * time.Millisecond,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), addr)
}

func TestConfigured(t *testing.T) {
	require.False(t, Config{}.Configured())
	require.True(t, Config{Addr: "localhost:6379"}.Configured())
	require.True(t, Config{URL: "redis://localhost"}.Configured())
}
