//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestDebouncer_MarkerExpires(t *testing.T) {
	ctx := context.Background()
	d := NewDebouncer(newTestClient(t))

	recent, err := d.Recent(ctx, "followupboss", "42")
	require.NoError(t, err)
	require.False(t, recent)

	require.NoError(t, d.Mark(ctx, "followupboss", "42", 300*time.Millisecond))

	recent, err = d.Recent(ctx, "followupboss", "42")
	require.NoError(t, err)
	require.True(t, recent)

	other, err := d.Recent(ctx, "followupboss", "43")
	require.NoError(t, err)
	require.False(t, other)

	require.Eventually(t, func() bool {
		recent, err := d.Recent(ctx, "followupboss", "42")
		return err == nil && !recent
	}, 3*time.Second, 50*time.Millisecond)
}

func TestClaimsStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewClaimsStore(newTestClient(t))

	missing, err := s.Get(ctx, "42")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, s.Put(ctx, "42", map[string]any{"sub": "42", "email": "jane@example.com"}))

	got, err := s.Get(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", got["email"])

	require.NoError(t, s.Delete(ctx, "42"))
	got, err = s.Get(ctx, "42")
	require.NoError(t, err)
	require.Nil(t, got)
}
