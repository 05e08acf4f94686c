package infra

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSkipsEmptyURLs(t *testing.T) {
	pool, err := OpenPostgres(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, pool)

	client, err := OpenRedis(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := OpenRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
}

func TestOpenRejectsBadURLs(t *testing.T) {
	_, err := OpenRedis(context.Background(), "not-a-url")
	assert.Error(t, err)

	_, err = OpenPostgres(context.Background(), "postgres://%zz")
	assert.Error(t, err)
}
