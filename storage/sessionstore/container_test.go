//go:build container

package sessionstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/session"
	"github.com/trezcool/shule/storage/database"
	"github.com/trezcool/shule/tests"
)

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(ctx, testutil.StartRedis(t))
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	testStore(t, NewRedisStore(client, "a"))

	require.NoError(t, NewRedisStore(client, "a").Set(ctx, session.StorageKey, "from-a"))
	_, err = NewRedisStore(client, "b").Get(ctx, session.StorageKey)
	assert.Equal(t, session.ErrNoEntry, err)

	val, err := client.Get(ctx, "shule:portal:a:user").Result()
	require.NoError(t, err)
	assert.Equal(t, "from-a", val)
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	conf := testutil.StartPostgres(t)
	require.NoError(t, database.CreateIfNotExist(ctx, conf))
	require.NoError(t, database.Migrate(conf))

	db, err := database.Open(ctx, conf)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	testStore(t, NewPostgresStore(db, "a"))

	require.NoError(t, NewPostgresStore(db, "a").Set(ctx, session.StorageKey, "from-a"))
	_, err = NewPostgresStore(db, "b").Get(ctx, session.StorageKey)
	assert.Equal(t, session.ErrNoEntry, err)
}
