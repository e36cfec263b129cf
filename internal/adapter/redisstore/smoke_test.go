//go:build redis

package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/listing-dupcheck/internal/catalog"
	"github.com/couchcryptid/listing-dupcheck/internal/domain"
)

// Run with: REDIS_URL=redis://localhost:6379/15 go test -tags redis ./internal/adapter/redisstore/
func TestSmoke_SaveLoad(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	store, err := New(ctx, url, time.Minute)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.CheckReadiness(ctx))

	captured := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Save(ctx, catalog.Stored{
		Entries:    []domain.CatalogEntry{{ID: "p-1", Name: "Marina Heights", Developer: "Emaar"}},
		CapturedAt: captured,
	}))

	st, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.True(t, captured.Equal(st.CapturedAt))
	require.Len(t, st.Entries, 1)
	assert.Equal(t, "Marina Heights", st.Entries[0].Name)

	require.NoError(t, store.client.Del(ctx, snapshotKey).Err())
	st, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, st)
}
