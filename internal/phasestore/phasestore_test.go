package phasestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excellere/excellere/internal/phase"
)

func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.Delete(ctx, "u1", "c1"))

	_, err := st.Get(ctx, "u1", "c1")
	assert.ErrorIs(t, err, ErrNotFound)

	s, err := Load(ctx, st, "u1", "c1", now)
	require.NoError(t, err)
	assert.Equal(t, phase.Understand, s.Phase)
	assert.Equal(t, now, s.StartedAt)

	s.Phase = phase.Feedback
	s.OverallStrength = 90
	s.AnalysisOK = true
	require.NoError(t, st.Put(ctx, s))

	got, err := st.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, phase.Feedback, got.Phase)
	assert.Equal(t, 90, got.OverallStrength)
	assert.True(t, got.StartedAt.Equal(now))

	_, err = st.Get(ctx, "u2", "c1")
	assert.ErrorIs(t, err, ErrNotFound, "state is per learner")

	require.NoError(t, st.Delete(ctx, "u1", "c1"))
	_, err = st.Get(ctx, "u1", "c1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("EXCELLERE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("EXCELLERE_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	exerciseStore(t, NewRedis(client, time.Minute))
}
