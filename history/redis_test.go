package history

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rs, err := NewRedisStore(RedisOptions{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rs.Close() })
	return rs
}

func TestRedisStoreMissingKey(t *testing.T) {
	rs := newRedisTestStore(t)
	records, err := rs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	rs := newRedisTestStore(t)
	ctx := context.Background()

	in := []Record{
		{
			ID:        "r1",
			TaskText:  "classify the ticket",
			Embedding: []float64{0.5, 0, 1},
			AgentID:   "classifier",
			Success:   true,
			Quality:   7.5,
			Timestamp: 1700000000,
		},
	}
	require.NoError(t, rs.Save(ctx, in))

	out, err := rs.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0], out[0])
}

func TestRedisStoreCorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("adaptive:history", "not json"))

	rs, err := NewRedisStore(RedisOptions{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer rs.Close()

	records, err := rs.Load(context.Background())
	require.NoError(t, err, "corrupt snapshot must not be fatal")
	assert.Empty(t, records)
}

func TestRedisStoreInvalidURL(t *testing.T) {
	_, err := NewRedisStore(RedisOptions{URL: "://bad"})
	assert.Error(t, err)
}

func TestStoreWithRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rs, err := NewRedisStore(RedisOptions{URL: "redis://" + mr.Addr(), Key: "test:history"})
	require.NoError(t, err)
	defer rs.Close()

	s1, err := New(rs, Options{AutoPersist: true})
	require.NoError(t, err)
	require.NoError(t, s1.Record(ctx, Record{
		AgentID:   "a",
		Embedding: []float64{1, 0},
		Success:   true,
		Quality:   8,
	}))

	s2, err := New(rs, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, s2.Len())
}
