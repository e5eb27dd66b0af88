package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCached_ComputesOnce(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	calls := 0
	compute := func(ctx context.Context) (payload, error) {
		calls++
		return payload{Name: "first", Count: 7}, nil
	}

	value, hit, err := Cached(ctx, svc, "ns", "key", time.Minute, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, payload{Name: "first", Count: 7}, value)

	value, hit, err = Cached(ctx, svc, "ns", "key", time.Minute, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{Name: "first", Count: 7}, value)

	assert.Equal(t, 1, calls)
}

func TestCached_ComputeErrorNotStored(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	boom := errors.New("compute failed")
	calls := 0

	_, _, err := Cached(ctx, svc, "ns", "key", time.Minute, func(ctx context.Context) (payload, error) {
		calls++
		return payload{}, boom
	})
	require.ErrorIs(t, err, boom)

	// A later successful compute must run, nothing was cached
	value, hit, err := Cached(ctx, svc, "ns", "key", time.Minute, func(ctx context.Context) (payload, error) {
		calls++
		return payload{Name: "recovered"}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "recovered", value.Name)
	assert.Equal(t, 2, calls)
}

func TestCached_UndecodableEntryRecomputes(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	svc.Set(ctx, "ns", "key", []byte("not json"), time.Minute)

	value, hit, err := Cached(ctx, svc, "ns", "key", time.Minute, func(ctx context.Context) (payload, error) {
		return payload{Name: "fresh"}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fresh", value.Name)

	// The bad entry was replaced with the recomputed value
	_, hit, err = Cached(ctx, svc, "ns", "key", time.Minute, func(ctx context.Context) (payload, error) {
		t.Fatal("should not recompute")
		return payload{}, nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "doc:abc:style=formal", Key("doc", "abc", "style=formal"))

	// Option encoding is order independent
	a := EncodeOptions(map[string]interface{}{"style": "formal", "count": 5})
	b := EncodeOptions(map[string]interface{}{"count": 5, "style": "formal"})
	assert.Equal(t, a, b)

	assert.Equal(t, HashText("same"), HashText("same"))
	assert.NotEqual(t, HashText("same"), HashText("different"))
}
