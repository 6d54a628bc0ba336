package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		burst    int
		calls    int
		wantPass int
	}{
		{"burst allows initial requests", 3, 3, 3},
		{"exceeding burst blocks", 2, 5, 2},
		{"single token", 1, 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(0.001, tt.burst)
			defer l.Stop()

			passed := 0
			for range tt.calls {
				if l.Allow("client") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestLimiter_KeysIndependent(t *testing.T) {
	l := New(0.001, 1)
	defer l.Stop()

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
	assert.Equal(t, 2, l.Len())
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := New(0.001, 1)
	defer l.Stop()

	require.NoError(t, l.Wait(context.Background(), "host"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "host"))
}

func TestLimiter_SweepDropsIdle(t *testing.T) {
	l := New(1, 1)
	defer l.Stop()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(DefaultIdle / 2)
	l.Allow("fresh")
	now = now.Add(DefaultIdle/2 + time.Second)

	l.sweep()

	assert.Equal(t, 1, l.Len())
	_, ok := l.buckets["fresh"]
	assert.True(t, ok)
}

func TestLimiter_StopTwice(t *testing.T) {
	l := New(1, 1)
	l.Stop()
	l.Stop()
}
