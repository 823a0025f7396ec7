package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewClampsNonPositiveWindow(t *testing.T) {
	cases := []struct {
		name   string
		window time.Duration
		want   time.Duration
	}{
		{"zero window", 0, time.Minute},
		{"negative window", -5 * time.Second, time.Minute},
		{"sub-second window", 500 * time.Millisecond, time.Minute},
		{"valid window", 30 * time.Second, 30 * time.Second},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := New(nil, 10, tc.window)
			assert.Equal(t, tc.want, r.window)
		})
	}
}

func TestAllowWithoutRedisIsNoOp(t *testing.T) {
	var r *RateLimiter
	assert.NoError(t, r.Allow(context.Background(), "ticket:any"))

	r = New(nil, 1, 0)
	for i := 0; i < 5; i++ {
		assert.NoError(t, r.Allow(context.Background(), "ticket:any"))
	}
}
