package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cozinhalabs/radar/internal/config"
)

func TestNewUploadLimiterWithoutRedis(t *testing.T) {
	limiter := NewUploadLimiter(nil, config.Config{UploadRatePerMinute: 10, UploadBurst: 5})
	assert.Nil(t, limiter)
}

func TestNilUploadLimiterAllowsEverything(t *testing.T) {
	var limiter *UploadLimiter

	res, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestBucketTTLCoversRefill(t *testing.T) {
	// 5 tokens at 1 token/s refill in 5s; the bucket should outlive that.
	assert.Equal(t, 10*time.Second, bucketTTL(1, 5))
	assert.GreaterOrEqual(t, bucketTTL(100, 1), time.Second)
}
