package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/cozinhalabs/radar/internal/config"
)

const keyUploadClient = "radar:ratelimit:upload:%s"

// UploadLimiter throttles receipt uploads per client. A nil limiter means
// redis is absent and uploads are unthrottled.
type UploadLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewUploadLimiter(client *redis.Client, cfg config.Config) *UploadLimiter {
	if client == nil {
		return nil
	}
	if cfg.UploadRatePerMinute <= 0 || cfg.UploadBurst <= 0 {
		return nil
	}
	return &UploadLimiter{
		bucket: NewTokenBucket(client),
		rate:   float64(cfg.UploadRatePerMinute) / 60,
		burst:  cfg.UploadBurst,
	}
}

// Allow consumes one upload slot for the given client key, usually its
// remote address.
func (l *UploadLimiter) Allow(ctx context.Context, clientKey string) (*Result, error) {
	if l == nil {
		return &Result{Allowed: true}, nil
	}

	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = "unknown"
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyUploadClient, clientKey), l.rate, l.burst)
}
