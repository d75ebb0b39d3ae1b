package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/cozinhalabs/radar/pkg/log/ctxlogger"
	"github.com/cozinhalabs/radar/pkg/telemetry"
	"github.com/cozinhalabs/radar/pkg/telemetry/correlation"
)

const headerCorrelationID = "X-Correlation-ID"

// CorrelationMiddleware guarantees every request carries a correlation ID and
// echoes it back so clients can reference it in support requests.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := c.GetHeader(headerCorrelationID); incoming != "" {
			ctx = correlation.ContextWithCorrelationID(ctx, incoming)
		}
		ctx, cid := correlation.EnsureCorrelationID(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(headerCorrelationID, cid)
		c.Next()
	}
}

// TracingMiddleware opens a server span per request using the route template
// as the span name.
func TracingMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("radar/http")
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}

// RequestLogging emits one structured line per request after it completes.
func RequestLogging(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		ctxlogger.WithContext(c.Request.Context(), base).Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// UploadRateLimit throttles receipt uploads per client address. Limiter
// errors fail open so a redis outage never blocks uploads.
func (s *Server) UploadRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := s.uploadLimiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			ctxlogger.FromContext(c.Request.Context()).Warn("upload rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

// MetricsMiddleware records request counts and latency. A nil Metrics means
// metrics are disabled and the middleware is a passthrough.
func MetricsMiddleware(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		m.ObserveAPIRequest(
			c.Request.Method,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
