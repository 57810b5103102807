package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthieukhl/pocketpos/internal/logger"
	"github.com/matthieukhl/pocketpos/internal/metrics"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

const (
	requestIDHeader = "X-Request-ID"
	tenantKey       = "tenant"
)

// requestID tags each request with an id and a logger carrying it
func requestID(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Header(requestIDHeader, id)

		log := base.With(zap.String("request_id", id))
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), log))

		c.Next()
	}
}

func requestLogger(c *gin.Context) *zap.Logger {
	return logger.FromContext(c.Request.Context())
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		requestLogger(c).Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// metricsMiddleware records request counts and durations by route
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// tenantParam parses the :tenant path segment
func tenantParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := tenant.Parse(c.Param("tenant"))
		if err != nil || t == tenant.Unassigned {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid tenant"})
			return
		}
		c.Set(tenantKey, t)
		c.Next()
	}
}

func tenantOf(c *gin.Context) tenant.ID {
	return c.MustGet(tenantKey).(tenant.ID)
}
