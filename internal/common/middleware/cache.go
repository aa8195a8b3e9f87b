package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"nfticket-backend/internal/common/logger"
	rplatform "nfticket-backend/internal/platform/redis"
)

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// RedisCache caches successful GET responses for ttl, keyed by full URL. A
// nil client disables caching.
func RedisCache(rdb *rplatform.Client, ttl time.Duration) gin.HandlerFunc {
	log := logger.Component("http_cache")
	return func(c *gin.Context) {
		if rdb == nil || c.Request.Method != "GET" {
			c.Next()
			return
		}

		key := "httpcache:" + c.Request.Method + ":" + c.Request.URL.RequestURI()
		if bs, err := rdb.Get(c.Request.Context(), key).Bytes(); err == nil && len(bs) > 0 {
			var entry cachedResponse
			if json.Unmarshal(bs, &entry) == nil {
				c.Header("X-Cache", "HIT")
				c.Data(entry.Status, entry.ContentType, entry.Body)
				c.Abort()
				return
			}
		}

		c.Header("X-Cache", "MISS")
		w := &bodyWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status < 200 || status >= 300 {
			return
		}
		entry := cachedResponse{Status: status, ContentType: w.Header().Get("Content-Type"), Body: w.buf.Bytes()}
		payload, err := json.Marshal(entry)
		if err != nil {
			return
		}
		if err := rdb.SetEx(context.WithoutCancel(c.Request.Context()), key, payload, ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to cache response")
		}
	}
}
