package mw

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"appliance-alarm-backend/internal/kv"
)

type cachedResponse struct {
	Status  int         `json:"status"`
	Headers http.Header `json:"headers"`
	Body    []byte      `json:"body"`
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache caches successful GET responses in store under prefix plus the
// request URI. Cache backend failures degrade to an uncached request.
func Cache(store kv.Store, prefix string, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := prefix + c.Request.RequestURI
		raw, err := store.Get(ctx, key)
		if err == nil {
			var cached cachedResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				for k, v := range cached.Headers {
					c.Writer.Header()[k] = v
				}
				c.Writer.WriteHeader(cached.Status)
				c.Writer.Write(cached.Body)
				c.Abort()
				return
			}
			logger.Warn("discarding unreadable cache entry", zap.String("key", key))
		} else if !errors.Is(err, kv.ErrMiss) {
			logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		}

		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() >= 200 && blw.Status() < 300 {
			encoded, err := json.Marshal(cachedResponse{
				Status:  blw.Status(),
				Headers: blw.Header().Clone(),
				Body:    blw.body.Bytes(),
			})
			if err != nil {
				return
			}
			if err := store.Set(ctx, key, encoded, ttl); err != nil {
				logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
}
