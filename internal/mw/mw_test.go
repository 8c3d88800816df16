package mw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"appliance-alarm-backend/internal/kv"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestCache_ServesSecondRequestFromStore(t *testing.T) {
	hits := 0
	r := gin.New()
	r.Use(Cache(kv.NewMemory(time.Minute), "test:", time.Minute, zap.NewNop()))
	r.GET("/items", func(c *gin.Context) {
		hits++
		c.Header("X-Upstream", "yes")
		c.JSON(http.StatusOK, gin.H{"hits": hits})
	})

	first := perform(r, http.MethodGet, "/items")
	second := perform(r, http.MethodGet, "/items")

	assert.Equal(t, 1, hits)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "yes", second.Header().Get("X-Upstream"))
}

func TestCache_SkipsErrorsAndNonGet(t *testing.T) {
	hits := 0
	store := kv.NewMemory(time.Minute)
	r := gin.New()
	r.Use(Cache(store, "test:", time.Minute, zap.NewNop()))
	r.GET("/fail", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusNotFound, gin.H{"error": "nope"})
	})
	r.POST("/items", func(c *gin.Context) {
		hits++
		c.Status(http.StatusCreated)
	})

	perform(r, http.MethodGet, "/fail")
	perform(r, http.MethodGet, "/fail")
	perform(r, http.MethodPost, "/items")
	perform(r, http.MethodPost, "/items")

	assert.Equal(t, 4, hits)
}

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (brokenKV) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (brokenKV) DeletePrefix(context.Context, string) error { return errors.New("down") }

func TestCache_BackendFailureFallsThrough(t *testing.T) {
	r := gin.New()
	r.Use(Cache(brokenKV{}, "test:", time.Minute, zap.NewNop()))
	r.GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "fresh") })

	w := perform(r, http.MethodGet, "/items")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fresh", w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(0.5, 2))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping").Code)

	w := perform(r, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many requests"}`, w.Body.String())
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	perform(r, http.MethodGet, "/ok")
	perform(r, http.MethodGet, "/boom")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zap.InfoLevel, entries[0].Level)
		assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
		assert.Equal(t, zap.ErrorLevel, entries[1].Level)
		assert.Equal(t, int64(500), entries[1].ContextMap()["status"])
	}
}
