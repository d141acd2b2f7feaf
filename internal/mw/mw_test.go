package mw

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"sitebooks-backend/internal/auth"
	"sitebooks-backend/internal/logging"
	"sitebooks-backend/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func actorFromParam(c *gin.Context) {
	id := uint(1)
	if c.Param("user") == "2" {
		id = 2
	}
	auth.WithActor(c, auth.Actor{UserID: id, Role: model.RoleAdmin})
}

func TestCachePerUserAndFlush(t *testing.T) {
	rc := NewResponseCache(time.Minute)
	calls := 0
	r := gin.New()
	r.Use(FlushOnWrite(rc))
	r.GET("/report/:user", actorFromParam, Cache(rc), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.POST("/write", func(c *gin.Context) { c.Status(http.StatusCreated) })

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	first := get("/report/1")
	second := get("/report/1")
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)

	get("/report/2")
	assert.Equal(t, 2, calls, "other users do not share entries")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/write", nil))
	assert.Equal(t, 0, rc.ItemCount())

	get("/report/1")
	assert.Equal(t, 3, calls)
}

func TestCacheSkipsResponseReadBeforeAWrite(t *testing.T) {
	rc := NewResponseCache(time.Minute)
	var mu sync.Mutex
	value := "old"
	read, release := make(chan struct{}), make(chan struct{})
	var hold atomic.Bool
	hold.Store(true)

	r := gin.New()
	r.Use(FlushOnWrite(rc))
	r.GET("/report/:user", actorFromParam, Cache(rc), func(c *gin.Context) {
		mu.Lock()
		v := value
		mu.Unlock()
		if hold.CompareAndSwap(true, false) {
			close(read)
			<-release
		}
		c.JSON(http.StatusOK, gin.H{"v": v})
	})
	r.POST("/write", func(c *gin.Context) {
		mu.Lock()
		value = "new"
		mu.Unlock()
		c.Status(http.StatusCreated)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/report/1", nil))
	}()
	<-read

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/write", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	close(release)
	<-done
	assert.Equal(t, 0, rc.ItemCount())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/report/1", nil))
	assert.JSONEq(t, `{"v":"new"}`, w.Body.String())
	assert.Empty(t, w.Header().Get("X-Cache"))
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimiter(rate.Limit(0.001), 2), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(logging.Discard()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, w.Body.String(), 36)
}
