package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/cppla/board/config"
	"github.com/cppla/board/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	// 2 per minute gives a burst of one request
	r.GET("/login", RateLimitMiddleware(2), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/login", nil).Code)
	w := serve(r, http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "42901")

	other := http.Header{"X-Forwarded-For": []string{"10.1.2.3"}}
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/login", other).Code, "buckets are per client")
}

func TestRateLimitSweepsIdleBucketsPeriodically(t *testing.T) {
	l := &ipLimiters{
		buckets:   map[string]*rateLimiter{},
		limit:     rate.Every(time.Second),
		burst:     1,
		lastSweep: time.Now(),
	}
	stale := &rateLimiter{limiter: rate.NewLimiter(l.limit, l.burst), expires: time.Now().Add(-time.Second)}
	l.buckets["10.0.0.1"] = stale

	assert.True(t, l.allow("10.0.0.2"))
	assert.Contains(t, l.buckets, "10.0.0.1", "no sweep before the interval elapses")

	l.lastSweep = time.Now().Add(-2 * sweepInterval)
	assert.True(t, l.allow("10.0.0.3"))
	assert.NotContains(t, l.buckets, "10.0.0.1")
	assert.Contains(t, l.buckets, "10.0.0.2")
	assert.Contains(t, l.buckets, "10.0.0.3")
	assert.WithinDuration(t, time.Now(), l.lastSweep, time.Second)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) { seen = c.GetString(utils.RequestIDKey) })

	w := serve(r, http.MethodGet, "/", nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	w = serve(r, http.MethodGet, "/", http.Header{RequestIDHeader: []string{"abc-123"}})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

type fakeRecorder struct{ ids []uint }

func (f *fakeRecorder) RecordView(id uint) error {
	f.ids = append(f.ids, id)
	return nil
}

func TestPostViewRecorder(t *testing.T) {
	rec := &fakeRecorder{}
	r := gin.New()
	r.GET("/posts/:id", PostViewRecorder(rec), func(c *gin.Context) {
		if c.Param("id") == "404" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusOK)
	})

	serve(r, http.MethodGet, "/posts/7", nil)
	serve(r, http.MethodGet, "/posts/404", nil)
	serve(r, http.MethodGet, "/posts/abc", nil)
	assert.Equal(t, []uint{7}, rec.ids)
}

func TestAuthMiddlewares(t *testing.T) {
	config.Use(config.AppConfig{JWTSecret: "mw-secret"})
	token, err := utils.GenerateToken(5, "e@example.com", "eve", 0)
	require.NoError(t, err)
	bearer := http.Header{"Authorization": []string{"Bearer " + token}}

	r := gin.New()
	r.GET("/private", AuthRequired(), func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		require.True(t, ok)
		utils.Success(c, "ok", id)
	})
	r.GET("/optional", OptionalAuth(), func(c *gin.Context) {
		_, ok := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})

	w := serve(r, http.MethodGet, "/private", bearer)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"nickName":"eve"`)

	w = serve(r, http.MethodGet, "/private", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "40101")

	w = serve(r, http.MethodGet, "/private", http.Header{"Authorization": []string{"Bearer "}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/optional", nil)
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
	w = serve(r, http.MethodGet, "/optional", bearer)
	assert.JSONEq(t, `{"authenticated":true}`, w.Body.String())

	claims, err := utils.ParseToken(token)
	require.NoError(t, err)
	utils.BlacklistToken(claims.RegisteredClaims.ID, claims.ExpiresAt.Time)
	w = serve(r, http.MethodGet, "/private", bearer)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "40104")
}
