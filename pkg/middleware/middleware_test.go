package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterExhaustsBurst(t *testing.T) {
	rl := NewRateLimiter(3, 0)

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d rejected within burst", i+1)
		}
	}
	if rl.Allow() {
		t.Error("request beyond burst must be rejected")
	}
}

func TestGinRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(GinRateLimitMiddleware(NewRateLimiter(1, 0)))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func() int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		return w.Code
	}

	if code := get(); code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", code)
	}
	if code := get(); code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", code)
	}
}
