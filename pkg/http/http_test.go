package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockPulse/pkg/http/middleware"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	g := e.Group("/api", mw...)
	g.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
	g.GET("/panic", func(c echo.Context) error { panic("boom") })
}

func serve(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServerRateLimitsHandlerRoutes(t *testing.T) {
	s := NewServer(pingHandler{}, WithRateLimit(2, 0.001))

	assert.Equal(t, http.StatusOK, serve(s, "/api/ping").Code)
	assert.Equal(t, http.StatusOK, serve(s, "/api/ping").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(s, "/api/ping").Code)
}

func TestServerRecoversPanics(t *testing.T) {
	s := NewServer(pingHandler{})
	assert.Equal(t, http.StatusInternalServerError, serve(s, "/api/panic").Code)
}

func TestServerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "demo_total", Help: "demo"})
	reg.MustRegister(c)
	c.Inc()

	s := NewServer(pingHandler{}, WithMetrics("/metrics", reg))
	rec := serve(s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "demo_total 1")
}

func TestLimiterRefills(t *testing.T) {
	now := time.Unix(0, 0)
	l := middleware.NewLimiter(1, 1)
	l.SetClock(func() time.Time { return now })

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))
}
