package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/iliyamo/sigmmar-api/internal/config"
)

func newContext(method, target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestCacheKeyUsesConcretePath(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "path_query"}

	c1 := newContext(http.MethodGet, "/areas/1")
	c1.SetPath("/areas/:id")
	c2 := newContext(http.MethodGet, "/areas/2")
	c2.SetPath("/areas/:id")

	k1, k2 := cacheKeyFrom(cfg, c1), cacheKeyFrom(cfg, c2)
	if k1 == k2 {
		t.Fatalf("distinct ids share a cache key: %s", k1)
	}
	for _, k := range []string{k1, k2} {
		if !strings.HasPrefix(k, "cache:areas:") {
			t.Errorf("key %q is not scoped to its resource", k)
		}
	}

	q1 := cacheKeyFrom(cfg, newContext(http.MethodGet, "/areas?x=1"))
	q2 := cacheKeyFrom(cfg, newContext(http.MethodGet, "/areas?x=2"))
	if q1 == q2 {
		t.Error("path_query keys must depend on the query")
	}
	cfg.KeyStrategy = "path"
	if cacheKeyFrom(cfg, newContext(http.MethodGet, "/areas?x=1")) != cacheKeyFrom(cfg, newContext(http.MethodGet, "/areas?x=2")) {
		t.Error("path keys must ignore the query")
	}
}

func TestResourceOf(t *testing.T) {
	cases := map[string]string{
		"/areas":             "areas",
		"/areas/3/estado":    "areas",
		"/sub_areas/1":       "sub_areas",
		"/":                  "_root",
		"":                   "_root",
		"/mensajes/?debug=1": "mensajes",
	}
	for in, want := range cases {
		if got := resourceOf(in); got != want {
			t.Errorf("resourceOf(%q) = %q, want %q", in, got, want)
		}
	}
	if p := resourcePattern("cache", "areas"); p != "cache:areas:*" {
		t.Errorf("unexpected pattern %q", p)
	}
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 8}
	_, _ = cw.Write([]byte("12345"))
	if cw.overflow() || cw.buf.String() != "12345" {
		t.Fatalf("unexpected capture %q overflow=%v", cw.buf.String(), cw.overflow())
	}
	_, _ = cw.Write([]byte("6789"))
	if !cw.overflow() {
		t.Fatal("expected overflow once the limit is exceeded")
	}
	if rec.Body.String() != "123456789" {
		t.Fatalf("client must receive the full body, got %q", rec.Body.String())
	}
}

func TestMiddlewareWithoutRedisPassesThrough(t *testing.T) {
	e := echo.New()
	e.Use(NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil))
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))
	e.GET("/areas", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/areas", nil))
		if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "" {
			t.Fatalf("request %d: %d cache=%q", i, rec.Code, rec.Header().Get("X-Cache"))
		}
	}
}

func TestBuildRateKey(t *testing.T) {
	c := newContext(http.MethodPut, "/areas/4")
	c.SetPath("/areas/:id")
	c.Request().RemoteAddr = "10.0.0.7:5555"

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}
	if k := buildRateKey(cfg, c); k != "rl:ip:10.0.0.7:route:PUT /areas/:id" {
		t.Errorf("ip_route key %q", k)
	}
	cfg.KeyStrategy = "ip"
	if k := buildRateKey(cfg, c); k != "rl:ip:10.0.0.7" {
		t.Errorf("ip key %q", k)
	}
	cfg.KeyStrategy = "route"
	if k := buildRateKey(cfg, c); k != "rl:route:PUT /areas/:id" {
		t.Errorf("route key %q", k)
	}
}

func TestRateLimitHelpers(t *testing.T) {
	if asInt64(int64(3)) != 3 || asInt64("12") != 12 || asInt64(2.0) != 2 || asInt64(nil) != 0 {
		t.Error("asInt64 conversions")
	}
	if retryAfterSeconds(1) != 1 || retryAfterSeconds(1000) != 1 || retryAfterSeconds(1001) != 2 || retryAfterSeconds(-5) != 0 {
		t.Error("retryAfterSeconds rounding")
	}
}

func TestRequestLogger(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()
	log.SetLevel(log.InfoLevel)

	e := echo.New()
	e.Use(echomw.RequestID())
	e.Use(RequestLogger())
	e.GET("/areas", func(c echo.Context) error { return c.JSON(http.StatusOK, []int{}) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/areas?x=1", nil))

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("no log entry written")
	}
	if entry.Data["method"] != http.MethodGet || entry.Data["uri"] != "/areas?x=1" || entry.Data["status"] != http.StatusOK {
		t.Errorf("unexpected fields %v", entry.Data)
	}
	if entry.Data["request_id"] != rec.Header().Get(echo.HeaderXRequestID) {
		t.Errorf("request id %v does not match header %q", entry.Data["request_id"], rec.Header().Get(echo.HeaderXRequestID))
	}
}
