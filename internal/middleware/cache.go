package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack"

	"github.com/iliyamo/sigmmar-api/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 || cw.size+int64(len(b)) <= cw.limit {
		cw.buf.Write(b)
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// overflow reports whether the body outgrew the capture limit.
func (cw *captureWriter) overflow() bool {
	return cw.limit > 0 && cw.size > cw.limit
}

// cachedResponse is the msgpack payload stored per key.
type cachedResponse struct {
	Status int         `msgpack:"s"`
	Header http.Header `msgpack:"h"`
	Body   []byte      `msgpack:"b"`
}

// resourceOf returns the first segment of the request path ("areas" for
// /areas/3/estado).
func resourceOf(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "_root"
	}
	return path
}

// cacheKeyFrom builds <prefix>:<resource>:<sha1>.  The hash covers the
// concrete URL path, never the route pattern, so /areas/1 and /areas/2
// get distinct entries.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	path := r.URL.Path

	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "path":
		parts = []string{"path", path}
	case "method_path_query":
		parts = []string{"method", r.Method, "path", path, "q", r.URL.RawQuery}
	default: // "path_query"
		parts = []string{"path", path, "q", r.URL.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%s:%x", cfg.Prefix, resourceOf(path), sum[:])
}

// resourcePattern matches every cached entry of one resource.
func resourcePattern(prefix, resource string) string {
	return prefix + ":" + resource + ":*"
}

// generationKey counts the purges of a resource.  It sits outside
// resourcePattern so a purge never deletes it.
func generationKey(prefix, resource string) string {
	return prefix + "#gen:" + resource
}

// storeScript writes the entry only while the resource generation still
// equals the one read before the handler ran.
var storeScript = redis.NewScript(`
	local gen = redis.call('GET', KEYS[1]) or '0'
	if gen ~= ARGV[1] then
		return 0
	end
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
	return 1
`)

func generation(ctx context.Context, rdb *redis.Client, prefix, resource string) (string, error) {
	gen, err := rdb.Get(ctx, generationKey(prefix, resource)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

// purge bumps the resource generation, then deletes its cached entries.
// A GET that read the old generation can no longer store its response.
func purge(ctx context.Context, rdb *redis.Client, prefix, resource string) error {
	if err := rdb.Incr(ctx, generationKey(prefix, resource)).Err(); err != nil {
		return err
	}
	iter := rdb.Scan(ctx, 0, resourcePattern(prefix, resource), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// NewRedisCache stores 200 responses of the configured methods together
// with their headers, and purges a resource's entries after any successful
// request of another method touches that resource.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !cfg.Methods[strings.ToUpper(req.Method)] {
				err := next(c)
				if err == nil && c.Response().Status < http.StatusBadRequest {
					resource := resourceOf(req.URL.Path)
					pctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					perr := purge(pctx, rdb, cfg.Prefix, resource)
					cancel()
					if perr != nil {
						log.WithError(perr).WithField("resource", resource).Warn("cache purge failed")
					}
				}
				return err
			}

			ctx := req.Context()
			key := cacheKeyFrom(cfg, c)
			resource := resourceOf(req.URL.Path)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var hit cachedResponse
				if msgpack.Unmarshal(bs, &hit) == nil {
					for k, vals := range hit.Header {
						if strings.EqualFold(k, echo.HeaderContentLength) {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(hit.Status)
					if len(hit.Body) > 0 {
						_, _ = c.Response().Write(hit.Body)
					}
					return nil
				}
			}

			gen, err := generation(ctx, rdb, cfg.Prefix, resource)
			if err != nil {
				log.WithError(err).Debug("cache generation lookup failed")
				return next(c)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow() {
				return nil
			}

			hdr := make(http.Header, len(c.Response().Header()))
			for k, vals := range c.Response().Header() {
				if strings.EqualFold(k, "X-Cache") || strings.EqualFold(k, echo.HeaderXRequestID) {
					continue
				}
				hdr[k] = append([]string(nil), vals...)
			}
			payload, err := msgpack.Marshal(&cachedResponse{Status: cw.status, Header: hdr, Body: cw.buf.Bytes()})
			if err != nil {
				return nil
			}
			keys := []string{generationKey(cfg.Prefix, resource), key}
			if err := storeScript.Run(context.Background(), rdb, keys, gen, payload, ttl.Milliseconds()).Err(); err != nil {
				log.WithError(err).Debug("cache store failed")
			}
			return nil
		}
	}
}
