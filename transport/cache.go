package transport

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
	"io"
	"net/http"
	"sync"
	"time"
)

// maxBufferedBody caps how much of a response body is buffered for caching
// or de-duplication.
const maxBufferedBody = 10 * 1024 * 1024

// InMemoryCache is a sharded, process-local Cache.
type InMemoryCache struct {
	shards []*cacheShard
}

type cacheShard struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
}

// NewInMemoryCache creates an empty in-memory cache.
func NewInMemoryCache() *InMemoryCache {
	shards := make([]*cacheShard, 16)
	for i := range shards {
		shards[i] = &cacheShard{store: make(map[string]*CacheEntry)}
	}
	return &InMemoryCache{shards: shards}
}

func (c *InMemoryCache) shard(key string) *cacheShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

// Get returns a live entry. Expired entries are evicted on read.
func (c *InMemoryCache) Get(_ context.Context, key string) (*CacheEntry, bool) {
	s := c.shard(key)
	s.mu.RLock()
	entry, ok := s.store[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		s.mu.Lock()
		if s.store[key] == entry {
			delete(s.store, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return entry, true
}

// Set stores entry for ttl.
func (c *InMemoryCache) Set(_ context.Context, key string, entry *CacheEntry, ttl time.Duration) {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ExpiresAt = time.Now().Add(ttl)
	s.store[key] = entry
}

// Delete removes a cache entry
func (c *InMemoryCache) Delete(_ context.Context, key string) {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.store, key)
}

// Clear removes all cache entries
func (c *InMemoryCache) Clear(_ context.Context) {
	for _, s := range c.shards {
		s.mu.Lock()
		s.store = make(map[string]*CacheEntry)
		s.mu.Unlock()
	}
}

// Len counts stored entries, expired ones included.
func (c *InMemoryCache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.store)
		s.mu.RUnlock()
	}
	return n
}

// newEntry buffers resp into a CacheEntry and closes the original body.
func newEntry(resp *http.Response) (*CacheEntry, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBufferedBody))
	if err != nil {
		return nil, err
	}

	return &CacheEntry{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

// Response rebuilds an *http.Response with its own body reader.
func (e *CacheEntry) Response(req *http.Request) *http.Response {
	status := e.Status
	if status == "" {
		status = http.StatusText(e.StatusCode)
	}
	return &http.Response{
		StatusCode:    e.StatusCode,
		Status:        status,
		Header:        e.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// requestBody returns the request payload without consuming it.
func requestBody(req *http.Request) []byte {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return nil
		}
		defer rc.Close()
		body, _ := io.ReadAll(rc)
		return body
	}

	body, _ := io.ReadAll(req.Body)
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return body
}

// DefaultCacheKeyFunc keys on method and URL plus a SHA-256 of the body, so
// two POSTs of the same order share an entry. Requests sent with different
// credentials or API versions never share one.
func DefaultCacheKeyFunc(req *http.Request) string {
	var buf []byte
	buf = append(buf, req.Method...)
	buf = append(buf, ':')
	if req.URL != nil {
		buf = append(buf, req.URL.String()...)
	}

	if body := requestBody(req); len(body) > 0 {
		sum := sha256.Sum256(body)
		buf = append(buf, ':')
		buf = append(buf, hex.EncodeToString(sum[:])...)
	}

	buf = append(buf, ':')
	buf = append(buf, identityDigest(req)...)
	return string(buf)
}

// identityHeaders select the response a server returns for the same
// request, and so partition cache and de-duplication keys.
var identityHeaders = []string{"Authorization", "X-Api-Version"}

// identityDigest hashes the identity headers of req. Raw credentials never
// appear in a key.
func identityDigest(req *http.Request) string {
	h := sha256.New()
	for _, name := range identityHeaders {
		h.Write([]byte(req.Header.Get(name)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// DefaultCacheCondition caches GET requests only.
func DefaultCacheCondition(req *http.Request) bool {
	return req.Method == http.MethodGet
}

// MethodCacheCondition caches requests whose method is one of methods.
func MethodCacheCondition(methods ...string) CacheCondition {
	allowed := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		allowed[m] = struct{}{}
	}
	return func(req *http.Request) bool {
		_, ok := allowed[req.Method]
		return ok
	}
}

func (c *Client) shouldCacheRequest(req *http.Request) bool {
	if c.cache == nil {
		return false
	}
	if cc, ok := req.Context().Value(CacheControlKey).(*CacheControl); ok {
		return cc.Enabled
	}
	return c.cacheCondition(req)
}

func (c *Client) cacheTTLForRequest(req *http.Request) time.Duration {
	if cc, ok := req.Context().Value(CacheControlKey).(*CacheControl); ok && cc.TTL > 0 {
		return cc.TTL
	}
	return c.cacheTTL
}

// WithContextCacheEnabled forces caching for requests carrying ctx.
func WithContextCacheEnabled(ctx context.Context) context.Context {
	return context.WithValue(ctx, CacheControlKey, &CacheControl{Enabled: true})
}

// WithContextCacheDisabled bypasses the cache for requests carrying ctx.
func WithContextCacheDisabled(ctx context.Context) context.Context {
	return context.WithValue(ctx, CacheControlKey, &CacheControl{Enabled: false})
}

// WithContextCacheTTL forces caching with a custom TTL.
func WithContextCacheTTL(ctx context.Context, ttl time.Duration) context.Context {
	return context.WithValue(ctx, CacheControlKey, &CacheControl{Enabled: true, TTL: ttl})
}
