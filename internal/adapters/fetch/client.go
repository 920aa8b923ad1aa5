// Package fetch performs provider HTTP requests and caches raw payloads.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	freecache "github.com/coocood/freecache"
	gocache "github.com/eko/gocache/lib/v4/cache"
	libstore "github.com/eko/gocache/lib/v4/store"
	gocachefreecache "github.com/eko/gocache/store/freecache/v4"
	"github.com/golang/snappy"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey-austin/songtag/pkg/songtag"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultCacheTTL  = 10 * time.Minute
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
	maxPayloadBytes  = 8 << 20
	maxDownloadBytes = 16 << 20
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	Timeout       time.Duration
	CacheSize     int
	CacheTTL      time.Duration
	CacheCompress bool
	UserAgent     string
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client fetches provider payloads. It implements ports.Fetcher and ports.Downloader.
type Client struct {
	http     *http.Client
	cache    gocache.CacheInterface[[]byte]
	cacheCtx context.Context
	log      *zap.Logger
	opts     Options
	kugouMID string
}

// NewClient builds a Client. A negative CacheSize disables caching.
func NewClient(log *zap.Logger, opts Options) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		http:     httpClient,
		cache:    newCache(opts.CacheSize),
		cacheCtx: context.Background(),
		log:      log,
		opts:     opts,
		kugouMID: strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
}

// Fetch returns the body of a GET request to endpoint, served from cache when
// a fresh copy exists. Responses with status >= 400 are errors and never cached.
func (c *Client) Fetch(ctx context.Context, provider songtag.Provider, endpoint string) ([]byte, error) {
	if cached, ok := c.cacheGet(endpoint); ok {
		c.log.Debug("fetch cache hit", zap.String("provider", provider.String()), zap.String("url", endpoint))
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.decorate(req, provider)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s error: %s", provider, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", provider, err)
	}
	c.log.Debug("fetch",
		zap.String("provider", provider.String()),
		zap.String("url", endpoint),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	c.cachePut(endpoint, body)
	return body, nil
}

// Download fetches a binary resource and reports its MIME type.
func (c *Client) Download(ctx context.Context, resource string) ([]byte, string, error) {
	if strings.TrimSpace(resource) == "" {
		return nil, "", fmt.Errorf("download: empty url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resource, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("download error: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, "", fmt.Errorf("download read: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return data, mime, nil
}

func (c *Client) decorate(req *http.Request, provider songtag.Provider) {
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	switch provider {
	case songtag.Kugou:
		req.Header.Set("Cookie", "kg_mid="+c.kugouMID)
	case songtag.Netease:
		req.Header.Set("Referer", "https://music.163.com/")
	case songtag.Kuwo:
		req.Header.Set("Referer", "http://www.kuwo.cn/")
		req.Header.Set("Cookie", "kw_token="+kuwoToken)
		req.Header.Set("csrf", kuwoToken)
	}
}

func (c *Client) cacheGet(key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	value, err := c.cache.Get(c.cacheCtx, key)
	if err != nil {
		return nil, false
	}
	if !c.opts.CacheCompress {
		return value, true
	}
	decoded, err := snappy.Decode(nil, value)
	if err != nil {
		c.log.Debug("fetch cache decode failed", zap.Error(err))
		return nil, false
	}
	return decoded, true
}

func (c *Client) cachePut(key string, payload []byte) {
	if c.cache == nil || len(payload) == 0 {
		return
	}
	value := payload
	if c.opts.CacheCompress {
		value = snappy.Encode(nil, payload)
	}
	if err := c.cache.Set(c.cacheCtx, key, value, libstore.WithExpiration(c.opts.CacheTTL)); err != nil {
		c.log.Debug("fetch cache store failed", zap.String("url", key), zap.Error(err))
	}
}

// cacheSizeBytes reads small values as a count of 64KiB blocks.
func cacheSizeBytes(size int) int {
	if size == 0 {
		return 32 * 1024 * 1024
	}
	if size > 0 && size < 1024*1024 {
		return size * 64 * 1024
	}
	return size
}

func newCache(size int) gocache.CacheInterface[[]byte] {
	size = cacheSizeBytes(size)
	if size <= 0 {
		return nil
	}
	store := gocachefreecache.NewFreecache(freecache.NewCache(size))
	return gocache.New[[]byte](store)
}
