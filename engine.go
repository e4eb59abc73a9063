package wisefetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bartventer/httpcache"
	_ "github.com/bartventer/httpcache/store/fscache"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/http/httpproxy"

	"github.com/shinnn/wise-fetch/internal/backoff"
)

// Engine performs the actual network I/O and RFC-compliant response
// caching. wise-fetch only validates, merges and resolves options before
// handing a fully resolved descriptor to an Engine, and classifies what
// comes back. Errors returned by an Engine are passed through to the caller
// unwrapped.
type Engine interface {
	Dispatch(ctx context.Context, url string, opts Options) (*Response, error)
}

var (
	cacheDirOnce sync.Once
	cacheDirPath string
)

// CacheDir returns the fixed disk-cache directory handed to the default
// engine. It is not configurable; attempts to override it through the
// cacheManager option are rejected during validation.
func CacheDir() string {
	cacheDirOnce.Do(func() {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		cacheDirPath = filepath.Join(base, "wise-fetch")
	})
	return cacheDirPath
}

// cachingEngine is the default Engine: a retrying HTTP client over an
// RFC 9111 disk-caching transport rooted at CacheDir(). The shared upstream
// transport defaults to unlimited sockets per host.
type cachingEngine struct {
	upstream  *http.Transport
	transport http.RoundTripper
	backoff   retryablehttp.Backoff
	retryMax  int
	logger    zerolog.Logger
}

func newCachingEngine(logger zerolog.Logger, strategy backoff.Strategy) (Engine, error) {
	if err := os.MkdirAll(CacheDir(), 0o755); err != nil {
		return nil, fmt.Errorf("wisefetch: cannot create the disk cache directory %s: %w", CacheDir(), err)
	}

	upstream := http.DefaultTransport.(*http.Transport).Clone()
	upstream.MaxConnsPerHost = 0

	if strategy == nil {
		strategy = backoff.ExponentialJitter{Multiplier: 2.0, Jitter: 0.1}
	}

	return &cachingEngine{
		upstream: upstream,
		transport: httpcache.NewTransport(
			"fscache://"+CacheDir(),
			httpcache.WithUpstream(upstream),
		),
		backoff: func(min, max time.Duration, attempt int, _ *http.Response) time.Duration {
			return strategy.Delay(attempt, min, max)
		},
		retryMax: 2,
		logger:   logger,
	}, nil
}

// Dispatch implements Engine.
func (e *cachingEngine) Dispatch(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	method := strings.ToUpper(stringOpt(opts, "method", "GET"))

	var body io.Reader
	switch b := opts["body"].(type) {
	case nil:
	case string:
		body = strings.NewReader(b)
	case []byte:
		body = bytes.NewReader(b)
	case io.Reader:
		body = b
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	if h, ok := opts["headers"].(Headers); ok {
		for name, value := range h {
			req.Header.Set(name, value)
		}
	}
	switch stringOpt(opts, "cache", "default") {
	case "no-store":
		req.Header.Set("Cache-Control", "no-store")
	case "no-cache":
		req.Header.Set("Cache-Control", "no-cache")
	case "only-if-cached":
		req.Header.Set("Cache-Control", "only-if-cached")
	case "force-cache":
		req.Header.Set("Cache-Control", "max-stale")
	}

	httpClient := &http.Client{
		Transport:     e.transportFor(opts),
		CheckRedirect: redirectPolicy(opts),
	}
	if timeout, ok := intOpt(opts, "timeout"); ok && timeout > 0 {
		httpClient.Timeout = time.Duration(timeout) * time.Millisecond
	}

	client := &retryablehttp.Client{
		HTTPClient:   httpClient,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 10 * time.Second,
		RetryMax:     e.retryMax,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      e.backoff,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	var respBody io.ReadCloser = resp.Body
	if size, ok := intOpt(opts, "size"); ok && size > 0 {
		respBody = &sizeLimitedBody{rc: resp.Body, remaining: int64(size), limit: int64(size)}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		URL:        finalURL,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// transportFor returns the shared caching transport unless the call needs a
// per-call socket cap or proxy override, which require a private clone of
// the upstream transport. Such calls bypass the response cache; the socket
// and proxy semantics win over cachability.
func (e *cachingEngine) transportFor(opts Options) http.RoundTripper {
	maxSockets, capped := maxSocketsOf(opts)
	proxy := stringOpt(opts, "proxy", "")
	noProxy := stringOpt(opts, "noProxy", "")
	if !capped && proxy == "" && noProxy == "" {
		return e.transport
	}

	private := e.upstream.Clone()
	if capped {
		private.MaxConnsPerHost = maxSockets
	}
	if proxy != "" || noProxy != "" {
		cfg := httpproxy.Config{
			HTTPProxy:  proxy,
			HTTPSProxy: proxy,
			NoProxy:    noProxy,
		}
		proxyFunc := cfg.ProxyFunc()
		private.Proxy = func(req *http.Request) (*url.URL, error) {
			return proxyFunc(req.URL)
		}
	}
	e.logger.Debug().
		Bool("socketCap", capped).
		Str("proxy", proxy).
		Msg("using a private transport for this request")
	return private
}

// maxSocketsOf reports a finite per-call socket cap. Infinity means the
// default unlimited behavior and is not a cap.
func maxSocketsOf(opts Options) (int, bool) {
	v, ok := opts["maxSockets"]
	if !ok {
		return 0, false
	}
	f, ok := toFloat(v)
	if !ok || math.IsInf(f, 1) || f <= 0 {
		return 0, false
	}
	return int(f), true
}

func redirectPolicy(opts Options) func(*http.Request, []*http.Request) error {
	follow := 20
	if n, ok := intOpt(opts, "follow"); ok {
		follow = n
	}
	switch stringOpt(opts, "redirect", "follow") {
	case "manual":
		return func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	case "error":
		return func(req *http.Request, _ []*http.Request) error {
			return fmt.Errorf("wisefetch: redirect to %s rejected by the `redirect` option set to \"error\"", req.URL)
		}
	default:
		return func(req *http.Request, via []*http.Request) error {
			if len(via) > follow {
				return fmt.Errorf("wisefetch: maximum redirect count of %d reached at %s", follow, req.URL)
			}
			return nil
		}
	}
}

func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// sizeLimitedBody enforces the size option: reading past the limit fails
// instead of silently truncating, mirroring how fetch implementations treat
// an oversized body as an error.
type sizeLimitedBody struct {
	rc        io.ReadCloser
	remaining int64
	limit     int64
}

func (b *sizeLimitedBody) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		// Peek one byte to distinguish a body that ends exactly at the
		// limit from one that exceeds it.
		var probe [1]byte
		n, err := b.rc.Read(probe[:])
		if n > 0 {
			return 0, fmt.Errorf("wisefetch: content size exceeded the `size` option limit of %d bytes", b.limit)
		}
		return 0, err
	}
	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.rc.Read(p)
	b.remaining -= int64(n)
	return n, err
}

func (b *sizeLimitedBody) Close() error {
	return b.rc.Close()
}
