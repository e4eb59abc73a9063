package wisefetch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shinnn/wise-fetch/internal/backoff"
	"github.com/shinnn/wise-fetch/internal/initcell"
)

// Client owns the infrastructure every instance chained off it shares: the
// lazily initialized fetch engine, the environment snapshot provider, the
// version gate, metrics and logging. It is safe for concurrent use.
type Client struct {
	engineCell *initcell.Cell[Engine]
	newEngine  func() (Engine, error)
	env        EnvFunc
	gate       VersionGate
	metrics    *MetricsCollector
	logger     zerolog.Logger
	requestID  func() string
	strategy   backoff.Strategy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// New constructs a Client. Without options it snapshots the real process
// environment, gates on the running npm version and lazily builds the
// default disk-caching engine on first use.
func New(options ...ClientOption) *Client {
	client := &Client{
		engineCell: &initcell.Cell[Engine]{},
		env:        SystemEnv,
		gate:       npmVersionGate,
		logger:     zerolog.Nop(),
		requestID:  uuid.NewString,
	}

	for _, option := range options {
		option(client)
	}

	if client.newEngine == nil {
		client.newEngine = func() (Engine, error) {
			return newCachingEngine(client.logger, client.strategy)
		}
	}
	return client
}

// WithEngine pins a prebuilt engine, skipping lazy construction of the
// default one. The version gate still runs on first use.
func WithEngine(engine Engine) ClientOption {
	return func(c *Client) {
		c.newEngine = func() (Engine, error) { return engine, nil }
	}
}

// WithEngineFactory defers engine construction to fn, memoized across the
// life of the Client.
func WithEngineFactory(fn func() (Engine, error)) ClientOption {
	return func(c *Client) {
		c.newEngine = fn
	}
}

// WithEnv replaces the environment snapshot provider. The provider is
// invoked once per request; see EnvFunc.
func WithEnv(fn EnvFunc) ClientOption {
	return func(c *Client) {
		c.env = fn
	}
}

// WithVersionGate replaces the npm version gate run at engine
// initialization.
func WithVersionGate(gate VersionGate) ClientOption {
	return func(c *Client) {
		c.gate = gate
	}
}

// WithMetrics enables Prometheus metrics collection on the default
// registerer.
func WithMetrics() ClientOption {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) ClientOption {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithLogger sets a structured logger for debug output.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBackoffStrategy sets the retry pacing of the default engine.
func WithBackoffStrategy(strategy backoff.Strategy) ClientOption {
	return func(c *Client) {
		c.strategy = strategy
	}
}

// Create builds a reusable fetch instance from base options. The supplied
// map is validated as base options and never mutated.
func (c *Client) Create(base Options) (*Fetcher, error) {
	return newFetcher(c, baseConfig{}, base)
}

// Request performs a request with no base options. url may be a string or a
// *url.URL; at most one options object is accepted.
func (c *Client) Request(ctx context.Context, url any, opts ...Options) (*Response, error) {
	root := &Fetcher{client: c}
	return root.Do(ctx, url, opts...)
}

// engine returns the memoized engine, initializing it on first use. The
// version gate runs inside the same one-shot cell, so concurrent first
// requests share one initialization and one gate check.
func (c *Client) engine(env Env) (Engine, error) {
	return c.engineCell.Get(func() (Engine, error) {
		if err := c.gate(env); err != nil {
			c.recordEngineInitFailure()
			return nil, err
		}
		engine, err := c.newEngine()
		if err != nil {
			c.recordEngineInitFailure()
		}
		return engine, err
	})
}

func (c *Client) recordValidationError(err error) {
	if c.metrics != nil {
		c.metrics.RecordValidationError(ErrorCode(err))
	}
}

func (c *Client) recordEngineInitFailure() {
	if c.metrics != nil {
		c.metrics.RecordEngineInitFailure()
	}
}

// Do performs a request with this instance's defaults merged under the
// per-call options. Exactly one or two logical arguments are accepted
// beyond the context: the URL, and at most one options object.
func (f *Fetcher) Do(ctx context.Context, url any, opts ...Options) (*Response, error) {
	if len(opts) > 1 {
		return nil, newOptionError(KindRange, "",
			"Expected 1 or 2 arguments (<url>[, <options>]), but got %d arguments.", 1+len(opts))
	}
	// A token already cancelled at call time fails before any validation
	// or dispatch work happens.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := f.client
	var call Options
	if len(opts) == 1 {
		call = opts[0]
	}

	rep := &report{}
	if err := validateOptions(rep, call, false, f.base.frozen); err != nil {
		c.recordValidationError(err)
		return nil, err
	}

	merged := mergeOptions(f.base.options, call)
	projectUserAgent(merged)
	for _, validate := range f.base.validators {
		if err := validate(merged); err != nil {
			rep.add(KindPlain, "%s", err.Error())
		}
	}
	if err := rep.err(); err != nil {
		c.recordValidationError(err)
		return nil, err
	}

	resolved, err := resolveRequestURL(url, baseURLOf(merged), f.base.urlModifier)
	if err != nil {
		c.recordValidationError(err)
		return nil, err
	}
	delete(merged, "baseUrl")

	env := c.env()
	applyProxyFallbacks(merged, env, resolved.Scheme)

	engine, err := c.engine(env)
	if err != nil {
		return nil, err
	}

	requestID := c.requestID()
	method := stringOpt(merged, "method", "GET")
	endpoint := resolved.Host + resolved.Path
	c.logger.Debug().
		Str("requestID", requestID).
		Str("method", method).
		Str("url", resolved.String()).
		Msg("dispatching request")

	if c.metrics != nil {
		c.metrics.RecordRequestStart(method, endpoint)
	}
	start := time.Now()

	resp, err := engine.Dispatch(ctx, resolved.String(), merged)

	duration := time.Since(start)
	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.RecordRequestEnd(method, endpoint)
		c.metrics.RecordRequest(method, endpoint, statusCode, duration)
	}
	if err != nil {
		// Engine errors are never wrapped or reinterpreted.
		c.logger.Debug().
			Str("requestID", requestID).
			Err(err).
			Msg("engine dispatch failed")
		return nil, err
	}

	if err := classifyResponse(resp, resolved.String(), merged); err != nil {
		if c.metrics != nil {
			c.metrics.RecordUnsuccessfulResponse(method, endpoint, statusCode)
		}
		c.logger.Debug().
			Str("requestID", requestID).
			Int("status", statusCode).
			Msg("response classified as unsuccessful")
		return nil, err
	}
	return resp, nil
}

// DefaultClient backs the package-level Request and Create entry points.
var DefaultClient = New()

// Request performs a request through the DefaultClient.
func Request(ctx context.Context, url any, opts ...Options) (*Response, error) {
	return DefaultClient.Request(ctx, url, opts...)
}

// Create builds a reusable fetch instance through the DefaultClient.
func Create(base Options) (*Fetcher, error) {
	return DefaultClient.Create(base)
}
