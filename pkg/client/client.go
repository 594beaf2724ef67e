package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/careflow/pkg/buildinfo"
	"github.com/matzehuels/careflow/pkg/cache"
	careerrors "github.com/matzehuels/careflow/pkg/errors"
	"github.com/matzehuels/careflow/pkg/observability"
	"github.com/matzehuels/careflow/pkg/retry"
)

const (
	// DefaultTimeout bounds a single attempt, not the whole retrying call.
	DefaultTimeout = 10 * time.Second

	// RequestIDHeader carries a fresh identifier on every attempt.
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes      = 10 << 20
	maxErrorBodyBytes = 512
)

// Config configures a [Client]. Only BaseURL is required.
type Config struct {
	BaseURL    string
	Timeout    time.Duration     // per attempt; defaults to DefaultTimeout
	Headers    map[string]string // sent with every request
	DefaultTTL time.Duration     // for reads that pass no TTL; defaults to the cache's
	Policy     retry.Policy      // zero value means retry.DefaultPolicy()

	HTTPClient *http.Client // overrides Timeout when set
	Cache      *cache.Store[[]byte]
	Hooks      observability.HTTPHooks
	CacheHooks observability.CacheHooks
	Clock      clockwork.Clock
	Logger     *log.Logger
}

// Client performs HTTP calls against one API with caching of reads,
// retries with backoff, and per-attempt reporting to hooks.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	http       *http.Client
	headers    map[string]string
	defaultTTL time.Duration
	policy     retry.Policy
	cache      *cache.Store[[]byte]
	hooks      observability.HTTPHooks
	cacheHooks observability.CacheHooks
	clock      clockwork.Clock
	logger     *log.Logger
	flight     singleflight.Group
}

// New creates a Client from cfg. It fails with INVALID_CONFIG if the base
// URL is missing or not absolute.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, careerrors.New(careerrors.ErrCodeInvalidConfig, "base URL %q must be an absolute http(s) URL", cfg.BaseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		http:       cfg.HTTPClient,
		headers:    cfg.Headers,
		defaultTTL: cfg.DefaultTTL,
		policy:     cfg.Policy,
		cache:      cfg.Cache,
		hooks:      cfg.Hooks,
		cacheHooks: cfg.CacheHooks,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.http == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.cache == nil {
		c.cache = cache.New[[]byte](cache.WithClock(c.clock))
	}
	if c.defaultTTL <= 0 {
		c.defaultTTL = c.cache.DefaultTTL()
	}
	if c.policy == (retry.Policy{}) {
		c.policy = retry.DefaultPolicy()
	}
	if c.hooks == nil {
		c.hooks = observability.NoopHTTPHooks{}
	}
	if c.cacheHooks == nil {
		c.cacheHooks = observability.NoopCacheHooks{}
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c, nil
}

// Cache returns the response cache, keyed by [cache.RequestKey].
func (c *Client) Cache() *cache.Store[[]byte] { return c.cache }

// Invalidate drops every cached response whose key matches re.
func (c *Client) Invalidate(re *regexp.Regexp) int {
	n := c.cache.DeleteByPattern(re)
	if n > 0 {
		c.logger.Debug("invalidated cache", "pattern", re.String(), "entries", n)
	}
	return n
}

// Get fetches path with query and decodes the JSON body into v.
//
// A live cached body is used unless refresh is set. Otherwise the request is
// sent with status-aware retries and a 2xx body is cached for ttl (or the
// default TTL when ttl <= 0) before decoding. Concurrent identical fetches
// share one network call. A final non-2xx response is returned as a
// *errors.StatusError.
func (c *Client) Get(ctx context.Context, path string, query url.Values, ttl time.Duration, refresh bool, v any) error {
	if err := careerrors.ValidatePath(path); err != nil {
		return err
	}
	key := cache.RequestKey(http.MethodGet, path, query)
	resource := resourceOf(path)

	if !refresh {
		if body, ok := c.cache.Get(key); ok {
			c.cacheHooks.OnCacheHit(ctx, resource)
			return decode(body, v, path)
		}
		c.cacheHooks.OnCacheMiss(ctx, resource)
	}

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	res, err, _ := c.flight.Do(key, func() (any, error) {
		resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
		if err != nil {
			return nil, err
		}
		if !retry.IsSuccess(resp.Status) {
			return nil, resp.statusError()
		}
		c.cache.SetTTL(key, resp.Body, ttl)
		c.cacheHooks.OnCacheSet(ctx, resource, len(resp.Body))
		return resp.Body, nil
	})
	if err != nil {
		return err
	}
	return decode(res.([]byte), v, path)
}

// Send performs a mutation (POST, PUT, PATCH, DELETE) with body encoded as
// JSON, decoding a non-empty response into v when v is non-nil.
//
// Only timeouts and unreachable networks are retried. Any response outside
// 2xx becomes a *errors.StatusError and is returned at once. After success
// every cached key matching one of invalidate is dropped.
func (c *Client) Send(ctx context.Context, method, path string, body, v any, invalidate ...*regexp.Regexp) error {
	if err := careerrors.ValidatePath(path); err != nil {
		return err
	}
	payload, err := encode(body)
	if err != nil {
		return err
	}

	resp, err := retry.WithRetry(ctx, func(ctx context.Context) (*Response, error) {
		resp, err := c.attempt(ctx, Request{Method: method, Path: path}, payload)
		if err != nil {
			return nil, err
		}
		if !retry.IsSuccess(resp.Status) {
			return nil, resp.statusError()
		}
		return resp, nil
	}, c.retryOptions()...)
	if err != nil {
		return err
	}

	for _, re := range invalidate {
		if re != nil {
			c.Invalidate(re)
		}
	}
	if v == nil || len(resp.Body) == 0 {
		return nil
	}
	return decode(resp.Body, v, path)
}

// Do sends req with status-aware retries and no caching. The final response
// is returned whatever its status; err is non-nil only when no response was
// received.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if err := careerrors.ValidatePath(req.Path); err != nil {
		return nil, err
	}
	payload, err := encode(req.Body)
	if err != nil {
		return nil, err
	}
	return retry.WithStatusCodeRetry(ctx, func(ctx context.Context) (*Response, error) {
		return c.attempt(ctx, req, payload)
	}, c.retryOptions()...)
}

func (c *Client) retryOptions() []retry.Option {
	return []retry.Option{
		retry.UsePolicy(c.policy),
		retry.UseClock(c.clock),
		retry.OnAttempt(c.logAttempt),
	}
}

func (c *Client) logAttempt(a retry.Attempt) {
	if a.NextDelay == 0 {
		return
	}
	c.logger.Warn("retrying",
		"attempt", a.Number,
		"reason", a.Classification.Reason,
		"delay", a.NextDelay,
	)
}

// attempt performs exactly one network round trip.
func (c *Client) attempt(ctx context.Context, req Request, payload []byte) (*Response, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, careerrors.Wrap(careerrors.ErrCodeInvalidInput, err, "build request %s %s", req.Method, req.Path)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", buildinfo.UserAgent())
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	for k, vs := range req.Header {
		httpReq.Header[k] = vs
	}
	httpReq.Header.Set(RequestIDHeader, requestID)

	c.hooks.OnRequest(ctx, req.Method, req.Path)
	start := c.clock.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		d := c.clock.Since(start)
		err = transportError(ctx, req.Method, req.Path, err)
		c.hooks.OnError(ctx, req.Method, req.Path, d, err)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	d := c.clock.Since(start)
	if err != nil {
		err = transportError(ctx, req.Method, req.Path, err)
		c.hooks.OnError(ctx, req.Method, req.Path, d, err)
		return nil, err
	}
	c.hooks.OnResponse(ctx, req.Method, req.Path, resp.StatusCode, d)

	return &Response{
		Status:    resp.StatusCode,
		Header:    resp.Header,
		Body:      data,
		Duration:  d,
		RequestID: requestID,
		method:    req.Method,
		path:      req.Path,
	}, nil
}

// transportError turns a failed round trip into a classified error.
// Cancellation by the caller is passed through so it is never retried.
func transportError(ctx context.Context, method, path string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return careerrors.Wrap(careerrors.ErrCodeTimeout, err, "%s %s timed out", method, path)
	}
	return careerrors.Wrap(careerrors.ErrCodeNetworkUnreachable, err, "%s %s failed", method, path)
}

func encode(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, careerrors.Wrap(careerrors.ErrCodeInvalidInput, err, "encode request body")
	}
	return data, nil
}

func decode(body []byte, v any, path string) error {
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return careerrors.Wrap(careerrors.ErrCodeDecode, err, "decode response from %s", path)
	}
	return nil
}

// resourceOf returns the first path segment, used as a low-cardinality label.
func resourceOf(path string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if seg == "" {
		return "root"
	}
	return seg
}
