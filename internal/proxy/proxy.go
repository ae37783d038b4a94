// Package proxy implements the outbound request executor: it forwards GET and
// POST calls to downstream services, injects the shared downstream token,
// retries transient failures with bounded exponential backoff, and normalizes
// failures into the typed error taxonomy.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/zumatel/hlr-service-bff/internal/bfferrors"
	"github.com/zumatel/hlr-service-bff/internal/logger"
	"github.com/zumatel/hlr-service-bff/internal/metrics"
)

const (
	// defaultRequestTimeout is the per-attempt deadline when the caller does
	// not specify one.
	defaultRequestTimeout = 30 * time.Second

	// defaultRetries is the maximum number of attempts per logical call.
	defaultRetries = 3

	// retryInitialInterval and retryMaxInterval bound the backoff delays:
	// 1s, 2s, 4s, then capped at 5s.
	retryInitialInterval = 1 * time.Second
	retryMaxInterval     = 5 * time.Second

	// maxLoggedBodyBytes caps response bodies carried in error details.
	maxLoggedBodyBytes = 2048
)

// TokenSource provides a valid downstream token. Implemented by auth.Manager.
type TokenSource interface {
	GetValidToken() (string, error)
}

// Options configures one logical outbound call (including its retries).
// The zero value of SkipAuth means the token header is attached, and the zero
// value of PassThroughHTTPErrors means 4xx responses raise typed errors.
type Options struct {
	// URL is the target endpoint.
	URL string

	// Body is the optional request payload. json.RawMessage and []byte are
	// sent verbatim; anything else is JSON-encoded.
	Body any

	// Headers are extra headers merged over the defaults.
	Headers map[string]string

	// LogPrefix labels this call in logs and metrics.
	LogPrefix string

	// Timeout is the per-attempt deadline. Defaults to the executor's
	// configured timeout (30s unless overridden).
	Timeout time.Duration

	// Retries is the maximum number of attempts. Defaults to 3.
	Retries int

	// SkipAuth disables token header injection for this call.
	SkipAuth bool

	// PassThroughHTTPErrors returns 4xx response bodies as the call's result
	// instead of raising, letting callers treat downstream "not found"
	// envelopes as normal data. Timeouts and 5xx still raise.
	PassThroughHTTPErrors bool
}

// Proxy executes outbound calls against downstream services.
type Proxy struct {
	tokens         TokenSource
	httpClient     *http.Client
	defaultTimeout time.Duration

	// retryInterval is retryInitialInterval in production; shortened in tests.
	retryInterval time.Duration
}

// New creates an executor that authenticates via the given token source.
// defaultTimeout of zero falls back to 30 seconds.
func New(tokens TokenSource, defaultTimeout time.Duration) *Proxy {
	if defaultTimeout <= 0 {
		defaultTimeout = defaultRequestTimeout
	}
	return &Proxy{
		tokens:         tokens,
		httpClient:     &http.Client{},
		defaultTimeout: defaultTimeout,
		retryInterval:  retryInitialInterval,
	}
}

// Get performs a GET call to a downstream service.
func (p *Proxy) Get(ctx context.Context, opts Options) (json.RawMessage, error) {
	return p.execute(ctx, http.MethodGet, opts)
}

// Post performs a POST call to a downstream service.
func (p *Proxy) Post(ctx context.Context, opts Options) (json.RawMessage, error) {
	return p.execute(ctx, http.MethodPost, opts)
}

func (p *Proxy) execute(ctx context.Context, method string, opts Options) (json.RawMessage, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = p.defaultTimeout
	}
	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}
	if opts.LogPrefix == "" {
		opts.LogPrefix = "PROXY"
	}

	logger.Infof("[%s] %s %s", opts.LogPrefix, method, opts.URL)

	headers, err := p.buildHeaders(opts)
	if err != nil {
		return nil, err
	}

	var body []byte
	if opts.Body != nil {
		switch b := opts.Body.(type) {
		case json.RawMessage:
			body = b
		case []byte:
			body = b
		default:
			body, err = json.Marshal(opts.Body)
			if err != nil {
				return nil, bfferrors.Internal("failed to encode request body", nil).WithCause(err)
			}
		}
		logger.Debugf("[%s] request body: %s", opts.LogPrefix, sanitizeForLog(body))
	}

	start := time.Now()
	attempt := 0

	operation := func() (json.RawMessage, error) {
		attempt++
		return p.attempt(ctx, method, opts, headers, body)
	}

	notify := func(err error, delay time.Duration) {
		logger.Warnf("[%s] attempt %d/%d failed, retrying in %s: %v",
			opts.LogPrefix, attempt, opts.Retries, delay, err)
	}

	result, err := backoff.RetryNotifyWithData(
		operation,
		backoff.WithMaxRetries(p.newBackOff(), uint64(opts.Retries-1)),
		notify,
	)
	if err != nil {
		kind := bfferrors.KindOf(err)
		metrics.RecordOutbound(opts.LogPrefix, kind, time.Since(start))
		logger.Errorw("Outbound call failed",
			"prefix", opts.LogPrefix,
			"url", opts.URL,
			"kind", kind,
			"attempts", attempt,
			"error", err.Error())
		return nil, err
	}

	metrics.RecordOutbound(opts.LogPrefix, "success", time.Since(start))
	return result, nil
}

// attempt performs a single HTTP attempt. Retriable failures are returned as
// plain classified errors; terminal failures are wrapped in backoff.Permanent.
func (p *Proxy) attempt(ctx context.Context, method string, opts Options, headers http.Header, body []byte) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, opts.URL, reader)
	if err != nil {
		return nil, backoff.Permanent(
			bfferrors.Internal("failed to build request", map[string]any{"url": opts.URL}).WithCause(err))
	}
	req.Header = headers.Clone()

	resp, err := p.httpClient.Do(req)
	if err != nil {
		// Timeouts and network failures are retriable; whichever is left when
		// retries run out becomes the final classification.
		if isTimeoutError(err) {
			return nil, bfferrors.Timeout(
				fmt.Sprintf("timeout communicating with %s", opts.LogPrefix),
				map[string]any{"url": opts.URL, "timeout": opts.Timeout.String()},
			).WithCause(err)
		}
		return nil, bfferrors.Integration(
			fmt.Sprintf("connection error communicating with %s", opts.LogPrefix),
			map[string]any{"url": opts.URL, "error": err.Error()},
		).WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, bfferrors.Integration(
			fmt.Sprintf("failed to read response from %s", opts.LogPrefix),
			map[string]any{"url": opts.URL},
		).WithCause(err)
	}

	status := resp.StatusCode
	switch {
	case status < http.StatusBadRequest:
		logger.Infof("[%s] response status: %d", opts.LogPrefix, status)
		logger.Debugf("[%s] response body: %s", opts.LogPrefix, sanitizeForLog(data))
		return json.RawMessage(data), nil

	case status >= http.StatusInternalServerError:
		unavailable := bfferrors.ServiceUnavailable(
			fmt.Sprintf("%s temporarily unavailable", opts.LogPrefix),
			errorDetails(status, data, opts.URL))
		if status == http.StatusNotImplemented {
			// 501 is a permanent condition, not a transient outage.
			return nil, backoff.Permanent(unavailable)
		}
		return nil, unavailable

	default:
		logger.Warnf("[%s] HTTP %d error, url: %s", opts.LogPrefix, status, opts.URL)
		logger.Debugf("[%s] response body: %s", opts.LogPrefix, sanitizeForLog(data))

		if opts.PassThroughHTTPErrors && len(data) > 0 {
			logger.Debugf("[%s] returning HTTP %d response as data", opts.LogPrefix, status)
			return json.RawMessage(data), nil
		}

		return nil, backoff.Permanent(bfferrors.FromStatus(
			status,
			fmt.Sprintf("%s returned HTTP %d", opts.LogPrefix, status),
			errorDetails(status, data, opts.URL)))
	}
}

// buildHeaders assembles the outbound headers, injecting the downstream token
// when the call requires authentication. A token failure is a credential
// problem, not a transient blip, so it is never retried.
func (p *Proxy) buildHeaders(opts Options) (http.Header, error) {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	for key, value := range opts.Headers {
		headers.Set(key, value)
	}

	if !opts.SkipAuth {
		token, err := p.tokens.GetValidToken()
		if err != nil {
			logger.Errorw("Failed to acquire downstream token",
				"prefix", opts.LogPrefix,
				"error", err.Error())
			return nil, bfferrors.Unauthenticated("cannot authenticate with downstream service", nil).WithCause(err)
		}
		// The downstream contract uses a bare "token" header, not Authorization.
		headers.Set("token", token)
	}

	return headers, nil
}

// newBackOff builds the retry schedule: 1s, 2s, 4s, capped at 5s, with no
// jitter so the delay sequence is deterministic.
func (p *Proxy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.retryInterval
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func errorDetails(status int, body []byte, url string) map[string]any {
	truncated := body
	if len(truncated) > maxLoggedBodyBytes {
		truncated = truncated[:maxLoggedBodyBytes]
	}
	return map[string]any{
		"status": status,
		"body":   string(truncated),
		"url":    url,
	}
}
