// Package probe checks that a target URL answers before it is shortened.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultMaxRedirects = 10
)

// ErrUnreachable is returned when the target could not be fetched.
var ErrUnreachable = errors.New("target not reachable")

// StatusError reports a target that answered with something other than 200.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("target answered with status %d", e.Code)
}

func (e *StatusError) Unwrap() error { return ErrUnreachable }

// Prober checks a target URL once. Implementations must honour ctx.
type Prober interface {
	Check(ctx context.Context, targetURL string) error
}

// HTTPProber issues a single GET, following redirects across hosts and
// schemes, bounded by a timeout.
type HTTPProber struct {
	client       *fasthttp.Client
	timeout      time.Duration
	maxRedirects int
	userAgent    string
}

// NewHTTPProber applies the defaults for zero values.
func NewHTTPProber(timeout time.Duration, maxRedirects int) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	return &HTTPProber{
		client: &fasthttp.Client{
			ReadTimeout:        timeout,
			WriteTimeout:       timeout,
			MaxConnWaitTimeout: timeout,
		},
		timeout:      timeout,
		maxRedirects: maxRedirects,
		userAgent:    "shortkey-probe/1.0",
	}
}

func (p *HTTPProber) Check(ctx context.Context, targetURL string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// fasthttp has no context support; the select bounds the whole redirect
	// chain while the client timeouts bound each hop.
	done := make(chan error, 1)
	go func() { done <- p.get(targetURL) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrUnreachable, ctx.Err())
	}
}

func (p *HTTPProber) get(targetURL string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(targetURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(p.userAgent)

	if err := p.client.DoRedirects(req, resp, p.maxRedirects); err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return &StatusError{Code: code}
	}
	return nil
}

// Func adapts a plain function to Prober.
type Func func(ctx context.Context, targetURL string) error

func (f Func) Check(ctx context.Context, targetURL string) error {
	return f(ctx, targetURL)
}
