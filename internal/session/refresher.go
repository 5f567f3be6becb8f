// Package session keeps authenticated HTTP calls working across access-token expiry
// and tracks whether this device might still hold a valid session.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"labelshop/internal/logging"
)

// ErrNetwork matches failures where no HTTP response was received.
var ErrNetwork = errors.New("session: network error")

// NetworkError reports a request that produced no response.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type noRefreshKey struct{}

// WithoutRefresh marks ctx so a 401 is returned to the caller without a refresh attempt.
// Credential endpoints (login, register, logout) use it.
func WithoutRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRefreshKey{}, true)
}

func refreshDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(noRefreshKey{}).(bool)
	return v
}

type Option func(*Refresher)

func WithLogger(l *zap.Logger) Option {
	return func(r *Refresher) { r.logger = l }
}

// WithFlag sets the session flag after every successful refresh.
func WithFlag(f *Flag) Option {
	return func(r *Refresher) { r.flag = f }
}

// WithRefreshTimeout bounds the shared refresh call. Default 10s.
func WithRefreshTimeout(d time.Duration) Option {
	return func(r *Refresher) { r.refreshTimeout = d }
}

// Refresher wraps a Doer. A 401 on the first attempt triggers one call to the refresh
// endpoint and, if that succeeds, one resend of the original request. There is never
// more than one refresh per call. Concurrent callers share an in-flight refresh.
type Refresher struct {
	base           Doer
	refreshURL     string
	flag           *Flag
	logger         *zap.Logger
	refreshTimeout time.Duration
	group          singleflight.Group
}

func NewRefresher(base Doer, refreshURL string, opts ...Option) *Refresher {
	r := &Refresher{base: base, refreshURL: refreshURL, refreshTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrNop(r.logger).Named("session")
	return r
}

// Do sends req, refreshing credentials once on 401. When the refresh endpoint rejects
// the session the original 401 response is returned with its body intact. When the
// refresh gets no response the *NetworkError is returned instead, and when ctx ends
// while waiting for it ctx.Err() is returned. req itself is not sent; each attempt
// uses a clone so cookies from the jar are re-read per attempt.
func (r *Refresher) Do(req *http.Request) (*http.Response, error) {
	req, err := replayable(req)
	if err != nil {
		return nil, err
	}

	resp, err := r.attempt(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || !r.mayRefresh(req) {
		return resp, nil
	}

	unauthorized, err := buffered(resp)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	ok, err := r.refresh(req.Context())
	if err != nil {
		unauthorized.Body.Close()
		return nil, err
	}
	if !ok {
		return unauthorized, nil
	}
	return r.attempt(req)
}

func (r *Refresher) attempt(tmpl *http.Request) (*http.Response, error) {
	req, err := cloneRequest(tmpl)
	if err != nil {
		return nil, err
	}
	resp, err := r.base.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: tmpl.Method, URL: tmpl.URL.String(), Err: err}
	}
	return resp, nil
}

func (r *Refresher) mayRefresh(req *http.Request) bool {
	if refreshDisabled(req.Context()) {
		return false
	}
	return !sameEndpoint(req.URL, r.refreshURL)
}

// refresh reports whether the refresh endpoint answered 2xx. A non-2xx answer is
// (false, nil); a missing response or an ended ctx is an error. Waiters give up when
// their own ctx ends; the shared call keeps running for the others.
func (r *Refresher) refresh(ctx context.Context) (bool, error) {
	ch := r.group.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.refreshTimeout)
		defer cancel()
		return r.callRefresh(rctx)
	})
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			r.logger.Warn("token refresh failed", zap.Error(res.Err))
			return false, res.Err
		}
		ok, _ := res.Val.(bool)
		return ok, nil
	}
}

func (r *Refresher) callRefresh(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.refreshURL, http.NoBody)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := r.base.Do(req)
	if err != nil {
		return false, &NetworkError{Method: req.Method, URL: r.refreshURL, Err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.Info("token refresh rejected", zap.Int("status", resp.StatusCode))
		return false, nil
	}
	if r.flag != nil {
		r.flag.MarkLoggedIn(ctx)
	}
	r.logger.Debug("token refreshed")
	return true, nil
}

// replayable returns a request whose body can be produced more than once.
func replayable(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return req, nil
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("buffer request body: %w", err)
	}
	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(data))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	out.ContentLength = int64(len(data))
	return out, nil
}

func cloneRequest(tmpl *http.Request) (*http.Request, error) {
	req := tmpl.Clone(tmpl.Context())
	if tmpl.GetBody != nil {
		body, err := tmpl.GetBody()
		if err != nil {
			return nil, fmt.Errorf("replay request body: %w", err)
		}
		req.Body = body
	}
	return req, nil
}

// buffered drains resp.Body into memory so the response can be handed back after
// the connection is reused for the refresh call.
func buffered(resp *http.Response) (*http.Response, error) {
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

func sameEndpoint(u *url.URL, raw string) bool {
	ref, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Host == ref.Host && u.Path == ref.Path
}
