// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fetch is the HTTP client shared by the remote sources. Every
// request is bounded by a timeout, optionally rate limited and optionally
// served from a local cache. Failed requests are not retried.
package fetch

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 40 * time.Second

	// DefaultUserAgent identifies the client to remote services.
	DefaultUserAgent = "citymesh/1.0"
)

// ErrStatus is returned when a server answers with a non 2xx status.
var ErrStatus = eris.New("unexpected HTTP status")

// Cache stores response bodies by request key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Progress wraps a response body of the given size, -1 when unknown, to
// report download progress. The returned reader is closed instead of body.
type Progress func(body io.ReadCloser, size int64) io.ReadCloser

// Options configures a Client.
type Options struct {
	UserAgent string
	Timeout   time.Duration

	// Limiter throttles outgoing requests. Nil means unlimited.
	Limiter *rate.Limiter

	Cache    Cache
	Progress Progress

	// Transport overrides http.DefaultTransport.
	Transport http.RoundTripper
}

// Client performs GET and POST requests and returns whole response bodies.
type Client struct {
	http     *http.Client
	opts     Options
	limiter  *rate.Limiter
	cache    Cache
	progress Progress
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	return &Client{
		http:     &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		opts:     opts,
		limiter:  limiter,
		cache:    opts.Cache,
		progress: opts.Progress,
	}
}

// PerMinute returns a limiter allowing n requests per minute. A
// non-positive n disables limiting.
func PerMinute(n int) *rate.Limiter {
	if n <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
}

// Key identifies a request in the cache.
func Key(method, url string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(url))
	h.Write([]byte{0})
	h.Write(body)

	return hex.EncodeToString(h.Sum(nil))
}

// Get fetches url.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, "", nil)
}

// Post sends body to url.
func (c *Client) Post(ctx context.Context, url, contentType string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, url, contentType, body)
}

func (c *Client) do(ctx context.Context, method, url, contentType string, body []byte) ([]byte, error) {
	key := Key(method, url, body)

	if c.cache != nil {
		data, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("cache lookup failed", zap.String("url", url), zap.Error(err))
		} else if ok {
			zap.L().Debug("cache hit", zap.String("url", url), zap.Int("bytes", len(data)))
			return data, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "rate limiter wait")
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, eris.Wrapf(err, "creating request for %s", url)
	}

	req.Header.Set("User-Agent", c.opts.UserAgent)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "%s %s", method, url)
	}

	in := resp.Body
	if c.progress != nil {
		in = c.progress(resp.Body, resp.ContentLength)
	}
	defer in.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Wrapf(ErrStatus, "%s %s: %s", method, url, resp.Status)
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, eris.Wrapf(err, "reading response of %s", url)
	}

	zap.L().Info("fetched",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	if c.cache != nil {
		if err := c.cache.Put(ctx, key, data); err != nil {
			zap.L().Warn("cache store failed", zap.String("url", url), zap.Error(err))
		}
	}

	return data, nil
}
