// Package proxy issues metered requests to upstream providers and relays
// their responses without buffering.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yang-smith/worker/internal/domain"
)

const (
	DefaultReferer = "simple-test"
	DefaultTitle   = "simple-agent"
)

// ModelLookup resolves a model id to its catalog entry.
type ModelLookup interface {
	Lookup(modelID string) domain.ModelEntry
}

// TokenSource returns the bearer credential for a provider.
type TokenSource interface {
	Token(provider domain.Provider) (string, error)
}

// Target is a resolved upstream destination.
type Target struct {
	Model   domain.ModelEntry
	URL     string
	token   string
	headers http.Header
}

type Options struct {
	// Timeout bounds the wait for upstream response headers. The body of a
	// streamed response is not bounded.
	Timeout   time.Duration
	Referer   string
	Title     string
	Transport http.RoundTripper
}

type Forwarder struct {
	models ModelLookup
	tokens TokenSource
	client *http.Client
	opts   Options
	logger zerolog.Logger
}

func NewForwarder(models ModelLookup, tokens TokenSource, opts Options, logger zerolog.Logger) *Forwarder {
	if opts.Referer == "" {
		opts.Referer = DefaultReferer
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		// Compressed bodies are relayed as-is with their Content-Encoding.
		t.DisableCompression = true
		t.ResponseHeaderTimeout = opts.Timeout
		transport = t
	}
	return &Forwarder{
		models: models,
		tokens: tokens,
		client: &http.Client{Transport: transport},
		opts:   opts,
		logger: logger,
	}
}

// Resolve finds the endpoint and credential for modelID. Disabled or
// unknown models and missing credentials yield domain.ErrConfigFault, so
// callers can refuse before any money moves.
func (f *Forwarder) Resolve(modelID string) (Target, error) {
	entry := f.models.Lookup(modelID)
	if !entry.Enabled || strings.TrimSpace(entry.Endpoint) == "" {
		return Target{}, fmt.Errorf("%w: model %q has no enabled endpoint", domain.ErrConfigFault, modelID)
	}
	token, err := f.tokens.Token(entry.Provider)
	if err != nil {
		return Target{}, err
	}
	headers := http.Header{}
	if entry.Provider == domain.ProviderOpenRouter {
		headers.Set("HTTP-Referer", f.opts.Referer)
		headers.Set("X-Title", f.opts.Title)
	}
	return Target{Model: entry, URL: entry.Endpoint, token: token, headers: headers}, nil
}

// Forward sends body unmodified to target using the caller's method. The
// returned response body is open and must be closed by the caller.
func (f *Forwarder) Forward(ctx context.Context, target Target, method string, body []byte, acceptEncoding string) (*http.Response, error) {
	if target.URL == "" {
		return nil, fmt.Errorf("%w: empty upstream endpoint", domain.ErrConfigFault)
	}
	if method == "" {
		method = http.MethodPost
	}
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.URL, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrUpstreamFailure, err)
	}
	for k, vals := range target.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+target.token)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFailure, err)
	}
	f.logger.Debug().
		Str("model", target.Model.ID).
		Str("provider", string(target.Model.Provider)).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("upstream responded")
	return resp, nil
}

var hopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Proxy-Connection":    {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"Content-Length":      {},
}

// Relay copies resp to w chunk by chunk, flushing after each write, and
// closes resp.Body. extra headers are set after the upstream headers.
func Relay(w http.ResponseWriter, resp *http.Response, extra http.Header) (int64, error) {
	defer resp.Body.Close()

	dst := w.Header()
	for k, vals := range resp.Header {
		if _, hop := hopHeaders[http.CanonicalHeaderKey(k)]; hop {
			continue
		}
		for _, v := range vals {
			dst.Add(k, v)
		}
	}
	for k, vals := range extra {
		dst.Del(k)
		for _, v := range vals {
			dst.Add(k, v)
		}
	}

	rc := http.NewResponseController(w)
	// Long streams outlive the server write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return 0, err
	}
	w.WriteHeader(resp.StatusCode)
	_ = rc.Flush()

	var written int64
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			m, writeErr := w.Write(buf[:n])
			written += int64(m)
			if writeErr != nil {
				return written, writeErr
			}
			_ = rc.Flush()
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
