// Package httpfeed fetches status-page feeds over HTTP with conditional
// requests, retries and per-feed circuit breakers.
package httpfeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/statuswatch/statuswatch/internal/feed"
	"github.com/statuswatch/statuswatch/internal/provider/resilience"
)

// maxBodyBytes bounds how much of a feed is read. Status-page history feeds
// are typically well under 1 MiB.
const maxBodyBytes = 8 << 20

// Config holds configuration for the HTTP feed source.
type Config struct {
	// Client builds the resilient client for a feed URL.
	// If nil, DefaultClientConfig(url) is used with Registry and Logger applied.
	Client func(url string) *resilience.Client

	// Registry receives per-feed fetch outcomes (optional).
	Registry *resilience.Registry

	// RateLimit caps outbound requests per second across all feeds.
	// Zero disables limiting.
	RateLimit float64

	// Logger for fetch operations.
	Logger zerolog.Logger
}

// Source implements feed.Source over HTTP.
type Source struct {
	newClient func(url string) *resilience.Client
	registry  *resilience.Registry
	limiter   *rate.Limiter
	logger    zerolog.Logger

	mu      sync.Mutex
	clients map[string]*resilience.Client
}

var _ feed.Source = (*Source)(nil)

// New creates an HTTP feed source.
func New(cfg Config) *Source {
	s := &Source{
		newClient: cfg.Client,
		registry:  cfg.Registry,
		logger:    cfg.Logger,
		clients:   make(map[string]*resilience.Client),
	}
	if s.newClient == nil {
		s.newClient = func(url string) *resilience.Client {
			clientCfg := resilience.DefaultClientConfig(url)
			clientCfg.Registry = cfg.Registry
			clientCfg.Logger = cfg.Logger
			return resilience.NewClient(clientCfg)
		}
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return s
}

// Fetch performs a conditional GET of url. A 304 response yields a result
// with NotModified set and the previous validators.
func (s *Source) Fetch(ctx context.Context, url string, prev feed.Validators) (*feed.Result, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, &feed.FetchError{URL: url, Err: err}
		}
	}

	result, err := s.fetch(ctx, url, prev)
	if err != nil {
		if s.registry != nil {
			s.registry.RecordFailure(url, err)
		}
		s.logger.Debug().Err(err).Str("feed", url).Msg("feed fetch failed")
		return nil, err
	}

	if s.registry != nil {
		if result.NotModified {
			s.registry.RecordNotModified(url)
		} else {
			s.registry.RecordSuccess(url, len(result.Entries))
		}
	}
	return result, nil
}

func (s *Source) fetch(ctx context.Context, url string, prev feed.Validators) (*feed.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &feed.FetchError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8")
	if prev.ETag != "" {
		req.Header.Set("If-None-Match", prev.ETag)
	}
	if prev.LastModified != "" {
		req.Header.Set("If-Modified-Since", prev.LastModified)
	}

	resp, err := s.clientFor(url).Do(req)
	if err != nil {
		return nil, &feed.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &feed.Result{NotModified: true, Validators: prev}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &feed.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	entries, err := feed.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &feed.FetchError{URL: url, Err: err}
	}
	if undated := countUndated(entries); undated > 0 {
		s.logger.Warn().
			Str("feed", url).
			Int("entries", len(entries)).
			Int("undated", undated).
			Msg("feed entries without a usable publish time")
	}

	// Keep the previous validator when the server omits one.
	validators := prev
	if etag := resp.Header.Get("ETag"); etag != "" {
		validators.ETag = etag
	}
	if modified := resp.Header.Get("Last-Modified"); modified != "" {
		validators.LastModified = modified
	}

	return &feed.Result{Entries: entries, Validators: validators}, nil
}

func (s *Source) clientFor(url string) *resilience.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[url]
	if !ok {
		c = s.newClient(url)
		s.clients[url] = c
	}
	return c
}

func countUndated(entries []feed.Entry) int {
	n := 0
	for i := range entries {
		if entries[i].Published == nil {
			n++
		}
	}
	return n
}
