// Package fetch is the rate-limited HTTP text source behind every scraper
// and feed collector.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	coreerrors "github.com/mpull123/thriftpulse/internal/core/errors"
	"github.com/mpull123/thriftpulse/internal/core/ports"
	"github.com/mpull123/thriftpulse/internal/platform/observability"
)

// ErrTooManyRedirects indicates too many HTTP redirects.
var ErrTooManyRedirects = errors.New("too many redirects")

const (
	defaultTimeout     = 20 * time.Second
	defaultRPS         = 2
	defaultBackoff     = 500 * time.Millisecond
	globalLimiterBurst = 5
	maxRedirects       = 5
	maxBodySizeBytes   = 5 * 1024 * 1024
	hostLimiterRate    = 1
	hostLimiterBurst   = 2

	// DefaultUserAgent mimics a desktop browser; marketplaces serve an
	// empty shell to obvious bots.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Config controls the fetcher.
type Config struct {
	RPS            float64
	Timeout        time.Duration
	Retries        int
	InitialBackoff time.Duration
	UserAgent      string
}

// Fetcher implements ports.TextSource over net/http.
type Fetcher struct {
	client        *http.Client
	globalLimiter *rate.Limiter
	hostLimiters  map[string]*rate.Limiter
	mu            sync.RWMutex
	cfg           Config
	logger        *zerolog.Logger
}

var _ ports.TextSource = (*Fetcher)(nil)

// New creates a fetcher.
func New(cfg Config, logger *zerolog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.RPS <= 0 {
		cfg.RPS = defaultRPS
	}

	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultBackoff
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return ErrTooManyRedirects
				}

				return nil
			},
		},
		globalLimiter: rate.NewLimiter(rate.Limit(cfg.RPS), globalLimiterBurst),
		hostLimiters:  make(map[string]*rate.Limiter),
		cfg:           cfg,
		logger:        logger,
	}
}

// Fetch GETs rawURL and returns the body as text. Transport failures, 429
// and 5xx are retried; other non-2xx statuses fail immediately with
// ErrHTTPStatus.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	host := extractHost(rawURL)

	var body []byte

	op := func() error {
		b, err := f.fetchOnce(ctx, rawURL, host)
		if err != nil {
			return err
		}

		body = b

		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.cfg.InitialBackoff
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.cfg.Retries)), ctx)

	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		f.logger.Debug().Err(err).Str("host", host).Dur("wait", wait).Msg("retrying fetch")
	})
	if err != nil {
		return "", err
	}

	return string(body), nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL, host string) ([]byte, error) {
	if err := f.globalLimiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("global rate limiter wait: %w", err))
	}

	if err := f.hostLimiter(host).Wait(ctx); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("host rate limiter wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/rss+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		observability.FetchRequests.WithLabelValues(host, "error").Inc()
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	observability.FetchRequests.WithLabelValues(host, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := fmt.Errorf("%w: %d", coreerrors.ErrHTTPStatus, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, statusErr
		}

		return nil, backoff.Permanent(statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}

func (f *Fetcher) hostLimiter(host string) *rate.Limiter {
	f.mu.RLock()
	limiter, exists := f.hostLimiters[host]
	f.mu.RUnlock()

	if exists {
		return limiter
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if limiter, exists := f.hostLimiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(hostLimiterRate, hostLimiterBurst)
	f.hostLimiters[host] = limiter

	return limiter
}

func extractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Host)
}
