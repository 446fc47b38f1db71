package ndbc

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"
	"github.com/ngmaloney/buoy-terminal/internal/cache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultUserAgent = "buoy-terminal/1.0"

// DefaultAvailabilityTTL bounds how stale resolved listings get
const DefaultAvailabilityTTL = 10 * time.Minute

// Client fetches NDBC listings and data files
type Client struct {
	baseURL     string
	http        *resty.Client
	cache       cache.Store
	cacheTTL    time.Duration
	clock       clockwork.Clock
	concurrency int
	availTTL    time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at a mirror or test server
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithRetries sets how often failed requests and 5xx answers are retried
func WithRetries(n int) Option {
	return func(c *Client) { c.http.SetRetryCount(n) }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.http.SetHeader("User-Agent", ua)
		}
	}
}

// WithCache stores successful responses for ttl
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// WithAvailabilityTTL sets how long an NDBC facade reuses resolved
// availability. Zero or less keeps it until Refresh.
func WithAvailabilityTTL(d time.Duration) Option {
	return func(c *Client) { c.availTTL = d }
}

// WithClock sets the clock used to date current-month files
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithConcurrency bounds parallel requests of a single operation
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewClient creates an NDBC client
func NewClient(opts ...Option) *Client {
	h := resty.New().
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("User-Agent", defaultUserAgent).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		})

	c := &Client{
		baseURL:     DefaultBaseURL,
		http:        h,
		clock:       clockwork.NewRealClock(),
		concurrency: 4,
		availTTL:    DefaultAvailabilityTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the NDBC root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetText fetches url and returns the body. A 404 returns ErrNotFound.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	if c.cache != nil {
		text, ok, err := c.cache.Get(ctx, url)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("cache read failed")
		} else if ok {
			return text, nil
		}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", errors.Wrapf(err, "fetching %s", url)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", errors.Wrap(ErrNotFound, url)
	default:
		return "", errors.Errorf("NDBC returned status %d for %s", resp.StatusCode(), url)
	}

	text := string(resp.Body())
	if c.cache != nil {
		if err := c.cache.Set(ctx, url, text, c.cacheTTL); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("cache write failed")
		}
	}
	return text, nil
}

// listing fetches and parses a directory index
func (c *Client) listing(ctx context.Context, url string) ([]ListingEntry, error) {
	text, err := c.GetText(ctx, url)
	if err != nil {
		return nil, err
	}
	entries, err := ParseListing(strings.NewReader(text))
	if err != nil {
		return nil, errors.Wrap(err, url)
	}
	return entries, nil
}
