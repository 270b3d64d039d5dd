// Package statsapi is the HTTP client for the remote revenue statistics API.
package statsapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/blockedby/flight-stats/internal/stats"
)

// DefaultTimeout bounds a single report request.
const DefaultTimeout = 10 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config holds the configuration for the statistics client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables pacing
	Burst      int
	HTTPClient *http.Client
}

// Client fetches yearly reports from the statistics API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	log        *zerolog.Logger
}

// NewClient creates a client for the given base URL.
func NewClient(cfg Config, log *zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("stats api base url is empty")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse stats api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("stats api base url %q: scheme must be http or https", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		timeout:    timeout,
		limiter:    limiter,
		log:        log,
	}, nil
}

// Timeout returns the per-request budget.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// ReportURL returns the request URL for year.
func (c *Client) ReportURL(year int) string {
	u := *c.baseURL
	q := u.Query()
	q.Set("year", strconv.Itoa(year))
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchReport requests the report for year.
// Failures are returned as *FetchError, except when ctx itself is canceled,
// in which case the context error is returned wrapped.
func (c *Client) FetchReport(ctx context.Context, year int) (*stats.Report, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("fetch report: %w", ctx.Err())
			}
			return nil, &FetchError{Kind: KindGeneric, Err: fmt.Errorf("rate limit: %w", err)}
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.ReportURL(year)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindGeneric, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(ctx, reqCtx, KindConnectivity, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Int("year", year).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("stats api responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &FetchError{
			Kind:       KindHTTPStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint),
		}
	}

	var report stats.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, c.fail(ctx, reqCtx, KindGeneric, fmt.Errorf("decode report: %w", err))
	}

	return &report, nil
}

// fail classifies err. A canceled parent wins over everything, then an
// expired request budget, then the kind of the failing stage.
func (c *Client) fail(parent, reqCtx context.Context, kind Kind, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("fetch report: %w", parent.Err())
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) || isTimeout(err) {
		return &FetchError{Kind: KindTimeout, Timeout: c.timeout, Err: err}
	}
	return &FetchError{Kind: kind, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
