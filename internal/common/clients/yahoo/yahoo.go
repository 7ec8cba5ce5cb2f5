// Package yahoo fetches daily bars from the Yahoo Finance chart API.
// Every call goes to the provider: there is no caching and no retrying.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leonid6372/paper-trading/internal/common/domain"
	"github.com/leonid6372/paper-trading/internal/tradeerrs"
	"github.com/leonid6372/paper-trading/pkg/log"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	providerName = "yahoo"

	errCodeNotFound = "Not Found"

	maxBodySize = 1 << 20
)

var _ domain.QuoteProvider = (*Client)(nil)

type ClientConfig struct {
	BaseURL   string
	UserAgent string

	// Timeout bounds a single quote lookup, including the rate limiter wait.
	Timeout time.Duration

	// RateLimitPerMin caps outgoing requests; zero disables the limiter.
	RateLimitPerMin int

	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("yahoo: base URL is required")
	}

	if cfg.Timeout <= 0 {
		return nil, errors.New("yahoo: timeout must be positive")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimitPerMin > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMin)/60.0), 1)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		limiter:    limiter,
	}, nil
}

func (c *Client) Name() string {
	return providerName
}

// GetLatestQuote returns the most recent daily bar of ticker. Lookup is case-insensitive
// and ignores surrounding whitespace; the returned ticker is upper-cased.
func (c *Client) GetLatestQuote(ctx context.Context, ticker string) (*domain.Quote, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, tradeerrs.ErrQuoteNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.providerError(fmt.Errorf("rate limiter: %w", err))
	}

	res, status, err := c.getChart(ctx, ticker)
	if err != nil {
		return nil, c.providerError(err)
	}

	if res.Chart.Error != nil {
		if res.Chart.Error.Code == errCodeNotFound {
			return nil, tradeerrs.ErrQuoteNotFound
		}

		return nil, c.providerError(fmt.Errorf("%s: %s", res.Chart.Error.Code, res.Chart.Error.Description))
	}

	if status == http.StatusNotFound {
		return nil, tradeerrs.ErrQuoteNotFound
	}

	if status != http.StatusOK {
		return nil, c.providerError(fmt.Errorf("unexpected status %d", status))
	}

	if len(res.Chart.Result) == 0 || len(res.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, tradeerrs.ErrQuoteNotFound
	}

	quote := &res.Chart.Result[0].Indicators.Quote[0]
	i := quote.lastBar()
	if i < 0 {
		log.Debug("no complete bar in chart", zap.String("ticker", ticker))
		return nil, tradeerrs.ErrQuoteNotFound
	}

	return quote.CreateDomain(ticker, i), nil
}

// getChart performs the request. A non-2xx answer is not an error as long as
// its body decodes: Yahoo reports unknown symbols as a 404 with a chart error.
func (c *Client) getChart(ctx context.Context, ticker string) (*chartResponse, int, error) {
	params := url.Values{
		"range":    {"1d"},
		"interval": {"1d"},
	}
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resp.StatusCode, errors.New("rate limited (HTTP 429)")
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, resp.StatusCode, fmt.Errorf("server error (HTTP %d)", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", err)
	}

	res := &chartResponse{}
	if err := json.Unmarshal(body, res); err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return res, resp.StatusCode, nil
		}

		return nil, resp.StatusCode, fmt.Errorf("parsing response (HTTP %d): %w", resp.StatusCode, err)
	}

	return res, resp.StatusCode, nil
}

func (c *Client) providerError(err error) error {
	return &tradeerrs.ProviderError{Provider: providerName, Err: err}
}
