// Package quotes fetches market snapshots from an AlphaVantage-compatible
// provider. The free tier allows a handful of requests per minute, so every
// call goes through a shared rate limiter before it hits the wire.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
	now        func() time.Time
}

type Options struct {
	Timeout            time.Duration
	RequestsPerMinute  int
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, apiKey string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	perMinute := options.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 5
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		executor:   options.ResilienceExecutor,
		now:        time.Now,
	}
}

// globalQuote mirrors the provider's numbered-key payload. Values arrive as
// strings and are parsed leniently: a malformed field zeroes out, it does
// not fail the whole quote.
type globalQuote struct {
	Symbol        string `json:"01. symbol"`
	Price         string `json:"05. price"`
	Volume        string `json:"06. volume"`
	LatestTrading string `json:"07. latest trading day"`
	Change        string `json:"09. change"`
}

type quoteEnvelope struct {
	GlobalQuote *globalQuote `json:"Global Quote"`
	Note        string       `json:"Note"`
	Information string       `json:"Information"`
}

// Quote returns the latest snapshot for ticker. It never blocks longer than
// the context allows: if the limiter cannot grant a slot in time the call
// fails as rate limited instead of queueing behind other lookups.
func (c *Client) Quote(ctx context.Context, ticker string) (*domain.Quote, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return nil, domain.WrapError(domain.ErrUnknownTicker, "quote fetch", fmt.Errorf("empty ticker"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, domain.WrapError(domain.ErrQuoteRateLimited, "quote fetch", err)
	}

	var quote *domain.Quote
	call := func(ctx context.Context) error {
		out, err := c.fetch(ctx, ticker)
		if err != nil {
			return err
		}
		quote = out
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "quotes.fetch", call, classifyQuoteError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapQuoteError(err)
	}
	return quote, nil
}

func (c *Client) fetch(ctx context.Context, ticker string) (*domain.Quote, error) {
	query := url.Values{}
	query.Set("function", "GLOBAL_QUOTE")
	query.Set("symbol", ticker)
	query.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create quote request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.WrapError(domain.ErrQuoteRateLimited, "quote fetch", fmt.Errorf("status %s", resp.Status))
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &HTTPStatusError{
			Operation:  "quote",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	var envelope quoteEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode quote response: %w", err)
	}

	// The provider reports throttling inside a 200 body.
	if envelope.Note != "" || envelope.Information != "" {
		return nil, domain.WrapError(domain.ErrQuoteRateLimited, "quote fetch", fmt.Errorf("provider throttled"))
	}
	if envelope.GlobalQuote == nil || envelope.GlobalQuote.Symbol == "" {
		return nil, domain.WrapError(domain.ErrUnknownTicker, "quote fetch", fmt.Errorf("no quote for %s", ticker))
	}

	return c.toDomain(envelope.GlobalQuote), nil
}

func (c *Client) toDomain(raw *globalQuote) *domain.Quote {
	price, _ := strconv.ParseFloat(raw.Price, 64)
	change, _ := strconv.ParseFloat(raw.Change, 64)
	volume, _ := strconv.ParseInt(raw.Volume, 10, 64)

	asOf := c.now().UTC()
	if day, err := time.Parse("2006-01-02", raw.LatestTrading); err == nil {
		asOf = day
	}

	return &domain.Quote{
		Ticker: raw.Symbol,
		Price:  price,
		Change: change,
		Volume: volume,
		AsOf:   asOf,
	}
}
