// Package cleaner calls the external text-sanitizing service that strips
// profanity and boilerplate from article bodies. Cleaning is idempotent,
// so retried pipeline items may clean the same text twice without harm.
package cleaner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

type cleanRequest struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type cleanResponse struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Clean returns the sanitized text for the given article body. The caller
// decides what to do on failure; the pipeline falls back to the raw text.
func (c *Client) Clean(ctx context.Context, text, url string) (string, error) {
	var cleaned string
	call := func(ctx context.Context) error {
		out, err := c.clean(ctx, text, url)
		if err != nil {
			return err
		}
		cleaned = out
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "cleaner.clean", call, classifyCleanerError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("cleaner clean", err)
	}
	return cleaned, nil
}

func (c *Client) clean(ctx context.Context, text, url string) (string, error) {
	body, err := json.Marshal(cleanRequest{Text: text, URL: url})
	if err != nil {
		return "", fmt.Errorf("marshal clean request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/clean", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create clean request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cleaner request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &HTTPStatusError{
			Operation:  "clean",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	var payload cleanResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode clean response: %w", err)
	}
	return payload.Text, nil
}
