// Package fetcher downloads search result pages, extracts listings from them
// and walks the result pages of one search.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrBlocked is returned when the site answers with a bot challenge instead of results.
var ErrBlocked = errors.New("blocked by challenge page")

const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"
	acceptLanguage = "uk-UA,uk;q=0.9,en-US;q=0.8,en;q=0.7"
	maxBodySize    = 5 * 1024 * 1024
)

// challengeMarkers are lower-case fragments only present on block and verification pages.
// The bare /cdn-cgi/challenge-platform path is not one of them: regular pages load
// the bot-detection script from there too.
var challengeMarkers = [][]byte{
	[]byte("cf-chl-"),
	[]byte(`id="challenge-form"`),
	[]byte("<title>just a moment"),
	[]byte("px-captcha"),
	[]byte("captcha-delivery.com"),
	[]byte("<title>access denied"),
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads result pages while presenting a browser-like identity.
type Fetcher struct {
	client  HTTPClient
	timeout time.Duration
}

// New creates a Fetcher with the given HTTP client and per-request timeout.
func New(client HTTPClient, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client:  client,
		timeout: timeout,
	}
}

// Fetch downloads one page. It returns ErrBlocked when the response is a challenge page.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if IsChallenge(body) {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ErrBlocked)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusForbidden, http.StatusTooManyRequests:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ErrBlocked)
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

// cardMarker identifies a page that carries listing cards.
var cardMarker = []byte(`data-cy="l-card"`)

// IsChallenge reports whether a page body carries bot-challenge markers.
// A page with listing cards is never a challenge.
func IsChallenge(body []byte) bool {
	lower := bytes.ToLower(body)
	if bytes.Contains(lower, cardMarker) {
		return false
	}
	for _, m := range challengeMarkers {
		if bytes.Contains(lower, m) {
			return true
		}
	}
	return false
}
