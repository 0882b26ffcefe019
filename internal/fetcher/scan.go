package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"rent_bot/internal/model"
	"rent_bot/internal/search"
)

// PageFetcher downloads one result page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ScanConfig bounds a single scan.
type ScanConfig struct {
	BaseURL   string
	MaxPages  int
	PageDelay time.Duration
}

// ScanResult is the outcome of walking the result pages of one search.
type ScanResult struct {
	Listings []model.Listing
	Pages    int
	Blocked  bool
}

// Scanner walks the result pages of a search until it runs out of new
// listings, runs out of pages or reaches the page cap.
type Scanner struct {
	fetcher  PageFetcher
	baseURL  string
	origin   *url.URL
	maxPages int
	delay    time.Duration
	log      *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewScanner creates a Scanner. The origin of cfg.BaseURL resolves relative card links.
func NewScanner(f PageFetcher, cfg ScanConfig, log *slog.Logger) (*Scanner, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q is not absolute", cfg.BaseURL)
	}
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	return &Scanner{
		fetcher:  f,
		baseURL:  cfg.BaseURL,
		origin:   &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"},
		maxPages: cfg.MaxPages,
		delay:    cfg.PageDelay,
		log:      log,
		sleep:    sleepCtx,
	}, nil
}

// Scan collects the unseen listings matching c. It never writes to seen.
// A blocked or failed fetch ends the scan with whatever was gathered so far.
func (s *Scanner) Scan(ctx context.Context, c model.Criteria, seen Seen) ScanResult {
	var res ScanResult
	collected := make(map[string]struct{})

	for page := 1; page <= s.maxPages; page++ {
		if page > 1 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return res
			}
		}

		q := search.Build(s.baseURL, c, page)
		if page == 1 {
			for _, w := range q.Warnings {
				s.log.Warn("search constraint ignored", "reason", w)
			}
		}

		body, err := s.fetcher.Fetch(ctx, q.URL)
		res.Pages++
		if errors.Is(err, ErrBlocked) {
			s.log.Warn("scan blocked", "page", page, "url", q.URL, "error", err)
			res.Blocked = true
			return res
		}
		if err != nil {
			s.log.Error("fetch page", "page", page, "url", q.URL, "error", err)
			return res
		}

		p, err := Extract(body, s.origin, seen)
		if err != nil {
			s.log.Error("extract page", "page", page, "url", q.URL, "error", err)
			return res
		}

		for _, l := range p.Listings {
			if _, dup := collected[l.ID]; dup {
				continue
			}
			collected[l.ID] = struct{}{}
			res.Listings = append(res.Listings, l)
		}

		s.log.Debug("page scanned", "page", page, "new", len(p.Listings), "has_next", p.HasNext)

		if len(p.Listings) == 0 {
			s.log.Debug("no new listings", "page", page)
			break
		}
		if !p.HasNext {
			break
		}
	}

	return res
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
