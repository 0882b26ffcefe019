// Package scheduler drives periodic scan passes over all subscribers.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rent_bot/internal/dedup"
	"rent_bot/internal/delivery"
	"rent_bot/internal/fetcher"
	"rent_bot/internal/filter"
	"rent_bot/internal/model"
	"rent_bot/internal/storage"
)

// ErrPassRunning is returned when a pass is requested while another one is outstanding.
var ErrPassRunning = errors.New("scan pass already running")

// Scanner collects unseen listings for one criteria record.
type Scanner interface {
	Scan(ctx context.Context, c model.Criteria, seen fetcher.Seen) fetcher.ScanResult
}

// Dispatcher delivers listings to one subscriber.
type Dispatcher interface {
	Deliver(ctx context.Context, chatID int64, listings []model.Listing, seen delivery.SeenSet) delivery.Report
}

// Recorder receives pass statistics.
type Recorder interface {
	ObserveScan(pages, found int, blocked bool)
	ObserveDelivery(delivered, failed, retries int)
	ObserveRemoved(n int)
	ObservePass(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveScan(int, int, bool)    {}
func (nopRecorder) ObserveDelivery(int, int, int) {}
func (nopRecorder) ObserveRemoved(int)            {}
func (nopRecorder) ObservePass(time.Duration)     {}

// Stats summarises one pass.
type Stats struct {
	Subscribers int
	Found       int
	Delivered   int
	Removed     []int64
}

// Scheduler runs scan passes on a fixed interval. At most one pass runs at a time.
type Scheduler struct {
	store      storage.Storage
	scanner    Scanner
	dispatcher Dispatcher
	metrics    Recorder
	log        *slog.Logger
	tick       time.Duration
	strict     bool

	pass sync.Mutex
	// seen is loaded by the first pass and kept for the life of the process.
	seen *dedup.Set
}

// New creates a Scheduler with a 5-minute interval.
func New(store storage.Storage, scanner Scanner, dispatcher Dispatcher, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		scanner:    scanner,
		dispatcher: dispatcher,
		metrics:    nopRecorder{},
		log:        log,
		tick:       5 * time.Minute,
	}
}

// SetTickInterval overrides the default pass interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// SetStrictMatch enables re-checking scanned listings against the criteria
// before delivery. Rejected listings are marked seen.
func (s *Scheduler) SetStrictMatch(on bool) {
	s.strict = on
}

// SetRecorder attaches a metrics recorder.
func (s *Scheduler) SetRecorder(r Recorder) {
	s.metrics = r
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
// The first pass starts immediately.
func (s *Scheduler) Run(ctx context.Context) {
	s.runScheduled(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runScheduled(ctx)
		}
	}
}

func (s *Scheduler) runScheduled(ctx context.Context) {
	stats, err := s.RunPass(ctx)
	switch {
	case errors.Is(err, ErrPassRunning):
		s.log.Info("pass skipped, previous one still running")
	case err != nil:
		s.log.Error("scan pass", "error", err)
	default:
		s.log.Info("pass finished",
			"subscribers", stats.Subscribers,
			"found", stats.Found,
			"delivered", stats.Delivered,
			"removed", len(stats.Removed),
		)
	}
}

// RunPass scans and delivers for every subscriber in registration order.
// Subscribers that failed permanently are removed once the loop is done.
func (s *Scheduler) RunPass(ctx context.Context) (Stats, error) {
	if !s.pass.TryLock() {
		return Stats{}, ErrPassRunning
	}
	defer s.pass.Unlock()

	start := time.Now()
	defer func() { s.metrics.ObservePass(time.Since(start)) }()

	var stats Stats

	seen, err := s.seenSet(ctx)
	if err != nil {
		return stats, err
	}

	subs, err := s.store.ListSubscribers(ctx)
	if err != nil {
		return stats, fmt.Errorf("list subscribers: %w", err)
	}

	for _, sub := range subs {
		if ctx.Err() != nil {
			break
		}
		stats.Subscribers++

		found, rep := s.processSubscriber(ctx, sub.ChatID, seen)
		stats.Found += found
		stats.Delivered += rep.Delivered
		if rep.Gone {
			stats.Removed = append(stats.Removed, sub.ChatID)
		}
	}

	s.remove(ctx, stats.Removed)
	return stats, nil
}

// CheckNow runs the pipeline for a single subscriber and returns the number
// of delivered listings. It shares the pass guard with RunPass.
func (s *Scheduler) CheckNow(ctx context.Context, chatID int64) (int, error) {
	if !s.pass.TryLock() {
		return 0, ErrPassRunning
	}
	defer s.pass.Unlock()

	seen, err := s.seenSet(ctx)
	if err != nil {
		return 0, err
	}

	_, rep := s.processSubscriber(ctx, chatID, seen)
	if rep.Gone {
		s.remove(ctx, []int64{chatID})
	}
	return rep.Delivered, nil
}

// seenSet must be called with the pass guard held.
func (s *Scheduler) seenSet(ctx context.Context) (*dedup.Set, error) {
	if s.seen != nil {
		return s.seen, nil
	}
	seen, err := dedup.Load(ctx, s.store)
	if err != nil {
		return nil, err
	}
	s.seen = seen
	return seen, nil
}

func (s *Scheduler) processSubscriber(ctx context.Context, chatID int64, seen *dedup.Set) (int, delivery.Report) {
	c, err := s.store.GetCriteria(ctx, chatID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c = model.DefaultCriteria()
	case err != nil:
		s.log.Error("get criteria", "chat_id", chatID, "error", err)
		return 0, delivery.Report{}
	}

	res := s.scanner.Scan(ctx, c, seen)
	s.metrics.ObserveScan(res.Pages, len(res.Listings), res.Blocked)

	listings := res.Listings
	if s.strict {
		listings = s.recheck(ctx, chatID, c, listings, seen)
	}

	if len(listings) == 0 {
		s.log.Debug("no new listings", "chat_id", chatID, "pages", res.Pages, "blocked", res.Blocked)
		return len(res.Listings), delivery.Report{}
	}

	rep := s.dispatcher.Deliver(ctx, chatID, listings, seen)
	s.metrics.ObserveDelivery(rep.Delivered, rep.Failed, rep.Retries)

	s.log.Info("delivered listings",
		"chat_id", chatID,
		"found", len(res.Listings),
		"count", rep.Delivered,
		"failed", rep.Failed,
	)
	return len(res.Listings), rep
}

// recheck drops listings that contradict c and marks them as skipped.
func (s *Scheduler) recheck(ctx context.Context, chatID int64, c model.Criteria, listings []model.Listing, seen *dedup.Set) []model.Listing {
	kept := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		ok, reason := filter.Match(l, c)
		if ok {
			kept = append(kept, l)
			continue
		}
		s.log.Debug("listing rejected", "chat_id", chatID, "listing_id", l.ID, "reason", reason)
		if err := seen.Mark(ctx, l.ID); err != nil {
			s.log.Error("mark listing seen", "chat_id", chatID, "listing_id", l.ID, "error", err)
		}
	}
	return kept
}

func (s *Scheduler) remove(ctx context.Context, chatIDs []int64) {
	if len(chatIDs) == 0 {
		return
	}
	if err := s.store.RemoveSubscribers(ctx, chatIDs...); err != nil {
		s.log.Error("remove subscribers", "chat_ids", chatIDs, "error", err)
		return
	}
	s.metrics.ObserveRemoved(len(chatIDs))
	s.log.Info("removed unreachable subscribers", "count", len(chatIDs))
}
