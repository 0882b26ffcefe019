// Package delivery sends matched listings to a subscriber with at-most-once semantics.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rent_bot/internal/model"
)

// ErrRecipientGone marks a permanent delivery failure, e.g. the user blocked the bot.
var ErrRecipientGone = errors.New("recipient unreachable")

// RateLimitedError is returned by a Sender when the transport asks to back off.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// Sender delivers one listing to a chat.
type Sender interface {
	SendListing(chatID int64, l model.Listing) error
}

// SeenSet is the dedup set consulted before and updated after each send.
type SeenSet interface {
	Has(id string) bool
	Mark(ctx context.Context, id string) error
}

// Config holds the pacing parameters of a Dispatcher.
type Config struct {
	SendDelay   time.Duration
	RetryMargin time.Duration
}

// Report summarises one Deliver call.
type Report struct {
	Delivered int
	Failed    int
	Retries   int
	// Gone is set when the recipient failed permanently and should be unsubscribed.
	Gone bool
}

// Dispatcher sends listings one by one, pacing sends and honouring rate limits.
type Dispatcher struct {
	sender      Sender
	log         *slog.Logger
	sendDelay   time.Duration
	retryMargin time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// New creates a Dispatcher.
func New(sender Sender, cfg Config, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		log:         log,
		sendDelay:   cfg.SendDelay,
		retryMargin: cfg.RetryMargin,
		sleep:       sleepCtx,
	}
}

// Deliver sends listings to chatID in order. Every listing that was sent, or
// failed with a non-retriable error, is marked in seen and never sent again.
// A permanent failure stops the loop and sets Report.Gone.
func (d *Dispatcher) Deliver(ctx context.Context, chatID int64, listings []model.Listing, seen SeenSet) Report {
	var rep Report

	for _, l := range listings {
		if ctx.Err() != nil {
			return rep
		}
		if seen.Has(l.ID) {
			continue
		}

		err := d.send(ctx, chatID, l, &rep)
		switch {
		case err == nil:
			rep.Delivered++
		case errors.Is(err, ErrRecipientGone):
			d.log.Warn("recipient gone, scheduling unsubscribe", "chat_id", chatID, "listing_id", l.ID, "error", err)
			rep.Gone = true
			return rep
		case ctx.Err() != nil:
			return rep
		default:
			d.log.Error("send listing", "chat_id", chatID, "listing_id", l.ID, "error", err)
			rep.Failed++
		}

		if err := seen.Mark(ctx, l.ID); err != nil {
			d.log.Error("mark listing seen", "chat_id", chatID, "listing_id", l.ID, "error", err)
		}

		if err := d.sleep(ctx, d.sendDelay); err != nil {
			return rep
		}
	}

	return rep
}

// send retries the same listing for as long as the transport reports a rate limit.
func (d *Dispatcher) send(ctx context.Context, chatID int64, l model.Listing, rep *Report) error {
	for {
		err := d.sender.SendListing(chatID, l)
		var rl *RateLimitedError
		if !errors.As(err, &rl) {
			return err
		}
		wait := rl.RetryAfter + d.retryMargin
		d.log.Warn("rate limited", "chat_id", chatID, "listing_id", l.ID, "wait", wait)
		rep.Retries++
		if err := d.sleep(ctx, wait); err != nil {
			return err
		}
	}
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
