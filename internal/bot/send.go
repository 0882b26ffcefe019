package bot

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rent_bot/internal/delivery"
	"rent_bot/internal/model"
)

// SendListing delivers one listing. Errors are classified for the dispatcher:
// a blocked or deleted chat wraps delivery.ErrRecipientGone and a flood-control
// reply becomes *delivery.RateLimitedError.
func (b *Bot) SendListing(chatID int64, l model.Listing) error {
	msg := tgbotapi.NewMessage(chatID, FormatListing(l))
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return classifySendError(err)
	}
	return nil
}

func classifySendError(err error) error {
	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) {
		return err
	}

	switch {
	case tgErr.RetryAfter > 0:
		return &delivery.RateLimitedError{RetryAfter: time.Duration(tgErr.RetryAfter) * time.Second}
	case tgErr.Code == http.StatusTooManyRequests:
		return &delivery.RateLimitedError{RetryAfter: time.Second}
	case tgErr.Code == http.StatusForbidden:
		return fmt.Errorf("%s: %w", tgErr.Message, delivery.ErrRecipientGone)
	case tgErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(tgErr.Message), "chat not found"):
		return fmt.Errorf("%s: %w", tgErr.Message, delivery.ErrRecipientGone)
	}
	return err
}
