package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rent_bot/internal/storage"
	"rent_bot/internal/wizard"
)

func (b *Bot) handleCallback(_ context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	b.ack(cb.ID)

	prefix, action, ok := parseCallback(cb.Data)
	if !ok {
		b.log.Debug("malformed callback", "data", cb.Data, "chat_id", chatID)
		return
	}

	b.log.Debug("callback",
		"prefix", prefix,
		"action", action,
		"chat_id", chatID,
		"user_id", cb.From.ID,
	)

	switch prefix {
	case wizardPrefix:
		if b.session(chatID) == nil {
			b.reply(chatID, "Сесія налаштування завершена. Почніть знову: /filter")
			return
		}
		b.wizardEvent(chatID, wizard.ActionEvent(action))
	}
}

func (b *Bot) ack(callbackID string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		b.log.Error("send callback ack", "error", err)
	}
}

// wizardEvent feeds a button press or typed text into the chat's wizard.
func (b *Bot) wizardEvent(chatID int64, ev wizard.Event) {
	s := b.session(chatID)
	if s == nil {
		return
	}

	effects, err := s.w.Handle(ev)
	if errors.Is(err, wizard.ErrFinished) {
		b.setSession(chatID, nil)
		return
	}
	if errors.Is(err, storage.ErrNotFound) {
		b.log.Info("filter wizard for removed subscriber", "chat_id", chatID)
		b.reply(chatID, notSubscribed)
		b.setSession(chatID, nil)
		return
	}
	if err != nil {
		b.log.Error("save criteria", "chat_id", chatID, "error", err)
		b.reply(chatID, "Не вдалося зберегти налаштування, спробуйте пізніше.")
		b.setSession(chatID, nil)
		return
	}

	b.render(chatID, s, effects)

	if s.w.State().Terminal() {
		b.setSession(chatID, nil)
		b.log.Info("filter wizard finished", "chat_id", chatID, "state", s.w.State())
	}
}

func (b *Bot) render(chatID int64, s *filterSession, effects []wizard.Effect) {
	draft := s.w.Draft()
	for _, e := range effects {
		switch e.Kind {
		case wizard.ShowMainMenu:
			b.sendMarkup(chatID, "Налаштування фільтра:\n"+FormatCriteria(draft)+"\n\nОберіть параметр:", mainMenuKeyboard())
		case wizard.Prompt:
			b.sendMarkup(chatID, fieldPrompts[e.Field], backKeyboard())
		case wizard.InvalidInput:
			b.reply(chatID, invalidInputText(e.Field))
		case wizard.FieldSet:
			b.reply(chatID, fieldLabels[e.Field]+": "+fieldValue(draft, e.Field))
		case wizard.FieldCleared:
			b.reply(chatID, fieldLabels[e.Field]+": очищено")
		case wizard.ShowPetsMenu:
			s.petsMsgID = b.sendMarkup(chatID, petsMenuText(draft), petsKeyboard())
		case wizard.RedrawPetsMenu:
			// Redraws always target the current pets menu, whichever message the button came from.
			if s.petsMsgID == 0 {
				s.petsMsgID = b.sendMarkup(chatID, petsMenuText(draft), petsKeyboard())
				continue
			}
			edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, s.petsMsgID, petsMenuText(draft), petsKeyboard())
			if _, err := b.api.Send(edit); err != nil && !isNotModified(err) {
				b.log.Error("redraw pets menu", "chat_id", chatID, "message_id", s.petsMsgID, "error", err)
			}
		case wizard.Commit:
			b.reply(chatID, "Налаштування збережено!\n"+FormatCriteria(draft))
		case wizard.Discard:
			b.reply(chatID, "Налаштування скасовано.")
		}
	}
}

// sendMarkup sends a menu and returns its message ID, or 0 if sending failed.
func (b *Bot) sendMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	sent, err := b.api.Send(msg)
	if err != nil {
		b.log.Error("send menu", "chat_id", chatID, "error", err)
		return 0
	}
	return sent.MessageID
}

func isNotModified(err error) bool {
	var tgErr *tgbotapi.Error
	return errors.As(err, &tgErr) && strings.Contains(tgErr.Message, "message is not modified")
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := func(f wizard.Field) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(fieldButtons[f], wizardData(string(f)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn(wizard.FieldCity), btn(wizard.FieldDistrict)),
		tgbotapi.NewInlineKeyboardRow(btn(wizard.FieldMinPrice), btn(wizard.FieldMaxPrice)),
		tgbotapi.NewInlineKeyboardRow(btn(wizard.FieldKeywords)),
		tgbotapi.NewInlineKeyboardRow(btn(wizard.FieldMaxFloor), btn(wizard.FieldMinArea)),
		tgbotapi.NewInlineKeyboardRow(btn(wizard.FieldPets)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Зберегти та вийти", wizardData(wizard.ActionSave)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Скасувати", wizardData(wizard.ActionCancel)),
		),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Назад", wizardData(wizard.ActionBack)),
		),
	)
}

func petsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🐈 Кіт", wizardData(wizard.ActionPetCat)),
			tgbotapi.NewInlineKeyboardButtonData("🐕 Собака", wizardData(wizard.ActionPetDog)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🐇 Інші тварини", wizardData(wizard.ActionPetOther)),
			tgbotapi.NewInlineKeyboardButtonData("🧹 Очистити", wizardData(wizard.ActionPetsClear)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Готово", wizardData(wizard.ActionPetsFinish)),
		),
	)
}
