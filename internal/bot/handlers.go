package bot

import (
	"context"
	"errors"
	"fmt"

	"rent_bot/internal/model"
	"rent_bot/internal/scheduler"
	"rent_bot/internal/storage"
	"rent_bot/internal/wizard"
)

const (
	cmdStart    = "start"
	cmdStop     = "stop"
	cmdSettings = "settings"
	cmdFilter   = "filter"
	cmdReset    = "reset"
	cmdCheck    = "check"
	cmdHelp     = "help"
)

var commandMenu = []struct {
	name        string
	description string
}{
	{cmdStart, "Підписатися на нові оголошення"},
	{cmdFilter, "Налаштувати фільтри пошуку"},
	{cmdSettings, "Показати поточні налаштування"},
	{cmdCheck, "Перевірити оголошення зараз"},
	{cmdReset, "Скинути фільтри до типових"},
	{cmdStop, "Відписатися від оновлень"},
	{cmdHelp, "Довідка"},
}

const notSubscribed = "Ви не підписані. Почніть з /start."

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	c := model.DefaultCriteria()
	created, err := b.store.Subscribe(ctx, chatID, c)
	if err != nil {
		b.log.Error("subscribe", "chat_id", chatID, "error", err)
		b.reply(chatID, "Не вдалося оформити підписку, спробуйте пізніше.")
		return
	}
	if !created {
		b.reply(chatID, "Ви вже підписані на оновлення. Змінити фільтри: /filter")
		return
	}

	b.log.Info("subscribed", "chat_id", chatID)
	b.reply(chatID, "Вітаємо! Ви підписалися на нові оголошення про оренду квартир.\n\n"+
		"Поточні налаштування:\n"+FormatCriteria(c)+"\n\n"+
		"Змінити їх можна командою /filter.")
}

func (b *Bot) handleStop(ctx context.Context, chatID int64) {
	ok, err := b.store.IsSubscribed(ctx, chatID)
	if err != nil {
		b.log.Error("check subscription", "chat_id", chatID, "error", err)
		b.reply(chatID, "Помилка, спробуйте пізніше.")
		return
	}
	if !ok {
		b.reply(chatID, "Ви не були підписані.")
		return
	}

	if err := b.store.RemoveSubscribers(ctx, chatID); err != nil {
		b.log.Error("unsubscribe", "chat_id", chatID, "error", err)
		b.reply(chatID, "Не вдалося відписатися, спробуйте пізніше.")
		return
	}
	b.setSession(chatID, nil)

	b.log.Info("unsubscribed", "chat_id", chatID)
	b.reply(chatID, "Ви відписалися від оновлень. Щоб повернутися, надішліть /start.")
}

func (b *Bot) handleSettings(ctx context.Context, chatID int64) {
	c, err := b.store.GetCriteria(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(chatID, notSubscribed)
		return
	}
	if err != nil {
		b.log.Error("get criteria", "chat_id", chatID, "error", err)
		b.reply(chatID, "Помилка, спробуйте пізніше.")
		return
	}
	b.reply(chatID, "Ваші налаштування пошуку:\n"+FormatCriteria(c))
}

func (b *Bot) handleFilter(ctx context.Context, chatID int64) {
	c, err := b.store.GetCriteria(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(chatID, notSubscribed)
		return
	}
	if err != nil {
		b.log.Error("get criteria", "chat_id", chatID, "error", err)
		b.reply(chatID, "Помилка, спробуйте пізніше.")
		return
	}

	w := wizard.New(c, func(draft model.Criteria) error {
		return b.store.SaveCriteria(ctx, chatID, draft)
	})
	fs := &filterSession{w: w}
	b.setSession(chatID, fs)

	b.log.Info("filter wizard started", "chat_id", chatID)
	b.render(chatID, fs, []wizard.Effect{{Kind: wizard.ShowMainMenu}})
}

func (b *Bot) handleReset(ctx context.Context, chatID int64) {
	ok, err := b.store.IsSubscribed(ctx, chatID)
	if err != nil {
		b.log.Error("check subscription", "chat_id", chatID, "error", err)
		b.reply(chatID, "Помилка, спробуйте пізніше.")
		return
	}
	if !ok {
		b.reply(chatID, notSubscribed)
		return
	}

	c := model.DefaultCriteria()
	if err := b.store.SaveCriteria(ctx, chatID, c); err != nil {
		b.log.Error("reset criteria", "chat_id", chatID, "error", err)
		b.reply(chatID, "Не вдалося скинути налаштування.")
		return
	}
	b.setSession(chatID, nil)
	b.reply(chatID, "Налаштування скинуто:\n"+FormatCriteria(c))
}

func (b *Bot) handleCheck(ctx context.Context, chatID int64) {
	if b.checker == nil {
		b.reply(chatID, "Перевірка зараз недоступна.")
		return
	}
	ok, err := b.store.IsSubscribed(ctx, chatID)
	if err != nil {
		b.log.Error("check subscription", "chat_id", chatID, "error", err)
		b.reply(chatID, "Помилка, спробуйте пізніше.")
		return
	}
	if !ok {
		b.reply(chatID, notSubscribed)
		return
	}

	b.reply(chatID, "Шукаю нові оголошення за вашими фільтрами, зачекайте...")

	// CheckNow may run for minutes; keep the update loop free.
	b.checks.Add(1)
	go func() {
		defer b.checks.Done()
		b.runCheck(ctx, chatID)
	}()
}

func (b *Bot) runCheck(ctx context.Context, chatID int64) {
	n, err := b.checker.CheckNow(ctx, chatID)
	switch {
	case errors.Is(err, scheduler.ErrPassRunning):
		b.reply(chatID, "Зараз уже триває перевірка. Нові оголошення надійдуть автоматично.")
	case err != nil:
		b.log.Error("check now", "chat_id", chatID, "error", err)
		b.reply(chatID, "Не вдалося виконати перевірку, спробуйте пізніше.")
	case n == 0:
		b.reply(chatID, "За вашими фільтрами нових оголошень не знайдено.")
	default:
		b.reply(chatID, fmt.Sprintf("Надіслано нових оголошень: %d.", n))
	}
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Доступні команди:
/start — підписатися на нові оголошення
/filter — налаштувати фільтри (місто, район, ціна, ключові слова, поверх, площа, тварини)
/settings — показати поточні налаштування
/check — перевірити оголошення зараз
/reset — скинути фільтри до типових (Київ, без обмежень)
/stop — відписатися
/help — ця довідка`)
}
