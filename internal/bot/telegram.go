package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Telegram adapts the Bot API client to the ChatClient surface and runs the
// long-polling loop.
type Telegram struct {
	api *tgbotapi.BotAPI
	log zerolog.Logger
}

// NewTelegram authenticates against the Bot API.
func NewTelegram(token string, log zerolog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Info().Str("username", api.Self.UserName).Msg("telegram bot authorized")
	return &Telegram{api: api, log: log}, nil
}

// Run consumes updates until ctx is cancelled, dispatching messages and
// button presses to the orchestrator.
func (t *Telegram) Run(ctx context.Context, o *Orchestrator) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			switch {
			case update.Message != nil && update.Message.Text != "":
				o.HandleText(ctx, update.Message.Chat.ID, update.Message.Text)
			case update.CallbackQuery != nil:
				// Ack first so the button stops spinning even if handling
				// takes a while.
				if _, err := t.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
					t.log.Debug().Err(err).Msg("callback ack failed")
				}
				if update.CallbackQuery.Message != nil {
					o.HandleCallback(ctx, update.CallbackQuery.Message.Chat.ID, update.CallbackQuery.Data)
				}
			}
		}
	}
}

// Send posts a message, optionally with an inline keyboard.
func (t *Telegram) Send(chatID int64, text string, rows [][]Button) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if kb, ok := keyboard(rows); ok {
		msg.ReplyMarkup = kb
	}
	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// Edit replaces a message's text and keyboard in place.
func (t *Telegram) Edit(chatID int64, messageID int, text string, rows [][]Button) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if kb, ok := keyboard(rows); ok {
		edit.ReplyMarkup = &kb
	}
	_, err := t.api.Send(edit)
	return err
}

// SendPhoto posts a photo by URL with a caption.
func (t *Telegram) SendPhoto(chatID int64, url, caption string, rows [][]Button) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	photo.Caption = caption
	if kb, ok := keyboard(rows); ok {
		photo.ReplyMarkup = kb
	}
	_, err := t.api.Send(photo)
	return err
}

// Typing shows the "typing..." indicator. Best effort.
func (t *Telegram) Typing(chatID int64) {
	if _, err := t.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		t.log.Debug().Err(err).Msg("chat action failed")
	}
}

func keyboard(rows [][]Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	kb := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		kb = append(kb, btns)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...), true
}
