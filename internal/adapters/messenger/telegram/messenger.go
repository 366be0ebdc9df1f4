package telegram

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

// captionLimit is the longest caption Telegram accepts on a photo.
const captionLimit = 1024

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type messenger struct {
	bot sender
}

func NewMessenger(bot sender) ports.Messenger {
	return &messenger{bot: bot}
}

func (m *messenger) Send(ctx context.Context, msg domain.OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	markup := replyMarkup(msg)
	if msg.ImageRef == "" {
		return m.sendText(msg.ChatID, msg.Text, markup)
	}

	photo := tgbotapi.NewPhoto(msg.ChatID, photoFile(msg.ImageRef))
	if utf8.RuneCountInString(msg.Text) <= captionLimit {
		photo.Caption = msg.Text
		photo.ReplyMarkup = markup
		if _, err := m.bot.Send(photo); err != nil {
			return fmt.Errorf("failed to send photo to %d: %w", msg.ChatID, err)
		}
		return nil
	}

	if _, err := m.bot.Send(photo); err != nil {
		return fmt.Errorf("failed to send photo to %d: %w", msg.ChatID, err)
	}
	return m.sendText(msg.ChatID, msg.Text, markup)
}

func (m *messenger) sendText(chatID int64, text string, markup interface{}) error {
	out := tgbotapi.NewMessage(chatID, text)
	out.ReplyMarkup = markup
	if _, err := m.bot.Send(out); err != nil {
		return fmt.Errorf("failed to send message to %d: %w", chatID, err)
	}
	return nil
}

// photoFile treats links as URLs and anything else as an uploaded file id.
func photoFile(ref string) tgbotapi.RequestFileData {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tgbotapi.FileURL(ref)
	}
	return tgbotapi.FileID(ref)
}

func replyMarkup(msg domain.OutgoingMessage) interface{} {
	switch {
	case msg.Link != nil:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(msg.Link.Text, msg.Link.URL)),
		)
	case len(msg.Keyboard) > 0:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(msg.Keyboard))
		for _, row := range msg.Keyboard {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, text := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(text))
			}
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.ResizeKeyboard = true
		return kb
	case msg.RemoveKeyboard:
		return tgbotapi.NewRemoveKeyboard(true)
	default:
		return nil
	}
}
