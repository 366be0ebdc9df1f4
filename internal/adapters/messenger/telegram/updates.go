package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

type HandleFunc func(ctx context.Context, in domain.Incoming)

// ToIncoming converts a chat message update. Other update kinds are ignored.
func ToIncoming(update tgbotapi.Update) (domain.Incoming, bool) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return domain.Incoming{}, false
	}

	in := domain.Incoming{
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		Username: displayName(msg.From),
		Text:     msg.Text,
	}
	if n := len(msg.Photo); n > 0 {
		in.ImageRef = msg.Photo[n-1].FileID
		if in.Text == "" {
			in.Text = msg.Caption
		}
	}
	if msg.IsCommand() {
		in.Command = msg.Command()
		in.Args = strings.TrimSpace(msg.CommandArguments())
	}
	return in, true
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Poller reads updates with long polling. Messages of one user are handled in
// the order they were received.
type Poller struct {
	bot   *tgbotapi.BotAPI
	queue *userQueue
}

func NewPoller(bot *tgbotapi.BotAPI, handle HandleFunc) *Poller {
	return &Poller{bot: bot, queue: newUserQueue(handle)}
}

// Run blocks until ctx is cancelled and every received message is handled.
func (p *Poller) Run(ctx context.Context) error {
	if _, err := p.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		log.Warn().Err(err).Msg("failed to remove webhook before polling")
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := p.bot.GetUpdatesChan(cfg)
	log.Info().Str("bot", p.bot.Self.UserName).Msg("polling for updates")

	for {
		select {
		case <-ctx.Done():
			p.bot.StopReceivingUpdates()
			p.queue.wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				p.queue.wait()
				return nil
			}
			if in, ok := ToIncoming(update); ok {
				p.queue.push(ctx, in)
			}
		}
	}
}

// SetWebhook registers url as the update endpoint.
func SetWebhook(bot *tgbotapi.BotAPI, url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	_, err = bot.Request(wh)
	return err
}

// WebhookHandler decodes pushed updates. Messages are handled after the
// response is written so Telegram does not redeliver slow updates; messages of
// one user keep their delivery order.
type WebhookHandler struct {
	ctx   context.Context
	queue *userQueue
}

func NewWebhookHandler(ctx context.Context, handle HandleFunc) *WebhookHandler {
	return &WebhookHandler{ctx: ctx, queue: newUserQueue(handle)}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Warn().Err(err).Msg("failed to decode webhook update")
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}

	if in, ok := ToIncoming(update); ok {
		h.queue.push(h.ctx, in)
	}
	w.WriteHeader(http.StatusOK)
}

// Wait blocks until every accepted update has been handled.
func (h *WebhookHandler) Wait() {
	h.queue.wait()
}
