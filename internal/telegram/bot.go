// internal/telegram/bot.go
//
// Telegram transport for the bot.
//
// Updates arrive either by long polling (Poll) or by webhook (WebhookHandler).
// Both paths convert the update into a bot.Message, hand it to the
// dispatcher, and send the reply back to the originating chat. Sends share one
// rate limiter so bursts stay under Telegram's global limit.

package telegram

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/robalobadob/wordle-with-friends/internal/bot"
	"github.com/robalobadob/wordle-with-friends/internal/game"
)

// SecretHeader carries the webhook secret set with RegisterWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// DefaultRate is the send rate used when none is configured, in messages per second.
const DefaultRate = 25

// Dispatcher turns a message into a reply.
type Dispatcher interface {
	Handle(ctx context.Context, m bot.Message) bot.Reply
}

// Sender delivers outgoing messages. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Config tunes the transport.
type Config struct {
	Rate          float64 // messages per second; 0 selects DefaultRate
	WebhookSecret string  // required header value on webhook requests; empty disables the check
	PollTimeout   int     // long polling timeout in seconds
}

// Bot connects a Dispatcher to Telegram.
type Bot struct {
	api      *tgbotapi.BotAPI
	sender   Sender
	dispatch Dispatcher
	limiter  *rate.Limiter
	cfg      Config
}

// Connect authenticates token against the Bot API.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("telegram: empty bot token")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	log.Info().Str("username", api.Self.UserName).Msg("telegram bot authorized")
	return api, nil
}

// New wires a Bot on top of an authorized API client.
func New(api *tgbotapi.BotAPI, d Dispatcher, cfg Config) *Bot {
	return newBot(api, api, d, cfg)
}

func newBot(api *tgbotapi.BotAPI, s Sender, d Dispatcher, cfg Config) *Bot {
	r := cfg.Rate
	if r <= 0 {
		r = DefaultRate
	}
	burst := int(r)
	if burst < 1 {
		burst = 1
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 60
	}
	return &Bot{
		api:      api,
		sender:   s,
		dispatch: d,
		limiter:  rate.NewLimiter(rate.Limit(r), burst),
		cfg:      cfg,
	}
}

// Poll receives updates by long polling until ctx is cancelled.
func (b *Bot) Poll(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.PollTimeout
	updates := b.api.GetUpdatesChan(u)
	log.Info().Msg("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Info().Msg("telegram polling stopped")
			return nil
		case up, ok := <-updates:
			if !ok {
				return errors.New("telegram: update channel closed")
			}
			b.handleUpdate(ctx, up)
		}
	}
}

// RegisterWebhook points Telegram at url, asking it to send secret on every request.
func (b *Bot) RegisterWebhook(url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	if _, err := b.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("telegram: set webhook: %w", err)
	}
	log.Info().Str("url", url).Msg("telegram webhook registered")
	return nil
}

// WebhookHandler accepts updates pushed by Telegram.
func (b *Bot) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.cfg.WebhookSecret != "" {
			got := r.Header.Get(SecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(b.cfg.WebhookSecret)) != 1 {
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}
		}
		up, err := b.api.HandleUpdate(r)
		if err != nil {
			log.Warn().Err(err).Msg("telegram webhook rejected update")
			http.Error(w, `{"error":"bad update"}`, http.StatusBadRequest)
			return
		}
		b.handleUpdate(r.Context(), *up)
		w.WriteHeader(http.StatusOK)
	})
}

func (b *Bot) handleUpdate(ctx context.Context, up tgbotapi.Update) {
	m, ok := toMessage(up.Message)
	if !ok {
		return
	}
	reply := b.dispatch.Handle(ctx, m)
	if reply.Empty() {
		return
	}
	if err := b.send(ctx, m.ChatID, reply); err != nil {
		log.Error().Err(err).Int64("chat", m.ChatID).Msg("telegram send failed")
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, reply bot.Reply) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
	}
	_, err := b.sender.Send(msg)
	return err
}

// toMessage converts a Telegram message. Messages without a sender or text are skipped.
func toMessage(msg *tgbotapi.Message) (bot.Message, bool) {
	if msg == nil || msg.From == nil || msg.Chat == nil || msg.Text == "" {
		return bot.Message{}, false
	}
	m := bot.Message{
		ChatID:  msg.Chat.ID,
		Private: msg.Chat.IsPrivate(),
		From:    game.Player{ID: msg.From.ID, Username: msg.From.UserName},
		Text:    msg.Text,
	}
	if msg.IsCommand() {
		m.Command = msg.Command()
		m.Args = msg.CommandArguments()
	}
	return m, true
}
