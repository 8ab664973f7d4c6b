// internal/bot/handler.go
//
// Transport-agnostic command routing.
//
// Private chat:
//   - /start asks for an answer; the next plain message is taken as the word.
//   - A legal word is parked in Pending and answered with a "choose chat" link.
//   - /cancel drops the pending word.
//
// Group chat:
//   - /start links the player to the bot to set a word (unless a round runs).
//   - /start start-game (the deep link payload) creates the round.
//   - /guess and /history play the round.

package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle-with-friends/internal/game"
	"github.com/robalobadob/wordle-with-friends/internal/render"
)

// StartGamePayload is the deep link payload that creates a round in a group.
const StartGamePayload = "start-game"

// Message is an incoming chat message, already parsed by the transport.
type Message struct {
	ChatID  int64
	Private bool
	From    game.Player
	Text    string // full text
	Command string // without the leading slash or @botname; empty for plain text
	Args    string // text after the command
}

// Reply is the text to send back to the chat the message came from.
// Markdown marks replies that carry links.
type Reply struct {
	Text     string
	Markdown bool
}

// Empty reports whether there is nothing to send.
func (r Reply) Empty() bool { return r.Text == "" }

// Links builds Telegram deep links to the bot.
type Links struct {
	BotUsername string
}

// Private links to a private chat with the bot.
func (l Links) Private(payload string) string {
	if payload == "" {
		return "https://t.me/" + l.BotUsername
	}
	return fmt.Sprintf("https://t.me/%s?start=%s", l.BotUsername, payload)
}

// Group links to the "add to group" picker, passing payload to /start there.
func (l Links) Group(payload string) string {
	return fmt.Sprintf("https://t.me/%s?startgroup=%s", l.BotUsername, payload)
}

// Handler routes chat messages to the controller.
type Handler struct {
	ctrl    *Controller
	pending *Pending
	links   Links
}

// NewHandler wires a Handler.
func NewHandler(ctrl *Controller, pending *Pending, links Links) *Handler {
	return &Handler{ctrl: ctrl, pending: pending, links: links}
}

// Handle processes one message and returns the reply, which may be empty.
func (h *Handler) Handle(ctx context.Context, m Message) Reply {
	logger := log.With().Int64("chat", m.ChatID).Int64("user", m.From.ID).Str("command", m.Command).Logger()
	logger.Debug().Bool("private", m.Private).Msg("message")

	switch m.Command {
	case "start":
		if m.Private {
			h.pending.AwaitWord(m.From.ID)
			return Reply{Text: render.AskForWord}
		}
		if strings.TrimSpace(m.Args) == StartGamePayload {
			return h.startFromPending(ctx, m)
		}
		return h.inviteToSetWord(ctx, m)

	case "cancel":
		h.pending.Clear(m.From.ID)
		return Reply{Text: render.Cancelled}

	case "guess":
		if m.Private {
			return Reply{Text: render.NotSolitaire}
		}
		word := firstField(m.Args)
		if word == "" {
			return Reply{Text: render.GuessUsage}
		}
		return Reply{Text: h.ctrl.TryGuess(ctx, m.ChatID, word, m.From)}

	case "history":
		if m.Private {
			return Reply{Text: render.NotSolitaire}
		}
		return Reply{Text: h.ctrl.History(ctx, m.ChatID)}

	case "help":
		return Reply{Text: render.Help}

	case "":
		if m.Private && h.pending.Awaiting(m.From.ID) {
			return h.setWord(m)
		}
	}
	return Reply{}
}

// setWord handles the plain-text answer in the private step.
func (h *Handler) setWord(m Message) Reply {
	word := strings.ToLower(firstField(m.Text))
	if !h.ctrl.LegalAnswer(word) {
		return Reply{Text: render.InvalidAnswerPrivate}
	}
	h.pending.SetWord(m.From.ID, word)
	return Reply{
		Text:     render.ChooseChatLink(word, h.links.Group(StartGamePayload)),
		Markdown: true,
	}
}

func (h *Handler) startFromPending(ctx context.Context, m Message) Reply {
	word, ok := h.pending.Word(m.From.ID)
	if !ok {
		return Reply{Text: render.PendingExpired}
	}
	text, created := h.ctrl.TryCreateGame(ctx, m.ChatID, word, m.From)
	if created {
		h.pending.Clear(m.From.ID)
	}
	return Reply{Text: text}
}

func (h *Handler) inviteToSetWord(ctx context.Context, m Message) Reply {
	ongoing, err := h.ctrl.IsOngoing(ctx, m.ChatID)
	if err != nil {
		return Reply{Text: render.ReadServerFail}
	}
	if ongoing {
		return Reply{Text: render.GroupGameOngoing}
	}
	return Reply{Text: render.SetWordLink(h.links.Private("")), Markdown: true}
}

func firstField(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}
