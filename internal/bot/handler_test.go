package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle-with-friends/internal/game"
	"github.com/robalobadob/wordle-with-friends/internal/metrics"
	"github.com/robalobadob/wordle-with-friends/internal/render"
	"github.com/robalobadob/wordle-with-friends/internal/store"
	"github.com/robalobadob/wordle-with-friends/internal/words"
)

const group int64 = -100

var (
	sam   = game.Player{ID: 1, Username: "sam"}
	alice = game.Player{ID: 2, Username: "alice"}
)

func newDict(t *testing.T) *words.Dictionary {
	t.Helper()
	d, err := words.New([]string{"mango", "groan", "tango", "crane", "hello", "tent", "bridge", "aroma"})
	require.NoError(t, err)
	return d
}

func newHandler(t *testing.T, st store.Store) (*Handler, *Controller) {
	t.Helper()
	ctrl := NewController(st, newDict(t), metrics.New())
	return NewHandler(ctrl, NewPending(0, 0), Links{BotUsername: "wordlebot"}), ctrl
}

func private(from game.Player, text string) Message {
	m := Message{ChatID: from.ID, Private: true, From: from, Text: text}
	if strings.HasPrefix(text, "/") {
		cmd, args, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
		m.Command, m.Args = cmd, args
	}
	return m
}

func inGroup(from game.Player, text string) Message {
	m := private(from, text)
	m.ChatID, m.Private = group, false
	return m
}

func TestFullRound(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t, store.NewMemoryStore())

	r := h.Handle(ctx, inGroup(sam, "/start"))
	assert.Equal(t, render.SetWordLink("https://t.me/wordlebot"), r.Text)
	assert.True(t, r.Markdown)

	assert.Equal(t, render.AskForWord, h.Handle(ctx, private(sam, "/start")).Text)

	r = h.Handle(ctx, private(sam, "Mango"))
	assert.Equal(t, render.ChooseChatLink("mango", "https://t.me/wordlebot?startgroup=start-game"), r.Text)
	assert.True(t, r.Markdown)

	r = h.Handle(ctx, inGroup(sam, "/start start-game"))
	assert.Equal(t, render.GameStarted(sam, 5), r.Text)

	// The pending word is consumed once the round exists.
	assert.Equal(t, render.PendingExpired, h.Handle(ctx, inGroup(sam, "/start start-game")).Text)

	r = h.Handle(ctx, inGroup(alice, "/guess groan"))
	assert.Contains(t, r.Text, "groan (1/6) by @alice")

	r = h.Handle(ctx, inGroup(alice, "/guess MANGO"))
	assert.Contains(t, r.Text, "Congratulations!")

	assert.Equal(t, render.NoOngoingGame, h.Handle(ctx, inGroup(alice, "/guess tango")).Text)
	assert.Contains(t, h.Handle(ctx, inGroup(sam, "/history")).Text, "mango (2/6) by @alice")
}

func TestPrivateWordRejected(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t, store.NewMemoryStore())

	h.Handle(ctx, private(sam, "/start"))
	assert.Equal(t, render.InvalidAnswerPrivate, h.Handle(ctx, private(sam, "zzzzz")).Text)
	assert.Equal(t, render.InvalidAnswerPrivate, h.Handle(ctx, private(sam, "cat")).Text)

	// Still waiting for a word after a rejection.
	r := h.Handle(ctx, private(sam, "crane"))
	assert.Contains(t, r.Text, "CRANE")
}

func TestPlainTextIgnoredWhenNotAwaiting(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t, store.NewMemoryStore())

	assert.True(t, h.Handle(ctx, private(sam, "mango")).Empty())
	assert.True(t, h.Handle(ctx, inGroup(sam, "mango")).Empty())
	assert.True(t, h.Handle(ctx, inGroup(sam, "/unknown")).Empty())
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t, store.NewMemoryStore())

	h.Handle(ctx, private(sam, "/start"))
	assert.Equal(t, render.Cancelled, h.Handle(ctx, private(sam, "/cancel")).Text)
	assert.True(t, h.Handle(ctx, private(sam, "mango")).Empty())
}

func TestGroupStartWhileOngoing(t *testing.T) {
	ctx := context.Background()
	h, ctrl := newHandler(t, store.NewMemoryStore())

	_, created := ctrl.TryCreateGame(ctx, group, "mango", sam)
	require.True(t, created)

	assert.Equal(t, render.GroupGameOngoing, h.Handle(ctx, inGroup(alice, "/start")).Text)

	h.Handle(ctx, private(alice, "/start"))
	h.Handle(ctx, private(alice, "crane"))
	assert.Equal(t, render.GameOngoing, h.Handle(ctx, inGroup(alice, "/start start-game")).Text)

	// A refused start keeps the word for a later attempt.
	_, ok := h.pending.Word(alice.ID)
	assert.True(t, ok)
}

func TestPrivateGameCommands(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t, store.NewMemoryStore())

	assert.Equal(t, render.NotSolitaire, h.Handle(ctx, private(sam, "/guess mango")).Text)
	assert.Equal(t, render.NotSolitaire, h.Handle(ctx, private(sam, "/history")).Text)
	assert.Equal(t, render.Help, h.Handle(ctx, private(sam, "/help")).Text)
}

func TestGuessValidation(t *testing.T) {
	ctx := context.Background()
	h, ctrl := newHandler(t, store.NewMemoryStore())

	assert.Equal(t, render.NoOngoingGame, h.Handle(ctx, inGroup(alice, "/guess mango")).Text)

	_, created := ctrl.TryCreateGame(ctx, group, "mango", sam)
	require.True(t, created)

	assert.Equal(t, render.GuessUsage, h.Handle(ctx, inGroup(alice, "/guess")).Text)
	assert.Equal(t, render.InvalidGuess("zzzzz", 5), h.Handle(ctx, inGroup(alice, "/guess zzzzz")).Text)
	assert.Equal(t, render.InvalidGuess("tent", 5), h.Handle(ctx, inGroup(alice, "/guess tent")).Text)
	assert.Equal(t, render.NoGuessesYet, h.Handle(ctx, inGroup(alice, "/history")).Text)
}

func TestHistoryWithoutGame(t *testing.T) {
	h, _ := newHandler(t, store.NewMemoryStore())
	assert.Equal(t, render.NoGamesPlayed, h.Handle(context.Background(), inGroup(alice, "/history")).Text)
}

func TestLossRevealsAnswerAndAllowsNewRound(t *testing.T) {
	ctx := context.Background()
	_, ctrl := newHandler(t, store.NewMemoryStore())

	_, created := ctrl.TryCreateGame(ctx, group, "mango", sam)
	require.True(t, created)

	var last string
	for i := 0; i < game.MaxGuesses; i++ {
		last = ctrl.TryGuess(ctx, group, "groan", alice)
	}
	assert.Contains(t, last, "The word was MANGO.")

	ongoing, err := ctrl.IsOngoing(ctx, group)
	require.NoError(t, err)
	assert.False(t, ongoing)

	msg, created := ctrl.TryCreateGame(ctx, group, "crane", alice)
	assert.True(t, created, msg)
}

func TestTryCreateGameRejectsIllegalAnswer(t *testing.T) {
	_, ctrl := newHandler(t, store.NewMemoryStore())
	msg, created := ctrl.TryCreateGame(context.Background(), group, "qqqqq", sam)
	assert.False(t, created)
	assert.Equal(t, render.InvalidAnswer, msg)
}

type brokenStore struct{ store.Store }

var errDown = errors.New("database is down")

func (brokenStore) GetActive(context.Context, int64) (*game.Session, error) { return nil, errDown }

func (brokenStore) Create(context.Context, int64, string, game.Player) (*game.Session, error) {
	return nil, errDown
}

func TestStoreFailures(t *testing.T) {
	ctx := context.Background()
	h, ctrl := newHandler(t, brokenStore{})

	assert.Equal(t, render.ReadServerFail, h.Handle(ctx, inGroup(sam, "/start")).Text)
	assert.Equal(t, render.GuessServerFail, h.Handle(ctx, inGroup(sam, "/guess mango")).Text)
	assert.Equal(t, render.ReadServerFail, h.Handle(ctx, inGroup(sam, "/history")).Text)

	msg, created := ctrl.TryCreateGame(ctx, group, "mango", sam)
	assert.False(t, created)
	assert.Equal(t, render.StartServerFail, msg)
}

type staleStore struct {
	store.Store
}

func (s staleStore) AppendGuess(context.Context, *game.Session, game.Guess) (*game.Session, error) {
	return nil, store.ErrStaleSession
}

func TestStaleGuess(t *testing.T) {
	ctx := context.Background()
	_, ctrl := newHandler(t, staleStore{store.NewMemoryStore()})

	_, created := ctrl.TryCreateGame(ctx, group, "mango", sam)
	require.True(t, created)
	assert.Equal(t, render.StaleGuess, ctrl.TryGuess(ctx, group, "groan", alice))
}

func TestPendingExpires(t *testing.T) {
	p := NewPending(10, 20*time.Millisecond)
	p.SetWord(sam.ID, "mango")

	w, ok := p.Word(sam.ID)
	require.True(t, ok)
	assert.Equal(t, "mango", w)
	assert.False(t, p.Awaiting(sam.ID))

	time.Sleep(50 * time.Millisecond)
	_, ok = p.Word(sam.ID)
	assert.False(t, ok)
}

func TestPendingCapacity(t *testing.T) {
	p := NewPending(2, time.Minute)
	p.AwaitWord(1)
	p.AwaitWord(2)
	p.AwaitWord(3)
	assert.Equal(t, 2, p.Len())
	assert.False(t, p.Awaiting(1))
	assert.True(t, p.Awaiting(3))
}

func TestLinks(t *testing.T) {
	l := Links{BotUsername: "wordlebot"}
	assert.Equal(t, "https://t.me/wordlebot", l.Private(""))
	assert.Equal(t, "https://t.me/wordlebot?start=x", l.Private("x"))
	assert.Equal(t, "https://t.me/wordlebot?startgroup=start-game", l.Group(StartGamePayload))
}
