// internal/bot/controller.go
//
// Game controller for one chat at a time.
// Responsibilities:
//   - Validate answers and guesses against the dictionary.
//   - Create rounds and append guesses through the session store.
//   - Turn every outcome, including storage failures, into reply text.
//
// Storage failures never leave a half-applied state visible to players: the
// store either committed the whole write or nothing, and the reply asks the
// player to retry.

package bot

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle-with-friends/internal/game"
	"github.com/robalobadob/wordle-with-friends/internal/metrics"
	"github.com/robalobadob/wordle-with-friends/internal/render"
	"github.com/robalobadob/wordle-with-friends/internal/store"
	"github.com/robalobadob/wordle-with-friends/internal/words"
)

// Controller applies game commands against the session store.
type Controller struct {
	store   store.Store
	dict    *words.Dictionary
	metrics *metrics.Metrics
}

// NewController wires a Controller. m may be nil.
func NewController(st store.Store, dict *words.Dictionary, m *metrics.Metrics) *Controller {
	return &Controller{store: st, dict: dict, metrics: m}
}

// LegalAnswer reports whether w may be used as an answer.
func (c *Controller) LegalAnswer(w string) bool {
	return c.dict.IsLegalAnswer(w)
}

// IsOngoing reports whether chatID has a round that still takes guesses.
func (c *Controller) IsOngoing(ctx context.Context, chatID int64) (bool, error) {
	s, err := c.store.GetActive(ctx, chatID)
	if err != nil {
		c.storeFailed("get", chatID, err)
		return false, err
	}
	return game.IsOngoing(s), nil
}

// TryCreateGame starts a round in chatID. The bool reports whether a round was created.
func (c *Controller) TryCreateGame(ctx context.Context, chatID int64, answer string, setter game.Player) (string, bool) {
	answer = words.Normalize(answer)
	if !c.dict.IsLegalAnswer(answer) {
		return render.InvalidAnswer, false
	}

	s, err := c.store.Create(ctx, chatID, answer, setter)
	switch {
	case errors.Is(err, store.ErrGameOngoing):
		return render.GameOngoing, false
	case err != nil:
		c.storeFailed("create", chatID, err)
		return render.StartServerFail, false
	}

	if c.metrics != nil {
		c.metrics.GamesStarted.Inc()
	}
	log.Info().Int64("chat", chatID).Str("game", s.ID).Int64("setter", setter.ID).Msg("game started")
	return render.GameStarted(setter, len(answer)), true
}

// TryGuess scores word for by and returns the updated board.
func (c *Controller) TryGuess(ctx context.Context, chatID int64, word string, by game.Player) string {
	word = words.Normalize(word)

	s, err := c.store.GetActive(ctx, chatID)
	if err != nil {
		c.storeFailed("get", chatID, err)
		c.countGuess(metrics.OutcomeError)
		return render.GuessServerFail
	}
	if !game.IsOngoing(s) {
		c.countGuess(metrics.OutcomeOver)
		return render.NoOngoingGame
	}
	if !c.dict.IsLegalGuess(word, len(s.Answer)) {
		c.countGuess(metrics.OutcomeIllegal)
		return render.InvalidGuess(word, len(s.Answer))
	}

	updated, err := c.store.AppendGuess(ctx, s, game.Guess{Word: word, By: by})
	switch {
	case errors.Is(err, store.ErrStaleSession):
		c.countGuess(metrics.OutcomeStale)
		return render.StaleGuess
	case errors.Is(err, store.ErrGameOver):
		c.countGuess(metrics.OutcomeOver)
		return render.NoOngoingGame
	case err != nil:
		c.storeFailed("append", chatID, err)
		c.countGuess(metrics.OutcomeError)
		return render.GuessServerFail
	}

	c.countGuess(metrics.OutcomeAccepted)
	if game.IsComplete(updated) {
		result := "lost"
		if game.Won(updated) {
			result = "won"
		}
		if c.metrics != nil {
			c.metrics.GamesFinished.WithLabelValues(result).Inc()
		}
		log.Info().Int64("chat", chatID).Str("game", updated.ID).Str("result", result).
			Int("guesses", len(updated.Guesses)).Msg("game finished")
	}
	return render.Board(updated)
}

// History renders the current round of chatID.
func (c *Controller) History(ctx context.Context, chatID int64) string {
	s, err := c.store.GetActive(ctx, chatID)
	if err != nil {
		c.storeFailed("get", chatID, err)
		return render.ReadServerFail
	}
	return render.Board(s)
}

// Snapshot returns the current round of chatID for read-only consumers.
func (c *Controller) Snapshot(ctx context.Context, chatID int64) (*game.Session, error) {
	s, err := c.store.GetActive(ctx, chatID)
	if err != nil {
		c.storeFailed("get", chatID, err)
		return nil, err
	}
	return s, nil
}

func (c *Controller) storeFailed(op string, chatID int64, err error) {
	log.Error().Err(err).Str("op", op).Int64("chat", chatID).Msg("session store failure")
	if c.metrics != nil {
		c.metrics.StoreErrors.WithLabelValues(op).Inc()
	}
}

func (c *Controller) countGuess(outcome string) {
	if c.metrics != nil {
		c.metrics.Guesses.WithLabelValues(outcome).Inc()
	}
}
