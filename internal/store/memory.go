// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Used for tests and local development, when durability is not required.
//
// Characteristics:
//   - Sessions are keyed by chat id; a new round overwrites the old one.
//   - A single mutex makes every read-check-write sequence atomic.
//   - Sessions are copied on the way in and out, so callers never share state.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/wordle-with-friends/internal/game"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu    sync.Mutex              // guards games map
	games map[int64]*game.Session // keyed by chat id
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{games: make(map[int64]*game.Session)}
}

func (m *memory) GetActive(ctx context.Context, chatID int64) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.games[chatID]), nil
}

func (m *memory) Create(ctx context.Context, chatID int64, answer string, setter game.Player) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if game.IsOngoing(m.games[chatID]) {
		return nil, ErrGameOngoing
	}
	s := &game.Session{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Setter:    setter,
		Answer:    answer,
		CreatedAt: time.Now().UTC(),
	}
	m.games[chatID] = s
	return clone(s), nil
}

func (m *memory) AppendGuess(ctx context.Context, s *game.Session, g game.Guess) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.games[s.ChatID]
	if err := checkAppend(cur, s); err != nil {
		return nil, err
	}
	cur.Guesses = append(cur.Guesses, g)
	return clone(cur), nil
}

func (m *memory) Close() error { return nil }

func clone(s *game.Session) *game.Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Guesses = append([]game.Guess(nil), s.Guesses...)
	return &out
}
