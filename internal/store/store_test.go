package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle-with-friends/internal/game"
)

var (
	setter = game.Player{ID: 10, Username: "setter"}
	alice  = game.Player{ID: 11, Username: "alice"}
	bob    = game.Player{ID: 12, Username: "bob"}
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	b := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "wordle.db"))
			require.NoError(t, err)
			return s
		},
	}
	if url := os.Getenv("WORDLE_TEST_DATABASE_URL"); url != "" {
		b["postgres"] = func(t *testing.T) Store {
			s, err := OpenPostgres(context.Background(), url)
			require.NoError(t, err)
			return s
		}
	}
	return b
}

func TestStoreContract(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := open(t)
			defer st.Close()
			chat := int64(-1000 - len(name))

			t.Run("no game yet", func(t *testing.T) {
				s, err := st.GetActive(ctx, chat)
				require.NoError(t, err)
				assert.Nil(t, s)
			})

			created, err := st.Create(ctx, chat, "mango", setter)
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, "mango", created.Answer)
			assert.Equal(t, setter, created.Setter)
			assert.Empty(t, created.Guesses)

			t.Run("create refused while ongoing", func(t *testing.T) {
				_, err := st.Create(ctx, chat, "groan", setter)
				assert.ErrorIs(t, err, ErrGameOngoing)
			})

			s, err := st.AppendGuess(ctx, created, game.Guess{Word: "groan", By: alice})
			require.NoError(t, err)
			require.Len(t, s.Guesses, 1)

			t.Run("stale snapshot refused", func(t *testing.T) {
				_, err := st.AppendGuess(ctx, created, game.Guess{Word: "brick", By: bob})
				assert.ErrorIs(t, err, ErrStaleSession)
			})

			s, err = st.AppendGuess(ctx, s, game.Guess{Word: "mango", By: bob})
			require.NoError(t, err)

			got, err := st.GetActive(ctx, chat)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, created.ID, got.ID)
			assert.Equal(t, []game.Guess{{Word: "groan", By: alice}, {Word: "mango", By: bob}}, got.Guesses)
			assert.True(t, game.Won(got))

			t.Run("append after win refused", func(t *testing.T) {
				_, err := st.AppendGuess(ctx, got, game.Guess{Word: "brick", By: alice})
				assert.ErrorIs(t, err, ErrGameOver)
			})

			t.Run("finished game replaced wholesale", func(t *testing.T) {
				next, err := st.Create(ctx, chat, "tent", setter)
				require.NoError(t, err)
				assert.NotEqual(t, created.ID, next.ID)

				cur, err := st.GetActive(ctx, chat)
				require.NoError(t, err)
				assert.Equal(t, next.ID, cur.ID)
				assert.Equal(t, "tent", cur.Answer)
				assert.Empty(t, cur.Guesses)

				_, err = st.AppendGuess(ctx, got, game.Guess{Word: "brick", By: alice})
				assert.ErrorIs(t, err, ErrStaleSession)
			})

			t.Run("chats are independent", func(t *testing.T) {
				other, err := st.GetActive(ctx, chat+1)
				require.NoError(t, err)
				assert.Nil(t, other)
			})
		})
	}
}

func TestConcurrentGuessesSingleWinner(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := open(t)
			defer st.Close()
			chat := int64(-2000 - len(name))

			snapshot, err := st.Create(ctx, chat, "mango", setter)
			require.NoError(t, err)

			const writers = 8
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				accepted int
				stale    int
			)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := st.AppendGuess(ctx, snapshot, game.Guess{Word: "groan", By: game.Player{ID: int64(i)}})
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						accepted++
					case errors.Is(err, ErrStaleSession):
						stale++
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}(i)
			}
			wg.Wait()

			assert.Equal(t, 1, accepted)
			assert.Equal(t, writers-1, stale)

			cur, err := st.GetActive(ctx, chat)
			require.NoError(t, err)
			assert.Len(t, cur.Guesses, 1)
		})
	}
}

func TestSixGuessesEndTheRound(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s, err := st.Create(ctx, 1, "mango", setter)
	require.NoError(t, err)

	for i := 0; i < game.MaxGuesses; i++ {
		s, err = st.AppendGuess(ctx, s, game.Guess{Word: "groan", By: alice})
		require.NoError(t, err)
	}
	_, err = st.AppendGuess(ctx, s, game.Guess{Word: "mango", By: alice})
	assert.ErrorIs(t, err, ErrGameOver)

	_, err = st.Create(ctx, 1, "tent", setter)
	assert.NoError(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: "memory"})
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	s, err = Open(ctx, Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "w.db")})
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	_, err = Open(ctx, Config{Driver: "mongo"})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = Open(ctx, Config{Driver: "postgres"})
	assert.Error(t, err)
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "w.db")

	first, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = first.Create(ctx, 5, "mango", setter)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	var applied int
	require.NoError(t, second.db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)

	s, err := second.GetActive(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "mango", s.Answer)
}

func TestSQLiteDuplicateOrdinalIsConstraint(t *testing.T) {
	ctx := context.Background()
	st, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "w.db"))
	require.NoError(t, err)
	defer st.Close()

	created, err := st.Create(ctx, 7, "mango", setter)
	require.NoError(t, err)
	_, err = st.AppendGuess(ctx, created, game.Guess{Word: "groan", By: alice})
	require.NoError(t, err)

	err = st.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO guesses (game_id, ordinal, word, by_id, by_username, created_at)
			VALUES (?, 0, 'tango', ?, ?, '2024-01-01T00:00:00Z')`,
			created.ID, bob.ID, bob.Username)
		return err
	})
	require.Error(t, err)
	assert.True(t, isSQLiteConstraint(err), err)

	assert.False(t, isSQLiteConstraint(nil))
	assert.False(t, isSQLiteConstraint(errors.New("disk I/O error")))

	got, err := st.GetActive(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got.Guesses, 1)
	assert.Equal(t, "groan", got.Guesses[0].Word)
}

func TestPostgresUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert guess: %w", dup)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "40001"}))
	assert.False(t, isUniqueViolation(errors.New("connection reset")))
	assert.False(t, isUniqueViolation(nil))
}

func TestSQLiteCorruptTimestamp(t *testing.T) {
	ctx := context.Background()
	st, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "w.db"))
	require.NoError(t, err)
	defer st.Close()

	_, err = st.db.ExecContext(ctx, `
		INSERT INTO games (id, chat_id, setter_id, setter_username, answer, created_at)
		VALUES ('broken', 8, 1, 'sam', 'mango', 'yesterday')`)
	require.NoError(t, err)

	s, err := st.GetActive(ctx, 8)
	assert.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "created_at")
}
