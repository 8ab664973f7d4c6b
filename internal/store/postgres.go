// internal/store/postgres.go
//
// PostgreSQL implementation of the Store interface, on a pgx connection pool.
//
// Every write takes a transaction-scoped advisory lock on the chat id, so
// create and append are serialized per chat without blocking other chats.

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle-with-friends/internal/game"
	"github.com/robalobadob/wordle-with-friends/internal/store/migrations"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Postgres is a Store backed by a PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// pgQuerier is satisfied by *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// OpenPostgres connects to databaseURL and migrates the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, errors.New("store: postgres requires a database URL")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migratePostgres(ctx, pool, migrations.FS); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

// migratePostgres mirrors migrateSQLite for the postgres directory.
func migratePostgres(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	files, err := migrationFiles(fsys, "postgres")
	if err != nil {
		return err
	}
	for _, f := range files {
		var done int
		err := pool.QueryRow(ctx, `SELECT 1 FROM _migrations WHERE name=$1`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := fs.ReadFile(fsys, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
				return fmt.Errorf("apply %s: %w", f, err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO _migrations(name) VALUES ($1)`, f); err != nil {
				return fmt.Errorf("record %s: %w", f, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// withChatTx runs fn in a transaction holding the chat's advisory lock.
func (p *Postgres) withChatTx(ctx context.Context, chatID int64, fn func(tx pgx.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, chatID); err != nil {
		return fmt.Errorf("lock chat %d: %w", chatID, err)
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (p *Postgres) GetActive(ctx context.Context, chatID int64) (*game.Session, error) {
	sess, err := loadPostgres(ctx, p.pool, chatID)
	if err != nil {
		return nil, fmt.Errorf("get game for chat %d: %w", chatID, err)
	}
	return sess, nil
}

func (p *Postgres) Create(ctx context.Context, chatID int64, answer string, setter game.Player) (*game.Session, error) {
	sess := &game.Session{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Setter:    setter,
		Answer:    answer,
		CreatedAt: time.Now().UTC(),
	}
	err := p.withChatTx(ctx, chatID, func(tx pgx.Tx) error {
		cur, err := loadPostgres(ctx, tx, chatID)
		if err != nil {
			return fmt.Errorf("load current game: %w", err)
		}
		if game.IsOngoing(cur) {
			return ErrGameOngoing
		}
		if _, err := tx.Exec(ctx, `DELETE FROM games WHERE chat_id=$1`, chatID); err != nil {
			return fmt.Errorf("delete old game: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO games (id, chat_id, setter_id, setter_username, answer, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			sess.ID, chatID, setter.ID, setter.Username, answer, sess.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert game: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (p *Postgres) AppendGuess(ctx context.Context, snapshot *game.Session, g game.Guess) (*game.Session, error) {
	var out *game.Session
	err := p.withChatTx(ctx, snapshot.ChatID, func(tx pgx.Tx) error {
		cur, err := loadPostgres(ctx, tx, snapshot.ChatID)
		if err != nil {
			return fmt.Errorf("load current game: %w", err)
		}
		if err := checkAppend(cur, snapshot); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO guesses (game_id, ordinal, word, by_id, by_username)
			VALUES ($1, $2, $3, $4, $5)`,
			cur.ID, len(cur.Guesses), g.Word, g.By.ID, g.By.Username,
		)
		if isUniqueViolation(err) {
			return ErrStaleSession
		}
		if err != nil {
			return fmt.Errorf("insert guess: %w", err)
		}
		cur.Guesses = append(cur.Guesses, g)
		out = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func loadPostgres(ctx context.Context, q pgQuerier, chatID int64) (*game.Session, error) {
	sess := &game.Session{ChatID: chatID}
	err := q.QueryRow(ctx, `
		SELECT id, setter_id, setter_username, answer, created_at
		FROM games WHERE chat_id=$1
		ORDER BY created_at DESC LIMIT 1`, chatID,
	).Scan(&sess.ID, &sess.Setter.ID, &sess.Setter.Username, &sess.Answer, &sess.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT word, by_id, by_username FROM guesses
		WHERE game_id=$1 ORDER BY ordinal ASC`, sess.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var g game.Guess
		if err := rows.Scan(&g.Word, &g.By.ID, &g.By.Username); err != nil {
			return nil, err
		}
		sess.Guesses = append(sess.Guesses, g)
	}
	return sess, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
