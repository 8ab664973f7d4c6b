// internal/store/sqlite.go
//
// SQLite implementation of the Store interface.
// Responsibilities:
//   - Opening the database file with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Per-chat atomic create/append inside transactions.
//
// A single connection is kept open, so transactions are serialized; this is
// what makes the read-check-append sequence atomic across goroutines.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle-with-friends/internal/game"
	"github.com/robalobadob/wordle-with-friends/internal/store/migrations"
)

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// OpenSQLite opens (and creates if missing) a SQLite database file and migrates it.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateSQLite(ctx, db, migrations.FS); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// openDB opens a SQLite database file.
//
//   - Ensures parent directory exists for relative DSNs (e.g. ./data/wordle.db).
//   - Configures busy timeout, WAL journaling and foreign keys per connection.
func openDB(dsn string) (*sql.DB, error) {
	if dsn == "" {
		dsn = "./data/wordle.db"
	}
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	return db, nil
}

// migrateSQLite applies migrations from the embedded sqlite directory.
//
//   - Uses a _migrations table to track applied files.
//   - Executes each *.sql file in lexical order inside its own transaction.
//   - Skips files that were already applied.
func migrateSQLite(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := migrationFiles(fsys, "sqlite")
	if err != nil {
		return err
	}

	for _, f := range files {
		var done int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := fs.ReadFile(fsys, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// withTx runs fn inside a transaction. The deferred rollback covers every
// exit path; it is a no-op after a successful commit.
func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLite) GetActive(ctx context.Context, chatID int64) (*game.Session, error) {
	sess, err := loadSQLite(ctx, s.db, chatID)
	if err != nil {
		return nil, fmt.Errorf("get game for chat %d: %w", chatID, err)
	}
	return sess, nil
}

func (s *SQLite) Create(ctx context.Context, chatID int64, answer string, setter game.Player) (*game.Session, error) {
	sess := &game.Session{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Setter:    setter,
		Answer:    answer,
		CreatedAt: time.Now().UTC(),
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := loadSQLite(ctx, tx, chatID)
		if err != nil {
			return fmt.Errorf("load current game: %w", err)
		}
		if game.IsOngoing(cur) {
			return ErrGameOngoing
		}
		if cur != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM guesses WHERE game_id IN (SELECT id FROM games WHERE chat_id=?)`, chatID); err != nil {
				return fmt.Errorf("delete old guesses: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM games WHERE chat_id=?`, chatID); err != nil {
				return fmt.Errorf("delete old game: %w", err)
			}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO games (id, chat_id, setter_id, setter_username, answer, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sess.ID, chatID, setter.ID, setter.Username, answer, sess.CreatedAt.Format(time.RFC3339Nano),
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

func (s *SQLite) AppendGuess(ctx context.Context, snapshot *game.Session, g game.Guess) (*game.Session, error) {
	var out *game.Session
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := loadSQLite(ctx, tx, snapshot.ChatID)
		if err != nil {
			return fmt.Errorf("load current game: %w", err)
		}
		if err := checkAppend(cur, snapshot); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO guesses (game_id, ordinal, word, by_id, by_username, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			cur.ID, len(cur.Guesses), g.Word, g.By.ID, g.By.Username, time.Now().UTC().Format(time.RFC3339Nano),
		)
		if isSQLiteConstraint(err) {
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

// Close closes the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// loadSQLite reads the latest game of a chat with its guesses in order.
func loadSQLite(ctx context.Context, q querier, chatID int64) (*game.Session, error) {
	sess := &game.Session{ChatID: chatID}
	var created string
	err := q.QueryRowContext(ctx, `
		SELECT id, setter_id, setter_username, answer, created_at
		FROM games WHERE chat_id=?
		ORDER BY created_at DESC LIMIT 1`, chatID,
	).Scan(&sess.ID, &sess.Setter.ID, &sess.Setter.Username, &sess.Answer, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parse created_at of game %s: %w", sess.ID, err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT word, by_id, by_username FROM guesses
		WHERE game_id=? ORDER BY ordinal ASC`, sess.ID)
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

func isSQLiteConstraint(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrConstraint
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
