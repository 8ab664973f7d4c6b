// internal/store/store.go
//
// Persistence contract for game sessions.
//
// One session is active per chat. Implementations guarantee that the
// "read session, check it, append guess" sequence is atomic per chat, so two
// members guessing at the same moment cannot both land on the same slot.
//
// Sentinel errors describe refused writes; any other error is a storage
// failure and leaves the session state unknown to the caller.

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/robalobadob/wordle-with-friends/internal/game"
)

var (
	// ErrGameOngoing is returned by Create when the chat still has a running round.
	ErrGameOngoing = errors.New("store: game ongoing")
	// ErrStaleSession is returned by AppendGuess when the caller's snapshot is outdated.
	ErrStaleSession = errors.New("store: stale session")
	// ErrGameOver is returned by AppendGuess when the round already ended.
	ErrGameOver = errors.New("store: game over")
	// ErrUnknownDriver is returned by Open for unsupported drivers.
	ErrUnknownDriver = errors.New("store: unknown driver")
)

// Store defines the persistence interface for game sessions.
type Store interface {
	// GetActive returns the latest session of a chat, or nil if the chat never played.
	GetActive(ctx context.Context, chatID int64) (*game.Session, error)

	// Create starts a new round, replacing a finished one.
	// Returns ErrGameOngoing if the current round is still running.
	Create(ctx context.Context, chatID int64, answer string, setter game.Player) (*game.Session, error)

	// AppendGuess appends g to the round s was read from and returns the updated session.
	AppendGuess(ctx context.Context, s *game.Session, g game.Guess) (*game.Session, error)

	// Close releases underlying resources.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver string `koanf:"driver"` // "memory" | "sqlite" | "postgres"
	DSN    string `koanf:"dsn"`    // file path for sqlite, connection URL for postgres
}

// Open constructs the configured backend, applying migrations where relevant.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite", "sqlite3":
		st, err := OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres", "postgresql":
		st, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// checkAppend validates a snapshot against the current stored round.
func checkAppend(cur, snapshot *game.Session) error {
	if cur == nil || cur.ID != snapshot.ID || len(cur.Guesses) != len(snapshot.Guesses) {
		return ErrStaleSession
	}
	if !game.IsOngoing(cur) {
		return ErrGameOver
	}
	return nil
}

// migrationFiles lists *.sql files under dir in lexical order.
func migrationFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			continue
		}
		files = append(files, dir+"/"+e.Name())
	}
	sort.Strings(files)
	return files, nil
}
