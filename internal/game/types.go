// internal/game/types.go
//
// Core type definitions for the Wordle with Friends game engine.
// Defines:
//   - Verdict: per-letter result of a guess (exact/present/absent).
//   - GuessResult: ordered verdicts for one guess.
//   - KeyboardState: best verdict seen per letter across a round.
//   - Player, Guess, Session: the snapshot handed over by the session store.

package game

import (
	"fmt"
	"time"
)

// MaxGuesses is the number of tries a chat gets per round.
const MaxGuesses = 6

// Verdict represents the evaluation result for a single letter in a guess.
// Values are ordered so that a larger Verdict is better news:
// Exact > Present > Absent > Unknown.
type Verdict uint8

const (
	// Unknown is only reported for letters that were never guessed.
	Unknown Verdict = iota
	Absent
	Present
	Exact
)

func (v Verdict) String() string {
	switch v {
	case Absent:
		return "absent"
	case Present:
		return "present"
	case Exact:
		return "exact"
	default:
		return "unknown"
	}
}

// MarshalText renders the verdict name, so JSON snapshots read "exact" rather than 3.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses a verdict name produced by MarshalText.
func (v *Verdict) UnmarshalText(b []byte) error {
	switch string(b) {
	case "unknown":
		*v = Unknown
	case "absent":
		*v = Absent
	case "present":
		*v = Present
	case "exact":
		*v = Exact
	default:
		return fmt.Errorf("game: unknown verdict %q", string(b))
	}
	return nil
}

// GuessResult holds one verdict per character position of a guess.
type GuessResult []Verdict

// Solved reports whether every position is Exact.
func (r GuessResult) Solved() bool {
	if len(r) == 0 {
		return false
	}
	for _, v := range r {
		if v != Exact {
			return false
		}
	}
	return true
}

// KeyboardState maps a letter to the best verdict observed for it.
// Letters that were never guessed have no entry.
type KeyboardState map[rune]Verdict

// Get returns the recorded verdict for r, or Unknown.
func (k KeyboardState) Get(r rune) Verdict {
	if v, ok := k[r]; ok {
		return v
	}
	return Unknown
}

// Player identifies a chat member.
type Player struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Guess is a submitted word and who submitted it.
type Guess struct {
	Word string `json:"word"`
	By   Player `json:"by"`
}

// Session holds the persisted state of one round in one chat.
type Session struct {
	ID        string    // Unique game identifier.
	ChatID    int64     // Chat the round is played in.
	Setter    Player    // Player who chose the answer.
	Answer    string    // The solution word (always lowercase).
	Guesses   []Guess   // Guesses in submission order.
	CreatedAt time.Time // When the round was started.
}

// Words returns the guessed words in submission order.
func (s *Session) Words() []string {
	out := make([]string, len(s.Guesses))
	for i, g := range s.Guesses {
		out[i] = g.Word
	}
	return out
}
