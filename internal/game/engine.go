// internal/game/engine.go
//
// Pure game logic for a single Wordle with Friends round.
// Responsibilities:
//   - Score guesses using the two-pass, exact-first algorithm.
//   - Aggregate the best verdict per letter for keyboard highlighting.
//   - Derive whether a round is still running from its guess log.
//
// Notes:
//   - Nothing here touches storage; every function is safe for concurrent use.
//   - Callers validate length and legality first; a length mismatch panics.
package game

import (
	"fmt"
	"strings"
)

// Score implements the standard Wordle two-pass scoring algorithm.
//
// Pass 1:
//   - Mark exact matches as Exact and claim those answer positions.
//
// Pass 2:
//   - For each remaining guess letter, scan the answer left to right and
//     claim the first unclaimed position holding the same letter (Present).
//   - Anything left over stays Absent.
//
// Earlier guess positions claim before later ones, so a repeated guess letter
// is credited at most as many times as it remains unclaimed in the answer.
func Score(guess, answer string) GuessResult {
	g, a := []rune(guess), []rune(answer)
	if len(g) != len(a) {
		panic(fmt.Sprintf("game: score %q against %q: length mismatch", guess, answer))
	}

	res := make(GuessResult, len(g))
	claimed := make([]bool, len(a))
	for i := range res {
		res[i] = Absent
	}

	for i := range g {
		if g[i] == a[i] {
			res[i] = Exact
			claimed[i] = true
		}
	}

	for i := range g {
		if res[i] == Exact {
			continue
		}
		for j := range a {
			if !claimed[j] && a[j] == g[i] {
				res[i] = Present
				claimed[j] = true
				break
			}
		}
	}
	return res
}

// Aggregate derives the keyboard state from every guess of a round.
//
// A letter contributes Exact where it sits in the right position, Present if
// it occurs anywhere in the answer, and Absent otherwise. Contributions merge
// by maximum, so a letter never loses a verdict once earned.
//
// The whole history is reprocessed on each call; rounds are capped at
// MaxGuesses so the cost stays trivial.
func Aggregate(guesses []string, answer string) KeyboardState {
	a := []rune(answer)
	state := make(KeyboardState)
	for _, guess := range guesses {
		g := []rune(guess)
		if len(g) != len(a) {
			panic(fmt.Sprintf("game: aggregate %q against %q: length mismatch", guess, answer))
		}
		for i, r := range g {
			v := Absent
			switch {
			case r == a[i]:
				v = Exact
			case strings.ContainsRune(answer, r):
				v = Present
			}
			if v > state[r] {
				state[r] = v
			}
		}
	}
	return state
}

// Keyboard is Aggregate over a session snapshot.
func Keyboard(s *Session) KeyboardState {
	if s == nil {
		return KeyboardState{}
	}
	return Aggregate(s.Words(), s.Answer)
}

// Results scores every guess of a session in order.
func Results(s *Session) []GuessResult {
	if s == nil {
		return nil
	}
	out := make([]GuessResult, len(s.Guesses))
	for i, g := range s.Guesses {
		out[i] = Score(g.Word, s.Answer)
	}
	return out
}

// IsOngoing reports whether a round exists and can still take guesses.
func IsOngoing(s *Session) bool {
	if s == nil {
		return false
	}
	n := len(s.Guesses)
	if n == 0 {
		return true
	}
	return n < MaxGuesses && s.Guesses[n-1].Word != s.Answer
}

// IsComplete reports whether the round ended, by a correct guess or by
// running out of tries.
func IsComplete(s *Session) bool {
	if s == nil {
		return false
	}
	return len(s.Guesses) >= MaxGuesses || Won(s)
}

// Won reports whether the latest guess matched the answer.
func Won(s *Session) bool {
	if s == nil || len(s.Guesses) == 0 {
		return false
	}
	return s.Guesses[len(s.Guesses)-1].Word == s.Answer
}
