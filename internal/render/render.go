// Package render turns game state into chat text.
package render

import (
	"fmt"
	"strings"

	"github.com/robalobadob/wordle-with-friends/internal/game"
)

const (
	GreenSquare  = "\U0001F7E9"
	YellowSquare = "\U0001F7E8"
	BlackSquare  = "\U00002B1B"
)

// Square returns the tile for a verdict.
func Square(v game.Verdict) string {
	switch v {
	case game.Exact:
		return GreenSquare
	case game.Present:
		return YellowSquare
	default:
		return BlackSquare
	}
}

// Result renders one row of tiles.
func Result(r game.GuessResult) string {
	var b strings.Builder
	for _, v := range r {
		b.WriteString(Square(v))
	}
	return b.String()
}

// History renders every guess of a round, oldest first.
func History(s *game.Session) string {
	if s == nil {
		return NoGamesPlayed
	}
	if len(s.Guesses) == 0 {
		return NoGuessesYet
	}

	rows := make([]string, len(s.Guesses))
	for i, g := range s.Guesses {
		rows[i] = fmt.Sprintf("%s (%d/%d) by %s\n%s",
			g.Word, i+1, game.MaxGuesses, Mention(g.By), Result(game.Score(g.Word, s.Answer)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Game started by %s\n", Mention(s.Setter))
	b.WriteString(strings.Join(rows, "\n"))
	switch {
	case game.Won(s):
		b.WriteString("\nCongratulations!")
	case game.IsComplete(s):
		fmt.Fprintf(&b, "\nOut of guesses! The word was %s.", strings.ToUpper(s.Answer))
	}
	return b.String()
}

var keyboardRows = []string{"qwertyuiop", "asdfghjkl", "zxcvbnm"}

// Keyboard lists guessed letters grouped by verdict, in keyboard order.
// Letters that were never guessed are left out.
func Keyboard(k game.KeyboardState) string {
	if len(k) == 0 {
		return ""
	}
	groups := map[game.Verdict][]string{}
	for _, row := range keyboardRows {
		for _, r := range row {
			if v := k.Get(r); v != game.Unknown {
				groups[v] = append(groups[v], strings.ToUpper(string(r)))
			}
		}
	}

	var lines []string
	for _, v := range []game.Verdict{game.Exact, game.Present, game.Absent} {
		if len(groups[v]) > 0 {
			lines = append(lines, Square(v)+" "+strings.Join(groups[v], " "))
		}
	}
	return strings.Join(lines, "\n")
}

// Board is the history followed by the keyboard summary.
func Board(s *game.Session) string {
	h := History(s)
	if s == nil || len(s.Guesses) == 0 {
		return h
	}
	if kb := Keyboard(game.Keyboard(s)); kb != "" {
		return h + "\n\n" + kb
	}
	return h
}

// Mention formats a player for chat text.
func Mention(p game.Player) string {
	if p.Username != "" {
		return "@" + p.Username
	}
	return fmt.Sprintf("player %d", p.ID)
}
