package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordle-with-friends/internal/config"
	"github.com/robalobadob/wordle-with-friends/internal/game"
	"github.com/robalobadob/wordle-with-friends/internal/words"
)

func newPlayCommand(load func() (*config.Config, error)) *cobra.Command {
	var answer string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a practice round in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			dict, err := words.Load(cfg.Words.File)
			if err != nil {
				return err
			}
			if answer == "" {
				answer = dict.RandomAnswer()
			} else if !dict.IsLegalAnswer(answer) {
				return fmt.Errorf("%q is not a legal answer", answer)
			}
			color.NoColor = !isatty.IsTerminal(os.Stdout.Fd())
			return play(cmd.InOrStdin(), cmd.OutOrStdout(), dict, words.Normalize(answer))
		},
	}
	cmd.Flags().StringVar(&answer, "word", "", "answer to play against (random when empty)")
	return cmd
}

var (
	exactTile   = color.New(color.BgGreen, color.FgBlack, color.Bold)
	presentTile = color.New(color.BgYellow, color.FgBlack, color.Bold)
	absentTile  = color.New(color.BgHiBlack, color.FgWhite)
)

// play runs one round reading guesses line by line from in.
func play(in io.Reader, out io.Writer, dict *words.Dictionary, answer string) error {
	s := &game.Session{Answer: answer, Setter: game.Player{Username: "wordlebot"}}
	fmt.Fprintf(out, "Guess the %d letter word. You have %d tries.\n", len(answer), game.MaxGuesses)

	sc := bufio.NewScanner(in)
	for game.IsOngoing(s) {
		fmt.Fprintf(out, "%d/%d> ", len(s.Guesses)+1, game.MaxGuesses)
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		guess := words.Normalize(sc.Text())
		if !dict.IsLegalGuess(guess, len(answer)) {
			fmt.Fprintf(out, "%q is not a legal %d letter word.\n", guess, len(answer))
			continue
		}
		s.Guesses = append(s.Guesses, game.Guess{Word: guess})
		fmt.Fprintln(out, tiles(guess, game.Score(guess, answer)))
		fmt.Fprintln(out, keyboardLine(game.Keyboard(s)))
	}

	if game.Won(s) {
		fmt.Fprintf(out, "Solved in %d/%d!\n", len(s.Guesses), game.MaxGuesses)
	} else {
		fmt.Fprintf(out, "Out of guesses! The word was %s.\n", strings.ToUpper(answer))
	}
	return nil
}

func tile(v game.Verdict) *color.Color {
	switch v {
	case game.Exact:
		return exactTile
	case game.Present:
		return presentTile
	default:
		return absentTile
	}
}

func tiles(guess string, r game.GuessResult) string {
	var b strings.Builder
	for i, ch := range strings.ToUpper(guess) {
		b.WriteString(tile(r[i]).Sprintf(" %c ", ch))
	}
	return b.String()
}

// keyboardLine prints the alphabet with every guessed letter colored.
func keyboardLine(k game.KeyboardState) string {
	var b strings.Builder
	for ch := 'a'; ch <= 'z'; ch++ {
		up := strings.ToUpper(string(ch))
		if v := k.Get(ch); v != game.Unknown {
			b.WriteString(tile(v).Sprint(up))
		} else {
			b.WriteString(up)
		}
	}
	return b.String()
}
