// internal/words/words.go
//
// Legal-word oracle for the game.
//
// Responsibilities:
//   - Load the dictionary from a configured file or fall back to the embedded list.
//   - Answer membership questions case-insensitively.
//   - Enforce answer length rules (4 to 6 letters) and guess length rules.
//
// The Dictionary is built once at startup and never mutated afterwards, so a
// single value is shared read-only by every request.
//
// Word file format:
//   • One word per line; blank lines and lines starting with '#' are skipped.
//   • Words are lowercased; anything that is not a–z is dropped.

package words

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/robalobadob/wordle-with-friends/assets"
)

const (
	MinAnswerLen = 4
	MaxAnswerLen = 6
)

var (
	// ErrEmpty is returned when a word source yields no usable words.
	ErrEmpty = errors.New("words: dictionary is empty")
	// ErrNoAnswers is returned when no word has an answer-eligible length.
	ErrNoAnswers = errors.New("words: no 4 to 6 letter words")
)

// Dictionary is an immutable set of legal words.
type Dictionary struct {
	set     map[string]struct{}
	answers []string // words eligible as answers, in load order
}

// Load builds a Dictionary from path, or from the embedded list when path is empty.
func Load(path string) (*Dictionary, error) {
	var (
		r   io.ReadCloser
		err error
	)
	if path != "" {
		r, err = os.Open(path)
	} else {
		r, err = assets.OpenLegalWords()
	}
	if err != nil {
		return nil, fmt.Errorf("words: open list: %w", err)
	}
	defer r.Close()

	list, err := parseWords(r)
	if err != nil {
		return nil, fmt.Errorf("words: read list: %w", err)
	}
	return New(list)
}

// New builds a Dictionary from an in-memory list.
func New(list []string) (*Dictionary, error) {
	d := &Dictionary{set: make(map[string]struct{}, len(list))}
	for _, raw := range list {
		w := strings.TrimSpace(strings.ToLower(raw))
		if w == "" || !isAlpha(w) {
			continue
		}
		if _, dup := d.set[w]; dup {
			continue
		}
		d.set[w] = struct{}{}
		if answerLength(w) {
			d.answers = append(d.answers, w)
		}
	}
	if len(d.set) == 0 {
		return nil, ErrEmpty
	}
	if len(d.answers) == 0 {
		return nil, ErrNoAnswers
	}
	return d, nil
}

// parseWords reads one word per line, skipping blanks and "#" comments.
func parseWords(r io.Reader) ([]string, error) {
	var list []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" && !strings.HasPrefix(w, "#") {
			list = append(list, w)
		}
	}
	return list, sc.Err()
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func answerLength(w string) bool {
	return len(w) >= MinAnswerLen && len(w) <= MaxAnswerLen
}

// Normalize trims and lowercases user input.
func Normalize(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// IsLegal reports whether w is in the dictionary, ignoring case.
func (d *Dictionary) IsLegal(w string) bool {
	_, ok := d.set[Normalize(w)]
	return ok
}

// IsLegalAnswer reports whether w may be chosen as an answer.
func (d *Dictionary) IsLegalAnswer(w string) bool {
	w = Normalize(w)
	return answerLength(w) && d.IsLegal(w)
}

// IsLegalGuess reports whether w is a legal guess against an answer of answerLen letters.
func (d *Dictionary) IsLegalGuess(w string, answerLen int) bool {
	w = Normalize(w)
	return len(w) == answerLen && d.IsLegal(w)
}

// RandomAnswer returns a cryptographically random answer-eligible word.
// New guarantees at least one exists.
func (d *Dictionary) RandomAnswer() string {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(d.answers))))
	if err != nil {
		return d.answers[0]
	}
	return d.answers[nBig.Int64()]
}

// Stats returns counts of loaded words: (all legal words, answer-eligible words).
func (d *Dictionary) Stats() (legal int, answers int) {
	return len(d.set), len(d.answers)
}
