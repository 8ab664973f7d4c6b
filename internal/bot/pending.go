// internal/bot/pending.go
//
// Short-lived state for the two-step "set word, then choose chat" flow.
// Entries live in a bounded, expiring LRU keyed by user id, so a player who
// never finishes the flow is forgotten after the TTL.

package bot

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultPendingTTL is how long a chosen word waits for /start start-game.
	DefaultPendingTTL = 15 * time.Minute
	// DefaultPendingSize caps the number of players tracked at once.
	DefaultPendingSize = 10_000
)

type pendingStep uint8

const (
	stepAwaitingWord pendingStep = iota + 1
	stepWordChosen
)

type pendingEntry struct {
	step pendingStep
	word string
}

// Pending tracks players halfway through "set word, then choose chat".
// Entries are keyed by user id, expire after a TTL, and the table is capped
// so abandoned conversations cannot pile up.
type Pending struct {
	entries *expirable.LRU[int64, pendingEntry]
}

// NewPending creates a Pending table; zero arguments select the defaults.
func NewPending(size int, ttl time.Duration) *Pending {
	if size <= 0 {
		size = DefaultPendingSize
	}
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &Pending{entries: expirable.NewLRU[int64, pendingEntry](size, nil, ttl)}
}

// AwaitWord records that userID was asked for an answer.
func (p *Pending) AwaitWord(userID int64) {
	p.entries.Add(userID, pendingEntry{step: stepAwaitingWord})
}

// Awaiting reports whether userID owes us an answer.
func (p *Pending) Awaiting(userID int64) bool {
	e, ok := p.entries.Get(userID)
	return ok && e.step == stepAwaitingWord
}

// SetWord stores the answer chosen by userID, restarting its TTL.
func (p *Pending) SetWord(userID int64, word string) {
	p.entries.Add(userID, pendingEntry{step: stepWordChosen, word: word})
}

// Word returns the answer chosen by userID, if it has not expired.
func (p *Pending) Word(userID int64) (string, bool) {
	e, ok := p.entries.Get(userID)
	if !ok || e.step != stepWordChosen {
		return "", false
	}
	return e.word, true
}

// Clear forgets userID.
func (p *Pending) Clear(userID int64) {
	p.entries.Remove(userID)
}

// Len reports the number of live entries.
func (p *Pending) Len() int {
	return p.entries.Len()
}
