package cards

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/cognicore/feedscope/pkg/feedscope/intent"
	"github.com/oklog/ulid/v2"
)

// MaxFeedIDs caps how many feed ids a card remembers.
const MaxFeedIDs = 50

// Builder constructs answer cards
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// New creates a new card builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Card is the explainable record of one answered question.
type Card struct {
	ID        string         `json:"id"`
	Question  string         `json:"question"`
	Intent    intent.Intent  `json:"intent"`
	Call      intent.Call    `json:"call"`
	Answer    string         `json:"answer"`
	Count     int            `json:"count"`
	FeedIDs   []string       `json:"feed_ids"`
	Applied   map[string]any `json:"applied_filters,omitempty"`
	Warnings  []string       `json:"warnings,omitempty"`
	Fallback  bool           `json:"fallback,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Title summarizes the card in one line.
func (c Card) Title() string {
	switch c.Call.Kind {
	case intent.CallError:
		return "Error: " + c.Call.Err
	case intent.CallByTheater:
		return fmt.Sprintf("Feeds in theater %s (%d)", c.Call.Args["theater"], c.Count)
	case intent.CallByCodec:
		return fmt.Sprintf("Feeds using codec %s (%d)", c.Call.Args["codec"], c.Count)
	case intent.CallQualityRanking:
		return fmt.Sprintf("Feeds by quality (%d)", c.Count)
	default:
		return fmt.Sprintf("All feeds (%d)", c.Count)
	}
}

// Input is everything a card is built from.
type Input struct {
	Question string
	Intent   intent.Intent
	Outcome  intent.Outcome
	Answer   string
	Fallback bool
}

// Build creates a card with a fresh ULID.
func (b *Builder) Build(in Input) Card {
	b.mu.Lock()
	now := b.now()
	id := ulid.MustNew(ulid.Timestamp(now), b.entropy).String()
	b.mu.Unlock()

	card := Card{
		ID:        id,
		Question:  in.Question,
		Intent:    in.Intent,
		Call:      in.Outcome.Call,
		Answer:    in.Answer,
		FeedIDs:   []string{},
		Fallback:  in.Fallback,
		CreatedAt: now.UTC(),
	}
	if res := in.Outcome.Result; res != nil {
		card.Count = res.Count
		card.Applied = res.AppliedFilters
		card.Warnings = res.Warnings
		ids := res.IDs()
		if len(ids) > MaxFeedIDs {
			ids = ids[:MaxFeedIDs]
		}
		card.FeedIDs = ids
	}
	return card
}
