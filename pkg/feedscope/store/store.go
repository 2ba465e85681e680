package store

import (
	"context"

	"github.com/cognicore/feedscope/pkg/feedscope/cards"
)

// DefaultRecent is the page size used when RecentAnswers gets limit <= 0.
const DefaultRecent = 20

// History persists answer cards.
type History interface {
	Close() error

	// SaveAnswer inserts or replaces a card by ID.
	SaveAnswer(ctx context.Context, c cards.Card) error
	// GetAnswer returns internalerr.ErrNotFound for unknown ids.
	GetAnswer(ctx context.Context, id string) (cards.Card, error)
	// RecentAnswers returns up to limit cards, newest first.
	RecentAnswers(ctx context.Context, limit int) ([]cards.Card, error)
}
