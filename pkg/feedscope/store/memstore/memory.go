package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/feedscope/pkg/feedscope/cards"
	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
	"github.com/cognicore/feedscope/pkg/feedscope/store"
)

// Store is an in-memory implementation of store.History.
type Store struct {
	mu     sync.RWMutex
	cards  map[string]cards.Card
	closed bool
}

var _ store.History = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{cards: make(map[string]cards.Card)}
}

// Close implements store.History. Later calls fail with ErrStoreUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SaveAnswer stores a card in memory.
func (s *Store) SaveAnswer(ctx context.Context, c cards.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return internalerr.ErrStoreUnavailable
	}
	if c.ID == "" {
		return fmt.Errorf("%w: card id required", internalerr.ErrInvalidInput)
	}
	s.cards[c.ID] = copyCard(c)
	return nil
}

// GetAnswer returns a card by ID.
func (s *Store) GetAnswer(ctx context.Context, id string) (cards.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return cards.Card{}, internalerr.ErrStoreUnavailable
	}
	c, ok := s.cards[id]
	if !ok {
		return cards.Card{}, fmt.Errorf("%w: answer %s", internalerr.ErrNotFound, id)
	}
	return copyCard(c), nil
}

// RecentAnswers returns the newest cards first. ULIDs sort by time.
func (s *Store) RecentAnswers(ctx context.Context, limit int) ([]cards.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}
	if limit <= 0 {
		limit = store.DefaultRecent
	}

	result := make([]cards.Card, 0, len(s.cards))
	for _, c := range s.cards {
		result = append(result, copyCard(c))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func copyCard(c cards.Card) cards.Card {
	c.FeedIDs = append([]string{}, c.FeedIDs...)
	if c.Warnings != nil {
		c.Warnings = append([]string(nil), c.Warnings...)
	}
	if c.Applied != nil {
		applied := make(map[string]any, len(c.Applied))
		for k, v := range c.Applied {
			applied[k] = v
		}
		c.Applied = applied
	}
	return c
}
