package catalog

import (
	"fmt"

	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
)

// Catalog is the immutable, in-memory feed table.
// It is safe to share between goroutines; nothing mutates it after New.
type Catalog struct {
	feeds   []Feed
	index   map[string]int
	columns []string
}

// New builds a catalog from feeds, preserving their order.
// Feed ids must be unique and non-empty.
func New(feeds []Feed) (*Catalog, error) {
	return build(feeds, RequiredColumns)
}

func build(feeds []Feed, columns []string) (*Catalog, error) {
	c := &Catalog{
		feeds:   make([]Feed, len(feeds)),
		index:   make(map[string]int, len(feeds)),
		columns: append([]string(nil), columns...),
	}
	for i, f := range feeds {
		if f.ID == "" {
			return nil, &LoadError{Line: i + 2, Column: ColFeedID, Err: fmt.Errorf("%w: empty feed id", internalerr.ErrLoad)}
		}
		if _, dup := c.index[f.ID]; dup {
			return nil, &LoadError{Line: i + 2, Column: ColFeedID, Value: f.ID, Err: fmt.Errorf("%w: duplicate feed id", internalerr.ErrLoad)}
		}
		c.index[f.ID] = i
		c.feeds[i] = f.WithExtra(f.extra)
	}
	return c, nil
}

// Len returns the number of feeds.
func (c *Catalog) Len() int { return len(c.feeds) }

// Records returns every feed in load order. The slice is a copy.
func (c *Catalog) Records() []Feed {
	out := make([]Feed, len(c.feeds))
	copy(out, c.feeds)
	return out
}

// Feed returns the feed with the given id.
func (c *Catalog) Feed(id string) (Feed, bool) {
	i, ok := c.index[id]
	if !ok {
		return Feed{}, false
	}
	return c.feeds[i], true
}

// IDs returns up to limit feed ids in catalog order. limit <= 0 means all.
func (c *Catalog) IDs(limit int) []string {
	n := len(c.feeds)
	if limit > 0 && limit < n {
		n = limit
	}
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = c.feeds[i].ID
	}
	return ids
}

// Each calls fn for every feed in order until fn returns false.
func (c *Catalog) Each(fn func(i int, f Feed) bool) {
	for i, f := range c.feeds {
		if !fn(i, f) {
			return
		}
	}
}

// Columns returns the header of the source table. Informational only.
func (c *Catalog) Columns() []string {
	return append([]string(nil), c.columns...)
}
