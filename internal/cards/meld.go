// internal/cards/meld.go
//
// Duplicate consolidation: all copies sharing a name collapse into the
// best one, the rest are deleted atomically and converted into a coin
// reward. "Best" is a best-effort heuristic, not a strict total order:
// shiny beats non-shiny, a persisted image beats none, otherwise the
// oldest copy wins.

package cards

import (
	"context"
	"errors"
)

// ErrNothingToMeld reports fewer than two copies of the name.
var ErrNothingToMeld = errors.New("cards: nothing to meld")

// MeldResult reports the outcome of a consolidation.
type MeldResult struct {
	Kept    *Card `json:"kept"`
	Removed int   `json:"removed"`
	Reward  int   `json:"reward"`
}

// Meld consolidates the owner's duplicates of name into one card.
func (c *Cache) Meld(ctx context.Context, owner, name string) (*MeldResult, error) {
	all, err := c.ListMetadata(ctx, owner)
	if err != nil {
		return nil, err
	}
	var copies []*Card
	for _, card := range all {
		if card.Name == name {
			copies = append(copies, card)
		}
	}
	if len(copies) < 2 {
		return nil, ErrNothingToMeld
	}

	best := copies[0]
	for _, card := range copies[1:] {
		if betterCopy(card, best) {
			best = card
		}
	}

	reward := 0
	ids := make([]string, 0, len(copies)-1)
	for _, card := range copies {
		if card.ID == best.ID {
			continue
		}
		ids = append(ids, card.ID)
		reward += card.Rarity.MeldValue()
	}
	if err := c.DeleteMany(ctx, ids); err != nil {
		return nil, err
	}
	return &MeldResult{Kept: best, Removed: len(ids), Reward: reward}, nil
}

// betterCopy reports whether a should be kept over b.
func betterCopy(a, b *Card) bool {
	if a.Shiny != b.Shiny {
		return a.Shiny
	}
	if a.ImagePersisted != b.ImagePersisted {
		return a.ImagePersisted
	}
	// IDs are time-ordered; keep the earliest.
	return a.ID < b.ID
}
