// internal/cards/card.go
//
// Card record types and identifier generation.
//
// A card is created at pack-open time by the generation collaborator (or
// the static fallback) and afterwards mutated only to attach its image
// payload or flip the persisted-elsewhere marker. Removal happens only
// through meld (duplicate consolidation).

package cards

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

// Rarity tiers, in ascending order of value.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
	RarityMythical  Rarity = "mythical"
)

// Rank orders rarities for rewards; unknown rarities rank as common.
func (r Rarity) Rank() int {
	switch r {
	case RarityUncommon:
		return 1
	case RarityRare:
		return 2
	case RarityLegendary:
		return 3
	case RarityMythical:
		return 4
	}
	return 0
}

// MeldValue is the coin reward per consumed duplicate of this rarity.
func (r Rarity) MeldValue() int {
	return 10 + 15*r.Rank()
}

// Move is a single attack on a card.
type Move struct {
	Name        string `json:"name"`
	Damage      int    `json:"damage"`
	Cost        int    `json:"cost"`
	Description string `json:"description"`
}

// Card is one collectible record. Image holds the raw payload only
// transiently, between generation and Put; once persisted the cache keeps
// metadata plus the ImagePersisted marker and the payload lives in the
// blob table.
type Card struct {
	ID             string    `json:"id"`
	Owner          string    `json:"-"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	HP             int       `json:"hp"`
	Rarity         Rarity    `json:"rarity"`
	Flavor         string    `json:"flavor"`
	Moves          []Move    `json:"moves"`
	ArtPrompt      string    `json:"artPrompt"`
	Shiny          bool      `json:"shiny"`
	Image          []byte    `json:"-"`
	ImagePersisted bool      `json:"imagePersisted"`
	CreatedAt      time.Time `json:"createdAt"`
}

var idSeq atomic.Uint64

// NewID returns a globally unique, monotonically time-ordered identifier:
// a fixed-width hex millisecond timestamp, a sequence tie-breaker, and a
// random suffix. Lexical order matches creation order.
func NewID() string {
	ms := time.Now().UTC().UnixMilli()
	seq := idSeq.Add(1) & 0xffffff
	var suffix [3]byte
	_, _ = rand.Read(suffix[:])
	return fmt.Sprintf("%012x-%06x-%s", ms, seq, hex.EncodeToString(suffix[:]))
}
